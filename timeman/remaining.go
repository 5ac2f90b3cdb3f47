package timeman

const (
	MoveHorizon      = 50   // Plan time management at most this many moves ahead
	MaxRatio         = 7.0  // When in trouble, we can step over reserved time with this ratio
	StealRatio       = 0.33 // However we must not steal time from remaining moves over this ratio
	MaxOverheadMoves = 40   // Move overhead is reserved for at most this many moves ahead
)

type timeType int

const (
	optimumTime timeType = iota
	maxTime
)

// remaining returns the part of myTime to spend on the current move when
// movesToGo moves are left in the time control. phase is the progress of the
// game in [0, 1]; future moves lose weight as it grows.
func remaining(myTime, movesToGo, slowMover int, phase float64, t timeType) int {
	tMaxRatio, tStealRatio := 1.0, 0.0
	if t == maxTime {
		tMaxRatio, tStealRatio = MaxRatio, StealRatio
	}

	moveImportance := float64(slowMover) / 100
	otherMovesImportance := float64(movesToGo-1) * (1.0 - 0.25*phase)

	ratio1 := (tMaxRatio * moveImportance) / (tMaxRatio*moveImportance + otherMovesImportance)
	ratio2 := (moveImportance + tStealRatio*otherMovesImportance) / (moveImportance + otherMovesImportance)

	return int(float64(myTime) * min(ratio1, ratio2))
}
