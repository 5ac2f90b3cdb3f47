package timeman

type Color int

const (
	White Color = iota
	Black
	ColorNB
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// Opponent returns the side to move after c
func (c Color) Opponent() Color {
	return c ^ 1
}

// Limits is the time control for a single move. All times are in milliseconds.
//
//	Inc == 0 && MovesToGo == 0: x basetime [sudden death]
//	Inc == 0 && MovesToGo != 0: x moves in y minutes
//	Inc >  0 && MovesToGo == 0: x basetime + z increment
//	Inc >  0 && MovesToGo != 0: x moves in y minutes + z increment
type Limits struct {
	Time       [ColorNB]int
	Inc        [ColorNB]int
	MovesToGo  int // 0 if unknown
	NodesPerMs int // Searched nodes stand in for milliseconds when > 0
}

func (l Limits) useNodesAsTime() bool {
	return l.NodesPerMs > 0
}
