package timeman

import (
	"chessclock/utils"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// NodeCounter reports the number of nodes searched since the search started
type NodeCounter interface {
	Nodes() int64
}

type Option func(m *Manager)

// Manager computes the optimal time to think for one move out of the time
// control, and tracks the time used while the search runs. It is owned by a
// single search session and re-initialized for every move.
type Manager struct {
	sync.RWMutex
	options Options
	now     func() time.Time
	nodes   NodeCounter

	ready            bool
	startTime        time.Time
	optimumTime      int
	maximumTime      int
	unstablePvFactor float64

	// Nodes as time mode, availableNodes carries over between moves of a game
	nodesAsTime    bool
	nodeIncrement  int64
	availableNodes int64
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithNodeCounter(nodes NodeCounter) Option {
	return func(m *Manager) {
		if nodes != nil {
			m.nodes = nodes
		}
	}
}

func NewManager(options Options, opts ...Option) *Manager {
	m := &Manager{
		options:          options,
		now:              time.Now,
		unstablePvFactor: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Options returns the tunables the manager was built with
func (m *Manager) Options() Options {
	return m.options
}

// Init is called at the beginning of the search and calculates the allowed
// thinking time out of the time control and the current game phase.
func (m *Manager) Init(limits Limits, us Color, phase float64) {
	m.Lock()
	defer m.Unlock()

	if math.IsNaN(phase) {
		phase = 0
	}
	phase = utils.Clamp(phase, 0.0, 1.0)
	minThinkingTime := m.options.MinThinkingTime
	moveOverhead := m.options.MoveOverhead
	slowMover := m.options.SlowMover

	myTime, myInc := limits.Time[us], limits.Inc[us]
	m.nodesAsTime = limits.useNodesAsTime()
	if m.nodesAsTime {
		if m.nodes == nil {
			panic("nodes as time mode requires a node counter")
		}
		// Only once at the start of the game
		if m.availableNodes == 0 {
			m.availableNodes = int64(limits.NodesPerMs) * int64(myTime)
		}
		myTime = int(m.availableNodes)
		myInc *= limits.NodesPerMs
		m.nodeIncrement = int64(myInc)
	}

	// Initialize unstablePvFactor to 1 and search times to maximum values
	m.unstablePvFactor = 1
	m.optimumTime = max(myTime, minThinkingTime)
	m.maximumTime = m.optimumTime

	maxMTG := MoveHorizon
	if limits.MovesToGo > 0 {
		maxMTG = min(limits.MovesToGo, MoveHorizon)
	}

	// Plan for every hypothetical "moves to go" and keep the most
	// conservative budget. Usually the greatest hypMTG gives the minimum.
	for hypMTG := 1; hypMTG <= maxMTG; hypMTG++ {
		hypMyTime := myTime + myInc*(hypMTG-1) - moveOverhead*(2+min(hypMTG, MaxOverheadMoves))
		hypMyTime = max(hypMyTime, 0)

		t1 := minThinkingTime + remaining(hypMyTime, hypMTG, slowMover, phase, optimumTime)
		t2 := minThinkingTime + remaining(hypMyTime, hypMTG, slowMover, phase, maxTime)

		m.optimumTime = min(t1, m.optimumTime)
		m.maximumTime = min(t2, m.maximumTime)
	}

	if m.options.Ponder {
		m.optimumTime += m.optimumTime / 4
	}

	m.optimumTime = min(m.optimumTime, m.maximumTime)
	m.startTime = m.now()
	m.ready = true

	log.Debug().
		Str("color", us.String()).
		Int("time", myTime).
		Int("inc", myInc).
		Int("movestogo", limits.MovesToGo).
		Float64("phase", phase).
		Bool("nodes-as-time", m.nodesAsTime).
		Int("optimum", m.optimumTime).
		Int("maximum", m.maximumTime).
		Msg("time-budget")
}

// PvInstability widens the available time when the best move keeps changing
// between iterations, and narrows it after a streak of easy moves. It never
// changes the maximum.
func (m *Manager) PvInstability(easy bool, easyPlayed int, bestMoveChanges float64) {
	m.Lock()
	defer m.Unlock()
	m.mustBeReady()

	easyOff1 := 0.01 * float64(m.options.EasyPercentOff1)
	easyOff2 := 0.01 * float64(m.options.EasyPercentOff2)
	easyTerm := 0.0
	if easy {
		easyTerm = 1
	}
	m.unstablePvFactor = 1.0 + bestMoveChanges -
		easyOff1*easyOff2*easyTerm/(easyOff2+(easyOff1-easyOff2)*float64(easyPlayed))
}

// Available is the soft target: the search should stop soon after it has used
// this much. It is not clamped to Maximum.
func (m *Manager) Available() int {
	m.RLock()
	defer m.RUnlock()
	m.mustBeReady()

	return int(float64(m.optimumTime) * m.unstablePvFactor * (0.01 * float64(m.options.TimeFactorPercent)))
}

// Optimum is the planned thinking time before any instability adjustment
func (m *Manager) Optimum() int {
	m.RLock()
	defer m.RUnlock()
	m.mustBeReady()

	return m.optimumTime
}

// Maximum is the hard ceiling the search must never cross
func (m *Manager) Maximum() int {
	m.RLock()
	defer m.RUnlock()
	m.mustBeReady()

	return m.maximumTime
}

// Elapsed returns the milliseconds since Init, or the searched nodes in nodes
// as time mode.
func (m *Manager) Elapsed() int {
	m.RLock()
	defer m.RUnlock()
	m.mustBeReady()

	if m.nodesAsTime {
		return int(m.nodes.Nodes())
	}
	return int(m.now().Sub(m.startTime).Milliseconds())
}

// UnstablePvFactor is the scale last set by PvInstability, 1 after Init
func (m *Manager) UnstablePvFactor() float64 {
	m.RLock()
	defer m.RUnlock()

	return m.unstablePvFactor
}

// SpendNodes charges the nodes searched for a move against the node budget of
// the game, and credits the increment.
func (m *Manager) SpendNodes(searched int64) {
	m.Lock()
	defer m.Unlock()
	m.mustBeReady()

	if !m.nodesAsTime {
		return
	}
	m.availableNodes += m.nodeIncrement - searched
}

// AvailableNodes is the node budget left for the game, 0 before the first move
func (m *Manager) AvailableNodes() int64 {
	m.RLock()
	defer m.RUnlock()

	return m.availableNodes
}

// NewGame forgets the node budget carried over from the previous game
func (m *Manager) NewGame() {
	m.Lock()
	defer m.Unlock()

	m.availableNodes = 0
}

func (m *Manager) mustBeReady() {
	if !m.ready {
		panic("time manager used before Init")
	}
}
