package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	StartTime      time.Time
	Duration       time.Duration // Wall time, also in nodes as time mode
	Iterations     int
	MaxInstability float64 // Peak unstable PV factor over the iterations
}

type MoveMetric struct {
	Step        int
	Player      string
	ClockBefore int // ms
	ClockAfter  int // ms
	Optimum     int
	Maximum     int
	Available   int
	Elapsed     int // ms, or nodes in nodes as time mode
	Depth       int
	Nodes       int64
	StoppedBy   string
	SearchMetric
}

type GameMetric struct {
	TimeControl string
	Winner      string
	Flagged     string // Player that ran out of time, if any
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalMoves  int
}

type Collector interface {
	Start()
	AddIteration(unstablePvFactor float64)
	Complete() SearchMetric
}

type collector struct {
	mu             sync.Mutex
	startTime      time.Time
	iterations     atomic.Int32
	maxInstability float64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.startTime = time.Now()
	m.iterations.Store(0)
	m.maxInstability = 0
}

func (m *collector) AddIteration(unstablePvFactor float64) {
	m.iterations.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxInstability = max(m.maxInstability, unstablePvFactor)
}

func (m *collector) Complete() SearchMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return SearchMetric{
		StartTime:      m.startTime,
		Duration:       time.Since(m.startTime),
		Iterations:     int(m.iterations.Load()),
		MaxInstability: m.maxInstability,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                                {}
func (m *dummyCollector) AddIteration(unstablePvFactor float64) {}
func (m *dummyCollector) Complete() SearchMetric                { return SearchMetric{} }
