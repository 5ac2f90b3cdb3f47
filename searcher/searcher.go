package searcher

import (
	"chessclock/experiments/metrics"
	"chessclock/timeman"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollInterval = 5 * time.Millisecond
	DefaultMaxDepth     = 128
	HardStopMargin      = 10    // ms, stop this much before the maximum
	BestMoveChangesAge  = 0.505 // Weight kept by the best move changes of older iterations
)

type StopReason string

const (
	StoppedByDepth       StopReason = "depth"
	StoppedBySingleReply StopReason = "single-reply"
	StoppedByEasyMove    StopReason = "easy-move"
	StoppedByAvailable   StopReason = "available"
	StoppedByMaximum     StopReason = "maximum"
	StoppedByCancel      StopReason = "cancelled"
)

// Report is what the host search learned in one iteration
type Report struct {
	BestMoveChanges float64 // Times the best move changed during the iteration
	Easy            bool    // The best move is clearly better than the alternatives
	SingleReply     bool    // Only one legal move
}

// IterateFunc searches the position once at the given depth. It must count
// its nodes with nodes.Add, stop once Add returns false and return soon after
// ctx is done.
type IterateFunc func(ctx context.Context, depth int, nodes *Counter) (Report, error)

type Result struct {
	Depth     int // Last completed iteration
	Nodes     int64
	Elapsed   int
	Optimum   int
	Maximum   int
	Available int
	StoppedBy StopReason
	Metric    metrics.SearchMetric
}

type Option func(s *Searcher)

// Searcher runs iterative deepening for one move at a time and decides when
// to stop from the time budget.
type Searcher struct {
	timer        *timeman.Manager
	timerOptions []timeman.Option
	nodes        *Counter
	pollInterval time.Duration
	maxDepth     int
	easyPlayed   int // Consecutive moves stopped early as easy
	metrics      metrics.Collector
}

func WithPollInterval(interval time.Duration) Option {
	return func(s *Searcher) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(s *Searcher) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

func WithMetrics() Option {
	return func(s *Searcher) {
		s.metrics = metrics.NewCollector()
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Searcher) {
		s.timerOptions = append(s.timerOptions, timeman.WithClock(now))
	}
}

func NewSearcher(options timeman.Options, opts ...Option) *Searcher {
	s := &Searcher{ // Default values
		nodes:        &Counter{},
		pollInterval: DefaultPollInterval,
		maxDepth:     DefaultMaxDepth,
		metrics:      metrics.NewDummyCollector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timer = timeman.NewManager(options, append(s.timerOptions, timeman.WithNodeCounter(s.nodes))...)
	return s
}

func (s *Searcher) Timer() *timeman.Manager {
	return s.timer
}

// NewGame clears what the searcher carries over between moves of a game
func (s *Searcher) NewGame() {
	s.timer.NewGame()
	s.easyPlayed = 0
}

// Search deepens iteratively until the time budget for the move is used, the
// maximum depth is reached, or ctx is cancelled.
func (s *Searcher) Search(ctx context.Context, limits timeman.Limits, us timeman.Color, phase float64, iterate IterateFunc) (Result, error) {
	s.timer.Init(limits, us, phase)
	s.metrics.Start()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var hardStop atomic.Bool
	hardStopFn := func() {
		hardStop.Store(true)
		stop()
	}

	// In nodes as time mode the hard limit is enforced by the counter itself,
	// the margin converted to nodes
	var nodeLimit int64
	if limits.NodesPerMs > 0 {
		nodeLimit = int64(max(s.timer.Maximum()-HardStopMargin*limits.NodesPerMs, 1))
	}
	s.nodes.reset(nodeLimit, hardStopFn)

	var result Result
	g, gctx := errgroup.WithContext(ctx)
	if limits.NodesPerMs == 0 {
		g.Go(func() error {
			s.watch(gctx, hardStopFn)
			return nil
		})
	}
	g.Go(func() error {
		defer stop()
		var err error
		result, err = s.deepen(gctx, iterate)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if result.StoppedBy == StoppedByCancel && hardStop.Load() {
		result.StoppedBy = StoppedByMaximum
	}
	if result.StoppedBy == StoppedByEasyMove {
		s.easyPlayed++
	} else {
		s.easyPlayed = 0
	}

	result.Nodes = s.nodes.Nodes()
	result.Elapsed = s.timer.Elapsed()
	result.Optimum = s.timer.Optimum()
	result.Maximum = s.timer.Maximum()
	result.Available = s.timer.Available()
	result.Metric = s.metrics.Complete()
	s.timer.SpendNodes(result.Nodes)

	log.Debug().
		Str("color", us.String()).
		Int("depth", result.Depth).
		Int64("nodes", result.Nodes).
		Int("elapsed", result.Elapsed).
		Int("available", result.Available).
		Int("maximum", result.Maximum).
		Str("stopped-by", string(result.StoppedBy)).
		Msg("search-done")

	return result, nil
}

func (s *Searcher) deepen(ctx context.Context, iterate IterateFunc) (Result, error) {
	result := Result{StoppedBy: StoppedByDepth}
	bestMoveChanges := 0.0

	for depth := 1; depth <= s.maxDepth; depth++ {
		// Age out PV variability metric
		bestMoveChanges *= BestMoveChangesAge

		report, err := iterate(ctx, depth, s.nodes)
		if ctx.Err() != nil { // Discard the interrupted iteration
			result.StoppedBy = StoppedByCancel
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("iteration at depth %d: %w", depth, err)
		}
		result.Depth = depth

		bestMoveChanges += report.BestMoveChanges
		s.timer.PvInstability(report.Easy, s.easyPlayed, bestMoveChanges)
		s.metrics.AddIteration(s.timer.UnstablePvFactor())

		if reason, ok := s.shouldStop(report); ok {
			result.StoppedBy = reason
			return result, nil
		}
	}
	return result, nil
}

// shouldStop decides after a completed iteration whether starting another
// one is worth it
func (s *Searcher) shouldStop(report Report) (StopReason, bool) {
	elapsed := s.timer.Elapsed()
	available := s.timer.Available()

	switch {
	case report.SingleReply:
		return StoppedBySingleReply, true
	case report.Easy && elapsed > available*5/42:
		return StoppedByEasyMove, true
	case elapsed > min(available, s.timer.Maximum()):
		return StoppedByAvailable, true
	}
	return "", false
}

// watch polls the clock and stops the search just before the maximum
func (s *Searcher) watch(ctx context.Context, hardStop func()) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.timer.Elapsed() >= s.timer.Maximum()-HardStopMargin {
				log.Debug().Int("elapsed", s.timer.Elapsed()).Int("maximum", s.timer.Maximum()).Msg("hard-stop")
				hardStop()
				return
			}
		}
	}
}
