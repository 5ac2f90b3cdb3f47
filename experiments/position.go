package experiments

import (
	"chessclock/searcher"
	"context"
	"math"

	"golang.org/x/exp/rand"
)

const (
	DefaultBaseNodes  = 200
	DefaultGrowth     = 1.35
	DefaultVolatility = 0.3
	DefaultEasyRate   = 0.15
	DefaultSingleRate = 0.03
	NodeChunk         = 64 // Nodes charged between context checks
)

type PositionOption func(p *Position)

// Position stands in for a real search. Each iteration costs
// base*growth^(depth-1) nodes and randomly changes its mind about the best
// move, so the time manager sees realistic instability.
type Position struct {
	rng        *rand.Rand
	baseNodes  float64
	growth     float64
	volatility float64
	easyRate   float64
	singleRate float64

	// Traits of the move being searched, drawn at depth 1
	moveVolatility float64
	easy           bool
	singleReply    bool
}

func WithBaseNodes(nodes float64) PositionOption {
	return func(p *Position) {
		if nodes > 0 {
			p.baseNodes = nodes
		}
	}
}

func WithGrowth(growth float64) PositionOption {
	return func(p *Position) {
		if growth >= 1 {
			p.growth = growth
		}
	}
}

func WithVolatility(volatility float64) PositionOption {
	return func(p *Position) {
		p.volatility = math.Max(0, math.Min(1, volatility))
	}
}

func WithEasyRate(rate float64) PositionOption {
	return func(p *Position) {
		p.easyRate = math.Max(0, math.Min(1, rate))
	}
}

func WithSingleReplyRate(rate float64) PositionOption {
	return func(p *Position) {
		p.singleRate = math.Max(0, math.Min(1, rate))
	}
}

func NewPosition(seed uint64, options ...PositionOption) *Position {
	p := &Position{ // Default values
		rng:        rand.New(rand.NewSource(seed)),
		baseNodes:  DefaultBaseNodes,
		growth:     DefaultGrowth,
		volatility: DefaultVolatility,
		easyRate:   DefaultEasyRate,
		singleRate: DefaultSingleRate,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *Position) Cost(depth int) int64 {
	return int64(p.baseNodes * math.Pow(p.growth, float64(depth-1)))
}

// Iterate implements searcher.IterateFunc
func (p *Position) Iterate(ctx context.Context, depth int, nodes *searcher.Counter) (searcher.Report, error) {
	if depth == 1 {
		p.newMove()
	}

	cost := p.Cost(depth)
	for spent := int64(0); spent < cost; spent += NodeChunk {
		if err := ctx.Err(); err != nil {
			return searcher.Report{}, err
		}
		if !nodes.Add(min(NodeChunk, cost-spent)) {
			return searcher.Report{}, ctx.Err()
		}
	}

	report := searcher.Report{
		Easy:        p.easy,
		SingleReply: p.singleReply,
	}
	// Deeper iterations settle down
	if p.rng.Float64() < p.moveVolatility/math.Sqrt(float64(depth)) {
		report.BestMoveChanges = float64(1 + p.rng.Intn(2))
	}
	return report, nil
}

func (p *Position) newMove() {
	p.singleReply = p.rng.Float64() < p.singleRate
	p.easy = !p.singleReply && p.rng.Float64() < p.easyRate
	p.moveVolatility = p.volatility * 2 * p.rng.Float64()
	if p.easy {
		p.moveVolatility = 0
	}
}
