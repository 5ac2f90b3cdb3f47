package searcher

import (
	"chessclock/timeman"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

/*
Node budget of 60000 nodes (1 node per ms, 60s sudden death, default options):
- optimum 1194, maximum 7362, hard node limit 7352
- available = int(1194 * unstablePvFactor * 0.8), 955 when stable
*/

func nodeLimits() timeman.Limits {
	return timeman.Limits{Time: [timeman.ColorNB]int{60000, 60000}, NodesPerMs: 1}
}

func fixedCost(cost int64, report Report) IterateFunc {
	return func(ctx context.Context, depth int, nodes *Counter) (Report, error) {
		if !nodes.Add(cost) {
			return Report{}, ctx.Err()
		}
		return report, nil
	}
}

func TestSearchStops(t *testing.T) {
	t.Run("stopping once available is used", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions(), WithMetrics())

		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{}))

		require.NoError(t, err)
		require.Equal(t, StoppedByAvailable, got.StoppedBy)
		require.Equal(t, 10, got.Depth, "Should stop after the first iteration over 955 nodes")
		require.Equal(t, int64(1000), got.Nodes)
		require.Equal(t, 1000, got.Elapsed, "Elapsed should count nodes")
		require.Equal(t, 1194, got.Optimum)
		require.Equal(t, 7362, got.Maximum)
		require.Equal(t, 955, got.Available)
		require.Equal(t, 10, got.Metric.Iterations, "Metrics should count every completed iteration")
		require.Equal(t, 1.0, got.Metric.MaxInstability)
	})

	t.Run("hard stop at maximum", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())
		endless := func(ctx context.Context, depth int, nodes *Counter) (Report, error) {
			for nodes.Add(100) {
			}
			return Report{}, ctx.Err()
		}

		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, endless)

		require.NoError(t, err)
		require.Equal(t, StoppedByMaximum, got.StoppedBy)
		require.Equal(t, 0, got.Depth, "Interrupted iteration should be discarded")
		require.Equal(t, int64(7352), got.Nodes, "Should stop at the 7352 node limit")
	})

	t.Run("large chunks stay within the maximum", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())

		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(5000, Report{BestMoveChanges: 10}))

		require.NoError(t, err)
		require.Equal(t, StoppedByMaximum, got.StoppedBy)
		require.Equal(t, 1, got.Depth, "Second iteration should be cut off")
		require.LessOrEqual(t, got.Elapsed, got.Maximum)
		require.Equal(t, int64(7352), got.Nodes)
	})

	t.Run("margin is converted to nodes", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())
		limits := nodeLimits()
		limits.NodesPerMs = 100

		got, err := s.Search(context.Background(), limits, timeman.White, 0, fixedCost(1<<40, Report{}))

		require.NoError(t, err)
		require.Equal(t, StoppedByMaximum, got.StoppedBy)
		require.Equal(t, int64(got.Maximum-HardStopMargin*100), got.Nodes)
	})

	t.Run("single reply", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())

		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(1, Report{SingleReply: true}))

		require.NoError(t, err)
		require.Equal(t, StoppedBySingleReply, got.StoppedBy)
		require.Equal(t, 1, got.Depth)
	})

	t.Run("maximum depth", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions(), WithMaxDepth(3))

		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(1, Report{}))

		require.NoError(t, err)
		require.Equal(t, StoppedByDepth, got.StoppedBy)
		require.Equal(t, 3, got.Depth)
	})

	t.Run("unstable best move searches longer", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions(), WithMetrics())

		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{BestMoveChanges: 1}))

		require.NoError(t, err)
		require.Equal(t, StoppedByAvailable, got.StoppedBy)
		require.Greater(t, got.Depth, 10, "Best move changes should widen the budget")
		require.LessOrEqual(t, got.Nodes, int64(got.Maximum), "Should never pass the maximum")
		require.Greater(t, got.Metric.MaxInstability, 2.0)
	})

	t.Run("cancelled by the caller", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		iterate := func(ctx context.Context, depth int, nodes *Counter) (Report, error) {
			nodes.Add(1)
			if depth == 3 {
				cancel()
				return Report{}, ctx.Err()
			}
			return Report{}, nil
		}

		got, err := s.Search(ctx, nodeLimits(), timeman.White, 0, iterate)

		require.NoError(t, err)
		require.Equal(t, StoppedByCancel, got.StoppedBy)
		require.Equal(t, 2, got.Depth)
	})

	t.Run("iteration error", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())
		boom := errors.New("boom")
		iterate := func(ctx context.Context, depth int, nodes *Counter) (Report, error) {
			if depth == 2 {
				return Report{}, boom
			}
			return Report{}, nil
		}

		_, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, iterate)

		require.ErrorIs(t, err, boom)
	})

	t.Run("wall clock hard stop", func(t *testing.T) {
		// Too little time for the overhead, both budgets fall to the minimum thinking time
		s := NewSearcher(timeman.DefaultOptions(), WithPollInterval(time.Millisecond))
		limits := timeman.Limits{Time: [timeman.ColorNB]int{200, 200}}
		blocking := func(ctx context.Context, depth int, nodes *Counter) (Report, error) {
			select {
			case <-ctx.Done():
				return Report{}, ctx.Err()
			case <-time.After(5 * time.Second):
				return Report{}, errors.New("search was not stopped")
			}
		}

		got, err := s.Search(context.Background(), limits, timeman.White, 0, blocking)

		require.NoError(t, err)
		require.Equal(t, StoppedByMaximum, got.StoppedBy)
		require.Equal(t, 20, got.Maximum)
		require.Equal(t, 0, got.Depth)
	})
}

func TestSearchEasyMoves(t *testing.T) {
	t.Run("easy move stops early", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())

		// available = int(1194 * 0.13 * 0.8) = 124, easy threshold 124*5/42 = 14
		got, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{Easy: true}))

		require.NoError(t, err)
		require.Equal(t, StoppedByEasyMove, got.StoppedBy)
		require.Equal(t, 1, got.Depth)
		require.Equal(t, 1, s.easyPlayed, "Easy move streak should grow")
	})

	t.Run("streak resets after a regular move", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())
		_, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{Easy: true}))
		require.NoError(t, err)
		_, err = s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{Easy: true}))
		require.NoError(t, err)
		require.Equal(t, 2, s.easyPlayed)

		_, err = s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{}))

		require.NoError(t, err)
		require.Equal(t, 0, s.easyPlayed)
	})
}

func TestSearchNodeBudget(t *testing.T) {
	t.Run("searched nodes are charged to the game", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())

		_, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{}))

		require.NoError(t, err)
		require.Equal(t, int64(60000-1000), s.Timer().AvailableNodes())
	})

	t.Run("new game restores the budget", func(t *testing.T) {
		s := NewSearcher(timeman.DefaultOptions())
		_, err := s.Search(context.Background(), nodeLimits(), timeman.White, 0, fixedCost(100, Report{Easy: true}))
		require.NoError(t, err)

		s.NewGame()

		require.Equal(t, int64(0), s.Timer().AvailableNodes())
		require.Equal(t, 0, s.easyPlayed)
	})
}

func TestCounter(t *testing.T) {
	t.Run("no limit", func(t *testing.T) {
		c := &Counter{}
		c.reset(0, nil)

		require.True(t, c.Add(1<<40))
		require.Equal(t, int64(1<<40), c.Nodes())
	})

	t.Run("limit reached", func(t *testing.T) {
		c := &Counter{}
		calls := 0
		c.reset(10, func() { calls++ })

		require.True(t, c.Add(9))
		require.False(t, c.Add(1), "Should stop at the limit")
		require.Equal(t, 1, calls)
	})

	t.Run("never counts past the limit", func(t *testing.T) {
		c := &Counter{}
		calls := 0
		c.reset(10, func() { calls++ })

		require.True(t, c.Add(7))
		require.False(t, c.Add(5))
		require.Equal(t, int64(10), c.Nodes())
		require.False(t, c.Add(5))
		require.Equal(t, int64(10), c.Nodes())
		require.Equal(t, 2, calls)
	})
}
