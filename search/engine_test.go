package search

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/config"
	"github.com/hivelab/hiveai/evaluation"
	"github.com/hivelab/hiveai/move"
	"github.com/hivelab/hiveai/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig() config.Engine {
	cfg := config.DefaultConfig().Engine
	cfg.TranspositionTableSizeMB = 2
	cfg.BoardScoreCacheSizeMB = 1
	cfg.MoveOrderCacheSizeMB = 1
	return cfg
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testConfig(), testhelpers.ValueWeights())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

type progressLog []BestMoveInfo

func (p *progressLog) record(info BestMoveInfo) {
	*p = append(*p, info)
}

func (p progressLog) last() BestMoveInfo {
	return p[len(p)-1]
}

func TestForcedWin(t *testing.T) {
	is := is.New(t)
	root := testhelpers.Branch(0,
		testhelpers.Leaf(5),
		testhelpers.Won(board.White),
		testhelpers.Leaf(1),
	)
	b := testhelpers.NewTreeBoard(root, board.White)
	e := newTestEngine(t)

	var events progressLog
	m, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 3}, events.record)
	is.NoErr(err)
	is.Equal(m, testhelpers.MoveTo(1))
	is.True(len(events) > 0)
	is.Equal(events.last().Move, testhelpers.MoveTo(1))
	is.True(math.IsInf(events.last().Score, 1))
	is.Equal(b.Ply(), 0)
	is.Equal(e.State(), Done)
}

func TestForcedWinForBlack(t *testing.T) {
	is := is.New(t)
	root := testhelpers.Branch(0,
		testhelpers.Leaf(-30),
		testhelpers.Leaf(-50),
		testhelpers.Won(board.Black),
	)
	b := testhelpers.NewTreeBoard(root, board.Black)
	e := newTestEngine(t)

	var events progressLog
	m, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 2}, events.record)
	is.NoErr(err)
	is.Equal(m, testhelpers.MoveTo(2))
	is.True(math.IsInf(events.last().Score, 1))
}

func TestGameOver(t *testing.T) {
	is := is.New(t)
	b := testhelpers.NewTreeBoard(testhelpers.Won(board.Black), board.White)
	e := newTestEngine(t)

	called := false
	_, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 4, MaxHelperThreads: 4},
		func(BestMoveInfo) { called = true })
	is.True(errors.Is(err, ErrGameOver))
	is.True(!called)
	is.Equal(e.State(), Idle)
	is.Equal(e.Nodes(), uint64(0))
	is.Equal(b.Plays(), int64(0))
}

func TestInvalidLimits(t *testing.T) {
	is := is.New(t)
	b := testhelpers.NewTreeBoard(testhelpers.RandomTree(3, 3), board.White)
	e := newTestEngine(t)
	ctx := context.Background()

	for _, l := range []Limits{
		{MaxDepth: -1},
		{MaxTime: -time.Second},
		{MaxDepth: 2, MaxHelperThreads: -2},
	} {
		_, err := e.BestMove(ctx, b, l, nil)
		is.True(errors.Is(err, ErrInvalidLimits))
	}
	_, err := e.BestMove(ctx, nil, Limits{MaxDepth: 2}, nil)
	is.True(errors.Is(err, ErrInvalidLimits))
	is.Equal(b.Plays(), int64(0))
}

func TestSingleMoveIsNotSearched(t *testing.T) {
	is := is.New(t)
	root := testhelpers.Branch(0, testhelpers.RandomTree(4, 3))
	b := testhelpers.NewTreeBoard(root, board.White)
	e := newTestEngine(t)

	var events progressLog
	m, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 6}, events.record)
	is.NoErr(err)
	is.Equal(m, testhelpers.MoveTo(0))
	is.Equal(e.Nodes(), uint64(0))
	is.Equal(len(events), 1)
	is.Equal(events[0].Depth, 0)
	is.True(events[0].Score != move.Unevaluated)
}

func TestSingleMoveIsScoredStatically(t *testing.T) {
	for _, c := range []struct {
		toMove board.Color
		want   float64
	}{
		{board.White, 7},
		{board.Black, -7},
	} {
		is := is.New(t)
		b := testhelpers.NewTreeBoard(testhelpers.Branch(0, testhelpers.Leaf(7)), c.toMove)
		e := newTestEngine(t)

		var events progressLog
		best, err := e.bestMove(context.Background(), b, Limits{MaxDepth: 4}, events.record)
		is.NoErr(err)
		is.Equal(best.Move, testhelpers.MoveTo(0))
		is.Equal(best.Score, c.want)
		is.Equal(best.Depth, 0)
		is.Equal(events.last().Score, c.want)
		is.Equal(e.Nodes(), uint64(0))
		is.Equal(b.Ply(), 0)
	}
}

func TestBestMoveMatchesMinimax(t *testing.T) {
	for i := 0; i < 25; i++ {
		root := testhelpers.RandomTree(5, 4)
		for depth := 1; depth <= 4; depth++ {
			b := testhelpers.NewTreeBoard(root, board.White)
			e := newTestEngine(t)
			best, err := e.bestMove(context.Background(), b, Limits{MaxDepth: depth}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(root.Edges) == 1 {
				continue
			}
			want := minimax(t, b, best.Depth, e.cfg.QuiescenceMaxDepth)
			if best.Score != want {
				t.Fatalf("tree %d depth %d: search scored %v at depth %d, minimax %v",
					i, depth, best.Score, best.Depth, want)
			}
			assert.Equal(t, 0, b.Ply())
		}
	}
}

func TestRepeatedSearchStartsDeeper(t *testing.T) {
	is := is.New(t)
	root := testhelpers.RandomTree(6, 3)
	for len(root.Edges) < 2 {
		root = testhelpers.RandomTree(6, 3)
	}
	b := testhelpers.NewTreeBoard(root, board.White)
	e := newTestEngine(t)

	first, err := e.bestMove(context.Background(), b, Limits{MaxDepth: 2}, nil)
	is.NoErr(err)
	if math.IsInf(first.Score, 0) {
		t.Skip("decided at the first search")
	}
	var events progressLog
	_, err = e.bestMove(context.Background(), b, Limits{MaxDepth: 4}, events.record)
	is.NoErr(err)
	// The stored root result is reported first.
	is.Equal(events[0].Move, first.Move)
	is.Equal(events[0].Depth, first.Depth)
	for _, ev := range events[1:] {
		is.True(ev.Depth > first.Depth)
	}
}

func TestCancelledContext(t *testing.T) {
	is := is.New(t)
	root := testhelpers.RandomTree(6, 4)
	for len(root.Edges) < 2 {
		root = testhelpers.RandomTree(6, 4)
	}
	b := testhelpers.NewTreeBoard(root, board.White)
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := e.BestMove(ctx, b, Limits{MaxDepth: 5, MaxHelperThreads: 2}, nil)
	is.NoErr(err)
	is.True(isValid(b, m))
	is.Equal(e.State(), Cancelled)
	is.Equal(b.Ply(), 0)
}

func TestCancelDuringSearch(t *testing.T) {
	for i := 0; i < 10; i++ {
		is := is.New(t)
		b := testhelpers.NewTreeBoard(testhelpers.RandomTree(8, 4), board.White)
		e := newTestEngine(t)

		ctx, cancel := context.WithCancel(context.Background())
		var events progressLog
		m, err := e.BestMove(ctx, b, Limits{MaxHelperThreads: 3}, func(info BestMoveInfo) {
			events.record(info)
			if info.Depth >= 2 {
				cancel()
			}
		})
		cancel()
		is.NoErr(err)
		is.True(isValid(b, m))
		is.Equal(m, events.last().Move)
		is.Equal(b.Ply(), 0)
	}
}

func TestTimeLimit(t *testing.T) {
	is := is.New(t)
	b := testhelpers.NewTreeBoard(testhelpers.RandomTree(9, 4), board.White)
	e := newTestEngine(t)

	start := time.Now()
	m, err := e.BestMove(context.Background(), b, Limits{MaxTime: 50 * time.Millisecond, MaxHelperThreads: 1}, nil)
	is.NoErr(err)
	is.True(isValid(b, m))
	is.True(time.Since(start) < 5*time.Second)
}

func TestHelpersKeepResultLegal(t *testing.T) {
	for i := 0; i < 10; i++ {
		is := is.New(t)
		root := testhelpers.RandomTree(6, 4)
		for len(root.Edges) < 2 {
			root = testhelpers.RandomTree(6, 4)
		}
		b := testhelpers.NewTreeBoard(root, board.Black)
		e := newTestEngine(t)

		var events progressLog
		m, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 4, MaxHelperThreads: 4}, events.record)
		is.NoErr(err)
		is.True(isValid(b, m))
		is.Equal(m, events.last().Move)
		is.Equal(b.Ply(), 0)
		is.True(e.TranspositionTable().Len() > 0)
	}
}

func TestPrincipalVariationIsPlayable(t *testing.T) {
	is := is.New(t)
	root := testhelpers.RandomTree(6, 3)
	b := testhelpers.NewTreeBoard(root, board.White)
	e := newTestEngine(t)

	var events progressLog
	_, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 4}, events.record)
	is.NoErr(err)

	pv := events.last().PrincipalVariation
	is.True(len(pv.Moves) >= 1)
	is.True(len(pv.Moves) <= max(1, events.last().Depth))
	is.Equal(pv.Moves[0], events.last().Move)
	for _, m := range pv.Moves {
		is.True(isValid(b, m))
		b.TrustedPlay(m)
	}
}

func TestSetWeightsResetsCaches(t *testing.T) {
	is := is.New(t)
	b := testhelpers.NewTreeBoard(testhelpers.RandomTree(5, 3), board.White)
	e := newTestEngine(t)
	_, err := e.BestMove(context.Background(), b, Limits{MaxDepth: 3}, nil)
	is.NoErr(err)

	w := testhelpers.ValueWeights()
	w.End.Set(board.QueenBee, evaluation.InPlayWeight, 2)
	is.NoErr(e.SetWeights(w))
	is.Equal(e.TranspositionTable().Len(), 0)
	is.Equal(e.Weights().End.Get(board.QueenBee, evaluation.InPlayWeight), 2.0)
}

// minimax is plain negamax with the same quiescence rule as the engine.
func minimax(t *testing.T, b *testhelpers.TreeBoard, depth, qdepth int) float64 {
	eval, err := evaluation.NewEvaluator(testhelpers.ValueWeights(), 1)
	if err != nil {
		t.Fatal(err)
	}
	var quiesce func(d int) float64
	quiesce = func(d int) float64 {
		best := b.CurrentColor().Sign() * eval.Score(b)
		if d == 0 || b.GameIsOver() {
			return best
		}
		for _, m := range b.ValidMoves() {
			if !b.IsNoisyMove(m) {
				continue
			}
			b.TrustedPlay(m)
			best = max(best, -quiesce(d-1))
			b.UndoLastMove()
		}
		return best
	}
	var negamax func(d int) float64
	negamax = func(d int) float64 {
		moves := b.ValidMoves()
		if d == 0 || b.GameIsOver() || len(moves) == 0 {
			return quiesce(qdepth)
		}
		best := math.Inf(-1)
		for _, m := range moves {
			b.TrustedPlay(m)
			best = max(best, -negamax(d-1))
			b.UndoLastMove()
		}
		return best
	}
	return negamax(depth)
}
