// selfplay tunes metric weights by playing Nim against itself and training
// on every searched position with TreeStrap.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"lukechampine.com/frand"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/config"
	"github.com/hivelab/hiveai/evaluation"
	"github.com/hivelab/hiveai/nim"
	"github.com/hivelab/hiveai/search"
	"github.com/hivelab/hiveai/stats"
)

func main() {
	fs := pflag.NewFlagSet("selfplay", pflag.ExitOnError)
	pilesFlag := fs.String("piles", "3,4,5,6", "comma separated pile sizes")
	games := fs.Int("games", 20, "number of games to play")
	openingPlies := fs.Int("opening-plies", 2, "random moves played before the engine takes over")
	depth := fs.Int("depth", 4, "maximum search depth per move, 0 for no limit")
	moveTime := fs.Duration("move-time", 2*time.Second, "maximum time per move, 0 for no limit")
	helpers := fs.Int("helpers", 0, "helper search threads")
	out := fs.String("out", "weights.yaml", "where to write the tuned weights")

	cfg := config.DefaultConfig()
	if err := cfg.LoadFlags(fs, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	piles, err := nim.ParsePiles(*pilesFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing-piles")
	}
	weights, err := cfg.Weights()
	if err != nil {
		log.Fatal().Err(err).Msg("loading-weights")
	}
	engine, err := search.NewEngine(cfg.Engine, weights)
	if err != nil {
		log.Fatal().Err(err).Msg("creating-engine")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maxPile := 0
	for _, p := range piles {
		maxPile = max(maxPile, p)
	}
	table := nim.NewTable(len(piles), maxPile)
	limits := search.Limits{MaxDepth: *depth, MaxTime: *moveTime, MaxHelperThreads: *helpers}

	var lengths []float64
	var length, searchDepth stats.Running
	var wins [board.NumColors]int
	var moveDepth int
	recordDepth := func(info search.BestMoveInfo) { moveDepth = info.Depth }
	for i := 0; i < *games && ctx.Err() == nil; i++ {
		g, err := nim.New(table, piles)
		if err != nil {
			log.Fatal().Err(err).Msg("new-game")
		}
		for p := 0; p < *openingPlies && !g.GameIsOver(); p++ {
			moves := g.ValidMoves()
			g.TrustedPlay(moves[frand.Intn(len(moves))])
		}
		engine.ResetCaches()
		for !g.GameIsOver() && ctx.Err() == nil {
			m, err := engine.TreeStrap(ctx, g, limits, recordDepth)
			if err != nil {
				log.Fatal().Err(err).Msg("treestrap")
			}
			searchDepth.Push(float64(moveDepth))
			g.TrustedPlay(m)
		}
		if !g.GameIsOver() {
			break
		}
		lengths = append(lengths, float64(g.MovesPlayed()))
		length.Push(float64(g.MovesPlayed()))
		if g.State() == board.WhiteWins {
			wins[board.White]++
		} else {
			wins[board.Black]++
		}
		log.Info().Int("game", i+1).
			Str("result", g.State().String()).
			Int("moves", g.MovesPlayed()).
			Msg("game-finished")
	}

	log.Info().
		Int("white-wins", wins[board.White]).
		Int("black-wins", wins[board.Black]).
		Str("game-length", length.String()).
		Str("search-depth", searchDepth.String()).
		Msg("selfplay-done")
	if len(lengths) > 0 {
		h := histogram.Hist(min(10, len(lengths)), lengths)
		if err := histogram.Fprint(os.Stdout, h, histogram.Linear(40)); err != nil {
			log.Err(err).Msg("printing-histogram")
		}
	}

	if err := evaluation.SaveWeights(*out, engine.Weights()); err != nil {
		log.Fatal().Err(err).Msg("saving-weights")
	}
	log.Info().Str("path", *out).Msg("weights-saved")
}
