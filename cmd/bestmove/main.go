// bestmove searches one Nim position and prints every improvement of the
// best move as the search deepens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/hivelab/hiveai/config"
	"github.com/hivelab/hiveai/nim"
	"github.com/hivelab/hiveai/search"
)

func main() {
	fs := pflag.NewFlagSet("bestmove", pflag.ExitOnError)
	pilesFlag := fs.String("piles", "3,4,5", "comma separated pile sizes")
	depth := fs.Int("depth", 0, "maximum search depth, 0 for no limit")
	moveTime := fs.Duration("time", 5*time.Second, "maximum search time, 0 for no limit")
	helpers := fs.Int("helpers", 2, "helper search threads")

	cfg := config.DefaultConfig()
	if err := cfg.LoadFlags(fs, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	piles, err := nim.ParsePiles(*pilesFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing-piles")
	}
	maxPile := 0
	for _, p := range piles {
		maxPile = max(maxPile, p)
	}
	g, err := nim.New(nim.NewTable(len(piles), maxPile), piles)
	if err != nil {
		log.Fatal().Err(err).Msg("new-game")
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

	fmt.Println(g)
	start := time.Now()
	m, err := engine.BestMove(ctx, g, search.Limits{MaxDepth: *depth, MaxTime: *moveTime, MaxHelperThreads: *helpers},
		func(info search.BestMoveInfo) {
			fmt.Printf("depth %d score %g move %v (%.2fs)\n  %s\n",
				info.Depth, info.Score, info.Move, time.Since(start).Seconds(), info.PrincipalVariation.NLBString())
		})
	if err != nil {
		log.Fatal().Err(err).Msg("searching")
	}
	fmt.Printf("bestmove %v nodes %d state %v\n", m, engine.Nodes(), engine.State())
}
