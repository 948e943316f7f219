// Package config loads engine settings from defaults, an optional YAML file,
// HIVEAI_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hivelab/hiveai/evaluation"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	ConfigTranspositionTableSizeMB = "transposition-table-size-mb"
	ConfigBoardScoreCacheSizeMB    = "board-score-cache-size-mb"
	ConfigMoveOrderCacheSizeMB     = "move-order-cache-size-mb"
	ConfigMaxBranchingFactor       = "max-branching-factor"
	ConfigQuiescenceMaxDepth       = "quiescence-max-depth"
	ConfigTreeStrapStepConstant    = "treestrap-step-constant"
	ConfigWeightsPath              = "weights-path"
	ConfigDebug                    = "debug"
	ConfigFile                     = "config"
)

// Engine holds the knobs of one search engine instance.
type Engine struct {
	TranspositionTableSizeMB int
	BoardScoreCacheSizeMB    int
	MoveOrderCacheSizeMB     int
	// MaxBranchingFactor truncates every sorted move list.
	MaxBranchingFactor int
	// QuiescenceMaxDepth bounds the noisy-move extension at the frontier.
	QuiescenceMaxDepth    int
	TreeStrapStepConstant float64
}

type Config struct {
	Engine      Engine
	WeightsPath string
	Debug       bool
}

func DefaultConfig() Config {
	return Config{
		Engine: Engine{
			TranspositionTableSizeMB: 32,
			BoardScoreCacheSizeMB:    8,
			MoveOrderCacheSizeMB:     8,
			MaxBranchingFactor:       500,
			QuiescenceMaxDepth:       12,
			TreeStrapStepConstant:    1e-5,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault(ConfigTranspositionTableSizeMB, d.Engine.TranspositionTableSizeMB)
	v.SetDefault(ConfigBoardScoreCacheSizeMB, d.Engine.BoardScoreCacheSizeMB)
	v.SetDefault(ConfigMoveOrderCacheSizeMB, d.Engine.MoveOrderCacheSizeMB)
	v.SetDefault(ConfigMaxBranchingFactor, d.Engine.MaxBranchingFactor)
	v.SetDefault(ConfigQuiescenceMaxDepth, d.Engine.QuiescenceMaxDepth)
	v.SetDefault(ConfigTreeStrapStepConstant, d.Engine.TreeStrapStepConstant)
	v.SetDefault(ConfigWeightsPath, "")
	v.SetDefault(ConfigDebug, false)
}

// Load fills c from args, the environment and the file named by --config.
// Unknown flags are an error.
func (c *Config) Load(args []string) error {
	return c.LoadFlags(pflag.NewFlagSet("hiveai", pflag.ContinueOnError), args)
}

// LoadFlags is Load for commands with flags of their own: the engine flags
// are added to fs before args are parsed, and fs can be read afterwards.
func (c *Config) LoadFlags(fs *pflag.FlagSet, args []string) error {
	v := viper.New()
	setDefaults(v)

	fs.String(ConfigFile, "", "optional YAML config file")
	fs.Int(ConfigTranspositionTableSizeMB, v.GetInt(ConfigTranspositionTableSizeMB), "transposition table size in megabytes")
	fs.Int(ConfigBoardScoreCacheSizeMB, v.GetInt(ConfigBoardScoreCacheSizeMB), "board score cache size in megabytes")
	fs.Int(ConfigMoveOrderCacheSizeMB, v.GetInt(ConfigMoveOrderCacheSizeMB), "move ordering cache size in megabytes")
	fs.Int(ConfigMaxBranchingFactor, v.GetInt(ConfigMaxBranchingFactor), "maximum number of moves searched per node")
	fs.Int(ConfigQuiescenceMaxDepth, v.GetInt(ConfigQuiescenceMaxDepth), "maximum quiescence search depth")
	fs.Float64(ConfigTreeStrapStepConstant, v.GetFloat64(ConfigTreeStrapStepConstant), "TreeStrap learning rate")
	fs.String(ConfigWeightsPath, "", "YAML file holding start and end metric weights")
	fs.Bool(ConfigDebug, false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v.SetEnvPrefix("HIVEAI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Only flags the user actually passed override the file and environment.
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			v.Set(f.Name, f.Value.String())
		}
	})

	if path := v.GetString(ConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("read-config-file")
	}

	c.Engine = Engine{
		TranspositionTableSizeMB: v.GetInt(ConfigTranspositionTableSizeMB),
		BoardScoreCacheSizeMB:    v.GetInt(ConfigBoardScoreCacheSizeMB),
		MoveOrderCacheSizeMB:     v.GetInt(ConfigMoveOrderCacheSizeMB),
		MaxBranchingFactor:       v.GetInt(ConfigMaxBranchingFactor),
		QuiescenceMaxDepth:       v.GetInt(ConfigQuiescenceMaxDepth),
		TreeStrapStepConstant:    v.GetFloat64(ConfigTreeStrapStepConstant),
	}
	c.WeightsPath = v.GetString(ConfigWeightsPath)
	c.Debug = v.GetBool(ConfigDebug)
	return c.Engine.Validate()
}

// Validate rejects non-positive sizes and caches larger than physical memory.
func (e Engine) Validate() error {
	positive := []struct {
		name string
		val  int
	}{
		{ConfigTranspositionTableSizeMB, e.TranspositionTableSizeMB},
		{ConfigBoardScoreCacheSizeMB, e.BoardScoreCacheSizeMB},
		{ConfigMoveOrderCacheSizeMB, e.MoveOrderCacheSizeMB},
		{ConfigMaxBranchingFactor, e.MaxBranchingFactor},
		{ConfigQuiescenceMaxDepth, e.QuiescenceMaxDepth},
	}
	for _, p := range positive {
		if p.val < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.val)
		}
	}
	if e.TreeStrapStepConstant < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, ConfigTreeStrapStepConstant)
	}
	total := memory.TotalMemory()
	wanted := uint64(e.TranspositionTableSizeMB+e.BoardScoreCacheSizeMB+e.MoveOrderCacheSizeMB) << 20
	// TotalMemory reports 0 when it cannot tell.
	if total > 0 && wanted > total {
		return fmt.Errorf("%w: caches need %d bytes but the system has %d",
			ErrInvalidConfig, wanted, total)
	}
	return nil
}

// Weights loads the metric weights file, or the built-in defaults when no
// file is configured.
func (c Config) Weights() (evaluation.Weights, error) {
	if c.WeightsPath == "" {
		return evaluation.DefaultWeights(), nil
	}
	return evaluation.LoadWeights(c.WeightsPath)
}
