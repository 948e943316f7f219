package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/pflag"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	c := Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c, DefaultConfig())
	is.NoErr(DefaultConfig().Engine.Validate())
}

func TestFlagsOverride(t *testing.T) {
	is := is.New(t)
	c := Config{}
	is.NoErr(c.Load([]string{"--max-branching-factor", "40", "--quiescence-max-depth=3", "--debug"}))
	is.Equal(c.Engine.MaxBranchingFactor, 40)
	is.Equal(c.Engine.QuiescenceMaxDepth, 3)
	is.True(c.Debug)
	is.Equal(c.Engine.TranspositionTableSizeMB, DefaultConfig().Engine.TranspositionTableSizeMB)
}

func TestEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("HIVEAI_TRANSPOSITION_TABLE_SIZE_MB", "64")
	c := Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.Engine.TranspositionTableSizeMB, 64)

	// flags beat the environment
	is.NoErr(c.Load([]string{"--transposition-table-size-mb", "16"}))
	is.Equal(c.Engine.TranspositionTableSizeMB, 16)
}

func TestConfigFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "engine.yaml")
	is.NoErr(os.WriteFile(path, []byte("max-branching-factor: 12\nquiescence-max-depth: 2\n"), 0o644))
	c := Config{}
	is.NoErr(c.Load([]string{"--config", path}))
	is.Equal(c.Engine.MaxBranchingFactor, 12)
	is.Equal(c.Engine.QuiescenceMaxDepth, 2)
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	c := Config{}
	err := c.Load([]string{"--quiescence-max-depth", "0"})
	is.True(errors.Is(err, ErrInvalidConfig))

	e := DefaultConfig().Engine
	e.TranspositionTableSizeMB = -1
	is.True(errors.Is(e.Validate(), ErrInvalidConfig))

	e = DefaultConfig().Engine
	e.TreeStrapStepConstant = -0.5
	is.True(errors.Is(e.Validate(), ErrInvalidConfig))

	e = DefaultConfig().Engine
	e.TranspositionTableSizeMB = 1 << 40
	is.True(errors.Is(e.Validate(), ErrInvalidConfig))
}

func TestUnknownFlag(t *testing.T) {
	is := is.New(t)
	c := Config{}
	is.True(c.Load([]string{"--no-such-flag"}) != nil)
}

func TestWeightsDefault(t *testing.T) {
	is := is.New(t)
	w, err := DefaultConfig().Weights()
	is.NoErr(err)
	is.NoErr(w.Validate())

	c := DefaultConfig()
	c.WeightsPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = c.Weights()
	is.True(err != nil)
}

func TestLoadFlagsKeepsCommandFlags(t *testing.T) {
	is := is.New(t)
	fs := pflag.NewFlagSet("selfplay", pflag.ContinueOnError)
	games := fs.Int("games", 1, "")
	c := Config{}
	is.NoErr(c.LoadFlags(fs, []string{"--games", "12", "--max-branching-factor", "9"}))
	is.Equal(*games, 12)
	is.Equal(c.Engine.MaxBranchingFactor, 9)
}
