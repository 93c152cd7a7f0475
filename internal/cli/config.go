package cli

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/ctc/internal/autodiff/ops"
	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/sample"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// BenchConfig describes the batch and kernel grid of a benchmark run.
// It is read from YAML; command-line flags override individual fields.
type BenchConfig struct {
	TMin    int    `yaml:"t_min"`
	TMax    int    `yaml:"t_max"`
	N       int    `yaml:"n"`
	C       int    `yaml:"c"`
	LMin    int    `yaml:"l_min"`
	LMax    int    `yaml:"l_max"`
	Seed    uint64 `yaml:"seed"`
	DType   string `yaml:"dtype"`
	Backend string `yaml:"backend"`

	Strategies   []string `yaml:"strategies"`
	Semirings    []string `yaml:"semirings"`
	Reduction    string   `yaml:"reduction"`
	ZeroInfinity bool     `yaml:"zero_infinity"`
	Repeats      int      `yaml:"repeats"`
}

// DefaultBenchConfig mirrors sample.DefaultConfig over every strategy.
func DefaultBenchConfig() BenchConfig {
	s := sample.DefaultConfig()
	return BenchConfig{
		TMin: s.TMin, TMax: s.TMax, N: s.N, C: s.C, LMin: s.LMin, LMax: s.LMax,
		Seed:       s.Seed,
		DType:      s.DType.String(),
		Backend:    "cpu",
		Strategies: []string{"sequential", "batched", "parallel"},
		Semirings:  []string{"log"},
		Reduction:  "mean",
		Repeats:    3,
	}
}

// LoadBenchConfig reads path over the defaults. An empty path returns the
// defaults unchanged.
func LoadBenchConfig(path string) (BenchConfig, error) {
	cfg := DefaultBenchConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Sample returns the generator settings.
func (c BenchConfig) Sample() (sample.Config, error) {
	dtype, err := parseDType(c.DType)
	if err != nil {
		return sample.Config{}, err
	}
	s := sample.Config{
		TMin: c.TMin, TMax: c.TMax, N: c.N, C: c.C, LMin: c.LMin, LMax: c.LMax,
		Seed:  c.Seed,
		DType: dtype,
	}
	return s, s.Validate()
}

// Grid parses the strategy and semiring lists and the loss options.
func (c BenchConfig) Grid() ([]engine.Strategy, []semiring.Kind, ops.Reduction, error) {
	if c.Repeats < 1 {
		return nil, nil, 0, fmt.Errorf("repeats must be positive, got %d", c.Repeats)
	}
	if len(c.Strategies) == 0 || len(c.Semirings) == 0 {
		return nil, nil, 0, errors.New("config lists no strategies or semirings")
	}
	strategies := make([]engine.Strategy, len(c.Strategies))
	for i, name := range c.Strategies {
		s, err := engine.ParseStrategy(name)
		if err != nil {
			return nil, nil, 0, err
		}
		strategies[i] = s
	}
	kinds := make([]semiring.Kind, len(c.Semirings))
	for i, name := range c.Semirings {
		k, err := semiring.ParseKind(name)
		if err != nil {
			return nil, nil, 0, err
		}
		kinds[i] = k
	}
	reduction, err := ops.ParseReduction(c.Reduction)
	if err != nil {
		return nil, nil, 0, err
	}
	return strategies, kinds, reduction, nil
}

func parseDType(name string) (tensor.DataType, error) {
	switch name {
	case "float32", "f32":
		return tensor.Float32, nil
	case "float64", "f64":
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("unsupported dtype %q", name)
	}
}
