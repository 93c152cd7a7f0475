package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/ctc/ctc"
	"github.com/born-ml/ctc/internal/sample"
	"github.com/born-ml/ctc/internal/tensor"
)

// benchFlags are the command-line overrides of a BenchConfig.
type benchFlags struct {
	config   string
	backend  string
	n        int
	tmax     int
	dtype    string
	repeats  int
	seed     uint64
	forward  bool
	strategy []string
	semiring []string
}

func (f *benchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "YAML file describing the batch")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Backend: cpu or webgpu")
	cmd.Flags().IntVar(&f.n, "batch", 0, "Batch size")
	cmd.Flags().IntVar(&f.tmax, "frames", 0, "Maximum number of frames")
	cmd.Flags().StringVar(&f.dtype, "dtype", "", "float32 or float64")
	cmd.Flags().IntVar(&f.repeats, "repeats", 0, "Timed runs per kernel")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed")
	cmd.Flags().StringSliceVar(&f.strategy, "strategy", nil, "Strategies to run")
	cmd.Flags().StringSliceVar(&f.semiring, "semiring", nil, "Semirings to run")
}

// load reads the config file and applies the flags that were set.
func (f *benchFlags) load(cmd *cobra.Command) (BenchConfig, error) {
	cfg, err := LoadBenchConfig(f.config)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = f.backend
	}
	if flags.Changed("batch") {
		cfg.N = f.n
	}
	if flags.Changed("frames") {
		cfg.TMax = f.tmax
		cfg.TMin = min(cfg.TMin, f.tmax)
	}
	if flags.Changed("dtype") {
		cfg.DType = f.dtype
	}
	if flags.Changed("repeats") {
		cfg.Repeats = f.repeats
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if flags.Changed("strategy") {
		cfg.Strategies = f.strategy
	}
	if flags.Changed("semiring") {
		cfg.Semirings = f.semiring
	}
	slog.Debug("Benchmark config", "config", fmt.Sprintf("%+v", cfg))
	return cfg, nil
}

// Timing is the result of one kernel benchmark.
type Timing struct {
	Strategy ctc.Strategy
	Semiring ctc.Semiring
	Mean     time.Duration
	Loss     float64
}

func (c *CLI) newBenchCommand() *cobra.Command {
	var flags benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the loss and gradient of every kernel on a random batch",
		Example: `  ctcbench bench --batch 16 --frames 200
  ctcbench bench --config bench.yaml --strategy parallel --semiring log,max`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			timings, err := Bench(cfg, flags.forward)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "strategy\tsemiring\tmean\tloss")
			for _, t := range timings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\n", t.Strategy, t.Semiring, t.Mean, t.Loss)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.forward, "forward", false, "Time the forward-only loss")
	return cmd
}

// Bench runs every (strategy, semiring) pair of cfg on one generated batch.
// Pairs without a kernel on the backend are skipped.
func Bench(cfg BenchConfig, forwardOnly bool) ([]Timing, error) {
	sc, err := cfg.Sample()
	if err != nil {
		return nil, err
	}
	strategies, kinds, reduction, err := cfg.Grid()
	if err != nil {
		return nil, err
	}
	backend, release, err := openBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	defer release()

	batch, err := sample.Generate(sc)
	if err != nil {
		return nil, err
	}
	slog.Info("Generated batch", "shape", batch.Logits.Shape(), "dtype", sc.DType, "backend", backend.Name())

	var out []Timing
	for _, kind := range kinds {
		for _, strategy := range strategies {
			opts := ctc.Config{
				Backend:      backend,
				Strategy:     strategy,
				Semiring:     kind,
				Reduction:    reduction,
				ZeroInfinity: cfg.ZeroInfinity,
			}
			run := func() (*tensor.RawTensor, error) {
				if forwardOnly {
					return ctc.Loss(opts, batch.Logits, batch.Targets, batch.InputLengths, batch.TargetLengths)
				}
				res, err := ctc.LossAndGrad(opts, batch.Logits, batch.Targets, batch.InputLengths, batch.TargetLengths)
				if err != nil {
					return nil, err
				}
				return res.Loss, nil
			}

			var loss *tensor.RawTensor
			start := time.Now()
			for i := 0; i < cfg.Repeats; i++ {
				loss, err = run()
				if err != nil {
					break
				}
			}
			if errors.Is(err, ctc.ErrNoKernelVariant) {
				slog.Warn("Skipping kernel", "strategy", strategy, "semiring", kind, "error", err)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", strategy, kind, err)
			}

			t := Timing{
				Strategy: strategy,
				Semiring: kind,
				Mean:     time.Since(start) / time.Duration(cfg.Repeats),
				Loss:     tensor.Float64s(loss)[0],
			}
			slog.Debug("Kernel timed", "strategy", strategy, "semiring", kind, "mean", t.Mean)
			out = append(out, t)
		}
	}
	return out, nil
}
