package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/born-ml/ctc/ctc"
	"github.com/born-ml/ctc/internal/sample"
	"github.com/born-ml/ctc/internal/tensor"
)

// ErrMismatch is returned by Check when two strategies disagree.
var ErrMismatch = errors.New("strategies disagree")

// Agreement compares one strategy against the sequential reference.
type Agreement struct {
	Strategy ctc.Strategy
	Semiring ctc.Semiring
	LossDiff float64 // max relative difference of per-element losses
	GradDiff float64 // max absolute difference of logit gradients
}

func (c *CLI) newCheckCommand() *cobra.Command {
	var flags benchFlags
	var tol float64

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Verify every strategy reproduces the sequential loss and gradient",
		Example: `  ctcbench check --batch 4 --semiring log,max,prob --dtype float64`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			results, err := Check(cfg, tol)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-5s loss %.2e grad %.2e\n", r.Strategy, r.Semiring, r.LossDiff, r.GradDiff)
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&tol, "tol", 1e-3, "Relative tolerance")
	return cmd
}

// Check runs each configured strategy and compares it to Sequential.
// Results are returned even when some exceed tol; the error then wraps
// ErrMismatch.
func Check(cfg BenchConfig, tol float64) ([]Agreement, error) {
	sc, err := cfg.Sample()
	if err != nil {
		return nil, err
	}
	strategies, kinds, _, err := cfg.Grid()
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

	var out []Agreement
	var failed []string
	for _, kind := range kinds {
		opts := ctc.Config{Backend: backend, Strategy: ctc.Sequential, Semiring: kind, Reduction: ctc.None, ZeroInfinity: true}
		ref, err := ctc.LossAndGrad(opts, batch.Logits, batch.Targets, batch.InputLengths, batch.TargetLengths)
		if err != nil {
			return out, fmt.Errorf("sequential/%s: %w", kind, err)
		}

		for _, strategy := range strategies {
			if strategy == ctc.Sequential {
				continue
			}
			opts.Strategy = strategy
			got, err := ctc.LossAndGrad(opts, batch.Logits, batch.Targets, batch.InputLengths, batch.TargetLengths)
			if errors.Is(err, ctc.ErrNoKernelVariant) {
				slog.Warn("Skipping kernel", "strategy", strategy, "semiring", kind)
				continue
			}
			if err != nil {
				return out, fmt.Errorf("%s/%s: %w", strategy, kind, err)
			}

			a := Agreement{
				Strategy: strategy,
				Semiring: kind,
				LossDiff: maxRelDiff(ref.Loss, got.Loss),
				GradDiff: maxAbsDiff(ref.Grad, got.Grad),
			}
			out = append(out, a)
			if a.LossDiff > tol || a.GradDiff > tol {
				failed = append(failed, fmt.Sprintf("%s/%s", strategy, kind))
			}
		}
	}
	if len(failed) > 0 {
		return out, fmt.Errorf("%w: %v", ErrMismatch, failed)
	}
	return out, nil
}

func maxRelDiff(want, got *tensor.RawTensor) float64 {
	a, b := tensor.Float64s(want), tensor.Float64s(got)
	var worst float64
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		worst = math.Max(worst, math.Abs(a[i]-b[i])/math.Max(math.Abs(a[i]), 1e-12))
	}
	return worst
}

func maxAbsDiff(want, got *tensor.RawTensor) float64 {
	a, b := tensor.Float64s(want), tensor.Float64s(got)
	var worst float64
	for i := range a {
		worst = math.Max(worst, math.Abs(a[i]-b[i]))
	}
	return worst
}
