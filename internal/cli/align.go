package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/ctc/ctc"
	"github.com/born-ml/ctc/internal/labels"
	"github.com/born-ml/ctc/internal/lattice"
	"github.com/born-ml/ctc/internal/sample"
	"github.com/born-ml/ctc/internal/tensor"
)

const defaultAlphabet = "abcdefghijklmnopqrstuvwxyz '"

// AlignOptions configures a forced-alignment demo.
type AlignOptions struct {
	Vocabulary string // "chars" or a tiktoken encoding name
	Alphabet   string
	Frames     int
	Seed       uint64
	Backend    string
	Soft       float64 // inverse temperature; 0 selects Viterbi
}

// Alignment is the forced alignment of one transcript.
type Alignment struct {
	Text     string
	Segments []ctc.Segment
	Greedy   string // best-path decoding of the same frames
}

func (c *CLI) newAlignCommand() *cobra.Command {
	opts := AlignOptions{Vocabulary: "chars", Alphabet: defaultAlphabet, Frames: 50, Seed: 1, Backend: "cpu"}

	cmd := &cobra.Command{
		Use:   "align [flags] TEXT...",
		Short: "Force-align transcripts against random frame scores",
		Example: `  ctcbench align "hello world" "ctc"
  ctcbench align --vocab cl100k_base --frames 20 "tokenized text"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newVocabulary(opts)
			if err != nil {
				return err
			}
			alignments, err := Align(v, args, opts)
			if err != nil {
				return err
			}
			return printAlignments(cmd.OutOrStdout(), v, alignments)
		},
	}

	cmd.Flags().StringVar(&opts.Vocabulary, "vocab", opts.Vocabulary, "chars, or a tiktoken encoding such as cl100k_base")
	cmd.Flags().StringVar(&opts.Alphabet, "alphabet", opts.Alphabet, "Characters of the chars vocabulary")
	cmd.Flags().IntVar(&opts.Frames, "frames", opts.Frames, "Number of frames")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "Random seed")
	cmd.Flags().StringVar(&opts.Backend, "backend", opts.Backend, "Backend: cpu or webgpu")
	cmd.Flags().Float64Var(&opts.Soft, "soft", 0, "Use soft alignments at this inverse temperature")
	return cmd
}

func newVocabulary(opts AlignOptions) (labels.Vocabulary, error) {
	if opts.Vocabulary == "" || opts.Vocabulary == "chars" {
		return labels.NewCharset(opts.Alphabet)
	}
	return labels.NewTikToken(opts.Vocabulary)
}

// Align encodes texts with v, draws random logits over opts.Frames frames and
// returns the label segments of the best alignment of each transcript.
func Align(v labels.Vocabulary, texts []string, opts AlignOptions) ([]Alignment, error) {
	targets, targetLengths, err := labels.Batch(v, texts)
	if err != nil {
		return nil, err
	}
	n := len(texts)
	width := targets.Shape()[1]
	for i := 0; i < n; i++ {
		row := targets.AsInt64()[i*width : i*width+int(targetLengths.AsInt64()[i])]
		if need := lattice.MinInputLength(row); need > opts.Frames {
			slog.Warn("Transcript needs more frames", "text", texts[i], "need", need, "frames", opts.Frames)
		}
	}

	batch, err := sample.Generate(sample.Config{
		TMin: opts.Frames, TMax: opts.Frames, N: n, C: v.NumClasses(),
		LMin: 1, LMax: 1, Seed: opts.Seed, DType: tensor.Float32,
	})
	if err != nil {
		return nil, err
	}

	backend, release, err := openBackend(opts.Backend)
	if err != nil {
		return nil, err
	}
	defer release()
	cfg := ctc.DefaultConfig()
	cfg.Backend = backend

	var occupancy *tensor.RawTensor
	if opts.Soft > 0 {
		occupancy, err = ctc.SoftAlignments(cfg, batch.Logits, targets, batch.InputLengths, targetLengths, opts.Soft)
	} else {
		occupancy, err = ctc.ViterbiAlignments(cfg, batch.Logits, targets, batch.InputLengths, targetLengths)
	}
	if err != nil {
		return nil, err
	}
	paths, err := ctc.AlignmentPath(occupancy, batch.InputLengths)
	if err != nil {
		return nil, err
	}
	states, err := ctc.States(targets)
	if err != nil {
		return nil, err
	}
	decoded, err := ctc.BestPath(batch.Logits, batch.InputLengths)
	if err != nil {
		return nil, err
	}

	lp := states.Shape()[1]
	out := make([]Alignment, n)
	for i := range out {
		greedy, err := v.Decode(decoded[i].Labels)
		if err != nil {
			return nil, err
		}
		out[i] = Alignment{
			Text:     texts[i],
			Segments: ctc.Segments(paths[i], states.AsInt64()[i*lp:(i+1)*lp]),
			Greedy:   greedy,
		}
	}
	return out, nil
}

func printAlignments(w io.Writer, v labels.Vocabulary, alignments []Alignment) error {
	for _, a := range alignments {
		fmt.Fprintf(w, "%q (greedy %q)\n", a.Text, a.Greedy)
		for _, s := range a.Segments {
			label, err := v.Decode([]int64{s.Label})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %3d-%-3d %q\n", s.Start, s.End, label)
		}
	}
	return nil
}
