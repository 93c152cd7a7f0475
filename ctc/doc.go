// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ctc computes the Connectionist Temporal Classification loss, its
// gradient and frame alignments.
//
// The loss is the negative log-partition of the blank-interleaved state
// lattice, normalised by target length. The same forward-backward kernels
// evaluate it in three semirings:
//   - Log: the usual CTC loss, gradients are posterior occupancies
//   - Max: best-path (Viterbi) score, gradients are one-hot alignments
//   - Prob: direct probabilities, for short sequences in float64
//
// Example:
//
//	import (
//	    "github.com/born-ml/ctc/ctc"
//	    "github.com/born-ml/ctc/tensor"
//	)
//
//	func main() {
//	    cfg := ctc.DefaultConfig()
//
//	    // logits [T, N, C], targets [N, L], lengths [N]
//	    res, err := ctc.LossAndGrad(cfg, logits, targets, inputLengths, targetLengths)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Loss.AsFloat32()[0])
//	    // res.Grad has the shape of logits
//	}
//
// Class 0 is the blank. Targets are padded to a common length L; only the
// first target_length[n] labels of row n are used.
package ctc
