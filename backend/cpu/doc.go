// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for CTC kernels.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Sequential, batched and parallel forward-backward kernels
//   - Float32 and Float64 support
//   - Log, Max and Prob semirings
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/ctc/backend/cpu"
//	    "github.com/born-ml/ctc/ctc"
//	)
//
//	func main() {
//	    cfg := ctc.DefaultConfig()
//	    cfg.Backend = cpu.New()
//	    res, err := ctc.LossAndGrad(cfg, logits, targets, inputLengths, targetLengths)
//	}
//
// # Performance
//
// The parallel kernel splits every sequence's lattice across a group of
// workers that step through time together. Tune the group size with
// Config.StatesPerWorker.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Kernels keep all scratch
// memory per call and do not share mutable state.
package cpu
