// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/born-ml/ctc/ctc"
	internalcpu "github.com/born-ml/ctc/internal/backend/cpu"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Config tunes the CPU kernels.
type Config = internalcpu.Config

// Compile-time check that Backend implements ctc.Backend.
var _ ctc.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	cfg := ctc.DefaultConfig()
//	cfg.Backend = cpu.New()
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with custom kernel settings.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	return internalcpu.DefaultConfig()
}
