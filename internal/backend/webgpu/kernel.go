//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/ctc/internal/engine"
	"github.com/born-ml/ctc/internal/semiring"
	"github.com/born-ml/ctc/internal/tensor"
)

// kernel is the parallel float32 forward-backward on the GPU.
type kernel struct {
	backend *Backend
	kind    semiring.Kind
}

func (k *kernel) Variant() engine.Variant {
	return engine.Variant{Strategy: engine.Parallel, DType: tensor.Float32, Semiring: k.kind}
}

// forwardKernel serves loss-only requests with the full dispatch and keeps
// only alpha at the input lengths.
type forwardKernel struct {
	*kernel
}

func (k forwardKernel) Forward(p *engine.Problem) (*tensor.RawTensor, error) {
	tables, err := engine.Run(p, k.kernel)
	if err != nil {
		return nil, err
	}
	return tables.AlphaT, nil
}

// FwdBwd uploads the problem and seeded tables, runs one workgroup per
// (element, direction) and copies both tables back into alpha and beta.
func (k *kernel) FwdBwd(p *engine.Problem, alpha, beta *tensor.RawTensor) (*tensor.RawTensor, error) {
	T, n, lp := p.Dims()
	if lp > MaxStates {
		return nil, fmt.Errorf("webgpu: %d lattice states exceed %d: %w", lp, MaxStates, engine.ErrNoKernelVariant)
	}
	want := tensor.Shape{T + 1, n, lp}
	if !alpha.Shape().Equal(want) || !beta.Shape().Equal(want) {
		return nil, fmt.Errorf("webgpu: tables %v and %v, want %v", alpha.Shape(), beta.Shape(), want)
	}

	name, code, err := fwdBwdSource(k.kind, lp)
	if err != nil {
		return nil, err
	}
	b := k.backend
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	storage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	bufScores := b.createBuffer(p.StateScores.Data(), storage)
	defer bufScores.Release()
	bufMask := b.createBuffer(boolsToU32(p.RepeatMask.AsBool()), storage)
	defer bufMask.Release()
	bufBwdMask := b.createBuffer(boolsToU32(p.BackwardMask.AsBool()), storage)
	defer bufBwdMask.Release()
	bufLengths := b.createBuffer(int64sToU32(p.InputLengths.AsInt64()), storage)
	defer bufLengths.Release()

	tables := storage | wgpu.BufferUsageCopyDst
	bufAlpha := b.createBuffer(alpha.Data(), tables)
	defer bufAlpha.Release()
	bufBeta := b.createBuffer(beta.Data(), tables)
	defer bufBeta.Release()

	params := make([]byte, 16)
	//nolint:gosec // G115: dimensions are positive
	binary.LittleEndian.PutUint32(params[0:4], uint32(T))
	//nolint:gosec // G115: dimensions are positive
	binary.LittleEndian.PutUint32(params[4:8], uint32(n))
	//nolint:gosec // G115: bounded by MaxStates
	binary.LittleEndian.PutUint32(params[8:12], uint32(lp))
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	tableSize := uint64(alpha.ByteSize())
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufScores, 0, uint64(p.StateScores.ByteSize())),
		wgpu.BufferBindingEntry(1, bufMask, 0, uint64(4*n*lp)),
		wgpu.BufferBindingEntry(2, bufBwdMask, 0, uint64(4*n*lp)),
		wgpu.BufferBindingEntry(3, bufLengths, 0, uint64(4*n)),
		wgpu.BufferBindingEntry(4, bufAlpha, 0, tableSize),
		wgpu.BufferBindingEntry(5, bufBeta, 0, tableSize),
		wgpu.BufferBindingEntry(6, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: batch size is positive
	computePass.DispatchWorkgroups(uint32(n), 2, 1)
	computePass.End()
	b.queue.Submit(encoder.Finish(nil))

	alphaData, err := b.readBuffer(bufAlpha, tableSize)
	if err != nil {
		return nil, fmt.Errorf("webgpu: read alpha: %w", err)
	}
	betaData, err := b.readBuffer(bufBeta, tableSize)
	if err != nil {
		return nil, fmt.Errorf("webgpu: read beta: %w", err)
	}
	copy(alpha.Data(), alphaData)
	copy(beta.Data(), betaData)

	return gatherAlphaT(alpha.AsFloat32(), p.InputLengths.AsInt64(), n, lp), nil
}

func gatherAlphaT(alpha []float32, lengths []int64, n, lp int) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{n, lp}, tensor.Float32, tensor.CPU)
	dst := out.AsFloat32()
	for i := 0; i < n; i++ {
		src := (int(lengths[i])*n + i) * lp
		copy(dst[i*lp:(i+1)*lp], alpha[src:src+lp])
	}
	return out
}

func boolsToU32(v []bool) []byte {
	out := make([]byte, 4*len(v))
	for i, b := range v {
		if b {
			binary.LittleEndian.PutUint32(out[4*i:], 1)
		}
	}
	return out
}

func int64sToU32(v []int64) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		//nolint:gosec // G115: input lengths are bounded by T
		binary.LittleEndian.PutUint32(out[4*i:], uint32(x))
	}
	return out
}
