package webgpu

import (
	"fmt"
	"strings"

	"github.com/born-ml/ctc/internal/semiring"
)

// fwdBwdShader is the forward-backward template. Placeholders:
//
//	LP    workgroup size, lattice width rounded up to a multiple of 32
//	ZERO  semiring zero
//	SUM3  body of sum3(a, b, c)
//	MUL   body of mul(a, b)
const fwdBwdShader = `
struct Params {
    T: u32,
    N: u32,
    Lp: u32,
    _pad: u32,
}

@group(0) @binding(0) var<storage, read> scores: array<f32>;     // [T, N, Lp]
@group(0) @binding(1) var<storage, read> fwd_mask: array<u32>;   // [N, Lp]
@group(0) @binding(2) var<storage, read> bwd_mask: array<u32>;   // [N, Lp]
@group(0) @binding(3) var<storage, read> lengths: array<u32>;    // [N]
@group(0) @binding(4) var<storage, read_write> alpha: array<f32>; // [T+1, N, Lp]
@group(0) @binding(5) var<storage, read_write> beta: array<f32>;  // [T+1, N, Lp]
@group(0) @binding(6) var<uniform> params: Params;

const W: u32 = LPu + 2u;
var<workgroup> buf: array<f32, 2u * (LPu + 2u)>;

fn sum3(a: f32, b: f32, c: f32) -> f32 {
    SUM3
}

fn mul(a: f32, b: f32) -> f32 {
    MUL
}

@compute @workgroup_size(LP)
fn main(@builtin(workgroup_id) wg: vec3<u32>, @builtin(local_invocation_id) lid: vec3<u32>) {
    let n = wg.x;
    let dir = wg.y;
    let s = lid.x;
    let T = params.T;
    let N = params.N;
    let Lp = params.Lp;
    let active = s < Lp;

    for (var i = s; i < 2u * W; i = i + LPu) {
        buf[i] = ZERO;
    }
    workgroupBarrier();

    if (dir == 0u) {
        // alpha rows live at offset 2 so s-1 and s-2 of state 0 read padding.
        if (active) {
            buf[s + 2u] = alpha[n * Lp + s];
        }
        workgroupBarrier();
        for (var t = 1u; t <= T; t = t + 1u) {
            let prev = ((t - 1u) % 2u) * W;
            let cur = (t % 2u) * W;
            if (active) {
                var skip = buf[prev + s];
                if (fwd_mask[n * Lp + s] != 0u) {
                    skip = ZERO;
                }
                let v = mul(scores[((t - 1u) * N + n) * Lp + s], sum3(buf[prev + s + 2u], buf[prev + s + 1u], skip));
                buf[cur + s + 2u] = v;
                alpha[(t * N + n) * Lp + s] = v;
            }
            workgroupBarrier();
        }
    } else {
        // beta rows live at offset 0 with two trailing padding slots.
        let il = lengths[n];
        if (active) {
            buf[(T % 2u) * W + s] = beta[(T * N + n) * Lp + s];
        }
        workgroupBarrier();
        for (var t = T; t >= 1u; t = t - 1u) {
            let next = (t % 2u) * W;
            let cur = ((t - 1u) % 2u) * W;
            if (active) {
                var v = beta[((t - 1u) * N + n) * Lp + s];
                if (t <= il) {
                    let row = ((t - 1u) * N + n) * Lp;
                    let stay = mul(buf[next + s], scores[row + s]);
                    var advance = ZERO;
                    if (s + 1u < Lp) {
                        advance = mul(buf[next + s + 1u], scores[row + s + 1u]);
                    }
                    var skip = ZERO;
                    if (s + 2u < Lp && bwd_mask[n * Lp + s] == 0u) {
                        skip = mul(buf[next + s + 2u], scores[row + s + 2u]);
                    }
                    v = sum3(stay, advance, skip);
                    beta[row + s] = v;
                }
                buf[cur + s] = v;
            }
            workgroupBarrier();
        }
    }
}
`

// workgroupWidth rounds the lattice width up to a multiple of 32.
func workgroupWidth(lp int) int {
	return (lp + 31) &^ 31
}

// fwdBwdSource instantiates the template for a semiring and lattice width.
func fwdBwdSource(kind semiring.Kind, lp int) (string, string, error) {
	var sum3, mul string
	switch kind {
	case semiring.Log:
		sum3 = "let m = max(max(a, b), c);\n    return m + log(exp(a - m) + exp(b - m) + exp(c - m));"
		mul = "return a + b;"
	case semiring.Max:
		sum3 = "return max(max(a, b), c);"
		mul = "return a + b;"
	default:
		return "", "", fmt.Errorf("webgpu: no shader for semiring %s", kind)
	}
	width := workgroupWidth(lp)
	code := strings.NewReplacer(
		"SUM3", sum3,
		"MUL", mul,
		"ZERO", fmt.Sprintf("%E", float32(semiring.NegInf)),
		"LPu", fmt.Sprintf("%du", width),
		"LP", fmt.Sprintf("%d", width),
	).Replace(fwdBwdShader)
	return fmt.Sprintf("ctc_fwd_bwd_%s_%d", kind, width), code, nil
}
