package webgpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ctc/internal/semiring"
)

func TestWorkgroupWidth(t *testing.T) {
	assert.Equal(t, 32, workgroupWidth(1))
	assert.Equal(t, 32, workgroupWidth(32))
	assert.Equal(t, 64, workgroupWidth(33))
	assert.Equal(t, MaxStates, workgroupWidth(MaxStates))
}

func TestFwdBwdSource(t *testing.T) {
	name, code, err := fwdBwdSource(semiring.Log, 7)
	require.NoError(t, err)
	assert.Equal(t, "ctc_fwd_bwd_log_32", name)
	assert.Contains(t, code, "@workgroup_size(32)")
	assert.Contains(t, code, "array<f32, 2u * (32u + 2u)>")
	assert.Contains(t, code, "log(exp(a - m)")
	for _, placeholder := range []string{"SUM3", "MUL", "ZERO", "LP"} {
		assert.False(t, strings.Contains(code, placeholder), "unreplaced %s", placeholder)
	}

	_, code, err = fwdBwdSource(semiring.Max, 40)
	require.NoError(t, err)
	assert.Contains(t, code, "@workgroup_size(64)")
	assert.Contains(t, code, "return max(max(a, b), c);")

	_, _, err = fwdBwdSource(semiring.Prob, 7)
	assert.Error(t, err)
}
