package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"exit 0", []string{"-c", "exit 0"}, 0},
		{"exit 1", []string{"-c", "exit 1"}, 1},
		{"exit 42", []string{"-c", "exit 42"}, 42},
	}

	r := NewRealRunner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Run(context.Background(), "sh", tt.args, RunOpts{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, result.ExitCode)
		})
	}
}

func TestRunCapturesOutput(t *testing.T) {
	r := NewRealRunner()
	result, err := r.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, RunOpts{})
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "out")
	assert.Contains(t, result.Stderr, "err")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewRealRunner()
	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz", nil, RunOpts{})
	assert.Error(t, err)
}

func TestRunEnvOverlay(t *testing.T) {
	r := NewRealRunner()
	result, err := r.Run(context.Background(), "sh", []string{"-c", "echo $SUNRISED_TEST_VAR"}, RunOpts{
		Env: map[string]string{"SUNRISED_TEST_VAR": "hello"},
	})
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "hello")
}
