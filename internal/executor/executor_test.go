package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShell(t *testing.T) {
	e := NewExecutor().WithShell("/bin/sh")

	out, err := e.RunShell(context.Background(), "echo '  hello  '")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = e.RunShell(context.Background(), "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

func TestTransform(t *testing.T) {
	e := NewExecutor().WithShell("/bin/sh").WithEnv(map[string]string{"GREETING": "hi"})

	tests := []struct {
		name    string
		command string
		input   string
		want    string
		wantErr bool
	}{
		{name: "stdin is piped", command: "tr a-z A-Z", input: "abc\n", want: "ABC\n"},
		{name: "stderr is kept", command: "cat; echo err >&2", input: "x\n", want: "x\nerr\n"},
		{name: "environment", command: "echo $GREETING", want: "hi\n"},
		{name: "failure keeps output", command: "echo partial; exit 1", want: "partial\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Transform(context.Background(), tt.command, []byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestSubstituteVars(t *testing.T) {
	got := SubstituteVars("cat $file | head -n $n \\$HOME", map[string]string{"file": "a.txt", "n": "5"})
	assert.Equal(t, "cat a.txt | head -n 5 $HOME", got)
}
