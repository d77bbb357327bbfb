package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	require.NoError(t, Init())
	assert.Equal(t, "dark", C.Theme)
	assert.True(t, C.Threads)
	assert.Equal(t, OutputTUI, C.Output)
	assert.Equal(t, OutputTUI, GetOutput())
	assert.Equal(t, 1, GetStartSlide())
	assert.Equal(t, 100, int(GetPollInterval().Milliseconds()))
}

func TestRuntimeSetters(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Equal(t, OutputTUI, GetOutput())

	SetOutput(OutputStyles)
	assert.Equal(t, OutputStyles, GetOutput())
	assert.Equal(t, OutputStyles, C.Output)

	SetStartSlide(4)
	assert.Equal(t, 4, GetStartSlide())
	assert.Equal(t, 4, C.StartSlide)

	SetStartSlide(-2)
	assert.Equal(t, 1, GetStartSlide())
}

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	assert.Equal(t, "/home/someone/log.txt", expandTilde("~/log.txt"))
	assert.Equal(t, "/tmp/x", expandTilde("/tmp/x"))
	assert.Equal(t, "", expandTilde(""))
}
