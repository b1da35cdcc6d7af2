package tui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldUseTUIQuietWins(t *testing.T) {
	restore := SetIsTerminalFuncForTesting(func(int) bool { return true })
	defer restore()

	assert.False(t, ShouldUseTUI(true, os.Stdin, os.Stdout))
	assert.True(t, ShouldUseTUI(false, os.Stdin, os.Stdout))
}

func TestNonFdStreamsAreNotTerminals(t *testing.T) {
	restore := SetIsTerminalFuncForTesting(func(int) bool { return true })
	defer restore()

	assert.False(t, IsTerminalReader(strings.NewReader("")))
	assert.False(t, IsTerminalWriter(&bytes.Buffer{}))
	assert.False(t, ShouldUseTUI(false, strings.NewReader(""), &bytes.Buffer{}))
}

func TestProgramOptionsDisableRendererWithoutTerminal(t *testing.T) {
	restore := SetIsTerminalFuncForTesting(func(int) bool { return false })
	defer restore()

	options := ProgramOptions(strings.NewReader(""), &bytes.Buffer{})
	assert.Len(t, options, 3)
}
