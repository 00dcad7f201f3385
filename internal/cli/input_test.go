package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  green belt appeal  \n"))

	got, err := GetSimpleText(r, "Enter a query", &out)
	require.NoError(t, err)
	assert.Equal(t, "green belt appeal", got)
	assert.Contains(t, out.String(), "Enter a query")
}

func TestGetSimpleText_PartialLineAtEOF(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("no newline"))

	got, err := GetSimpleText(r, "Prompt", &out)
	require.NoError(t, err)
	assert.Equal(t, "no newline", got)
}

func TestPromptQuery_ReadsFromAppReader(t *testing.T) {
	a := &App{reader: bufio.NewReader(strings.NewReader("green belt\n"))}

	got, err := a.PromptQuery()
	require.NoError(t, err)
	assert.Equal(t, "green belt", got)
}

func TestGetPassword_UsesSeam(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) {
		return []byte("correct horse"), nil
	}
	t.Cleanup(func() { readPassword = orig })

	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, []byte("correct horse"), pw)
	assert.Contains(t, out.String(), "Archive password:")
}
