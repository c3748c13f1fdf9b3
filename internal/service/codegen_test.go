package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsesAlphabetAndLength(t *testing.T) {
	g := NewCodeGenerator(8)
	for i := 0; i < 200; i++ {
		code, err := g.Generate(nil)
		require.NoError(t, err)
		require.Len(t, code, 8)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
	}
}

func TestGenerateRedrawsOnCollision(t *testing.T) {
	// Three bytes per draw for length 2: "AA" first, then "BB".
	r := bytes.NewReader([]byte{0, 0, 9, 1, 1, 9})
	g := NewCodeGeneratorFrom(2, r)

	code, err := g.Generate(map[string]struct{}{"AA": {}})
	require.NoError(t, err)
	assert.Equal(t, "BB", code)
}

func TestGenerateSkipsBiasedBytes(t *testing.T) {
	r := bytes.NewReader([]byte{255, 252, 36, 37, 0, 0})
	g := NewCodeGeneratorFrom(2, r)

	code, err := g.Generate(nil)
	require.NoError(t, err)
	// 36 and 37 wrap to the alphabet start, 252 and above are dropped.
	assert.Equal(t, "AB", code)
}

func TestGenerateNeverReturnsExcludedCode(t *testing.T) {
	// A short code makes collisions frequent enough to exercise the redraw.
	g := NewCodeGenerator(3)
	used := make(map[string]struct{}, 20000)
	for len(used) < 9000 {
		code, err := g.Generate(nil)
		require.NoError(t, err)
		used[code] = struct{}{}
	}
	for i := 0; i < 10000; i++ {
		code, err := g.Generate(used)
		require.NoError(t, err)
		_, seen := used[code]
		require.False(t, seen, "generation %d returned used code %s", i, code)
		used[code] = struct{}{}
	}
}

func TestGenerateFailsOnShortRandomSource(t *testing.T) {
	g := NewCodeGeneratorFrom(4, bytes.NewReader([]byte{1, 2}))
	_, err := g.Generate(nil)
	assert.Error(t, err)
}
