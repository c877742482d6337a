package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunksEmptyInput(t *testing.T) {
	assert.Nil(t, SplitChunks("", 100))
	assert.Nil(t, SplitChunks("   \n\n\t ", 100))
}

func TestSplitChunksNoChunkEmpty(t *testing.T) {
	chunks := SplitChunks("One. Two. Three.\n\nFour.", 10)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitChunksPreservesContent(t *testing.T) {
	text := "The society was established in 1926. It runs many schools today! " +
		"Does it operate colleges? Yes.\n\nA new paragraph starts here."
	chunks := SplitChunks(text, 40)

	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}

func TestSplitChunksRespectsSizeBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("This is a short sentence. ")
	}
	chunks := SplitChunks(b.String(), 100)
	require.Greater(t, len(chunks), 1)

	// Greedy accumulation flushes before overflow, so a chunk only exceeds
	// the bound when a single sentence does.
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestSplitChunksOversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("word ", 60) + "end."
	chunks := SplitChunks("Short one. "+long, 50)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Short one.", chunks[0])
	assert.Greater(t, len(chunks[1]), 50)
}

func TestSplitChunksBlankLineIsBoundary(t *testing.T) {
	chunks := SplitChunks("no terminal punctuation here\n\nsecond paragraph", 12)
	require.Len(t, chunks, 2)
	assert.Equal(t, "no terminal punctuation here", chunks[0])
	assert.Equal(t, "second paragraph", chunks[1])
}
