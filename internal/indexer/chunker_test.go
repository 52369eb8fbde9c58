package indexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses runs of spaces", "a  b   c", "a b c"},
		{"collapses hard wraps", "line one\nline two\r\nline three", "line one line two line three"},
		{"trims surrounding whitespace", "  padded  ", "padded"},
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestChunkTextSentenceAligned(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."

	chunks := ChunkText(text, 6)

	require.Len(t, chunks, 2)
	assert.Equal(t, "First sentence here. Second sentence here.", chunks[0])
	assert.Equal(t, "Third sentence here.", chunks[1])
}

func TestChunkTextLongSentenceOwnChunk(t *testing.T) {
	long := "word " + strings.Repeat("and word ", 20) + "end."
	text := "Short one. " + long + " Short two."

	chunks := ChunkText(text, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Short one.", chunks[0])
	assert.Contains(t, chunks[1], "end.")
	assert.Equal(t, "Short two.", chunks[2])
}

func TestChunkTextSingleChunkUnderLimit(t *testing.T) {
	chunks := ChunkText("One sentence. Another sentence.", 256)

	require.Len(t, chunks, 1)
	assert.Equal(t, "One sentence. Another sentence.", chunks[0])
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Nil(t, ChunkText("", 256))
	assert.Nil(t, ChunkText("   \n ", 256))
}

func TestChunkTextNoTerminalPunctuation(t *testing.T) {
	chunks := ChunkText("trailing fragment without punctuation", 256)

	require.Len(t, chunks, 1)
	assert.Equal(t, "trailing fragment without punctuation", chunks[0])
}
