package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksShortTextSingleChunk(t *testing.T) {
	for _, text := range []string{"a", "hello", strings.Repeat("x", 100)} {
		chunks := CollectChunks(text, 100, 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	}
}

func TestChunksBlankInputYieldsNothing(t *testing.T) {
	assert.Empty(t, CollectChunks("", 100, 10))
	assert.Empty(t, CollectChunks("   \n\t ", 100, 10))
}

func TestChunksCoverTextWithoutLoss(t *testing.T) {
	text := strings.Repeat("abcdefghij", 37) // 370 chars
	chunkSize, overlap := 100, 15

	chunks := CollectChunks(text, chunkSize, overlap)
	require.NotEmpty(t, chunks)

	// ceil(370/100) = 4 chunks with base 370/4 = 92.
	assert.Len(t, chunks, 4)

	// Dropping each chunk's overlap reconstructs the text exactly.
	base := len(text) / len(chunks)
	var rebuilt strings.Builder
	for i, c := range chunks {
		assert.NotEmpty(t, c)
		if i < len(chunks)-1 {
			assert.LessOrEqual(t, len(c), base+overlap)
			rebuilt.WriteString(c[:base])
		} else {
			rebuilt.WriteString(c)
		}
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunksNeighborsShareOverlap(t *testing.T) {
	text := strings.Repeat("0123456789", 20) // 200 chars
	chunks := CollectChunks(text, 100, 10)
	require.Len(t, chunks, 2)

	// First chunk is the base 100 chars plus 10 chars from the second's start.
	assert.Len(t, chunks[0], 110)
	assert.Equal(t, chunks[0][100:], chunks[1][:10])
	assert.Equal(t, text[100:], chunks[1])
}

func TestChunksSequenceIsRestartable(t *testing.T) {
	text := strings.Repeat("z", 250)
	seq := Chunks(text, 100, 5)

	first := make([]string, 0)
	for c := range seq {
		first = append(first, c)
	}
	second := make([]string, 0)
	for c := range seq {
		second = append(second, c)
	}
	assert.Equal(t, first, second)
}

func TestChunksEarlyBreakStopsIteration(t *testing.T) {
	text := strings.Repeat("y", 300)
	count := 0
	for range Chunks(text, 100, 0) {
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(t, 1, count)
}

func TestChunksHandlesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("šđčćž", 50) // 250 runes
	chunks := CollectChunks(text, 100, 10)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.True(t, utf8.ValidString(c))
	}
	// Last chunk runs to the end of the text.
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}
