package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("Short Text Single Chunk", func(t *testing.T) {
		text := strings.Repeat("A", 50)
		chunks, err := Split("Doc", text, 1000, 200)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0].Content)
		assert.Equal(t, "Doc", chunks[0].Title)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, Hash("Doc\n"+text), chunks[0].ContentHash)
	})

	t.Run("Empty Input", func(t *testing.T) {
		chunks, err := Split("Doc", "", 1000, 200)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Invalid Params", func(t *testing.T) {
		_, err := Split("Doc", "text", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidChunkParams)

		_, err = Split("Doc", "text", 100, -1)
		assert.ErrorIs(t, err, ErrInvalidChunkParams)

		_, err = Split("Doc", "text", 100, 100)
		assert.ErrorIs(t, err, ErrInvalidChunkParams)

		_, err = Split("Doc", "text", 100, 150)
		assert.ErrorIs(t, err, ErrInvalidChunkParams)
	})

	t.Run("Paragraph Split No Overlap", func(t *testing.T) {
		a := strings.Repeat("a", 10)
		b := strings.Repeat("b", 10)
		c := strings.Repeat("c", 10)
		text := a + "\n\n" + b + "\n\n" + c

		chunks, err := Split("Doc", text, 25, 0)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, a+"\n\n"+b, chunks[0].Content)
		assert.Equal(t, c, chunks[1].Content)
	})

	t.Run("Overlap Carries Tail", func(t *testing.T) {
		a := strings.Repeat("a", 10)
		b := strings.Repeat("b", 10)
		c := strings.Repeat("c", 10)
		text := a + "\n\n" + b + "\n\n" + c

		chunks, err := Split("Doc", text, 25, 12)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, a+"\n\n"+b, chunks[0].Content)
		// The second chunk repeats the tail of the first.
		assert.True(t, strings.HasPrefix(chunks[1].Content, b), "second chunk should start with the carried tail")
		assert.True(t, strings.HasSuffix(chunks[1].Content, c))
	})

	t.Run("Size Bound Holds", func(t *testing.T) {
		text := "aaaa bbbb cccc dddd eeee"
		chunks, err := Split("Doc", text, 10, 3)
		require.NoError(t, err)
		require.True(t, len(chunks) >= 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c.Content), 10)
		}
	})

	t.Run("Oversized Run Falls Through To Characters", func(t *testing.T) {
		chunks, err := Split("Doc", "abcdefghij", 5, 0)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, "abcde", chunks[0].Content)
		assert.Equal(t, "fghij", chunks[1].Content)
	})

	t.Run("Indices Are Contiguous", func(t *testing.T) {
		text := strings.Repeat("word ", 200)
		chunks, err := Split("Doc", text, 50, 10)
		require.NoError(t, err)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "First paragraph with a few words.\n\nSecond paragraph, also with words.\nAnd a second line.\n\nThird."
		first, err := Split("Doc", text, 40, 10)
		require.NoError(t, err)
		second, err := Split("Doc", text, 40, 10)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("Hash Depends On Title", func(t *testing.T) {
		a, err := Split("Doc A", "same content", 1000, 0)
		require.NoError(t, err)
		b, err := Split("Doc B", "same content", 1000, 0)
		require.NoError(t, err)
		require.Len(t, a, 1)
		require.Len(t, b, 1)
		assert.Equal(t, a[0].Content, b[0].Content)
		assert.NotEqual(t, a[0].ContentHash, b[0].ContentHash)
	})
}

func TestHash(t *testing.T) {
	assert.Len(t, Hash("anything"), 64)
	assert.Equal(t, Hash("x"), Hash("x"))
	assert.NotEqual(t, Hash("x"), Hash("y"))
	// Known vector for the empty string.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
}
