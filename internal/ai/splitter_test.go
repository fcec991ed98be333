package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitterShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("hello world")
	require.Len(t, chunks, 1)
	require.Equal(t, "hello world", chunks[0])
}

func TestSplitterEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	require.Empty(t, s.Split(""))
}

func TestSplitterOverlapBetweenChunks(t *testing.T) {
	s := NewSplitter(10, 4)
	text := strings.Repeat("abcdefghij", 3)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 0; i < len(chunks)-1; i++ {
		require.Len(t, []rune(chunks[i]), 10)
		tail := string([]rune(chunks[i])[10-4:])
		head := string([]rune(chunks[i+1])[:4])
		require.Equal(t, tail, head)
	}
}

func TestSplitterCoversWholeText(t *testing.T) {
	s := NewSplitter(7, 2)
	text := "0123456789abcdefghij"
	chunks := s.Split(text)
	step := 7 - 2
	var rebuilt strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk)
		if i == 0 {
			rebuilt.WriteString(chunk)
			continue
		}
		// every chunk after the first repeats the overlap of its predecessor
		rebuilt.WriteString(string(runes[7-step:]))
	}
	require.Equal(t, text, rebuilt.String())
}

func TestSplitterClampsBadConfig(t *testing.T) {
	s := NewSplitter(0, -1)
	require.Equal(t, 1000, s.chunkSize)
	require.Equal(t, 0, s.overlap)

	s = NewSplitter(10, 50)
	require.Equal(t, 9, s.overlap)
}
