package ai

// Splitter cuts text into fixed-size overlapping windows so each unit stays
// within embedding limits while the overlap preserves continuity across
// chunk boundaries. Sizes are in runes, not bytes.
type Splitter struct {
	chunkSize int
	overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the input unchanged as a single chunk when it fits; otherwise
// adjacent chunks share exactly the configured overlap.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}
	step := s.chunkSize - s.overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
