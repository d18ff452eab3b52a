// Package chunking bounds how much document text is fed into a
// generation prompt. Long documents are cut into overlapping windows,
// breaking at paragraph or sentence boundaries where possible.
package chunking

import "strings"

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Head returns the first chunk: a prompt-sized prefix of the text.
func (s *Splitter) Head(text string) string {
	chunks := s.Split(text)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0]
}

// Split cuts text into rune windows of at most ChunkSize. When a
// window ends mid-text, the cut moves back to the nearest newline or
// sentence end within the last quarter of the window.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.breakPoint(runes, start, end)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func (s *Splitter) breakPoint(runes []rune, start, end int) int {
	limit := end - s.ChunkSize/4
	if limit < start+1 {
		limit = start + 1
	}
	for i := end - 1; i >= limit; i-- {
		switch runes[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if i+1 < end && runes[i+1] == ' ' {
				return i + 2
			}
		}
	}
	return end
}
