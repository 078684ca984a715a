package ingest

import (
	"strings"
	"unicode/utf8"
)

// RecursiveSplitter splits text into chunks of at most ChunkSize runes with
// ChunkOverlap runes carried between adjacent chunks, preferring paragraph
// then line then word boundaries before cutting mid-word.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 400
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// Split returns the chunks of text in order. Empty chunks are dropped.
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, seps []string) []string {
	sep := ""
	var rest []string
	for i, c := range seps {
		if c == "" || strings.Contains(text, c) {
			sep = c
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardSplit(text)
	}

	var final []string
	var pending []string
	for _, piece := range strings.Split(text, sep) {
		if utf8.RuneCountInString(piece) < s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		final = append(final, s.merge(pending, sep)...)
		pending = nil
		final = append(final, s.split(piece, rest)...)
	}
	final = append(final, s.merge(pending, sep)...)
	return final
}

// merge greedily joins small pieces into chunks near ChunkSize, keeping an
// overlap window of trailing pieces for the next chunk.
func (s *RecursiveSplitter) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)
	var chunks []string
	var window []string
	total := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(window, sep))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		l := utf8.RuneCountInString(piece)
		if len(window) > 0 && total+l+sepLen > s.ChunkSize {
			flush()
			for total > s.ChunkOverlap && len(window) > 0 {
				total -= utf8.RuneCountInString(window[0]) + sepLen
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += l + sepLen
	}
	flush()
	return chunks
}

// hardSplit cuts text at rune boundaries when no separator is usable.
func (s *RecursiveSplitter) hardSplit(text string) []string {
	runes := []rune(text)
	stride := s.ChunkSize - s.ChunkOverlap
	if stride <= 0 {
		stride = s.ChunkSize
	}
	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
