package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	newlineRun = regexp.MustCompile(`[ \t]*\n+[ \t]*`)
	spaceRun   = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanText collapses newline runs to a single newline, squeezes repeated
// spaces, and trims the ends. Chunk text is stored already cleaned; the
// retriever never re-cleans.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = newlineRun.ReplaceAllString(s, "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanedLength measures the substantive length of a chunk: runes left after
// removing newlines and cleaning. Short fragments (page headers, table
// debris) fall under the per-namespace threshold and are dropped.
func CleanedLength(s string) int {
	return utf8.RuneCountInString(CleanText(strings.ReplaceAll(s, "\n", "")))
}
