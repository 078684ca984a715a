package sparse

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/bleve/analysis/lang/cjk"
	"github.com/blevesearch/bleve/analysis/token/lowercase"
	"github.com/blevesearch/bleve/analysis/token/stop"
	"github.com/blevesearch/bleve/analysis/tokenizer/unicode"
)

// TokenizerKind selects the lexical analysis strategy used to build sparse
// vectors. Only the CJK strategy is used in production; the unicode strategy
// exists for latin-script corpora and tests.
type TokenizerKind string

const (
	TokenizerKindCJK     TokenizerKind = "cjk"
	TokenizerKindUnicode TokenizerKind = "unicode"
)

//go:embed stopwords_ko.txt
var koreanStopwords string

// DefaultStopwords returns the bundled Korean stopword list.
func DefaultStopwords() []string {
	var out []string
	for _, line := range strings.Split(koreanStopwords, "\n") {
		w := strings.TrimSpace(line)
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Tokenizer is a fixed analysis chain: unicode segmentation, width folding and
// bigramming for CJK scripts, lowercasing, stopword removal. Safe for
// concurrent use; the chain holds no per-call state.
type Tokenizer struct {
	kind      TokenizerKind
	tokenizer analysis.Tokenizer
	filters   []analysis.TokenFilter
}

// NewTokenizer builds the analysis chain for kind with the given stopwords.
func NewTokenizer(kind TokenizerKind, stopwords []string) (*Tokenizer, error) {
	stopMap := analysis.NewTokenMap()
	for _, w := range stopwords {
		stopMap.AddToken(strings.ToLower(w))
	}
	stopFilter := stop.NewStopTokensFilter(stopMap)

	switch kind {
	case TokenizerKindCJK:
		return &Tokenizer{
			kind:      kind,
			tokenizer: unicode.NewUnicodeTokenizer(),
			filters: []analysis.TokenFilter{
				cjk.NewCJKWidthFilter(),
				lowercase.NewLowerCaseFilter(),
				cjk.NewCJKBigramFilter(false),
				stopFilter,
			},
		}, nil
	case TokenizerKindUnicode:
		return &Tokenizer{
			kind:      kind,
			tokenizer: unicode.NewUnicodeTokenizer(),
			filters: []analysis.TokenFilter{
				lowercase.NewLowerCaseFilter(),
				stopFilter,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported tokenizer kind: %q", kind)
	}
}

// Kind reports the strategy this tokenizer was built with.
func (t *Tokenizer) Kind() TokenizerKind { return t.kind }

// Tokenize analyzes text and returns the surviving terms in order.
func (t *Tokenizer) Tokenize(text string) []string {
	stream := t.tokenizer.Tokenize([]byte(text))
	for _, f := range t.filters {
		stream = f.Filter(stream)
	}
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		terms = append(terms, string(tok.Term))
	}
	return terms
}
