package sparse

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"sort"
)

const (
	encoderFormat  = "seniormts-sparse-encoder"
	encoderVersion = 1

	defaultK1 = 1.2
	defaultB  = 0.75
)

// Vector is a sparse weighted term vector in the wire form the vector store
// expects: parallel index/value slices, indices ascending and unique.
type Vector struct {
	Indices []uint32  `json:"indices"`
	Values  []float64 `json:"values"`
}

// IsZero reports whether the vector carries no weight at all.
func (v Vector) IsZero() bool { return len(v.Indices) == 0 }

// Encoder maps tokenized text to sparse BM25-weighted term vectors. It must be
// fitted on a corpus before encoding; after Fit (or Load) it is read-only and
// safe for concurrent use.
type Encoder struct {
	tok *Tokenizer

	K1 float64
	B  float64

	docFreq   map[string]int
	numDocs   int
	avgDocLen float64
	fitted    bool
}

// NewEncoder returns an unfitted encoder using tok for analysis.
func NewEncoder(tok *Tokenizer) *Encoder {
	return &Encoder{tok: tok, K1: defaultK1, B: defaultB, docFreq: map[string]int{}}
}

// Fit computes per-term document frequencies and the average document length
// over corpus. Deterministic for identical corpus and tokenizer. Re-fitting
// replaces the previous statistics.
func (e *Encoder) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return fmt.Errorf("sparse encoder fit: empty corpus")
	}
	docFreq := make(map[string]int)
	var totalLen int
	for _, doc := range corpus {
		terms := e.tok.Tokenize(doc)
		totalLen += len(terms)
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}
	e.docFreq = docFreq
	e.numDocs = len(corpus)
	e.avgDocLen = float64(totalLen) / float64(len(corpus))
	e.fitted = true
	return nil
}

// Fitted reports whether the encoder carries term statistics.
func (e *Encoder) Fitted() bool { return e.fitted }

// VocabSize returns the number of fitted vocabulary terms.
func (e *Encoder) VocabSize() int { return len(e.docFreq) }

// EncodeDocument weights each in-vocabulary term of text by its saturated term
// frequency. Terms outside the fitted vocabulary contribute nothing.
func (e *Encoder) EncodeDocument(text string) Vector {
	terms := e.tok.Tokenize(text)
	docLen := float64(len(terms))
	tf := make(map[string]float64)
	for _, term := range terms {
		if _, ok := e.docFreq[term]; !ok {
			continue
		}
		tf[term]++
	}
	weights := make(map[string]float64, len(tf))
	for term, f := range tf {
		norm := e.K1*(1-e.B+e.B*docLen/e.safeAvgDocLen()) + f
		weights[term] = f * (e.K1 + 1) / norm
	}
	return e.toVector(weights)
}

// EncodeQuery weights each in-vocabulary query term by its inverse document
// frequency, normalized so the weights sum to one. Unknown terms are ignored,
// so a fully out-of-vocabulary query yields a zero vector rather than an
// error and ranking degrades to dense-only.
func (e *Encoder) EncodeQuery(text string) Vector {
	terms := e.tok.Tokenize(text)
	idf := make(map[string]float64)
	var sum float64
	for _, term := range terms {
		df, ok := e.docFreq[term]
		if !ok {
			continue
		}
		if _, done := idf[term]; done {
			continue
		}
		w := math.Log(1 + (float64(e.numDocs)-float64(df)+0.5)/(float64(df)+0.5))
		idf[term] = w
		sum += w
	}
	if sum > 0 {
		for term := range idf {
			idf[term] /= sum
		}
	}
	return e.toVector(idf)
}

func (e *Encoder) safeAvgDocLen() float64 {
	if e.avgDocLen <= 0 {
		return 1
	}
	return e.avgDocLen
}

func (e *Encoder) toVector(weights map[string]float64) Vector {
	if len(weights) == 0 {
		return Vector{}
	}
	// Hash collisions merge additively; with FNV-1a over a per-namespace
	// vocabulary they are vanishingly rare.
	byIndex := make(map[uint32]float64, len(weights))
	for term, w := range weights {
		if w == 0 {
			continue
		}
		byIndex[hashTerm(term)] += w
	}
	indices := make([]uint32, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = byIndex[idx]
	}
	return Vector{Indices: indices, Values: values}
}

func hashTerm(term string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(term))
	return h.Sum32()
}

type encoderState struct {
	Format    string         `json:"format"`
	Version   int            `json:"version"`
	Tokenizer TokenizerKind  `json:"tokenizer"`
	K1        float64        `json:"k1"`
	B         float64        `json:"b"`
	NumDocs   int            `json:"num_docs"`
	AvgDocLen float64        `json:"avg_doc_len"`
	DocFreq   map[string]int `json:"doc_freq"`
}

// Save writes the fitted statistics to path. The artifact carries a format and
// version tag so Load can reject files it did not produce.
func (e *Encoder) Save(path string) error {
	if !e.fitted {
		return fmt.Errorf("sparse encoder save: encoder is not fitted")
	}
	state := encoderState{
		Format:    encoderFormat,
		Version:   encoderVersion,
		Tokenizer: e.tok.Kind(),
		K1:        e.K1,
		B:         e.B,
		NumDocs:   e.numDocs,
		AvgDocLen: e.avgDocLen,
		DocFreq:   e.docFreq,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("sparse encoder save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sparse encoder save: %w", err)
	}
	return nil
}

// Load reads a previously saved encoder state from path and binds it to tok.
// The tokenizer kind must match the one the artifact was fitted with.
func Load(path string, tok *Tokenizer) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state encoderState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode encoder state: %w", err)
	}
	if state.Format != encoderFormat {
		return nil, fmt.Errorf("unrecognized encoder artifact format %q", state.Format)
	}
	if state.Version != encoderVersion {
		return nil, fmt.Errorf("unsupported encoder artifact version %d", state.Version)
	}
	if state.Tokenizer != tok.Kind() {
		return nil, fmt.Errorf("encoder artifact was fitted with tokenizer %q, retriever configured with %q", state.Tokenizer, tok.Kind())
	}
	if state.DocFreq == nil {
		state.DocFreq = map[string]int{}
	}
	return &Encoder{
		tok:       tok,
		K1:        state.K1,
		B:         state.B,
		docFreq:   state.DocFreq,
		numDocs:   state.NumDocs,
		avgDocLen: state.AvgDocLen,
		fitted:    true,
	}, nil
}
