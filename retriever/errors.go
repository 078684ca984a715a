package retriever

import "fmt"

// EncoderLoadError reports a missing or unreadable persisted sparse encoder.
// It is fatal at retriever construction time.
type EncoderLoadError struct {
	Path string
	Err  error
}

func (e *EncoderLoadError) Error() string {
	return fmt.Sprintf("load sparse encoder %s: %v", e.Path, e.Err)
}

func (e *EncoderLoadError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports a failed remote embedding call. No fallback
// vector is substituted; a silently-wrong embedding is worse than a visible
// failure.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// RetrievalError wraps a vector-store query failure. It is surfaced to the
// caller because a silent empty result is indistinguishable from "no relevant
// documents".
type RetrievalError struct {
	Namespace string
	Err       error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval in namespace %q: %v", e.Namespace, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
