package rag

import "errors"

// Sentinel errors for caller mistakes. The messages match what the API
// has always returned, so clients keep working.
var (
	ErrInvalidSessionID = errors.New("aid can not be null or empty")
	ErrSessionNotFound  = errors.New("aid not exist")
)

// EmbeddingError reports a failed embedding call: transport error, non-2xx
// status or a provider-reported failure.
type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Reason != "" {
		return "failed to generate embeddings, err: " + e.Reason
	}
	return "failed to generate embeddings: " + e.Err.Error()
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError is the same boundary shape for the generation model.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Reason != "" {
		return "generation failed, err: " + e.Reason
	}
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// VectorStoreError wraps a failed vector database call, tagged with the
// operation that failed (list collections, create collection, upsert,
// search).
type VectorStoreError struct {
	Op  string
	Err error
}

func (e *VectorStoreError) Error() string { return "vector store " + e.Op + ": " + e.Err.Error() }

func (e *VectorStoreError) Unwrap() error { return e.Err }

// CollectionError aborts an ingest whose collection could not be ensured.
type CollectionError struct {
	Err error
}

func (e *CollectionError) Error() string { return "failed to create new collection: " + e.Err.Error() }

func (e *CollectionError) Unwrap() error { return e.Err }

// TimeoutError marks a provider call that ran out of time, so callers can
// tell a slow provider apart from a broken one.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string { return e.Op + " timed out: " + e.Err.Error() }

func (e *TimeoutError) Unwrap() error { return e.Err }
