package rag

import (
	"context"
	"encoding/json"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator sends a grounded prompt (context notes + question) to the
// generation model and hands back the provider response untouched.
type Generator interface {
	Generate(ctx context.Context, notes []string, question string) (json.RawMessage, error)
}

type VectorStore interface {
	// EnsureCollection creates the collection if missing. Never recreates
	// or deletes an existing one.
	EnsureCollection(ctx context.Context, name string) error

	// Upsert writes points with synchronous acknowledge: it only returns
	// once the store has confirmed durability.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the closest points by the collection's distance
	// metric, in descending similarity order, up to the store's limit.
	Search(ctx context.Context, collection string, vector []float32, filter *SearchFilter) ([]Point, error)
}
