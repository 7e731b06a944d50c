package rag

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	store      VectorStore
	embedder   Embedder
	generator  Generator
	collection string
	workers    int
}

type Option func(*Service)

// Workers bounds how many chunks Ingest embeds and inserts concurrently.
// The default of 1 keeps ingestion strictly ordered, which keeps provider
// rate limits predictable.
func Workers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(store VectorStore, embedder Embedder, generator Generator, collection string, opts ...Option) *Service {
	s := &Service{
		store:      store,
		embedder:   embedder,
		generator:  generator,
		collection: collection,
		workers:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap idempotently creates the configured collection.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx, s.collection); err != nil {
		return &CollectionError{Err: err}
	}
	return nil
}

// Ingest splits a document into paragraph chunks, embeds each one and
// stores it under a fresh aid. The first failure aborts the whole ingest;
// chunks already inserted stay behind (there is no rollback).
func (s *Service) Ingest(ctx context.Context, document string) (string, error) {
	if err := s.Bootstrap(ctx); err != nil {
		return "", err
	}

	chunks := SplitParagraphs(document)
	aid := uuid.NewString()

	if s.workers > 1 {
		if err := s.ingestParallel(ctx, chunks, aid); err != nil {
			return "", err
		}
		return aid, nil
	}

	for _, chunk := range chunks {
		if err := s.ingestChunk(ctx, chunk, aid); err != nil {
			return "", err
		}
	}

	return aid, nil
}

func (s *Service) ingestChunk(ctx context.Context, chunk, aid string) error {
	vec, err := s.embedder.Embed(ctx, chunk)
	if err != nil {
		return err
	}

	point := Point{
		ID:      uuid.NewString(),
		Vector:  vec,
		Payload: Payload{Text: chunk, AID: aid},
	}

	return s.store.Upsert(ctx, s.collection, []Point{point})
}

func (s *Service) ingestParallel(ctx context.Context, chunks []string, aid string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			return s.ingestChunk(ctx, chunk, aid)
		})
	}
	return g.Wait()
}

// Ask embeds the question, retrieves the aid-scoped notes and forwards a
// grounded prompt to the generation model. The provider response comes
// back verbatim.
func (s *Service) Ask(ctx context.Context, question, aid string) (json.RawMessage, error) {
	if aid == "" {
		return nil, ErrInvalidSessionID
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Search(ctx, s.collection, vec, &SearchFilter{AID: aid})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		// "unknown aid" and "aid with no stored notes" look the same here.
		return nil, ErrSessionNotFound
	}

	notes := make([]string, 0, len(matches))
	for _, m := range matches {
		notes = append(notes, m.Payload.Text)
	}

	return s.generator.Generate(ctx, notes, question)
}

// AddNote embeds a single text and stores it as one standalone point, not
// tied to any aid. Returns the point id.
func (s *Service) AddNote(ctx context.Context, text string) (string, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", err
	}

	point := Point{
		ID:      uuid.NewString(),
		Vector:  vec,
		Payload: Payload{Text: text},
	}

	if err := s.store.Upsert(ctx, s.collection, []Point{point}); err != nil {
		return "", err
	}
	return point.ID, nil
}
