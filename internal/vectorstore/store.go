package vectorstore

import (
	"context"
	"fmt"
)

// textKey is the metadata key holding the document body.
const textKey = "text"

// Document 检索单元
type Document struct {
	ID          string         `json:"id"`
	PageContent string         `json:"pageContent"`
	Metadata    map[string]any `json:"metadata"`
	Score       float64        `json:"score,omitempty"`
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Index is the vector index surface Store needs.
type Index interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error)
	Delete(ctx context.Context, ids []string) error
}

// Searcher is what the chat service depends on.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) ([]Document, error)
}

// Store 组合 embedding 与 index
type Store struct {
	embedder Embedder
	index    Index
}

func NewStore(embedder Embedder, index Index) *Store {
	return &Store{embedder: embedder, index: index}
}

var _ Searcher = (*Store)(nil)

// AddDocuments embeds and upserts docs; an existing id is overwritten.
func (s *Store) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	vectors := make([]Vector, len(docs))
	for i, d := range docs {
		meta := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		meta[textKey] = d.PageContent
		vectors[i] = Vector{ID: d.ID, Values: vecs[i], Metadata: meta}
	}
	return s.index.Upsert(ctx, vectors)
}

// SimilaritySearch returns the k nearest documents to query. A nil filter searches everything.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) ([]Document, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.index.Query(ctx, vecs[0], k, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(matches))
	for _, m := range matches {
		d := Document{ID: m.ID, Score: m.Score, Metadata: map[string]any{}}
		for key, v := range m.Metadata {
			if key == textKey {
				d.PageContent, _ = v.(string)
				continue
			}
			d.Metadata[key] = v
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.index.Delete(ctx, ids)
}
