// Package vectorstore provides embedded vector storage for the knowledge base.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid vector store configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
)

// Document is one entry to be embedded and stored.
type Document struct {
	// ID is the unique identifier. Empty IDs are auto-generated.
	ID string

	// Content is the text to embed.
	Content string

	// Metadata carries source attributes stored alongside the vector.
	Metadata map[string]any
}

// SearchResult is one similarity-search hit.
type SearchResult struct {
	// ID is the matched document's identifier.
	ID string

	// Content is the matched text.
	Content string

	// Metadata carries the stored attributes.
	Metadata map[string]any

	// Score is the cosine similarity, highest first.
	Score float32
}

// CollectionInfo describes a stored collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// DocumentCount is the number of stored documents.
	DocumentCount int `json:"document_count"`
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// The interface is transport-agnostic; the embedded chromem implementation
// is the default, and nothing above it depends on the engine.
type Store interface {
	// AddDocuments embeds and stores documents, returning their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search returns up to k documents similar to the query, highest
	// similarity first.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Info returns metadata about the backing collection.
	Info(ctx context.Context) (*CollectionInfo, error)

	// Close releases store resources.
	Close() error
}
