// Package knowledge manages the packaging knowledge base.
//
// The knowledge base holds machine, material, and process specifications
// plus chunked reference documents, all embedded into the vector store. The
// assessment steps ground their reasoning in similarity-search results from
// here.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/steps"
	"github.com/fyrsmithlabs/packeval/internal/vectorstore"
)

// ErrEmptyContent indicates an entry or document without text.
var ErrEmptyContent = errors.New("empty content")

// Service ingests and searches knowledge entries. It implements
// steps.Retriever for the assessment handlers.
type Service struct {
	store   vectorstore.Store
	chunker chunker
	logger  *zap.Logger
}

// NewService creates a knowledge service over the given store.
func NewService(store vectorstore.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("vector store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		chunker: newChunker(defaultChunkSize, defaultChunkOverlap),
		logger:  logger,
	}, nil
}

// AddMachine ingests a machine specification.
func (s *Service) AddMachine(ctx context.Context, m MachineSpec) (*Entry, error) {
	return s.addEntry(ctx, EntryMachine, m.Specifications, map[string]any{
		"name":         m.Name,
		"type":         m.Type,
		"capabilities": strings.Join(m.Capabilities, ", "),
		"constraints":  strings.Join(m.Constraints, ", "),
	})
}

// AddMaterial ingests a material specification.
func (s *Service) AddMaterial(ctx context.Context, m MaterialSpec) (*Entry, error) {
	return s.addEntry(ctx, EntryMaterial, m.Specifications, map[string]any{
		"name":        m.Name,
		"type":        m.Type,
		"properties":  strings.Join(m.Properties, ", "),
		"constraints": strings.Join(m.Constraints, ", "),
	})
}

// AddProcess ingests a process specification.
func (s *Service) AddProcess(ctx context.Context, p ProcessSpec) (*Entry, error) {
	return s.addEntry(ctx, EntryProcess, p.Specifications, map[string]any{
		"name":         p.Name,
		"type":         p.Type,
		"requirements": strings.Join(p.Requirements, ", "),
		"constraints":  strings.Join(p.Constraints, ", "),
	})
}

// AddDocument chunks and ingests a reference document, returning one entry
// per chunk.
func (s *Service) AddDocument(ctx context.Context, doc Document) ([]Entry, error) {
	chunks := s.chunker.split(doc.Content)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %q", ErrEmptyContent, doc.Name)
	}

	docID := uuid.NewString()
	now := time.Now().UTC()

	entries := make([]Entry, len(chunks))
	storeDocs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		entries[i] = Entry{
			ID:      fmt.Sprintf("%s_%d", docID, i),
			Type:    EntryDocument,
			Content: chunk,
			Metadata: map[string]any{
				"type":         string(EntryDocument),
				"name":         doc.Name,
				"description":  doc.Description,
				"tags":         strings.Join(doc.Tags, ", "),
				"chunk_index":  i,
				"total_chunks": len(chunks),
			},
			CreatedAt: now,
		}
		storeDocs[i] = vectorstore.Document{
			ID:       entries[i].ID,
			Content:  chunk,
			Metadata: entries[i].Metadata,
		}
	}

	if _, err := s.store.AddDocuments(ctx, storeDocs); err != nil {
		return nil, fmt.Errorf("storing document chunks: %w", err)
	}

	s.logger.Info("document ingested",
		zap.String("name", doc.Name),
		zap.Int("chunks", len(chunks)),
	)
	return entries, nil
}

// Search returns up to k entries similar to the query, highest score first.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Entry, error) {
	if k <= 0 {
		k = 5
	}
	results, err := s.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}

	entries := make([]Entry, len(results))
	for i, r := range results {
		entries[i] = Entry{
			ID:       r.ID,
			Type:     entryTypeOf(r.Metadata),
			Content:  r.Content,
			Metadata: r.Metadata,
		}
	}
	return entries, nil
}

// Retrieve implements steps.Retriever.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]steps.Passage, error) {
	results, err := s.store.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	passages := make([]steps.Passage, len(results))
	for i, r := range results {
		passages[i] = steps.Passage{
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Score,
		}
	}
	return passages, nil
}

// Info reports the size of the knowledge base.
func (s *Service) Info(ctx context.Context) (*vectorstore.CollectionInfo, error) {
	return s.store.Info(ctx)
}

func (s *Service) addEntry(ctx context.Context, t EntryType, content string, metadata map[string]any) (*Entry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s entry", ErrEmptyContent, t)
	}
	metadata["type"] = string(t)

	entry := Entry{
		ID:        uuid.NewString(),
		Type:      t,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.store.AddDocuments(ctx, []vectorstore.Document{{
		ID:       entry.ID,
		Content:  entry.Content,
		Metadata: entry.Metadata,
	}}); err != nil {
		return nil, fmt.Errorf("storing %s entry: %w", t, err)
	}

	s.logger.Debug("knowledge entry stored",
		zap.String("id", entry.ID),
		zap.String("type", string(t)),
	)
	return &entry, nil
}

func entryTypeOf(metadata map[string]any) EntryType {
	if t, ok := metadata["type"].(string); ok {
		return EntryType(t)
	}
	return EntryDocument
}
