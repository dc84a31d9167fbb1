// Package vectorstore keeps chunk vectors in a local chromem-go collection.
package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/mvp-joe/docwatch/internal/indexer"
)

// CollectionName is the chromem collection holding chunks.
const CollectionName = "docwatch_chunks"

// Store implements indexer.ChunkStore on a chromem-go collection. With a
// directory it persists to disk; without one it is in-memory.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// Open opens (or creates) the store under dir. An empty dir gives an
// in-memory store.
func Open(dir string) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store at %s: %w", dir, err)
		}
	}

	// Embeddings are always supplied by the caller, so no embedding func.
	collection, err := db.GetOrCreateCollection(CollectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &Store{db: db, collection: collection}, nil
}

// UpsertChunk implements indexer.ChunkStore. Adding an existing id replaces it.
func (s *Store) UpsertChunk(ctx context.Context, chunk indexer.ChunkUpload) error {
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("chunk %s has no vector", chunk.ID)
	}

	doc := chromem.Document{
		ID:        chunk.ID,
		Content:   chunk.Payload.Text,
		Embedding: chunk.Vector,
		Metadata:  payloadToMetadata(chunk.Payload),
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// DeleteChunks implements indexer.ChunkStore. Unknown ids are ignored.
func (s *Store) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete %d chunks: %w", len(ids), err)
	}
	return nil
}

// Get returns the stored chunk for id.
func (s *Store) Get(ctx context.Context, id string) (indexer.ChunkUpload, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return indexer.ChunkUpload{}, err
	}
	return indexer.ChunkUpload{
		ID:      doc.ID,
		Vector:  doc.Embedding,
		Payload: metadataToPayload(doc.Content, doc.Metadata),
	}, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

// payloadToMetadata converts a chunk payload to chromem-go's metadata format.
func payloadToMetadata(p indexer.ChunkPayload) map[string]string {
	return map[string]string{
		"path":        p.Path,
		"chunk_index": strconv.Itoa(p.ChunkIndex),
		"hash":        p.Hash,
	}
}

func metadataToPayload(content string, meta map[string]string) indexer.ChunkPayload {
	idx, _ := strconv.Atoi(meta["chunk_index"])
	return indexer.ChunkPayload{
		Path:       meta["path"],
		ChunkIndex: idx,
		Text:       content,
		Hash:       meta["hash"],
	}
}
