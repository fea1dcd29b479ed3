// Package blobstore holds the artifacts produced by bulk note exports. It
// defines the ArtifactStore interface and an in-memory implementation; a
// production deployment can swap in an object-storage backend without
// touching the export pipeline.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactTooLarge = errors.New("artifact exceeds maximum allowed size")
)

// MaxArtifactSize is the maximum allowed artifact size in bytes (100 MB).
const MaxArtifactSize = 100 * 1024 * 1024

// ArtifactMetadata describes a stored export artifact.
type ArtifactMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// ArtifactStore defines the contract for artifact storage backends.
type ArtifactStore interface {
	Put(ctx context.Context, meta ArtifactMetadata, content io.Reader) (*ArtifactMetadata, error)
	Get(ctx context.Context, id string) (io.ReadCloser, *ArtifactMetadata, error)
	GetMetadata(ctx context.Context, id string) (*ArtifactMetadata, error)
	Delete(ctx context.Context, id string) error
}

type storedArtifact struct {
	metadata ArtifactMetadata
	content  []byte
}

// InMemoryStore is a thread-safe, in-memory ArtifactStore.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]*storedArtifact
}

// NewInMemoryStore returns a ready-to-use InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		artifacts: make(map[string]*storedArtifact),
	}
}

// Put reads the content, computes a SHA-256 hash, and stores the artifact.
func (s *InMemoryStore) Put(_ context.Context, meta ArtifactMetadata, content io.Reader) (*ArtifactMetadata, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxArtifactSize {
		return nil, ErrArtifactTooLarge
	}

	h := sha256.Sum256(data)

	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.artifacts[meta.ID] = &storedArtifact{
		metadata: meta,
		content:  data,
	}
	s.mu.Unlock()

	out := meta // copy
	return &out, nil
}

// Get returns an io.ReadCloser over the artifact content and its metadata.
func (s *InMemoryStore) Get(_ context.Context, id string) (io.ReadCloser, *ArtifactMetadata, error) {
	s.mu.RLock()
	a, ok := s.artifacts[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrArtifactNotFound
	}

	meta := a.metadata // copy
	return io.NopCloser(bytes.NewReader(a.content)), &meta, nil
}

// GetMetadata returns artifact metadata without content.
func (s *InMemoryStore) GetMetadata(_ context.Context, id string) (*ArtifactMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[id]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	meta := a.metadata
	return &meta, nil
}

// Delete removes an artifact by ID.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[id]; !ok {
		return ErrArtifactNotFound
	}
	delete(s.artifacts, id)
	return nil
}
