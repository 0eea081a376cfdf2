package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/celerix-dev/celerix-pantry/internal/vault"
)

// ErrNoState is returned by a Boundary that holds nothing yet.
var ErrNoState = errors.New("no persisted state")

// Boundary is the durable home of the serialized GlobalState: one key, one blob.
type Boundary interface {
	// Load returns the blob or ErrNoState.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the blob.
	Save(ctx context.Context, blob []byte) error
}

// FileBoundary keeps the blob in a single file inside a data directory.
type FileBoundary struct {
	DataDir string
	Key     string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewFileBoundary initializes a file boundary, creating dir if needed.
func NewFileBoundary(dir, key string) (*FileBoundary, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileBoundary{DataDir: dir, Key: key}, nil
}

func (p *FileBoundary) path() string {
	return filepath.Join(p.DataDir, fmt.Sprintf("%s.json", p.Key))
}

// Save writes the blob atomically.
func (p *FileBoundary) Save(_ context.Context, blob []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := p.path()
	tempPath := filePath + ".tmp"

	if err := os.WriteFile(tempPath, blob, 0644); err != nil {
		return err
	}

	// Rename is atomic on POSIX filesystems: readers see the old blob or the new one.
	return os.Rename(tempPath, filePath)
}

// Load reads the blob.
func (p *FileBoundary) Load(_ context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	content, err := os.ReadFile(p.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

// sealedBoundary encrypts blobs on the way out and decrypts them on the way in.
type sealedBoundary struct {
	inner Boundary
	key   []byte
}

// Sealed wraps b so blobs are stored AES-GCM encrypted. An empty key returns b unchanged.
func Sealed(b Boundary, key []byte) Boundary {
	if len(key) == 0 {
		return b
	}
	return &sealedBoundary{inner: b, key: key}
}

func (s *sealedBoundary) Load(ctx context.Context) ([]byte, error) {
	blob, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	return vault.Open(blob, s.key)
}

func (s *sealedBoundary) Save(ctx context.Context, blob []byte) error {
	sealed, err := vault.Seal(blob, s.key)
	if err != nil {
		return err
	}
	return s.inner.Save(ctx, sealed)
}

// Migrate copies the blob held by src into dst when dst is still empty.
// It reports whether a copy happened. This covers moving from a local
// data directory to Redis and back.
func Migrate(ctx context.Context, src, dst Boundary) (bool, error) {
	if _, err := dst.Load(ctx); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNoState) {
		return false, fmt.Errorf("failed to inspect destination: %w", err)
	}

	blob, err := src.Load(ctx)
	if errors.Is(err, ErrNoState) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read source: %w", err)
	}

	if err := dst.Save(ctx, blob); err != nil {
		return false, fmt.Errorf("failed to write destination: %w", err)
	}
	return true, nil
}
