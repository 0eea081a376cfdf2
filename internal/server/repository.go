package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a Repository that holds no row for a username.
var ErrNotFound = errors.New("row not found")

// Row is one app_state row. State is kept opaque.
type Row struct {
	Username  string          `json:"username"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Repository stores app_state rows keyed by username.
type Repository interface {
	Get(ctx context.Context, username string) (Row, error)
	// Upsert replaces the whole row; fields are never merged.
	Upsert(ctx context.Context, row Row) error
}

// MemRepository keeps rows in memory.
type MemRepository struct {
	mu   sync.RWMutex
	rows map[string]Row
}

func NewMemRepository() *MemRepository {
	return &MemRepository{rows: make(map[string]Row)}
}

func (m *MemRepository) Get(_ context.Context, username string) (Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[username]
	if !ok {
		return Row{}, ErrNotFound
	}
	return copyRow(row), nil
}

func (m *MemRepository) Upsert(_ context.Context, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows[row.Username] = copyRow(row)
	return nil
}

func copyRow(r Row) Row {
	r.State = append(json.RawMessage(nil), r.State...)
	return r
}
