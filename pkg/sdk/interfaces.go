package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
)

var (
	// ErrRowNotFound is returned by Fetch when the remote holds no row for the username.
	ErrRowNotFound = errors.New("no app_state row for username")
	// ErrNotConfigured is returned by New when the endpoint or key is missing.
	ErrNotConfigured = errors.New("cloud sync is not configured")
)

// AppStateRow is one row of the remote app_state resource.
type AppStateRow struct {
	Username  string           `json:"username"`
	State     schema.UserStore `json:"state"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// --- Functional Interfaces (Interface Segregation) ---

// StateReader fetches the remote document for a username.
type StateReader interface {
	Fetch(ctx context.Context, username string) (AppStateRow, error)
}

// StateWriter creates or fully replaces the remote document for row.Username.
type StateWriter interface {
	Upsert(ctx context.Context, row AppStateRow) error
}

// RemoteStore is what the sync engine needs from the remote side.
type RemoteStore interface {
	StateReader
	StateWriter
}

// TransportError reports a network failure or a non-success HTTP response.
type TransportError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
