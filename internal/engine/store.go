// Package engine holds the process-wide pantry state and routes every mutation
// through the ledger, history and account rules before persisting it.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/logger"
	"github.com/celerix-dev/celerix-pantry/internal/metrics"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
)

var (
	// ErrInvalidCredential is returned when a username and secret do not match an account.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrAlreadyExists is returned when registering a username that is taken.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrNoSession is returned by account-scoped operations while nobody is logged in.
	ErrNoSession = errors.New("no active session")
	// ErrAccountNotFound is returned when a username has no account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidUsername is returned for an empty username.
	ErrInvalidUsername = errors.New("username must not be empty")
)

// Options configures Open.
type Options struct {
	Boundary Boundary
	Catalog  []schema.Product
	// Build identifies the running code; it is stamped on snapshots and system logs.
	Build   string
	Cloud   schema.CloudConfig
	Logger  *logger.Logger
	Metrics *metrics.Recorder
	Clock   func() time.Time
}

// Store is the single source of truth for one process.
// All methods are safe for concurrent use; mutations are serialized.
type Store struct {
	mu      sync.RWMutex
	state   schema.GlobalState
	catalog []schema.Product
	build   string
	log     *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	boundary Boundary
	wg       sync.WaitGroup
	seq      uint64
	saveMu   sync.Mutex
	saved    uint64
}

// Open loads the state held by opts.Boundary, or starts empty when it holds nothing.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{
		catalog:  append([]schema.Product(nil), opts.Catalog...),
		build:    opts.Build,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Clock,
		boundary: opts.Boundary,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	state, err := s.load(ctx, opts.Cloud)
	if err != nil {
		return nil, err
	}
	s.state = state

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordBuildLocked() {
		s.commitLocked(ctx)
	}
	return s, nil
}

func (s *Store) load(ctx context.Context, cloud schema.CloudConfig) (schema.GlobalState, error) {
	if s.boundary == nil {
		return schema.NewGlobalState(cloud), nil
	}
	blob, err := s.boundary.Load(ctx)
	if errors.Is(err, ErrNoState) {
		s.log.Info(ctx, "no persisted state, starting empty")
		return schema.NewGlobalState(cloud), nil
	}
	if err != nil {
		return schema.GlobalState{}, fmt.Errorf("loading state: %w", err)
	}

	var state schema.GlobalState
	if err := json.Unmarshal(blob, &state); err != nil {
		return schema.GlobalState{}, fmt.Errorf("decoding state: %w", err)
	}
	if state.Accounts == nil {
		state.Accounts = map[string]schema.Account{}
	}
	if state.UserStores == nil {
		state.UserStores = map[string]schema.UserStore{}
	}
	return state, nil
}

// recordBuildLocked appends a system log entry when the running build differs
// from the last one recorded. It MUST be called while holding s.mu.
func (s *Store) recordBuildLocked() bool {
	if s.build == "" {
		return false
	}
	logs := s.state.SystemLogs
	if n := len(logs); n > 0 && logs[n-1].Build == s.build {
		return false
	}
	logs = append(logs, schema.SystemLog{
		Build:     s.build,
		Timestamp: s.now(),
		Message:   fmt.Sprintf("store opened with build %s", s.build),
	})
	if len(logs) > schema.MaxSystemLogs {
		logs = append([]schema.SystemLog(nil), logs[len(logs)-schema.MaxSystemLogs:]...)
	}
	s.state.SystemLogs = logs
	return true
}

// commitLocked serializes the whole state and writes it in the background.
// It MUST be called while holding s.mu. Writes are last-write-wins: a write
// that finishes after a newer one has landed is dropped.
func (s *Store) commitLocked(ctx context.Context) {
	if s.boundary == nil {
		return
	}
	blob, err := json.Marshal(s.state)
	if err != nil {
		s.log.Error(ctx, "failed to encode state", err)
		return
	}
	s.seq++
	seq := s.seq

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		if seq <= s.saved {
			return
		}
		if err := s.boundary.Save(context.WithoutCancel(ctx), blob); err != nil {
			s.log.Error(ctx, "failed to persist state", err)
			return
		}
		s.saved = seq
	}()
}

// Wait waits for all background persistence tasks to complete.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Build returns the code version stamped on new snapshots.
func (s *Store) Build() string {
	return s.build
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() schema.GlobalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// SystemLogs returns the recorded build history, oldest first.
func (s *Store) SystemLogs() []schema.SystemLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.SystemLog(nil), s.state.SystemLogs...)
}

// activeLocked returns the current username and a working copy of its store.
// It MUST be called while holding s.mu.
func (s *Store) activeLocked() (string, schema.UserStore, error) {
	username := s.state.CurrentUser
	if username == "" {
		return "", schema.UserStore{}, ErrNoSession
	}
	us, ok := s.state.UserStores[username]
	if !ok {
		return "", schema.UserStore{}, fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}
	return username, us, nil
}

// mutate runs fn against the active account's store and persists the result
// when fn succeeds. fn must leave the store untouched when it fails.
func (s *Store) mutate(ctx context.Context, kind string, fn func(us *schema.UserStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, us, err := s.activeLocked()
	if err == nil {
		err = fn(&us)
	}
	s.metrics.Mutation(kind, err)
	if err != nil {
		return err
	}
	s.state.UserStores[username] = us
	s.commitLocked(ctx)
	return nil
}

// view runs fn against a deep copy of the active account's store.
func (s *Store) view(fn func(username string, us schema.UserStore)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, us, err := s.activeLocked()
	if err != nil {
		return err
	}
	fn(username, us.Clone())
	return nil
}
