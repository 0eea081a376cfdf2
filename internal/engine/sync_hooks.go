package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/history"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
)

// CaptureForSync takes a snapshot of the active account and returns it with a
// deep copy of the whole UserStore, both taken under one lock so the copy
// contains the snapshot and nothing newer.
func (s *Store) CaptureForSync(ctx context.Context, description string) (string, schema.DataVersion, schema.UserStore, error) {
	var (
		username string
		v        schema.DataVersion
		copied   schema.UserStore
	)
	err := s.mutate(ctx, "capture", func(us *schema.UserStore) error {
		username = s.state.CurrentUser
		v = history.New(us).Capture(description, s.build, s.now())
		copied = us.Clone()
		return nil
	})
	return username, v, copied, err
}

// ActiveUsername returns the logged-in username.
func (s *Store) ActiveUsername() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CurrentUser == "" {
		return "", ErrNoSession
	}
	return s.state.CurrentUser, nil
}

// UserStore returns a deep copy of the store owned by username.
func (s *Store) UserStore(username string) (schema.UserStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	us, ok := s.state.UserStores[username]
	if !ok {
		return schema.UserStore{}, fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}
	return us.Clone(), nil
}

// ReplaceUserStore overwrites the store owned by username wholesale.
func (s *Store) ReplaceUserStore(ctx context.Context, username string, us schema.UserStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Accounts[username]; !ok {
		s.metrics.Mutation("replace", ErrAccountNotFound)
		return fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}
	s.state.UserStores[username] = us.Clone()
	s.metrics.Mutation("replace", nil)
	s.commitLocked(ctx)
	return nil
}

// CloudConfig returns the sync settings.
func (s *Store) CloudConfig() schema.CloudConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone().CloudConfig
}

// SetCloudConfig changes the endpoint and credential key. Sync bookkeeping is kept.
func (s *Store) SetCloudConfig(ctx context.Context, endpoint, credentialKey string) schema.CloudConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CloudConfig.Endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	s.state.CloudConfig.CredentialKey = strings.TrimSpace(credentialKey)
	s.commitLocked(ctx)
	return s.state.Clone().CloudConfig
}

// MarkSynced records a successful push.
func (s *Store) MarkSynced(ctx context.Context, at time.Time, versionTag string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at = at.UTC()
	s.state.CloudConfig.LastSyncedAt = &at
	s.state.CloudConfig.LastSyncedVersion = versionTag
	s.commitLocked(ctx)
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}
