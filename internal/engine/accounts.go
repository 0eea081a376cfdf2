package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
)

var avatarPalette = []string{"blue", "emerald", "purple", "orange", "rose"}

func avatarFor(username string) string {
	h := fnv.New32a()
	h.Write([]byte(username))
	return avatarPalette[h.Sum32()%uint32(len(avatarPalette))]
}

// Register creates an account with a ledger seeded from the catalog and logs it in.
func (s *Store) Register(ctx context.Context, username, secret, displayName string) (schema.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return schema.Account{}, ErrInvalidUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Accounts[username]; ok {
		return schema.Account{}, fmt.Errorf("%w: %s", ErrAlreadyExists, username)
	}
	if displayName == "" {
		displayName = username
	}

	account := schema.Account{
		Username:         username,
		CredentialSecret: secret,
		DisplayName:      displayName,
		AvatarTag:        avatarFor(username),
	}
	s.state.Accounts[username] = account
	s.state.UserStores[username] = schema.UserStore{
		Current: schema.NewAppData(s.catalog),
		History: []schema.DataVersion{},
	}
	s.state.CurrentUser = username
	s.commitLocked(ctx)

	s.log.Info(s.log.WithUsername(ctx, username), "account registered")
	return account, nil
}

// Login starts a session when secret matches the account's secret exactly.
func (s *Store) Login(ctx context.Context, username, secret string) (schema.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.state.Accounts[username]
	if !ok || account.CredentialSecret != secret {
		return schema.Account{}, ErrInvalidCredential
	}
	if _, ok := s.state.UserStores[username]; !ok {
		s.state.UserStores[username] = schema.UserStore{
			Current: schema.NewAppData(s.catalog),
			History: []schema.DataVersion{},
		}
	}
	s.state.CurrentUser = username
	s.commitLocked(ctx)
	return account, nil
}

// Logout ends the session. Accounts and their stores are kept.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentUser == "" {
		return
	}
	s.state.CurrentUser = ""
	s.commitLocked(ctx)
}

// CurrentAccount returns the logged-in account.
func (s *Store) CurrentAccount() (schema.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.CurrentUser == "" {
		return schema.Account{}, ErrNoSession
	}
	account, ok := s.state.Accounts[s.state.CurrentUser]
	if !ok {
		return schema.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, s.state.CurrentUser)
	}
	return account, nil
}

// Accounts lists every account, for the profile picker.
func (s *Store) Accounts() []schema.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]schema.Account, 0, len(s.state.Accounts))
	for _, a := range s.state.Accounts {
		list = append(list, a)
	}
	return list
}
