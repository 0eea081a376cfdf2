package schema

import "time"

// MaxSystemLogs bounds GlobalState.SystemLogs.
const MaxSystemLogs = 20

// CloudConfig addresses the remote app_state resource.
type CloudConfig struct {
	Endpoint          string     `json:"endpoint"`
	CredentialKey     string     `json:"credential_key"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	LastSyncedVersion string     `json:"last_synced_version,omitempty"`
}

// Configured reports whether both the endpoint and the key are set.
func (c CloudConfig) Configured() bool {
	return c.Endpoint != "" && c.CredentialKey != ""
}

// SystemLog records a build the store has been opened with.
type SystemLog struct {
	Build     string    `json:"build"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// GlobalState is the whole persisted document.
type GlobalState struct {
	CurrentUser string               `json:"current_user,omitempty"`
	Accounts    map[string]Account   `json:"accounts"`
	UserStores  map[string]UserStore `json:"user_stores"`
	CloudConfig CloudConfig          `json:"cloud_config"`
	SystemLogs  []SystemLog          `json:"system_logs"`
}

// NewGlobalState returns an empty state with the given cloud defaults.
func NewGlobalState(cloud CloudConfig) GlobalState {
	return GlobalState{
		Accounts:    map[string]Account{},
		UserStores:  map[string]UserStore{},
		CloudConfig: cloud,
		SystemLogs:  []SystemLog{},
	}
}

// Clone returns a deep copy of the state.
func (g GlobalState) Clone() GlobalState {
	out := GlobalState{
		CurrentUser: g.CurrentUser,
		CloudConfig: g.CloudConfig,
	}
	if g.CloudConfig.LastSyncedAt != nil {
		at := *g.CloudConfig.LastSyncedAt
		out.CloudConfig.LastSyncedAt = &at
	}
	if g.Accounts != nil {
		out.Accounts = make(map[string]Account, len(g.Accounts))
		for k, v := range g.Accounts {
			out.Accounts[k] = v
		}
	}
	if g.UserStores != nil {
		out.UserStores = make(map[string]UserStore, len(g.UserStores))
		for k, v := range g.UserStores {
			out.UserStores[k] = v.Clone()
		}
	}
	if g.SystemLogs != nil {
		out.SystemLogs = make([]SystemLog, len(g.SystemLogs))
		copy(out.SystemLogs, g.SystemLogs)
	}
	return out
}
