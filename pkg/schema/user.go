// Package schema defines the data structures shared by the pantry engine, the sync client and the HTTP surfaces.
package schema

import "time"

// Account represents an authenticated identity.
// Exactly one UserStore exists per Account, keyed by Username.
type Account struct {
	Username         string `json:"username"`
	CredentialSecret string `json:"credential_secret"`
	DisplayName      string `json:"display_name"`
	AvatarTag        string `json:"avatar_tag"`
}

// UserStore is the (AppData, history, versionCounter) triple owned by one account.
// It is also the document exchanged with the remote app_state resource.
type UserStore struct {
	Current        AppData       `json:"current"`
	History        []DataVersion `json:"history"`
	VersionCounter int           `json:"version_counter"`
}

// DataVersion is an immutable snapshot of an account's AppData.
type DataVersion struct {
	ID          string    `json:"id"`
	VersionTag  string    `json:"version_tag"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Data        AppData   `json:"data"`
	CodeVersion string    `json:"code_version"`
}

// Clone returns a copy of the store that shares no maps or slices with s.
func (s UserStore) Clone() UserStore {
	out := UserStore{
		Current:        s.Current.Clone(),
		VersionCounter: s.VersionCounter,
	}
	if s.History != nil {
		out.History = make([]DataVersion, len(s.History))
		for i, v := range s.History {
			out.History[i] = v.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the version.
func (v DataVersion) Clone() DataVersion {
	v.Data = v.Data.Clone()
	return v
}
