// Package history captures and restores point-in-time copies of an account's AppData.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/google/uuid"
)

// MaxVersions is how many snapshots a UserStore keeps. Older ones are dropped.
const MaxVersions = 10

// TagPrefix is prepended to the version counter to form a version tag.
const TagPrefix = "v1.0."

// ErrVersionNotFound is returned when no snapshot matches an id or tag.
var ErrVersionNotFound = errors.New("version not found")

// History operates on the snapshot list of one UserStore.
// It is not safe for concurrent use.
type History struct {
	store *schema.UserStore
}

// New binds a History to store.
func New(store *schema.UserStore) *History {
	return &History{store: store}
}

// Capture deep-copies the live data into a new snapshot and returns it.
// The version counter is consumed even when the oldest snapshot gets evicted.
func (h *History) Capture(description, codeVersion string, now time.Time) schema.DataVersion {
	h.store.VersionCounter++
	v := schema.DataVersion{
		ID:          snapshotID(),
		VersionTag:  Tag(h.store.VersionCounter),
		Timestamp:   now.UTC(),
		Description: description,
		Data:        h.store.Current.Clone(),
		CodeVersion: codeVersion,
	}

	list := make([]schema.DataVersion, 0, min(len(h.store.History)+1, MaxVersions))
	list = append(list, v)
	for _, old := range h.store.History {
		if len(list) == MaxVersions {
			break
		}
		list = append(list, old)
	}
	h.store.History = list
	return v.Clone()
}

// Restore overwrites the live data with a copy of v.Data.
// No schema migration is attempted; fields unknown to v stay at their zero value.
func (h *History) Restore(v schema.DataVersion) schema.AppData {
	h.store.Current = v.Data.Clone()
	return h.store.Current.Clone()
}

// Find looks a snapshot up by id or version tag.
func (h *History) Find(ref string) (schema.DataVersion, error) {
	for _, v := range h.store.History {
		if v.ID == ref || v.VersionTag == ref {
			return v.Clone(), nil
		}
	}
	return schema.DataVersion{}, fmt.Errorf("%w: %s", ErrVersionNotFound, ref)
}

// List returns copies of the snapshots, newest first.
func (h *History) List() []schema.DataVersion {
	out := make([]schema.DataVersion, len(h.store.History))
	for i, v := range h.store.History {
		out[i] = v.Clone()
	}
	return out
}

// Tag formats a version counter value.
func Tag(counter int) string {
	return fmt.Sprintf("%s%d", TagPrefix, counter)
}

func snapshotID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
