package sdk

import "github.com/celerix-dev/celerix-pantry/pkg/schema"

// New builds a client from the persisted cloud settings.
// It returns ErrNotConfigured until both the endpoint and the key are set.
func New(cfg schema.CloudConfig, opts ...Option) (RemoteStore, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	return NewClient(cfg.Endpoint, cfg.CredentialKey, opts...), nil
}
