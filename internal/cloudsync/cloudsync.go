// Package cloudsync reconciles the active account's UserStore with the remote
// app_state resource. The remote copy is always replaced whole; the last push wins.
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/engine"
	"github.com/celerix-dev/celerix-pantry/internal/logger"
	"github.com/celerix-dev/celerix-pantry/internal/metrics"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/celerix-dev/celerix-pantry/pkg/sdk"
)

// PushDescription is the description stamped on the snapshot taken before every push.
const PushDescription = "pre-sync snapshot"

var (
	// ErrNotConfigured is returned while the endpoint or the credential key is missing.
	ErrNotConfigured = sdk.ErrNotConfigured
	// ErrNoRemoteData is returned by Pull when the remote holds nothing for the account.
	ErrNoRemoteData = errors.New("no remote data yet")
)

// RemoteFactory builds the remote client for the current cloud settings.
type RemoteFactory func(cfg schema.CloudConfig) (sdk.RemoteStore, error)

// Options configures New.
type Options struct {
	// Remote overrides how clients are built. Defaults to sdk.New.
	Remote     RemoteFactory
	HTTPClient *http.Client
	Logger     *logger.Logger
	Metrics    *metrics.Recorder
}

// PushResult describes a successful push.
type PushResult struct {
	Username string
	Version  schema.DataVersion
	SyncedAt time.Time
}

// Engine runs push and pull for the store's active account.
// Calls are never retried and carry no timeout beyond the transport's.
type Engine struct {
	store   *engine.Store
	remote  RemoteFactory
	log     *logger.Logger
	metrics *metrics.Recorder
	wg      sync.WaitGroup
}

func New(store *engine.Store, opts Options) *Engine {
	e := &Engine{
		store:   store,
		remote:  opts.Remote,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	if e.remote == nil {
		var sdkOpts []sdk.Option
		if opts.HTTPClient != nil {
			sdkOpts = append(sdkOpts, sdk.WithHTTPClient(opts.HTTPClient))
		}
		e.remote = func(cfg schema.CloudConfig) (sdk.RemoteStore, error) {
			return sdk.New(cfg, sdkOpts...)
		}
	}
	return e
}

func (e *Engine) client() (sdk.RemoteStore, error) {
	cfg := e.store.CloudConfig()
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	return e.remote(cfg)
}

// Push captures the live data locally, then uploads the whole UserStore.
// When the upload fails the local capture stays and nothing else changes.
func (e *Engine) Push(ctx context.Context) (PushResult, error) {
	res, err := e.push(ctx)
	e.metrics.Sync("push", err)
	return res, err
}

func (e *Engine) push(ctx context.Context) (PushResult, error) {
	remote, err := e.client()
	if err != nil {
		return PushResult{}, err
	}

	username, version, us, err := e.store.CaptureForSync(ctx, PushDescription)
	if err != nil {
		return PushResult{}, err
	}
	ctx = e.log.WithUsername(ctx, username)

	at := e.store.Now().UTC()
	row := sdk.AppStateRow{Username: username, State: us, UpdatedAt: at}
	if err := remote.Upsert(ctx, row); err != nil {
		e.log.Warn(ctx, "push failed", err)
		return PushResult{}, fmt.Errorf("push %s: %w", username, err)
	}

	e.store.MarkSynced(ctx, at, version.VersionTag)
	e.log.Info(e.log.WithField(ctx, "version_tag", version.VersionTag), "pushed to cloud")
	return PushResult{Username: username, Version: version, SyncedAt: at}, nil
}

// Pull replaces the active account's UserStore with the remote copy.
// It returns ErrNoRemoteData when there is nothing to pull, leaving local data alone.
func (e *Engine) Pull(ctx context.Context) (schema.UserStore, error) {
	us, err := e.pull(ctx)
	if errors.Is(err, ErrNoRemoteData) {
		e.metrics.Sync("pull", nil)
	} else {
		e.metrics.Sync("pull", err)
	}
	return us, err
}

func (e *Engine) pull(ctx context.Context) (schema.UserStore, error) {
	remote, err := e.client()
	if err != nil {
		return schema.UserStore{}, err
	}
	username, err := e.store.ActiveUsername()
	if err != nil {
		return schema.UserStore{}, err
	}
	ctx = e.log.WithUsername(ctx, username)

	row, err := remote.Fetch(ctx, username)
	if errors.Is(err, sdk.ErrRowNotFound) {
		return schema.UserStore{}, ErrNoRemoteData
	}
	if err != nil {
		return schema.UserStore{}, fmt.Errorf("pull %s: %w", username, err)
	}

	state := normalize(row.State)
	if err := e.store.ReplaceUserStore(ctx, username, state); err != nil {
		return schema.UserStore{}, err
	}
	e.log.Info(ctx, "pulled from cloud")
	return state.Clone(), nil
}

// AutoPull is the post-login pull. It does nothing without credentials and
// never reports an error; failures are only logged.
func (e *Engine) AutoPull(ctx context.Context) {
	if !e.store.CloudConfig().Configured() {
		return
	}
	_, err := e.Pull(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoRemoteData):
		e.log.Info(ctx, "auto pull: no remote data yet")
	default:
		e.log.Warn(ctx, "auto pull failed", err)
	}
}

// StartAutoPull runs AutoPull in the background. The request context's
// cancellation does not stop it.
func (e *Engine) StartAutoPull(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.AutoPull(ctx)
	}()
}

// Wait blocks until background pulls have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// normalize fills the collections a remote document may omit.
func normalize(us schema.UserStore) schema.UserStore {
	if us.Current.Inventory == nil {
		us.Current.Inventory = map[string]schema.InventoryItem{}
	}
	if us.Current.Transactions == nil {
		us.Current.Transactions = []schema.Transaction{}
	}
	if us.Current.ExchangeRate <= 0 {
		us.Current.ExchangeRate = schema.DefaultExchangeRate
	}
	if us.History == nil {
		us.History = []schema.DataVersion{}
	}
	return us
}
