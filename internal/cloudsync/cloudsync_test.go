package cloudsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/celerix-dev/celerix-pantry/internal/engine"
	"github.com/celerix-dev/celerix-pantry/internal/ledger"
	"github.com/celerix-dev/celerix-pantry/internal/metrics"
	"github.com/celerix-dev/celerix-pantry/internal/server"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/celerix-dev/celerix-pantry/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteKey = "anon"

var catalog = []schema.Product{
	{ID: "P1", Name: "Vitamin C", Category: "Supplements", DefaultPrice: 20, Currency: schema.CurrencyAUD},
}

func startRemote(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ts := httptest.NewServer(server.NewRouter(server.NewMemRepository(), remoteKey, nil).Engine("/rest/v1"))
	t.Cleanup(ts.Close)
	return ts.URL + "/rest/v1"
}

func device(t *testing.T, endpoint, key string) *engine.Store {
	t.Helper()
	s, err := engine.Open(context.Background(), engine.Options{
		Catalog: catalog,
		Build:   "test",
		Cloud:   schema.CloudConfig{Endpoint: endpoint, CredentialKey: key},
	})
	require.NoError(t, err)
	t.Cleanup(s.Wait)
	return s
}

func TestPushThenPullOnAnotherDevice(t *testing.T) {
	ctx := context.Background()
	endpoint := startRemote(t)
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	laptop := device(t, endpoint, remoteKey)
	_, err := laptop.Register(ctx, "alice", "pw", "Alice")
	require.NoError(t, err)
	_, err = laptop.RecordInbound(ctx, ledger.Inbound{ProductID: "P1", Quantity: 5, UnitPrice: 3, Method: schema.InboundPurchase, Date: "2024-01-01"})
	require.NoError(t, err)

	res, err := New(laptop, Options{Metrics: rec}).Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, "v1.0.1", res.Version.VersionTag)
	assert.Equal(t, PushDescription, res.Version.Description)

	cfg := laptop.CloudConfig()
	require.NotNil(t, cfg.LastSyncedAt)
	assert.Equal(t, "v1.0.1", cfg.LastSyncedVersion)

	pushed, err := laptop.UserStore("alice")
	require.NoError(t, err)

	phone := device(t, endpoint, remoteKey)
	_, err = phone.Register(ctx, "alice", "pw", "Alice")
	require.NoError(t, err)

	pulled, err := New(phone, Options{Metrics: rec}).Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, pushed, pulled)

	local, err := phone.UserStore("alice")
	require.NoError(t, err)
	assert.Equal(t, pushed, local)

	series, err := testutil.GatherAndCount(reg, "pantry_sync_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "push/ok and pull/ok")
}

func TestPullWithoutRemoteData(t *testing.T) {
	ctx := context.Background()
	s := device(t, startRemote(t), remoteKey)
	_, err := s.Register(ctx, "bob", "pw", "")
	require.NoError(t, err)
	before := s.Snapshot()

	_, err = New(s, Options{}).Pull(ctx)
	assert.ErrorIs(t, err, ErrNoRemoteData)
	assert.Equal(t, before.UserStores, s.Snapshot().UserStores)
}

func TestPushRejectedLeavesOnlyTheCapture(t *testing.T) {
	ctx := context.Background()
	s := device(t, startRemote(t), "wrong-key")
	_, err := s.Register(ctx, "carol", "pw", "")
	require.NoError(t, err)

	_, err = New(s, Options{}).Push(ctx)
	require.Error(t, err)

	var te *sdk.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)

	us, err := s.UserStore("carol")
	require.NoError(t, err)
	assert.Equal(t, 1, us.VersionCounter, "local capture is kept")
	cfg := s.CloudConfig()
	assert.Nil(t, cfg.LastSyncedAt)
	assert.Empty(t, cfg.LastSyncedVersion)
}

func TestPullFailureLeavesLocalUntouched(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"relation does not exist"}`, http.StatusNotFound)
	}))
	defer ts.Close()

	s := device(t, ts.URL, remoteKey)
	_, err := s.Register(ctx, "dave", "pw", "")
	require.NoError(t, err)
	before := s.Snapshot()

	_, err = New(s, Options{}).Pull(ctx)
	var te *sdk.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, before.UserStores, s.Snapshot().UserStores)
}

func TestNotConfigured(t *testing.T) {
	ctx := context.Background()
	s := device(t, "", "")
	_, err := s.Register(ctx, "erin", "pw", "")
	require.NoError(t, err)

	e := New(s, Options{})
	_, err = e.Push(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = e.Pull(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	us, err := s.UserStore("erin")
	require.NoError(t, err)
	assert.Zero(t, us.VersionCounter, "nothing is captured without credentials")
}

func TestNoSession(t *testing.T) {
	s := device(t, startRemote(t), remoteKey)
	_, err := New(s, Options{}).Push(context.Background())
	assert.ErrorIs(t, err, engine.ErrNoSession)
}

type failingRemote struct{ calls int }

func (f *failingRemote) Fetch(context.Context, string) (sdk.AppStateRow, error) {
	f.calls++
	return sdk.AppStateRow{}, &sdk.TransportError{Op: "fetch", Err: errors.New("connection refused")}
}

func (f *failingRemote) Upsert(context.Context, sdk.AppStateRow) error {
	return errors.New("unused")
}

func TestAutoPullSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	s := device(t, "http://remote.invalid", remoteKey)
	_, err := s.Register(ctx, "frank", "pw", "")
	require.NoError(t, err)

	remote := &failingRemote{}
	e := New(s, Options{Remote: func(schema.CloudConfig) (sdk.RemoteStore, error) { return remote, nil }})

	ctx, cancel := context.WithCancel(ctx)
	e.StartAutoPull(ctx)
	cancel()
	e.Wait()

	assert.Equal(t, 1, remote.calls, "exactly one attempt, no retry")
	_, err = s.AppData()
	assert.NoError(t, err, "the ledger stays usable")
}

func TestAutoPullSkipsWithoutCredentials(t *testing.T) {
	s := device(t, "http://remote.invalid", "")
	remote := &failingRemote{}
	e := New(s, Options{Remote: func(schema.CloudConfig) (sdk.RemoteStore, error) { return remote, nil }})

	e.AutoPull(context.Background())
	assert.Zero(t, remote.calls)
}
