package sdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/celerix-dev/celerix-pantry/internal/server"
	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/celerix-dev/celerix-pantry/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-key"

func startRemote(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ts := httptest.NewServer(server.NewRouter(server.NewMemRepository(), apiKey, nil).Engine("/rest/v1"))
	t.Cleanup(ts.Close)
	return ts
}

func sampleStore() schema.UserStore {
	data := schema.NewAppData([]schema.Product{
		{ID: "0101", Name: "Formula", Category: "Milk", DefaultPrice: 30, Currency: schema.CurrencyAUD},
	})
	return schema.UserStore{
		Current: data,
		History: []schema.DataVersion{{
			ID:          "v-1",
			VersionTag:  "v1.0.1",
			Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Description: "pre-sync snapshot",
			Data:        data.Clone(),
			CodeVersion: "test",
		}},
		VersionCounter: 1,
	}
}

func TestClientRoundTrip(t *testing.T) {
	ts := startRemote(t)
	client := sdk.NewClient(ts.URL+"/rest/v1/", apiKey)
	ctx := context.Background()

	_, err := client.Fetch(ctx, "alice")
	require.ErrorIs(t, err, sdk.ErrRowNotFound)

	row := sdk.AppStateRow{
		Username:  "alice",
		State:     sampleStore(),
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, client.Upsert(ctx, row))

	got, err := client.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, row.Username, got.Username)
	assert.Equal(t, row.State, got.State)
	assert.True(t, row.UpdatedAt.Equal(got.UpdatedAt))

	_, err = client.Fetch(ctx, "bob")
	assert.ErrorIs(t, err, sdk.ErrRowNotFound)
}

func TestClientRejectedKey(t *testing.T) {
	ts := startRemote(t)
	client := sdk.NewClient(ts.URL+"/rest/v1", "wrong")

	err := client.Upsert(context.Background(), sdk.AppStateRow{Username: "alice", State: sampleStore()})
	require.Error(t, err)

	var te *sdk.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "upsert", te.Op)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Contains(t, te.Body, "Invalid API key")
}

func TestClientMissingTable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"relation \"public.app_state\" does not exist"}`))
	}))
	defer ts.Close()

	_, err := sdk.NewClient(ts.URL, apiKey).Fetch(context.Background(), "alice")

	var te *sdk.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.NotErrorIs(t, err, sdk.ErrRowNotFound)
}

func TestClientSendsHeaders(t *testing.T) {
	var seen http.Header
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		query = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	err := sdk.NewClient(ts.URL, apiKey).Upsert(context.Background(), sdk.AppStateRow{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, apiKey, seen.Get("apikey"))
	assert.Equal(t, "Bearer "+apiKey, seen.Get("Authorization"))
	assert.Contains(t, seen.Get("Prefer"), "resolution=merge-duplicates")
	assert.Equal(t, "on_conflict=username", query)
}

func TestClientNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := sdk.NewClient(url, apiKey).Fetch(context.Background(), "alice")

	var te *sdk.TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
	assert.Error(t, errors.Unwrap(err))
}

func TestNewRequiresConfiguration(t *testing.T) {
	_, err := sdk.New(schema.CloudConfig{Endpoint: "http://x"})
	assert.ErrorIs(t, err, sdk.ErrNotConfigured)

	remote, err := sdk.New(schema.CloudConfig{Endpoint: "http://x", CredentialKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, remote)
}
