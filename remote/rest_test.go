// ABOUTME: Tests for the REST survey store
// ABOUTME: Serves OAuth2 tokens and the survey API from httptest
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/records"
)

// fakeAPI serves a token endpoint and the site-surveys collection backed by a MemoryStore.
func fakeAPI(t *testing.T, tokenRequests *atomic.Int32) *httptest.Server {
	t.Helper()
	mem := NewMemoryStore()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/api/organizations/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing token"}`))
			return
		}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/organizations/"), "/")
		org := parts[0]

		write := func(rec records.SurveyRecord, err error) {
			switch {
			case errors.Is(err, records.ErrNotFound):
				w.WriteHeader(http.StatusNotFound)
			case errors.Is(err, ErrConflict):
				w.WriteHeader(http.StatusConflict)
			case err != nil:
				w.WriteHeader(http.StatusInternalServerError)
			default:
				_ = json.NewEncoder(w).Encode(rec)
			}
		}

		switch {
		case r.Method == http.MethodPost && len(parts) == 2:
			var rec records.SurveyRecord
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			if rec.SiteAddress == nil {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"message":"site address is required"}`))
				return
			}
			write(mem.Create(r.Context(), org, rec))
		case r.Method == http.MethodGet && len(parts) == 3:
			write(mem.Get(r.Context(), org, parts[2]))
		case r.Method == http.MethodPut && len(parts) == 3:
			var rec records.SurveyRecord
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			write(mem.Update(r.Context(), org, rec))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return httptest.NewServer(mux)
}

func newTestREST(t *testing.T, srv *httptest.Server, tokenPath string) *RESTStore {
	t.Helper()
	s, err := NewRESTStore(context.Background(), config.RemoteConfig{
		Driver:       config.DriverREST,
		BaseURL:      srv.URL + "/api/",
		TokenURL:     srv.URL + "/token",
		ClientID:     "device",
		ClientSecret: "secret",
	}, WithTokenCachePath(tokenPath), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return s
}

func TestRESTStoreRoundTrip(t *testing.T) {
	var tokens atomic.Int32
	srv := fakeAPI(t, &tokens)
	defer srv.Close()
	ctx := context.Background()

	s := newTestREST(t, srv, filepath.Join(t.TempDir(), "token.json"))

	created, err := s.Create(ctx, "org-1", sampleRecord("s1"))
	require.NoError(t, err)
	assert.Equal(t, "s1", created.ID)

	got, err := s.Get(ctx, "org-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "12 Elm St", *got.SiteAddress)

	got.Status = records.StatusSubmitted
	updated, err := s.Update(ctx, "org-1", got)
	require.NoError(t, err)
	assert.Equal(t, records.StatusSubmitted, updated.Status)

	_, err = s.Get(ctx, "org-1", "missing")
	assert.ErrorIs(t, err, records.ErrNotFound)

	_, err = s.Create(ctx, "org-1", sampleRecord("s1"))
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, int32(1), tokens.Load(), "token reused across calls")
}

func TestRESTStoreSurfacesRemoteMessage(t *testing.T) {
	var tokens atomic.Int32
	srv := fakeAPI(t, &tokens)
	defer srv.Close()

	s := newTestREST(t, srv, filepath.Join(t.TempDir(), "token.json"))
	rec := sampleRecord("s2")
	rec.SiteAddress = nil

	_, err := s.Create(context.Background(), "org-1", rec)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "site address is required", apiErr.Error())
}

func TestRESTStoreCachesTokenOnDisk(t *testing.T) {
	var tokens atomic.Int32
	srv := fakeAPI(t, &tokens)
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "token.json")

	first := newTestREST(t, srv, path)
	_, err := first.Create(context.Background(), "org-1", sampleRecord("s1"))
	require.NoError(t, err)

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)

	second := newTestREST(t, srv, path)
	_, err = second.Get(context.Background(), "org-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokens.Load(), "second store used the cached token")
}

func TestRESTUpdateWithoutID(t *testing.T) {
	var tokens atomic.Int32
	srv := fakeAPI(t, &tokens)
	defer srv.Close()

	s := newTestREST(t, srv, filepath.Join(t.TempDir(), "token.json"))
	_, err := s.Update(context.Background(), "org-1", sampleRecord(""))
	assert.ErrorIs(t, err, records.ErrNotFound)
}
