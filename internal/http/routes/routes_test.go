package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/liveredirect/cache"
	"github.com/briangreenhill/liveredirect/internal/candidate"
	"github.com/briangreenhill/liveredirect/internal/resolve"
)

type fakeResolver struct {
	manifest string
	err      error
	cleared  cache.ClearResult
	got      []candidate.Candidate
}

func (f *fakeResolver) Resolve(_ context.Context, cands []candidate.Candidate) (string, error) {
	f.got = cands
	if len(cands) == 0 {
		return "", resolve.ErrNoCandidates
	}
	return f.manifest, f.err
}

func (f *fakeResolver) ClearCache() cache.ClearResult { return f.cleared }

func (f *fakeResolver) CacheStats() map[string]int {
	return map[string]int{"streams": 1, "lookups": 2}
}

func newServer(res Resolver, token string) *Server {
	return New(ServerOptions{Resolver: res, Logger: zerolog.Nop(), AdminToken: token})
}

func serve(s *Server, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(newServer(&fakeResolver{}, ""), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRedirectFound(t *testing.T) {
	res := &fakeResolver{manifest: "https://cdn.example/live.m3u8"}
	s := newServer(res, "")

	for _, path := range []string{"/", "/live"} {
		rec := serve(s, http.MethodGet, path+"?v=abc&c=@x")
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "https://cdn.example/live.m3u8", rec.Header().Get("Location"), path)
	}
	assert.Equal(t, []candidate.Candidate{
		{Kind: candidate.ByID, Value: "abc"},
		{Kind: candidate.ByHandle, Value: "@x"},
	}, res.got)
}

func TestRedirectHead(t *testing.T) {
	s := newServer(&fakeResolver{manifest: "https://cdn.example/live.m3u8"}, "")

	for _, path := range []string{"/", "/live"} {
		rec := serve(s, http.MethodHead, path+"?v=abc")
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "https://cdn.example/live.m3u8", rec.Header().Get("Location"), path)
	}
}

func TestRedirectNoStream(t *testing.T) {
	rec := serve(newServer(&fakeResolver{err: resolve.ErrNoStream}, ""), http.MethodGet, "/?v=abc")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"no stream found"}`, rec.Body.String())
}

func TestRedirectNoCandidates(t *testing.T) {
	rec := serve(newServer(&fakeResolver{}, ""), http.MethodGet, "/?junk=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheClear(t *testing.T) {
	tests := []struct {
		result cache.ClearResult
		want   string
	}{
		{cache.Cleared, `{"cleared":true,"message":"cache cleared"}`},
		{cache.NothingToClear, `{"cleared":false,"message":"nothing to clear"}`},
	}

	for _, tt := range tests {
		s := newServer(&fakeResolver{cleared: tt.result}, "")
		for _, req := range [][2]string{{http.MethodPost, "/cache/clear"}, {http.MethodDelete, "/cache"}} {
			rec := serve(s, req[0], req[1])
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		}
	}
}

func TestCacheStats(t *testing.T) {
	rec := serve(newServer(&fakeResolver{}, ""), http.MethodGet, "/cache")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, map[string]int{"streams": 1, "lookups": 2}, stats)
}

func TestCacheRoutesRequireToken(t *testing.T) {
	s := newServer(&fakeResolver{cleared: cache.Cleared}, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodPost, "/cache/clear").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodGet, "/cache").Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodPost, "/cache/clear", "Authorization", "Bearer s3cret").Code)

	// the redirect stays public
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/").Code)
}

type stubUpstream struct {
	ids       map[string]string
	manifests map[string]string
}

func (u stubUpstream) ResolveID(_ context.Context, liveURL string) (string, error) {
	return u.ids[liveURL], nil
}

func (u stubUpstream) FetchManifest(_ context.Context, id string) (string, error) {
	return u.manifests[id], nil
}

type noStreams struct{}

func (noStreams) Validate(context.Context, string) mo.Option[string] { return mo.None[string]() }

func TestRedirectThroughResolver(t *testing.T) {
	streams := cache.NewTTLStore[resolve.Result](time.Minute)
	lookups, err := cache.NewLRUStore[resolve.Result](16)
	require.NoError(t, err)

	up := stubUpstream{
		ids:       map[string]string{"https://www.youtube.com/@x/live": "xyz"},
		manifests: map[string]string{"xyz": "https://m/xyz.m3u8"},
	}
	r := resolve.New(up, noStreams{}, streams, lookups, resolve.Options{})
	s := newServer(r, "")

	rec := serve(s, http.MethodGet, "/?v=abc&c=@x")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://m/xyz.m3u8", rec.Header().Get("Location"))

	rec = serve(s, http.MethodPost, "/cache/clear")
	assert.JSONEq(t, `{"cleared":true,"message":"cache cleared"}`, rec.Body.String())

	rec = serve(s, http.MethodPost, "/cache/clear")
	assert.JSONEq(t, `{"cleared":false,"message":"nothing to clear"}`, rec.Body.String())
}
