package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/liveredirect/cache"
	"github.com/briangreenhill/liveredirect/internal/candidate"
	appmw "github.com/briangreenhill/liveredirect/internal/http/middleware"
	"github.com/briangreenhill/liveredirect/internal/resolve"
)

// Resolver is the part of resolve.Resolver the routes use
type Resolver interface {
	Resolve(ctx context.Context, cands []candidate.Candidate) (string, error)
	ClearCache() cache.ClearResult
	CacheStats() map[string]int
}

type Server struct {
	Router   *chi.Mux
	Resolver Resolver
	Parser   *candidate.Parser
}

type ServerOptions struct {
	Resolver   Resolver
	Parser     *candidate.Parser // nil means candidate.DefaultKeys
	Logger     zerolog.Logger
	AdminToken string
}

func New(opts ServerOptions) *Server {
	if opts.Parser == nil {
		opts.Parser = candidate.NewParser(nil)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(requestIDToLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Resolver: opts.Resolver, Parser: opts.Parser}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	for _, path := range []string{"/", "/live"} {
		r.Get(path, s.handleRedirect)
		r.Head(path, s.handleRedirect)
	}

	r.Group(func(ar chi.Router) {
		ar.Use(appmw.RequireToken(opts.AdminToken))
		ar.Get("/cache", s.handleCacheStats)
		ar.Post("/cache/clear", s.handleCacheClear)
		ar.Delete("/cache", s.handleCacheClear)
	})

	return s
}

func requestIDToLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

type errorResponse struct {
	Error string `json:"error"`
}

type clearResponse struct {
	Cleared bool   `json:"cleared"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}

// handleRedirect sends the caller to the first live manifest among the
// candidates in the query string. The raw query is parsed by hand because
// candidate order matters.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	cands := s.Parser.Parse(r.URL.RawQuery)

	manifest, err := s.Resolver.Resolve(r.Context(), cands)
	switch {
	case err == nil:
		http.Redirect(w, r, manifest, http.StatusFound)
	case errors.Is(err, resolve.ErrNoCandidates):
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "no candidates given"})
	case errors.Is(err, resolve.ErrNoStream):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "no stream found"})
	case errors.Is(err, context.Canceled):
		hlog.FromRequest(r).Debug().Msg("client went away during resolve")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("resolve failed")
		writeJSON(w, r, http.StatusGatewayTimeout, errorResponse{Error: "resolve failed"})
	}
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	res := s.Resolver.ClearCache()
	hlog.FromRequest(r).Info().Stringer("result", res).Msg("cache clear requested")
	writeJSON(w, r, http.StatusOK, clearResponse{
		Cleared: res == cache.Cleared,
		Message: res.String(),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Resolver.CacheStats())
}
