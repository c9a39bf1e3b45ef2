// Package resolve walks a request's candidates in order and returns the first
// live manifest URL, memoizing every validation and upstream lookup.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/briangreenhill/liveredirect/cache"
	"github.com/briangreenhill/liveredirect/internal/candidate"
)

// Result is what one candidate contributed
type Result = mo.Option[string]

// Validator confirms a direct URL is live
type Validator interface {
	Validate(ctx context.Context, raw string) mo.Option[string]
}

// Options tune the resolver
type Options struct {
	// LiveBaseURL is the site handle live pages are built from
	LiveBaseURL string
	// UpstreamTimeout bounds each upstream call; zero means no bound
	UpstreamTimeout time.Duration
}

// Resolver is shared by every request; its caches are process-wide
type Resolver struct {
	streams  *cache.Memo[Result]
	videos   *cache.Memo[Result]
	handles  *cache.Memo[Result]
	liveBase string
	registry *cache.Registry
}

func isAbsent(r Result) bool { return r.IsAbsent() }

// New builds a resolver. streams should be time-bounded and holds validated
// direct URLs, with failures kept until they expire. lookups should be
// capacity-bounded and is shared by id resolution and manifest lookups under
// separate namespaces; absent results there are dropped so they are retried.
func New(up Upstream, v Validator, streams, lookups cache.Store[Result], opts Options) *Resolver {
	if opts.LiveBaseURL == "" {
		opts.LiveBaseURL = DefaultLiveBaseURL
	}

	lookupOpts := []cache.MemoOption[Result]{
		cache.KeepFailures[Result](false),
		cache.WithAbsent(isAbsent),
		cache.WithTimeout[Result](opts.UpstreamTimeout),
	}

	r := &Resolver{
		liveBase: opts.LiveBaseURL,
		registry: cache.NewRegistry(),
	}
	r.streams = cache.NewMemo(cache.Stream, streams, func(ctx context.Context, raw string) (Result, error) {
		return v.Validate(ctx, raw), nil
	})
	r.videos = cache.NewMemo(cache.Video, lookups, optional(up.FetchManifest), lookupOpts...)
	r.handles = cache.NewMemo(cache.Resolve, lookups, optional(up.ResolveID), lookupOpts...)

	r.registry.Register("streams", streams)
	r.registry.Register("lookups", lookups)
	return r
}

// optional adapts an upstream call to the present/absent result type
func optional(fn func(context.Context, string) (string, error)) cache.Func[Result] {
	return func(ctx context.Context, arg string) (Result, error) {
		s, err := fn(ctx, arg)
		if err != nil {
			return mo.None[string](), err
		}
		return mo.EmptyableToOption(s), nil
	}
}

// Resolve tries candidates strictly in order and returns the first manifest
// URL. Later candidates are never consulted once one succeeds. A failing
// candidate only costs its own slot.
func (r *Resolver) Resolve(ctx context.Context, cands []candidate.Candidate) (string, error) {
	if len(cands) == 0 {
		return "", ErrNoCandidates
	}

	log := zerolog.Ctx(ctx)
	for i, c := range cands {
		if got, ok := r.try(ctx, c).Get(); ok {
			log.Info().Int("candidate", i).Str("kind", c.Kind.String()).Msg("stream resolved")
			return got, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	log.Info().Int("candidates", len(cands)).Msg("no stream found")
	return "", ErrNoStream
}

func (r *Resolver) try(ctx context.Context, c candidate.Candidate) (out Result) {
	log := zerolog.Ctx(ctx).With().Str("kind", c.Kind.String()).Str("value", c.Value).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("candidate panicked")
			out = mo.None[string]()
		}
	}()

	if strings.TrimSpace(c.Value) == "" {
		log.Debug().Msg("empty candidate skipped")
		return mo.None[string]()
	}

	var err error
	switch c.Kind {
	case candidate.ByURL:
		out, err = r.streams.Get(ctx, c.Value)
	case candidate.ByID:
		out, err = r.videos.Get(ctx, c.Value)
	case candidate.ByHandle:
		out, err = r.byHandle(ctx, c.Value)
	default:
		err = fmt.Errorf("unknown candidate kind %d", c.Kind)
	}

	if err != nil {
		log.Warn().Err(err).Msg("candidate failed")
		return mo.None[string]()
	}
	if out.IsAbsent() {
		log.Debug().Msg("candidate yielded nothing")
	}
	return out
}

func (r *Resolver) byHandle(ctx context.Context, handle string) (Result, error) {
	id, err := r.handles.Get(ctx, LivePageURL(r.liveBase, handle))
	if err != nil {
		return mo.None[string](), fmt.Errorf("resolve %q: %w", handle, err)
	}
	v, ok := id.Get()
	if !ok {
		return mo.None[string](), nil
	}
	return r.videos.Get(ctx, v)
}

// ClearCache drops every cached validation and lookup
func (r *Resolver) ClearCache() cache.ClearResult {
	return r.registry.Clear()
}

// CacheStats returns the live entry count per store
func (r *Resolver) CacheStats() map[string]int {
	return r.registry.Stats()
}
