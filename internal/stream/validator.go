// Package stream checks that a direct manifest URL is reachable before a
// client is redirected to it.
package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goware/urlx"
	"github.com/rs/zerolog"
	"github.com/samber/mo"
)

const (
	// DefaultHeaderParam is the reserved query parameter carrying outbound
	// header instructions ("name:value,name2:value2")
	DefaultHeaderParam = "_headers"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	defaultTimeout   = 10 * time.Second
)

// Validator probes direct URLs
type Validator struct {
	http        *http.Client
	headerParam string
	userAgent   string
}

// Option configures a Validator
type Option func(*Validator)

// WithHTTPClient sets the client used for probes
func WithHTTPClient(h *http.Client) Option {
	return func(v *Validator) { v.http = h }
}

// WithHeaderParam sets the reserved header instruction parameter
func WithHeaderParam(name string) Option {
	return func(v *Validator) {
		if name != "" {
			v.headerParam = name
		}
	}
}

// WithUserAgent sets the User-Agent sent when the URL does not set one
func WithUserAgent(ua string) Option {
	return func(v *Validator) { v.userAgent = ua }
}

// NewValidator creates a validator with a 10s probe timeout by default
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		http:        &http.Client{Timeout: defaultTimeout},
		headerParam: DefaultHeaderParam,
		userAgent:   defaultUserAgent,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Target is a direct URL with its header instructions split out
type Target struct {
	URL     string
	Headers http.Header
}

// Prepare parses raw, extracts the header instructions and strips the
// reserved parameter from the URL.
func (v *Validator) Prepare(raw string) (Target, error) {
	u, err := urlx.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	headers := http.Header{}
	rest, instr := stripParam(u.RawQuery, v.headerParam)
	if len(instr) > 0 {
		for _, s := range instr {
			parseHeaders(s, headers)
		}
		u.RawQuery = rest
	}
	return Target{URL: u.String(), Headers: headers}, nil
}

// stripParam removes every occurrence of name from rawQuery and returns the
// remaining query, in its original order, plus the decoded removed values.
func stripParam(rawQuery, name string) (string, []string) {
	if rawQuery == "" {
		return "", nil
	}
	var (
		kept   []string
		values []string
	)
	for _, part := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == name {
			if v, err := url.QueryUnescape(value); err == nil {
				value = v
			}
			values = append(values, value)
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&"), values
}

// parseHeaders applies "name:value,name2:value2" to h. Items without a
// colon or with an empty name are skipped.
func parseHeaders(s string, h http.Header) {
	for _, item := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(item, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		h.Set(name, strings.TrimSpace(value))
	}
}

// Validate returns the cleaned URL if it answers with a status below 400.
// Probe failures are logged and reported as absent, never as errors.
func (v *Validator) Validate(ctx context.Context, raw string) mo.Option[string] {
	log := zerolog.Ctx(ctx)

	target, err := v.Prepare(raw)
	if err != nil {
		log.Warn().Err(err).Msg("invalid stream url")
		return mo.None[string]()
	}

	status, err := v.probe(ctx, http.MethodHead, target)
	if err != nil {
		// transport errors only; a status code answer is final
		log.Debug().Err(err).Str("url", target.URL).Msg("HEAD probe failed, retrying with GET")
		status, err = v.probe(ctx, http.MethodGet, target)
	}
	if err != nil {
		log.Warn().Err(err).Str("url", target.URL).Msg("stream probe failed")
		return mo.None[string]()
	}
	if status >= http.StatusBadRequest {
		log.Warn().Int("status", status).Str("url", target.URL).Msg("stream probe rejected")
		return mo.None[string]()
	}
	return mo.Some(target.URL)
}

func (v *Validator) probe(ctx context.Context, method string, target Target) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.URL, nil)
	if err != nil {
		return 0, err
	}
	for name, values := range target.Headers {
		req.Header[name] = values
	}
	if req.Header.Get("User-Agent") == "" && v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return 0, err
	}
	// a GET probe only needs the status line
	_, _ = io.CopyN(io.Discard, resp.Body, 512)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
