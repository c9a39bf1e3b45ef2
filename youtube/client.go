// Package youtube is a minimal scraping client that finds the current live
// video of a channel and the HLS manifest of a video.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

const DefaultBaseURL = "https://www.youtube.com"

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	// skips the EU consent interstitial
	consentCookie = "CONSENT=YES+cb; SOCS=CAI"
	maxPageBytes  = 8 << 20
)

// StatusError is returned for non-2xx page responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

type Client struct {
	http      *http.Client
	baseURL   *url.URL
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			c.baseURL = u
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		baseURL:   u,
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the site root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// WatchURL returns the watch page of a video
func (c *Client) WatchURL(id string) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, "/watch")
	u.RawQuery = url.Values{"v": {id}}.Encode()
	return u.String()
}

// ResolveID loads a channel live page and returns the id of the video it
// points at. A channel that is not live returns "" and no error.
func (c *Client) ResolveID(ctx context.Context, liveURL string) (string, error) {
	body, err := c.page(ctx, liveURL)
	if err != nil {
		return "", err
	}
	return videoIDFromPage(body)
}

// FetchManifest returns the HLS manifest URL of a live video, or "" if the
// video has none (not live, ended, or not started yet).
func (c *Client) FetchManifest(ctx context.Context, id string) (string, error) {
	if !validVideoID(id) {
		return "", fmt.Errorf("invalid video id %q", id)
	}
	body, err := c.page(ctx, c.WatchURL(id))
	if err != nil {
		return "", err
	}
	return manifestFromPage(body)
}

func (c *Client) page(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", consentCookie)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	return body, nil
}
