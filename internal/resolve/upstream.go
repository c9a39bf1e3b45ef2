package resolve

import (
	"context"
	"net/url"
	"strings"
)

// DefaultLiveBaseURL is the site live pages are built from
const DefaultLiveBaseURL = "https://www.youtube.com"

// Upstream is the video platform client. An empty result with a nil error
// means "nothing there"; errors are treated the same way after logging.
type Upstream interface {
	// ResolveID maps a channel live page URL to the id of its current video
	ResolveID(ctx context.Context, liveURL string) (string, error)

	// FetchManifest returns the HLS manifest URL of a live video
	FetchManifest(ctx context.Context, id string) (string, error)
}

// LivePageURL builds the canonical live page for a handle. Full URLs are
// returned unchanged, "UC…" channel ids map to /channel/<id>/live and
// anything else is treated as an @handle.
func LivePageURL(base, handle string) string {
	handle = strings.TrimSpace(handle)
	if strings.HasPrefix(handle, "http://") || strings.HasPrefix(handle, "https://") {
		return handle
	}
	base = strings.TrimRight(base, "/")
	if isChannelID(handle) {
		return base + "/channel/" + handle + "/live"
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	return base + "/" + url.PathEscape(handle) + "/live"
}

func isChannelID(s string) bool {
	if len(s) != 24 || !strings.HasPrefix(s, "UC") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
