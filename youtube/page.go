package youtube

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var (
	videoIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	manifestRe = regexp.MustCompile(`"hlsManifestUrl"\s*:\s*("(?:[^"\\]|\\.)*")`)
)

func validVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// videoIDFromPage finds the watched video of a live page. The canonical link
// points at /watch?v=<id> while the channel is live and at the channel
// otherwise.
func videoIDFromPage(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse live page: %w", err)
	}

	for _, sel := range []struct{ query, attr string }{
		{`link[rel="canonical"]`, "href"},
		{`meta[property="og:url"]`, "content"},
	} {
		if id := watchID(doc.Find(sel.query).First().AttrOr(sel.attr, "")); id != "" {
			return id, nil
		}
	}

	for _, prop := range []string{"videoId", "identifier"} {
		sel := `meta[itemprop="` + prop + `"]`
		id := doc.Find(sel).First().AttrOr("content", "")
		if validVideoID(id) {
			return id, nil
		}
	}
	return "", nil
}

func watchID(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil || u.Path != "/watch" {
		return ""
	}
	if id := u.Query().Get("v"); validVideoID(id) {
		return id
	}
	return ""
}

// manifestFromPage extracts the player's HLS manifest URL from a watch page
func manifestFromPage(body []byte) (string, error) {
	m := manifestRe.FindSubmatch(body)
	if m == nil {
		return "", nil
	}
	var manifest string
	if err := json.Unmarshal(m[1], &manifest); err != nil {
		return "", fmt.Errorf("decode hlsManifestUrl: %w", err)
	}
	return manifest, nil
}
