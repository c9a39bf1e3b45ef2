// Package candidate turns request query parameters into the ordered list of
// stream candidates a request is resolved from.
package candidate

import (
	"net/url"
	"strings"
)

// Kind identifies how a candidate value is resolved
type Kind int

const (
	// ByID is a platform video id, looked up directly
	ByID Kind = iota + 1
	// ByHandle is a channel handle or channel URL, resolved to a video id first
	ByHandle
	// ByURL is a literal manifest URL that only needs validating
	ByURL
)

func (k Kind) String() string {
	switch k {
	case ByID:
		return "id"
	case ByHandle:
		return "handle"
	case ByURL:
		return "url"
	default:
		return "unknown"
	}
}

// Candidate is one caller-supplied reference in the fallback chain
type Candidate struct {
	Kind  Kind
	Value string
}

// Pair is a single query parameter in request order
type Pair struct {
	Key   string
	Value string
	// Bare is set when the raw query had no "=" for this key
	Bare bool
}

// DefaultKeys maps recognized query keys to candidate kinds
var DefaultKeys = map[string]Kind{
	"v":       ByID,
	"id":      ByID,
	"c":       ByHandle,
	"channel": ByHandle,
	"handle":  ByHandle,
	"x":       ByURL,
	"url":     ByURL,
}

// Parser builds candidates from query pairs using a key table
type Parser struct {
	keys map[string]Kind
}

// NewParser returns a parser for the given key table; nil means DefaultKeys
func NewParser(keys map[string]Kind) *Parser {
	if keys == nil {
		keys = DefaultKeys
	}
	return &Parser{keys: keys}
}

// Parse splits a raw query string and returns its candidates in order
func (p *Parser) Parse(rawQuery string) []Candidate {
	return p.ParsePairs(SplitQuery(rawQuery))
}

// ParsePairs returns one candidate per recognized key, in input order.
// An unrecognized pair is folded into the previous candidate's value as
// "&key=value", which recovers URL values whose own query string was split
// by the outer parser. Unrecognized pairs before any candidate are dropped.
func (p *Parser) ParsePairs(pairs []Pair) []Candidate {
	var out []Candidate
	for _, pair := range pairs {
		if kind, ok := p.keys[pair.Key]; ok {
			out = append(out, Candidate{Kind: kind, Value: pair.Value})
			continue
		}
		if len(out) == 0 {
			continue
		}
		last := &out[len(out)-1]
		last.Value += "&" + pair.Key
		if !pair.Bare {
			last.Value += "=" + pair.Value
		}
	}
	return out
}

// Parse is Parser.Parse with DefaultKeys
func Parse(rawQuery string) []Candidate {
	return NewParser(nil).Parse(rawQuery)
}

// ParsePairs is Parser.ParsePairs with DefaultKeys
func ParsePairs(pairs []Pair) []Candidate {
	return NewParser(nil).ParsePairs(pairs)
}

// SplitQuery splits a raw query string into pairs without reordering them.
// url.ParseQuery returns a map and loses the order the fallback chain depends on.
func SplitQuery(rawQuery string) []Pair {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if rawQuery == "" {
		return nil
	}

	var pairs []Pair
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: unescape(value), Bare: !found})
	}
	return pairs
}

// unescape percent-decodes s. A literal "+" is kept: unencoded URL values
// carry it in signatures and base64 tokens.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
