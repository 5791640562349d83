package route

import (
	"fmt"
	"net/url"
	"strings"
)

// RewritePolicy selects how the inbound path is mapped onto the backend URL.
type RewritePolicy string

const (
	// PassThrough appends the full inbound path, prefix included, to the
	// backend base. Backends must mount their handlers under the same prefix.
	PassThrough RewritePolicy = "passthrough"
	// StripPrefix removes the matched prefix before appending the remainder.
	// Backends must mount their handlers at the root.
	StripPrefix RewritePolicy = "strip"
)

// ParsePolicy converts a config value into a RewritePolicy. The empty string
// selects PassThrough.
func ParsePolicy(s string) (RewritePolicy, error) {
	switch RewritePolicy(strings.ToLower(s)) {
	case "", PassThrough:
		return PassThrough, nil
	case StripPrefix:
		return StripPrefix, nil
	default:
		return "", fmt.Errorf("unknown rewrite policy %q (want %q or %q)", s, PassThrough, StripPrefix)
	}
}

// Target builds the outbound URL for a request that resolved to r.
// path is the decoded inbound path and rawPath its escaped form (may be
// empty when the path needs no escaping). rawQuery is forwarded verbatim.
func (p RewritePolicy) Target(r Route, path, rawPath, rawQuery string) *url.URL {
	if p == StripPrefix {
		path = stripPrefix(path, r.Prefix)
		if rawPath != "" {
			rawPath = stripPrefix(rawPath, escapedPrefix(r.Prefix))
		}
	}

	u := *r.Backend
	u.Path = strings.TrimRight(r.Backend.Path, "/") + path
	if rawPath != "" {
		u.RawPath = strings.TrimRight(r.Backend.EscapedPath(), "/") + rawPath
	} else {
		u.RawPath = ""
	}
	u.RawQuery = rawQuery
	u.Fragment = ""
	return &u
}

func stripPrefix(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || rest[0] != '/' {
		rest = "/" + rest
	}
	return rest
}

func escapedPrefix(prefix string) string {
	return (&url.URL{Path: prefix}).EscapedPath()
}
