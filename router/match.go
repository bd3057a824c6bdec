package router

import (
	"net/url"
	"strings"
)

// Params maps placeholder names to the path segments they matched.
type Params map[string]string

// CurrentRoute extracts the route path from a location hash such as
// "#/project/7?tab=images". An empty route is "/".
func CurrentRoute(hash string) string {
	h := strings.TrimPrefix(hash, "#")
	if i := strings.IndexByte(h, '?'); i >= 0 {
		h = h[:i]
	}
	if h == "" {
		return "/"
	}
	return h
}

// currentQuery returns the query part of a location hash.
func currentQuery(hash string) url.Values {
	h := strings.TrimPrefix(hash, "#")
	i := strings.IndexByte(h, '?')
	if i < 0 {
		return url.Values{}
	}
	q, err := url.ParseQuery(h[i+1:])
	if err != nil {
		return url.Values{}
	}
	return q
}

// MatchRoute matches path against pattern segment by segment. A pattern
// segment starting with ':' binds any value under the name after the colon;
// every other segment must be equal, byte for byte. Segment counts must
// agree.
func MatchRoute(pattern, path string) (Params, bool) {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := Params{}
	for i, seg := range patternParts {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			params[name] = pathParts[i]
			continue
		}
		if seg != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}
