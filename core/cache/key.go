package cache

import (
	"net/url"
	"strings"
)

// Key builds a deterministic cache key from a query name and positional parameters.
// Parts are lower-cased and query-escaped, so a ':' inside a part can never be confused
// with the separator.
//
//	Key("standings", "SEC") == "standings:sec"
func Key(query string, parts ...string) string {
	var b strings.Builder
	b.WriteString(url.QueryEscape(strings.ToLower(query)))
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(strings.ToLower(strings.TrimSpace(p))))
	}
	return b.String()
}

// KeyFromParams builds a cache key from a query name and named parameters.
// Parameters are encoded sorted by name, so map iteration order never changes the key.
func KeyFromParams(query string, params map[string]string) string {
	if len(params) == 0 {
		return Key(query)
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(strings.ToLower(k), v)
	}
	return Key(query) + "?" + values.Encode()
}
