package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyForURL normalizes a product URL into a cache key: origin, path, and the
// query parameters sorted by key. Unparseable input is returned unchanged.
func KeyForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}

	origin := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)

	query := u.Query()
	if len(query) == 0 {
		return origin + u.Path
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range query[k] {
			pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}

	return origin + u.Path + "?" + strings.Join(pairs, "&")
}
