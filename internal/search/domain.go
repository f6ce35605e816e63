package search

import (
	"net/url"
	"strings"
)

// DetectDomain returns the host part when the query is a URL or a bare
// domain ("github.com", "https://github.com/golang/go"), with any
// leading "www." stripped. It returns "" for ordinary keyword queries.
func DetectDomain(query string) string {
	q := strings.TrimSpace(query)
	if q == "" || strings.ContainsAny(q, " \t") {
		return ""
	}

	if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") {
		u, err := url.Parse(q)
		if err != nil || u.Host == "" {
			return ""
		}
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}

	// Bare domain: host-shaped, at least one dot, no path separators
	// beyond an optional trailing one.
	candidate := strings.TrimSuffix(q, "/")
	if strings.Contains(candidate, "/") {
		u, err := url.Parse("https://" + candidate)
		if err != nil || u.Hostname() == "" || !isHostShaped(u.Hostname()) {
			return ""
		}
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	if !isHostShaped(candidate) {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(candidate), "www.")
}

func isHostShaped(s string) bool {
	if !strings.Contains(s, ".") || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}
