package validate

import (
	"regexp"
	"strings"
)

var linkedinPathRe = regexp.MustCompile(`^/(in|company)/([A-Za-z0-9_%\-\.]+)$`)

// NormalizeLinkedIn canonicalizes a LinkedIn URL: scheme and www/locale
// subdomains stripped, host lowercased, query/fragment/trailing slash
// removed. Returns the canonical form and whether the path has a valid
// /in/<slug> or /company/<slug> shape. Idempotent: feeding the output back
// in returns it unchanged.
func NormalizeLinkedIn(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")

	host, path, ok := strings.Cut(s, "/")
	if !ok {
		return "", false
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	// Locale subdomains like uk.linkedin.com.
	if strings.HasSuffix(host, ".linkedin.com") {
		host = "linkedin.com"
	}
	if host != "linkedin.com" {
		return "", false
	}

	path = "/" + path
	m := linkedinPathRe.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return "linkedin.com/" + m[1] + "/" + m[2], true
}

// IsPersonProfile reports whether a normalized LinkedIn URL is an /in/
// personal profile.
func IsPersonProfile(normalized string) bool {
	return strings.HasPrefix(normalized, "linkedin.com/in/")
}
