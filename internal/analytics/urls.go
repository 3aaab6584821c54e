package analytics

import (
	"net/url"
	"strings"
)

// CleanURL normalizes a source URL for comparison: lowercase host,
// scheme and www. prefix stripped, trailing slash removed.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	host, path := splitHostPath(raw)
	if host == "" {
		return ""
	}
	cleaned := host + strings.TrimSuffix(path, "/")
	return strings.TrimSuffix(cleaned, "/")
}

// Domain extracts the bare registrable host of a URL, without scheme,
// www. prefix, port, or path.
func Domain(raw string) string {
	host, _ := splitHostPath(raw)
	return host
}

func splitHostPath(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, errParse := url.Parse(raw)
	if errParse != nil || parsed.Host == "" {
		return "", ""
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host, parsed.EscapedPath()
}

// SameDomain reports whether two URLs point at the same host, ignoring
// scheme, www. and paths. Subdomains of the official host also match.
func SameDomain(a, b string) bool {
	da, db := Domain(a), Domain(b)
	if da == "" || db == "" {
		return false
	}
	return da == db || strings.HasSuffix(da, "."+db) || strings.HasSuffix(db, "."+da)
}
