package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize maps equivalent spellings of a base URL to one form:
// lowercase scheme and host, no default port, "/" for an empty path, no
// trailing slash otherwise, no query and no fragment.
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = strings.ToLower(canonical.Scheme)
	canonical.Host = strings.ToLower(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if canonical.Path == "" {
		canonical.Path = "/"
	}
	if len(canonical.Path) > 1 {
		canonical.Path = strings.TrimRight(canonical.Path, "/")
		if canonical.Path == "" {
			canonical.Path = "/"
		}
	}
	canonical.RawPath = ""

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// ParseBase parses and canonicalizes an absolute http(s) base URL.
func ParseBase(raw string) (url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return url.URL{}, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return url.URL{}, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return url.URL{}, fmt.Errorf("base url %q: missing host", raw)
	}
	return Canonicalize(*u), nil
}

// JoinPath appends path segments to base. A trailing slash on the last
// segment is preserved, since some upstream routes require it.
func JoinPath(base url.URL, elem ...string) url.URL {
	joined := base.JoinPath(elem...)
	if !strings.HasPrefix(joined.Path, "/") {
		joined.Path = "/" + joined.Path
	}
	if n := len(elem); n > 0 && strings.HasSuffix(elem[n-1], "/") && !strings.HasSuffix(joined.Path, "/") {
		joined.Path += "/"
	}
	return *joined
}

// IsAbsoluteHTTP reports whether s is an absolute http or https URL.
func IsAbsoluteHTTP(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsRootedOrHTTPS reports whether s starts with "/" (a site path or a
// protocol-relative "//host" reference) or with "https://".
func IsRootedOrHTTPS(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "https://")
}

// NamespacePath builds "namespace + slug", tolerating a missing or
// doubled slash at the seam.
func NamespacePath(namespace, slug string) string {
	if namespace == "" {
		return slug
	}
	if !strings.HasSuffix(namespace, "/") {
		namespace += "/"
	}
	return namespace + strings.TrimLeft(slug, "/")
}
