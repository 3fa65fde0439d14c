// Package storage issues time-limited download URLs for attachment objects.
package storage

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// Signer signs many object paths of one bucket in a single call. Paths that
// cannot be signed are absent from the result map.
type Signer interface {
	SignURLs(ctx context.Context, bucket string, paths []string, ttl time.Duration) (map[string]string, error)
}

var uploadPrefix = regexp.MustCompile(`^\d{8,}_`)

// FileNameFromPath derives a display name from an object path, dropping a
// leading upload-timestamp prefix such as "20240501123000_".
func FileNameFromPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if IsDirectURL(p) {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
	}
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if trimmed := uploadPrefix.ReplaceAllString(base, ""); trimmed != "" {
		return trimmed
	}
	return base
}

// IsDirectURL reports whether p is already an absolute http(s) URL.
func IsDirectURL(p string) bool {
	lower := strings.ToLower(strings.TrimSpace(p))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
