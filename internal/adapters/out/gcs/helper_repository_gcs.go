// internal/adapters/out/gcs/helper_repository_gcs.go
package gcs

import (
	"net/url"
	"strings"
)

// ParseMediaURL parses a media URL stored in a content item and returns
// (bucket, objectPath, ok).
// 対応例:
//   - https://storage.googleapis.com/<bucket>/<object>
//   - https://storage.cloud.google.com/<bucket>/<object>
//   - https://firebasestorage.googleapis.com/v0/b/<bucket>/o/<escaped object>?alt=media&token=...
//   - gs://<bucket>/<object>
func ParseMediaURL(raw string) (string, string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", false
	}

	switch strings.ToLower(parsed.Scheme) {
	case "gs":
		obj := strings.TrimLeft(parsed.Path, "/")
		if parsed.Host == "" || obj == "" {
			return "", "", false
		}
		return parsed.Host, obj, true
	case "http", "https":
	default:
		return "", "", false
	}

	host := strings.ToLower(parsed.Host)
	p := strings.TrimLeft(parsed.EscapedPath(), "/")

	switch host {
	case "storage.googleapis.com", "storage.cloud.google.com":
		parts := strings.SplitN(p, "/", 2)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		obj, err := url.PathUnescape(parts[1])
		if err != nil {
			return "", "", false
		}
		return parts[0], obj, true

	case "firebasestorage.googleapis.com":
		// v0/b/<bucket>/o/<object (escaped, "/" は %2F)>
		parts := strings.SplitN(p, "/", 5)
		if len(parts) < 5 || parts[0] != "v0" || parts[1] != "b" || parts[3] != "o" || parts[4] == "" {
			return "", "", false
		}
		obj, err := url.PathUnescape(parts[4])
		if err != nil {
			return "", "", false
		}
		return parts[2], obj, true
	}
	return "", "", false
}
