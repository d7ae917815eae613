package utils

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	gcsHost      = "storage.googleapis.com"
	firebaseHost = "firebasestorage.googleapis.com"
)

// ExtractObjectPath returns the object path inside the bucket for a public
// storage URL. Both the plain GCS form (https://storage.googleapis.com/<bucket>/<path>)
// and the Firebase download form (.../v0/b/<bucket>/o/<escaped path>) are understood.
// URLs pointing anywhere else are not ours to delete and yield an error.
func ExtractObjectPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL")
	}

	switch u.Host {
	case gcsHost:
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", fmt.Errorf("invalid URL format")
		}
		return parts[1], nil

	case firebaseHost:
		// EscapedPath keeps %2F so the object path is split off before unescaping.
		parts := strings.SplitN(strings.TrimPrefix(u.EscapedPath(), "/v0/b/"), "/o/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", fmt.Errorf("invalid URL format")
		}
		path, err := url.PathUnescape(parts[1])
		if err != nil {
			return "", fmt.Errorf("invalid URL format")
		}
		return path, nil
	}

	return "", fmt.Errorf("URL is not a storage URL")
}
