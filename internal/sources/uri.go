// Package sources resolves statement inputs: local paths, globs,
// directories and gs:// objects.
package sources

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const gcsScheme = "gs://"

// IsGCS reports whether uri names a Cloud Storage object or prefix.
func IsGCS(uri string) bool {
	return strings.HasPrefix(uri, gcsScheme)
}

// ParseGCSURI splits gs://bucket/path/to/file.pdf into bucket and object.
// The object may be empty for a bare bucket.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCS(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// GCSURI joins a bucket and object into a gs:// URI.
func GCSURI(bucket, object string) string {
	return gcsScheme + bucket + "/" + object
}

// Name returns the file name of uri, e.g. "file.pdf" for
// "gs://bucket/folder/file.pdf" or "/tmp/file.pdf".
func Name(uri string) string {
	if IsGCS(uri) {
		_, object, err := ParseGCSURI(uri)
		if err != nil || object == "" {
			return strings.TrimPrefix(uri, gcsScheme)
		}
		return path.Base(object)
	}
	return filepath.Base(uri)
}
