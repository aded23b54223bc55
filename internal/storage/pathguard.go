package storage

import (
	"path/filepath"
	"strings"
)

// ValidatePath rejects any path whose literal component sequence
// contains a parent-directory segment. Absolute paths are accepted
// unconditionally. The check does not normalize: callers that want
// "a/../b" to pass must run filepath.Clean first.
func ValidatePath(path string) (string, error) {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", &PathTraversalError{Path: path}
		}
	}
	return path, nil
}
