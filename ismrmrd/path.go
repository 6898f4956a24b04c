package ismrmrd

import (
	"fmt"
	"strings"
)

// DefaultPath is the dataset path used when none is given.
const DefaultPath = "/dataset"

// CleanPath normalizes a dataset path to a leading slash and no trailing
// slash. Empty components, "." and ".." are rejected, as is the root
// itself.
//
// Examples:
//   - "dataset" -> "/dataset"
//   - "/study/run1/" -> "/study/run1"
//   - "/a//b" -> ErrInvalidPath
func CleanPath(path string) (string, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return "", err
	}
	return JoinPath(parts...), nil
}

// SplitPath splits a dataset path into its components.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q names no dataset", ErrInvalidPath, path)
	}
	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		switch p {
		case "", ".", "..":
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// JoinPath builds a dataset path from components.
func JoinPath(parts ...string) string {
	return "/" + strings.Join(parts, "/")
}

func checkArrayName(name string) error {
	return checkName("array", name)
}

func checkName(what, name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %s name %q", ErrInvalidPath, what, name)
	}
	return nil
}
