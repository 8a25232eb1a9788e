// Package paths performs pure syntactic path resolution. No function in this
// package touches the filesystem.
package paths

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrEmptyPath = errors.New("empty path")

// Resolve normalizes candidate against base into an absolute, cleaned path.
// An absolute candidate ignores base; a relative one is joined onto it.
// Base must itself be absolute.
func Resolve(base, candidate string) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return "", ErrEmptyPath
	}
	if filepath.IsAbs(candidate) {
		return filepath.Clean(candidate), nil
	}
	if !filepath.IsAbs(base) {
		return "", errors.New("base path must be absolute: " + base)
	}
	return filepath.Join(base, candidate), nil
}

// Ancestors returns the ancestor chain of an absolute path in
// shallow-to-deep order, from the first level below the filesystem root
// down to the path itself. The root "/" is never included.
//
//	Ancestors("/a/b/c") -> ["/a", "/a/b", "/a/b/c"]
func Ancestors(path string) []string {
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) || p == string(filepath.Separator) {
		return nil
	}

	var chain []string
	for p != string(filepath.Separator) {
		chain = append(chain, p)
		p = filepath.Dir(p)
	}

	// Collected deep-to-shallow; reverse in place
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
