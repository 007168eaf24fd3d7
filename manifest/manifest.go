// Package manifest reads rev-manifest files: JSON documents mapping
// original asset paths to their fingerprinted (content-hashed) output
// paths, as written by the revisioning stage of an asset pipeline.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest maps original asset paths to fingerprinted output paths.
type Manifest map[string]string

// Load reads and parses the manifest at path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Resolve returns the fingerprinted path for an original asset path,
// or the input unchanged when the manifest has no entry for it.
func (m Manifest) Resolve(path string) string {
	if rev, ok := m[path]; ok {
		return rev
	}
	return path
}

// Rewriter returns a path-rewrite helper bound to the manifest file at
// dest/filename. The manifest is read on every call so the helper always
// reflects what the revisioning stage last wrote; a missing or unreadable
// manifest leaves paths unchanged rather than failing a render.
func Rewriter(dest, filename string) func(path string) string {
	file := filepath.Join(dest, filename)
	return func(path string) string {
		m, err := Load(file)
		if err != nil {
			return path
		}
		return m.Resolve(path)
	}
}
