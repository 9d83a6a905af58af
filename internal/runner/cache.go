package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
)

// BlockResult is the cached outcome of one executed block.
type BlockResult struct {
	Hash   string `json:"hash"`
	Output string `json:"output"`
}

// Cache is the JSON result cache stored alongside the workspace. It maps
// workspace-relative source path -> label -> block results. The file is
// read once at the start of a run and rewritten at the end; concurrent
// runs are last-writer-wins.
type Cache struct {
	path  string
	Files map[string]map[string][]BlockResult
}

// OpenCache loads the cache file at path. A missing file yields an empty
// cache.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{
		path:  path,
		Files: make(map[string]map[string][]BlockResult),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &c.Files); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup returns the cached output for a block if its source hash still
// matches.
func (c *Cache) Lookup(file, label string, index int, hash string) (string, bool) {
	labels, ok := c.Files[file]
	if !ok {
		return "", false
	}
	results, ok := labels[label]
	if !ok || index >= len(results) {
		return "", false
	}
	if results[index].Hash != hash {
		return "", false
	}
	return results[index].Output, true
}

// Store replaces the results for a file/label pair.
func (c *Cache) Store(file, label string, results []BlockResult) {
	labels, ok := c.Files[file]
	if !ok {
		labels = make(map[string][]BlockResult)
		c.Files[file] = labels
	}
	labels[label] = results
}

// Save writes the cache back to disk.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.Files, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// BlockHash hashes a block's source text for cache comparison.
func BlockHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
