// Package promptcache memoizes expensive generation calls by prompt
// content. Keys are fingerprints of the normalized prompt text, values
// are paths to the artifacts a previous run produced for that prompt.
//
// The cache is an explicit value passed to whoever needs it, never a
// process-wide singleton, and persists as a small JSON file next to
// the artifacts it indexes.
package promptcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache maps prompt fingerprints to artifact paths. Safe for
// concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Load reads a cache file. A missing file yields an empty cache, not
// an error: first runs start cold.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prompt cache: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse prompt cache %s: %w", path, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Cache{entries: entries}, nil
}

// Save writes the cache to path, creating parent directories as
// needed.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode prompt cache: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write prompt cache: %w", err)
	}
	return nil
}

// Get returns the artifact path cached for prompt. The artifact must
// still exist on disk; stale entries pointing at deleted files miss.
func (c *Cache) Get(prompt string) (string, bool) {
	c.mu.RLock()
	path, ok := c.entries[Fingerprint(prompt)]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Put records path as the artifact for prompt.
func (c *Cache) Put(prompt, path string) {
	c.mu.Lock()
	c.entries[Fingerprint(prompt)] = path
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fingerprint hashes a normalized prompt. Normalization lowercases and
// collapses whitespace runs, so cosmetic reformatting of a prompt does
// not defeat the cache.
func Fingerprint(prompt string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
