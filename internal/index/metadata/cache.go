// Package metadata implements the constant-time custodian/doctype/count
// lookup maintained during indexing. Full scans over the lexical index
// are forbidden at query time; callers read this cache instead.
package metadata

import (
	"encoding/json"
	"os"
	"sync"
)

// Cache tracks the custodian set, doctype set, and document count observed
// during an index build. It is safe for concurrent updates from multiple
// indexing workers.
type Cache struct {
	mu         sync.RWMutex
	Custodians map[string]struct{} `json:"-"`
	Doctypes   map[string]struct{} `json:"-"`
	DocCount   int                 `json:"doc_count"`
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		Custodians: make(map[string]struct{}),
		Doctypes:   make(map[string]struct{}),
	}
}

// Observe records one document's custodian and doctype and increments the
// document count.
func (c *Cache) Observe(custodian, doctype string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if custodian != "" {
		c.Custodians[custodian] = struct{}{}
	}
	if doctype != "" {
		c.Doctypes[doctype] = struct{}{}
	}
	c.DocCount++
}

// CustodianList returns a sorted snapshot of known custodians.
func (c *Cache) CustodianList() []string { return c.snapshot(c.Custodians) }

// DoctypeList returns a sorted snapshot of known doctypes.
func (c *Cache) DoctypeList() []string { return c.snapshot(c.Doctypes) }

// Count returns the current document count.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DocCount
}

func (c *Cache) snapshot(set map[string]struct{}) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

// wireFormat is the on-disk shape of metadata_cache.json: sets of
// custodians and doctypes plus doc_count.
type wireFormat struct {
	Custodians []string `json:"custodians"`
	Doctypes   []string `json:"doctypes"`
	DocCount   int      `json:"doc_count"`
}

// Persist writes the cache to path as metadata_cache.json. Callers persist
// at every commit boundary and at end of build.
func (c *Cache) Persist(path string) error {
	c.mu.RLock()
	w := wireFormat{
		Custodians: c.snapshot(c.Custodians),
		Doctypes:   c.snapshot(c.Doctypes),
		DocCount:   c.DocCount,
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a previously persisted metadata cache.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w wireFormat
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	c := New()
	for _, v := range w.Custodians {
		c.Custodians[v] = struct{}{}
	}
	for _, v := range w.Doctypes {
		c.Doctypes[v] = struct{}{}
	}
	c.DocCount = w.DocCount
	return c, nil
}

func sortStrings(ss []string) {
	// small N (custodian/doctype cardinality); insertion sort keeps this
	// package dependency-free from the determinism package.
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
