// Package rainbow implements the weak-password digest lookup used by the
// risk scorer: a preloaded set of known-weak plaintext/hash pairs backed by
// an LRU cache so repeated lookups against a large dump don't re-walk the
// full table.
package rainbow

import (
	"bufio"
	"io"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeleniel/breachcorpus/pkg/hashutil"
)

const defaultCacheSize = 100_000

// Table is a weak-password digest lookup. Zero value is not usable; build
// one with New.
type Table struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, string]
	known map[string]string // sha256(lower(password)) -> password
}

// New builds an empty table with an LRU lookup cache sized for capacity
// concurrent distinct digests.
func New(capacity int) (*Table, error) {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	cache, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, err
	}
	return &Table{cache: cache, known: make(map[string]string)}, nil
}

// LoadPasswords seeds the table from a plaintext password list, one
// password per element, such as the custom_passwords configuration entry.
func (t *Table) LoadPasswords(passwords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range passwords {
		t.index(p)
	}
}

// LoadReader seeds the table by streaming a newline-delimited password
// list, such as the file named by rainbow_table.preload_path.
func (t *Table) LoadReader(r io.Reader) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		t.index(line)
	}
	return scanner.Err()
}

func (t *Table) index(password string) {
	digest := digestFor(password)
	t.known[digest] = password
}

func digestFor(password string) string {
	return hashutil.SHA256Hex([]byte(strings.ToLower(password)))
}

// IsWeakPasswordHash reports whether digest matches a known weak password,
// consulting the LRU cache before the backing table.
func (t *Table) IsWeakPasswordHash(digest string) bool {
	_, ok := t.GetWeakPasswordForHash(digest)
	return ok
}

// GetWeakPasswordForHash returns the plaintext password a digest was built
// from, if digest is in the table.
func (t *Table) GetWeakPasswordForHash(digest string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(digest))

	if p, ok := t.cache.Get(lower); ok {
		return p, p != ""
	}

	t.mu.RLock()
	p, ok := t.known[lower]
	t.mu.RUnlock()

	t.cache.Add(lower, p)
	return p, ok
}

// Len returns the number of distinct passwords indexed.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.known)
}
