// Package users is the user registry consulted by the profile endpoint. The
// ledger never depends on it: a user with no registry entry can still own
// cost items.
package users

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"costmanager/internal/cache"
	"costmanager/internal/core"
)

// Registry looks users up by id. Unknown ids yield core.ErrNotFound.
type Registry interface {
	Get(ctx context.Context, id string) (core.User, error)
}

// MemoryRegistry is a fixed in-process registry. It is read-only after
// construction.
type MemoryRegistry struct {
	users map[string]core.User
}

func NewMemoryRegistry(users []core.User) *MemoryRegistry {
	r := &MemoryRegistry{users: make(map[string]core.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Get implements Registry.
func (r *MemoryRegistry) Get(_ context.Context, id string) (core.User, error) {
	u, ok := r.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %q: %w", id, core.ErrNotFound)
	}
	return u, nil
}

// LoadSeedFile reads "id,first_name,last_name" lines. Blank lines and lines
// starting with # are skipped. A missing file yields no users.
func LoadSeedFile(path string) ([]core.User, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open user seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed parses the seed format described on LoadSeedFile.
func ParseSeed(r io.Reader) ([]core.User, error) {
	var out []core.User
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Split(text, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("user seed line %d: expected id,first_name,last_name", line)
		}
		u := core.User{
			ID:        strings.TrimSpace(parts[0]),
			FirstName: strings.TrimSpace(parts[1]),
			LastName:  strings.TrimSpace(parts[2]),
		}
		if u.ID == "" {
			return nil, fmt.Errorf("user seed line %d: empty id", line)
		}
		out = append(out, u)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read user seed: %w", err)
	}
	return out, nil
}

// CachedRegistry fronts a slower registry with an LRU cache. Misses are not
// cached so newly seeded users become visible immediately.
type CachedRegistry struct {
	inner Registry
	cache *cache.LRUCache[core.User]
}

func NewCachedRegistry(inner Registry, c *cache.LRUCache[core.User]) *CachedRegistry {
	return &CachedRegistry{inner: inner, cache: c}
}

// Get implements Registry.
func (r *CachedRegistry) Get(ctx context.Context, id string) (core.User, error) {
	if u, ok := r.cache.Get(id); ok {
		return u, nil
	}
	u, err := r.inner.Get(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	r.cache.Set(id, u)
	return u, nil
}

// Stats exposes the underlying cache counters.
func (r *CachedRegistry) Stats() cache.Stats {
	return r.cache.Stats()
}
