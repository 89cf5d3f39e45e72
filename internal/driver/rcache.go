package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"keel/internal/registry"
)

// RegistryCache stores sealed-registry snapshots on disk, keyed by the hash
// of the declarations that produced them. Repeated invocations over an
// unchanged declaration set skip construction entirely.
// Thread-safe for concurrent access.
type RegistryCache struct {
	mu  sync.RWMutex
	dir string
}

func NewRegistryCache(dir string) (*RegistryCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("registry cache: %w", err)
	}
	return &RegistryCache{dir: dir}, nil
}

// Key derives the cache key from the raw declaration input.
func Key(declarations []byte) string {
	sum := sha256.Sum256(declarations)
	return hex.EncodeToString(sum[:])
}

func (c *RegistryCache) path(key string) string {
	return filepath.Join(c.dir, key+".kreg")
}

// Save snapshots reg under key. The write goes through a temp file and
// rename so a concurrent Load never sees a torn snapshot.
func (c *RegistryCache) Save(key string, reg *registry.Registry) error {
	data, err := reg.Snapshot()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tmp, err := os.CreateTemp(c.dir, "kreg-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, c.path(key))
}

// Load rebuilds a sealed registry from the snapshot under key. A missing
// entry returns ok=false; a corrupt one is removed and reported.
func (c *RegistryCache) Load(key string) (*registry.Registry, bool, error) {
	c.mu.RLock()
	data, err := os.ReadFile(c.path(key))
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	reg, err := registry.FromSnapshot(data)
	if err != nil {
		c.mu.Lock()
		os.Remove(c.path(key))
		c.mu.Unlock()
		return nil, false, err
	}
	return reg, true, nil
}
