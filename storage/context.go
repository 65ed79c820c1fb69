// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/stackedmap"
)

// DefaultCacheSize is the number of raw values kept in the read cache.
const DefaultCacheSize = 4096

// Context is the storage context shared by all ledger services.
// Writes are journaled in memory and only reach the kv store on Commit.
type Context struct {
	store   kv.Store
	cache   *cache.LRU
	overlay *stackedmap.StackedMap[string, []byte]
}

// NewContext creates a context on top of the given store.
func NewContext(store kv.Store, cacheSize int) (*Context, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	lru, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create storage cache")
	}
	c := &Context{
		store: store,
		cache: lru,
	}
	c.resetOverlay()
	return c, nil
}

func (c *Context) resetOverlay() {
	c.overlay = stackedmap.New(func(key string) ([]byte, bool, error) {
		val, err := c.cache.GetOrLoad([]byte(key), c.load)
		if err != nil {
			return nil, false, err
		}
		return val, len(val) > 0, nil
	})
	c.overlay.Push()
}

func (c *Context) load(key []byte) ([]byte, error) {
	val, err := c.store.Get(key)
	if err != nil {
		if c.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load storage value")
	}
	return val, nil
}

// Get returns the raw value of key, nil if absent.
func (c *Context) Get(key []byte) ([]byte, error) {
	val, _, err := c.overlay.Get(string(key))
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return nil, nil
	}
	return val, nil
}

// Put journals the raw value of key. An empty value deletes the key.
func (c *Context) Put(key, val []byte) {
	c.overlay.Put(string(key), val)
}

// Checkpoint marks a revert point and returns its depth.
func (c *Context) Checkpoint() int {
	return c.overlay.Push()
}

// RevertTo drops every write made since the checkpoint at depth.
func (c *Context) RevertTo(depth int) {
	c.overlay.PopTo(depth)
	if c.overlay.Depth() == 0 {
		c.overlay.Push()
	}
}

// Pending returns the number of journaled writes.
func (c *Context) Pending() int {
	return len(c.overlay.Journal())
}

// Commit writes all journaled values into the store in one bulk.
// The journal is cleared whether or not the write succeeds.
func (c *Context) Commit() error {
	journal := c.overlay.Journal()
	defer c.resetOverlay()

	if len(journal) == 0 {
		return nil
	}

	final := make(map[string][]byte, len(journal))
	bulk := c.store.Bulk()
	for _, entry := range journal {
		key := []byte(entry.Key)
		if len(entry.Value) == 0 {
			if err := bulk.Delete(key); err != nil {
				return errors.Wrap(err, "bulk delete")
			}
		} else {
			if err := bulk.Put(key, entry.Value); err != nil {
				return errors.Wrap(err, "bulk put")
			}
		}
		final[entry.Key] = entry.Value
	}
	if err := bulk.Write(); err != nil {
		for key := range final {
			c.cache.Remove([]byte(key))
		}
		return errors.Wrap(err, "commit storage")
	}
	for key, val := range final {
		if len(val) == 0 {
			val = nil
		}
		c.cache.Set([]byte(key), val)
	}
	return nil
}

// CacheStats returns the read cache hit/miss counters.
func (c *Context) CacheStats() (hit, miss int64) {
	return c.cache.Stats().Counts()
}
