// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU caches raw encoded values by their storage key.
type LRU struct {
	cache *lru.Cache
	stats Stats
}

// NewLRU create a LRU cache instance.
// maxSize should be > 0, or an error returned.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: cache}, nil
}

// Loader defines loader to load value.
type Loader func(key []byte) ([]byte, error)

// GetOrLoad first try to get from cache, do load if missed.
// A nil value is cached as well, it marks an absent key.
func (l *LRU) GetOrLoad(key []byte, loader Loader) ([]byte, error) {
	if v, ok := l.cache.Get(string(key)); ok {
		l.stats.onHit()
		return v.([]byte), nil
	}
	l.stats.onMiss()

	v, err := loader(key)
	if err != nil {
		return nil, err
	}
	l.cache.Add(string(key), v)
	return v, nil
}

// Set replaces the cached value of key.
func (l *LRU) Set(key, val []byte) {
	l.cache.Add(string(key), val)
}

// Remove evicts the key.
func (l *LRU) Remove(key []byte) {
	l.cache.Remove(string(key))
}

// Purge clears the cache.
func (l *LRU) Purge() {
	l.cache.Purge()
}

// Len returns the number of cached entries.
func (l *LRU) Len() int {
	return l.cache.Len()
}

// Stats returns the hit/miss stats of the cache.
func (l *LRU) Stats() *Stats {
	return &l.stats
}
