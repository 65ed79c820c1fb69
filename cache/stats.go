// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	"github.com/vechain/stakeledger/metrics"
)

var (
	metricLookups = metrics.LazyLoadCounterVec("storage_cache_lookups", []string{"result"})

	hitLabel  = map[string]string{"result": "hit"}
	missLabel = map[string]string{"result": "miss"}
)

// Stats counts lookups served by the cache.
type Stats struct {
	hit, miss atomic.Int64
}

func (cs *Stats) onHit() {
	cs.hit.Add(1)
	metricLookups().AddWithLabel(1, hitLabel)
}

func (cs *Stats) onMiss() {
	cs.miss.Add(1)
	metricLookups().AddWithLabel(1, missLabel)
}

// Counts returns the number of hits and misses.
func (cs *Stats) Counts() (hit, miss int64) {
	return cs.hit.Load(), cs.miss.Load()
}

// HitRate returns hits over lookups, 0 before the first lookup.
func (cs *Stats) HitRate() float64 {
	hit, miss := cs.Counts()
	if hit+miss == 0 {
		return 0
	}
	return float64(hit) / float64(hit+miss)
}
