// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package idset

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/storage"
)

// Set is a persistent unordered set of ids, grouped by scope. Removal swaps the last
// element into the freed index, so every operation is O(1).
type Set struct {
	size  *storage.Mapping[storage.Uint64, uint64]
	items *storage.Mapping[storage.Pair, uint64]
	index *storage.Mapping[storage.Pair, uint64] // position + 1, zero means absent
}

// New creates a set, name separates sets in storage.
func New(sctx *storage.Context, name string) *Set {
	return &Set{
		size:  storage.NewMapping[storage.Uint64, uint64](sctx, storage.NameToSlot(name+"-size")),
		items: storage.NewMapping[storage.Pair, uint64](sctx, storage.NameToSlot(name+"-items")),
		index: storage.NewMapping[storage.Pair, uint64](sctx, storage.NameToSlot(name+"-index")),
	}
}

func pair(scope, v uint64) storage.Pair {
	return storage.Pair{A: storage.Uint64(scope), B: storage.Uint64(v)}
}

// Len returns the number of ids in scope.
func (s *Set) Len(scope uint64) (uint64, error) {
	n, err := s.size.Get(storage.Uint64(scope))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get set size")
	}
	return n, nil
}

// Contains returns whether id is in scope.
func (s *Set) Contains(scope, id uint64) (bool, error) {
	idx, err := s.index.Get(pair(scope, id))
	if err != nil {
		return false, errors.Wrap(err, "failed to get set index")
	}
	return idx != 0, nil
}

// Add inserts id, returns false if it was already present.
func (s *Set) Add(scope, id uint64) (bool, error) {
	present, err := s.Contains(scope, id)
	if err != nil || present {
		return false, err
	}
	n, err := s.Len(scope)
	if err != nil {
		return false, err
	}
	if err := s.items.Upsert(pair(scope, n), id); err != nil {
		return false, err
	}
	if err := s.index.Upsert(pair(scope, id), n+1); err != nil {
		return false, err
	}
	return true, s.size.Upsert(storage.Uint64(scope), n+1)
}

// Remove deletes id, returns false if it was not present.
func (s *Set) Remove(scope, id uint64) (bool, error) {
	idx, err := s.index.Get(pair(scope, id))
	if err != nil {
		return false, errors.Wrap(err, "failed to get set index")
	}
	if idx == 0 {
		return false, nil
	}
	n, err := s.Len(scope)
	if err != nil {
		return false, err
	}
	lastPos := n - 1
	if pos := idx - 1; pos != lastPos {
		lastID, err := s.items.Get(pair(scope, lastPos))
		if err != nil {
			return false, errors.Wrap(err, "failed to get set item")
		}
		if err := s.items.Upsert(pair(scope, pos), lastID); err != nil {
			return false, err
		}
		if err := s.index.Upsert(pair(scope, lastID), idx); err != nil {
			return false, err
		}
	}
	s.items.Delete(pair(scope, lastPos))
	s.index.Delete(pair(scope, id))
	if lastPos == 0 {
		s.size.Delete(storage.Uint64(scope))
		return true, nil
	}
	return true, s.size.Upsert(storage.Uint64(scope), lastPos)
}

// List returns the ids of scope in storage order.
func (s *Set) List(scope uint64) ([]uint64, error) {
	n, err := s.Len(scope)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, n)
	for i := range n {
		id, err := s.items.Get(pair(scope, i))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get set item")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
