// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rollup

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/storage"
)

var (
	metricRolledEpochs = metrics.LazyLoadHistogram("staker_rollup_epochs", metrics.BucketEpochs)

	ErrEpochRegressed = reverts.New("epoch is before the last update")
)

// Entry is the value of an entity during one epoch.
type Entry struct {
	Last *big.Int // value after the latest change within the epoch
	Min  *big.Int // lowest value held at any point of the epoch
}

func newEntry(v *big.Int) *Entry {
	return &Entry{Last: new(big.Int).Set(v), Min: new(big.Int).Set(v)}
}

// Cursor is the entity record holding the last epoch its series was rolled to.
type Cursor interface {
	LastEpochUpdated() uint32
	SetLastEpochUpdated(uint32)
}

// Series stores the per epoch last/min values of one entity kind, plus the
// amounts scheduled to leave each entity at a given epoch.
type Series struct {
	entries  *storage.Mapping[storage.Pair, *Entry]
	expiring *storage.Mapping[storage.Pair, *big.Int]
}

// New creates the series of an entity kind, name separates the kinds in storage.
func New(sctx *storage.Context, name string) *Series {
	return &Series{
		entries:  storage.NewMapping[storage.Pair, *Entry](sctx, storage.NameToSlot(name+"-entries")),
		expiring: storage.NewMapping[storage.Pair, *big.Int](sctx, storage.NameToSlot(name+"-expiring")),
	}
}

func key(id uint64, epoch uint32) storage.Pair {
	return storage.Pair{A: storage.Uint64(id), B: storage.Uint32(epoch)}
}

// entry returns the stored entry, a zero entry if none.
func (s *Series) entry(id uint64, epoch uint32) (*Entry, error) {
	e, err := s.entries.Get(key(id, epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get series entry")
	}
	if e == nil {
		return &Entry{Last: new(big.Int), Min: new(big.Int)}, nil
	}
	if e.Last == nil {
		e.Last = new(big.Int)
	}
	if e.Min == nil {
		e.Min = new(big.Int)
	}
	return e, nil
}

func (s *Series) setEntry(id uint64, epoch uint32, e *Entry) error {
	if e.Last.Sign() == 0 && e.Min.Sign() == 0 {
		s.entries.Delete(key(id, epoch))
		return nil
	}
	if err := s.entries.Upsert(key(id, epoch), e); err != nil {
		return errors.Wrap(err, "failed to set series entry")
	}
	return nil
}

// Expiring returns the amount scheduled to leave the entity at epoch.
func (s *Series) Expiring(id uint64, epoch uint32) (*big.Int, error) {
	amount, err := s.expiring.Get(key(id, epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get expiring amount")
	}
	if amount == nil {
		return new(big.Int), nil
	}
	return amount, nil
}

func (s *Series) setExpiring(id uint64, epoch uint32, amount *big.Int) error {
	if amount.Sign() == 0 {
		s.expiring.Delete(key(id, epoch))
		return nil
	}
	if err := s.expiring.Upsert(key(id, epoch), amount); err != nil {
		return errors.Wrap(err, "failed to set expiring amount")
	}
	return nil
}

// RollForward carries the entity from its last updated epoch up to until, one epoch
// at a time. Each carried epoch starts with min equal to last, after subtracting
// whatever was scheduled to expire at that epoch. Rolling to an epoch that is
// already current is a no-op.
func (s *Series) RollForward(id uint64, cur Cursor, until uint32) error {
	from := cur.LastEpochUpdated()
	if until < from {
		return ErrEpochRegressed
	}
	if until == from {
		return nil
	}

	prev, err := s.entry(id, from)
	if err != nil {
		return err
	}
	value := new(big.Int).Set(prev.Last)
	for e := from; e < until; {
		e++
		expiring, err := s.Expiring(id, e)
		if err != nil {
			return err
		}
		if expiring.Sign() > 0 {
			if value.Cmp(expiring) < 0 {
				return reverts.Invariantf("series %d: expiring %s exceeds value %s at epoch %d", id, expiring, value, e)
			}
			value.Sub(value, expiring)
			s.expiring.Delete(key(id, e))
		}
		if err := s.setEntry(id, e, newEntry(value)); err != nil {
			return err
		}
	}
	metricRolledEpochs().Observe(int64(until - from))
	cur.SetLastEpochUpdated(until)
	return nil
}

// ApplyDelta rolls the entity to epoch, then records value as its new amount.
// The epoch minimum only ever decreases.
func (s *Series) ApplyDelta(id uint64, cur Cursor, epoch uint32, value *big.Int) error {
	if value.Sign() < 0 {
		return reverts.Invariantf("series %d: negative value %s at epoch %d", id, value, epoch)
	}
	if err := s.RollForward(id, cur, epoch); err != nil {
		return err
	}
	entry, err := s.entry(id, epoch)
	if err != nil {
		return err
	}
	entry.Last = new(big.Int).Set(value)
	if value.Cmp(entry.Min) < 0 {
		entry.Min = new(big.Int).Set(value)
	}
	return s.setEntry(id, epoch, entry)
}

// Add rolls the entity to epoch and moves its value by delta, which may be negative.
func (s *Series) Add(id uint64, cur Cursor, epoch uint32, delta *big.Int) error {
	if err := s.RollForward(id, cur, epoch); err != nil {
		return err
	}
	entry, err := s.entry(id, epoch)
	if err != nil {
		return err
	}
	value := new(big.Int).Add(entry.Last, delta)
	if value.Sign() < 0 {
		return reverts.Invariantf("series %d: value %s cannot absorb %s at epoch %d", id, entry.Last, delta, epoch)
	}
	return s.ApplyDelta(id, cur, epoch, value)
}

// Current returns the value at the last updated epoch.
func (s *Series) Current(id uint64, cur Cursor) (*big.Int, error) {
	entry, err := s.entry(id, cur.LastEpochUpdated())
	if err != nil {
		return nil, err
	}
	return entry.Last, nil
}

// View returns the entry of epoch without writing anything. Epochs after lastUpdated
// are carried forward virtually, the same way RollForward would.
func (s *Series) View(id uint64, lastUpdated uint32, epoch uint32) (*Entry, error) {
	if epoch <= lastUpdated {
		return s.entry(id, epoch)
	}
	prev, err := s.entry(id, lastUpdated)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Set(prev.Last)
	for e := lastUpdated; e < epoch; {
		e++
		expiring, err := s.Expiring(id, e)
		if err != nil {
			return nil, err
		}
		if value.Cmp(expiring) < 0 {
			return nil, reverts.Invariantf("series %d: expiring %s exceeds value %s at epoch %d", id, expiring, value, e)
		}
		value.Sub(value, expiring)
	}
	return newEntry(value), nil
}

// ScheduleExpiry registers amount to leave the entity when it is rolled into epoch.
func (s *Series) ScheduleExpiry(id uint64, epoch uint32, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	current, err := s.Expiring(id, epoch)
	if err != nil {
		return err
	}
	return s.setExpiring(id, epoch, new(big.Int).Add(current, amount))
}

// CancelExpiry withdraws a previously scheduled amount.
func (s *Series) CancelExpiry(id uint64, epoch uint32, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	current, err := s.Expiring(id, epoch)
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return reverts.Invariantf("series %d: cancelling %s but only %s expires at epoch %d", id, amount, current, epoch)
	}
	return s.setExpiring(id, epoch, new(big.Int).Sub(current, amount))
}
