// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tier

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staker/idset"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/staker/stakes"
	"github.com/vechain/stakeledger/storage"
)

var (
	ErrTierNotFound    = reverts.New("lock tier not found")
	ErrInvalidMinimum  = reverts.New("lock tier minimum must not be negative")
	ErrWeightTooLow    = reverts.NewDomain("lock tier weight must exceed 100%")
	ErrInvalidDuration = reverts.NewDomain("lock tier duration out of range")

	ErrMaturityOutOfRange = reverts.NewDomain("lock maturity epoch out of range")
	ErrTierRemoved     = reverts.NewState("lock tier already removed")
)

// Service is the lock tier registry.
type Service struct {
	tiers   *storage.Mapping[storage.Uint32, *Tier]
	counter *storage.Variable[uint32]
	active  *idset.Set
}

func New(sctx *storage.Context) *Service {
	return &Service{
		tiers:   storage.NewMapping[storage.Uint32, *Tier](sctx, storage.NameToSlot("lock-tiers")),
		counter: storage.NewVariable[uint32](sctx, storage.NameToSlot("lock-tier-counter")),
		active:  idset.New(sctx, "active-lock-tiers"),
	}
}

// Get returns the tier, nil if it never existed.
func (s *Service) Get(id uint32) (*Tier, error) {
	t, err := s.tiers.Get(storage.Uint32(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get lock tier")
	}
	return t, nil
}

// Add validates and registers a tier, ids start from 1.
func (s *Service) Add(minAmount *big.Int, durationEpochs uint32, weightBps uint32) (uint32, error) {
	if minAmount == nil || minAmount.Sign() < 0 {
		return 0, ErrInvalidMinimum
	}
	if weightBps <= stakes.BasisPoints {
		return 0, ErrWeightTooLow
	}
	if durationEpochs == 0 || durationEpochs > MaxDurationEpochs {
		return 0, ErrInvalidDuration
	}

	last, err := s.counter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get lock tier counter")
	}
	id := last + 1
	if err := s.counter.Set(id); err != nil {
		return 0, err
	}
	t := &Tier{
		ID:               id,
		MinStakingAmount: new(big.Int).Set(minAmount),
		DurationEpochs:   durationEpochs,
		WeightBps:        weightBps,
		Active:           true,
	}
	if err := s.tiers.Insert(storage.Uint32(id), t); err != nil {
		return 0, errors.Wrap(err, "failed to add lock tier")
	}
	if _, err := s.active.Add(0, uint64(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// Remove clears the active flag of a tier.
func (s *Service) Remove(id uint32) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTierNotFound
	}
	if !t.Active {
		return ErrTierRemoved
	}
	t.Active = false
	if err := s.tiers.Update(storage.Uint32(id), t); err != nil {
		return errors.Wrap(err, "failed to remove lock tier")
	}
	_, err = s.active.Remove(0, uint64(id))
	return err
}

// ActiveIDs lists the ids of tiers that still accept stakes.
func (s *Service) ActiveIDs() ([]uint32, error) {
	ids, err := s.active.List(0)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint32(id))
	}
	return out, nil
}

// Count returns the number of tiers ever created.
func (s *Service) Count() (uint32, error) {
	return s.counter.Get()
}
