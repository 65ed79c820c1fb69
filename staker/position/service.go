// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/staker/rollup"
	"github.com/vechain/stakeledger/storage"
)

var (
	slotPositions = storage.NameToSlot("positions")

	ErrPositionExists = reverts.NewState("position already exists")
)

// Service manages position records and the position stake series.
type Service struct {
	positions *storage.Mapping[storage.Uint64, *Position]
	series    *rollup.Series
}

func New(sctx *storage.Context) *Service {
	return &Service{
		positions: storage.NewMapping[storage.Uint64, *Position](sctx, slotPositions),
		series:    rollup.New(sctx, "position"),
	}
}

// Get returns the position, nil if absent.
func (s *Service) Get(id uint64) (*Position, error) {
	p, err := s.positions.Get(storage.Uint64(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	if p != nil {
		p.normalize()
	}
	return p, nil
}

// Add stores a new position whose series and reward cursor start at epoch.
func (s *Service) Add(p *Position, epoch uint32) error {
	p.normalize()
	p.StakeEpoch = epoch
	p.LastEpochStakingUpdated = epoch
	p.LastEpochRewardsUpdated = epoch
	if err := s.positions.Insert(storage.Uint64(p.ID), p); err != nil {
		return ErrPositionExists
	}
	return nil
}

func (s *Service) Save(p *Position) error {
	if err := s.positions.Upsert(storage.Uint64(p.ID), p); err != nil {
		return errors.Wrap(err, "failed to save position")
	}
	return nil
}

// Delete removes the record. The series entries are kept for reward history.
func (s *Service) Delete(id uint64) {
	s.positions.Delete(storage.Uint64(id))
}

// Roll carries the position series forward to epoch.
func (s *Service) Roll(p *Position, epoch uint32) error {
	return s.series.RollForward(p.ID, p, epoch)
}

// AddWeight moves the position weight by delta at epoch.
func (s *Service) AddWeight(p *Position, epoch uint32, delta *big.Int) error {
	return s.series.Add(p.ID, p, epoch, delta)
}

// SetWeight overwrites the position weight at epoch.
func (s *Service) SetWeight(p *Position, epoch uint32, value *big.Int) error {
	return s.series.ApplyDelta(p.ID, p, epoch, value)
}

func (s *Service) ScheduleExpiry(p *Position, epoch uint32, amount *big.Int) error {
	return s.series.ScheduleExpiry(p.ID, epoch, amount)
}

func (s *Service) CancelExpiry(p *Position, epoch uint32, amount *big.Int) error {
	return s.series.CancelExpiry(p.ID, epoch, amount)
}

// Stake returns the position last/min entry of epoch.
func (s *Service) Stake(p *Position, epoch uint32) (*rollup.Entry, error) {
	return s.series.View(p.ID, p.LastEpochStakingUpdated, epoch)
}

// Current returns the position weight at its last updated epoch.
func (s *Service) Current(p *Position) (*big.Int, error) {
	return s.series.Current(p.ID, p)
}

// Expiring returns the position excess scheduled to leave at epoch.
func (s *Service) Expiring(p *Position, epoch uint32) (*big.Int, error) {
	return s.series.Expiring(p.ID, epoch)
}
