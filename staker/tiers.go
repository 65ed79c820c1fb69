// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/tier"
)

// MaxLockDurationEpochs is the longest lock a tier may impose.
const MaxLockDurationEpochs = tier.MaxDurationEpochs

// Params are the ledger wide settings fixed at initialization.
type Params = globalstats.Params

// LockTierConfig describes a lock tier registered together with the ledger.
type LockTierConfig struct {
	MinStakingAmount *big.Int
	DurationEpochs   uint32
	WeightBps        uint32
}

// Initialize creates the global ledger record and registers tiers in order, ids from 1.
// It can only run once, and a failing tier leaves the ledger uninitialized.
func (s *Staker) Initialize(call Call, params Params, tiers ...LockTierConfig) error {
	logger.Debug("initializing staking", "caller", call.Caller,
		"start", params.StartTimestamp,
		"epochDuration", params.EpochDuration,
		"tiers", len(tiers),
	)

	err := s.atomic("initialize", func() error {
		if _, err := s.globalService.Initialize(params); err != nil {
			return err
		}
		for i, t := range tiers {
			if _, err := s.tierService.Add(t.MinStakingAmount, t.DurationEpochs, t.WeightBps); err != nil {
				return errors.Wrapf(err, "lock tier %d", i)
			}
		}
		return nil
	})
	if err != nil {
		logFailure("initialize failed", err)
		return err
	}

	logger.Info("initialized staking", "start", params.StartTimestamp, "epochDuration", params.EpochDuration, "tiers", len(tiers))
	return nil
}

// AddLockTier registers a lock tier and returns its id.
//
// Checks: initialized, minimum not negative, weight above 100%, duration positive and at
// most MaxLockDurationEpochs.
func (s *Staker) AddLockTier(call Call, minAmount *big.Int, durationEpochs uint32, weightBps uint32) (uint32, error) {
	logger.Debug("adding lock tier", "caller", call.Caller, "min", minAmount, "duration", durationEpochs, "weight", weightBps)

	var id uint32
	err := s.atomic("add_lock_tier", func() error {
		if _, _, err := s.begin(call); err != nil {
			return err
		}
		var err error
		id, err = s.tierService.Add(minAmount, durationEpochs, weightBps)
		return err
	})
	if err != nil {
		logFailure("add lock tier failed", err)
		return 0, err
	}

	logger.Info("added lock tier", "id", id)
	return id, nil
}

// RemoveLockTier stops a tier from accepting new stakes. Existing positions keep it.
//
// Checks: initialized, tier exists, tier still active.
func (s *Staker) RemoveLockTier(call Call, id uint32) error {
	logger.Debug("removing lock tier", "caller", call.Caller, "id", id)

	err := s.atomic("remove_lock_tier", func() error {
		if _, _, err := s.begin(call); err != nil {
			return err
		}
		return s.tierService.Remove(id)
	})
	if err != nil {
		logFailure("remove lock tier failed", err, "id", id)
		return err
	}

	logger.Info("removed lock tier", "id", id)
	return nil
}
