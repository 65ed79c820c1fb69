// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/position"
)

// epochReward returns the share of the rewards of epoch owed to a weight of shares.
// Epochs without any global weight pay nothing.
func (s *Staker) epochReward(g *globalstats.Global, epoch uint32, shares *big.Int) (*big.Int, error) {
	if shares.Sign() == 0 {
		return new(big.Int), nil
	}
	total, err := s.globalService.TotalRewards(epoch)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return new(big.Int), nil
	}
	global, err := s.globalService.Stake(g, epoch)
	if err != nil {
		return nil, err
	}
	if global.Min.Sign() == 0 {
		return new(big.Int), nil
	}
	reward := new(big.Int).Mul(total, shares)
	return reward.Quo(reward, global.Min), nil
}

// calculate sums the rewards of p over epochs [from, to). Epoch 1 and below never pay,
// epochs whose rewards are not set yet contribute zero and so do epochs from limit on.
func (s *Staker) calculate(g *globalstats.Global, p *position.Position, from, to, limit uint32) (*big.Int, error) {
	sum := new(big.Int)
	if from < 2 {
		from = 2
	}
	to = min(to, limit, g.LastEpochRewardsUpdated+1)
	for e := from; e < to; e++ {
		entry, err := s.positionService.Stake(p, e)
		if err != nil {
			return nil, err
		}
		reward, err := s.epochReward(g, e, entry.Min)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, reward)
	}
	return sum, nil
}

// settle books every final reward of p into its unclaimed balance and moves its
// reward cursor past them.
func (s *Staker) settle(g *globalstats.Global, n *node.Node, p *position.Position, current uint32) error {
	limit := n.RewardLimit(current)
	to := min(limit, g.LastEpochRewardsUpdated+1)
	if to <= p.LastEpochRewardsUpdated+1 {
		return nil
	}
	reward, err := s.calculate(g, p, p.LastEpochRewardsUpdated+1, to, limit)
	if err != nil {
		return err
	}
	p.UnclaimedRewards = new(big.Int).Add(p.UnclaimedRewards, reward)
	p.CumulativeRewards = new(big.Int).Add(p.CumulativeRewards, reward)
	p.LastEpochRewardsUpdated = to - 1
	return nil
}

// recordStuckShares marks the weight p held in epochs whose rewards are still unset.
// Once p is gone nobody can claim that part of those rewards.
func (s *Staker) recordStuckShares(g *globalstats.Global, n *node.Node, p *position.Position, current uint32) error {
	limit := n.RewardLimit(current)
	from := max(p.LastEpochRewardsUpdated, g.LastEpochRewardsUpdated) + 1
	for e := from; e < limit; e++ {
		entry, err := s.positionService.Stake(p, e)
		if err != nil {
			return err
		}
		if err := s.globalService.AddStuckShares(e, entry.Min); err != nil {
			return err
		}
	}
	return nil
}

// SetRewards records the rewards of the next elapsed epoch and deposits them
// from the caller.
//
// Checks: initialized, amount not negative, epoch follows the last rewarded epoch
// and has ended.
func (s *Staker) SetRewards(call Call, epoch uint32, amount *big.Int) error {
	logger.Debug("setting rewards", "caller", call.Caller, "epoch", epoch, "amount", amount)

	err := s.atomic("set_rewards", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		if amount == nil || amount.Sign() < 0 {
			return ErrInvalidAmount
		}
		if epoch != g.LastEpochRewardsUpdated+1 || epoch >= current {
			return ErrRewardsEpoch
		}
		if err := s.globalService.Roll(g, current); err != nil {
			return err
		}
		if err := s.globalService.SetRewards(g, epoch, amount); err != nil {
			return err
		}
		if err := s.globalService.Save(g); err != nil {
			return err
		}
		return s.deposit(call.Caller, amount)
	})
	if err != nil {
		logFailure("set rewards failed", err, "epoch", epoch)
		return err
	}

	logger.Info("set rewards", "epoch", epoch, "amount", amount)
	return nil
}

// UpdateStuckRewards releases the rewards no position can ever claim, for every
// rewarded epoch not processed yet, and returns the released amount.
//
// Checks: initialized.
func (s *Staker) UpdateStuckRewards(call Call) (*big.Int, error) {
	logger.Debug("updating stuck rewards", "caller", call.Caller)

	released := new(big.Int)
	err := s.atomic("update_stuck_rewards", func() error {
		g, _, err := s.begin(call)
		if err != nil {
			return err
		}
		for e := g.LastEpochStuckRewardsUpdated + 1; e <= g.LastEpochRewardsUpdated; e++ {
			shares, err := s.globalService.StuckShares(e)
			if err != nil {
				return err
			}
			reward, err := s.epochReward(g, e, shares)
			if err != nil {
				return err
			}
			released.Add(released, reward)
		}
		g.LastEpochStuckRewardsUpdated = g.LastEpochRewardsUpdated
		if err := s.globalService.Save(g); err != nil {
			return err
		}
		return s.reduceLocked(released)
	})
	if err != nil {
		logFailure("update stuck rewards failed", err)
		return nil, err
	}

	logger.Info("updated stuck rewards", "released", released)
	return released, nil
}

// ClaimRewards settles the position and pays out its unclaimed rewards.
//
// Checks: initialized, position exists, node exists.
func (s *Staker) ClaimRewards(call Call, positionID uint64) (*big.Int, error) {
	logger.Debug("claiming rewards", "caller", call.Caller, "position", positionID)

	var claimed *big.Int
	err := s.atomic("claim_rewards", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		p, err := s.getPosition(positionID)
		if err != nil {
			return err
		}
		n, err := s.getNode(p.NodeID)
		if err != nil {
			return err
		}
		if err := s.settle(g, n, p, current); err != nil {
			return err
		}
		claimed = p.UnclaimedRewards
		p.UnclaimedRewards = new(big.Int)
		if err := s.positionService.Save(p); err != nil {
			return err
		}
		return s.withdraw(call.Caller, claimed)
	})
	if err != nil {
		logFailure("claim rewards failed", err, "position", positionID)
		return nil, err
	}

	logger.Info("claimed rewards", "position", positionID, "amount", claimed)
	return claimed, nil
}
