// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeledger/staker/delta"
	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/position"
	"github.com/vechain/stakeledger/staker/stakes"
	"github.com/vechain/stakeledger/staker/tier"
)

func validAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

// nodeWeightAt returns the node weight as of epoch without writing anything.
func (s *Staker) nodeWeightAt(n *node.Node, epoch uint32) (*big.Int, error) {
	entry, err := s.nodeService.Stake(n, epoch)
	if err != nil {
		return nil, err
	}
	return entry.Last, nil
}

// checkCapacity fails if adding weight would push the node above its max staking amount.
func (s *Staker) checkCapacity(n *node.Node, epoch uint32, weight *big.Int) error {
	current, err := s.nodeWeightAt(n, epoch)
	if err != nil {
		return err
	}
	if new(big.Int).Add(current, weight).Cmp(n.MaxStakingAmount) > 0 {
		return ErrNodeCapacity
	}
	return nil
}

// openPosition books a new position on an active node: its own weight, the operator
// fee for delegators, and the node and global totals. Excess weight of a lock is
// scheduled to leave every series at the tier's maturity epoch.
func (s *Staker) openPosition(g *globalstats.Global, n *node.Node, current uint32, p *position.Position, t *tier.Tier) error {
	ws := stakes.NewLiquidStake(p.BaseStaked)
	if t != nil {
		maturity, err := t.MaturityEpoch(current)
		if err != nil {
			return err
		}
		ws = t.Weigh(p.BaseStaked)
		p.MaturityEpoch = maturity
	}
	p.Excess = ws.Excess()

	own, ownExcess := ws.Weight(), ws.Excess()
	var operator *position.Position
	if p.IsDelegator() {
		split := ws.Split(n.DelegatorFeeBps)
		own, ownExcess = split.Own, split.OwnExcess
		p.FeeAmount, p.ExcessFee = split.BaseFee, split.ExcessFee

		var err error
		if operator, err = s.getPosition(n.OperatorPositionID); err != nil {
			return err
		}
		if err := s.positionService.AddWeight(operator, current, split.Fee); err != nil {
			return err
		}
		if p.MaturityEpoch != 0 {
			if err := s.positionService.ScheduleExpiry(operator, p.MaturityEpoch, split.ExcessFee); err != nil {
				return err
			}
		}
	}

	if err := s.positionService.Add(p, current); err != nil {
		return err
	}
	if err := s.positionService.SetWeight(p, current, own); err != nil {
		return err
	}
	if p.MaturityEpoch != 0 {
		if err := s.positionService.ScheduleExpiry(p, p.MaturityEpoch, ownExcess); err != nil {
			return err
		}
	}

	change := delta.NewStake(ws.Weight(), ws.Base(), ws.Excess(), p.MaturityEpoch)
	if err := s.nodeService.ApplyChange(n, current, change); err != nil {
		return err
	}
	if err := s.globalService.ApplyChange(g, current, change); err != nil {
		return err
	}
	if p.IsDelegator() {
		if err := s.nodeService.AddDelegator(n.ID, p.ID); err != nil {
			return err
		}
	}
	return s.saveAll(g, n, p, operator)
}

// Stake delegates amount to a node, optionally under a lock tier, and returns the
// new position id.
//
// Checks: initialized, node exists, tier exists, amount positive, amount meets the
// tier minimum, lock maturity in range, caller whitelisted when the node requires it, node capacity,
// node active, tier active.
func (s *Staker) Stake(call Call, nodeID uint64, amount *big.Int, tierID uint32) (uint64, error) {
	logger.Debug("staking", "caller", call.Caller, "node", nodeID, "amount", amount, "tier", tierID)

	var id uint64
	err := s.atomic("stake", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		n, err := s.getNode(nodeID)
		if err != nil {
			return err
		}
		t, err := s.getTier(tierID)
		if err != nil {
			return err
		}
		if !validAmount(amount) {
			return ErrInvalidAmount
		}
		if t != nil && amount.Cmp(t.MinStakingAmount) < 0 {
			return ErrBelowTierMinimum
		}
		if t != nil {
			if _, err := t.MaturityEpoch(current); err != nil {
				return err
			}
		}
		if n.DelegatorWhitelistEnabled {
			ok, err := s.nodeService.IsWhitelisted(n.ID, call.Caller)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotWhitelisted
			}
		}
		weight := stakes.NewLiquidStake(amount).Weight()
		if t != nil {
			weight = t.Weigh(amount).Weight()
		}
		if err := s.checkCapacity(n, current, weight); err != nil {
			return err
		}
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		if t != nil && !t.Active {
			return ErrTierNotActive
		}

		id, err = s.withMintedPosition(call.Caller, func(id uint64) error {
			p := &position.Position{
				ID:                    id,
				Kind:                  position.KindDelegator,
				NodeID:                n.ID,
				Owner:                 call.Caller,
				LockTierID:            tierID,
				BaseStaked:            new(big.Int).Set(amount),
				StakingStartTimestamp: call.Timestamp,
			}
			if err := s.openPosition(g, n, current, p, t); err != nil {
				return err
			}
			return s.deposit(call.Caller, amount)
		})
		return err
	})
	if err != nil {
		logFailure("stake failed", err, "node", nodeID)
		return 0, err
	}

	logger.Info("staked", "node", nodeID, "position", id)
	return id, nil
}

// liquidFee returns the operator fee owed on a liquid base.
func liquidFee(base *big.Int, feeBps uint32) *big.Int {
	return stakes.MulBps(base, feeBps)
}

// resize moves the base of a liquid position on an active node by amount, which may be
// negative. The delegator fee is recomputed on the new base so rounding never drifts.
func (s *Staker) resize(g *globalstats.Global, n *node.Node, p *position.Position, current uint32, amount *big.Int) error {
	newBase := new(big.Int).Add(p.BaseStaked, amount)
	own := new(big.Int).Set(amount)

	var operator *position.Position
	if p.IsDelegator() {
		newFee := liquidFee(newBase, n.DelegatorFeeBps)
		feeDelta := new(big.Int).Sub(newFee, p.FeeAmount)
		own.Sub(own, feeDelta)
		p.FeeAmount = newFee

		var err error
		if operator, err = s.getPosition(n.OperatorPositionID); err != nil {
			return err
		}
		if err := s.positionService.AddWeight(operator, current, feeDelta); err != nil {
			return err
		}
	}
	if err := s.positionService.AddWeight(p, current, own); err != nil {
		return err
	}
	p.BaseStaked = newBase

	change := delta.NewStake(amount, amount, nil, 0)
	if err := s.nodeService.ApplyChange(n, current, change); err != nil {
		return err
	}
	if err := s.globalService.ApplyChange(g, current, change); err != nil {
		return err
	}
	return s.saveAll(g, n, p, operator)
}

// IncreaseStake adds amount to a liquid position.
//
// Checks: initialized, position exists, amount positive, operator stays within the
// staking range, node capacity, node active, position liquid.
func (s *Staker) IncreaseStake(call Call, positionID uint64, amount *big.Int) error {
	logger.Debug("increasing stake", "caller", call.Caller, "position", positionID, "amount", amount)

	err := s.atomic("increase_stake", func() error {
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
		if !validAmount(amount) {
			return ErrInvalidAmount
		}
		if !p.IsDelegator() && new(big.Int).Add(p.BaseStaked, amount).Cmp(g.Params.MaxStakingAmount) > 0 {
			return ErrStakeOutOfRange
		}
		if err := s.checkCapacity(n, current, amount); err != nil {
			return err
		}
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		if p.LockTierID != tier.Liquid {
			return ErrLockedPosition
		}

		if err := s.settle(g, n, p, current); err != nil {
			return err
		}
		if err := s.resize(g, n, p, current, amount); err != nil {
			return err
		}
		return s.deposit(call.Caller, amount)
	})
	if err != nil {
		logFailure("increase stake failed", err, "position", positionID)
		return err
	}

	logger.Info("increased stake", "position", positionID)
	return nil
}

// DecreaseStake withdraws part of a liquid position's principal.
//
// Checks: initialized, position exists, amount positive and below the base, operator
// of a slashed node, operator stays within the staking range, node active, position liquid.
func (s *Staker) DecreaseStake(call Call, positionID uint64, amount *big.Int) error {
	logger.Debug("decreasing stake", "caller", call.Caller, "position", positionID, "amount", amount)

	err := s.atomic("decrease_stake", func() error {
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
		if !validAmount(amount) {
			return ErrInvalidAmount
		}
		if !p.IsDelegator() && n.Status == node.StatusSlashed {
			return ErrSlashedOperatorPrincipal
		}
		remaining := new(big.Int).Sub(p.BaseStaked, amount)
		if remaining.Sign() <= 0 {
			return ErrStakeOutOfRange
		}
		if !p.IsDelegator() && remaining.Cmp(g.Params.MinStakingAmount) < 0 {
			return ErrStakeOutOfRange
		}
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		if p.LockTierID != tier.Liquid {
			return ErrLockedPosition
		}

		if err := s.settle(g, n, p, current); err != nil {
			return err
		}
		if err := s.resize(g, n, p, current, new(big.Int).Neg(amount)); err != nil {
			return err
		}
		return s.withdraw(call.Caller, amount)
	})
	if err != nil {
		logFailure("decrease stake failed", err, "position", positionID)
		return err
	}

	logger.Info("decreased stake", "position", positionID)
	return nil
}

// endNode takes every weight of the node out of the global totals, cancels its pending
// excess and leaves it in a terminal status.
func (s *Staker) endNode(g *globalstats.Global, n *node.Node, current uint32, status node.Status, timestamp uint64) error {
	if err := s.nodeService.Roll(n, current); err != nil {
		return err
	}
	if err := s.globalService.Roll(g, current); err != nil {
		return err
	}
	weight, err := s.nodeService.Current(n)
	if err != nil {
		return err
	}
	if err := s.fixExcessWeights(n); err != nil {
		return err
	}

	change := delta.NewChange()
	change.Weight.Neg(weight)
	change.Base.Neg(n.BaseStaked)
	if err := s.globalService.ApplyChange(g, current, change); err != nil {
		return err
	}
	if err := s.nodeService.SetWeight(n, current, new(big.Int)); err != nil {
		return err
	}

	n.Status = status
	n.EndTimestamp = timestamp
	n.EndEpoch = current
	return s.nodeService.Deactivate(n)
}

// fixExcessWeights cancels every excess the node still has scheduled, both on the
// node and on the global series.
func (s *Staker) fixExcessWeights(n *node.Node) error {
	cleared, err := s.nodeService.ClearExpiries(n)
	if err != nil {
		return err
	}
	for _, pending := range cleared {
		if err := s.globalService.CancelExpiry(pending.Epoch, pending.Amount); err != nil {
			return err
		}
	}
	return nil
}

// closePosition zeroes a position and takes it out of its node and the global totals.
// Weight on an ended node already left the totals when the node ended.
func (s *Staker) closePosition(g *globalstats.Global, n *node.Node, p *position.Position, current uint32) error {
	locked := p.IsLocked(current)
	if err := s.positionService.SetWeight(p, current, new(big.Int)); err != nil {
		return err
	}
	if locked {
		if err := s.positionService.CancelExpiry(p, p.MaturityEpoch, p.OwnExcess()); err != nil {
			return err
		}
	}

	switch n.Status {
	case node.StatusActive:
		var operator *position.Position
		if p.IsDelegator() {
			var err error
			if operator, err = s.getPosition(n.OperatorPositionID); err != nil {
				return err
			}
			fee := new(big.Int).Set(p.FeeAmount)
			if locked {
				fee.Add(fee, p.ExcessFee)
				if err := s.positionService.CancelExpiry(operator, p.MaturityEpoch, p.ExcessFee); err != nil {
					return err
				}
			}
			if err := s.positionService.AddWeight(operator, current, new(big.Int).Neg(fee)); err != nil {
				return err
			}
		}

		var change *delta.Change
		if locked {
			change = delta.NewStake(new(big.Int).Add(p.BaseStaked, p.Excess), p.BaseStaked, p.Excess, p.MaturityEpoch)
		} else {
			change = delta.NewStake(p.BaseStaked, p.BaseStaked, nil, 0)
		}
		if err := s.nodeService.ApplyChange(n, current, change.Neg()); err != nil {
			return err
		}
		if err := s.globalService.ApplyChange(g, current, change.Neg()); err != nil {
			return err
		}
		if operator != nil {
			if err := s.positionService.Save(operator); err != nil {
				return err
			}
		}
	case node.StatusInactive:
		if err := s.nodeService.AddBase(n, new(big.Int).Neg(p.BaseStaked)); err != nil {
			return err
		}
	}

	if p.IsDelegator() {
		return s.nodeService.RemoveDelegator(n.ID, p.ID)
	}
	return nil
}

// principalOf returns the principal paid back when the position closes.
func principalOf(n *node.Node, p *position.Position) *big.Int {
	if n.Status != node.StatusSlashed {
		return new(big.Int).Set(p.BaseStaked)
	}
	if !p.IsDelegator() {
		return new(big.Int)
	}
	return stakes.MulBps(p.BaseStaked, stakes.BasisPoints-n.SlashedPercentageBps)
}

// Withdraw closes a position and pays out its principal and every reward owed to it.
// The operator closing its position on an active node ends the node first.
// A locked position may leave before maturity, forfeiting its excess weight.
//
// Checks: initialized, position exists, node exists.
func (s *Staker) Withdraw(call Call, positionID uint64) (*big.Int, error) {
	logger.Debug("withdrawing", "caller", call.Caller, "position", positionID)

	payout := new(big.Int)
	err := s.atomic("withdraw", func() error {
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

		if !p.IsDelegator() && n.IsActive() {
			if err := s.endNode(g, n, current, node.StatusInactive, call.Timestamp); err != nil {
				return err
			}
			logger.Info("node exited", "node", n.ID)
		}
		if err := s.settle(g, n, p, current); err != nil {
			return err
		}
		if err := s.recordStuckShares(g, n, p, current); err != nil {
			return err
		}
		if err := s.closePosition(g, n, p, current); err != nil {
			return err
		}

		payout.Add(principalOf(n, p), p.UnclaimedRewards)
		s.positionService.Delete(p.ID)
		if err := s.saveAll(g, n); err != nil {
			return err
		}
		if err := s.withdraw(call.Caller, payout); err != nil {
			return err
		}
		return s.burn(p.ID)
	})
	if err != nil {
		logFailure("withdraw failed", err, "position", positionID)
		return nil, err
	}

	logger.Info("withdrew", "position", positionID, "payout", payout)
	return payout, nil
}
