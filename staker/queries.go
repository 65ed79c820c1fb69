// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math"
	"math/big"

	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/position"
	"github.com/vechain/stakeledger/staker/request"
	"github.com/vechain/stakeledger/staker/rollup"
	"github.com/vechain/stakeledger/staker/tier"
	"github.com/vechain/stakeledger/thor"
)

func (s *Staker) loadGlobal() (*globalstats.Global, error) {
	g, err := s.globalService.Get()
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotInitialized
	}
	return g, nil
}

// Global returns the global record.
func (s *Staker) Global() (g *globalstats.Global, err error) {
	err = s.view(func() error {
		g, err = s.loadGlobal()
		return err
	})
	return
}

// CurrentEpoch returns the epoch timestamp falls in.
func (s *Staker) CurrentEpoch(timestamp uint64) (epoch uint32, err error) {
	err = s.view(func() error {
		g, err := s.loadGlobal()
		if err != nil {
			return err
		}
		epoch = g.Clock().EpochAt(timestamp)
		return nil
	})
	return
}

func (s *Staker) Node(id uint64) (n *node.Node, err error) {
	err = s.view(func() error {
		n, err = s.getNode(id)
		return err
	})
	return
}

func (s *Staker) Position(id uint64) (p *position.Position, err error) {
	err = s.view(func() error {
		p, err = s.getPosition(id)
		return err
	})
	return
}

// IsDelegator reports whether the position belongs to a delegator. The registry uses it
// to refuse transfers of operator positions.
func (s *Staker) IsDelegator(positionID uint64) (ok bool, err error) {
	err = s.view(func() error {
		p, err := s.getPosition(positionID)
		if err != nil {
			return err
		}
		ok = p.IsDelegator()
		return nil
	})
	return
}

func (s *Staker) NodeRequest(id uint64) (r *request.Request, err error) {
	err = s.view(func() error {
		r, err = s.requestService.Get(id)
		if err == nil && r == nil {
			err = ErrRequestNotFound
		}
		return err
	})
	return
}

func (s *Staker) PendingRequestIDs() (ids []uint64, err error) {
	err = s.view(func() error {
		ids, err = s.requestService.PendingIDs()
		return err
	})
	return
}

func (s *Staker) LockTier(id uint32) (t *tier.Tier, err error) {
	err = s.view(func() error {
		t, err = s.tierService.Get(id)
		if err == nil && t == nil {
			err = ErrTierNotFound
		}
		return err
	})
	return
}

func (s *Staker) ActiveLockTierIDs() (ids []uint32, err error) {
	err = s.view(func() error {
		ids, err = s.tierService.ActiveIDs()
		return err
	})
	return
}

func (s *Staker) ActiveNodeIDs() (ids []uint64, err error) {
	err = s.view(func() error {
		ids, err = s.nodeService.ActiveIDs()
		return err
	})
	return
}

// NodeDelegators lists the delegator positions open on a node.
func (s *Staker) NodeDelegators(nodeID uint64) (ids []uint64, err error) {
	err = s.view(func() error {
		if _, err := s.getNode(nodeID); err != nil {
			return err
		}
		ids, err = s.nodeService.Delegators(nodeID)
		return err
	})
	return
}

func (s *Staker) IsWhitelisted(nodeID uint64, addr thor.Address) (ok bool, err error) {
	err = s.view(func() error {
		if _, err := s.getNode(nodeID); err != nil {
			return err
		}
		ok, err = s.nodeService.IsWhitelisted(nodeID, addr)
		return err
	})
	return
}

// GlobalStake returns the global last/min weight of epoch.
func (s *Staker) GlobalStake(epoch uint32) (entry *rollup.Entry, err error) {
	err = s.view(func() error {
		g, err := s.loadGlobal()
		if err != nil {
			return err
		}
		entry, err = s.globalService.Stake(g, epoch)
		return err
	})
	return
}

// NodeStake returns the node last/min weight of epoch.
func (s *Staker) NodeStake(nodeID uint64, epoch uint32) (entry *rollup.Entry, err error) {
	err = s.view(func() error {
		n, err := s.getNode(nodeID)
		if err != nil {
			return err
		}
		entry, err = s.nodeService.Stake(n, epoch)
		return err
	})
	return
}

// PositionStake returns the position last/min weight of epoch.
func (s *Staker) PositionStake(positionID uint64, epoch uint32) (entry *rollup.Entry, err error) {
	err = s.view(func() error {
		p, err := s.getPosition(positionID)
		if err != nil {
			return err
		}
		entry, err = s.positionService.Stake(p, epoch)
		return err
	})
	return
}

// CalculateRewards returns the rewards the position earned over epochs [from, to),
// whether already settled or not. Epochs without rewards set yet contribute zero.
func (s *Staker) CalculateRewards(positionID uint64, from, to uint32) (reward *big.Int, err error) {
	err = s.view(func() error {
		g, err := s.loadGlobal()
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
		reward, err = s.calculate(g, p, from, to, n.RewardLimit(math.MaxUint32))
		return err
	})
	return
}

// ClaimableRewards returns what ClaimRewards would pay out now.
func (s *Staker) ClaimableRewards(positionID uint64) (reward *big.Int, err error) {
	err = s.view(func() error {
		g, err := s.loadGlobal()
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
		pending, err := s.calculate(g, p, p.LastEpochRewardsUpdated+1, math.MaxUint32, n.RewardLimit(math.MaxUint32))
		if err != nil {
			return err
		}
		reward = pending.Add(pending, p.UnclaimedRewards)
		return nil
	})
	return
}

// TotalRewards returns the rewards set for epoch.
func (s *Staker) TotalRewards(epoch uint32) (amount *big.Int, err error) {
	err = s.view(func() error {
		if _, err := s.loadGlobal(); err != nil {
			return err
		}
		amount, err = s.globalService.TotalRewards(epoch)
		return err
	})
	return
}

// StuckRewardShares returns the weight of epoch that can no longer claim its rewards.
func (s *Staker) StuckRewardShares(epoch uint32) (shares *big.Int, err error) {
	err = s.view(func() error {
		if _, err := s.loadGlobal(); err != nil {
			return err
		}
		shares, err = s.globalService.StuckShares(epoch)
		return err
	})
	return
}
