// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/thor"
)

// updateNode runs fn on an active node and saves it afterwards.
func (s *Staker) updateNode(op string, call Call, nodeID uint64, fn func(n *node.Node, current uint32) error) error {
	return s.atomic(op, func() error {
		_, current, err := s.begin(call)
		if err != nil {
			return err
		}
		n, err := s.getNode(nodeID)
		if err != nil {
			return err
		}
		if err := fn(n, current); err != nil {
			return err
		}
		return s.nodeService.Save(n)
	})
}

// SetDelegatorWhitelistEnabled turns the delegator whitelist of a node on or off.
//
// Checks: initialized, node exists, node active.
func (s *Staker) SetDelegatorWhitelistEnabled(call Call, nodeID uint64, enabled bool) error {
	logger.Debug("setting delegator whitelist", "caller", call.Caller, "node", nodeID, "enabled", enabled)

	err := s.updateNode("set_whitelist_enabled", call, nodeID, func(n *node.Node, _ uint32) error {
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		n.DelegatorWhitelistEnabled = enabled
		return nil
	})
	if err != nil {
		logFailure("set delegator whitelist failed", err, "node", nodeID)
		return err
	}

	logger.Info("set delegator whitelist", "node", nodeID, "enabled", enabled)
	return nil
}

func (s *Staker) setWhitelisted(op string, call Call, nodeID uint64, addr thor.Address, allowed bool) error {
	logger.Debug("updating whitelist", "caller", call.Caller, "node", nodeID, "address", addr, "allowed", allowed)

	err := s.updateNode(op, call, nodeID, func(n *node.Node, _ uint32) error {
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		return s.nodeService.SetWhitelisted(n.ID, addr, allowed)
	})
	if err != nil {
		logFailure("update whitelist failed", err, "node", nodeID)
		return err
	}

	logger.Info("updated whitelist", "node", nodeID, "address", addr, "allowed", allowed)
	return nil
}

// AddToWhitelist allows addr to delegate to the node while its whitelist is enabled.
//
// Checks: initialized, node exists, node active.
func (s *Staker) AddToWhitelist(call Call, nodeID uint64, addr thor.Address) error {
	return s.setWhitelisted("add_to_whitelist", call, nodeID, addr, true)
}

// RemoveFromWhitelist revokes addr. Existing positions of addr are not affected.
//
// Checks: initialized, node exists, node active.
func (s *Staker) RemoveFromWhitelist(call Call, nodeID uint64, addr thor.Address) error {
	return s.setWhitelisted("remove_from_whitelist", call, nodeID, addr, false)
}

// SetNodeMaxStakingAmount changes the weighted capacity of a node. It can not go
// below the weight the node holds now or above the global max staking amount.
//
// Checks: initialized, node exists, amount positive, amount within range, node active.
func (s *Staker) SetNodeMaxStakingAmount(call Call, nodeID uint64, amount *big.Int) error {
	logger.Debug("setting node max staking amount", "caller", call.Caller, "node", nodeID, "amount", amount)

	err := s.atomic("set_node_max_staking", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		n, err := s.getNode(nodeID)
		if err != nil {
			return err
		}
		if !validAmount(amount) {
			return ErrInvalidAmount
		}
		weight, err := s.nodeWeightAt(n, current)
		if err != nil {
			return err
		}
		if amount.Cmp(weight) < 0 || amount.Cmp(g.Params.MaxStakingAmount) > 0 {
			return ErrInvalidMaxStaking
		}
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		n.MaxStakingAmount = new(big.Int).Set(amount)
		return s.nodeService.Save(n)
	})
	if err != nil {
		logFailure("set node max staking amount failed", err, "node", nodeID)
		return err
	}

	logger.Info("set node max staking amount", "node", nodeID, "amount", amount)
	return nil
}

// Sync rolls a node and the global series up to the epoch of the call, applying
// every excess expiry that came due. Rollups are lazy, so this only bounds the
// work later operations have to do.
//
// Checks: initialized, node exists.
func (s *Staker) Sync(call Call, nodeID uint64) error {
	logger.Debug("syncing node", "caller", call.Caller, "node", nodeID)

	err := s.atomic("sync", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		n, err := s.getNode(nodeID)
		if err != nil {
			return err
		}
		if err := s.nodeService.Roll(n, current); err != nil {
			return err
		}
		if err := s.globalService.Roll(g, current); err != nil {
			return err
		}
		return s.saveAll(g, n)
	})
	if err != nil {
		logFailure("sync failed", err, "node", nodeID)
		return err
	}
	return nil
}

// Housekeep rolls the global series up to the epoch of the call.
//
// Checks: initialized.
func (s *Staker) Housekeep(call Call) error {
	err := s.atomic("housekeep", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		if err := s.globalService.Roll(g, current); err != nil {
			return err
		}
		return s.globalService.Save(g)
	})
	if err != nil {
		logFailure("housekeep failed", err)
		return err
	}
	logger.Debug("housekeep done", "timestamp", call.Timestamp)
	return nil
}
