// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/stakes"
)

// Slash ends an active node as slashed. The operator loses its whole principal and
// every delegator loses percentageBps of theirs. The slashed amount is released from
// custody and returned.
//
// Checks: initialized, node exists, percentage at most 100%, node active.
func (s *Staker) Slash(call Call, nodeID uint64, percentageBps uint32) (*big.Int, error) {
	logger.Debug("slashing node", "caller", call.Caller, "node", nodeID, "percentage", percentageBps)

	var slashed *big.Int
	err := s.atomic("slash", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		n, err := s.getNode(nodeID)
		if err != nil {
			return err
		}
		if percentageBps > stakes.BasisPoints {
			return ErrSlashPercentage
		}
		if !n.IsActive() {
			return ErrNodeNotActive
		}
		operator, err := s.getPosition(n.OperatorPositionID)
		if err != nil {
			return err
		}

		delegated := new(big.Int).Sub(n.BaseStaked, operator.BaseStaked)
		slashed = new(big.Int).Add(operator.BaseStaked, stakes.MulBps(delegated, percentageBps))

		if err := s.endNode(g, n, current, node.StatusSlashed, call.Timestamp); err != nil {
			return err
		}
		n.SlashedPercentageBps = percentageBps
		n.BaseStaked = new(big.Int)
		if err := s.saveAll(g, n); err != nil {
			return err
		}
		return s.reduceLocked(slashed)
	})
	if err != nil {
		logFailure("slash failed", err, "node", nodeID)
		return nil, err
	}

	metricSlashedNodes().Add(1)
	logger.Info("slashed node", "node", nodeID, "amount", slashed)
	return slashed, nil
}
