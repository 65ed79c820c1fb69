// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusActive
	StatusInactive
	StatusSlashed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusSlashed:
		return "slashed"
	default:
		return "unknown"
	}
}

// Node aggregates one operator position and its delegators.
type Node struct {
	ID                        uint64
	Operator                  thor.Address
	OperatorPositionID        uint64
	BaseStaked                *big.Int
	MaxStakingAmount          *big.Int
	DelegatorFeeBps           uint32
	Status                    Status
	SlashedPercentageBps      uint32
	EndTimestamp              uint64
	EndEpoch                  uint32
	LastEpochStakingUpdated   uint32
	DelegatorWhitelistEnabled bool
	ExpiryEpochs              []uint32 // epochs holding pending excess expiry, ascending
}

func (n *Node) LastEpochUpdated() uint32 {
	return n.LastEpochStakingUpdated
}

func (n *Node) SetLastEpochUpdated(e uint32) {
	n.LastEpochStakingUpdated = e
}

// IsActive returns whether the node still accrues stake and rewards.
func (n *Node) IsActive() bool {
	return n.Status == StatusActive
}

// RewardLimit is the first epoch the node no longer earns rewards for,
// the current epoch for an active node.
func (n *Node) RewardLimit(current uint32) uint32 {
	if n.IsActive() {
		return current
	}
	return n.EndEpoch
}

// addExpiryEpoch records e, keeping the list sorted and unique.
func (n *Node) addExpiryEpoch(e uint32) {
	for i, existing := range n.ExpiryEpochs {
		if existing == e {
			return
		}
		if existing > e {
			n.ExpiryEpochs = append(n.ExpiryEpochs[:i], append([]uint32{e}, n.ExpiryEpochs[i:]...)...)
			return
		}
	}
	n.ExpiryEpochs = append(n.ExpiryEpochs, e)
}

// pruneExpiryEpochs drops epochs the node has already been rolled through.
func (n *Node) pruneExpiryEpochs() {
	i := 0
	for i < len(n.ExpiryEpochs) && n.ExpiryEpochs[i] <= n.LastEpochStakingUpdated {
		i++
	}
	if i > 0 {
		n.ExpiryEpochs = append([]uint32(nil), n.ExpiryEpochs[i:]...)
	}
}
