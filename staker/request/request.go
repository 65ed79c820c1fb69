// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package request

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusApproved
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Request is an operator application for a node. The id doubles as the node id
// once approved.
type Request struct {
	ID               uint64
	Owner            thor.Address
	PositionID       uint64
	DelegatorFeeBps  uint32
	Amount           *big.Int
	LockTierID       uint32
	RequestTimestamp uint64
	Status           Status
}
