// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/vechain/stakeledger/thor"

// Capability is the role an external policy layer authorized the caller for.
// The ledger records it in logs but never checks it.
type Capability uint8

const (
	CapabilityNone Capability = iota
	CapabilityAdmin
	CapabilityRewardsSetter
	CapabilityPositionOwner
	CapabilityModule
)

func (c Capability) String() string {
	switch c {
	case CapabilityAdmin:
		return "admin"
	case CapabilityRewardsSetter:
		return "rewards-setter"
	case CapabilityPositionOwner:
		return "position-owner"
	case CapabilityModule:
		return "module"
	default:
		return "none"
	}
}

// Call is the context every operation runs in.
type Call struct {
	Caller     thor.Address
	Capability Capability
	Timestamp  uint64
}
