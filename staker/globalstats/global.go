// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/vechain/stakeledger/staker/epoch"
)

// Params are fixed when the ledger is initialized.
type Params struct {
	MinStakingAmount    *big.Int
	MaxStakingAmount    *big.Int
	MinDelegationFeeBps uint32
	MaxDelegationFeeBps uint32
	StartTimestamp      uint64
	EpochDuration       uint64
}

// Global is the ledger wide record.
type Global struct {
	Params                       Params
	TotalBaseStaked              *big.Int
	LastEpochStakingUpdated      uint32
	LastEpochRewardsUpdated      uint32
	LastEpochStuckRewardsUpdated uint32
}

func (g *Global) LastEpochUpdated() uint32 {
	return g.LastEpochStakingUpdated
}

func (g *Global) SetLastEpochUpdated(e uint32) {
	g.LastEpochStakingUpdated = e
}

// Clock returns the epoch clock of the ledger.
func (g *Global) Clock() epoch.Clock {
	return epoch.NewClock(g.Params.StartTimestamp, g.Params.EpochDuration)
}
