// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/staker/request"
	"github.com/vechain/stakeledger/staker/rollup"
	"github.com/vechain/stakeledger/staker/tier"
)

// Every operation checks, in order: the ledger is initialized, referenced records
// exist, the amount or epoch is well formed, domain rules hold, and finally the
// records are in a state that allows the operation. The first failing check is
// the one reported.
var (
	// preconditions
	ErrNotInitialized     = reverts.New("staking not initialized")
	ErrTimestampRegressed = rollup.ErrEpochRegressed
	ErrNodeNotFound       = reverts.New("node not found")
	ErrPositionNotFound   = reverts.New("position not found")
	ErrRequestNotFound    = request.ErrRequestNotFound
	ErrTierNotFound       = tier.ErrTierNotFound
	ErrInvalidAmount      = reverts.New("amount must be positive")

	// domain rules
	ErrInvalidParams            = globalstats.ErrInvalidParams
	ErrTierWeightTooLow         = tier.ErrWeightTooLow
	ErrInvalidTierDuration      = tier.ErrInvalidDuration
	ErrMaturityOutOfRange       = tier.ErrMaturityOutOfRange
	ErrStakeOutOfRange          = reverts.NewDomain("stake amount out of range")
	ErrBelowTierMinimum         = reverts.NewDomain("stake amount below lock tier minimum")
	ErrFeeOutOfRange            = reverts.NewDomain("delegation fee out of range")
	ErrNodeCapacity             = reverts.NewDomain("node staking capacity exceeded")
	ErrInvalidMaxStaking        = reverts.NewDomain("node max staking amount out of range")
	ErrNotWhitelisted           = reverts.NewDomain("caller is not whitelisted by the node")
	ErrSlashPercentage          = reverts.NewDomain("slash percentage exceeds 100%")
	ErrRewardsEpoch             = reverts.NewDomain("rewards must be set for the next elapsed epoch")
	ErrSlashedOperatorPrincipal = reverts.NewDomain("operator of a slashed node has no principal to withdraw")

	// state machine
	ErrAlreadyInitialized = globalstats.ErrAlreadyInitialized
	ErrNodeNotActive      = reverts.NewState("node is not active")
	ErrRequestNotPending  = request.ErrRequestNotPending
	ErrPendingRequest     = request.ErrPendingRequest
	ErrTierRemoved        = tier.ErrTierRemoved
	ErrTierNotActive      = reverts.NewState("lock tier is not active")
	ErrLockedPosition     = reverts.NewState("stake of a locked position cannot change")
)
