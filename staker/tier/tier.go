// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tier

import (
	gomath "math"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/staker/stakes"
)

const (
	// Liquid is the tier id of stakes without a lock.
	Liquid uint32 = 0
	// MaxDurationEpochs bounds a lock so its maturity stays far from the epoch range end.
	MaxDurationEpochs uint32 = 1 << 24
)

// Tier is a lock commitment. Removed tiers keep their record so positions
// referencing them stay valid.
type Tier struct {
	ID               uint32
	MinStakingAmount *big.Int
	DurationEpochs   uint32
	WeightBps        uint32
	Active           bool
}

// Weigh returns the weighted stake of base under this tier.
func (t *Tier) Weigh(base *big.Int) *stakes.WeightedStake {
	return stakes.NewWeightedStake(base, t.WeightBps)
}

// MaturityEpoch is the epoch a lock taken at stakeEpoch stops being weighted.
// It fails when that epoch does not fit an epoch number.
func (t *Tier) MaturityEpoch(stakeEpoch uint32) (uint32, error) {
	maturity, overflow := math.SafeAdd(uint64(stakeEpoch), 1+uint64(t.DurationEpochs))
	if overflow || maturity > gomath.MaxUint32 {
		return 0, ErrMaturityOutOfRange
	}
	return uint32(maturity), nil
}
