// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindOperator
	KindDelegator
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindDelegator:
		return "delegator"
	default:
		return "unknown"
	}
}

// Position is a single staking commitment. Its series holds the reward eligible weight,
// which for a delegator is net of the operator fee and for an operator includes the fees.
type Position struct {
	ID                      uint64
	Kind                    Kind
	NodeID                  uint64
	Owner                   thor.Address
	LockTierID              uint32
	BaseStaked              *big.Int
	Excess                  *big.Int // weight above base registered by the lock
	FeeAmount               *big.Int // fee paid to the operator out of the base
	ExcessFee               *big.Int // fee paid to the operator out of the excess
	StakeEpoch              uint32
	MaturityEpoch           uint32
	StakingStartTimestamp   uint64
	LastEpochStakingUpdated uint32
	LastEpochRewardsUpdated uint32 // last epoch whose rewards are settled
	UnclaimedRewards        *big.Int
	CumulativeRewards       *big.Int
}

func (p *Position) LastEpochUpdated() uint32 {
	return p.LastEpochStakingUpdated
}

func (p *Position) SetLastEpochUpdated(e uint32) {
	p.LastEpochStakingUpdated = e
}

func (p *Position) IsDelegator() bool {
	return p.Kind == KindDelegator
}

// IsLocked returns whether the excess of the position is still pending at epoch.
func (p *Position) IsLocked(epoch uint32) bool {
	return p.LockTierID != 0 && p.Excess.Sign() > 0 && epoch < p.MaturityEpoch
}

// OwnExcess is the part of the position's own weight that expires at maturity.
func (p *Position) OwnExcess() *big.Int {
	return new(big.Int).Sub(p.Excess, p.ExcessFee)
}

func (p *Position) normalize() {
	for _, v := range []**big.Int{&p.BaseStaked, &p.Excess, &p.FeeAmount, &p.ExcessFee, &p.UnclaimedRewards, &p.CumulativeRewards} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
}
