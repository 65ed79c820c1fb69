// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import "math/big"

// BasisPoints is the denominator of every bps value, 10000 = 100%.
const BasisPoints = 10000

var bpsDenominator = big.NewInt(BasisPoints)

// MulBps returns amount * bps / 10000, rounded down.
func MulBps(amount *big.Int, bps uint32) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(bps)))
	return out.Quo(out, bpsDenominator)
}

// WeightedStake is a base amount scaled by a lock tier weight.
type WeightedStake struct {
	base   *big.Int // the principal
	weight *big.Int // base * weightBps / 100%
}

// NewWeightedStake weights base by weightBps. A liquid stake uses BasisPoints.
func NewWeightedStake(base *big.Int, weightBps uint32) *WeightedStake {
	return &WeightedStake{
		base:   new(big.Int).Set(base),
		weight: MulBps(base, weightBps),
	}
}

// NewLiquidStake is a stake whose weight equals its base.
func NewLiquidStake(base *big.Int) *WeightedStake {
	return NewWeightedStake(base, BasisPoints)
}

func (s *WeightedStake) Base() *big.Int {
	return s.base
}

func (s *WeightedStake) Weight() *big.Int {
	return s.weight
}

// Excess is the weight above the base.
func (s *WeightedStake) Excess() *big.Int {
	return new(big.Int).Sub(s.weight, s.base)
}

// FeeSplit divides the weight of a delegated stake between the delegator and the node operator.
type FeeSplit struct {
	Own       *big.Int // weight kept by the delegator
	OwnExcess *big.Int // part of Own that expires with the lock
	Fee       *big.Int // weight credited to the operator
	BaseFee   *big.Int // part of Fee taken from the base
	ExcessFee *big.Int // part of Fee that expires with the lock
}

// Split applies a delegator fee. The fee on the base and the fee on the whole weight
// are each rounded down, their difference is the excess part of the fee.
func (s *WeightedStake) Split(feeBps uint32) *FeeSplit {
	fee := MulBps(s.weight, feeBps)
	baseFee := MulBps(s.base, feeBps)
	excessFee := new(big.Int).Sub(fee, baseFee)
	own := new(big.Int).Sub(s.weight, fee)
	return &FeeSplit{
		Own:       own,
		OwnExcess: new(big.Int).Sub(s.Excess(), excessFee),
		Fee:       fee,
		BaseFee:   baseFee,
		ExcessFee: excessFee,
	}
}
