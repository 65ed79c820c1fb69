// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/staker"
	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/stakes"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis is the initial configuration of a staking ledger.
type Genesis struct {
	Params    Params     `yaml:"params"`
	LockTiers []LockTier `yaml:"lockTiers"`
}

// Params are the ledger wide settings.
type Params struct {
	MinStakingAmount    *HexOrDecimal256 `yaml:"minStakingAmount"`
	MaxStakingAmount    *HexOrDecimal256 `yaml:"maxStakingAmount"`
	MinDelegationFeeBps uint32           `yaml:"minDelegationFeeBps"`
	MaxDelegationFeeBps uint32           `yaml:"maxDelegationFeeBps"`
	StartTimestamp      uint64           `yaml:"startTimestamp"`
	EpochDuration       uint64           `yaml:"epochDuration"`
}

// LockTier is a lock tier registered with the ledger.
type LockTier struct {
	MinStakingAmount *HexOrDecimal256 `yaml:"minStakingAmount"`
	DurationEpochs   uint32           `yaml:"durationEpochs"`
	WeightBps        uint32           `yaml:"weightBps"`
}

// Parse decodes a YAML genesis. Unknown fields are rejected.
func Parse(data []byte) (*Genesis, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var gen Genesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Load reads and parses the genesis file at path.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

// Marshal encodes the genesis as YAML.
func (g *Genesis) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

// StakerParams converts the params for the staker.
func (g *Genesis) StakerParams() staker.Params {
	return staker.Params{
		MinStakingAmount:    g.Params.MinStakingAmount.Big(),
		MaxStakingAmount:    g.Params.MaxStakingAmount.Big(),
		MinDelegationFeeBps: g.Params.MinDelegationFeeBps,
		MaxDelegationFeeBps: g.Params.MaxDelegationFeeBps,
		StartTimestamp:      g.Params.StartTimestamp,
		EpochDuration:       g.Params.EpochDuration,
	}
}

// Validate applies the rules the staker would enforce, so a bad file fails
// before anything is written.
func (g *Genesis) Validate() error {
	params := g.StakerParams()
	if err := globalstats.ValidateParams(&params); err != nil {
		return errors.Wrap(err, "params")
	}
	for i, t := range g.LockTiers {
		switch {
		case t.MinStakingAmount == nil || t.MinStakingAmount.Big().Sign() < 0:
			return errors.Wrapf(staker.ErrInvalidAmount, "lock tier %d", i)
		case t.WeightBps <= stakes.BasisPoints:
			return errors.Wrapf(staker.ErrTierWeightTooLow, "lock tier %d", i)
		case t.DurationEpochs == 0 || t.DurationEpochs > staker.MaxLockDurationEpochs:
			return errors.Wrapf(staker.ErrInvalidTierDuration, "lock tier %d", i)
		}
	}
	return nil
}

// Apply initializes s with the params and every lock tier in one step, tier ids
// follow file order from 1.
func (g *Genesis) Apply(s *staker.Staker, call staker.Call) error {
	if err := g.Validate(); err != nil {
		return err
	}
	tiers := make([]staker.LockTierConfig, 0, len(g.LockTiers))
	for _, t := range g.LockTiers {
		tiers = append(tiers, staker.LockTierConfig{
			MinStakingAmount: t.MinStakingAmount.Big(),
			DurationEpochs:   t.DurationEpochs,
			WeightBps:        t.WeightBps,
		})
	}
	if err := s.Initialize(call, g.StakerParams(), tiers...); err != nil {
		return err
	}
	logger.Info("applied genesis", "tiers", len(g.LockTiers), "start", g.Params.StartTimestamp)
	return nil
}

// Devnet is a small configuration for local testing: one hour epochs and two lock tiers.
func Devnet(start uint64) *Genesis {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	amount := func(n int64) *HexOrDecimal256 {
		return NewAmount(new(big.Int).Mul(big.NewInt(n), unit))
	}
	return &Genesis{
		Params: Params{
			MinStakingAmount:    amount(10_000),
			MaxStakingAmount:    amount(600_000_000),
			MinDelegationFeeBps: 0,
			MaxDelegationFeeBps: 5_000,
			StartTimestamp:      start,
			EpochDuration:       3600,
		},
		LockTiers: []LockTier{
			{MinStakingAmount: amount(0), DurationEpochs: 24 * 30, WeightBps: 11_000},
			{MinStakingAmount: amount(10_000), DurationEpochs: 24 * 90, WeightBps: 13_000},
		},
	}
}
