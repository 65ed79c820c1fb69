// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staker/delta"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/staker/rollup"
	"github.com/vechain/stakeledger/staker/stakes"
	"github.com/vechain/stakeledger/storage"
)

// the single global record lives under this id in every keyed store
const globalID = 0

var (
	slotGlobal       = storage.NameToSlot("global")
	slotTotalRewards = storage.NameToSlot("total-rewards")
	slotStuckShares  = storage.NameToSlot("stuck-reward-shares")

	ErrAlreadyInitialized = reverts.NewState("staking already initialized")
	ErrInvalidParams      = reverts.NewDomain("invalid staking params")
)

// Service manages the global record, the global stake series and the per epoch reward data.
type Service struct {
	global       *storage.Variable[*Global]
	series       *rollup.Series
	totalRewards *storage.Mapping[storage.Uint32, *big.Int]
	stuckShares  *storage.Mapping[storage.Uint32, *big.Int]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		global:       storage.NewVariable[*Global](sctx, slotGlobal),
		series:       rollup.New(sctx, "global"),
		totalRewards: storage.NewMapping[storage.Uint32, *big.Int](sctx, slotTotalRewards),
		stuckShares:  storage.NewMapping[storage.Uint32, *big.Int](sctx, slotStuckShares),
	}
}

// ValidateParams checks the params of a new ledger.
func ValidateParams(p *Params) error {
	switch {
	case p.MinStakingAmount == nil || p.MaxStakingAmount == nil:
		return errors.Wrap(ErrInvalidParams, "staking amounts are required")
	case p.MinStakingAmount.Sign() <= 0:
		return errors.Wrap(ErrInvalidParams, "min staking amount must be positive")
	case p.MinStakingAmount.Cmp(p.MaxStakingAmount) > 0:
		return errors.Wrap(ErrInvalidParams, "min staking amount exceeds max")
	case p.MinDelegationFeeBps > p.MaxDelegationFeeBps:
		return errors.Wrap(ErrInvalidParams, "min delegation fee exceeds max")
	case p.MaxDelegationFeeBps > stakes.BasisPoints:
		return errors.Wrap(ErrInvalidParams, "max delegation fee exceeds 100%")
	case p.EpochDuration == 0:
		return errors.Wrap(ErrInvalidParams, "epoch duration must be positive")
	}
	return nil
}

// Initialize creates the global record. Epoch 1 never carries rewards, so reward
// and stuck reward cursors start there.
func (s *Service) Initialize(p Params) (*Global, error) {
	existing, err := s.Get()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyInitialized
	}
	if err := ValidateParams(&p); err != nil {
		return nil, err
	}
	g := &Global{
		Params: Params{
			MinStakingAmount:    new(big.Int).Set(p.MinStakingAmount),
			MaxStakingAmount:    new(big.Int).Set(p.MaxStakingAmount),
			MinDelegationFeeBps: p.MinDelegationFeeBps,
			MaxDelegationFeeBps: p.MaxDelegationFeeBps,
			StartTimestamp:      p.StartTimestamp,
			EpochDuration:       p.EpochDuration,
		},
		TotalBaseStaked:              new(big.Int),
		LastEpochRewardsUpdated:      1,
		LastEpochStuckRewardsUpdated: 1,
	}
	return g, s.Save(g)
}

// Get returns the global record, nil before initialization.
func (s *Service) Get() (*Global, error) {
	g, err := s.global.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get global")
	}
	if g != nil && g.TotalBaseStaked == nil {
		g.TotalBaseStaked = new(big.Int)
	}
	return g, nil
}

func (s *Service) Save(g *Global) error {
	if err := s.global.Set(g); err != nil {
		return errors.Wrap(err, "failed to save global")
	}
	return nil
}

// Roll carries the global series forward to epoch.
func (s *Service) Roll(g *Global, epoch uint32) error {
	return s.series.RollForward(globalID, g, epoch)
}

// ApplyChange moves the global weight, base and expiry bookkeeping by ch.
func (s *Service) ApplyChange(g *Global, epoch uint32, ch *delta.Change) error {
	if ch.Weight.Sign() != 0 {
		if err := s.series.Add(globalID, g, epoch, ch.Weight); err != nil {
			return err
		}
	} else if err := s.Roll(g, epoch); err != nil {
		return err
	}

	total := new(big.Int).Add(g.TotalBaseStaked, ch.Base)
	if total.Sign() < 0 {
		return reverts.Invariantf("global base %s cannot absorb %s", g.TotalBaseStaked, ch.Base)
	}
	g.TotalBaseStaked = total

	return s.applyExpiry(ch)
}

func (s *Service) applyExpiry(ch *delta.Change) error {
	if !ch.HasExpiry() {
		return nil
	}
	if ch.Excess.Sign() > 0 {
		return s.series.ScheduleExpiry(globalID, ch.ExpiryEpoch, ch.Excess)
	}
	return s.series.CancelExpiry(globalID, ch.ExpiryEpoch, new(big.Int).Neg(ch.Excess))
}

// CancelExpiry withdraws excess registered at epoch.
func (s *Service) CancelExpiry(epoch uint32, amount *big.Int) error {
	return s.series.CancelExpiry(globalID, epoch, amount)
}

// Stake returns the global last/min entry of epoch.
func (s *Service) Stake(g *Global, epoch uint32) (*rollup.Entry, error) {
	return s.series.View(globalID, g.LastEpochStakingUpdated, epoch)
}

// Current returns the global weight at its last updated epoch.
func (s *Service) Current(g *Global) (*big.Int, error) {
	return s.series.Current(globalID, g)
}

// Expiring returns the global excess scheduled to leave at epoch.
func (s *Service) Expiring(epoch uint32) (*big.Int, error) {
	return s.series.Expiring(globalID, epoch)
}

// SetRewards records the rewards of epoch and advances the reward cursor.
func (s *Service) SetRewards(g *Global, epoch uint32, amount *big.Int) error {
	if err := s.totalRewards.Upsert(storage.Uint32(epoch), new(big.Int).Set(amount)); err != nil {
		return errors.Wrap(err, "failed to set total rewards")
	}
	g.LastEpochRewardsUpdated = epoch
	return nil
}

// TotalRewards returns the rewards set for epoch, zero if unset.
func (s *Service) TotalRewards(epoch uint32) (*big.Int, error) {
	v, err := s.totalRewards.Get(storage.Uint32(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get total rewards")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// AddStuckShares adds stake that can no longer claim the rewards of epoch.
func (s *Service) AddStuckShares(epoch uint32, shares *big.Int) error {
	if shares.Sign() == 0 {
		return nil
	}
	current, err := s.StuckShares(epoch)
	if err != nil {
		return err
	}
	if err := s.stuckShares.Upsert(storage.Uint32(epoch), new(big.Int).Add(current, shares)); err != nil {
		return errors.Wrap(err, "failed to set stuck shares")
	}
	return nil
}

// StuckShares returns the stuck shares of epoch, zero if none.
func (s *Service) StuckShares(epoch uint32) (*big.Int, error) {
	v, err := s.stuckShares.Get(storage.Uint32(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stuck shares")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}
