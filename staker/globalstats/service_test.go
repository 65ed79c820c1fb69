// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/staker/delta"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/storage"
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sctx, err := storage.NewContext(db, 0)
	require.NoError(t, err)
	return New(sctx)
}

func testParams() Params {
	return Params{
		MinStakingAmount:    big.NewInt(100),
		MaxStakingAmount:    big.NewInt(10_000),
		MinDelegationFeeBps: 0,
		MaxDelegationFeeBps: 2000,
		StartTimestamp:      1000,
		EpochDuration:       100,
	}
}

func TestInitialize(t *testing.T) {
	svc := newSvc(t)

	g, err := svc.Get()
	require.NoError(t, err)
	assert.Nil(t, g)

	g, err = svc.Initialize(testParams())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), g.LastEpochRewardsUpdated)
	assert.Equal(t, uint32(1), g.LastEpochStuckRewardsUpdated)
	assert.Equal(t, uint32(2), g.Clock().EpochAt(1100))

	_, err = svc.Initialize(testParams())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	stored, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stored.Params.EpochDuration)
	assert.Zero(t, stored.TotalBaseStaked.Sign())
}

func TestValidateParams(t *testing.T) {
	cases := []func(p *Params){
		func(p *Params) { p.MinStakingAmount = nil },
		func(p *Params) { p.MinStakingAmount = big.NewInt(0) },
		func(p *Params) { p.MaxStakingAmount = big.NewInt(99) },
		func(p *Params) { p.MinDelegationFeeBps = 3000 },
		func(p *Params) { p.MaxDelegationFeeBps = 10001; p.MinDelegationFeeBps = 0 },
		func(p *Params) { p.EpochDuration = 0 },
	}
	for i, mutate := range cases {
		p := testParams()
		mutate(&p)
		err := ValidateParams(&p)
		assert.ErrorIs(t, err, ErrInvalidParams, "case %d", i)
		assert.Equal(t, reverts.KindDomain, reverts.KindOf(err), "case %d", i)
	}
	p := testParams()
	assert.NoError(t, ValidateParams(&p))
}

func TestApplyChange(t *testing.T) {
	svc := newSvc(t)
	g, err := svc.Initialize(testParams())
	require.NoError(t, err)

	// scenario: base 100 weighted 120 at epoch 1, excess leaves at 12
	require.NoError(t, svc.ApplyChange(g, 1, delta.NewStake(big.NewInt(120), big.NewInt(100), big.NewInt(20), 12)))
	assert.Equal(t, int64(100), g.TotalBaseStaked.Int64())

	entry, err := svc.Stake(g, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(120), entry.Last.Int64())

	require.NoError(t, svc.Roll(g, 13))
	current, err := svc.Current(g)
	require.NoError(t, err)
	assert.Equal(t, int64(100), current.Int64())

	require.NoError(t, svc.ApplyChange(g, 13, delta.NewStake(big.NewInt(100), big.NewInt(100), nil, 0).Neg()))
	assert.Zero(t, g.TotalBaseStaked.Sign())

	err = svc.ApplyChange(g, 13, delta.NewStake(big.NewInt(0), big.NewInt(1), nil, 0).Neg())
	assert.Equal(t, reverts.KindInvariant, reverts.KindOf(err))
}

func TestApplyChange_CancelExpiry(t *testing.T) {
	svc := newSvc(t)
	g, err := svc.Initialize(testParams())
	require.NoError(t, err)

	stake := delta.NewStake(big.NewInt(150), big.NewInt(100), big.NewInt(50), 20)
	require.NoError(t, svc.ApplyChange(g, 2, stake))
	require.NoError(t, svc.ApplyChange(g, 5, stake.Neg()))

	left, err := svc.Expiring(20)
	require.NoError(t, err)
	assert.Zero(t, left.Sign())

	// nothing underflows when rolling through the cancelled epoch
	require.NoError(t, svc.Roll(g, 25))
	current, err := svc.Current(g)
	require.NoError(t, err)
	assert.Zero(t, current.Sign())
}

func TestRewardsAndStuckShares(t *testing.T) {
	svc := newSvc(t)
	g, err := svc.Initialize(testParams())
	require.NoError(t, err)

	require.NoError(t, svc.SetRewards(g, 2, big.NewInt(500)))
	assert.Equal(t, uint32(2), g.LastEpochRewardsUpdated)

	r, err := svc.TotalRewards(2)
	require.NoError(t, err)
	assert.Equal(t, int64(500), r.Int64())
	r, err = svc.TotalRewards(3)
	require.NoError(t, err)
	assert.Zero(t, r.Sign())

	require.NoError(t, svc.AddStuckShares(4, big.NewInt(10)))
	require.NoError(t, svc.AddStuckShares(4, big.NewInt(5)))
	require.NoError(t, svc.AddStuckShares(4, big.NewInt(0)))
	shares, err := svc.StuckShares(4)
	require.NoError(t, err)
	assert.Equal(t, int64(15), shares.Int64())
}
