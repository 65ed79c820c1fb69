// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/position"
	"github.com/vechain/stakeledger/staker/request"
)

func TestNodeRequest_Approve(t *testing.T) {
	env := newTestEnv(t)
	s := env.staker

	id, err := s.RequestNode(callAt(operator, 1), big.NewInt(1000), 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, int64(1000), env.custody.deposits[operator].Int64())
	assert.Equal(t, operator, env.registry.owners[1])

	r, err := s.NodeRequest(id)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, r.Status)
	assert.Equal(t, uint64(1), r.PositionID)
	assert.Equal(t, at(1), r.RequestTimestamp)

	pending, err := s.PendingRequestIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{id}, pending)

	_, err = s.RequestNode(callAt(operator, 1), big.NewInt(1000), 1000, 0)
	assert.ErrorIs(t, err, ErrPendingRequest)

	// nothing is staked while the request waits
	g, err := s.Global()
	require.NoError(t, err)
	assert.Zero(t, g.TotalBaseStaked.Sign())

	require.NoError(t, s.ApproveNodeRequest(adminAt(2), id))
	assert.ErrorIs(t, s.ApproveNodeRequest(adminAt(2), id), ErrRequestNotPending)
	assert.ErrorIs(t, s.RejectNodeRequest(adminAt(2), id), ErrRequestNotPending)

	AssertNode(s, id).Status(node.StatusActive).Base(1000).Weight(2, 1000).Assert(t)
	n, err := s.Node(id)
	require.NoError(t, err)
	assert.Equal(t, operator, n.Operator)
	assert.Equal(t, uint32(1000), n.DelegatorFeeBps)
	assert.Equal(t, int64(1_000_000), n.MaxStakingAmount.Int64())

	p, err := s.Position(n.OperatorPositionID)
	require.NoError(t, err)
	assert.Equal(t, position.KindOperator, p.Kind)
	assert.Equal(t, uint32(2), p.StakeEpoch)
	AssertPosition(s, p.ID).Base(1000).Weight(2, 1000).Min(2, 0).Min(3, 1000).Assert(t)

	r, err = s.NodeRequest(id)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, r.Status)
	pending, err = s.PendingRequestIDs()
	require.NoError(t, err)
	assert.Empty(t, pending)

	// the deposit became the operator principal, no second deposit
	assert.Equal(t, int64(1000), env.custody.deposits[operator].Int64())

	// the owner may apply again once the first request is closed
	next, err := s.RequestNode(callAt(operator, 2), big.NewInt(1000), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
	assertInvariants(t, s, 3, id)
}

func TestNodeRequest_Reject(t *testing.T) {
	env := newTestEnv(t)
	s := env.staker

	id, err := s.RequestNode(callAt(operator, 1), big.NewInt(1000), 0, 0)
	require.NoError(t, err)

	require.NoError(t, s.RejectNodeRequest(adminAt(1), id))
	assert.ErrorIs(t, s.RejectNodeRequest(adminAt(1), id), ErrRequestNotPending)
	assert.ErrorIs(t, s.RejectNodeRequest(adminAt(1), 99), ErrRequestNotFound)
	assert.ErrorIs(t, s.ApproveNodeRequest(adminAt(1), 99), ErrRequestNotFound)

	assert.Equal(t, int64(1000), env.custody.withdrawn(operator).Int64())
	assert.Equal(t, []uint64{1}, env.registry.burned)
	assert.Zero(t, env.custody.locked().Sign())

	r, err := s.NodeRequest(id)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, r.Status)

	_, err = s.Node(id)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	next, err := s.RequestNode(callAt(operator, 1), big.NewInt(1000), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

func TestRequestNode_Checks(t *testing.T) {
	env := newTestEnv(t)
	s := env.staker

	lockID, err := s.AddLockTier(adminAt(1), big.NewInt(5000), 10, 12_000)
	require.NoError(t, err)
	removedID, err := s.AddLockTier(adminAt(1), big.NewInt(0), 10, 12_000)
	require.NoError(t, err)
	require.NoError(t, s.RemoveLockTier(adminAt(1), removedID))

	tests := []struct {
		name   string
		amount *big.Int
		fee    uint32
		tierID uint32
		want   error
	}{
		{"tier not found", big.NewInt(0), 9000, 9, ErrTierNotFound},
		{"zero amount", big.NewInt(0), 9000, 0, ErrInvalidAmount},
		{"fee above max", big.NewInt(1000), 5001, 0, ErrFeeOutOfRange},
		{"below min stake", big.NewInt(50), 0, 0, ErrStakeOutOfRange},
		{"above max stake", big.NewInt(1_000_001), 0, 0, ErrStakeOutOfRange},
		{"below tier minimum", big.NewInt(1000), 0, lockID, ErrBelowTierMinimum},
		{"weighted above capacity", big.NewInt(1_000_000), 0, lockID, ErrNodeCapacity},
		{"tier removed", big.NewInt(1000), 0, removedID, ErrTierNotActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RequestNode(callAt(operator, 1), tt.amount, tt.fee, tt.tierID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, env.registry.last)
	assert.Nil(t, env.custody.deposits[operator])

	ids, err := s.PendingRequestIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNodeRequest_LockedOperator(t *testing.T) {
	env := newTestEnv(t)
	s := env.staker

	tierID, err := s.AddLockTier(adminAt(1), big.NewInt(0), 4, 15_000)
	require.NoError(t, err)
	id, err := s.RequestNode(callAt(operator, 1), big.NewInt(1000), 0, tierID)
	require.NoError(t, err)

	// the lock starts with the node, not with the request
	require.NoError(t, s.RemoveLockTier(adminAt(2), tierID))
	require.NoError(t, s.ApproveNodeRequest(adminAt(3), id))

	p, err := s.Position(env.operatorPosition(t, id))
	require.NoError(t, err)
	assert.Equal(t, uint32(8), p.MaturityEpoch)
	AssertNode(s, id).Weight(3, 1500).Weight(7, 1500).Weight(8, 1000).Assert(t)
	assertInvariants(t, s, 8, id)
}

func TestNodeRequest_LockedOperatorWithinCapacity(t *testing.T) {
	env := newTestEnv(t)
	s := env.staker

	tierID, err := s.AddLockTier(adminAt(1), big.NewInt(0), 10, 12_000)
	require.NoError(t, err)

	_, err = s.RequestNode(callAt(operator, 1), big.NewInt(1_000_000), 0, tierID)
	assert.ErrorIs(t, err, ErrNodeCapacity)

	// 833_333 weighs 999_999, the largest locked request that fits
	id, err := s.RequestNode(callAt(operator, 1), big.NewInt(833_333), 0, tierID)
	require.NoError(t, err)
	require.NoError(t, s.ApproveNodeRequest(adminAt(1), id))

	n, err := s.Node(id)
	require.NoError(t, err)
	weight, err := s.NodeStake(id, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(999_999), weight.Last.Int64())
	assert.LessOrEqual(t, weight.Last.Cmp(n.MaxStakingAmount), 0)

	require.NoError(t, s.SetNodeMaxStakingAmount(adminAt(1), id, big.NewInt(1_000_000)))
	env.stake(t, alice, id, 1, 0, 1)
	assertInvariants(t, s, 1, id)
}
