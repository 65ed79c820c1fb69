// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/thor"
)

const (
	testStart    = uint64(1_000)
	testDuration = uint64(100)
)

var (
	admin    = thor.BytesToAddress([]byte("admin"))
	operator = thor.BytesToAddress([]byte("operator"))
	alice    = thor.BytesToAddress([]byte("alice"))
	bob      = thor.BytesToAddress([]byte("bob"))
	carol    = thor.BytesToAddress([]byte("carol"))
)

// at returns a timestamp inside epoch.
func at(epoch uint32) uint64 {
	if epoch == 0 {
		return testStart - 1
	}
	return testStart + uint64(epoch-1)*testDuration + testDuration/2
}

func callAt(caller thor.Address, epoch uint32) Call {
	return Call{Caller: caller, Capability: CapabilityPositionOwner, Timestamp: at(epoch)}
}

func adminAt(epoch uint32) Call {
	return Call{Caller: admin, Capability: CapabilityAdmin, Timestamp: at(epoch)}
}

func testParams() Params {
	return Params{
		MinStakingAmount:    big.NewInt(100),
		MaxStakingAmount:    big.NewInt(1_000_000),
		MinDelegationFeeBps: 0,
		MaxDelegationFeeBps: 5_000,
		StartTimestamp:      testStart,
		EpochDuration:       testDuration,
	}
}

// fakeCustody records every movement the ledger reports.
type fakeCustody struct {
	deposits    map[thor.Address]*big.Int
	withdrawals map[thor.Address]*big.Int
	reduced     *big.Int
	err         error
}

func newFakeCustody() *fakeCustody {
	return &fakeCustody{
		deposits:    make(map[thor.Address]*big.Int),
		withdrawals: make(map[thor.Address]*big.Int),
		reduced:     new(big.Int),
	}
}

func addTo(m map[thor.Address]*big.Int, addr thor.Address, amount *big.Int) {
	if m[addr] == nil {
		m[addr] = new(big.Int)
	}
	m[addr].Add(m[addr], amount)
}

func (c *fakeCustody) Deposit(from thor.Address, amount *big.Int) error {
	if c.err != nil {
		return c.err
	}
	addTo(c.deposits, from, amount)
	return nil
}

func (c *fakeCustody) Withdraw(to thor.Address, amount *big.Int) error {
	if c.err != nil {
		return c.err
	}
	addTo(c.withdrawals, to, amount)
	return nil
}

func (c *fakeCustody) ReduceLocked(amount *big.Int) error {
	if c.err != nil {
		return c.err
	}
	c.reduced.Add(c.reduced, amount)
	return nil
}

func (c *fakeCustody) withdrawn(addr thor.Address) *big.Int {
	if v := c.withdrawals[addr]; v != nil {
		return v
	}
	return new(big.Int)
}

// locked is what custody still holds for the ledger.
func (c *fakeCustody) locked() *big.Int {
	total := new(big.Int)
	for _, v := range c.deposits {
		total.Add(total, v)
	}
	for _, v := range c.withdrawals {
		total.Sub(total, v)
	}
	return total.Sub(total, c.reduced)
}

type fakeRegistry struct {
	last   uint64
	owners map[uint64]thor.Address
	burned []uint64
	err    error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{owners: make(map[uint64]thor.Address)}
}

func (r *fakeRegistry) Mint(owner thor.Address) (uint64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.last++
	r.owners[r.last] = owner
	return r.last, nil
}

func (r *fakeRegistry) Burn(id uint64) error {
	if _, ok := r.owners[id]; !ok {
		return errors.Errorf("position %d not minted", id)
	}
	delete(r.owners, id)
	r.burned = append(r.burned, id)
	return nil
}

type testEnv struct {
	staker   *Staker
	custody  *fakeCustody
	registry *fakeRegistry
}

func newUninitialized(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	custody, registry := newFakeCustody(), newFakeRegistry()
	s, err := New(db, custody, registry, Options{})
	require.NoError(t, err)
	return &testEnv{staker: s, custody: custody, registry: registry}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithParams(t, testParams())
}

func newTestEnvWithParams(t *testing.T, params Params) *testEnv {
	env := newUninitialized(t)
	require.NoError(t, env.staker.Initialize(adminAt(0), params))
	return env
}

// addNode requests and approves a node in epoch and returns the node id, which is
// also the request id. The operator position id is read back from the node.
func (env *testEnv) addNode(t *testing.T, owner thor.Address, amount int64, feeBps uint32, tierID uint32, epoch uint32) uint64 {
	id, err := env.staker.RequestNode(callAt(owner, epoch), big.NewInt(amount), feeBps, tierID)
	require.NoError(t, err)
	require.NoError(t, env.staker.ApproveNodeRequest(adminAt(epoch), id))
	return id
}

func (env *testEnv) operatorPosition(t *testing.T, nodeID uint64) uint64 {
	n, err := env.staker.Node(nodeID)
	require.NoError(t, err)
	return n.OperatorPositionID
}

func (env *testEnv) stake(t *testing.T, owner thor.Address, nodeID uint64, amount int64, tierID uint32, epoch uint32) uint64 {
	id, err := env.staker.Stake(callAt(owner, epoch), nodeID, big.NewInt(amount), tierID)
	require.NoError(t, err)
	return id
}

func (env *testEnv) setRewards(t *testing.T, epoch uint32, amount int64, now uint32) {
	require.NoError(t, env.staker.SetRewards(adminAt(now), epoch, big.NewInt(amount)))
}

type TestFunc func(t *testing.T)

// TestSequence runs ledger operations in order, failing the test on the first error.
type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) AddNode(owner thor.Address, amount int64, feeBps uint32, tierID uint32, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		id := st.env.addNode(t, owner, amount, feeBps, tierID, epoch)
		t.Logf("added node %d for %s", id, owner)
	})
}

func (st *TestSequence) Stake(owner thor.Address, nodeID uint64, amount int64, tierID uint32, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		id := st.env.stake(t, owner, nodeID, amount, tierID, epoch)
		t.Logf("staked %d on node %d as position %d", amount, nodeID, id)
	})
}

func (st *TestSequence) IncreaseStake(owner thor.Address, positionID uint64, amount int64, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.IncreaseStake(callAt(owner, epoch), positionID, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to increase position %d: %v", positionID, err)
		}
	})
}

func (st *TestSequence) DecreaseStake(owner thor.Address, positionID uint64, amount int64, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.DecreaseStake(callAt(owner, epoch), positionID, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to decrease position %d: %v", positionID, err)
		}
	})
}

func (st *TestSequence) SetRewards(epoch uint32, amount int64, now uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.env.setRewards(t, epoch, amount, now)
		t.Logf("set rewards of epoch %d", epoch)
	})
}

func (st *TestSequence) Withdraw(owner thor.Address, positionID uint64, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		amount, err := st.env.staker.Withdraw(callAt(owner, epoch), positionID)
		if err != nil {
			t.Fatalf("failed to withdraw position %d: %v", positionID, err)
		}
		t.Logf("withdrawn %s from position %d", amount, positionID)
	})
}

func (st *TestSequence) Slash(nodeID uint64, pctBps uint32, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		amount, err := st.env.staker.Slash(adminAt(epoch), nodeID, pctBps)
		if err != nil {
			t.Fatalf("failed to slash node %d: %v", nodeID, err)
		}
		t.Logf("slashed %s from node %d", amount, nodeID)
	})
}

func (st *TestSequence) Sync(nodeID uint64, epoch uint32) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Sync(adminAt(epoch), nodeID); err != nil {
			t.Fatalf("failed to sync node %d at epoch %d: %v", nodeID, epoch, err)
		}
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}

type NodeAssertions struct {
	staker *Staker
	id     uint64

	status *node.Status
	base   *big.Int
	weight map[uint32]*big.Int
}

func AssertNode(staker *Staker, id uint64) *NodeAssertions {
	return &NodeAssertions{staker: staker, id: id, weight: make(map[uint32]*big.Int)}
}

func (na *NodeAssertions) Status(expected node.Status) *NodeAssertions {
	na.status = &expected
	return na
}

func (na *NodeAssertions) Base(expected int64) *NodeAssertions {
	na.base = big.NewInt(expected)
	return na
}

func (na *NodeAssertions) Weight(epoch uint32, expected int64) *NodeAssertions {
	na.weight[epoch] = big.NewInt(expected)
	return na
}

func (na *NodeAssertions) Assert(t *testing.T) {
	n, err := na.staker.Node(na.id)
	require.NoError(t, err, "failed to get node %d", na.id)

	if na.status != nil {
		assert.Equal(t, *na.status, n.Status, "node %d status mismatch", na.id)
	}
	if na.base != nil {
		assert.Equal(t, na.base.String(), n.BaseStaked.String(), "node %d base mismatch", na.id)
	}
	for epoch, expected := range na.weight {
		entry, err := na.staker.NodeStake(na.id, epoch)
		require.NoError(t, err)
		assert.Equal(t, expected.String(), entry.Last.String(), "node %d weight mismatch at epoch %d", na.id, epoch)
	}
}

type PositionAssertions struct {
	staker *Staker
	id     uint64

	base   *big.Int
	weight map[uint32]*big.Int
	min    map[uint32]*big.Int
}

func AssertPosition(staker *Staker, id uint64) *PositionAssertions {
	return &PositionAssertions{staker: staker, id: id, weight: make(map[uint32]*big.Int), min: make(map[uint32]*big.Int)}
}

func (pa *PositionAssertions) Base(expected int64) *PositionAssertions {
	pa.base = big.NewInt(expected)
	return pa
}

func (pa *PositionAssertions) Weight(epoch uint32, expected int64) *PositionAssertions {
	pa.weight[epoch] = big.NewInt(expected)
	return pa
}

func (pa *PositionAssertions) Min(epoch uint32, expected int64) *PositionAssertions {
	pa.min[epoch] = big.NewInt(expected)
	return pa
}

func (pa *PositionAssertions) Assert(t *testing.T) {
	p, err := pa.staker.Position(pa.id)
	require.NoError(t, err, "failed to get position %d", pa.id)

	if pa.base != nil {
		assert.Equal(t, pa.base.String(), p.BaseStaked.String(), "position %d base mismatch", pa.id)
	}
	for epoch, expected := range pa.weight {
		entry, err := pa.staker.PositionStake(pa.id, epoch)
		require.NoError(t, err)
		assert.Equal(t, expected.String(), entry.Last.String(), "position %d weight mismatch at epoch %d", pa.id, epoch)
	}
	for epoch, expected := range pa.min {
		entry, err := pa.staker.PositionStake(pa.id, epoch)
		require.NoError(t, err)
		assert.Equal(t, expected.String(), entry.Min.String(), "position %d min mismatch at epoch %d", pa.id, epoch)
	}
}

// assertInvariants checks the ledger wide invariants over the given nodes, up to epoch.
func assertInvariants(t *testing.T, s *Staker, epoch uint32, nodeIDs ...uint64) {
	g, err := s.Global()
	require.NoError(t, err)

	activeBase := new(big.Int)
	for _, id := range nodeIDs {
		n, err := s.Node(id)
		require.NoError(t, err)

		positions, err := s.NodeDelegators(id)
		require.NoError(t, err)
		if _, err := s.Position(n.OperatorPositionID); err == nil {
			positions = append(positions, n.OperatorPositionID)
		}

		sumBase := new(big.Int)
		sumWeight := new(big.Int)
		lockedExcess := new(big.Int)
		for _, pid := range positions {
			p, err := s.Position(pid)
			require.NoError(t, err)
			sumBase.Add(sumBase, p.BaseStaked)
			entry, err := s.PositionStake(pid, epoch)
			require.NoError(t, err)
			sumWeight.Add(sumWeight, entry.Last)
			if p.IsLocked(n.LastEpochStakingUpdated) {
				lockedExcess.Add(lockedExcess, p.Excess)
			}
			assertMinBelowLast(t, func(e uint32) (min, last *big.Int) {
				entry, err := s.PositionStake(pid, e)
				require.NoError(t, err)
				return entry.Min, entry.Last
			}, epoch)
		}

		switch n.Status {
		case node.StatusActive:
			activeBase.Add(activeBase, n.BaseStaked)
			assert.Equal(t, sumBase.String(), n.BaseStaked.String(), "node %d base mismatch", id)
			pending, err := s.nodeService.PendingExpiries(n)
			require.NoError(t, err)
			sumPending := new(big.Int)
			for _, p := range pending {
				sumPending.Add(sumPending, p.Amount)
			}
			assert.Equal(t, lockedExcess.String(), sumPending.String(), "node %d pending excess mismatch", id)
			weight, err := s.NodeStake(id, epoch)
			require.NoError(t, err)
			assert.Equal(t, weight.Last.String(), sumWeight.String(), "node %d weight mismatch", id)
		case node.StatusInactive:
			assert.Equal(t, sumBase.String(), n.BaseStaked.String(), "node %d base mismatch", id)
		}

		assertMinBelowLast(t, func(e uint32) (min, last *big.Int) {
			entry, err := s.NodeStake(id, e)
			require.NoError(t, err)
			return entry.Min, entry.Last
		}, epoch)
	}
	assert.Equal(t, activeBase.String(), g.TotalBaseStaked.String(), "global base mismatch")

	assertMinBelowLast(t, func(e uint32) (min, last *big.Int) {
		entry, err := s.GlobalStake(e)
		require.NoError(t, err)
		return entry.Min, entry.Last
	}, epoch)
}

func assertMinBelowLast(t *testing.T, get func(e uint32) (min, last *big.Int), until uint32) {
	for e := uint32(0); e <= until; e++ {
		min, last := get(e)
		assert.LessOrEqual(t, min.Cmp(last), 0, "min %s above last %s at epoch %d", min, last, e)
	}
}
