// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staker/delta"
	"github.com/vechain/stakeledger/staker/idset"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/staker/rollup"
	"github.com/vechain/stakeledger/storage"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotNodes     = storage.NameToSlot("nodes")
	slotWhitelist = storage.NameToSlot("node-whitelist")

	ErrNodeExists = reverts.NewState("node already exists")
)

// Service manages node records, the node stake series and the node id sets.
type Service struct {
	nodes      *storage.Mapping[storage.Uint64, *Node]
	series     *rollup.Series
	active     *idset.Set
	delegators *idset.Set
	whitelist  *storage.Mapping[storage.Pair, bool]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		nodes:      storage.NewMapping[storage.Uint64, *Node](sctx, slotNodes),
		series:     rollup.New(sctx, "node"),
		active:     idset.New(sctx, "active-nodes"),
		delegators: idset.New(sctx, "node-delegators"),
		whitelist:  storage.NewMapping[storage.Pair, bool](sctx, slotWhitelist),
	}
}

// Get returns the node, nil if absent.
func (s *Service) Get(id uint64) (*Node, error) {
	n, err := s.nodes.Get(storage.Uint64(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get node")
	}
	if n != nil {
		if n.BaseStaked == nil {
			n.BaseStaked = new(big.Int)
		}
		if n.MaxStakingAmount == nil {
			n.MaxStakingAmount = new(big.Int)
		}
	}
	return n, nil
}

// Add stores a new active node. Its series starts at epoch.
func (s *Service) Add(n *Node, epoch uint32) error {
	n.Status = StatusActive
	n.LastEpochStakingUpdated = epoch
	if n.BaseStaked == nil {
		n.BaseStaked = new(big.Int)
	}
	if err := s.nodes.Insert(storage.Uint64(n.ID), n); err != nil {
		return ErrNodeExists
	}
	_, err := s.active.Add(0, n.ID)
	return err
}

func (s *Service) Save(n *Node) error {
	if err := s.nodes.Upsert(storage.Uint64(n.ID), n); err != nil {
		return errors.Wrap(err, "failed to save node")
	}
	return nil
}

// Roll carries the node series forward to epoch and forgets consumed expiry epochs.
func (s *Service) Roll(n *Node, epoch uint32) error {
	if err := s.series.RollForward(n.ID, n, epoch); err != nil {
		return err
	}
	n.pruneExpiryEpochs()
	return nil
}

// ApplyChange moves the node weight, base and expiry bookkeeping by ch.
func (s *Service) ApplyChange(n *Node, epoch uint32, ch *delta.Change) error {
	if ch.Weight.Sign() != 0 {
		if err := s.series.Add(n.ID, n, epoch, ch.Weight); err != nil {
			return err
		}
		n.pruneExpiryEpochs()
	} else if err := s.Roll(n, epoch); err != nil {
		return err
	}
	if err := s.AddBase(n, ch.Base); err != nil {
		return err
	}

	if !ch.HasExpiry() {
		return nil
	}
	if ch.Excess.Sign() > 0 {
		if err := s.series.ScheduleExpiry(n.ID, ch.ExpiryEpoch, ch.Excess); err != nil {
			return err
		}
		n.addExpiryEpoch(ch.ExpiryEpoch)
		return nil
	}
	return s.series.CancelExpiry(n.ID, ch.ExpiryEpoch, new(big.Int).Neg(ch.Excess))
}

// AddBase moves the node principal without touching its weight.
func (s *Service) AddBase(n *Node, amount *big.Int) error {
	base := new(big.Int).Add(n.BaseStaked, amount)
	if base.Sign() < 0 {
		return reverts.Invariantf("node %d: base %s cannot absorb %s", n.ID, n.BaseStaked, amount)
	}
	n.BaseStaked = base
	return nil
}

// SetWeight overwrites the node weight at epoch.
func (s *Service) SetWeight(n *Node, epoch uint32, value *big.Int) error {
	if err := s.series.ApplyDelta(n.ID, n, epoch, value); err != nil {
		return err
	}
	n.pruneExpiryEpochs()
	return nil
}

// PendingExpiry is an excess amount still scheduled to leave the node.
type PendingExpiry struct {
	Epoch  uint32
	Amount *big.Int
}

// PendingExpiries lists the excess scheduled after the node's last updated epoch.
func (s *Service) PendingExpiries(n *Node) ([]PendingExpiry, error) {
	var out []PendingExpiry
	for _, e := range n.ExpiryEpochs {
		if e <= n.LastEpochStakingUpdated {
			continue
		}
		amount, err := s.series.Expiring(n.ID, e)
		if err != nil {
			return nil, err
		}
		if amount.Sign() > 0 {
			out = append(out, PendingExpiry{Epoch: e, Amount: amount})
		}
	}
	return out, nil
}

// ClearExpiries cancels every pending excess of the node and returns what was cancelled,
// so the caller can mirror it elsewhere.
func (s *Service) ClearExpiries(n *Node) ([]PendingExpiry, error) {
	pending, err := s.PendingExpiries(n)
	if err != nil {
		return nil, err
	}
	for _, p := range pending {
		if err := s.series.CancelExpiry(n.ID, p.Epoch, p.Amount); err != nil {
			return nil, err
		}
	}
	n.ExpiryEpochs = nil
	return pending, nil
}

// Stake returns the node last/min entry of epoch.
func (s *Service) Stake(n *Node, epoch uint32) (*rollup.Entry, error) {
	return s.series.View(n.ID, n.LastEpochStakingUpdated, epoch)
}

// Current returns the node weight at its last updated epoch.
func (s *Service) Current(n *Node) (*big.Int, error) {
	return s.series.Current(n.ID, n)
}

// Deactivate drops the node from the active set.
func (s *Service) Deactivate(n *Node) error {
	_, err := s.active.Remove(0, n.ID)
	return err
}

func (s *Service) ActiveIDs() ([]uint64, error) {
	return s.active.List(0)
}

func (s *Service) ActiveCount() (uint64, error) {
	return s.active.Len(0)
}

func (s *Service) AddDelegator(nodeID, positionID uint64) error {
	_, err := s.delegators.Add(nodeID, positionID)
	return err
}

func (s *Service) RemoveDelegator(nodeID, positionID uint64) error {
	_, err := s.delegators.Remove(nodeID, positionID)
	return err
}

func (s *Service) Delegators(nodeID uint64) ([]uint64, error) {
	return s.delegators.List(nodeID)
}

func whitelistKey(nodeID uint64, addr thor.Address) storage.Pair {
	return storage.Pair{A: storage.Uint64(nodeID), B: addr}
}

func (s *Service) IsWhitelisted(nodeID uint64, addr thor.Address) (bool, error) {
	ok, err := s.whitelist.Get(whitelistKey(nodeID, addr))
	if err != nil {
		return false, errors.Wrap(err, "failed to get whitelist")
	}
	return ok, nil
}

func (s *Service) SetWhitelisted(nodeID uint64, addr thor.Address, allowed bool) error {
	if !allowed {
		s.whitelist.Delete(whitelistKey(nodeID, addr))
		return nil
	}
	if err := s.whitelist.Upsert(whitelistKey(nodeID, addr), true); err != nil {
		return errors.Wrap(err, "failed to set whitelist")
	}
	return nil
}
