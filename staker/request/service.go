// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package request

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staker/idset"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/storage"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotRequests = storage.NameToSlot("node-requests")
	slotByOwner  = storage.NameToSlot("node-requests-by-owner")
	slotCounter  = storage.NameToSlot("node-id-counter")

	ErrRequestNotFound   = reverts.New("node request not found")
	ErrRequestNotPending = reverts.NewState("node request is not pending")
	ErrPendingRequest    = reverts.NewState("owner already has a pending node request")
)

// Service is the queue of pending node requests.
type Service struct {
	requests *storage.Mapping[storage.Uint64, *Request]
	byOwner  *storage.Mapping[thor.Address, uint64]
	counter  *storage.Variable[uint64]
	pending  *idset.Set
}

func New(sctx *storage.Context) *Service {
	return &Service{
		requests: storage.NewMapping[storage.Uint64, *Request](sctx, slotRequests),
		byOwner:  storage.NewMapping[thor.Address, uint64](sctx, slotByOwner),
		counter:  storage.NewVariable[uint64](sctx, slotCounter),
		pending:  idset.New(sctx, "pending-node-requests"),
	}
}

// Get returns the request, nil if absent.
func (s *Service) Get(id uint64) (*Request, error) {
	r, err := s.requests.Get(storage.Uint64(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get node request")
	}
	if r != nil && r.Amount == nil {
		r.Amount = new(big.Int)
	}
	return r, nil
}

// PendingOf returns the id of the owner's pending request, zero if none.
func (s *Service) PendingOf(owner thor.Address) (uint64, error) {
	id, err := s.byOwner.Get(owner)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending node request")
	}
	return id, nil
}

// Add queues a request under the next node id.
func (s *Service) Add(r *Request) (uint64, error) {
	existing, err := s.PendingOf(r.Owner)
	if err != nil {
		return 0, err
	}
	if existing != 0 {
		return 0, ErrPendingRequest
	}
	last, err := s.counter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get node id counter")
	}
	r.ID = last + 1
	r.Status = StatusPending
	if err := s.counter.Set(r.ID); err != nil {
		return 0, err
	}
	if err := s.requests.Insert(storage.Uint64(r.ID), r); err != nil {
		return 0, errors.Wrap(err, "failed to add node request")
	}
	if err := s.byOwner.Upsert(r.Owner, r.ID); err != nil {
		return 0, err
	}
	if _, err := s.pending.Add(0, r.ID); err != nil {
		return 0, err
	}
	return r.ID, nil
}

// GetPending returns a request that can still be approved or rejected.
func (s *Service) GetPending(id uint64) (*Request, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRequestNotFound
	}
	if r.Status != StatusPending {
		return nil, ErrRequestNotPending
	}
	return r, nil
}

// Close settles a pending request as approved or rejected.
func (s *Service) Close(r *Request, status Status) error {
	if r.Status != StatusPending {
		return ErrRequestNotPending
	}
	r.Status = status
	if err := s.requests.Update(storage.Uint64(r.ID), r); err != nil {
		return errors.Wrap(err, "failed to close node request")
	}
	s.byOwner.Delete(r.Owner)
	_, err := s.pending.Remove(0, r.ID)
	return err
}

// PendingIDs lists the ids of requests awaiting a decision.
func (s *Service) PendingIDs() ([]uint64, error) {
	return s.pending.List(0)
}
