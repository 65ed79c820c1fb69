// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/position"
	"github.com/vechain/stakeledger/staker/request"
)

// RequestNode queues an application to operate a node staking amount under tierID.
// The operator position id is minted right away and the amount deposited; both are
// returned if the request is rejected. It returns the request id, which becomes the
// node id on approval.
//
// Checks: initialized, tier exists, amount positive, fee within the global range,
// amount within the staking range, amount meets the tier minimum, weighted amount
// within the node capacity, tier active,
// no other pending request of the caller.
func (s *Staker) RequestNode(call Call, amount *big.Int, delegatorFeeBps uint32, tierID uint32) (uint64, error) {
	logger.Debug("requesting node", "caller", call.Caller, "amount", amount, "fee", delegatorFeeBps, "tier", tierID)

	var id uint64
	err := s.atomic("request_node", func() error {
		g, _, err := s.begin(call)
		if err != nil {
			return err
		}
		t, err := s.getTier(tierID)
		if err != nil {
			return err
		}
		if !validAmount(amount) {
			return ErrInvalidAmount
		}
		if delegatorFeeBps < g.Params.MinDelegationFeeBps || delegatorFeeBps > g.Params.MaxDelegationFeeBps {
			return ErrFeeOutOfRange
		}
		if amount.Cmp(g.Params.MinStakingAmount) < 0 || amount.Cmp(g.Params.MaxStakingAmount) > 0 {
			return ErrStakeOutOfRange
		}
		if t != nil && amount.Cmp(t.MinStakingAmount) < 0 {
			return ErrBelowTierMinimum
		}
		if t != nil && t.Weigh(amount).Weight().Cmp(g.Params.MaxStakingAmount) > 0 {
			return ErrNodeCapacity
		}
		if t != nil && !t.Active {
			return ErrTierNotActive
		}
		pending, err := s.requestService.PendingOf(call.Caller)
		if err != nil {
			return err
		}
		if pending != 0 {
			return ErrPendingRequest
		}

		_, err = s.withMintedPosition(call.Caller, func(positionID uint64) error {
			r := &request.Request{
				Owner:            call.Caller,
				PositionID:       positionID,
				DelegatorFeeBps:  delegatorFeeBps,
				Amount:           new(big.Int).Set(amount),
				LockTierID:       tierID,
				RequestTimestamp: call.Timestamp,
			}
			var err error
			if id, err = s.requestService.Add(r); err != nil {
				return err
			}
			return s.deposit(call.Caller, amount)
		})
		return err
	})
	if err != nil {
		logFailure("request node failed", err)
		return 0, err
	}

	logger.Info("requested node", "request", id)
	return id, nil
}

// ApproveNodeRequest turns a pending request into an active node with its operator
// position. The deposit made with the request becomes the operator principal.
//
// Checks: initialized, request exists, request pending.
func (s *Staker) ApproveNodeRequest(call Call, requestID uint64) error {
	logger.Debug("approving node request", "caller", call.Caller, "request", requestID)

	err := s.atomic("approve_node_request", func() error {
		g, current, err := s.begin(call)
		if err != nil {
			return err
		}
		r, err := s.requestService.GetPending(requestID)
		if err != nil {
			return err
		}
		t, err := s.getTier(r.LockTierID)
		if err != nil {
			return err
		}
		if err := s.requestService.Close(r, request.StatusApproved); err != nil {
			return err
		}

		n := &node.Node{
			ID:                 r.ID,
			Operator:           r.Owner,
			OperatorPositionID: r.PositionID,
			MaxStakingAmount:   new(big.Int).Set(g.Params.MaxStakingAmount),
			DelegatorFeeBps:    r.DelegatorFeeBps,
		}
		if err := s.nodeService.Add(n, current); err != nil {
			return err
		}
		p := &position.Position{
			ID:                    r.PositionID,
			Kind:                  position.KindOperator,
			NodeID:                n.ID,
			Owner:                 r.Owner,
			LockTierID:            r.LockTierID,
			BaseStaked:            new(big.Int).Set(r.Amount),
			StakingStartTimestamp: call.Timestamp,
		}
		return s.openPosition(g, n, current, p, t)
	})
	if err != nil {
		logFailure("approve node request failed", err, "request", requestID)
		return err
	}

	logger.Info("approved node request", "node", requestID)
	return nil
}

// RejectNodeRequest closes a pending request, burns its position id and refunds
// the deposit to the applicant.
//
// Checks: initialized, request exists, request pending.
func (s *Staker) RejectNodeRequest(call Call, requestID uint64) error {
	logger.Debug("rejecting node request", "caller", call.Caller, "request", requestID)

	err := s.atomic("reject_node_request", func() error {
		if _, _, err := s.begin(call); err != nil {
			return err
		}
		r, err := s.requestService.GetPending(requestID)
		if err != nil {
			return err
		}
		if err := s.requestService.Close(r, request.StatusRejected); err != nil {
			return err
		}
		if err := s.withdraw(r.Owner, r.Amount); err != nil {
			return err
		}
		return s.burn(r.PositionID)
	})
	if err != nil {
		logFailure("reject node request failed", err, "request", requestID)
		return err
	}

	logger.Info("rejected node request", "request", requestID)
	return nil
}
