// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/staker/globalstats"
	"github.com/vechain/stakeledger/staker/node"
	"github.com/vechain/stakeledger/staker/position"
	"github.com/vechain/stakeledger/staker/request"
	"github.com/vechain/stakeledger/staker/reverts"
	"github.com/vechain/stakeledger/staker/tier"
	"github.com/vechain/stakeledger/storage"
)

var logger = log.WithContext("pkg", "staker")

// ledgerBucket prefixes every key the ledger writes, so the store can be shared.
const ledgerBucket = kv.Bucket("staker/")

func SetLogger(l log.Logger) {
	logger = l
}

// Options tunes the ledger storage.
type Options struct {
	CacheSize int // raw values kept in the read cache, storage.DefaultCacheSize if zero
}

// Staker is the accounting core of the staking ledger. Every mutating operation
// runs to completion or leaves no trace.
type Staker struct {
	mu   sync.Mutex
	sctx *storage.Context

	custody  Custody
	registry Registry

	globalService   *globalstats.Service
	tierService     *tier.Service
	nodeService     *node.Service
	positionService *position.Service
	requestService  *request.Service
}

// New opens the ledger kept in store.
func New(store kv.Store, custody Custody, registry Registry, opts Options) (*Staker, error) {
	if custody == nil || registry == nil {
		return nil, errors.New("custody and registry are required")
	}
	sctx, err := storage.NewContext(ledgerBucket.NewStore(store), opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Staker{
		sctx:            sctx,
		custody:         custody,
		registry:        registry,
		globalService:   globalstats.New(sctx),
		tierService:     tier.New(sctx),
		nodeService:     node.New(sctx),
		positionService: position.New(sctx),
		requestService:  request.New(sctx),
	}, nil
}

// atomic runs fn against a checkpoint of the ledger. Any error discards every
// write fn made, success commits them in one batch.
func (s *Staker) atomic(op string, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { recordOperation(op, err) }()

	checkpoint := s.sctx.Checkpoint()
	if err = fn(); err != nil {
		s.sctx.RevertTo(checkpoint)
		return err
	}
	if err = s.sctx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit ledger")
	}
	s.refreshActiveNodes()
	return nil
}

// view runs a read only fn. Reads never leave pending writes behind.
func (s *Staker) view(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpoint := s.sctx.Checkpoint()
	defer s.sctx.RevertTo(checkpoint)
	return fn()
}

// begin loads the global record and resolves the epoch of the call.
func (s *Staker) begin(call Call) (*globalstats.Global, uint32, error) {
	g, err := s.globalService.Get()
	if err != nil {
		return nil, 0, err
	}
	if g == nil {
		return nil, 0, ErrNotInitialized
	}
	current := g.Clock().EpochAt(call.Timestamp)
	if current < g.LastEpochStakingUpdated {
		return nil, 0, ErrTimestampRegressed
	}
	return g, current, nil
}

func (s *Staker) getNode(id uint64) (*node.Node, error) {
	n, err := s.nodeService.Get(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

func (s *Staker) getPosition(id uint64) (*position.Position, error) {
	p, err := s.positionService.Get(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPositionNotFound
	}
	return p, nil
}

// getTier returns nil for the liquid tier.
func (s *Staker) getTier(id uint32) (*tier.Tier, error) {
	if id == tier.Liquid {
		return nil, nil
	}
	t, err := s.tierService.Get(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTierNotFound
	}
	return t, nil
}

func (s *Staker) saveAll(g *globalstats.Global, n *node.Node, positions ...*position.Position) error {
	for _, p := range positions {
		if p == nil {
			continue
		}
		if err := s.positionService.Save(p); err != nil {
			return err
		}
	}
	if n != nil {
		if err := s.nodeService.Save(n); err != nil {
			return err
		}
	}
	if g != nil {
		return s.globalService.Save(g)
	}
	return nil
}

func logFailure(msg string, err error, ctx ...any) {
	if reverts.IsRevertErr(err) {
		logger.Info(msg, append(ctx, "error", err)...)
		return
	}
	logger.Error(msg, append(ctx, "error", err)...)
}
