// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// Variable is a single rlp encoded value stored at a fixed slot.
type Variable[V any] struct {
	context *Context
	pos     thor.Bytes32
}

func NewVariable[V any](context *Context, pos thor.Bytes32) *Variable[V] {
	return &Variable[V]{context: context, pos: pos}
}

// Get returns the stored value, the zero value of V if never set.
func (v *Variable[V]) Get() (value V, err error) {
	raw, err := v.context.Get(v.pos.Bytes())
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode variable")
	}
	return value, nil
}

// Set stores the value.
func (v *Variable[V]) Set(value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode variable")
	}
	v.context.Put(v.pos.Bytes(), raw)
	return nil
}
