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

// Mapping is a key/value storage abstraction, similar to the mapping in Solidity.
// Values are rlp encoded, an absent entry decodes to the zero value of V.
type Mapping[K Key, V any] struct {
	context *Context
	basePos thor.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos thor.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) []byte {
	return thor.Blake2b(key.Bytes(), m.basePos.Bytes()).Bytes()
}

// Get returns the value of key. For pointer values, nil is returned if the key is absent.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	raw, err := m.context.Get(m.position(key))
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode mapping value")
	}
	return value, nil
}

// Has returns whether key holds a value.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.context.Get(m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Insert sets the value of a key that must not hold a value yet.
func (m *Mapping[K, V]) Insert(key K, value V) error {
	has, err := m.Has(key)
	if err != nil {
		return err
	}
	if has {
		return errors.New("mapping entry already exists")
	}
	return m.Upsert(key, value)
}

// Update sets the value of a key that must already hold a value.
func (m *Mapping[K, V]) Update(key K, value V) error {
	has, err := m.Has(key)
	if err != nil {
		return err
	}
	if !has {
		return errors.New("mapping entry does not exist")
	}
	return m.Upsert(key, value)
}

// Upsert sets the value of key regardless of its previous state.
func (m *Mapping[K, V]) Upsert(key K, value V) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode mapping value")
	}
	m.context.Put(m.position(key), val)
	return nil
}

// Delete clears the value of key.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.Put(m.position(key), nil)
}
