// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"

	"github.com/vechain/stakeledger/thor"
)

// Key is anything that can address a mapping entry.
type Key interface {
	Bytes() []byte
}

// Uint64 is a big-endian encoded key, used for node and position ids.
type Uint64 uint64

func (k Uint64) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// Uint32 is a big-endian encoded key, used for epochs and tier ids.
type Uint32 uint32

func (k Uint32) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(k))
}

// Pair joins two fixed width keys.
type Pair struct {
	A Key
	B Key
}

func (p Pair) Bytes() []byte {
	return append(p.A.Bytes(), p.B.Bytes()...)
}

// NameToSlot converts a storage name into its base slot.
func NameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}
