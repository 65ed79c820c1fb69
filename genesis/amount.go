// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HexOrDecimal256 marshals big.Int as hex or decimal.
type HexOrDecimal256 math.HexOrDecimal256

func NewAmount(v *big.Int) *HexOrDecimal256 {
	return (*HexOrDecimal256)(new(big.Int).Set(v))
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: amount must be a scalar", value.Line)
	}
	bigint, ok := math.ParseBig256(value.Value)
	if !ok {
		return errors.Errorf("line %d: invalid hex or decimal integer %q", value.Line, value.Value)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (i HexOrDecimal256) MarshalYAML() (any, error) {
	decimal256 := math.HexOrDecimal256(i)
	text, err := decimal256.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Big returns a copy of the amount, nil if unset.
func (i *HexOrDecimal256) Big() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(i))
}
