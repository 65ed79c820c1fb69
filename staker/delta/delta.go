// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delta

import "math/big"

// Change is a signed move of stake applied to a node and mirrored into the global totals.
type Change struct {
	Weight      *big.Int // reward eligible weight
	Base        *big.Int // principal
	Excess      *big.Int // weight scheduled to leave at ExpiryEpoch, negative cancels
	ExpiryEpoch uint32
}

func NewChange() *Change {
	return &Change{
		Weight: new(big.Int),
		Base:   new(big.Int),
		Excess: new(big.Int),
	}
}

// NewStake is the change of adding a position of the given weight and base.
// Excess only applies when expiry is non zero.
func NewStake(weight, base, excess *big.Int, expiry uint32) *Change {
	c := NewChange()
	c.Weight.Set(weight)
	c.Base.Set(base)
	if expiry != 0 && excess != nil {
		c.Excess.Set(excess)
		c.ExpiryEpoch = expiry
	}
	return c
}

// Neg returns the change that undoes c.
func (c *Change) Neg() *Change {
	return &Change{
		Weight:      new(big.Int).Neg(c.Weight),
		Base:        new(big.Int).Neg(c.Base),
		Excess:      new(big.Int).Neg(c.Excess),
		ExpiryEpoch: c.ExpiryEpoch,
	}
}

// HasExpiry returns whether the change touches an expiry registration.
func (c *Change) HasExpiry() bool {
	return c.ExpiryEpoch != 0 && c.Excess.Sign() != 0
}
