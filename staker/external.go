// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// Custody holds the staked asset. The ledger reports every movement to it
// and never touches balances itself.
type Custody interface {
	Deposit(from thor.Address, amount *big.Int) error
	Withdraw(to thor.Address, amount *big.Int) error
	ReduceLocked(amount *big.Int) error
}

// Registry owns position identifiers and their transfer.
type Registry interface {
	Mint(owner thor.Address) (uint64, error)
	Burn(id uint64) error
}

// withMintedPosition mints a position id for owner and burns it again if fn fails.
func (s *Staker) withMintedPosition(owner thor.Address, fn func(id uint64) error) (uint64, error) {
	id, err := s.registry.Mint(owner)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mint position")
	}
	if err := fn(id); err != nil {
		if burnErr := s.registry.Burn(id); burnErr != nil {
			logger.Warn("failed to burn position of reverted operation", "position", id, "error", burnErr)
		}
		return 0, err
	}
	return id, nil
}

func (s *Staker) deposit(from thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return errors.Wrap(s.custody.Deposit(from, amount), "custody deposit")
}

func (s *Staker) withdraw(to thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return errors.Wrap(s.custody.Withdraw(to, amount), "custody withdraw")
}

func (s *Staker) reduceLocked(amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return errors.Wrap(s.custody.ReduceLocked(amount), "custody reduce locked")
}

func (s *Staker) burn(id uint64) error {
	return errors.Wrap(s.registry.Burn(id), "failed to burn position")
}
