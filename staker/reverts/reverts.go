// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected.
type Kind uint8

const (
	// KindPrecondition covers malformed input and failed lookups.
	KindPrecondition Kind = iota + 1
	// KindDomain covers amounts, fees, weights or epochs outside the allowed rules.
	KindDomain
	// KindState covers acting on an entity in the wrong lifecycle state.
	KindState
	// KindInvariant is an internal accounting failure, such as an underflow.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindDomain:
		return "domain"
	case KindState:
		return "state"
	case KindInvariant:
		return "invariant"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

func newRevert(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

// New returns a precondition revert.
func New(message string) *ErrRevert {
	return newRevert(KindPrecondition, message)
}

func NewDomain(message string) *ErrRevert {
	return newRevert(KindDomain, message)
}

func NewState(message string) *ErrRevert {
	return newRevert(KindState, message)
}

func NewInvariant(message string) *ErrRevert {
	return newRevert(KindInvariant, message)
}

func Invariantf(format string, args ...any) *ErrRevert {
	return newRevert(KindInvariant, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of a revert error, zero if err is not one.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return 0
}
