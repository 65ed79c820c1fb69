// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	gomath "math"

	"github.com/ethereum/go-ethereum/common/math"
)

// Clock converts timestamps to epochs. Epoch 0 is the time before staking starts,
// epoch 1 is the first staking epoch.
type Clock struct {
	start    uint64
	duration uint64
}

func NewClock(start, duration uint64) Clock {
	return Clock{start: start, duration: duration}
}

// Started returns whether the clock has been configured.
func (c Clock) Started() bool {
	return c.duration > 0
}

func (c Clock) Duration() uint64 {
	return c.duration
}

func (c Clock) StartTimestamp() uint64 {
	return c.start
}

// EpochAt returns the epoch containing timestamp t.
// Epochs beyond the uint32 range saturate.
func (c Clock) EpochAt(t uint64) uint32 {
	if !c.Started() || t < c.start {
		return 0
	}
	elapsed := (t - c.start) / c.duration
	if elapsed >= gomath.MaxUint32 {
		return gomath.MaxUint32
	}
	return uint32(elapsed) + 1
}

// Start returns the first timestamp of epoch e. Epoch 0 starts at 0.
func (c Clock) Start(e uint32) uint64 {
	if e == 0 {
		return 0
	}
	offset, overflow := math.SafeMul(uint64(e-1), c.duration)
	if overflow {
		return gomath.MaxUint64
	}
	start, overflow := math.SafeAdd(c.start, offset)
	if overflow {
		return gomath.MaxUint64
	}
	return start
}

// End returns the last timestamp of epoch e, inclusive.
func (c Clock) End(e uint32) uint64 {
	if e == 0 {
		if c.start == 0 {
			return 0
		}
		return c.start - 1
	}
	offset, overflow := math.SafeMul(uint64(e), c.duration)
	if overflow {
		return gomath.MaxUint64
	}
	end, overflow := math.SafeAdd(c.start, offset)
	if overflow {
		return gomath.MaxUint64
	}
	return end - 1
}
