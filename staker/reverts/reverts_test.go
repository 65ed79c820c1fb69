// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)
	assert.Equal(t, KindPrecondition, revert.Kind())

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_Kinds(t *testing.T) {
	assert.Equal(t, KindDomain, NewDomain("x").Kind())
	assert.Equal(t, KindState, NewState("x").Kind())
	assert.Equal(t, KindInvariant, NewInvariant("x").Kind())
	assert.Equal(t, "underflow at 3", Invariantf("underflow at %d", 3).Error())

	wrapped := errors.Wrap(NewState("node is not active"), "slash")
	assert.True(t, IsRevertErr(wrapped))
	assert.Equal(t, KindState, KindOf(wrapped))
	assert.Equal(t, Kind(0), KindOf(errors.New("io")))
	assert.Equal(t, "domain", KindDomain.String())
}
