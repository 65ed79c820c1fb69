// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/stakeledger/stackedmap"
)

func M(a ...any) []any {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, r := src[key]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() { sm.Push() }, 1, "", "", "foo", []any{"bar", true, nil}},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", []any{"baz", true, nil}},
		{func() {}, 2, "foo", "baz1", "foo", []any{"baz1", true, nil}},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", []any{"qux", true, nil}},
		{func() { sm.Pop() }, 2, "", "", "foo", []any{"baz1", true, nil}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"bar", true, nil}},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestStackedMapJournal(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(string) (string, bool, error) {
		return "", false, nil
	})

	sm.Push()
	sm.Put("a", "1")
	sm.Put("a", "2")
	depth := sm.Push()
	sm.Put("b", "3")

	journal := sm.Journal()
	assert.Len(journal, 3)
	assert.Equal("a", journal[0].Key)
	assert.Equal("2", journal[1].Value)
	assert.Equal("b", journal[2].Key)

	sm.PopTo(depth)
	assert.Len(sm.Journal(), 2)

	_, found, err := sm.Get("b")
	assert.NoError(err)
	assert.False(found)

	v, found, err := sm.Get("a")
	assert.NoError(err)
	assert.True(found)
	assert.Equal("2", v)
}

func TestStackedMapSourceError(t *testing.T) {
	boom := errors.New("boom")
	sm := stackedmap.New(func(string) (int, bool, error) {
		return 0, false, boom
	})
	sm.Push()

	_, _, err := sm.Get("x")
	assert.ErrorIs(t, err, boom)

	sm.Put("x", 1)
	v, found, err := sm.Get("x")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, v)
}
