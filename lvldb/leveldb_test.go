// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	persistent, err := Open(Options{Path: filepath.Join(t.TempDir(), "lvldb"), CacheMB: 16, Sync: true})
	require.NoError(t, err)
	defer persistent.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{persistent, mem} {
		assert.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		assert.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		assert.NoError(t, err)
		assert.False(t, has)

		assert.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestLevelDBBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Put([]byte("gone"), []byte("x")))

	bulk := db.Bulk()
	assert.NoError(t, bulk.Put([]byte("a"), []byte("1")))
	assert.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	assert.NoError(t, bulk.Delete([]byte("gone")))
	assert.Equal(t, 3, bulk.Len())

	_, err = db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, bulk.Write())

	v, err := db.Get([]byte("b"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	_, err = db.Get([]byte("gone"))
	assert.True(t, db.IsNotFound(err))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")

	db, err := Open(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(Options{Path: path})
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
