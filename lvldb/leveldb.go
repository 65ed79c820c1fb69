// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb backs the ledger storage with goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/metrics"
)

var _ kv.StoreCloser = (*LevelDB)(nil)

var metricCommittedOps = metrics.LazyLoadCounter("lvldb_committed_ops")

const minCacheMB = 16

// Options configures the database.
type Options struct {
	Path      string // on disk location, empty keeps everything in memory
	CacheMB   int    // split between the block cache and the write buffer
	OpenFiles int
	Sync      bool // fsync every committed batch
}

func (o Options) leveldb() *opt.Options {
	cacheMB := max(o.CacheMB, minCacheMB)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFiles, 16),
		BlockCacheCapacity:     cacheMB / 2 * opt.MiB,
		WriteBuffer:            cacheMB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

// LevelDB is a kv.Store on a leveldb instance.
type LevelDB struct {
	db    *leveldb.DB
	write *opt.WriteOptions
}

// Open opens the database at opts.Path, creating it if needed.
func Open(opts Options) (*LevelDB, error) {
	var (
		stg storage.Storage
		err error
	)
	if opts.Path == "" {
		stg = storage.NewMemStorage()
	} else if stg, err = storage.OpenFile(opts.Path, false); err != nil {
		return nil, errors.Wrapf(err, "open leveldb files at %s", opts.Path)
	}

	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb")
	}
	return &LevelDB{db: db, write: &opt.WriteOptions{Sync: opts.Sync}}, nil
}

// NewMem opens an in memory database.
func NewMem() (*LevelDB, error) {
	return Open(Options{})
}

// IsNotFound reports whether err is the not found error of Get.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, ldb.write)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, ldb.write)
}

// Close releases the database, later calls fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Bulk starts a batch applied atomically on Write.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &batch{ldb: ldb, b: new(leveldb.Batch)}
}

type batch struct {
	ldb *LevelDB
	b   *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	if err := b.ldb.db.Write(b.b, b.ldb.write); err != nil {
		return errors.Wrap(err, "write leveldb batch")
	}
	metricCommittedOps().Add(int64(b.b.Len()))
	return nil
}
