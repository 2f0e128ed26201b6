// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"path"

	"github.com/dgraph-io/badger"
	log "github.com/inconshreveable/log15"

	"github.com/33cn/txflow/types"
)

var blog = log.New("module", "db.gobadgerdb")

func init() {
	dbCreator := func(name string, dir string, cache int) (DB, error) {
		return NewGoBadgerDB(name, dir, cache)
	}
	registerDBCreator(GoBadgerDBBackendStr, dbCreator, false)
}

// GoBadgerDB db
type GoBadgerDB struct {
	db *badger.DB
}

// NewGoBadgerDB new
func NewGoBadgerDB(name string, dir string, cache int) (*GoBadgerDB, error) {
	opts := badger.DefaultOptions(path.Join(dir, name+".badger"))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &GoBadgerDB{db: db}, nil
}

// Get get
func (db *GoBadgerDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, types.ErrNotFound
	}
	if err != nil {
		blog.Error("Get", "error", err)
		return nil, err
	}
	return val, nil
}

// Set set
func (db *GoBadgerDB) Set(key []byte, value []byte) error {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		blog.Error("Set", "error", err)
	}
	return err
}

// Delete delete
func (db *GoBadgerDB) Delete(key []byte) error {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		blog.Error("Delete", "error", err)
	}
	return err
}

// DB badger
func (db *GoBadgerDB) DB() *badger.DB {
	return db.db
}

// Close close
func (db *GoBadgerDB) Close() {
	err := db.db.Close()
	if err != nil {
		blog.Error("Close", "error", err)
	}
}

// PrefixScan key ascending
func (db *GoBadgerDB) PrefixScan(prefix []byte) ([]KV, error) {
	var kvs []KV
	err := db.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			kvs = append(kvs, KV{Key: item.KeyCopy(nil), Value: value})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kvs, nil
}

// NewBatch 一个 batch 对应一个 badger 写事务
func (db *GoBadgerDB) NewBatch(sync bool) Batch {
	return &GoBadgerDBBatch{db: db}
}

// GoBadgerDBBatch batch
type GoBadgerDBBatch struct {
	db     *GoBadgerDB
	writes []kv
	size   int
}

// Set set
func (mBatch *GoBadgerDBBatch) Set(key, value []byte) {
	mBatch.writes = append(mBatch.writes, kv{k: CopyBytes(key), v: CopyBytes(value)})
	mBatch.size += len(value)
}

// Delete delete
func (mBatch *GoBadgerDBBatch) Delete(key []byte) {
	mBatch.writes = append(mBatch.writes, kv{k: CopyBytes(key), del: true})
	mBatch.size++
}

// Write commit all writes in one transaction
func (mBatch *GoBadgerDBBatch) Write() error {
	txn := mBatch.db.db.NewTransaction(true)
	defer txn.Discard()
	for _, w := range mBatch.writes {
		var err error
		if w.del {
			err = txn.Delete(w.k)
		} else {
			err = txn.Set(w.k, w.v)
		}
		if err != nil {
			blog.Error("Write", "error", err)
			return err
		}
	}
	if err := txn.Commit(); err != nil {
		blog.Error("Write", "commit error", err)
		return err
	}
	return nil
}

// ValueSize size
func (mBatch *GoBadgerDBBatch) ValueSize() int {
	return mBatch.size
}

// Reset reset
func (mBatch *GoBadgerDBBatch) Reset() {
	mBatch.writes = mBatch.writes[:0]
	mBatch.size = 0
}
