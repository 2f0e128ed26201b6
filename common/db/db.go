// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db 持久化状态的 KV 数据库后端
package db

import (
	"bytes"

	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
)

// KV key value pair
type KV struct {
	Key   []byte
	Value []byte
}

// DB 数据库操作接口, Get 不存在时返回 types.ErrNotFound
type DB interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	Close()
	NewBatch(sync bool) Batch
	// PrefixScan key ascending
	PrefixScan(prefix []byte) ([]KV, error)
}

// Batch writes applied atomically by Write
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write() error
	ValueSize() int
	Reset()
}

// backend names
const (
	LevelDBBackendStr    = "leveldb" // legacy, defaults to goleveldb.
	GoLevelDBBackendStr  = "goleveldb"
	MemDBBackendStr      = "memdb"
	GoBadgerDBBackendStr = "gobadgerdb"
)

type dbCreator func(name string, dir string, cache int) (DB, error)

var backends = map[string]dbCreator{}

func registerDBCreator(backend string, creator dbCreator, force bool) {
	_, ok := backends[backend]
	if !force && ok {
		return
	}
	backends[backend] = creator
}

// NewDB new db of the named backend
func NewDB(name string, backend string, dir string, cache int) (DB, error) {
	creator, ok := backends[backend]
	if !ok {
		return nil, errors.Wrapf(types.ErrUnknownDBBackend, "backend %s", backend)
	}
	db, err := creator(name, dir, cache)
	if err != nil {
		return nil, errors.Wrapf(err, "init db %s", backend)
	}
	return db, nil
}

// CopyBytes copy bytes
func CopyBytes(b []byte) (copiedBytes []byte) {
	if b == nil {
		return nil
	}
	copiedBytes = make([]byte, len(b))
	copy(copiedBytes, b)
	return copiedBytes
}

func hasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}
