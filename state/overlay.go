// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package state 账本状态: 分层的 KV 缓存以及类型化的 store
package state

import (
	"sort"

	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/types"
)

// KV state access; Set with a nil value deletes the key
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
}

// Overlay 一层未提交的写缓存, nil 值表示删除
type Overlay struct {
	parent KV
	cache  map[string][]byte
}

// NewOverlay new overlay reading through to parent
func NewOverlay(parent KV) *Overlay {
	return &Overlay{parent: parent, cache: make(map[string][]byte)}
}

// Get get value from the overlay, then its parent
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if value, ok := o.cache[string(key)]; ok {
		if value == nil {
			return nil, types.ErrNotFound
		}
		return dbm.CopyBytes(value), nil
	}
	if o.parent == nil {
		return nil, types.ErrNotFound
	}
	return o.parent.Get(key)
}

// Set set key value, a nil value marks the key deleted
func (o *Overlay) Set(key []byte, value []byte) error {
	o.cache[string(key)] = dbm.CopyBytes(value)
	return nil
}

// Len number of modified keys
func (o *Overlay) Len() int {
	return len(o.cache)
}

// Keys modified keys, sorted
func (o *Overlay) Keys() []string {
	keys := make([]string, 0, len(o.cache))
	for k := range o.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteTo writes every modification into dst in key order
func (o *Overlay) WriteTo(dst KV) error {
	for _, k := range o.Keys() {
		if err := dst.Set([]byte(k), o.cache[k]); err != nil {
			return err
		}
	}
	return nil
}

// MergeInto writes every modification into dst and clears the overlay
func (o *Overlay) MergeInto(dst KV) error {
	if err := o.WriteTo(dst); err != nil {
		return err
	}
	o.Reset()
	return nil
}

// Reset drop every modification
func (o *Overlay) Reset() {
	o.cache = make(map[string][]byte)
}

// Base 持久化数据库上的只读视图, 写入只能通过 Flush 批量完成
type Base struct {
	db dbm.DB
}

// NewBase new base
func NewBase(db dbm.DB) *Base {
	return &Base{db: db}
}

// Get get
func (b *Base) Get(key []byte) ([]byte, error) {
	return b.db.Get(key)
}

// Set is not allowed on the durable base
func (b *Base) Set(key []byte, value []byte) error {
	return types.ErrNotAllowedOnBase
}

// Flush applies the overlay to the db in one batch and clears it
func (b *Base) Flush(o *Overlay) error {
	if o.Len() == 0 {
		return nil
	}
	batch := b.db.NewBatch(true)
	for _, k := range o.Keys() {
		v := o.cache[k]
		if v == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Set([]byte(k), v)
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	o.Reset()
	return nil
}
