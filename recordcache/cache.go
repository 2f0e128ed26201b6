// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recordcache 最近处理过的交易记录, 用于去重和回执查询
package recordcache

import (
	"container/heap"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"

	"github.com/33cn/txflow/types"
)

var clog = log.New("module", "recordcache")

type entry struct {
	nodeIDs map[int64]bool
	payer   *types.AccountID
	records []*types.TransactionRecord
}

type expiry struct {
	key      string
	expireAt int64
}

// expiryQueue min heap on expireAt
type expiryQueue []expiry

func (q expiryQueue) Len() int            { return len(q) }
func (q expiryQueue) Less(i, j int) bool  { return q[i].expireAt < q[j].expireAt }
func (q expiryQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *expiryQueue) Push(x interface{}) { *q = append(*q, x.(expiry)) }
func (q *expiryQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// Cache records by transaction id. An entry lives until Purge passes the end of its
// valid window; capacity is only the initial size and grows when reached.
type Cache struct {
	mu               sync.Mutex
	entries          *lru.Cache
	size             int
	queue            expiryQueue
	maxValidDuration time.Duration
}

// New new record cache
func New(capacity int, maxValidDuration time.Duration) (*Cache, error) {
	entries, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, size: capacity, maxValidDuration: maxValidDuration}, nil
}

// HasDuplicate whether txnID was already handled, and if so by which node
func (c *Cache) HasDuplicate(txnID *types.TransactionID, nodeID int64) types.DuplicateCheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries.Peek(txnID.Key())
	if !ok {
		return types.NoDuplicate
	}
	if v.(*entry).nodeIDs[nodeID] {
		return types.SameNode
	}
	return types.OtherNode
}

// Add remembers records submitted by nodeID for the user transaction of payer
func (c *Cache) Add(nodeID int64, payer *types.AccountID, records []*types.TransactionRecord) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range records {
		txnID := record.TransactionID
		if txnID == nil {
			continue
		}
		key := txnID.Key()
		var e *entry
		if v, ok := c.entries.Peek(key); ok {
			e = v.(*entry)
		} else {
			c.grow()
			e = &entry{nodeIDs: make(map[int64]bool), payer: payer}
			c.entries.Add(key, e)
			expireAt := txnID.ValidStart.AsTime().Add(c.maxValidDuration).UnixNano()
			heap.Push(&c.queue, expiry{key: key, expireAt: expireAt})
		}
		e.nodeIDs[nodeID] = true
		e.records = append(e.records, record)
	}
}

// grow doubles the lru before it would evict
func (c *Cache) grow() {
	if c.entries.Len() < c.size {
		return
	}
	c.size *= 2
	c.entries.Resize(c.size)
	clog.Info("record cache grown", "size", c.size)
}

// Purge drops entries that can no longer be submitted at consensus time now
func (c *Cache) Purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	nanos := now.UnixNano()
	purged := 0
	for c.queue.Len() > 0 && c.queue[0].expireAt < nanos {
		exp := heap.Pop(&c.queue).(expiry)
		if c.entries.Remove(exp.key) {
			purged++
		}
	}
	if purged > 0 {
		clog.Debug("Purge", "purged", purged, "remaining", c.entries.Len())
	}
	return purged
}

// GetReceipt receipt of the first record for txnID
func (c *Cache) GetReceipt(txnID *types.TransactionID) (*types.TransactionReceipt, error) {
	records, err := c.GetRecords(txnID)
	if err != nil {
		return nil, err
	}
	return records[0].Receipt, nil
}

// GetRecords every record for txnID in the order they were added
func (c *Cache) GetRecords(txnID *types.TransactionID) ([]*types.TransactionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries.Peek(txnID.Key())
	if !ok {
		return nil, types.ErrNotFound
	}
	e := v.(*entry)
	return append([]*types.TransactionRecord{}, e.records...), nil
}

// Len number of transaction ids cached
func (c *Cache) Len() int {
	return c.entries.Len()
}
