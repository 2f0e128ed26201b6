// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"time"

	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/types"
)

// DueDiligenceInfo 节点侧检查的结果; the status may be replaced once
type DueDiligenceInfo struct {
	CreatorID      int64
	CreatorAccount *types.AccountID
	Status         types.ResponseCode
	replaced       bool
}

// Replace replaces the status, only once
func (dd *DueDiligenceInfo) Replace(status types.ResponseCode) error {
	if dd.replaced {
		return types.ErrDueDiligenceReplaced
	}
	dd.Status = status
	dd.replaced = true
	return nil
}

// dispatchTree state shared by every dispatch of one consensus transaction
type dispatchTree struct {
	paidRewards map[string]int64
	nonce       int32
}

func (t *dispatchTree) nextNonce() int32 {
	t.nonce++
	return t.nonce
}

func (t *dispatchTree) addPaidRewards(rewards []*types.AccountAmount) {
	if len(rewards) == 0 {
		return
	}
	if t.paidRewards == nil {
		t.paidRewards = make(map[string]int64)
	}
	for _, aa := range rewards {
		t.paidRewards[aa.Account.Key()] += aa.Amount
	}
}

// Dispatch 一次执行: 顶层交易或者由其派生的子交易
type Dispatch struct {
	ConsensusNow   time.Time
	TxnInfo        *types.TransactionInfo
	Category       types.TransactionCategory
	SyntheticPayer *types.AccountID
	DueDiligence   *DueDiligenceInfo
	Fees           types.Fees
	KeyVerifier    signature.KeyVerifier
	// non payer keys gathered by pre-handle
	RequiredKeys    []*types.Key
	RequiredAliases [][]byte
	Stack           *SavepointStack
	Savepoint       *Savepoint
	Builder         *RecordBuilder

	parent   *Dispatch
	tree     *dispatchTree
	children []*RecordBuilder
	// business logic ran, successfully or not
	handled bool
}

// Body body
func (d *Dispatch) Body() *types.TransactionBody {
	return d.TxnInfo.Body
}

// Functionality functionality
func (d *Dispatch) Functionality() types.Functionality {
	return d.TxnInfo.Functionality
}

// Parent nil for the user dispatch
func (d *Dispatch) Parent() *Dispatch {
	return d.parent
}

// PaidRewards rewards paid anywhere in the tree; never nil
func (d *Dispatch) PaidRewards() map[string]int64 {
	if d.tree.paidRewards == nil {
		return map[string]int64{}
	}
	return d.tree.paidRewards
}
