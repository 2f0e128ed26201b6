// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"sort"
	"time"

	"github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

// RecordBuilder 一个 dispatch 的 record, 由创建它时的栈顶 savepoint 持有
type RecordBuilder struct {
	seq          int
	category     types.TransactionCategory
	reversing    types.ReversingBehavior
	info         *types.TransactionInfo
	owner        *Savepoint
	removed      bool
	record       *types.TransactionRecord
	transfers    []*types.AccountAmount
	paidRewards  []*types.AccountAmount
	externalizer func(*types.TransactionRecord)
}

func (b *RecordBuilder) revert() {
	if b.record.Receipt.Status == types.SUCCESS {
		b.record.Receipt.Status = types.REVERTED_SUCCESS
	}
}

// Status status
func (b *RecordBuilder) Status() types.ResponseCode {
	return b.record.Receipt.Status
}

// SetStatus set status
func (b *RecordBuilder) SetStatus(status types.ResponseCode) {
	b.record.Receipt.Status = status
}

// Category category
func (b *RecordBuilder) Category() types.TransactionCategory {
	return b.category
}

// ReversingBehavior reversing behavior
func (b *RecordBuilder) ReversingBehavior() types.ReversingBehavior {
	return b.reversing
}

// Functionality functionality of the dispatched body
func (b *RecordBuilder) Functionality() types.Functionality {
	return b.info.Functionality
}

// TransactionID transaction id
func (b *RecordBuilder) TransactionID() *types.TransactionID {
	return b.record.TransactionID
}

// SetMemo set memo
func (b *RecordBuilder) SetMemo(memo string) {
	b.record.Memo = memo
}

// SetTransactionFee fee actually charged
func (b *RecordBuilder) SetTransactionFee(fee int64) {
	b.record.TransactionFee = fee
}

// AddTransfers hbar movements, netted per account when the record is built
func (b *RecordBuilder) AddTransfers(transfers ...*types.AccountAmount) {
	b.transfers = append(b.transfers, transfers...)
}

// AddPaidStakingReward reward paid to account by this dispatch
func (b *RecordBuilder) AddPaidStakingReward(account *types.AccountID, amount int64) {
	b.paidRewards = append(b.paidRewards, &types.AccountAmount{Account: account, Amount: amount})
}

// PaidStakingRewards rewards paid by this dispatch
func (b *RecordBuilder) PaidStakingRewards() []*types.AccountAmount {
	return b.paidRewards
}

// Record copy of the record
func (b *RecordBuilder) Record() *types.TransactionRecord {
	r := types.Clone(b.record).(*types.TransactionRecord)
	if transfers := netTransfers(b.transfers); len(transfers) > 0 {
		r.TransferList = &types.TransferList{AccountAmounts: transfers}
	}
	r.PaidStakingRewards = append(r.PaidStakingRewards, b.paidRewards...)
	return r
}

// Removed whether a rollback dropped the record
func (b *RecordBuilder) Removed() bool {
	return b.removed
}

// shaped wraps the builder in the shape of its functionality
func (b *RecordBuilder) shaped() dapp.StreamBuilder {
	switch b.info.Functionality {
	case types.FuncCryptoCreate:
		return &cryptoCreateBuilder{b}
	case types.FuncCryptoTransfer:
		return &cryptoTransferBuilder{b}
	case types.FuncContractCall, types.FuncContractCreate:
		return &contractBuilder{b}
	}
	return b
}

type cryptoCreateBuilder struct {
	*RecordBuilder
}

func (b *cryptoCreateBuilder) SetAccountID(id *types.AccountID) {
	b.record.Receipt.AccountID = id
}

func (b *cryptoCreateBuilder) AccountID() *types.AccountID {
	return b.record.Receipt.AccountID
}

func (b *cryptoCreateBuilder) SetAlias(alias []byte) {
	b.record.Alias = alias
}

type cryptoTransferBuilder struct {
	*RecordBuilder
}

func (b *cryptoTransferBuilder) Transfers() []*types.AccountAmount {
	return netTransfers(b.transfers)
}

type contractBuilder struct {
	*RecordBuilder
}

func (b *contractBuilder) SetContractID(id *types.AccountID) {
	b.record.Receipt.ContractID = id
}

func (b *contractBuilder) ContractID() *types.AccountID {
	return b.record.Receipt.ContractID
}

// netTransfers sums amounts per account, ordered by account; zero sums are dropped
func netTransfers(transfers []*types.AccountAmount) []*types.AccountAmount {
	if len(transfers) == 0 {
		return nil
	}
	sums := make(map[string]*types.AccountAmount)
	var keys []string
	for _, t := range transfers {
		k := t.Account.Key()
		if s, ok := sums[k]; ok {
			s.Amount += t.Amount
			continue
		}
		sums[k] = &types.AccountAmount{Account: t.Account, Amount: t.Amount}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*types.AccountAmount, 0, len(keys))
	for _, k := range keys {
		if sums[k].Amount != 0 {
			out = append(out, sums[k])
		}
	}
	return out
}

// RecordListBuilder 记录所有 builder 的创建顺序, 并限制 preceding/child 的数量
type RecordListBuilder struct {
	maxPreceding int
	maxChildren  int
	numPreceding int
	numChildren  int
	hasUser      bool
	seq          int
}

func newRecordListBuilder(maxPreceding, maxChildren int) *RecordListBuilder {
	return &RecordListBuilder{maxPreceding: maxPreceding, maxChildren: maxChildren}
}

func (l *RecordListBuilder) newBuilder(info *types.TransactionInfo, category types.TransactionCategory, reversing types.ReversingBehavior) (*RecordBuilder, error) {
	switch category {
	case types.CategoryUser:
		if l.hasUser {
			return nil, types.Fatalf(types.ErrRecordBuilderMismatch, "second user record")
		}
		l.hasUser = true
	case types.CategoryPreceding:
		if l.numPreceding >= l.maxPreceding {
			return nil, types.NewHandleError(types.MAX_CHILD_RECORDS_EXCEEDED)
		}
		l.numPreceding++
	default:
		if l.numChildren >= l.maxChildren {
			return nil, types.NewHandleError(types.MAX_CHILD_RECORDS_EXCEEDED)
		}
		l.numChildren++
	}
	l.seq++
	record := &types.TransactionRecord{
		Receipt:         &types.TransactionReceipt{Status: types.OK},
		TransactionHash: info.Hash(),
		TransactionID:   info.TxID(),
		Memo:            info.Body.Memo,
	}
	return &RecordBuilder{seq: l.seq, category: category, reversing: reversing, info: info, record: record}, nil
}

// build 输出顺序: preceding, user, children; 各自按创建顺序
func (l *RecordListBuilder) build(builders []*RecordBuilder, now time.Time) []*types.TransactionRecord {
	var preceding, children []*RecordBuilder
	var user *RecordBuilder
	for _, b := range builders {
		if b.removed {
			continue
		}
		switch b.category {
		case types.CategoryUser:
			user = b
		case types.CategoryPreceding:
			preceding = append(preceding, b)
		default:
			children = append(children, b)
		}
	}
	bySeq := func(list []*RecordBuilder) {
		sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	}
	bySeq(preceding)
	bySeq(children)

	records := make([]*types.TransactionRecord, 0, len(preceding)+len(children)+1)
	for i, b := range preceding {
		at := now.Add(-time.Duration(len(preceding)-i) * time.Nanosecond)
		records = append(records, externalize(b, at, nil))
	}
	if user != nil {
		records = append(records, externalize(user, now, nil))
	}
	parent := types.NewTimestamp(now)
	for i, b := range children {
		at := now.Add(time.Duration(i+1) * time.Nanosecond)
		records = append(records, externalize(b, at, parent))
	}
	return records
}

func externalize(b *RecordBuilder, at time.Time, parent *types.Timestamp) *types.TransactionRecord {
	r := b.Record()
	r.ConsensusTimestamp = types.NewTimestamp(at)
	if parent != nil {
		r.ParentConsensusTimestamp = types.NewTimestamp(parent.AsTime())
	}
	if b.externalizer != nil {
		b.externalizer(r)
	}
	return r
}
