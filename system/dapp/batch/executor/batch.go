// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package executor atomic batch: 内部交易作为子交易逐个执行, 全部成功或者全部回滚
package executor

import (
	log "github.com/inconshreveable/log15"

	"github.com/33cn/txflow/signature"
	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

var blog = log.New("module", "execs.batch")

// MaxInnerTransactions 单个 batch 的内部交易上限
const MaxInnerTransactions = 50

func init() {
	drivers.Register(types.FuncAtomicBatch, newAtomicBatch)
}

// AtomicBatch all or nothing execution of the inner transactions
type AtomicBatch struct{}

func newAtomicBatch() drivers.Handler {
	return &AtomicBatch{}
}

// PureChecks non empty, bounded, no nested batches
func (b *AtomicBatch) PureChecks(body *types.TransactionBody) error {
	op := body.AtomicBatch
	if op == nil {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	if len(op.Transactions) == 0 {
		return types.NewPreCheckError(types.BATCH_LIST_EMPTY)
	}
	if len(op.Transactions) > MaxInnerTransactions {
		return types.NewPreCheckError(types.MAX_CHILD_RECORDS_EXCEEDED)
	}
	for _, inner := range op.Transactions {
		fn, err := types.FunctionOf(inner)
		if err != nil {
			return err
		}
		if fn == types.FuncAtomicBatch {
			return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
		}
	}
	return nil
}

// PreHandle inner signers are checked when each inner transaction is dispatched
func (b *AtomicBatch) PreHandle(ctx drivers.PreHandleContext) error {
	return nil
}

// CalculateFees one verification per inner transaction on top of the batch itself
func (b *AtomicBatch) CalculateFees(ctx drivers.FeeContext) types.Fees {
	return ctx.FeeCalculator().AddVerifications(int64(len(ctx.Body().AtomicBatch.Transactions))).Calculate()
}

// Handle dispatches every inner transaction as a reversible child
func (b *AtomicBatch) Handle(ctx drivers.HandleContext) error {
	for i, inner := range ctx.Body().AtomicBatch.Transactions {
		payer := inner.PayerID()
		if payer == nil {
			payer = ctx.Payer()
		}
		keys, err := ctx.AllKeysForTransaction(inner, payer)
		if err != nil {
			blog.Debug("Handle inner keys", "index", i, "err", err)
			return types.NewHandleError(types.UNRESOLVABLE_REQUIRED_SIGNERS)
		}
		builder, err := ctx.DispatchChildTransaction(drivers.ChildOptions{
			Body:   inner,
			Payer:  payer,
			Filter: signature.KeyFilterOf(keys),
		})
		if err != nil {
			return err
		}
		if builder.Status() != types.SUCCESS {
			blog.Info("Handle inner failed", "index", i, "functionality", builder.Functionality(), "status", builder.Status())
			return types.NewHandleError(types.INNER_TRANSACTION_FAILED)
		}
	}
	if !ctx.HasThrottleCapacityForChildTransactions() {
		return types.NewHandleError(types.THROTTLED_AT_CONSENSUS)
	}
	return nil
}
