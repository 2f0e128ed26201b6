// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

// ChildDispatchFactory 为子交易创建 Dispatch, savepoint 以及 record builder
type ChildDispatchFactory struct {
	preHandle *PreHandleWorkflow
	fees      *feeEngine
}

// NewChildDispatchFactory new
func NewChildDispatchFactory(preHandle *PreHandleWorkflow, fees *feeEngine) *ChildDispatchFactory {
	return &ChildDispatchFactory{preHandle: preHandle, fees: fees}
}

// CreateChildDispatch pushes the child's savepoint over the parent's current one.
// The child sees only the parent's verified keys that pass opts.Filter.
func (f *ChildDispatchFactory) CreateChildDispatch(parent *Dispatch, opts dapp.ChildOptions, category types.TransactionCategory, reversing types.ReversingBehavior) (*Dispatch, error) {
	if opts.Body == nil {
		return nil, types.NewHandleError(types.INVALID_TRANSACTION_BODY)
	}
	body := types.Clone(opts.Body).(*types.TransactionBody)
	if opts.Customizer != nil {
		body = opts.Customizer(body)
		if body == nil {
			return nil, types.NewHandleError(types.INVALID_TRANSACTION_BODY)
		}
	}
	payer := opts.Payer
	if payer == nil {
		payer = parent.SyntheticPayer
	}
	if body.ID == nil {
		body.ID = &types.TransactionID{
			Payer:      payer,
			ValidStart: parent.TxnInfo.TxID().GetValidStart(),
			Nonce:      parent.tree.nextNonce(),
			Scheduled:  category == types.CategoryScheduled,
		}
	}
	info, err := types.NewBodyInfo(body)
	if err != nil {
		return nil, err
	}

	stack := parent.Stack
	sp := stack.CreateSavepoint()
	builder, err := stack.CreateBuilder(info, category, reversing)
	if err != nil {
		if rerr := stack.Rollback(sp); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}
	builder.externalizer = opts.Externalizer

	verifier := signature.Filtered(parent.KeyVerifier, opts.Filter)
	res := &preHandleResult{info: info, status: types.OK}
	f.preHandle.preHandleBody(res, state.NewAccountStore(stack.State()), payer)

	childFees := types.FREE
	if category == types.CategoryScheduled && res.status == types.OK {
		childFees = f.fees.compute(body, info.Functionality, payer, types.Size(body), verifier.NumSignaturesVerified())
	}
	child := &Dispatch{
		ConsensusNow:   parent.ConsensusNow,
		TxnInfo:        info,
		Category:       category,
		SyntheticPayer: payer,
		DueDiligence: &DueDiligenceInfo{
			CreatorID:      parent.DueDiligence.CreatorID,
			CreatorAccount: parent.DueDiligence.CreatorAccount,
			Status:         res.status,
		},
		Fees:            childFees,
		KeyVerifier:     verifier,
		RequiredKeys:    res.requiredKeys,
		RequiredAliases: res.requiredAliases,
		Stack:           stack,
		Savepoint:       sp,
		Builder:         builder,
		parent:          parent,
		tree:            parent.tree,
	}
	parent.children = append(parent.children, builder)
	elog.Debug("CreateChildDispatch", "category", category, "functionality", info.Functionality, "reversing", reversing, "depth", sp.Depth())
	return child, nil
}
