// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"time"

	"github.com/33cn/txflow/fees"
	"github.com/33cn/txflow/metrics"
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

// feeEngine prices bodies through the dispatcher, honoring fee waivers
type feeEngine struct {
	cfg        *types.Config
	manager    *fees.Manager
	dispatcher *dapp.TransactionDispatcher
	authorizer *Authorizer
}

func (e *feeEngine) compute(body *types.TransactionBody, fn types.Functionality, payer *types.AccountID, bodySize int, numSigs int) types.Fees {
	if e.authorizer.HasWaivedFees(payer, fn, body) {
		return types.FREE
	}
	ctx := &feeContext{body: body, fn: fn, payer: payer, numSigs: numSigs, bodySize: bodySize, engine: e}
	return e.dispatcher.DispatchComputeFees(ctx)
}

type feeContext struct {
	body     *types.TransactionBody
	fn       types.Functionality
	payer    *types.AccountID
	numSigs  int
	bodySize int
	engine   *feeEngine
}

func (c *feeContext) Body() *types.TransactionBody { return c.body }
func (c *feeContext) Functionality() types.Functionality { return c.fn }
func (c *feeContext) Payer() *types.AccountID { return c.payer }
func (c *feeContext) NumSignatures() int { return c.numSigs }
func (c *feeContext) Configuration() *types.Config { return c.engine.cfg }

func (c *feeContext) FeeCalculator() dapp.FeeCalculator {
	return &feeCalculator{c: c.engine.manager.CreateCalculator(c.fn, c.bodySize, c.numSigs)}
}

type feeCalculator struct {
	c *fees.Calculator
}

func (f *feeCalculator) AddBytes(n int64) dapp.FeeCalculator {
	f.c.AddBytes(n)
	return f
}

func (f *feeCalculator) AddVerifications(n int64) dapp.FeeCalculator {
	f.c.AddVerifications(n)
	return f
}

func (f *feeCalculator) AddServiceTinycents(n int64) dapp.FeeCalculator {
	f.c.AddServiceTinycents(n)
	return f
}

func (f *feeCalculator) Calculate() types.Fees {
	return f.c.Calculate()
}

// DispatchHandleContext 业务逻辑能看到的全部能力, scoped to one dispatch
type DispatchHandleContext struct {
	d         *Dispatch
	processor *DispatchProcessor
}

func newDispatchHandleContext(d *Dispatch, processor *DispatchProcessor) *DispatchHandleContext {
	return &DispatchHandleContext{d: d, processor: processor}
}

// ConsensusNow same instant for the whole dispatch tree
func (c *DispatchHandleContext) ConsensusNow() time.Time { return c.d.ConsensusNow }

// Body body
func (c *DispatchHandleContext) Body() *types.TransactionBody { return c.d.Body() }

// Functionality functionality
func (c *DispatchHandleContext) Functionality() types.Functionality { return c.d.Functionality() }

// Payer synthetic payer
func (c *DispatchHandleContext) Payer() *types.AccountID { return c.d.SyntheticPayer }

// Category category
func (c *DispatchHandleContext) Category() types.TransactionCategory { return c.d.Category }

// Configuration configuration
func (c *DispatchHandleContext) Configuration() *types.Config { return c.processor.cfg }

// KeyVerifier verified keys visible to this dispatch
func (c *DispatchHandleContext) KeyVerifier() signature.KeyVerifier { return c.d.KeyVerifier }

// ReadableAccounts accounts as seen from the current savepoint
func (c *DispatchHandleContext) ReadableAccounts() state.ReadableAccountStore {
	return state.NewAccountStore(c.d.Stack.State())
}

// WritableAccounts accounts written to the current savepoint
func (c *DispatchHandleContext) WritableAccounts() *state.AccountStore {
	return state.NewAccountStore(c.d.Stack.State())
}

// WritableContracts contract storage written to the current savepoint
func (c *DispatchHandleContext) WritableContracts() *state.ContractStore {
	return state.NewContractStore(c.d.Stack.State())
}

// RecordBuilder builder of this dispatch, in the shape of its functionality
func (c *DispatchHandleContext) RecordBuilder() dapp.StreamBuilder {
	return c.d.Builder.shaped()
}

// DispatchComputeFees stamps a transaction id on body when it has none; unless
// asTopLevel only the service component is returned
func (c *DispatchHandleContext) DispatchComputeFees(body *types.TransactionBody, syntheticPayer *types.AccountID, asTopLevel bool) (types.Fees, error) {
	fn, err := types.FunctionOf(body)
	if err != nil {
		return types.FREE, err
	}
	body = types.Clone(body).(*types.TransactionBody)
	if body.ID == nil {
		body.ID = &types.TransactionID{Payer: syntheticPayer, ValidStart: types.NewTimestamp(c.d.ConsensusNow)}
	}
	computed := c.processor.fees.compute(body, fn, syntheticPayer, types.Size(body), c.d.KeyVerifier.NumSignaturesVerified())
	if !asTopLevel {
		return computed.OnlyServiceComponent(), nil
	}
	return computed, nil
}

// AllKeysForTransaction key discovery only, failures are not business errors
func (c *DispatchHandleContext) AllKeysForTransaction(body *types.TransactionBody, payer *types.AccountID) ([]*types.Key, error) {
	if body == nil {
		return nil, types.NewPreCheckError(types.UNRESOLVABLE_REQUIRED_SIGNERS)
	}
	return c.processor.preHandle.allKeysFor(c.ReadableAccounts(), body, payer)
}

// DispatchPrecedingTransaction the child's changes and record survive any rollback of this dispatch
func (c *DispatchHandleContext) DispatchPrecedingTransaction(opts dapp.ChildOptions) (dapp.StreamBuilder, error) {
	return c.dispatch(opts, types.CategoryPreceding, types.Irreversible, true)
}

// DispatchRemovablePrecedingTransaction preceding child rolled back with this dispatch
func (c *DispatchHandleContext) DispatchRemovablePrecedingTransaction(opts dapp.ChildOptions) (dapp.StreamBuilder, error) {
	return c.dispatch(opts, types.CategoryPreceding, types.Removable, false)
}

// DispatchChildTransaction child whose record is kept as reverted when this dispatch rolls back
func (c *DispatchHandleContext) DispatchChildTransaction(opts dapp.ChildOptions) (dapp.StreamBuilder, error) {
	return c.dispatch(opts, types.CategoryChild, types.Reversible, false)
}

// DispatchRemovableChildTransaction child removed entirely when this dispatch rolls back
func (c *DispatchHandleContext) DispatchRemovableChildTransaction(opts dapp.ChildOptions) (dapp.StreamBuilder, error) {
	return c.dispatch(opts, types.CategoryChild, types.Removable, false)
}

func (c *DispatchHandleContext) dispatch(opts dapp.ChildOptions, category types.TransactionCategory, reversing types.ReversingBehavior, commitThrough bool) (dapp.StreamBuilder, error) {
	child, err := c.processor.factory.CreateChildDispatch(c.d, opts, category, reversing)
	if err != nil {
		return nil, err
	}
	if err := c.processor.ProcessDispatch(child); err != nil {
		return nil, err
	}
	c.d.tree.addPaidRewards(child.Builder.PaidStakingRewards())
	if commitThrough {
		err = child.Stack.CommitThrough(child.Savepoint)
	} else {
		err = child.Stack.Commit(child.Savepoint)
	}
	if err != nil {
		return nil, err
	}
	return child.Builder.shaped(), nil
}

// HasThrottleCapacityForChildTransactions admits every successful child of this dispatch or none of them
func (c *DispatchHandleContext) HasThrottleCapacityForChildTransactions() bool {
	var infos []*types.TransactionInfo
	for _, b := range c.d.children {
		if b.Category() == types.CategoryPreceding || b.Status() != types.SUCCESS {
			continue
		}
		info, err := types.NewBodyInfo(b.info.Body)
		if err != nil {
			elog.Error("HasThrottleCapacityForChildTransactions", "txid", b.TransactionID().Key(), "err", err)
			metrics.Dispatch.ChildRejected()
			return false
		}
		infos = append(infos, info)
	}
	if c.processor.utilization.HasCapacityFor(infos, c.d.ConsensusNow) {
		return true
	}
	metrics.Dispatch.ChildRejected()
	return false
}

// DispatchPaidRewards rewards paid by the children of the whole tree
func (c *DispatchHandleContext) DispatchPaidRewards() map[string]int64 {
	return c.d.PaidRewards()
}
