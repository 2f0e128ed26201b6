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

type preHandleContext struct {
	body            *types.TransactionBody
	fn              types.Functionality
	payer           *types.Account
	accounts        state.ReadableAccountStore
	cfg             *types.Config
	requiredKeys    []*types.Key
	requiredAliases [][]byte
}

func newPreHandleContext(body *types.TransactionBody, fn types.Functionality, payer *types.Account, accounts state.ReadableAccountStore, cfg *types.Config) *preHandleContext {
	return &preHandleContext{body: body, fn: fn, payer: payer, accounts: accounts, cfg: cfg}
}

func (c *preHandleContext) Body() *types.TransactionBody { return c.body }
func (c *preHandleContext) Functionality() types.Functionality { return c.fn }
func (c *preHandleContext) Payer() *types.AccountID { return c.payer.ID }
func (c *preHandleContext) PayerKey() *types.Key { return c.payer.Key }
func (c *preHandleContext) Accounts() state.ReadableAccountStore { return c.accounts }
func (c *preHandleContext) Configuration() *types.Config { return c.cfg }
func (c *preHandleContext) RequiredKeys() []*types.Key { return c.requiredKeys }

// RequireKey the payer key is always required and never listed
func (c *preHandleContext) RequireKey(key *types.Key) {
	if key.IsEmpty() || types.SameKey(key, c.payer.Key) {
		return
	}
	for _, k := range c.requiredKeys {
		if types.SameKey(k, key) {
			return
		}
	}
	c.requiredKeys = append(c.requiredKeys, key)
}

func (c *preHandleContext) RequireKeyOrFail(id *types.AccountID, status types.ResponseCode) error {
	acc, err := c.accounts.GetAccount(id)
	if err != nil {
		return types.NewPreCheckError(status)
	}
	if acc.Deleted {
		return types.NewPreCheckError(types.ACCOUNT_DELETED)
	}
	if types.SameAccount(acc.ID, c.payer.ID) {
		return nil
	}
	if acc.IsHollow() {
		// a hollow account signs with the key its alias was derived from
		c.requiredAliases = append(c.requiredAliases, acc.Alias)
		return nil
	}
	c.RequireKey(acc.Key)
	return nil
}

// preHandleResult 交易进入 handle 之前的检查结果
type preHandleResult struct {
	info            *types.TransactionInfo
	status          types.ResponseCode
	payer           *types.Account
	requiredKeys    []*types.Key
	requiredAliases [][]byte
	verifier        signature.KeyVerifier
}

// PreHandleWorkflow node side checks run before a dispatch is built
type PreHandleWorkflow struct {
	cfg        *types.Config
	dispatcher *dapp.TransactionDispatcher
}

// NewPreHandleWorkflow new
func NewPreHandleWorkflow(cfg *types.Config, dispatcher *dapp.TransactionDispatcher) *PreHandleWorkflow {
	return &PreHandleWorkflow{cfg: cfg, dispatcher: dispatcher}
}

func statusOr(err error, fallback types.ResponseCode) types.ResponseCode {
	if status, ok := types.StatusOf(err); ok {
		return status
	}
	return fallback
}

// PreHandleTransaction parses payload submitted by creator; result.info is nil when it can not be parsed
func (w *PreHandleWorkflow) PreHandleTransaction(creator *types.AccountID, accounts state.ReadableAccountStore, payload []byte) *preHandleResult {
	info, err := types.ParseTransaction(payload)
	if info == nil {
		return &preHandleResult{status: statusOr(err, types.INVALID_TRANSACTION)}
	}
	res := &preHandleResult{info: info, status: types.OK}
	if err != nil {
		res.status = statusOr(err, types.INVALID_TRANSACTION_BODY)
		return res
	}
	if !types.SameAccount(info.Body.NodeAccount, creator) {
		res.status = types.INVALID_NODE_ACCOUNT
		return res
	}
	res.verifier = signature.NewKeyVerifier(info.Tx.BodyBytes, info.SigMap)
	w.preHandleBody(res, accounts, info.PayerID())
	return res
}

// preHandleBody payer checks, pure checks and required key gathering shared by user and child dispatches
func (w *PreHandleWorkflow) preHandleBody(res *preHandleResult, accounts state.ReadableAccountStore, payerID *types.AccountID) {
	payer, err := accounts.GetAccount(payerID)
	if err != nil {
		res.status = types.PAYER_ACCOUNT_NOT_FOUND
		return
	}
	if payer.Deleted {
		res.status = types.PAYER_ACCOUNT_DELETED
		return
	}
	res.payer = payer
	if err := w.dispatcher.DispatchPureChecks(res.info.Body); err != nil {
		res.status = statusOr(err, types.INVALID_TRANSACTION_BODY)
		return
	}
	ctx := newPreHandleContext(res.info.Body, res.info.Functionality, payer, accounts, w.cfg)
	if err := w.dispatcher.DispatchPreHandle(ctx); err != nil {
		res.status = statusOr(err, types.INVALID_TRANSACTION_BODY)
		return
	}
	res.requiredKeys = ctx.requiredKeys
	res.requiredAliases = ctx.requiredAliases
}

// allKeysFor payer key plus the required keys of a nested body
func (w *PreHandleWorkflow) allKeysFor(accounts state.ReadableAccountStore, body *types.TransactionBody, payerID *types.AccountID) ([]*types.Key, error) {
	unresolvable := types.NewPreCheckError(types.UNRESOLVABLE_REQUIRED_SIGNERS)
	fn, err := types.FunctionOf(body)
	if err != nil {
		return nil, unresolvable
	}
	res := &preHandleResult{info: &types.TransactionInfo{Body: body, Functionality: fn}, status: types.OK}
	w.preHandleBody(res, accounts, payerID)
	if res.status != types.OK {
		return nil, unresolvable
	}
	var keys []*types.Key
	if res.payer.Key != nil {
		keys = append(keys, res.payer.Key)
	}
	return append(keys, res.requiredKeys...), nil
}
