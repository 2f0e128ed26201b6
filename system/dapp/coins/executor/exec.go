// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"math"

	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

// CryptoTransfer 转账, the transfer list must sum to zero
type CryptoTransfer struct{}

func newCryptoTransfer() drivers.Handler {
	return &CryptoTransfer{}
}

// PureChecks well formed ids, each account once, zero sum without overflow
func (c *CryptoTransfer) PureChecks(body *types.TransactionBody) error {
	op := body.CryptoTransfer
	if op == nil {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	seen := make(map[string]bool)
	var sum int64
	for _, aa := range op.GetTransfers().GetAccountAmounts() {
		if aa == nil {
			return types.NewPreCheckError(types.INVALID_ACCOUNT_ID)
		}
		if err := checkAccountID(aa.Account); err != nil {
			return err
		}
		key := aa.Account.Key()
		if seen[key] {
			return types.NewPreCheckError(types.ACCOUNT_REPEATED_IN_ACCOUNT_AMOUNTS)
		}
		seen[key] = true
		if aa.Amount == math.MinInt64 {
			return types.NewPreCheckError(types.INVALID_ACCOUNT_AMOUNTS)
		}
		var ok bool
		if sum, ok = types.AddAmount(sum, aa.Amount); !ok {
			return types.NewPreCheckError(types.INVALID_ACCOUNT_AMOUNTS)
		}
	}
	if sum != 0 {
		return types.NewPreCheckError(types.INVALID_ACCOUNT_AMOUNTS)
	}
	return nil
}

// PreHandle every debited account signs; receivers named by number must exist
func (c *CryptoTransfer) PreHandle(ctx drivers.PreHandleContext) error {
	for _, aa := range ctx.Body().CryptoTransfer.GetTransfers().GetAccountAmounts() {
		if aa.Amount < 0 {
			if err := ctx.RequireKeyOrFail(aa.Account, types.INVALID_ACCOUNT_ID); err != nil {
				return err
			}
			continue
		}
		acc, err := ctx.Accounts().GetAccount(aa.Account)
		if err != nil {
			if aa.Account.HasAlias() {
				// created before the transfer is applied
				continue
			}
			return types.NewPreCheckError(types.INVALID_ACCOUNT_ID)
		}
		if acc.Deleted {
			return types.NewPreCheckError(types.ACCOUNT_DELETED)
		}
	}
	return nil
}

// CalculateFees fees
func (c *CryptoTransfer) CalculateFees(ctx drivers.FeeContext) types.Fees {
	return calculateFees(ctx)
}

// Handle auto creates unknown alias receivers, then debits before it credits
func (c *CryptoTransfer) Handle(ctx drivers.HandleContext) error {
	transfers := ctx.Body().CryptoTransfer.GetTransfers().GetAccountAmounts()
	accounts := ctx.WritableAccounts()
	for _, aa := range transfers {
		if aa.Amount < 0 || !aa.Account.HasAlias() || accounts.Exists(aa.Account) {
			continue
		}
		if err := autoCreate(ctx, aa.Account.Alias); err != nil {
			return err
		}
	}

	resolved := make([]*types.AccountAmount, 0, len(transfers))
	for _, aa := range transfers {
		acc, err := accounts.GetAccount(aa.Account)
		if err != nil {
			return types.NewHandleError(types.INVALID_ACCOUNT_ID)
		}
		if acc.Deleted {
			return types.NewHandleError(types.ACCOUNT_DELETED)
		}
		resolved = append(resolved, &types.AccountAmount{Account: acc.ID, Amount: aa.Amount})
	}
	for _, debit := range []bool{true, false} {
		for _, aa := range resolved {
			if (aa.Amount < 0) != debit || aa.Amount == 0 {
				continue
			}
			if _, err := accounts.AdjustBalance(aa.Account, aa.Amount); err != nil {
				return err
			}
		}
	}
	ctx.RecordBuilder().AddTransfers(resolved...)
	return nil
}

// autoCreate hollow account for alias, 作为 preceding 交易立即提交
func autoCreate(ctx drivers.HandleContext, alias []byte) error {
	builder, err := drivers.CastBuilder[drivers.CryptoCreateStreamBuilder](ctx.DispatchPrecedingTransaction(drivers.ChildOptions{
		Body: &types.TransactionBody{
			Memo:         AutoCreateMemo,
			CryptoCreate: &types.CryptoCreateBody{Alias: alias, Memo: AutoCreateMemo},
		},
		Payer: ctx.Payer(),
	}))
	if err != nil {
		return err
	}
	if builder.Status() != types.SUCCESS {
		clog.Info("autoCreate", "alias", (&types.AccountID{Alias: alias}).Key(), "status", builder.Status())
		return types.NewHandleError(builder.Status())
	}
	clog.Debug("autoCreate", "account", builder.AccountID().Key())
	return nil
}
