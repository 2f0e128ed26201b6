// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"bytes"

	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/types"
)

// DefaultAutoRenewSeconds 新账户的有效期
const DefaultAutoRenewSeconds int64 = 90 * 24 * 3600

// CryptoCreate 创建账户; an alias without a key creates a hollow account
type CryptoCreate struct{}

func newCryptoCreate() drivers.Handler {
	return &CryptoCreate{}
}

// PureChecks key or alias, non negative balance, alias matching its secp256k1 key
func (c *CryptoCreate) PureChecks(body *types.TransactionBody) error {
	op := body.CryptoCreate
	if op == nil {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	if op.InitialBalance < 0 {
		return types.NewPreCheckError(types.INVALID_INITIAL_BALANCE)
	}
	if len(op.Alias) > 0 && !validAlias(op.Alias) {
		return types.NewPreCheckError(types.INVALID_ALIAS_KEY)
	}
	if op.Key.IsEmpty() {
		if len(op.Alias) == 0 {
			return types.NewPreCheckError(types.KEY_REQUIRED)
		}
		return nil
	}
	if len(op.Alias) > 0 && len(op.Key.EcdsaSecp256K1) > 0 {
		addr, err := signature.EvmAddress(op.Key.EcdsaSecp256K1)
		if err != nil || !bytes.Equal(addr, op.Alias) {
			return types.NewPreCheckError(types.INVALID_ALIAS_KEY)
		}
	}
	return nil
}

// PreHandle only the payer signs a create
func (c *CryptoCreate) PreHandle(ctx drivers.PreHandleContext) error {
	return nil
}

// CalculateFees fees
func (c *CryptoCreate) CalculateFees(ctx drivers.FeeContext) types.Fees {
	return calculateFees(ctx)
}

// Handle allocates the account number and moves the initial balance from the payer
func (c *CryptoCreate) Handle(ctx drivers.HandleContext) error {
	op := ctx.Body().CryptoCreate
	accounts := ctx.WritableAccounts()
	if len(op.Alias) > 0 {
		if _, err := accounts.GetAccountByAlias(op.Alias); err == nil {
			return types.NewHandleError(types.INVALID_ALIAS_KEY)
		}
	}
	payer, err := accounts.GetAccount(ctx.Payer())
	if err != nil {
		return types.NewHandleError(types.PAYER_ACCOUNT_NOT_FOUND)
	}
	if payer.Balance < op.InitialBalance {
		return types.NewHandleError(types.INSUFFICIENT_PAYER_BALANCE)
	}

	id, err := accounts.NextFreeAccountID(ctx.Configuration().Exec.FirstUserEntity)
	if err != nil {
		return err
	}
	acc := &types.Account{
		ID:           id,
		Key:          op.Key,
		Alias:        op.Alias,
		Memo:         op.Memo,
		ExpirySecond: ctx.ConsensusNow().Unix() + DefaultAutoRenewSeconds,
	}
	if err := accounts.Put(acc); err != nil {
		return err
	}
	builder, err := drivers.CastBuilder[drivers.CryptoCreateStreamBuilder](ctx.RecordBuilder(), nil)
	if err != nil {
		return err
	}
	builder.SetAccountID(id)
	if len(op.Alias) > 0 {
		builder.SetAlias(op.Alias)
	}
	if op.InitialBalance > 0 {
		if _, err := accounts.AdjustBalance(payer.ID, -op.InitialBalance); err != nil {
			return err
		}
		if _, err := accounts.AdjustBalance(id, op.InitialBalance); err != nil {
			return err
		}
		builder.AddTransfers(
			&types.AccountAmount{Account: payer.ID, Amount: -op.InitialBalance},
			&types.AccountAmount{Account: id, Amount: op.InitialBalance},
		)
	}
	clog.Debug("CryptoCreate", "account", id.Key(), "hollow", acc.IsHollow(), "balance", op.InitialBalance)
	return nil
}
