// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

// DefaultAutoRenewSeconds 合约账户的有效期
const DefaultAutoRenewSeconds int64 = 90 * 24 * 3600

// ContractCreate 部署合约
type ContractCreate struct{}

func newContractCreate() drivers.Handler {
	return &ContractCreate{}
}

// PureChecks pure checks
func (c *ContractCreate) PureChecks(body *types.TransactionBody) error {
	op := body.ContractCreate
	if op == nil || len(op.Bytecode) == 0 {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	if op.InitialBalance < 0 {
		return types.NewPreCheckError(types.INVALID_INITIAL_BALANCE)
	}
	if op.Gas < 0 {
		return types.NewPreCheckError(types.INSUFFICIENT_GAS)
	}
	return nil
}

// PreHandle the admin key signs the deployment
func (c *ContractCreate) PreHandle(ctx drivers.PreHandleContext) error {
	if admin := ctx.Body().ContractCreate.AdminKey; !admin.IsEmpty() {
		ctx.RequireKey(admin)
	}
	return nil
}

// CalculateFees the offered gas is charged in full
func (c *ContractCreate) CalculateFees(ctx drivers.FeeContext) types.Fees {
	return calculateFees(ctx, ctx.Body().ContractCreate.Gas)
}

// Handle stores the contract account, then funds it
func (c *ContractCreate) Handle(ctx drivers.HandleContext) error {
	op := ctx.Body().ContractCreate
	exec := ctx.Configuration().Exec
	if op.Gas < IntrinsicGas(exec, op.Bytecode) {
		return types.NewHandleError(types.INSUFFICIENT_GAS)
	}
	accounts := ctx.WritableAccounts()
	id, err := accounts.NextFreeAccountID(exec.FirstUserEntity)
	if err != nil {
		return err
	}
	err = accounts.Put(&types.Account{
		ID:           id,
		Key:          op.AdminKey,
		Contract:     true,
		Bytecode:     op.Bytecode,
		Memo:         op.Memo,
		ExpirySecond: ctx.ConsensusNow().Unix() + DefaultAutoRenewSeconds,
	})
	if err != nil {
		return err
	}
	builder, err := drivers.CastBuilder[drivers.ContractStreamBuilder](ctx.RecordBuilder(), nil)
	if err != nil {
		return err
	}
	builder.SetContractID(id)
	if op.InitialBalance > 0 {
		if err := sendValue(ctx, id, op.InitialBalance); err != nil {
			return err
		}
	}
	clog.Debug("ContractCreate", "contract", id.Key(), "bytecode", len(op.Bytecode))
	return nil
}
