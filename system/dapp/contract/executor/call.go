// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

// ContractCall 调用合约
type ContractCall struct{}

func newContractCall() drivers.Handler {
	return &ContractCall{}
}

// PureChecks pure checks
func (c *ContractCall) PureChecks(body *types.TransactionBody) error {
	op := body.ContractCall
	if op == nil {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	if err := checkContractID(op.Contract); err != nil {
		return err
	}
	if op.Amount < 0 {
		return types.NewPreCheckError(types.INVALID_ACCOUNT_AMOUNTS)
	}
	if op.Gas < 0 {
		return types.NewPreCheckError(types.INSUFFICIENT_GAS)
	}
	if len(op.FunctionParameters)%(2*SlotSize) != 0 {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	return nil
}

// PreHandle the caller is the payer
func (c *ContractCall) PreHandle(ctx drivers.PreHandleContext) error {
	return nil
}

// CalculateFees the offered gas is charged in full
func (c *ContractCall) CalculateFees(ctx drivers.FeeContext) types.Fees {
	return calculateFees(ctx, ctx.Body().ContractCall.Gas)
}

// Handle value first, then the storage writes; running out of gas part way undoes both
func (c *ContractCall) Handle(ctx drivers.HandleContext) error {
	op := ctx.Body().ContractCall
	contract, err := ctx.ReadableAccounts().GetAccount(op.Contract)
	if err != nil || !contract.Contract || contract.Deleted {
		return types.NewHandleError(types.INVALID_CONTRACT_ID)
	}
	used := IntrinsicGas(ctx.Configuration().Exec, op.FunctionParameters)
	if op.Gas < used {
		return types.NewHandleError(types.INSUFFICIENT_GAS)
	}
	builder, err := drivers.CastBuilder[drivers.ContractStreamBuilder](ctx.RecordBuilder(), nil)
	if err != nil {
		return err
	}
	builder.SetContractID(contract.ID)
	if op.Amount > 0 {
		if err := sendValue(ctx, contract.ID, op.Amount); err != nil {
			return err
		}
	}
	storage := ctx.WritableContracts()
	params := op.FunctionParameters
	for i := 0; i < len(params); i += 2 * SlotSize {
		used += SstoreGas
		if op.Gas < used {
			return types.NewHandleError(types.INSUFFICIENT_GAS)
		}
		if err := storage.PutSlot(contract.ID, params[i:i+SlotSize], params[i+SlotSize:i+2*SlotSize]); err != nil {
			return err
		}
	}
	clog.Debug("ContractCall", "contract", contract.ID.Key(), "slots", len(params)/(2*SlotSize), "value", op.Amount, "gas", used)
	return nil
}
