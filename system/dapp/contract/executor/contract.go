// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

/*
contract 执行器: 合约创建与调用, 按 gas 计费。

FunctionParameters 由若干 (slot, value) 对组成, 每项 SlotSize 字节, 调用时依次写入合约存储。
合约收到的 hbar 以可移除的子交易转账完成, 合约失败时子交易记录一并移除。
*/

import (
	log "github.com/inconshreveable/log15"

	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
)

var clog = log.New("module", "execs.contract")

// SlotSize 存储 slot 以及 value 的字节数
const SlotSize = 32

// ValueTransferMemo memo of the child record moving value into a contract
const ValueTransferMemo = "contract value transfer"

// SstoreGas gas of one slot write
const SstoreGas int64 = 20000

// GasPrice tinycents per unit of gas
var GasPrice int64 = 1

func init() {
	drivers.Register(types.FuncContractCall, newContractCall)
	drivers.Register(types.FuncContractCreate, newContractCreate)
}

// IntrinsicGas gas consumed before any storage is touched
func IntrinsicGas(exec *types.Exec, payload []byte) int64 {
	return exec.BaseGas + exec.GasPerByte*int64(len(payload))
}

func calculateFees(ctx drivers.FeeContext, gas int64) types.Fees {
	return ctx.FeeCalculator().AddServiceTinycents(gas * GasPrice).Calculate()
}

func checkContractID(id *types.AccountID) error {
	if id == nil || id.HasAlias() || id.Num <= 0 {
		return types.NewPreCheckError(types.INVALID_CONTRACT_ID)
	}
	return nil
}

// sendValue moves amount from the payer to contract as a removable child transfer
func sendValue(ctx drivers.HandleContext, contract *types.AccountID, amount int64) error {
	payer := ctx.Payer()
	builder, err := drivers.CastBuilder[drivers.CryptoTransferStreamBuilder](ctx.DispatchRemovableChildTransaction(drivers.ChildOptions{
		Body: &types.TransactionBody{
			CryptoTransfer: &types.CryptoTransferBody{Transfers: &types.TransferList{AccountAmounts: []*types.AccountAmount{
				{Account: payer, Amount: -amount},
				{Account: contract, Amount: amount},
			}}},
		},
		Payer: payer,
		Externalizer: func(record *types.TransactionRecord) {
			record.Memo = ValueTransferMemo
		},
	}))
	if err != nil {
		return err
	}
	if builder.Status() != types.SUCCESS {
		clog.Info("sendValue", "contract", contract.Key(), "amount", amount, "status", builder.Status())
		return types.NewHandleError(builder.Status())
	}
	return nil
}
