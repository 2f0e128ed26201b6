// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"bytes"
	"testing"

	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/types"
	"github.com/33cn/txflow/util/testnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/33cn/txflow/system/dapp/coins/executor"
)

var bytecode = []byte{0x60, 0x80, 0x60, 0x40, 0x52}

func slot(b byte) []byte {
	return bytes.Repeat([]byte{b}, SlotSize)
}

func deploy(t *testing.T, mock *testnode.TxflowMock, balance int64) (*types.AccountID, []*types.TransactionRecord) {
	body := mock.Body(testnode.Payer)
	body.ContractCreate = &types.ContractCreateBody{Gas: 100000, InitialBalance: balance, Bytecode: bytecode, Memo: "c"}
	records := mock.Exec(body)
	require.NotEmpty(t, records)
	require.Equal(t, types.SUCCESS, records[0].Status())
	require.NotNil(t, records[0].Receipt.ContractID)
	return records[0].Receipt.ContractID, records
}

func TestContractCreate(t *testing.T) {
	mock := testnode.New(t)
	id, records := deploy(t, mock, 1000)
	assert.Equal(t, int64(1003), id.Num)
	require.Len(t, records, 2)
	user, child := records[0], records[1]
	// 100000 gas at 1 tinycent, 12 cents per hbar
	assert.Equal(t, int64(8333), user.TransactionFee)
	assert.Equal(t, types.SUCCESS, child.Status())
	assert.Equal(t, ValueTransferMemo, child.Memo)
	assert.Equal(t, user.ConsensusTimestamp.AsTime(), child.ParentConsensusTimestamp.AsTime())

	acc, err := mock.GetAccount(id)
	require.NoError(t, err)
	assert.True(t, acc.Contract)
	assert.False(t, acc.IsHollow())
	assert.Equal(t, bytecode, acc.Bytecode)
	assert.Equal(t, int64(1000), acc.Balance)
	assert.Equal(t, testnode.PayerFunds-1000-user.TransactionFee, mock.Balance(testnode.Payer))
	assert.Equal(t, user.TransactionFee, mock.Balance(testnode.Funding))
}

func TestContractCreateWithoutValue(t *testing.T) {
	mock := testnode.New(t)
	_, records := deploy(t, mock, 0)
	assert.Len(t, records, 1)
}

func TestContractCreateAdminKeySigns(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.ContractCreate = &types.ContractCreateBody{Gas: 100000, Bytecode: bytecode, AdminKey: testnode.OtherSigner.PublicKey()}
	records := mock.Exec(body)
	assert.Equal(t, types.INVALID_SIGNATURE, records[0].Status())

	body = mock.Body(testnode.Payer)
	body.ContractCreate = &types.ContractCreateBody{Gas: 100000, Bytecode: bytecode, AdminKey: testnode.OtherSigner.PublicKey()}
	records = mock.Exec(body, testnode.PayerSigner, testnode.OtherSigner)
	assert.Equal(t, types.SUCCESS, records[0].Status())
}

func TestContractCreatePureChecks(t *testing.T) {
	h := &ContractCreate{}
	cases := []struct {
		name string
		op   *types.ContractCreateBody
		want types.ResponseCode
	}{
		{"no bytecode", &types.ContractCreateBody{Gas: 1}, types.INVALID_TRANSACTION_BODY},
		{"negative balance", &types.ContractCreateBody{Bytecode: bytecode, InitialBalance: -1}, types.INVALID_INITIAL_BALANCE},
		{"negative gas", &types.ContractCreateBody{Bytecode: bytecode, Gas: -1}, types.INSUFFICIENT_GAS},
	}
	for _, c := range cases {
		err := h.PureChecks(&types.TransactionBody{ContractCreate: c.op})
		status, ok := types.StatusOf(err)
		require.True(t, ok, c.name)
		assert.Equal(t, c.want, status, c.name)
	}
}

func TestContractCall(t *testing.T) {
	mock := testnode.New(t)
	id, _ := deploy(t, mock, 1000)

	params := append(append(append(slot(1), slot(2)...), slot(3)...), slot(4)...)
	body := mock.Body(testnode.Payer)
	body.ContractCall = &types.ContractCallBody{Contract: id, Gas: 100000, Amount: 50, FunctionParameters: params}
	records := mock.Exec(body)
	require.Len(t, records, 2)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, id.Num, records[0].Receipt.ContractID.Num)
	assert.Equal(t, ValueTransferMemo, records[1].Memo)

	assert.Equal(t, slot(2), mock.GetSlot(id, slot(1)))
	assert.Equal(t, slot(4), mock.GetSlot(id, slot(3)))
	assert.Equal(t, int64(1050), mock.Balance(id.Num))
}

func TestContractCallOutOfGasRemovesValue(t *testing.T) {
	mock := testnode.New(t)
	id, _ := deploy(t, mock, 1000)
	before := mock.Balance(testnode.Payer)

	params := append(slot(1), slot(2)...)
	gas := IntrinsicGas(mock.GetCfg().Exec, params) + SstoreGas - 1
	body := mock.Body(testnode.Payer)
	body.ContractCall = &types.ContractCallBody{Contract: id, Gas: gas, Amount: 50, FunctionParameters: params}
	records := mock.Exec(body)
	require.Len(t, records, 1)
	assert.Equal(t, types.INSUFFICIENT_GAS, records[0].Status())
	assert.Equal(t, gas/12, records[0].TransactionFee)

	assert.Nil(t, mock.GetSlot(id, slot(1)))
	assert.Equal(t, int64(1000), mock.Balance(id.Num))
	assert.Equal(t, before-records[0].TransactionFee, mock.Balance(testnode.Payer))
}

func TestContractCallIntrinsicGas(t *testing.T) {
	mock := testnode.New(t)
	id, _ := deploy(t, mock, 0)
	body := mock.Body(testnode.Payer)
	body.ContractCall = &types.ContractCallBody{Contract: id, Gas: 100, Amount: 50}
	records := mock.Exec(body)
	require.Len(t, records, 1)
	assert.Equal(t, types.INSUFFICIENT_GAS, records[0].Status())
	assert.Equal(t, int64(0), mock.Balance(id.Num))
}

func TestContractCallNotAContract(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.ContractCall = &types.ContractCallBody{Contract: types.NewAccountID(testnode.Other), Gas: 100000}
	records := mock.Exec(body)
	assert.Equal(t, types.INVALID_CONTRACT_ID, records[0].Status())

	h := &ContractCall{}
	cases := []struct {
		name string
		op   *types.ContractCallBody
		want types.ResponseCode
	}{
		{"no contract", &types.ContractCallBody{}, types.INVALID_CONTRACT_ID},
		{"alias contract", &types.ContractCallBody{Contract: &types.AccountID{Alias: slot(1)[:signature.EvmAddressSize]}}, types.INVALID_CONTRACT_ID},
		{"negative value", &types.ContractCallBody{Contract: types.NewAccountID(1003), Amount: -1}, types.INVALID_ACCOUNT_AMOUNTS},
		{"partial slot", &types.ContractCallBody{Contract: types.NewAccountID(1003), FunctionParameters: slot(1)}, types.INVALID_TRANSACTION_BODY},
	}
	for _, c := range cases {
		err := h.PureChecks(&types.TransactionBody{ContractCall: c.op})
		status, ok := types.StatusOf(err)
		require.True(t, ok, c.name)
		assert.Equal(t, c.want, status, c.name)
	}
}
