// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"testing"

	"github.com/33cn/txflow/types"
	"github.com/33cn/txflow/util/testnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/33cn/txflow/system/dapp/coins/executor"
)

var (
	payer = types.NewAccountID(testnode.Payer)
	other = types.NewAccountID(testnode.Other)
)

func innerTransfer(mock *testnode.TxflowMock, from, to *types.AccountID, amount int64) *types.TransactionBody {
	body := mock.Body(from.Num)
	body.CryptoTransfer = &types.CryptoTransferBody{Transfers: &types.TransferList{AccountAmounts: []*types.AccountAmount{
		{Account: from, Amount: -amount},
		{Account: to, Amount: amount},
	}}}
	return body
}

func batch(mock *testnode.TxflowMock, inner ...*types.TransactionBody) *types.TransactionBody {
	body := mock.Body(testnode.Payer)
	body.AtomicBatch = &types.AtomicBatchBody{Transactions: inner}
	return body
}

func TestAtomicBatch(t *testing.T) {
	mock := testnode.New(t)
	body := batch(mock, innerTransfer(mock, payer, other, 100), innerTransfer(mock, other, payer, 30))
	records := mock.Exec(body, testnode.PayerSigner, testnode.OtherSigner)
	require.Len(t, records, 3)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	for _, child := range records[1:] {
		assert.Equal(t, types.SUCCESS, child.Status())
		assert.Equal(t, records[0].ConsensusTimestamp.AsTime(), child.ParentConsensusTimestamp.AsTime())
	}
	assert.Equal(t, body.AtomicBatch.Transactions[1].ID.Key(), records[2].TransactionID.Key())
	assert.Equal(t, testnode.PayerFunds-70, mock.Balance(testnode.Payer))
	assert.Equal(t, testnode.PayerFunds+70, mock.Balance(testnode.Other))
}

func TestAtomicBatchInnerFailure(t *testing.T) {
	mock := testnode.New(t)
	body := batch(mock, innerTransfer(mock, payer, other, 100), innerTransfer(mock, other, payer, testnode.PayerFunds+500))
	records := mock.Exec(body, testnode.PayerSigner, testnode.OtherSigner)
	require.Len(t, records, 3)
	assert.Equal(t, types.INNER_TRANSACTION_FAILED, records[0].Status())
	assert.Equal(t, types.REVERTED_SUCCESS, records[1].Status())
	assert.NotEqual(t, types.SUCCESS, records[2].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Other))
}

func TestAtomicBatchInnerPayerMustSign(t *testing.T) {
	mock := testnode.New(t)
	body := batch(mock, innerTransfer(mock, other, payer, 30))
	records := mock.Exec(body)
	require.Len(t, records, 2)
	assert.Equal(t, types.INNER_TRANSACTION_FAILED, records[0].Status())
	assert.Equal(t, types.INVALID_PAYER_SIGNATURE, records[1].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Other))
}

func TestAtomicBatchThrottled(t *testing.T) {
	cfg := testnode.GetDefaultConfig()
	cfg.Throttle.Buckets = []*types.ThrottleBucket{{
		Name:          "transfers",
		BurstPeriodMs: 1000,
		Groups:        []*types.ThrottleGroup{{OpsPerSec: 1, Operations: []string{"CryptoTransfer"}}},
	}}
	mock := testnode.NewWithConfig(t, cfg)

	body := batch(mock, innerTransfer(mock, payer, other, 100), innerTransfer(mock, payer, other, 100))
	records := mock.Exec(body)
	require.Len(t, records, 3)
	assert.Equal(t, types.THROTTLED_AT_CONSENSUS, records[0].Status())
	assert.Equal(t, types.REVERTED_SUCCESS, records[1].Status())
	assert.Equal(t, types.REVERTED_SUCCESS, records[2].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))

	// the rejected batch left no usage behind
	body = batch(mock, innerTransfer(mock, payer, other, 100))
	records = mock.Exec(body)
	require.Len(t, records, 2)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, testnode.PayerFunds-100, mock.Balance(testnode.Payer))
}

func TestAtomicBatchPureChecks(t *testing.T) {
	h := &AtomicBatch{}
	nested := &types.TransactionBody{AtomicBatch: &types.AtomicBatchBody{}}
	twoPayloads := &types.TransactionBody{CryptoCreate: &types.CryptoCreateBody{}, CryptoTransfer: &types.CryptoTransferBody{}}
	cases := []struct {
		name  string
		inner []*types.TransactionBody
		want  types.ResponseCode
	}{
		{"empty", nil, types.BATCH_LIST_EMPTY},
		{"nested", []*types.TransactionBody{nested}, types.INVALID_TRANSACTION_BODY},
		{"two payloads", []*types.TransactionBody{twoPayloads}, types.INVALID_TRANSACTION_BODY},
		{"too many", make([]*types.TransactionBody, MaxInnerTransactions+1), types.MAX_CHILD_RECORDS_EXCEEDED},
	}
	for _, c := range cases {
		err := h.PureChecks(&types.TransactionBody{AtomicBatch: &types.AtomicBatchBody{Transactions: c.inner}})
		status, ok := types.StatusOf(err)
		require.True(t, ok, c.name)
		assert.Equal(t, c.want, status, c.name)
	}

	mock := testnode.New(t)
	records := mock.Exec(batch(mock))
	require.Len(t, records, 1)
	assert.Equal(t, types.BATCH_LIST_EMPTY, records[0].Status())
}
