// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"math"
	"testing"

	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/types"
	"github.com/33cn/txflow/util/testnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	acc1 = types.NewAccountID(testnode.Payer)
	acc2 = types.NewAccountID(testnode.Other)
)

func transfer(amounts ...*types.AccountAmount) *types.CryptoTransferBody {
	return &types.CryptoTransferBody{Transfers: &types.TransferList{AccountAmounts: amounts}}
}

func aa(id *types.AccountID, amount int64) *types.AccountAmount {
	return &types.AccountAmount{Account: id, Amount: amount}
}

func statusOf(t *testing.T, err error) types.ResponseCode {
	require.Error(t, err)
	status, ok := types.StatusOf(err)
	require.True(t, ok, err.Error())
	return status
}

func evmSigner(t *testing.T) (*signature.Secp256k1Signer, []byte) {
	signer := signature.NewSecp256k1Signer(testnode.Seed(5))
	alias, err := signature.EvmAddress(signer.PublicKey().EcdsaSecp256K1)
	require.NoError(t, err)
	return signer, alias
}

func TestCryptoCreate(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.CryptoCreate = &types.CryptoCreateBody{Key: &types.Key{Ed25519: testnode.Seed(7)}, InitialBalance: 5000, Memo: "hi"}
	at := mock.Now()
	records := mock.Exec(body)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, types.SUCCESS, r.Status())
	created := r.Receipt.AccountID
	require.NotNil(t, created)
	// genesis already holds 1001 and 1002
	assert.Equal(t, int64(1003), created.Num)

	acc, err := mock.GetAccount(created)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), acc.Balance)
	assert.Equal(t, "hi", acc.Memo)
	assert.Equal(t, at.Unix()+DefaultAutoRenewSeconds, acc.ExpirySecond)
	assert.Equal(t, testnode.PayerFunds-5000, mock.Balance(testnode.Payer))
	require.NotNil(t, r.TransferList)
	assert.Len(t, r.TransferList.AccountAmounts, 2)

	body = mock.Body(testnode.Payer)
	body.CryptoCreate = &types.CryptoCreateBody{Key: &types.Key{Ed25519: testnode.Seed(8)}}
	records = mock.Exec(body)
	assert.Equal(t, int64(1004), records[0].Receipt.AccountID.Num)
}

func TestCryptoCreatePureChecks(t *testing.T) {
	signer, alias := evmSigner(t)
	other := signature.NewSecp256k1Signer(testnode.Seed(6))
	h := &CryptoCreate{}
	cases := []struct {
		name string
		op   *types.CryptoCreateBody
		want types.ResponseCode
	}{
		{"no key", &types.CryptoCreateBody{}, types.KEY_REQUIRED},
		{"empty key list", &types.CryptoCreateBody{Key: &types.Key{KeyList: &types.KeyList{}}}, types.KEY_REQUIRED},
		{"negative balance", &types.CryptoCreateBody{Key: signer.PublicKey(), InitialBalance: -1}, types.INVALID_INITIAL_BALANCE},
		{"short alias", &types.CryptoCreateBody{Alias: []byte{1, 2, 3}}, types.INVALID_ALIAS_KEY},
		{"alias of other key", &types.CryptoCreateBody{Key: other.PublicKey(), Alias: alias}, types.INVALID_ALIAS_KEY},
	}
	for _, c := range cases {
		err := h.PureChecks(&types.TransactionBody{CryptoCreate: c.op})
		assert.Equal(t, c.want, statusOf(t, err), c.name)
	}
	assert.NoError(t, h.PureChecks(&types.TransactionBody{CryptoCreate: &types.CryptoCreateBody{Key: signer.PublicKey(), Alias: alias}}))
	assert.NoError(t, h.PureChecks(&types.TransactionBody{CryptoCreate: &types.CryptoCreateBody{Alias: alias}}))
}

func TestCryptoCreateRejectedBeforeHandle(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.CryptoCreate = &types.CryptoCreateBody{InitialBalance: 10}
	records := mock.Exec(body)
	require.Len(t, records, 1)
	assert.Equal(t, types.KEY_REQUIRED, records[0].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
}

func TestCryptoCreateDuplicateAlias(t *testing.T) {
	mock := testnode.New(t)
	_, alias := evmSigner(t)
	for i, want := range []types.ResponseCode{types.SUCCESS, types.INVALID_ALIAS_KEY} {
		body := mock.Body(testnode.Payer)
		body.CryptoCreate = &types.CryptoCreateBody{Alias: alias}
		records := mock.Exec(body)
		require.Len(t, records, 1)
		assert.Equal(t, want, records[0].Status(), i)
	}
	acc, err := mock.GetAccount(&types.AccountID{Alias: alias})
	require.NoError(t, err)
	assert.True(t, acc.IsHollow())
}

func TestCryptoTransferPureChecks(t *testing.T) {
	h := &CryptoTransfer{}
	cases := []struct {
		name string
		op   *types.CryptoTransferBody
		want types.ResponseCode
	}{
		{"not zero sum", transfer(aa(acc1, -10), aa(acc2, 9)), types.INVALID_ACCOUNT_AMOUNTS},
		{"repeated", transfer(aa(acc1, -10), aa(acc2, 5), aa(acc2, 5)), types.ACCOUNT_REPEATED_IN_ACCOUNT_AMOUNTS},
		{"missing account", transfer(aa(nil, 0)), types.INVALID_ACCOUNT_ID},
		{"num zero", transfer(aa(types.NewAccountID(0), 0)), types.INVALID_ACCOUNT_ID},
		{"bad alias", transfer(aa(acc1, -1), aa(&types.AccountID{Alias: []byte{9}}, 1)), types.INVALID_ALIAS_KEY},
		{"sum overflow", transfer(aa(acc1, math.MaxInt64), aa(acc2, math.MaxInt64), aa(types.NewAccountID(1003), 2)), types.INVALID_ACCOUNT_AMOUNTS},
		{"min amount", transfer(aa(acc1, math.MinInt64), aa(acc2, -1), aa(types.NewAccountID(1003), 1)), types.INVALID_ACCOUNT_AMOUNTS},
	}
	for _, c := range cases {
		err := h.PureChecks(&types.TransactionBody{CryptoTransfer: c.op})
		assert.Equal(t, c.want, statusOf(t, err), c.name)
	}
	assert.NoError(t, h.PureChecks(&types.TransactionBody{CryptoTransfer: transfer()}))
	assert.NoError(t, h.PureChecks(&types.TransactionBody{CryptoTransfer: transfer(aa(acc1, -10), aa(acc2, 10))}))
}

func TestCryptoTransfer(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -300), aa(acc2, 300))
	records := mock.Exec(body)
	require.Len(t, records, 1)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, testnode.PayerFunds-300, mock.Balance(testnode.Payer))
	assert.Equal(t, testnode.PayerFunds+300, mock.Balance(testnode.Other))
	require.NotNil(t, records[0].TransferList)
	assert.Len(t, records[0].TransferList.AccountAmounts, 2)
}

func TestCryptoTransferDebitNeedsSignature(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc2, -300), aa(acc1, 300))
	records := mock.Exec(body)
	assert.Equal(t, types.INVALID_SIGNATURE, records[0].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Other))

	body = mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc2, -300), aa(acc1, 300))
	records = mock.Exec(body, testnode.PayerSigner, testnode.OtherSigner)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, testnode.PayerFunds-300, mock.Balance(testnode.Other))
}

func TestCryptoTransferUnknownReceiver(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -300), aa(types.NewAccountID(4444), 300))
	records := mock.Exec(body)
	assert.Equal(t, types.INVALID_ACCOUNT_ID, records[0].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
}

func TestCryptoTransferInsufficientBalance(t *testing.T) {
	mock := testnode.New(t)
	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -(testnode.PayerFunds + 1)), aa(acc2, testnode.PayerFunds+1))
	records := mock.Exec(body)
	assert.Equal(t, types.INSUFFICIENT_PAYER_BALANCE, records[0].Status())

	// a debited non payer account is only checked by the handler
	body = mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc2, -(testnode.PayerFunds + 1)), aa(acc1, testnode.PayerFunds+1))
	records = mock.Exec(body, testnode.PayerSigner, testnode.OtherSigner)
	assert.Equal(t, types.INSUFFICIENT_ACCOUNT_BALANCE, records[0].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Other))
}

func TestCryptoTransferAutoCreate(t *testing.T) {
	mock := testnode.New(t)
	signer, alias := evmSigner(t)
	byAlias := &types.AccountID{Alias: alias}

	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -500), aa(byAlias, 500))
	records := mock.Exec(body)
	require.Len(t, records, 2)
	preceding, user := records[0], records[1]
	assert.Equal(t, types.SUCCESS, preceding.Status())
	assert.Equal(t, AutoCreateMemo, preceding.Memo)
	assert.Equal(t, alias, preceding.Alias)
	assert.True(t, preceding.ConsensusTimestamp.AsTime().Before(user.ConsensusTimestamp.AsTime()))
	assert.Equal(t, types.SUCCESS, user.Status())

	hollow, err := mock.GetAccount(byAlias)
	require.NoError(t, err)
	assert.True(t, hollow.IsHollow())
	assert.Equal(t, int64(500), hollow.Balance)
	assert.Equal(t, preceding.Receipt.AccountID.Num, hollow.ID.Num)

	// the hollow account spends with the key its alias derives from
	body = mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(byAlias, -200), aa(acc2, 200))
	records = mock.Exec(body)
	assert.Equal(t, types.INVALID_SIGNATURE, records[0].Status())

	body = mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(byAlias, -200), aa(acc2, 200))
	records = mock.Exec(body, testnode.PayerSigner, signer)
	require.Len(t, records, 1)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, int64(300), mock.Balance(hollow.ID.Num))
}

func TestAutoCreateSurvivesFailedTransfer(t *testing.T) {
	mock := testnode.New(t)
	_, alias := evmSigner(t)
	byAlias := &types.AccountID{Alias: alias}
	too := testnode.PayerFunds + 1

	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -500), aa(acc2, -too), aa(byAlias, too+500))
	records := mock.Exec(body, testnode.PayerSigner, testnode.OtherSigner)
	require.Len(t, records, 2)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, types.INSUFFICIENT_ACCOUNT_BALANCE, records[1].Status())

	hollow, err := mock.GetAccount(byAlias)
	require.NoError(t, err)
	assert.Equal(t, int64(0), hollow.Balance)
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
}

func TestAutoCreateLimit(t *testing.T) {
	cfg := testnode.GetDefaultConfig()
	cfg.Exec.MaxPrecedingRecords = 1
	mock := testnode.NewWithConfig(t, cfg)
	_, alias1 := evmSigner(t)
	alias2, err := signature.EvmAddress(signature.NewSecp256k1Signer(testnode.Seed(6)).PublicKey().EcdsaSecp256K1)
	require.NoError(t, err)

	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -2), aa(&types.AccountID{Alias: alias1}, 1), aa(&types.AccountID{Alias: alias2}, 1))
	records := mock.Exec(body)
	require.Len(t, records, 2)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, types.MAX_CHILD_RECORDS_EXCEEDED, records[1].Status())
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
}

func TestCryptoTransferOverflowMintsNothing(t *testing.T) {
	mock := testnode.New(t)
	var ids []*types.AccountID
	for _, seed := range []byte{5, 6, 7} {
		alias, err := signature.EvmAddress(signature.NewSecp256k1Signer(testnode.Seed(seed)).PublicKey().EcdsaSecp256K1)
		require.NoError(t, err)
		ids = append(ids, &types.AccountID{Alias: alias})
	}

	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(ids[0], math.MaxInt64), aa(ids[1], math.MaxInt64), aa(ids[2], 2))
	records := mock.Exec(body)
	require.Len(t, records, 1)
	assert.Equal(t, types.INVALID_ACCOUNT_AMOUNTS, records[0].Status())
	for _, id := range ids {
		_, err := mock.GetAccount(id)
		assert.Equal(t, types.ErrNotFound, err)
	}
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Payer))
}

func TestHollowPayerMustSign(t *testing.T) {
	mock := testnode.New(t)
	signer, alias := evmSigner(t)
	byAlias := &types.AccountID{Alias: alias}

	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -5e8), aa(byAlias, 5e8))
	records := mock.Exec(body)
	require.Len(t, records, 2)
	require.Equal(t, types.SUCCESS, records[1].Status())
	hollow, err := mock.GetAccount(byAlias)
	require.NoError(t, err)
	require.True(t, hollow.IsHollow())

	// a key unrelated to the alias can not spend as the hollow payer
	body = mock.Body(hollow.ID.Num)
	body.CryptoTransfer = transfer(aa(hollow.ID, -1e8), aa(acc2, 1e8))
	records = mock.Exec(body, signature.NewEd25519Signer(testnode.Seed(77)))
	require.Len(t, records, 1)
	assert.Equal(t, types.INVALID_PAYER_SIGNATURE, records[0].Status())
	assert.Equal(t, int64(5e8), mock.Balance(hollow.ID.Num))
	assert.Equal(t, testnode.PayerFunds, mock.Balance(testnode.Other))

	records = mock.Exec(body, signature.NewSecp256k1Signer(testnode.Seed(6)))
	assert.Equal(t, types.INVALID_PAYER_SIGNATURE, records[0].Status())

	body = mock.Body(hollow.ID.Num)
	body.CryptoTransfer = transfer(aa(hollow.ID, -1e8), aa(acc2, 1e8))
	records = mock.Exec(body, signer)
	require.Len(t, records, 1)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, int64(4e8), mock.Balance(hollow.ID.Num))
	assert.Equal(t, testnode.PayerFunds+1e8, mock.Balance(testnode.Other))
}

func TestDuplicateAfterManyTransactions(t *testing.T) {
	cfg := testnode.GetDefaultConfig()
	cfg.RecordCache.Capacity = 2
	mock := testnode.NewWithConfig(t, cfg)

	body := mock.Body(testnode.Payer)
	body.CryptoTransfer = transfer(aa(acc1, -100), aa(acc2, 100))
	tx := mock.Submit(body)
	records := mock.Handle(tx)
	require.Equal(t, types.SUCCESS, records[0].Status())

	for i := 0; i < 3; i++ {
		next := mock.Body(testnode.Payer)
		next.CryptoTransfer = transfer(aa(acc1, -1), aa(acc2, 1))
		require.Equal(t, types.SUCCESS, mock.Exec(next)[0].Status())
	}

	records = mock.Handle(tx)
	require.Len(t, records, 1)
	assert.Equal(t, types.DUPLICATE_TRANSACTION, records[0].Status())
	assert.Equal(t, testnode.PayerFunds+103, mock.Balance(testnode.Other))
}
