// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fees

import (
	"math"
	"testing"

	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeRate(t *testing.T) {
	rate := ExchangeRate{HbarEquiv: 1, CentEquiv: 12}
	assert.Equal(t, int64(100), rate.ToTinybars(1200))
	// rounds down
	assert.Equal(t, int64(0), rate.ToTinybars(11))
	assert.Equal(t, int64(0), ExchangeRate{}.ToTinybars(1200))
}

func TestManagerCalculate(t *testing.T) {
	m, err := NewManager(&types.FeeConfig{
		HbarEquiv: 1,
		CentEquiv: 1,
		Schedule: []*types.FeeSchedule{
			{Operation: "CryptoTransfer", NodeFee: 10, NetworkFee: 20, ServiceFee: 30, NetworkFeePerByte: 1},
		},
	})
	require.NoError(t, err)
	fees := m.CreateCalculator(types.FuncCryptoTransfer, 5, 1).Calculate()
	assert.Equal(t, types.Fees{NodeFee: 10, NetworkFee: 25, ServiceFee: 30}, fees)

	fees = m.CreateCalculator(types.FuncCryptoTransfer, 5, 2).AddServiceTinycents(5).Calculate()
	assert.Equal(t, types.Fees{NodeFee: 10, NetworkFee: 89, ServiceFee: 35}, fees)

	assert.True(t, m.CreateCalculator(types.FuncAtomicBatch, 100, 1).Calculate().IsFree())

	_, err = NewManager(&types.FeeConfig{Schedule: []*types.FeeSchedule{{Operation: "TokenMint"}}})
	assert.Equal(t, types.ErrUnknownFunctionality, errors.Cause(err))
}

func newAccountsForTest(t *testing.T, accounts ...*types.Account) *state.AccountStore {
	db, err := dbm.NewDB("test", dbm.MemDBBackendStr, "", 0)
	require.NoError(t, err)
	store := state.NewAccountStore(state.NewOverlay(state.NewBase(db)))
	for _, acc := range accounts {
		require.NoError(t, store.Put(acc))
	}
	return store
}

func balanceOf(t *testing.T, store *state.AccountStore, num int64) int64 {
	acc, err := store.GetAccount(types.NewAccountID(num))
	require.NoError(t, err)
	return acc.Balance
}

func TestAccumulatorCharge(t *testing.T) {
	store := newAccountsForTest(t,
		&types.Account{ID: types.NewAccountID(1001), Balance: 100},
		&types.Account{ID: types.NewAccountID(3)},
		&types.Account{ID: types.NewAccountID(98)},
	)
	acc := NewAccumulator(store, types.NewAccountID(98))
	charge, err := acc.Charge(types.NewAccountID(1001), types.NewAccountID(3), types.Fees{NodeFee: 10, NetworkFee: 20, ServiceFee: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(60), charge.Total)
	assert.Equal(t, 3, len(charge.Transfers))
	assert.Equal(t, int64(40), balanceOf(t, store, 1001))
	assert.Equal(t, int64(10), balanceOf(t, store, 3))
	assert.Equal(t, int64(50), balanceOf(t, store, 98))

	// capped at the remaining balance, node fee first
	charge, err = acc.Charge(types.NewAccountID(1001), types.NewAccountID(3), types.Fees{NodeFee: 30, NetworkFee: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(40), charge.Total)
	assert.Equal(t, int64(0), balanceOf(t, store, 1001))
	assert.Equal(t, int64(40), balanceOf(t, store, 3))
	assert.Equal(t, int64(60), balanceOf(t, store, 98))

	charge, err = acc.Charge(types.NewAccountID(1001), types.NewAccountID(3), types.Fees{NodeFee: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(0), charge.Total)
	assert.Nil(t, charge.Transfers)

	_, err = acc.Charge(types.NewAccountID(7), types.NewAccountID(3), types.Fees{NodeFee: 30})
	assert.True(t, types.IsFatal(err))
}

func TestCheckSolvency(t *testing.T) {
	fees := types.Fees{NodeFee: 1, NetworkFee: 2, ServiceFee: 3}
	payer := &types.Account{ID: types.NewAccountID(1001), Balance: 0}
	body := &types.TransactionBody{TransactionFee: 10}

	err := CheckSolvency(payer, body, fees, false)
	ie, ok := err.(*types.InsufficientBalanceError)
	require.True(t, ok)
	assert.Equal(t, types.InsufficientServiceFee, ie.Kind)
	assert.Equal(t, types.INSUFFICIENT_PAYER_BALANCE, ie.Status)

	assert.Nil(t, CheckSolvency(payer, body, fees, true))

	body.TransactionFee = 2
	ie = CheckSolvency(payer, body, fees, false).(*types.InsufficientBalanceError)
	assert.Equal(t, types.InsufficientNetworkFee, ie.Kind)
	assert.Equal(t, types.INSUFFICIENT_TX_FEE, ie.Status)

	body.TransactionFee = 5
	ie = CheckSolvency(payer, body, fees, false).(*types.InsufficientBalanceError)
	assert.Equal(t, types.InsufficientServiceFee, ie.Kind)
	assert.Equal(t, types.INSUFFICIENT_TX_FEE, ie.Status)

	payer.Balance = 10
	body.TransactionFee = 10
	body.CryptoTransfer = &types.CryptoTransferBody{Transfers: &types.TransferList{AccountAmounts: []*types.AccountAmount{
		{Account: types.NewAccountID(1001), Amount: -5},
		{Account: types.NewAccountID(1002), Amount: 5},
	}}}
	ie = CheckSolvency(payer, body, fees, false).(*types.InsufficientBalanceError)
	assert.Equal(t, types.InsufficientNonFeeDebits, ie.Kind)

	payer.Balance = 11
	assert.Nil(t, CheckSolvency(payer, body, fees, false))
}

func TestNonFeeDebitsSaturates(t *testing.T) {
	payer := types.NewAccountID(1001)
	body := &types.TransactionBody{CryptoTransfer: &types.CryptoTransferBody{Transfers: &types.TransferList{AccountAmounts: []*types.AccountAmount{
		{Account: payer, Amount: math.MinInt64},
	}}}}
	assert.Equal(t, int64(math.MaxInt64), NonFeeDebits(payer, body))

	body.CryptoTransfer.Transfers.AccountAmounts = []*types.AccountAmount{
		{Account: payer, Amount: -math.MaxInt64},
		{Account: &types.AccountID{Num: 1001}, Amount: -2},
	}
	assert.Equal(t, int64(math.MaxInt64), NonFeeDebits(payer, body))

	acc := &types.Account{ID: payer, Balance: 1e10}
	body.TransactionFee = 10
	ie, ok := CheckSolvency(acc, body, types.FREE, false).(*types.InsufficientBalanceError)
	require.True(t, ok)
	assert.Equal(t, types.InsufficientNonFeeDebits, ie.Kind)
}
