// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fees

import (
	"math"

	"github.com/33cn/txflow/types"
)

// CheckSolvency 检查 payer 是否能支付手续费以及交易本身转出的金额.
// Returns *types.InsufficientBalanceError describing who is at fault, or nil.
func CheckSolvency(payer *types.Account, body *types.TransactionBody, fees types.Fees, waived bool) error {
	if waived {
		return nil
	}
	if body.TransactionFee < fees.NetworkFee+fees.NodeFee {
		// the submitting node accepted an offer that can not even pay for gossip
		return &types.InsufficientBalanceError{Kind: types.InsufficientNetworkFee, Status: types.INSUFFICIENT_TX_FEE, EstimatedFee: fees.TotalFee()}
	}
	if body.TransactionFee < fees.TotalFee() {
		return &types.InsufficientBalanceError{Kind: types.InsufficientServiceFee, Status: types.INSUFFICIENT_TX_FEE, EstimatedFee: fees.TotalFee()}
	}
	if payer.Balance < fees.TotalFee() {
		return &types.InsufficientBalanceError{Kind: types.InsufficientServiceFee, Status: types.INSUFFICIENT_PAYER_BALANCE, EstimatedFee: fees.TotalFee()}
	}
	if payer.Balance-fees.TotalFee() < NonFeeDebits(payer.ID, body) {
		return &types.InsufficientBalanceError{Kind: types.InsufficientNonFeeDebits, Status: types.INSUFFICIENT_PAYER_BALANCE, EstimatedFee: fees.TotalFee()}
	}
	return nil
}

// NonFeeDebits hbar the transaction itself moves out of the payer account
func NonFeeDebits(payer *types.AccountID, body *types.TransactionBody) int64 {
	var debits int64
	switch {
	case body.CryptoTransfer != nil && body.CryptoTransfer.Transfers != nil:
		for _, aa := range body.CryptoTransfer.Transfers.AccountAmounts {
			if aa.Amount >= 0 || !types.SameAccount(aa.Account, payer) {
				continue
			}
			if aa.Amount == math.MinInt64 {
				return math.MaxInt64
			}
			var ok bool
			if debits, ok = types.AddAmount(debits, -aa.Amount); !ok {
				return math.MaxInt64
			}
		}
	case body.CryptoCreate != nil:
		debits = body.CryptoCreate.InitialBalance
	case body.ContractCall != nil:
		debits = body.ContractCall.Amount
	case body.ContractCreate != nil:
		debits = body.ContractCreate.InitialBalance
	}
	if debits < 0 {
		return 0
	}
	return debits
}
