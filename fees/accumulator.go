// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fees

import (
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/types"
)

// Charge what was actually taken from the payer
type Charge struct {
	Total     int64
	Transfers []*types.AccountAmount
}

// Accumulator 扣费: node fee 给节点账户, network + service fee 给 funding 账户
type Accumulator struct {
	accounts *state.AccountStore
	funding  *types.AccountID
}

// NewAccumulator new accumulator writing through accounts
func NewAccumulator(accounts *state.AccountStore, funding *types.AccountID) *Accumulator {
	return &Accumulator{accounts: accounts, funding: funding}
}

// Charge takes fees from payer, never more than its balance; node fee is taken first
func (a *Accumulator) Charge(payer *types.AccountID, node *types.AccountID, fees types.Fees) (*Charge, error) {
	charge := &Charge{}
	if fees.IsFree() {
		return charge, nil
	}
	acc, err := a.accounts.GetAccount(payer)
	if err != nil {
		return nil, types.Fatalf(err, "charge fees payer %s", payer.Key())
	}
	available := acc.Balance
	take := func(amount int64) int64 {
		if amount > available {
			amount = available
		}
		if amount < 0 {
			amount = 0
		}
		available -= amount
		return amount
	}
	nodeFee := take(fees.NodeFee)
	fundingFee := take(fees.NetworkFee) + take(fees.ServiceFee)
	if nodeFee+fundingFee == 0 {
		return charge, nil
	}
	if node == nil {
		// no node account to pay, the funding account takes it all
		fundingFee += nodeFee
		nodeFee = 0
	}
	if _, err := a.accounts.AdjustBalance(acc.ID, -(nodeFee + fundingFee)); err != nil {
		return nil, types.Fatalf(err, "debit fees %s", payer.Key())
	}
	charge.Total = nodeFee + fundingFee
	charge.Transfers = append(charge.Transfers, &types.AccountAmount{Account: acc.ID, Amount: -charge.Total})
	if nodeFee > 0 {
		if err := a.credit(node, nodeFee); err != nil {
			return nil, err
		}
		charge.Transfers = append(charge.Transfers, &types.AccountAmount{Account: node, Amount: nodeFee})
	}
	if fundingFee > 0 {
		if err := a.credit(a.funding, fundingFee); err != nil {
			return nil, err
		}
		charge.Transfers = append(charge.Transfers, &types.AccountAmount{Account: a.funding, Amount: fundingFee})
	}
	flog.Debug("Charge", "payer", payer.Key(), "total", charge.Total, "fees", fees)
	return charge, nil
}

func (a *Accumulator) credit(id *types.AccountID, amount int64) error {
	if _, err := a.accounts.AdjustBalance(id, amount); err != nil {
		// system accounts are created at genesis; a missing one is corrupted state
		return types.Fatalf(err, "credit fees %s", id.Key())
	}
	return nil
}
