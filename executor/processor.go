// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"github.com/33cn/txflow/fees"
	"github.com/33cn/txflow/metrics"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/throttle"
	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
)

// DispatchProcessor 处理一个 dispatch: due diligence, 业务逻辑, 扣费.
// The dispatch's own savepoint is left open for the caller to resolve.
type DispatchProcessor struct {
	cfg          *types.Config
	dispatcher   *dapp.TransactionDispatcher
	dueDiligence *DueDiligenceLogic
	preHandle    *PreHandleWorkflow
	factory      *ChildDispatchFactory
	fees         *feeEngine
	utilization  *throttle.NetworkUtilizationManager
}

// ProcessDispatch returns only fatal errors, every other outcome ends up in the record
func (p *DispatchProcessor) ProcessDispatch(d *Dispatch) error {
	if d.Category == types.CategoryUser {
		metrics.Dispatch.User()
	} else {
		metrics.Dispatch.Child()
	}
	report, err := p.dueDiligence.ReportFor(d)
	if err != nil {
		return err
	}
	if report.IsCreatorError() {
		elog.Debug("ProcessDispatch creator error", "txid", d.TxnInfo.TxID().Key(), "status", report.ResponseCode)
		metrics.Dispatch.CreatorError()
		d.Builder.SetStatus(report.ResponseCode)
		return nil
	}
	if report.IsPayerError() {
		elog.Debug("ProcessDispatch payer error", "txid", d.TxnInfo.TxID().Key(), "status", report.ResponseCode)
		metrics.Dispatch.PayerError()
		d.Builder.SetStatus(report.ResponseCode)
		return p.chargeFees(d, report.Payer.ID, report.FeesToCharge(d.Fees))
	}
	if err := p.handle(d); err != nil {
		return err
	}
	return p.chargeFees(d, report.Payer.ID, report.FeesToCharge(d.Fees))
}

// handle runs the business logic inside its own savepoint
func (p *DispatchProcessor) handle(d *Dispatch) error {
	if !p.hasRequiredSignatures(d) {
		d.Builder.SetStatus(types.INVALID_SIGNATURE)
		return nil
	}
	d.handled = true
	sp := d.Stack.CreateSavepoint()
	err := p.dispatcher.DispatchHandle(newDispatchHandleContext(d, p))
	if err == nil {
		d.Builder.SetStatus(types.SUCCESS)
		return d.Stack.Commit(sp)
	}
	if types.IsFatal(err) {
		return err
	}
	status, ok := types.StatusOf(err)
	if !ok {
		elog.Error("handle", "txid", d.TxnInfo.TxID().Key(), "functionality", d.Functionality(), "err", err)
		status = types.FAIL_INVALID
	}
	metrics.Dispatch.HandleError()
	d.Builder.SetStatus(status)
	var he *types.HandleError
	if errors.As(err, &he) && !he.ShouldRollbackStack() {
		return d.Stack.Commit(sp)
	}
	return d.Stack.Rollback(sp)
}

func (p *DispatchProcessor) hasRequiredSignatures(d *Dispatch) bool {
	for _, key := range d.RequiredKeys {
		if !d.KeyVerifier.VerificationFor(key).Passed {
			return false
		}
	}
	for _, alias := range d.RequiredAliases {
		if !d.KeyVerifier.VerificationForAlias(alias).Passed {
			return false
		}
	}
	return true
}

// chargeFees into the dispatch's own savepoint, after the handler savepoint is resolved
func (p *DispatchProcessor) chargeFees(d *Dispatch, payer *types.AccountID, toCharge types.Fees) error {
	if toCharge.IsFree() {
		return nil
	}
	funding := types.NewAccountID(p.cfg.Exec.FundingAccount)
	acc := fees.NewAccumulator(state.NewAccountStore(d.Stack.State()), funding)
	charge, err := acc.Charge(payer, d.DueDiligence.CreatorAccount, toCharge)
	if err != nil {
		return err
	}
	d.Builder.SetTransactionFee(charge.Total)
	d.Builder.AddTransfers(charge.Transfers...)
	return nil
}
