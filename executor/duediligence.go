// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"github.com/33cn/txflow/fees"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
)

// ErrorReport 由 due diligence 计算, 决定 dispatch 是否继续以及谁承担费用
type ErrorReport struct {
	Payer            *types.Account
	DueDiligence     *DueDiligenceInfo
	IsDuplicate      bool
	ResponseCode     types.ResponseCode
	ChargeNetworkFee bool
	creatorError     bool
}

// IsCreatorError the submitting node is at fault; nothing is charged
func (r *ErrorReport) IsCreatorError() bool {
	return r.creatorError
}

// IsPayerError the payer is at fault; business logic does not run
func (r *ErrorReport) IsPayerError() bool {
	return !r.creatorError && r.ResponseCode != types.OK
}

// FeesToCharge what the payer pays given the full fees of the dispatch
func (r *ErrorReport) FeesToCharge(full types.Fees) types.Fees {
	switch {
	case r.creatorError:
		return types.FREE
	case r.ChargeNetworkFee || r.ResponseCode == types.DUPLICATE_TRANSACTION:
		return full.WithoutServiceComponent()
	case r.ResponseCode != types.OK:
		// insufficient non fee debits
		return types.FREE
	}
	return full
}

func creatorErrorReport(dd *DueDiligenceInfo, status types.ResponseCode, duplicate bool) *ErrorReport {
	return &ErrorReport{DueDiligence: dd, ResponseCode: status, IsDuplicate: duplicate, creatorError: true}
}

// DuplicateChecker dedup by transaction id, per submitting node
type DuplicateChecker interface {
	HasDuplicate(txnID *types.TransactionID, nodeID int64) types.DuplicateCheckResult
}

// DueDiligenceLogic 在业务逻辑之前判断失败属于节点还是 payer
type DueDiligenceLogic struct {
	cfg   *types.Config
	dedup DuplicateChecker
}

// NewDueDiligenceLogic new
func NewDueDiligenceLogic(cfg *types.Config, dedup DuplicateChecker) *DueDiligenceLogic {
	return &DueDiligenceLogic{cfg: cfg, dedup: dedup}
}

// ReportFor only fatal errors are returned
func (l *DueDiligenceLogic) ReportFor(d *Dispatch) (*ErrorReport, error) {
	dd := d.DueDiligence
	if dd.Status != types.OK {
		return creatorErrorReport(dd, dd.Status, false), nil
	}
	if d.Category == types.CategoryUser {
		exec := l.cfg.Exec
		if status := types.CheckTimeBox(d.Body(), d.ConsensusNow, exec.MinValidDuration, exec.MaxValidDuration); status != types.OK {
			if err := dd.Replace(status); err != nil {
				return nil, types.Fatal(err)
			}
			return creatorErrorReport(dd, status, false), nil
		}
	}
	payer, err := state.NewAccountStore(d.Stack.State()).GetAccount(d.SyntheticPayer)
	if err != nil {
		return nil, types.Fatal(errors.Wrapf(types.ErrMissingPayer, "payer %s: %v", d.SyntheticPayer.Key(), err))
	}
	if !payerSigned(d, payer) {
		return creatorErrorReport(dd, types.INVALID_PAYER_SIGNATURE, false), nil
	}

	duplicate := types.NoDuplicate
	if d.Category == types.CategoryUser && l.dedup != nil {
		duplicate = l.dedup.HasDuplicate(d.TxnInfo.TxID(), dd.CreatorID)
	}
	if duplicate == types.SameNode {
		return creatorErrorReport(dd, types.DUPLICATE_TRANSACTION, true), nil
	}
	isDuplicate := duplicate == types.OtherNode

	report := &ErrorReport{Payer: payer, DueDiligence: dd, IsDuplicate: isDuplicate, ResponseCode: types.OK}
	// free children are not checked, their handlers enforce balances
	err = fees.CheckSolvency(payer, d.Body(), d.Fees, d.Category != types.CategoryUser && d.Fees.IsFree())
	if err != nil {
		var insufficient *types.InsufficientBalanceError
		if !errors.As(err, &insufficient) {
			return creatorErrorReport(dd, statusOr(err, types.FAIL_INVALID), isDuplicate), nil
		}
		switch insufficient.Kind {
		case types.InsufficientServiceFee:
			report.ChargeNetworkFee = true
		case types.InsufficientNonFeeDebits:
		default:
			return creatorErrorReport(dd, insufficient.Status, isDuplicate), nil
		}
		report.ResponseCode = insufficient.Status
		return report, nil
	}
	if isDuplicate {
		report.ResponseCode = types.DUPLICATE_TRANSACTION
	}
	return report, nil
}

// payerSigned a hollow payer signs with the secp256k1 key its alias was derived from
func payerSigned(d *Dispatch, payer *types.Account) bool {
	if payer.IsHollow() {
		return len(payer.Alias) > 0 && d.KeyVerifier.VerificationForAlias(payer.Alias).Passed
	}
	return d.KeyVerifier.VerificationFor(payer.Key).Passed
}
