// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ResponseCode 写入 receipt 的最终状态码
type ResponseCode int32

// response codes
const (
	OK ResponseCode = iota
	SUCCESS
	REVERTED_SUCCESS
	INVALID_TRANSACTION
	INVALID_TRANSACTION_BODY
	INVALID_NODE_ACCOUNT
	TRANSACTION_EXPIRED
	INVALID_TRANSACTION_START
	INVALID_TRANSACTION_DURATION
	PAYER_ACCOUNT_NOT_FOUND
	PAYER_ACCOUNT_DELETED
	INVALID_PAYER_SIGNATURE
	INVALID_SIGNATURE
	UNRESOLVABLE_REQUIRED_SIGNERS
	INSUFFICIENT_TX_FEE
	INSUFFICIENT_PAYER_BALANCE
	INSUFFICIENT_ACCOUNT_BALANCE
	DUPLICATE_TRANSACTION
	BUSY
	THROTTLED_AT_CONSENSUS
	MAX_CHILD_RECORDS_EXCEEDED
	INVALID_ACCOUNT_ID
	INVALID_ACCOUNT_AMOUNTS
	ACCOUNT_REPEATED_IN_ACCOUNT_AMOUNTS
	ACCOUNT_DELETED
	INVALID_ALIAS_KEY
	KEY_REQUIRED
	INVALID_INITIAL_BALANCE
	INVALID_CONTRACT_ID
	INSUFFICIENT_GAS
	BATCH_LIST_EMPTY
	INNER_TRANSACTION_FAILED
	MEMO_TOO_LONG
	NOT_SUPPORTED
	FAIL_INVALID
)

var responseCodeName = map[ResponseCode]string{
	OK:                                  "OK",
	SUCCESS:                             "SUCCESS",
	REVERTED_SUCCESS:                    "REVERTED_SUCCESS",
	INVALID_TRANSACTION:                 "INVALID_TRANSACTION",
	INVALID_TRANSACTION_BODY:            "INVALID_TRANSACTION_BODY",
	INVALID_NODE_ACCOUNT:                "INVALID_NODE_ACCOUNT",
	TRANSACTION_EXPIRED:                 "TRANSACTION_EXPIRED",
	INVALID_TRANSACTION_START:           "INVALID_TRANSACTION_START",
	INVALID_TRANSACTION_DURATION:        "INVALID_TRANSACTION_DURATION",
	PAYER_ACCOUNT_NOT_FOUND:             "PAYER_ACCOUNT_NOT_FOUND",
	PAYER_ACCOUNT_DELETED:               "PAYER_ACCOUNT_DELETED",
	INVALID_PAYER_SIGNATURE:             "INVALID_PAYER_SIGNATURE",
	INVALID_SIGNATURE:                   "INVALID_SIGNATURE",
	UNRESOLVABLE_REQUIRED_SIGNERS:       "UNRESOLVABLE_REQUIRED_SIGNERS",
	INSUFFICIENT_TX_FEE:                 "INSUFFICIENT_TX_FEE",
	INSUFFICIENT_PAYER_BALANCE:          "INSUFFICIENT_PAYER_BALANCE",
	INSUFFICIENT_ACCOUNT_BALANCE:        "INSUFFICIENT_ACCOUNT_BALANCE",
	DUPLICATE_TRANSACTION:               "DUPLICATE_TRANSACTION",
	BUSY:                                "BUSY",
	THROTTLED_AT_CONSENSUS:              "THROTTLED_AT_CONSENSUS",
	MAX_CHILD_RECORDS_EXCEEDED:          "MAX_CHILD_RECORDS_EXCEEDED",
	INVALID_ACCOUNT_ID:                  "INVALID_ACCOUNT_ID",
	INVALID_ACCOUNT_AMOUNTS:             "INVALID_ACCOUNT_AMOUNTS",
	ACCOUNT_REPEATED_IN_ACCOUNT_AMOUNTS: "ACCOUNT_REPEATED_IN_ACCOUNT_AMOUNTS",
	ACCOUNT_DELETED:                     "ACCOUNT_DELETED",
	INVALID_ALIAS_KEY:                   "INVALID_ALIAS_KEY",
	KEY_REQUIRED:                        "KEY_REQUIRED",
	INVALID_INITIAL_BALANCE:             "INVALID_INITIAL_BALANCE",
	INVALID_CONTRACT_ID:                 "INVALID_CONTRACT_ID",
	INSUFFICIENT_GAS:                    "INSUFFICIENT_GAS",
	BATCH_LIST_EMPTY:                    "BATCH_LIST_EMPTY",
	INNER_TRANSACTION_FAILED:            "INNER_TRANSACTION_FAILED",
	MEMO_TOO_LONG:                       "MEMO_TOO_LONG",
	NOT_SUPPORTED:                       "NOT_SUPPORTED",
	FAIL_INVALID:                        "FAIL_INVALID",
}

func (c ResponseCode) String() string {
	if name, ok := responseCodeName[c]; ok {
		return name
	}
	return fmt.Sprintf("ResponseCode(%d)", int32(c))
}

// errors
var (
	ErrNotFound               = errors.New("ErrNotFound")
	ErrSavepointStackEmpty    = errors.New("ErrSavepointStackEmpty")
	ErrSavepointNotTop        = errors.New("ErrSavepointNotTop")
	ErrSavepointResolved      = errors.New("ErrSavepointResolved")
	ErrMissingPayer           = errors.New("ErrMissingPayer")
	ErrUnRegistedHandler      = errors.New("ErrUnRegistedHandler")
	ErrRecordBuilderMismatch  = errors.New("ErrRecordBuilderMismatch")
	ErrDueDiligenceReplaced   = errors.New("ErrDueDiligenceReplaced")
	ErrUnknownFunctionality   = errors.New("ErrUnknownFunctionality")
	ErrNilTransactionBody     = errors.New("ErrNilTransactionBody")
	ErrUnknownDBBackend       = errors.New("ErrUnknownDBBackend")
	ErrInvalidSoftwareVersion = errors.New("ErrInvalidSoftwareVersion")
	ErrConfigNotFound         = errors.New("ErrConfigNotFound")
	ErrNotAllowedOnBase       = errors.New("ErrNotAllowedOnBase")
	ErrAccountExists          = errors.New("ErrAccountExists")
)

// HandleError is raised by business logic; the dispatch records Status and,
// unless told otherwise, its savepoint is rolled back
type HandleError struct {
	Status     ResponseCode
	noRollback bool
}

// NewHandleError new handle error
func NewHandleError(status ResponseCode) *HandleError {
	return &HandleError{Status: status}
}

// NewHandleErrorKeepState handle error whose state changes are still committed
func NewHandleErrorKeepState(status ResponseCode) *HandleError {
	return &HandleError{Status: status, noRollback: true}
}

func (e *HandleError) Error() string {
	return "handle error: " + e.Status.String()
}

// ShouldRollbackStack false only for errors created by NewHandleErrorKeepState
func (e *HandleError) ShouldRollbackStack() bool {
	return !e.noRollback
}

// ValidateTrue returns a HandleError with status when cond is false
func ValidateTrue(cond bool, status ResponseCode) error {
	if cond {
		return nil
	}
	return NewHandleError(status)
}

// ValidateFalse returns a HandleError with status when cond is true
func ValidateFalse(cond bool, status ResponseCode) error {
	return ValidateTrue(!cond, status)
}

// PreCheckError is raised by pure checks, pre-handle and solvency checks
type PreCheckError struct {
	Status ResponseCode
}

// NewPreCheckError new pre check error
func NewPreCheckError(status ResponseCode) *PreCheckError {
	return &PreCheckError{Status: status}
}

func (e *PreCheckError) Error() string {
	return "pre check error: " + e.Status.String()
}

// InsufficientKind tells who is at fault for an insufficient balance
type InsufficientKind int32

// insufficient balance kinds
const (
	// InsufficientNetworkFee the submitting node should not have accepted the transaction
	InsufficientNetworkFee InsufficientKind = iota
	// InsufficientServiceFee the payer can not cover the service component
	InsufficientServiceFee
	// InsufficientNonFeeDebits the payer covers fees but not the value it moves
	InsufficientNonFeeDebits
)

// InsufficientBalanceError solvency 检查失败
type InsufficientBalanceError struct {
	Kind         InsufficientKind
	Status       ResponseCode
	EstimatedFee int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance(kind %d): %s, estimated fee %d", e.Kind, e.Status, e.EstimatedFee)
}

// FatalError marks an internal invariant violation; the whole consensus
// transaction must be abandoned
type FatalError struct {
	cause error
}

// Fatal wraps err as a fatal error
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{cause: err}
}

// Fatalf formats a fatal error around a sentinel
func Fatalf(err error, format string, args ...interface{}) error {
	return &FatalError{cause: errors.Wrapf(err, format, args...)}
}

func (e *FatalError) Error() string {
	return "fatal: " + e.cause.Error()
}

// Unwrap errors.Is support
func (e *FatalError) Unwrap() error {
	return e.cause
}

// IsFatal reports whether err or anything it wraps is fatal
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// StatusOf extracts the response code carried by a recoverable error
func StatusOf(err error) (ResponseCode, bool) {
	var he *HandleError
	if errors.As(err, &he) {
		return he.Status, true
	}
	var pe *PreCheckError
	if errors.As(err, &pe) {
		return pe.Status, true
	}
	var ie *InsufficientBalanceError
	if errors.As(err, &ie) {
		return ie.Status, true
	}
	return OK, false
}
