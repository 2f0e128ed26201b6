// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dapp 交易处理器的接口定义以及按 functionality 分发的 dispatcher
package dapp

import (
	"time"

	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/types"
)

// Handler business logic of one functionality
type Handler interface {
	// PureChecks 不读取状态的检查
	PureChecks(body *types.TransactionBody) error
	// PreHandle collects the non payer keys that must sign
	PreHandle(ctx PreHandleContext) error
	CalculateFees(ctx FeeContext) types.Fees
	Handle(ctx HandleContext) error
}

// PreHandleContext view used while gathering required keys
type PreHandleContext interface {
	Body() *types.TransactionBody
	Functionality() types.Functionality
	Payer() *types.AccountID
	PayerKey() *types.Key
	Accounts() state.ReadableAccountStore
	Configuration() *types.Config
	RequireKey(key *types.Key)
	// RequireKeyOrFail requires the key of account id; a missing account fails with status
	RequireKeyOrFail(id *types.AccountID, status types.ResponseCode) error
	RequiredKeys() []*types.Key
}

// FeeContext view used to price a transaction
type FeeContext interface {
	Body() *types.TransactionBody
	Functionality() types.Functionality
	Payer() *types.AccountID
	NumSignatures() int
	Configuration() *types.Config
	FeeCalculator() FeeCalculator
}

// FeeCalculator pricing of the usage a handler reports
type FeeCalculator interface {
	AddBytes(n int64) FeeCalculator
	AddVerifications(n int64) FeeCalculator
	AddServiceTinycents(n int64) FeeCalculator
	Calculate() types.Fees
}

// ChildOptions how a child dispatch is built
type ChildOptions struct {
	Body  *types.TransactionBody
	Payer *types.AccountID
	// Filter restricts the parent's verified keys the child may use; nil allows all of them
	Filter signature.KeyFilter
	// Customizer may rewrite the body before the child is created
	Customizer func(body *types.TransactionBody) *types.TransactionBody
	// Externalizer may rewrite the child's record when it is externalized
	Externalizer func(record *types.TransactionRecord)
}

// HandleContext capabilities handed to Handler.Handle for one dispatch
type HandleContext interface {
	ConsensusNow() time.Time
	Body() *types.TransactionBody
	Functionality() types.Functionality
	Payer() *types.AccountID
	Category() types.TransactionCategory
	Configuration() *types.Config
	KeyVerifier() signature.KeyVerifier

	ReadableAccounts() state.ReadableAccountStore
	WritableAccounts() *state.AccountStore
	WritableContracts() *state.ContractStore

	RecordBuilder() StreamBuilder

	// DispatchComputeFees fees of body as if dispatched by syntheticPayer; FREE for waived payers
	DispatchComputeFees(body *types.TransactionBody, syntheticPayer *types.AccountID, asTopLevel bool) (types.Fees, error)
	// AllKeysForTransaction payer key and every key the nested body requires;
	// any failure is reported as UNRESOLVABLE_REQUIRED_SIGNERS
	AllKeysForTransaction(body *types.TransactionBody, payer *types.AccountID) ([]*types.Key, error)

	// DispatchPrecedingTransaction irreversible preceding dispatch, committed as soon as it is processed
	DispatchPrecedingTransaction(opts ChildOptions) (StreamBuilder, error)
	DispatchRemovablePrecedingTransaction(opts ChildOptions) (StreamBuilder, error)
	DispatchChildTransaction(opts ChildOptions) (StreamBuilder, error)
	DispatchRemovableChildTransaction(opts ChildOptions) (StreamBuilder, error)

	// HasThrottleCapacityForChildTransactions all or nothing admission of the successful children
	HasThrottleCapacityForChildTransactions() bool
	// DispatchPaidRewards staking rewards paid by any child of this dispatch tree, by account
	DispatchPaidRewards() map[string]int64
}

// StreamBuilder the record under construction for one dispatch
type StreamBuilder interface {
	Status() types.ResponseCode
	SetStatus(status types.ResponseCode)
	Category() types.TransactionCategory
	ReversingBehavior() types.ReversingBehavior
	Functionality() types.Functionality
	TransactionID() *types.TransactionID
	SetMemo(memo string)
	AddTransfers(transfers ...*types.AccountAmount)
	AddPaidStakingReward(account *types.AccountID, amount int64)
	PaidStakingRewards() []*types.AccountAmount
	// Record copy of the record as it would be externalized now
	Record() *types.TransactionRecord
}

// CryptoCreateStreamBuilder record shape of CryptoCreate
type CryptoCreateStreamBuilder interface {
	StreamBuilder
	SetAccountID(id *types.AccountID)
	AccountID() *types.AccountID
	SetAlias(alias []byte)
}

// CryptoTransferStreamBuilder record shape of CryptoTransfer
type CryptoTransferStreamBuilder interface {
	StreamBuilder
	Transfers() []*types.AccountAmount
}

// ContractStreamBuilder record shape of ContractCall and ContractCreate
type ContractStreamBuilder interface {
	StreamBuilder
	SetContractID(id *types.AccountID)
	ContractID() *types.AccountID
}

// CastBuilder asserts the shape a caller expects of a dispatched child's builder
func CastBuilder[T StreamBuilder](builder StreamBuilder, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := builder.(T)
	if !ok {
		return zero, types.ErrRecordBuilderMismatch
	}
	return typed, nil
}
