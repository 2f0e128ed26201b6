// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"bytes"
	"testing"
	"time"

	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	nodeNum   int64 = 3
	otherNode int64 = 4
	payerNum  int64 = 1001
	poorNum   int64 = 1002
	fundNum   int64 = 98
)

var testNow = time.Unix(1700000000, 500).UTC()

func seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

// mockHandler every phase passes unless handle is set; Handle calls are recorded
type mockHandler struct {
	mock.Mock
	fees   types.Fees
	handle func(ctx dapp.HandleContext) error
}

func newMockHandler(fees types.Fees, handle func(ctx dapp.HandleContext) error) *mockHandler {
	h := &mockHandler{fees: fees, handle: handle}
	h.On("Handle", mock.Anything).Maybe()
	return h
}

func (h *mockHandler) PureChecks(body *types.TransactionBody) error { return nil }
func (h *mockHandler) PreHandle(ctx dapp.PreHandleContext) error { return nil }
func (h *mockHandler) CalculateFees(ctx dapp.FeeContext) types.Fees { return h.fees }

func (h *mockHandler) Handle(ctx dapp.HandleContext) error {
	h.Called(ctx.Functionality())
	if h.handle != nil {
		return h.handle(ctx)
	}
	return nil
}

var fullFees = types.Fees{NodeFee: 10, NetworkFee: 20, ServiceFee: 100}

type testEnv struct {
	t          *testing.T
	cfg        *types.Config
	dispatcher *dapp.TransactionDispatcher
	flow       *HandleWorkflow
	signer     *signature.Ed25519Signer
	sink       *RecordList
}

func newTestConfig() *types.Config {
	cfg := types.DefaultConfig()
	cfg.Exec.Nodes = []*types.NodeConfig{{NodeID: nodeNum, Account: nodeNum}, {NodeID: otherNode, Account: otherNode}}
	cfg.Exec.FundingAccount = fundNum
	cfg.Genesis.Accounts = []*types.GenesisAccount{
		{Num: 2, Ed25519Seed: "0909090909090909090909090909090909090909090909090909090909090909", Balance: 1e12},
		{Num: nodeNum, Balance: 0},
		{Num: otherNode, Balance: 0},
		{Num: fundNum, Balance: 0},
		{Num: payerNum, Ed25519Seed: "0101010101010101010101010101010101010101010101010101010101010101", Balance: 1000000},
		{Num: poorNum, Ed25519Seed: "0202020202020202020202020202020202020202020202020202020202020202", Balance: 0},
	}
	return cfg
}

// newTestEnv every functionality is served by a mock charging fullFees
func newTestEnv(t *testing.T, cfg *types.Config) *testEnv {
	if cfg == nil {
		cfg = newTestConfig()
	}
	db, err := dbm.NewDB("test", dbm.MemDBBackendStr, "", 0)
	require.NoError(t, err)
	dispatcher := dapp.NewTransactionDispatcher(cfg.Exec)
	for _, fn := range []types.Functionality{types.FuncCryptoCreate, types.FuncCryptoTransfer, types.FuncContractCall, types.FuncContractCreate, types.FuncAtomicBatch} {
		dispatcher.SetHandler(fn, newMockHandler(fullFees, nil))
	}
	flow, err := NewWithDispatcher(cfg, db, dispatcher)
	require.NoError(t, err)
	_, err = flow.InitGenesis()
	require.NoError(t, err)
	return &testEnv{t: t, cfg: cfg, dispatcher: dispatcher, flow: flow, signer: signature.NewEd25519Signer(seed(1)), sink: &RecordList{}}
}

func (e *testEnv) setHandler(fn types.Functionality, handle func(ctx dapp.HandleContext) error) *mockHandler {
	h := newMockHandler(fullFees, handle)
	e.dispatcher.SetHandler(fn, h)
	return h
}

func transferBody(payer int64, node int64) *types.TransactionBody {
	return &types.TransactionBody{
		ID:                   &types.TransactionID{Payer: types.NewAccountID(payer), ValidStart: types.NewTimestamp(testNow.Add(-time.Second))},
		NodeAccount:          types.NewAccountID(node),
		TransactionFee:       1000,
		ValidDurationSeconds: 120,
		Memo:                 "test",
		CryptoTransfer:       &types.CryptoTransferBody{Transfers: &types.TransferList{}},
	}
}

// shifted moves the valid start back by ms, giving the body a distinct transaction id
func shifted(body *types.TransactionBody, ms int) *types.TransactionBody {
	body.ID.ValidStart = types.NewTimestamp(body.ID.ValidStart.AsTime().Add(-time.Duration(ms) * time.Millisecond))
	return body
}

func (e *testEnv) submit(body *types.TransactionBody, signers ...signature.Signer) *types.ConsensusTransaction {
	if len(signers) == 0 {
		signers = []signature.Signer{e.signer}
	}
	tx, err := signature.SignTransaction(body, signers...)
	require.NoError(e.t, err)
	version, err := types.ParseVersion(e.cfg.Exec.SoftwareVersion)
	require.NoError(e.t, err)
	return &types.ConsensusTransaction{Payload: types.Encode(tx), SoftwareVersion: version}
}

// handle runs tx from creator and returns the records it produced
func (e *testEnv) handle(creator int64, tx *types.ConsensusTransaction) []*types.TransactionRecord {
	e.sink.Records = nil
	err := e.flow.HandleProcess(testNow, &types.NodeInfo{NodeID: creator}, tx, e.sink)
	require.NoError(e.t, err)
	return e.sink.Records
}

func (e *testEnv) balance(num int64) int64 {
	acc, err := e.flow.Accounts().GetAccount(types.NewAccountID(num))
	require.NoError(e.t, err)
	return acc.Balance
}

func (e *testEnv) exists(num int64) bool {
	_, err := e.flow.Accounts().GetAccount(types.NewAccountID(num))
	return err == nil
}

func createBody() *types.TransactionBody {
	return &types.TransactionBody{CryptoCreate: &types.CryptoCreateBody{}}
}

func contractBody() *types.TransactionBody {
	return &types.TransactionBody{ContractCall: &types.ContractCallBody{Contract: types.NewAccountID(5000)}}
}

// putAccount handler writing a fresh account into the current savepoint
func putAccount(num int64) func(ctx dapp.HandleContext) error {
	return func(ctx dapp.HandleContext) error {
		return ctx.WritableAccounts().Put(&types.Account{ID: types.NewAccountID(num), Key: &types.Key{Ed25519: seed(7)}})
	}
}
