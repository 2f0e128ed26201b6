// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package testnode

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/stretchr/testify/require"

	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/common/log"
	"github.com/33cn/txflow/executor"
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/types"
)

var chainlog = log15.New("module", "testnode")

//这个包提供一个通用的测试节点，用于 handler 的单元测试
func init() {
	log.SetLogLevel("error")
}

// well known accounts of the default test config
const (
	NodeID      int64 = 3
	NodeAccount int64 = 3
	Treasury    int64 = 2
	Funding     int64 = 98
	Payer       int64 = 1001
	Other       int64 = 1002
	PayerFunds  int64 = 1e10
)

// Seed 32 repeated bytes
func Seed(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

// PayerSigner key of Payer
var PayerSigner = signature.NewEd25519Signer(Seed(1))

// OtherSigner key of Other
var OtherSigner = signature.NewEd25519Signer(Seed(2))

// GetDefaultConfig one node, treasury, funding, Payer and Other; no fee schedule
func GetDefaultConfig() *types.Config {
	cfg := types.DefaultConfig()
	cfg.Exec.Nodes = []*types.NodeConfig{{NodeID: NodeID, Account: NodeAccount}}
	cfg.Exec.FundingAccount = Funding
	cfg.Exec.Treasury = Treasury
	cfg.Genesis.Accounts = []*types.GenesisAccount{
		{Num: Treasury, Ed25519Seed: hex.EncodeToString(Seed(9)), Balance: 1e15},
		{Num: NodeAccount},
		{Num: Funding},
		{Num: Payer, Ed25519Seed: hex.EncodeToString(Seed(1)), Balance: PayerFunds},
		{Num: Other, Ed25519Seed: hex.EncodeToString(Seed(2)), Balance: PayerFunds},
	}
	return cfg
}

// TxflowMock a handle workflow over a memdb, advancing consensus time a millisecond per transaction
type TxflowMock struct {
	t     *testing.T
	cfg   *types.Config
	flow  *executor.HandleWorkflow
	db    dbm.DB
	now   time.Time
	count int64
}

// New mock with the default config
func New(t *testing.T) *TxflowMock {
	return NewWithConfig(t, GetDefaultConfig())
}

// NewWithConfig every registered handler is loaded, genesis is applied
func NewWithConfig(t *testing.T, cfg *types.Config) *TxflowMock {
	db, err := dbm.NewDB("testnode", dbm.MemDBBackendStr, "", 0)
	require.NoError(t, err)
	flow, err := executor.New(cfg, db)
	require.NoError(t, err)
	created, err := flow.InitGenesis()
	require.NoError(t, err)
	chainlog.Debug("NewWithConfig", "genesis", created)
	return &TxflowMock{t: t, cfg: cfg, flow: flow, db: db, now: time.Unix(1700000000, 0).UTC()}
}

// GetCfg config
func (m *TxflowMock) GetCfg() *types.Config {
	return m.cfg
}

// GetFlow workflow
func (m *TxflowMock) GetFlow() *executor.HandleWorkflow {
	return m.flow
}

// Now consensus time of the next transaction
func (m *TxflowMock) Now() time.Time {
	return m.now
}

// Body with a fresh transaction id of payer, no payload set
func (m *TxflowMock) Body(payer int64) *types.TransactionBody {
	m.count++
	return &types.TransactionBody{
		ID: &types.TransactionID{
			Payer:      types.NewAccountID(payer),
			ValidStart: types.NewTimestamp(m.now.Add(-time.Second).Add(time.Duration(m.count))),
		},
		NodeAccount:          types.NewAccountID(NodeAccount),
		TransactionFee:       1e8,
		ValidDurationSeconds: 120,
	}
}

// Submit signs body; PayerSigner when no signer is given
func (m *TxflowMock) Submit(body *types.TransactionBody, signers ...signature.Signer) *types.ConsensusTransaction {
	if len(signers) == 0 {
		signers = []signature.Signer{PayerSigner}
	}
	tx, err := signature.SignTransaction(body, signers...)
	require.NoError(m.t, err)
	version, err := types.ParseVersion(m.cfg.Exec.SoftwareVersion)
	require.NoError(m.t, err)
	return &types.ConsensusTransaction{Payload: types.Encode(tx), SoftwareVersion: version}
}

// Handle runs tx as created by the configured node and returns its records
func (m *TxflowMock) Handle(tx *types.ConsensusTransaction) []*types.TransactionRecord {
	sink := &executor.RecordList{}
	err := m.flow.HandleProcess(m.now, &types.NodeInfo{NodeID: NodeID}, tx, sink)
	require.NoError(m.t, err)
	m.now = m.now.Add(time.Millisecond)
	return sink.Records
}

// Exec Submit then Handle
func (m *TxflowMock) Exec(body *types.TransactionBody, signers ...signature.Signer) []*types.TransactionRecord {
	return m.Handle(m.Submit(body, signers...))
}

// RecordOf the record carrying the transaction id of body
func RecordOf(records []*types.TransactionRecord, body *types.TransactionBody) *types.TransactionRecord {
	for _, r := range records {
		if r.TransactionID.Key() == body.ID.Key() {
			return r
		}
	}
	return nil
}

// GetAccount durable account by id
func (m *TxflowMock) GetAccount(id *types.AccountID) (*types.Account, error) {
	return m.flow.Accounts().GetAccount(id)
}

// Balance durable balance of num; -1 when missing
func (m *TxflowMock) Balance(num int64) int64 {
	acc, err := m.GetAccount(types.NewAccountID(num))
	if err != nil {
		return -1
	}
	return acc.Balance
}

// GetSlot durable contract storage
func (m *TxflowMock) GetSlot(contract *types.AccountID, slot []byte) []byte {
	v, err := m.flow.Slot(contract, slot)
	require.NoError(m.t, err)
	return v
}
