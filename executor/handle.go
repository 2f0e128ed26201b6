// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package executor 按共识顺序执行交易: due diligence, 嵌套 savepoint, 子交易以及 record 输出
package executor

import (
	"time"

	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/fees"
	"github.com/33cn/txflow/metrics"
	"github.com/33cn/txflow/recordcache"
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/throttle"
	"github.com/33cn/txflow/types"
	log "github.com/inconshreveable/log15"
	"github.com/pkg/errors"
)

var elog = log.New("module", "execs")

// signatureless verifier of transactions rejected before their signatures were checked
var signatureless signature.KeyVerifier = signature.NewKeyVerifier(nil, nil)

// RecordSink receives the records of each handled consensus transaction, in order
type RecordSink interface {
	Append(records ...*types.TransactionRecord)
}

// RecordList in memory sink
type RecordList struct {
	Records []*types.TransactionRecord
}

// Append append
func (l *RecordList) Append(records ...*types.TransactionRecord) {
	l.Records = append(l.Records, records...)
}

// HandleWorkflow 共识之后的交易处理入口
type HandleWorkflow struct {
	cfg         *types.Config
	base        *state.Base
	version     *types.SemanticVersion
	dispatcher  *dapp.TransactionDispatcher
	cache       *recordcache.Cache
	utilization *throttle.NetworkUtilizationManager
	authorizer  *Authorizer
	processor   *DispatchProcessor
}

// New workflow over db with every registered handler
func New(cfg *types.Config, db dbm.DB) (*HandleWorkflow, error) {
	return NewWithDispatcher(cfg, db, dapp.NewTransactionDispatcher(cfg.Exec))
}

// NewWithDispatcher workflow using dispatcher
func NewWithDispatcher(cfg *types.Config, db dbm.DB, dispatcher *dapp.TransactionDispatcher) (*HandleWorkflow, error) {
	version, err := types.ParseVersion(cfg.Exec.SoftwareVersion)
	if err != nil {
		return nil, err
	}
	feeManager, err := fees.NewManager(cfg.Fees)
	if err != nil {
		return nil, err
	}
	accumulator, err := throttle.NewAccumulator(cfg.Throttle)
	if err != nil {
		return nil, err
	}
	cache, err := recordcache.New(int(cfg.RecordCache.Capacity), time.Duration(cfg.Exec.MaxValidDuration)*time.Second)
	if err != nil {
		return nil, err
	}
	authorizer := NewAuthorizer(cfg.Exec)
	utilization := throttle.NewNetworkUtilizationManager(accumulator)
	engine := &feeEngine{cfg: cfg, manager: feeManager, dispatcher: dispatcher, authorizer: authorizer}
	preHandle := NewPreHandleWorkflow(cfg, dispatcher)
	processor := &DispatchProcessor{
		cfg:          cfg,
		dispatcher:   dispatcher,
		dueDiligence: NewDueDiligenceLogic(cfg, cache),
		preHandle:    preHandle,
		factory:      NewChildDispatchFactory(preHandle, engine),
		fees:         engine,
		utilization:  utilization,
	}
	return &HandleWorkflow{
		cfg:         cfg,
		base:        state.NewBase(db),
		version:     version,
		dispatcher:  dispatcher,
		cache:       cache,
		utilization: utilization,
		authorizer:  authorizer,
		processor:   processor,
	}, nil
}

// RecordCache dedup cache of the workflow
func (h *HandleWorkflow) RecordCache() *recordcache.Cache {
	return h.cache
}

// Accounts read only accounts of the durable state
func (h *HandleWorkflow) Accounts() state.ReadableAccountStore {
	return state.NewAccountStore(h.base)
}

// Slot durable contract storage; nil when unset
func (h *HandleWorkflow) Slot(contract *types.AccountID, slot []byte) ([]byte, error) {
	return state.NewContractStore(h.base).GetSlot(contract, slot)
}

func (h *HandleWorkflow) skip(tx *types.ConsensusTransaction) bool {
	if h.cfg.Exec.RecoveryMode || tx.SoftwareVersion == nil {
		return false
	}
	return tx.SoftwareVersion.Compare(h.version) < 0
}

// HandleProcess handles one consensus transaction from creator. Only fatal errors
// are returned; the state of the transaction is then abandoned.
func (h *HandleWorkflow) HandleProcess(consensusNow time.Time, creator *types.NodeInfo, tx *types.ConsensusTransaction, sink RecordSink) error {
	start := time.Now()
	defer metrics.Dispatch.HandleDuration(start)
	h.cache.Purge(consensusNow)
	if h.skip(tx) {
		h.handleSkipped(consensusNow, creator, tx, sink)
		return nil
	}
	return h.handleNormal(consensusNow, creator, tx, sink)
}

// handleSkipped 旧版本软件提交的交易: 只记录 BUSY
func (h *HandleWorkflow) handleSkipped(consensusNow time.Time, creator *types.NodeInfo, tx *types.ConsensusTransaction, sink RecordSink) {
	metrics.Dispatch.Skipped()
	info, err := types.ParseTransaction(tx.Payload)
	if info == nil {
		elog.Info("handleSkipped parse", "creator", creator.NodeID, "err", err)
		return
	}
	record := &types.TransactionRecord{
		Receipt:            &types.TransactionReceipt{Status: types.BUSY},
		TransactionHash:    info.Hash(),
		ConsensusTimestamp: types.NewTimestamp(consensusNow),
		TransactionID:      info.TxID(),
		Memo:               info.Body.Memo,
	}
	h.cache.Add(creator.NodeID, info.PayerID(), []*types.TransactionRecord{record})
	sink.Append(record)
}

func (h *HandleWorkflow) creatorAccount(creator *types.NodeInfo) *types.AccountID {
	if creator.Account != nil {
		return creator.Account
	}
	return h.cfg.Exec.NodeAccount(creator.NodeID)
}

func (h *HandleWorkflow) handleNormal(consensusNow time.Time, creator *types.NodeInfo, tx *types.ConsensusTransaction, sink RecordSink) error {
	creatorAccount := h.creatorAccount(creator)
	pre := h.processor.preHandle.PreHandleTransaction(creatorAccount, state.NewAccountStore(h.base), tx.Payload)
	if pre.info == nil {
		sink.Append(&types.TransactionRecord{
			Receipt:            &types.TransactionReceipt{Status: pre.status},
			ConsensusTimestamp: types.NewTimestamp(consensusNow),
		})
		return nil
	}
	info := pre.info
	exec := h.cfg.Exec
	stack := NewSavepointStack(h.base, int(exec.MaxPrecedingRecords), int(exec.MaxChildRecords))
	sp := stack.CreateSavepoint()
	builder, err := stack.CreateBuilder(info, types.CategoryUser, types.Reversible)
	if err != nil {
		return err
	}
	verifier := pre.verifier
	if verifier == nil {
		verifier = signatureless
	}
	userFees := types.FREE
	if pre.status == types.OK {
		userFees = h.processor.fees.compute(info.Body, info.Functionality, info.PayerID(), len(info.Serialized), verifier.NumSignaturesVerified())
	}
	d := &Dispatch{
		ConsensusNow:   consensusNow,
		TxnInfo:        info,
		Category:       types.CategoryUser,
		SyntheticPayer: info.PayerID(),
		DueDiligence: &DueDiligenceInfo{
			CreatorID:      creator.NodeID,
			CreatorAccount: creatorAccount,
			Status:         pre.status,
		},
		Fees:            userFees,
		KeyVerifier:     verifier,
		RequiredKeys:    pre.requiredKeys,
		RequiredAliases: pre.requiredAliases,
		Stack:           stack,
		Savepoint:       sp,
		Builder:         builder,
		tree:            &dispatchTree{},
	}
	if err := h.processor.ProcessDispatch(d); err != nil {
		elog.Crit("HandleProcess fatal", "txid", info.TxID().Key(), "err", err)
		return errors.Wrapf(err, "handle %s", info.TxID().Key())
	}
	// only transactions whose business logic ran use network capacity
	if d.handled && h.utilization.TrackTxn(info, consensusNow) {
		elog.Debug("HandleProcess over capacity", "txid", info.TxID().Key(), "functionality", info.Functionality)
	}
	if err := stack.Commit(sp); err != nil {
		return err
	}
	if err := stack.CommitFullStack(); err != nil {
		return err
	}
	records := stack.Records(consensusNow)
	h.cache.Add(creator.NodeID, info.PayerID(), records)
	sink.Append(records...)
	elog.Debug("HandleProcess", "txid", info.TxID().Key(), "status", builder.Status(), "records", len(records))
	return nil
}
