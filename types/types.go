// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
)

// Message 所有上链数据都实现 proto.Message
type Message proto.Message

// Encode  编码
func Encode(data proto.Message) []byte {
	b, err := proto.Marshal(data)
	if err != nil {
		panic(err)
	}
	return b
}

// Size  消息大小
func Size(data proto.Message) int {
	return proto.Size(data)
}

// Decode  解码
func Decode(data []byte, msg proto.Message) error {
	return proto.Unmarshal(data, msg)
}

// Clone deep copy of a message
func Clone(msg proto.Message) proto.Message {
	return proto.Clone(msg)
}

// Timestamp seconds and nanos since the unix epoch
type Timestamp struct {
	Seconds int64 `protobuf:"varint,1,opt,name=seconds,proto3" json:"seconds,omitempty"`
	Nanos   int32 `protobuf:"varint,2,opt,name=nanos,proto3" json:"nanos,omitempty"`
}

func (m *Timestamp) Reset()         { *m = Timestamp{} }
func (m *Timestamp) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*Timestamp) ProtoMessage() {}

// NewTimestamp from time.Time
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// AsTime zero time for nil
func (m *Timestamp) AsTime() time.Time {
	if m == nil {
		return time.Time{}
	}
	return time.Unix(m.Seconds, int64(m.Nanos)).UTC()
}

// AccountID shard.realm.num, or an alias for accounts referenced before creation
type AccountID struct {
	Shard int64  `protobuf:"varint,1,opt,name=shard,proto3" json:"shard,omitempty"`
	Realm int64  `protobuf:"varint,2,opt,name=realm,proto3" json:"realm,omitempty"`
	Num   int64  `protobuf:"varint,3,opt,name=num,proto3" json:"num,omitempty"`
	Alias []byte `protobuf:"bytes,4,opt,name=alias,proto3" json:"alias,omitempty"`
}

func (m *AccountID) Reset()         { *m = AccountID{} }
func (m *AccountID) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*AccountID) ProtoMessage() {}

// NewAccountID in the default shard and realm
func NewAccountID(num int64) *AccountID {
	return &AccountID{Shard: DefaultShard, Realm: DefaultRealm, Num: num}
}

// GetNum num
func (m *AccountID) GetNum() int64 {
	if m != nil {
		return m.Num
	}
	return 0
}

// HasAlias true when the id names an account by alias
func (m *AccountID) HasAlias() bool {
	return m != nil && len(m.Alias) > 0
}

// Key map key for the id
func (m *AccountID) Key() string {
	if m == nil {
		return ""
	}
	if m.HasAlias() {
		return "alias:" + hex.EncodeToString(m.Alias)
	}
	return fmt.Sprintf("%d.%d.%d", m.Shard, m.Realm, m.Num)
}

// SameAccount compares ids by value
func SameAccount(a, b *AccountID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// Key ed25519, secp256k1, key list or threshold key; exactly one is set
type Key struct {
	Ed25519        []byte        `protobuf:"bytes,1,opt,name=ed25519,proto3" json:"ed25519,omitempty"`
	EcdsaSecp256K1 []byte        `protobuf:"bytes,2,opt,name=ecdsaSecp256k1,proto3" json:"ecdsaSecp256k1,omitempty"`
	KeyList        *KeyList      `protobuf:"bytes,3,opt,name=keyList,proto3" json:"keyList,omitempty"`
	ThresholdKey   *ThresholdKey `protobuf:"bytes,4,opt,name=thresholdKey,proto3" json:"thresholdKey,omitempty"`
}

func (m *Key) Reset()         { *m = Key{} }
func (m *Key) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*Key) ProtoMessage() {}

// IsPrimitive ed25519 or secp256k1
func (m *Key) IsPrimitive() bool {
	return m != nil && (len(m.Ed25519) > 0 || len(m.EcdsaSecp256K1) > 0)
}

// IsEmpty no key material at all
func (m *Key) IsEmpty() bool {
	if m == nil {
		return true
	}
	if m.IsPrimitive() {
		return false
	}
	if m.KeyList != nil {
		return len(m.KeyList.Keys) == 0
	}
	if m.ThresholdKey != nil {
		return m.ThresholdKey.Keys == nil || len(m.ThresholdKey.Keys.Keys) == 0
	}
	return true
}

// SameKey compares keys by value
func SameKey(a, b *Key) bool {
	return proto.Equal(a, b)
}

// KeyList all keys must sign
type KeyList struct {
	Keys []*Key `protobuf:"bytes,1,rep,name=keys,proto3" json:"keys,omitempty"`
}

func (m *KeyList) Reset()         { *m = KeyList{} }
func (m *KeyList) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*KeyList) ProtoMessage() {}

// ThresholdKey at least Threshold of Keys must sign
type ThresholdKey struct {
	Threshold uint32   `protobuf:"varint,1,opt,name=threshold,proto3" json:"threshold,omitempty"`
	Keys      *KeyList `protobuf:"bytes,2,opt,name=keys,proto3" json:"keys,omitempty"`
}

func (m *ThresholdKey) Reset()         { *m = ThresholdKey{} }
func (m *ThresholdKey) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*ThresholdKey) ProtoMessage() {}

// Account ledger account; a nil Key marks a hollow account
type Account struct {
	ID           *AccountID `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Key          *Key       `protobuf:"bytes,2,opt,name=key,proto3" json:"key,omitempty"`
	Balance      int64      `protobuf:"varint,3,opt,name=balance,proto3" json:"balance,omitempty"`
	Deleted      bool       `protobuf:"varint,4,opt,name=deleted,proto3" json:"deleted,omitempty"`
	Alias        []byte     `protobuf:"bytes,5,opt,name=alias,proto3" json:"alias,omitempty"`
	ExpirySecond int64      `protobuf:"varint,6,opt,name=expirySecond,proto3" json:"expirySecond,omitempty"`
	Memo         string     `protobuf:"bytes,7,opt,name=memo,proto3" json:"memo,omitempty"`
	Contract     bool       `protobuf:"varint,8,opt,name=contract,proto3" json:"contract,omitempty"`
	Bytecode     []byte     `protobuf:"bytes,9,opt,name=bytecode,proto3" json:"bytecode,omitempty"`
}

func (m *Account) Reset()         { *m = Account{} }
func (m *Account) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*Account) ProtoMessage() {}

// IsHollow account created from an alias that has not signed yet
func (m *Account) IsHollow() bool {
	return m != nil && m.Key == nil && !m.Contract
}

// TransactionID payer plus valid start, nonce distinguishes generated children
type TransactionID struct {
	Payer      *AccountID `protobuf:"bytes,1,opt,name=payer,proto3" json:"payer,omitempty"`
	ValidStart *Timestamp `protobuf:"bytes,2,opt,name=validStart,proto3" json:"validStart,omitempty"`
	Nonce      int32      `protobuf:"varint,3,opt,name=nonce,proto3" json:"nonce,omitempty"`
	Scheduled  bool       `protobuf:"varint,4,opt,name=scheduled,proto3" json:"scheduled,omitempty"`
}

func (m *TransactionID) Reset()         { *m = TransactionID{} }
func (m *TransactionID) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*TransactionID) ProtoMessage() {}

// GetPayer payer
func (m *TransactionID) GetPayer() *AccountID {
	if m != nil {
		return m.Payer
	}
	return nil
}

// GetValidStart valid start
func (m *TransactionID) GetValidStart() *Timestamp {
	if m != nil {
		return m.ValidStart
	}
	return nil
}

// Key map key for the id
func (m *TransactionID) Key() string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s@%d.%09d/%d/%t", m.Payer.Key(), m.ValidStart.GetSeconds(), m.ValidStart.GetNanos(), m.Nonce, m.Scheduled)
}

// GetSeconds seconds
func (m *Timestamp) GetSeconds() int64 {
	if m != nil {
		return m.Seconds
	}
	return 0
}

// GetNanos nanos
func (m *Timestamp) GetNanos() int32 {
	if m != nil {
		return m.Nanos
	}
	return 0
}

// AccountAmount signed amount moved for one account
type AccountAmount struct {
	Account *AccountID `protobuf:"bytes,1,opt,name=account,proto3" json:"account,omitempty"`
	Amount  int64      `protobuf:"varint,2,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *AccountAmount) Reset()         { *m = AccountAmount{} }
func (m *AccountAmount) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*AccountAmount) ProtoMessage() {}

// TransferList zero sum list of account amounts
type TransferList struct {
	AccountAmounts []*AccountAmount `protobuf:"bytes,1,rep,name=accountAmounts,proto3" json:"accountAmounts,omitempty"`
}

func (m *TransferList) Reset()         { *m = TransferList{} }
func (m *TransferList) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*TransferList) ProtoMessage() {}

// GetAccountAmounts account amounts
func (m *TransferList) GetAccountAmounts() []*AccountAmount {
	if m != nil {
		return m.AccountAmounts
	}
	return nil
}

// CryptoCreateBody create an account
type CryptoCreateBody struct {
	Key            *Key   `protobuf:"bytes,1,opt,name=key,proto3" json:"key,omitempty"`
	InitialBalance int64  `protobuf:"varint,2,opt,name=initialBalance,proto3" json:"initialBalance,omitempty"`
	Memo           string `protobuf:"bytes,3,opt,name=memo,proto3" json:"memo,omitempty"`
	Alias          []byte `protobuf:"bytes,4,opt,name=alias,proto3" json:"alias,omitempty"`
}

func (m *CryptoCreateBody) Reset()         { *m = CryptoCreateBody{} }
func (m *CryptoCreateBody) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*CryptoCreateBody) ProtoMessage() {}

// CryptoTransferBody move hbar between accounts
type CryptoTransferBody struct {
	Transfers *TransferList `protobuf:"bytes,1,opt,name=transfers,proto3" json:"transfers,omitempty"`
}

func (m *CryptoTransferBody) Reset()         { *m = CryptoTransferBody{} }
func (m *CryptoTransferBody) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*CryptoTransferBody) ProtoMessage() {}

// GetTransfers transfers
func (m *CryptoTransferBody) GetTransfers() *TransferList {
	if m != nil {
		return m.Transfers
	}
	return nil
}

// ContractCallBody call a contract, optionally sending value
type ContractCallBody struct {
	Contract           *AccountID `protobuf:"bytes,1,opt,name=contract,proto3" json:"contract,omitempty"`
	Gas                int64      `protobuf:"varint,2,opt,name=gas,proto3" json:"gas,omitempty"`
	Amount             int64      `protobuf:"varint,3,opt,name=amount,proto3" json:"amount,omitempty"`
	FunctionParameters []byte     `protobuf:"bytes,4,opt,name=functionParameters,proto3" json:"functionParameters,omitempty"`
}

func (m *ContractCallBody) Reset()         { *m = ContractCallBody{} }
func (m *ContractCallBody) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*ContractCallBody) ProtoMessage() {}

// ContractCreateBody deploy a contract
type ContractCreateBody struct {
	AdminKey       *Key   `protobuf:"bytes,1,opt,name=adminKey,proto3" json:"adminKey,omitempty"`
	Gas            int64  `protobuf:"varint,2,opt,name=gas,proto3" json:"gas,omitempty"`
	InitialBalance int64  `protobuf:"varint,3,opt,name=initialBalance,proto3" json:"initialBalance,omitempty"`
	Bytecode       []byte `protobuf:"bytes,4,opt,name=bytecode,proto3" json:"bytecode,omitempty"`
	Memo           string `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
}

func (m *ContractCreateBody) Reset()         { *m = ContractCreateBody{} }
func (m *ContractCreateBody) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*ContractCreateBody) ProtoMessage() {}

// AtomicBatchBody inner transactions executed all or nothing
type AtomicBatchBody struct {
	Transactions []*TransactionBody `protobuf:"bytes,1,rep,name=transactions,proto3" json:"transactions,omitempty"`
}

func (m *AtomicBatchBody) Reset()         { *m = AtomicBatchBody{} }
func (m *AtomicBatchBody) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*AtomicBatchBody) ProtoMessage() {}

// TransactionBody exactly one payload field must be set
type TransactionBody struct {
	ID                   *TransactionID      `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	NodeAccount          *AccountID          `protobuf:"bytes,2,opt,name=nodeAccount,proto3" json:"nodeAccount,omitempty"`
	TransactionFee       int64               `protobuf:"varint,3,opt,name=transactionFee,proto3" json:"transactionFee,omitempty"`
	ValidDurationSeconds int64               `protobuf:"varint,4,opt,name=validDurationSeconds,proto3" json:"validDurationSeconds,omitempty"`
	Memo                 string              `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
	CryptoCreate         *CryptoCreateBody   `protobuf:"bytes,10,opt,name=cryptoCreate,proto3" json:"cryptoCreate,omitempty"`
	CryptoTransfer       *CryptoTransferBody `protobuf:"bytes,11,opt,name=cryptoTransfer,proto3" json:"cryptoTransfer,omitempty"`
	ContractCall         *ContractCallBody   `protobuf:"bytes,12,opt,name=contractCall,proto3" json:"contractCall,omitempty"`
	ContractCreate       *ContractCreateBody `protobuf:"bytes,13,opt,name=contractCreate,proto3" json:"contractCreate,omitempty"`
	AtomicBatch          *AtomicBatchBody    `protobuf:"bytes,14,opt,name=atomicBatch,proto3" json:"atomicBatch,omitempty"`
}

func (m *TransactionBody) Reset()         { *m = TransactionBody{} }
func (m *TransactionBody) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*TransactionBody) ProtoMessage() {}

// GetID id
func (m *TransactionBody) GetID() *TransactionID {
	if m != nil {
		return m.ID
	}
	return nil
}

// PayerID payer of the transaction id
func (m *TransactionBody) PayerID() *AccountID {
	return m.GetID().GetPayer()
}

// FunctionOf the functionality of the single payload set on the body
func FunctionOf(body *TransactionBody) (Functionality, error) {
	if body == nil {
		return FuncNone, NewPreCheckError(INVALID_TRANSACTION_BODY)
	}
	fn := FuncNone
	set := 0
	if body.CryptoCreate != nil {
		fn, set = FuncCryptoCreate, set+1
	}
	if body.CryptoTransfer != nil {
		fn, set = FuncCryptoTransfer, set+1
	}
	if body.ContractCall != nil {
		fn, set = FuncContractCall, set+1
	}
	if body.ContractCreate != nil {
		fn, set = FuncContractCreate, set+1
	}
	if body.AtomicBatch != nil {
		fn, set = FuncAtomicBatch, set+1
	}
	if set != 1 {
		return FuncNone, NewPreCheckError(INVALID_TRANSACTION_BODY)
	}
	return fn, nil
}

// SignaturePair signature by the key whose bytes start with PubKeyPrefix
type SignaturePair struct {
	PubKeyPrefix   []byte `protobuf:"bytes,1,opt,name=pubKeyPrefix,proto3" json:"pubKeyPrefix,omitempty"`
	Ed25519        []byte `protobuf:"bytes,2,opt,name=ed25519,proto3" json:"ed25519,omitempty"`
	EcdsaSecp256K1 []byte `protobuf:"bytes,3,opt,name=ecdsaSecp256k1,proto3" json:"ecdsaSecp256k1,omitempty"`
}

func (m *SignaturePair) Reset()         { *m = SignaturePair{} }
func (m *SignaturePair) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*SignaturePair) ProtoMessage() {}

// SignatureMap signatures over the body bytes
type SignatureMap struct {
	SigPairs []*SignaturePair `protobuf:"bytes,1,rep,name=sigPairs,proto3" json:"sigPairs,omitempty"`
}

func (m *SignatureMap) Reset()         { *m = SignatureMap{} }
func (m *SignatureMap) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*SignatureMap) ProtoMessage() {}

// Transaction signed transaction as submitted by a client
type Transaction struct {
	BodyBytes []byte        `protobuf:"bytes,1,opt,name=bodyBytes,proto3" json:"bodyBytes,omitempty"`
	SigMap    *SignatureMap `protobuf:"bytes,2,opt,name=sigMap,proto3" json:"sigMap,omitempty"`
}

func (m *Transaction) Reset()         { *m = Transaction{} }
func (m *Transaction) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*Transaction) ProtoMessage() {}

// SemanticVersion software version a transaction was created under
type SemanticVersion struct {
	Major int32 `protobuf:"varint,1,opt,name=major,proto3" json:"major,omitempty"`
	Minor int32 `protobuf:"varint,2,opt,name=minor,proto3" json:"minor,omitempty"`
	Patch int32 `protobuf:"varint,3,opt,name=patch,proto3" json:"patch,omitempty"`
}

func (m *SemanticVersion) Reset()         { *m = SemanticVersion{} }
func (m *SemanticVersion) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*SemanticVersion) ProtoMessage() {}

// Compare -1, 0, 1; nil sorts before everything
func (m *SemanticVersion) Compare(o *SemanticVersion) int {
	switch {
	case m == nil && o == nil:
		return 0
	case m == nil:
		return -1
	case o == nil:
		return 1
	}
	for _, d := range [3]int32{m.Major - o.Major, m.Minor - o.Minor, m.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// ParseVersion "major.minor.patch"
func ParseVersion(s string) (*SemanticVersion, error) {
	v := &SemanticVersion{}
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch); err != nil {
		return nil, ErrInvalidSoftwareVersion
	}
	return v, nil
}

// ConsensusTransaction payload is an encoded Transaction
type ConsensusTransaction struct {
	Payload         []byte           `protobuf:"bytes,1,opt,name=payload,proto3" json:"payload,omitempty"`
	SoftwareVersion *SemanticVersion `protobuf:"bytes,2,opt,name=softwareVersion,proto3" json:"softwareVersion,omitempty"`
}

func (m *ConsensusTransaction) Reset()         { *m = ConsensusTransaction{} }
func (m *ConsensusTransaction) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*ConsensusTransaction) ProtoMessage() {}

// ConsensusEvent one consensus ordered transaction with its creator
type ConsensusEvent struct {
	CreatorNodeID    int64                 `protobuf:"varint,1,opt,name=creatorNodeID,proto3" json:"creatorNodeID,omitempty"`
	ConsensusSeconds int64                 `protobuf:"varint,2,opt,name=consensusSeconds,proto3" json:"consensusSeconds,omitempty"`
	ConsensusNanos   int32                 `protobuf:"varint,3,opt,name=consensusNanos,proto3" json:"consensusNanos,omitempty"`
	Transaction      *ConsensusTransaction `protobuf:"bytes,4,opt,name=transaction,proto3" json:"transaction,omitempty"`
}

func (m *ConsensusEvent) Reset()         { *m = ConsensusEvent{} }
func (m *ConsensusEvent) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*ConsensusEvent) ProtoMessage() {}

// ConsensusTime event time
func (m *ConsensusEvent) ConsensusTime() time.Time {
	return time.Unix(m.ConsensusSeconds, int64(m.ConsensusNanos)).UTC()
}

// NodeInfo node id and the account its fees are paid to
type NodeInfo struct {
	NodeID  int64      `protobuf:"varint,1,opt,name=nodeID,proto3" json:"nodeID,omitempty"`
	Account *AccountID `protobuf:"bytes,2,opt,name=account,proto3" json:"account,omitempty"`
}

func (m *NodeInfo) Reset()         { *m = NodeInfo{} }
func (m *NodeInfo) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*NodeInfo) ProtoMessage() {}

// TransactionReceipt status and created entity
type TransactionReceipt struct {
	Status     ResponseCode `protobuf:"varint,1,opt,name=status,proto3" json:"status,omitempty"`
	AccountID  *AccountID   `protobuf:"bytes,2,opt,name=accountID,proto3" json:"accountID,omitempty"`
	ContractID *AccountID   `protobuf:"bytes,3,opt,name=contractID,proto3" json:"contractID,omitempty"`
}

func (m *TransactionReceipt) Reset()         { *m = TransactionReceipt{} }
func (m *TransactionReceipt) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*TransactionReceipt) ProtoMessage() {}

// TransactionRecord externalized outcome of one dispatch
type TransactionRecord struct {
	Receipt                  *TransactionReceipt `protobuf:"bytes,1,opt,name=receipt,proto3" json:"receipt,omitempty"`
	TransactionHash          []byte              `protobuf:"bytes,2,opt,name=transactionHash,proto3" json:"transactionHash,omitempty"`
	ConsensusTimestamp       *Timestamp          `protobuf:"bytes,3,opt,name=consensusTimestamp,proto3" json:"consensusTimestamp,omitempty"`
	TransactionID            *TransactionID      `protobuf:"bytes,4,opt,name=transactionID,proto3" json:"transactionID,omitempty"`
	Memo                     string              `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
	TransactionFee           int64               `protobuf:"varint,6,opt,name=transactionFee,proto3" json:"transactionFee,omitempty"`
	TransferList             *TransferList       `protobuf:"bytes,7,opt,name=transferList,proto3" json:"transferList,omitempty"`
	ParentConsensusTimestamp *Timestamp          `protobuf:"bytes,8,opt,name=parentConsensusTimestamp,proto3" json:"parentConsensusTimestamp,omitempty"`
	PaidStakingRewards       []*AccountAmount    `protobuf:"bytes,9,rep,name=paidStakingRewards,proto3" json:"paidStakingRewards,omitempty"`
	Alias                    []byte              `protobuf:"bytes,10,opt,name=alias,proto3" json:"alias,omitempty"`
}

func (m *TransactionRecord) Reset()         { *m = TransactionRecord{} }
func (m *TransactionRecord) String() string { return proto.CompactTextString(m) }

// ProtoMessage proto message
func (*TransactionRecord) ProtoMessage() {}

// Status receipt status
func (m *TransactionRecord) Status() ResponseCode {
	if m == nil || m.Receipt == nil {
		return OK
	}
	return m.Receipt.Status
}
