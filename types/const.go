// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

// Functionality 交易的业务类型，由交易体中设置的唯一 payload 决定
type Functionality int32

// functionality list
const (
	FuncNone Functionality = iota
	FuncCryptoCreate
	FuncCryptoTransfer
	FuncContractCall
	FuncContractCreate
	FuncAtomicBatch
)

var functionalityName = map[Functionality]string{
	FuncNone:           "NONE",
	FuncCryptoCreate:   "CryptoCreate",
	FuncCryptoTransfer: "CryptoTransfer",
	FuncContractCall:   "ContractCall",
	FuncContractCreate: "ContractCreate",
	FuncAtomicBatch:    "AtomicBatch",
}

func (f Functionality) String() string {
	if name, ok := functionalityName[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// FunctionalityByName is used by the throttle and fee schedule configuration
func FunctionalityByName(name string) (Functionality, bool) {
	for f, n := range functionalityName {
		if n == name && f != FuncNone {
			return f, true
		}
	}
	return FuncNone, false
}

// IsContract contract operations are metered by gas and skip the child admission scan
func (f Functionality) IsContract() bool {
	return f == FuncContractCall || f == FuncContractCreate
}

// TransactionCategory 一次 dispatch 的类别
type TransactionCategory int32

// category list
const (
	CategoryUser TransactionCategory = iota
	CategoryPreceding
	CategoryChild
	CategoryScheduled
)

func (c TransactionCategory) String() string {
	switch c {
	case CategoryUser:
		return "USER"
	case CategoryPreceding:
		return "PRECEDING"
	case CategoryChild:
		return "CHILD"
	case CategoryScheduled:
		return "SCHEDULED"
	}
	return "UNKNOWN"
}

// ReversingBehavior decides what happens to a record when a savepoint holding it rolls back
type ReversingBehavior int32

// reversing behaviors
const (
	// Irreversible records survive every rollback
	Irreversible ReversingBehavior = iota
	// Reversible records are dropped when their owning savepoint rolls back,
	// and kept (status reverted) when only an ancestor rolls back
	Reversible
	// Removable records are dropped when any savepoint holding them rolls back
	Removable
)

func (r ReversingBehavior) String() string {
	switch r {
	case Irreversible:
		return "IRREVERSIBLE"
	case Reversible:
		return "REVERSIBLE"
	case Removable:
		return "REMOVABLE"
	}
	return "UNKNOWN"
}

// DuplicateCheckResult record cache 去重检查结果
type DuplicateCheckResult int32

// duplicate check results
const (
	NoDuplicate DuplicateCheckResult = iota
	SameNode
	OtherNode
)

func (d DuplicateCheckResult) String() string {
	switch d {
	case NoDuplicate:
		return "NO_DUPLICATE"
	case SameNode:
		return "SAME_NODE"
	case OtherNode:
		return "OTHER_NODE"
	}
	return "UNKNOWN"
}

// well known entities
const (
	DefaultShard int64 = 0
	DefaultRealm int64 = 0

	// TinybarsPerHbar 1 hbar = 1e8 tinybar
	TinybarsPerHbar int64 = 1e8
)

// state key prefixes
var (
	AccountPrefix   = []byte("acct-")
	AliasPrefix     = []byte("alias-")
	EntityNumberKey = []byte("entity-num")
)
