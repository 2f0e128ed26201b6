// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import (
	"encoding/binary"
	"fmt"

	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
)

// ReadableAccountStore read only account view handed to handlers and due diligence
type ReadableAccountStore interface {
	GetAccount(id *types.AccountID) (*types.Account, error)
	GetAccountByAlias(alias []byte) (*types.Account, error)
	Exists(id *types.AccountID) bool
}

// AccountStore accounts keyed by number plus an alias index
type AccountStore struct {
	kv KV
}

// NewAccountStore new account store
func NewAccountStore(kv KV) *AccountStore {
	return &AccountStore{kv: kv}
}

// AccountKey acct-shard.realm.num
func AccountKey(id *types.AccountID) []byte {
	return []byte(fmt.Sprintf("%s%d.%d.%d", types.AccountPrefix, id.Shard, id.Realm, id.Num))
}

func aliasKey(alias []byte) []byte {
	return append(append([]byte{}, types.AliasPrefix...), alias...)
}

// GetAccount resolves aliases; types.ErrNotFound when missing
func (s *AccountStore) GetAccount(id *types.AccountID) (*types.Account, error) {
	if id == nil {
		return nil, types.ErrNotFound
	}
	if id.HasAlias() {
		return s.GetAccountByAlias(id.Alias)
	}
	value, err := s.kv.Get(AccountKey(id))
	if err != nil {
		return nil, err
	}
	var acc types.Account
	if err := types.Decode(value, &acc); err != nil {
		return nil, errors.Wrapf(err, "decode account %s", id.Key())
	}
	return &acc, nil
}

// GetAccountByAlias lookup through the alias index
func (s *AccountStore) GetAccountByAlias(alias []byte) (*types.Account, error) {
	value, err := s.kv.Get(aliasKey(alias))
	if err != nil {
		return nil, err
	}
	if len(value) != 8 {
		return nil, errors.Wrap(types.ErrNotFound, "corrupted alias index")
	}
	return s.GetAccount(types.NewAccountID(int64(binary.BigEndian.Uint64(value))))
}

// Exists exists
func (s *AccountStore) Exists(id *types.AccountID) bool {
	_, err := s.GetAccount(id)
	return err == nil
}

// Put stores the account and indexes its alias
func (s *AccountStore) Put(acc *types.Account) error {
	if acc.ID == nil || acc.ID.HasAlias() {
		return errors.Wrap(types.ErrNotFound, "account must have a numeric id")
	}
	if err := s.kv.Set(AccountKey(acc.ID), types.Encode(acc)); err != nil {
		return err
	}
	if len(acc.Alias) > 0 {
		num := make([]byte, 8)
		binary.BigEndian.PutUint64(num, uint64(acc.ID.Num))
		return s.kv.Set(aliasKey(acc.Alias), num)
	}
	return nil
}

// AdjustBalance adds delta; the result must stay non negative and must not overflow
func (s *AccountStore) AdjustBalance(id *types.AccountID, delta int64) (*types.Account, error) {
	acc, err := s.GetAccount(id)
	if err != nil {
		return nil, err
	}
	balance, ok := types.AddAmount(acc.Balance, delta)
	if !ok {
		return nil, types.NewHandleError(types.INVALID_ACCOUNT_AMOUNTS)
	}
	if balance < 0 {
		return nil, types.NewHandleError(types.INSUFFICIENT_ACCOUNT_BALANCE)
	}
	acc.Balance = balance
	return acc, s.Put(acc)
}

// NextEntityNum allocates the next entity number, starting at first
func (s *AccountStore) NextEntityNum(first int64) (int64, error) {
	next := first
	value, err := s.kv.Get(types.EntityNumberKey)
	if err == nil && len(value) == 8 {
		next = int64(binary.BigEndian.Uint64(value))
	} else if err != nil && err != types.ErrNotFound {
		return 0, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(next+1))
	if err := s.kv.Set(types.EntityNumberKey, buf); err != nil {
		return 0, err
	}
	return next, nil
}

// NextFreeAccountID next entity number not taken by an existing account, genesis accounts included
func (s *AccountStore) NextFreeAccountID(first int64) (*types.AccountID, error) {
	for {
		num, err := s.NextEntityNum(first)
		if err != nil {
			return nil, err
		}
		id := types.NewAccountID(num)
		if !s.Exists(id) {
			return id, nil
		}
	}
}

// ContractStore contract storage slots
type ContractStore struct {
	kv KV
}

// NewContractStore new contract store
func NewContractStore(kv KV) *ContractStore {
	return &ContractStore{kv: kv}
}

func slotKey(contract *types.AccountID, slot []byte) []byte {
	return []byte(fmt.Sprintf("contract-%d.%d.%d-%x", contract.Shard, contract.Realm, contract.Num, slot))
}

// GetSlot nil when unset
func (s *ContractStore) GetSlot(contract *types.AccountID, slot []byte) ([]byte, error) {
	v, err := s.kv.Get(slotKey(contract, slot))
	if err == types.ErrNotFound {
		return nil, nil
	}
	return v, err
}

// PutSlot set slot
func (s *ContractStore) PutSlot(contract *types.AccountID, slot []byte, value []byte) error {
	return s.kv.Set(slotKey(contract, slot), value)
}

// StoreFactory typed stores over whatever state view source currently returns
type StoreFactory struct {
	source func() KV
}

// NewStoreFactory new store factory
func NewStoreFactory(source func() KV) *StoreFactory {
	return &StoreFactory{source: source}
}

// ReadableAccounts read only accounts
func (f *StoreFactory) ReadableAccounts() ReadableAccountStore {
	return NewAccountStore(f.source())
}

// WritableAccounts writable accounts
func (f *StoreFactory) WritableAccounts() *AccountStore {
	return NewAccountStore(f.source())
}

// WritableContracts writable contract storage
func (f *StoreFactory) WritableContracts() *ContractStore {
	return NewContractStore(f.source())
}
