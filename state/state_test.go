// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state

import (
	"math"
	"testing"

	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBaseForTest(t *testing.T) (*Base, dbm.DB) {
	db, err := dbm.NewDB("test", dbm.MemDBBackendStr, "", 0)
	require.NoError(t, err)
	return NewBase(db), db
}

func TestOverlayGetSet(t *testing.T) {
	base, db := newBaseForTest(t)
	require.NoError(t, db.Set([]byte("k0"), []byte("v0")))
	o := NewOverlay(base)

	v, err := o.Get([]byte("k0"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v0"), v)

	assert.Nil(t, o.Set([]byte("k1"), []byte("v1")))
	v, err = o.Get([]byte("k1"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), v)

	// delete shadows the parent value
	assert.Nil(t, o.Set([]byte("k0"), nil))
	_, err = o.Get([]byte("k0"))
	assert.Equal(t, types.ErrNotFound, err)
	assert.Equal(t, []string{"k0", "k1"}, o.Keys())
}

func TestOverlayMergeAndFlush(t *testing.T) {
	base, db := newBaseForTest(t)
	require.NoError(t, db.Set([]byte("k0"), []byte("v0")))
	root := NewOverlay(base)
	child := NewOverlay(root)

	assert.Nil(t, child.Set([]byte("k1"), []byte("v1")))
	assert.Nil(t, child.Set([]byte("k0"), nil))
	_, err := root.Get([]byte("k1"))
	assert.Equal(t, types.ErrNotFound, err)

	require.NoError(t, child.MergeInto(root))
	assert.Equal(t, 0, child.Len())
	v, err := root.Get([]byte("k1"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), v)

	// db is untouched until flush
	v, err = db.Get([]byte("k0"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v0"), v)

	require.NoError(t, base.Flush(root))
	assert.Equal(t, 0, root.Len())
	_, err = db.Get([]byte("k0"))
	assert.Equal(t, types.ErrNotFound, err)
	v, err = db.Get([]byte("k1"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), v)
}

func TestBaseSetNotAllowed(t *testing.T) {
	base, _ := newBaseForTest(t)
	assert.Equal(t, types.ErrNotAllowedOnBase, base.Set([]byte("k"), []byte("v")))
}

func TestAccountStore(t *testing.T) {
	base, _ := newBaseForTest(t)
	store := NewAccountStore(NewOverlay(base))

	id := types.NewAccountID(1001)
	acc := &types.Account{ID: id, Balance: 100, Alias: []byte("alias-1")}
	require.NoError(t, store.Put(acc))

	got, err := store.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Balance)
	assert.True(t, got.IsHollow())

	got, err = store.GetAccount(&types.AccountID{Alias: []byte("alias-1")})
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.ID.Num)

	_, err = store.GetAccount(types.NewAccountID(7))
	assert.Equal(t, types.ErrNotFound, err)
	assert.False(t, store.Exists(types.NewAccountID(7)))

	got, err = store.AdjustBalance(id, -40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Balance)

	_, err = store.AdjustBalance(id, -61)
	status, ok := types.StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, types.INSUFFICIENT_ACCOUNT_BALANCE, status)

	_, err = store.AdjustBalance(id, math.MaxInt64)
	status, ok = types.StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, types.INVALID_ACCOUNT_AMOUNTS, status)
	got, err = store.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Balance)
}

func TestNextEntityNum(t *testing.T) {
	base, _ := newBaseForTest(t)
	store := NewAccountStore(NewOverlay(base))
	n, err := store.NextEntityNum(1001)
	assert.Nil(t, err)
	assert.Equal(t, int64(1001), n)
	n, err = store.NextEntityNum(1001)
	assert.Nil(t, err)
	assert.Equal(t, int64(1002), n)
}

func TestNextFreeAccountID(t *testing.T) {
	base, _ := newBaseForTest(t)
	store := NewAccountStore(NewOverlay(base))
	assert.Nil(t, store.Put(&types.Account{ID: types.NewAccountID(1001)}))
	assert.Nil(t, store.Put(&types.Account{ID: types.NewAccountID(1002)}))
	id, err := store.NextFreeAccountID(1001)
	assert.Nil(t, err)
	assert.Equal(t, int64(1003), id.Num)
	id, err = store.NextFreeAccountID(1001)
	assert.Nil(t, err)
	assert.Equal(t, int64(1004), id.Num)
}

func TestContractStore(t *testing.T) {
	base, _ := newBaseForTest(t)
	o := NewOverlay(base)
	factory := NewStoreFactory(func() KV { return o })
	contracts := factory.WritableContracts()
	c := types.NewAccountID(1005)

	v, err := contracts.GetSlot(c, []byte{1})
	assert.Nil(t, err)
	assert.Nil(t, v)
	require.NoError(t, contracts.PutSlot(c, []byte{1}, []byte("x")))
	v, err = contracts.GetSlot(c, []byte{1})
	assert.Nil(t, err)
	assert.Equal(t, []byte("x"), v)
}
