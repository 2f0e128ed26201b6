// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"encoding/hex"

	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
)

func genesisKey(acc *types.GenesisAccount) (*types.Key, error) {
	switch {
	case acc.Ed25519 != "":
		pub, err := hex.DecodeString(acc.Ed25519)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis account %d ed25519", acc.Num)
		}
		return &types.Key{Ed25519: pub}, nil
	case acc.Secp256k1 != "":
		pub, err := hex.DecodeString(acc.Secp256k1)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis account %d secp256k1", acc.Num)
		}
		return &types.Key{EcdsaSecp256K1: pub}, nil
	case acc.Ed25519Seed != "":
		seed, err := hex.DecodeString(acc.Ed25519Seed)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis account %d seed", acc.Num)
		}
		return signature.NewEd25519Signer(seed).PublicKey(), nil
	}
	return nil, nil
}

// InitGenesis seeds the configured accounts; accounts already stored are left untouched
func (h *HandleWorkflow) InitGenesis() (int, error) {
	overlay := state.NewOverlay(h.base)
	accounts := state.NewAccountStore(overlay)
	created := 0
	for _, g := range h.cfg.Genesis.Accounts {
		id := types.NewAccountID(g.Num)
		if accounts.Exists(id) {
			elog.Info("InitGenesis skip existing", "account", id.Key())
			continue
		}
		key, err := genesisKey(g)
		if err != nil {
			return 0, err
		}
		if err := accounts.Put(&types.Account{ID: id, Key: key, Balance: g.Balance}); err != nil {
			return 0, err
		}
		created++
	}
	if err := h.base.Flush(overlay); err != nil {
		return 0, err
	}
	elog.Info("InitGenesis", "created", created)
	return created, nil
}
