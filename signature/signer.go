// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signature

import (
	"crypto/ed25519"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/33cn/txflow/types"
)

// Signer signs transaction bodies
type Signer interface {
	PublicKey() *types.Key
	Sign(bodyBytes []byte) (*types.SignaturePair, error)
}

// Ed25519Signer ed25519 private key
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer from a 32 byte seed
func NewEd25519Signer(seed []byte) *Ed25519Signer {
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}
}

// PublicKey key
func (s *Ed25519Signer) PublicKey() *types.Key {
	return &types.Key{Ed25519: []byte(s.priv.Public().(ed25519.PublicKey))}
}

// Sign sign
func (s *Ed25519Signer) Sign(bodyBytes []byte) (*types.SignaturePair, error) {
	return &types.SignaturePair{
		PubKeyPrefix: s.PublicKey().Ed25519,
		Ed25519:      ed25519.Sign(s.priv, bodyBytes),
	}, nil
}

// Secp256k1Signer secp256k1 private key, signs keccak256 of the body
type Secp256k1Signer struct {
	priv *btcec.PrivateKey
}

// NewSecp256k1Signer from 32 private key bytes
func NewSecp256k1Signer(privKey []byte) *Secp256k1Signer {
	priv, _ := btcec.PrivKeyFromBytes(privKey)
	return &Secp256k1Signer{priv: priv}
}

// PublicKey compressed key
func (s *Secp256k1Signer) PublicKey() *types.Key {
	return &types.Key{EcdsaSecp256K1: s.priv.PubKey().SerializeCompressed()}
}

// Sign r||s
func (s *Secp256k1Signer) Sign(bodyBytes []byte) (*types.SignaturePair, error) {
	compact := ecdsa.SignCompact(s.priv, Keccak256(bodyBytes), true)
	return &types.SignaturePair{
		PubKeyPrefix:   s.PublicKey().EcdsaSecp256K1,
		EcdsaSecp256K1: compact[1:],
	}, nil
}

// SignTransaction encodes body and signs it with every signer
func SignTransaction(body *types.TransactionBody, signers ...Signer) (*types.Transaction, error) {
	bodyBytes := types.Encode(body)
	sigMap := &types.SignatureMap{}
	for _, signer := range signers {
		pair, err := signer.Sign(bodyBytes)
		if err != nil {
			return nil, err
		}
		sigMap.SigPairs = append(sigMap.SigPairs, pair)
	}
	return &types.Transaction{BodyBytes: bodyBytes, SigMap: sigMap}, nil
}
