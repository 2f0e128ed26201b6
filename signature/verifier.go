// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package signature 交易签名校验
package signature

import (
	"bytes"
	"crypto/ed25519"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	log "github.com/inconshreveable/log15"
	"golang.org/x/crypto/sha3"

	"github.com/33cn/txflow/types"
)

var slog = log.New("module", "signature")

// secp256k1 compressed public key and r||s signature sizes
const (
	Secp256k1PubKeySize = 33
	Secp256k1SigSize    = 64
	EvmAddressSize      = 20
)

// Verification result for one key
type Verification struct {
	Key    *types.Key
	Passed bool
}

// KeyFilter restricts which primitive keys count for a child dispatch
type KeyFilter func(key *types.Key) bool

// AllowAll filter accepting every key
func AllowAll(*types.Key) bool { return true }

// KeyFilterOf accepts only the primitive keys found in keys, at any nesting depth
func KeyFilterOf(keys []*types.Key) KeyFilter {
	allowed := make(map[string]bool)
	var collect func(key *types.Key)
	collect = func(key *types.Key) {
		switch {
		case key == nil:
		case key.IsPrimitive():
			allowed[primitiveID(key)] = true
		case key.KeyList != nil:
			for _, k := range key.KeyList.Keys {
				collect(k)
			}
		case key.ThresholdKey != nil && key.ThresholdKey.Keys != nil:
			for _, k := range key.ThresholdKey.Keys.Keys {
				collect(k)
			}
		}
	}
	for _, key := range keys {
		collect(key)
	}
	return func(key *types.Key) bool {
		return key != nil && key.IsPrimitive() && allowed[primitiveID(key)]
	}
}

// KeyVerifier 签名校验结果的只读视图
type KeyVerifier interface {
	VerificationFor(key *types.Key) Verification
	// VerificationForAlias passes when a verified secp256k1 key derives the evm address alias
	VerificationForAlias(alias []byte) Verification
	NumSignaturesVerified() int
}

// DefaultKeyVerifier verifies every signature pair up front
type DefaultKeyVerifier struct {
	verified map[string]*types.Key
	count    int
}

// NewKeyVerifier verifies each pair of sigMap against bodyBytes; pairs must use the full public key as prefix
func NewKeyVerifier(bodyBytes []byte, sigMap *types.SignatureMap) *DefaultKeyVerifier {
	v := &DefaultKeyVerifier{verified: make(map[string]*types.Key)}
	if sigMap == nil {
		return v
	}
	var digest []byte
	for _, pair := range sigMap.SigPairs {
		switch {
		case len(pair.Ed25519) > 0:
			if len(pair.PubKeyPrefix) != ed25519.PublicKeySize {
				continue
			}
			if ed25519.Verify(ed25519.PublicKey(pair.PubKeyPrefix), bodyBytes, pair.Ed25519) {
				v.add(&types.Key{Ed25519: pair.PubKeyPrefix})
			}
		case len(pair.EcdsaSecp256K1) > 0:
			if len(pair.PubKeyPrefix) != Secp256k1PubKeySize {
				continue
			}
			if digest == nil {
				digest = Keccak256(bodyBytes)
			}
			if verifySecp256k1(pair.PubKeyPrefix, digest, pair.EcdsaSecp256K1) {
				v.add(&types.Key{EcdsaSecp256K1: pair.PubKeyPrefix})
			}
		}
	}
	return v
}

func (v *DefaultKeyVerifier) add(key *types.Key) {
	id := primitiveID(key)
	if _, ok := v.verified[id]; ok {
		return
	}
	v.verified[id] = key
	v.count++
}

func primitiveID(key *types.Key) string {
	if len(key.Ed25519) > 0 {
		return "ed:" + string(key.Ed25519)
	}
	return "ec:" + string(key.EcdsaSecp256K1)
}

func (v *DefaultKeyVerifier) primitivePassed(key *types.Key) bool {
	_, ok := v.verified[primitiveID(key)]
	return ok
}

// VerificationFor composite keys are evaluated recursively
func (v *DefaultKeyVerifier) VerificationFor(key *types.Key) Verification {
	return Verification{Key: key, Passed: evaluate(key, v.primitivePassed)}
}

// VerificationForAlias alias
func (v *DefaultKeyVerifier) VerificationForAlias(alias []byte) Verification {
	for _, key := range v.verified {
		if len(key.EcdsaSecp256K1) == 0 {
			continue
		}
		addr, err := EvmAddress(key.EcdsaSecp256K1)
		if err == nil && bytes.Equal(addr, alias) {
			return Verification{Key: key, Passed: true}
		}
	}
	return Verification{Passed: false}
}

// NumSignaturesVerified number of distinct keys with a valid signature
func (v *DefaultKeyVerifier) NumSignaturesVerified() int {
	return v.count
}

// filteredVerifier 子交易只能使用父交易校验过且通过 filter 的 key
type filteredVerifier struct {
	parent KeyVerifier
	filter KeyFilter
}

// Filtered child view of parent
func Filtered(parent KeyVerifier, filter KeyFilter) KeyVerifier {
	if filter == nil {
		filter = AllowAll
	}
	return &filteredVerifier{parent: parent, filter: filter}
}

func (f *filteredVerifier) VerificationFor(key *types.Key) Verification {
	leaf := func(k *types.Key) bool {
		return f.filter(k) && f.parent.VerificationFor(k).Passed
	}
	return Verification{Key: key, Passed: evaluate(key, leaf)}
}

func (f *filteredVerifier) VerificationForAlias(alias []byte) Verification {
	ver := f.parent.VerificationForAlias(alias)
	if ver.Passed && !f.filter(ver.Key) {
		return Verification{Passed: false}
	}
	return ver
}

func (f *filteredVerifier) NumSignaturesVerified() int {
	return f.parent.NumSignaturesVerified()
}

func evaluate(key *types.Key, leaf func(*types.Key) bool) bool {
	if key == nil {
		return false
	}
	if key.IsPrimitive() {
		return leaf(key)
	}
	if key.KeyList != nil {
		if len(key.KeyList.Keys) == 0 {
			return false
		}
		for _, k := range key.KeyList.Keys {
			if !evaluate(k, leaf) {
				return false
			}
		}
		return true
	}
	if key.ThresholdKey != nil && key.ThresholdKey.Keys != nil {
		keys := key.ThresholdKey.Keys.Keys
		threshold := int(key.ThresholdKey.Threshold)
		if threshold < 1 {
			threshold = 1
		}
		if threshold > len(keys) {
			return false
		}
		passed := 0
		for _, k := range keys {
			if evaluate(k, leaf) {
				passed++
				if passed >= threshold {
					return true
				}
			}
		}
	}
	return false
}

// Keccak256 keccak256 digest
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// EvmAddress last 20 bytes of keccak256 over the uncompressed public key
func EvmAddress(compressed []byte) ([]byte, error) {
	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return nil, err
	}
	return Keccak256(pub.SerializeUncompressed()[1:])[32-EvmAddressSize:], nil
}

func verifySecp256k1(pubKey, digest, sig []byte) bool {
	if len(sig) != Secp256k1SigSize {
		return false
	}
	pub, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		slog.Debug("verifySecp256k1", "parse pubkey", err)
		return false
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(digest, pub)
}
