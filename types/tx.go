// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"crypto/sha512"
	"time"
)

// TransactionInfo parsed transaction with its functionality
type TransactionInfo struct {
	Tx            *Transaction
	Body          *TransactionBody
	SigMap        *SignatureMap
	Functionality Functionality
	// serialized signed transaction, nil for generated children
	Serialized []byte
}

// PayerID payer of the transaction
func (info *TransactionInfo) PayerID() *AccountID {
	if info == nil {
		return nil
	}
	return info.Body.PayerID()
}

// TxID transaction id
func (info *TransactionInfo) TxID() *TransactionID {
	if info == nil {
		return nil
	}
	return info.Body.GetID()
}

// Hash sha384 of the serialized transaction
func (info *TransactionInfo) Hash() []byte {
	if info == nil || len(info.Serialized) == 0 {
		return nil
	}
	h := sha512.Sum384(info.Serialized)
	return h[:]
}

// ParseTransaction decodes a signed transaction and its body
func ParseTransaction(payload []byte) (*TransactionInfo, error) {
	if len(payload) == 0 {
		return nil, NewPreCheckError(INVALID_TRANSACTION)
	}
	var tx Transaction
	if err := Decode(payload, &tx); err != nil {
		return nil, NewPreCheckError(INVALID_TRANSACTION)
	}
	return ParseSigned(&tx, payload)
}

// ParseSigned decodes the body of an already decoded transaction
func ParseSigned(tx *Transaction, serialized []byte) (*TransactionInfo, error) {
	if len(tx.BodyBytes) == 0 {
		return nil, NewPreCheckError(INVALID_TRANSACTION_BODY)
	}
	var body TransactionBody
	if err := Decode(tx.BodyBytes, &body); err != nil {
		return nil, NewPreCheckError(INVALID_TRANSACTION_BODY)
	}
	if body.ID == nil || body.ID.Payer == nil || body.ID.ValidStart == nil {
		return nil, NewPreCheckError(INVALID_TRANSACTION_BODY)
	}
	info := &TransactionInfo{Tx: tx, Body: &body, SigMap: tx.SigMap, Serialized: serialized}
	fn, err := FunctionOf(&body)
	if err != nil {
		// info is still returned, callers record the failure against the payer
		return info, err
	}
	info.Functionality = fn
	return info, nil
}

// NewBodyInfo info for a generated child body; children carry no signatures
func NewBodyInfo(body *TransactionBody) (*TransactionInfo, error) {
	fn, err := FunctionOf(body)
	if err != nil {
		return nil, err
	}
	return &TransactionInfo{
		Tx:            &Transaction{BodyBytes: Encode(body)},
		Body:          body,
		SigMap:        &SignatureMap{},
		Functionality: fn,
	}, nil
}

// CheckTimeBox 检查交易的有效期: valid start <= now < valid start + duration
func CheckTimeBox(body *TransactionBody, now time.Time, minDuration, maxDuration int64) ResponseCode {
	duration := body.ValidDurationSeconds
	if duration < minDuration || duration > maxDuration {
		return INVALID_TRANSACTION_DURATION
	}
	start := body.GetID().ValidStart.AsTime()
	if now.Before(start) {
		return INVALID_TRANSACTION_START
	}
	if !now.Before(start.Add(time.Duration(duration) * time.Second)) {
		return TRANSACTION_EXPIRED
	}
	return OK
}
