// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"github.com/33cn/txflow/types"
)

// Authorizer 系统账户的特权
type Authorizer struct {
	cfg *types.Exec
}

// NewAuthorizer new authorizer
func NewAuthorizer(cfg *types.Exec) *Authorizer {
	return &Authorizer{cfg: cfg}
}

// IsSuperUser treasury or a configured super user
func (a *Authorizer) IsSuperUser(id *types.AccountID) bool {
	if id == nil || id.HasAlias() {
		return false
	}
	return a.cfg.IsSuperUser(id.Num)
}

// HasWaivedFees super users pay nothing
func (a *Authorizer) HasWaivedFees(payer *types.AccountID, fn types.Functionality, body *types.TransactionBody) bool {
	return a.IsSuperUser(payer)
}
