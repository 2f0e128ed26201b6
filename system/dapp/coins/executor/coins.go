// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

/*
coins 是内置货币的执行器。

主要提供两种操作：
CryptoCreate   -> 创建账户, 从 payer 转入初始余额
CryptoTransfer -> 转移资产, 只有 alias 的收款方会先以 preceding 交易自动创建
*/

import (
	log "github.com/inconshreveable/log15"

	drivers "github.com/33cn/txflow/system/dapp"
	"github.com/33cn/txflow/signature"
	"github.com/33cn/txflow/types"
)

var clog = log.New("module", "execs.coins")

// AutoCreateMemo memo of the preceding record of an auto created account
const AutoCreateMemo = "auto-created account"

func init() {
	drivers.Register(types.FuncCryptoCreate, newCryptoCreate)
	drivers.Register(types.FuncCryptoTransfer, newCryptoTransfer)
}

// validAlias evm address alias
func validAlias(alias []byte) bool {
	return len(alias) == signature.EvmAddressSize
}

// checkAccountID 只接受 shard.realm.num 或者 evm address alias 两种形式
func checkAccountID(id *types.AccountID) error {
	if id == nil {
		return types.NewPreCheckError(types.INVALID_ACCOUNT_ID)
	}
	if id.HasAlias() {
		if !validAlias(id.Alias) {
			return types.NewPreCheckError(types.INVALID_ALIAS_KEY)
		}
		return nil
	}
	if id.Num <= 0 || id.Shard != types.DefaultShard || id.Realm != types.DefaultRealm {
		return types.NewPreCheckError(types.INVALID_ACCOUNT_ID)
	}
	return nil
}

// calculateFees schedule price of body size and signatures
func calculateFees(ctx drivers.FeeContext) types.Fees {
	return ctx.FeeCalculator().Calculate()
}
