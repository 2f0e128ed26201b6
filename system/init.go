// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package system 注册系统内置的交易处理器
package system

import (
	_ "github.com/33cn/txflow/system/dapp/batch/executor"    //auto gen
	_ "github.com/33cn/txflow/system/dapp/coins/executor"    //auto gen
	_ "github.com/33cn/txflow/system/dapp/contract/executor" //auto gen
)
