// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package version 软件版本
package version

// GitCommit set by the build, e.g. -ldflags "-X github.com/33cn/txflow/common/version.GitCommit=abc"
var GitCommit string

const version = "0.1.0"

// GetVersion 获取版本信息
func GetVersion() string {
	if GitCommit != "" {
		return version + "-" + GitCommit
	}
	return version
}
