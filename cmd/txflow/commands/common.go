// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package commands txflow 命令行
package commands

import (
	clog "github.com/33cn/txflow/common/log"
	dbm "github.com/33cn/txflow/common/db"
	"github.com/33cn/txflow/executor"
	"github.com/33cn/txflow/types"
	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

var cmdlog = log.New("module", "cmd")

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "txflow.toml", "config file")
}

// node 打开配置的数据库并建立 workflow, the caller closes the db
func node(configPath string) (*types.Config, dbm.DB, *executor.HandleWorkflow, error) {
	cfg, err := types.InitCfg(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	clog.SetFileLog(cfg.Log)
	db, err := dbm.NewDB(cfg.Store.Name, cfg.Store.Driver, cfg.Store.DbPath, int(cfg.Store.DbCache))
	if err != nil {
		return nil, nil, nil, err
	}
	flow, err := executor.New(cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, db, flow, nil
}
