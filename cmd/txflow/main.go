// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/33cn/txflow/cmd/txflow/commands"
	"github.com/spf13/cobra"

	_ "github.com/33cn/txflow/system"
)

func initCommand(cmd *cobra.Command) {
	cmd.AddCommand(
		commands.GenesisCmd(),
		commands.ReplayCmd(),
		commands.VersionCmd(),
	)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "txflow",
		Short: "consensus ordered transaction executor",
	}
	initCommand(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
