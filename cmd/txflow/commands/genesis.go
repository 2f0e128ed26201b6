// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// GenesisCmd seeds the genesis accounts of the config into its store
func GenesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "seed genesis accounts",
		RunE:  genesis,
	}
	addConfigFlag(cmd)
	return cmd
}

func genesis(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	_, db, flow, err := node(configPath)
	if err != nil {
		return err
	}
	defer db.Close()
	created, err := flow.InitGenesis()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "created", created, "accounts")
	return nil
}
