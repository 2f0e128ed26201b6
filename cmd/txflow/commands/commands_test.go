// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/33cn/txflow/common/version"
	"github.com/33cn/txflow/types"
	"github.com/33cn/txflow/util/testnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/33cn/txflow/system"
)

func writeConfig(t *testing.T, dir string) string {
	seed := func(b byte) string { return hex.EncodeToString(testnode.Seed(b)) }
	cfg := fmt.Sprintf(`
title = "replay"

[log]
loglevel = "error"
logConsoleLevel = "error"
logFile = "%s"

[store]
driver = "goleveldb"
dbPath = "%s"

[exec]
fundingAccount = %d
treasury = %d

[[exec.nodes]]
nodeID = %d
account = %d

[[genesis.accounts]]
num = %d
balance = 1000000000000000
ed25519Seed = "%s"

[[genesis.accounts]]
num = %d

[[genesis.accounts]]
num = %d

[[genesis.accounts]]
num = %d
balance = %d
ed25519Seed = "%s"

[[genesis.accounts]]
num = %d
balance = %d
ed25519Seed = "%s"
`, filepath.Join(dir, "logs", "txflow.log"), filepath.Join(dir, "datadir"),
		testnode.Funding, testnode.Treasury, testnode.NodeID, testnode.NodeAccount,
		testnode.Treasury, seed(9), testnode.NodeAccount, testnode.Funding,
		testnode.Payer, testnode.PayerFunds, seed(1), testnode.Other, testnode.PayerFunds, seed(2))
	path := filepath.Join(dir, "txflow.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func execute(t *testing.T, args ...string) string {
	root := GenesisCmd()
	switch args[0] {
	case "replay":
		root = ReplayCmd()
	case "version":
		root = VersionCmd()
	}
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args[1:])
	require.NoError(t, root.Execute())
	return out.String()
}

func TestGenesis(t *testing.T) {
	config := writeConfig(t, t.TempDir())
	assert.Equal(t, "created 5 accounts\n", execute(t, "genesis", "--config", config))
	// seeding twice leaves the stored accounts alone
	assert.Equal(t, "created 0 accounts\n", execute(t, "genesis", "--config", config))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, version.GetVersion()+"\n", execute(t, "version"))
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	config := writeConfig(t, dir)
	mock := testnode.New(t)

	var lines []string
	for i, amount := range []int64{100, testnode.PayerFunds * 2} {
		body := mock.Body(testnode.Payer)
		body.CryptoTransfer = &types.CryptoTransferBody{Transfers: &types.TransferList{AccountAmounts: []*types.AccountAmount{
			{Account: types.NewAccountID(testnode.Payer), Amount: -amount},
			{Account: types.NewAccountID(testnode.Other), Amount: amount},
		}}}
		now := mock.Now().Add(time.Duration(i) * time.Millisecond)
		ev := &types.ConsensusEvent{
			CreatorNodeID:    testnode.NodeID,
			ConsensusSeconds: now.Unix(),
			ConsensusNanos:   int32(now.Nanosecond()),
			Transaction:      mock.Submit(body),
		}
		lines = append(lines, hex.EncodeToString(types.Encode(ev)))
	}
	events := filepath.Join(dir, "events.txt")
	content := "# transfers\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(events, []byte(content), 0644))

	out := execute(t, "replay", "--config", config, "--events", events)
	var records []*types.TransactionRecord
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var r types.TransactionRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, &r)
	}
	require.Len(t, records, 2)
	assert.Equal(t, types.SUCCESS, records[0].Status())
	assert.Equal(t, types.INSUFFICIENT_PAYER_BALANCE, records[1].Status())
}

func TestReplayBadEvent(t *testing.T) {
	mock := testnode.New(t)
	n, err := replayEvents(mock.GetFlow(), strings.NewReader("zz\n"), &bytes.Buffer{})
	assert.Equal(t, 0, n)
	assert.Error(t, err)

	ev := hex.EncodeToString(types.Encode(&types.ConsensusEvent{CreatorNodeID: testnode.NodeID}))
	_, err = replayEvents(mock.GetFlow(), strings.NewReader(ev), &bytes.Buffer{})
	assert.Error(t, err)
}
