// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/33cn/txflow/executor"
	"github.com/33cn/txflow/metrics"
	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// maxEventLine 单行事件的最大长度 (hex)
const maxEventLine = 4 << 20

// ReplayCmd handles a file of consensus events in order and prints their records
func ReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "replay consensus events",
		RunE:  replay,
	}
	addConfigFlag(cmd)
	cmd.Flags().StringP("events", "e", "", "file of hex encoded consensus events, one per line")
	cmd.Flags().String("prometheus", "", "listen address of the prometheus endpoint")
	cmd.MarkFlagRequired("events")
	return cmd
}

func replay(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	eventsPath, _ := cmd.Flags().GetString("events")
	promAddr, _ := cmd.Flags().GetString("prometheus")

	cfg, db, flow, err := node(configPath)
	if err != nil {
		return err
	}
	defer db.Close()
	metrics.StartMetrics(cfg.Metrics)
	if promAddr != "" {
		go func() {
			if err := metrics.ServePrometheus(promAddr); err != nil {
				cmdlog.Error("ServePrometheus", "addr", promAddr, "err", err)
			}
		}()
	}
	if _, err := flow.InitGenesis(); err != nil {
		return err
	}
	f, err := os.Open(eventsPath)
	if err != nil {
		return errors.Wrapf(err, "open events %s", eventsPath)
	}
	defer f.Close()
	n, err := replayEvents(flow, f, cmd.OutOrStdout())
	cmdlog.Info("replay", "events", n, "err", err)
	return err
}

// recordPrinter writes each record as one json line
type recordPrinter struct {
	enc *json.Encoder
	err error
}

func (p *recordPrinter) Append(records ...*types.TransactionRecord) {
	for _, r := range records {
		if p.err == nil {
			p.err = p.enc.Encode(r)
		}
	}
}

func replayEvents(flow *executor.HandleWorkflow, in io.Reader, out io.Writer) (int, error) {
	printer := &recordPrinter{enc: json.NewEncoder(out)}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	n := 0
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ev, err := decodeEvent(text)
		if err != nil {
			return n, errors.Wrapf(err, "line %d", line)
		}
		creator := &types.NodeInfo{NodeID: ev.CreatorNodeID}
		if err := flow.HandleProcess(ev.ConsensusTime(), creator, ev.Transaction, printer); err != nil {
			return n, err
		}
		if printer.err != nil {
			return n, printer.err
		}
		n++
	}
	return n, scanner.Err()
}

func decodeEvent(text string) (*types.ConsensusEvent, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil {
		return nil, err
	}
	var ev types.ConsensusEvent
	if err := types.Decode(data, &ev); err != nil {
		return nil, err
	}
	if ev.Transaction == nil {
		return nil, fmt.Errorf("event without transaction")
	}
	return &ev, nil
}
