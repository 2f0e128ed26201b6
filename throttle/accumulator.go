// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package throttle

import (
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/kevinms/leakybucket-go"
	"github.com/pkg/errors"

	"github.com/33cn/txflow/types"
)

var tlog = log.New("module", "throttle")

// warnings per functionality, only to keep the log readable
const (
	warnRate  = 1.0
	warnBurst = 5
)

type requirement struct {
	throttle *DeterministicThrottle
	cost     int64
}

// Accumulator 一个 functionality 可能属于多个 bucket, 必须全部放行才计入用量
type Accumulator struct {
	throttles    []*DeterministicThrottle
	requirements map[types.Functionality][]requirement
	warnLimiter  *leakybucket.Collector
}

// NewAccumulator from the throttle definitions; functionalities in no bucket are never throttled
func NewAccumulator(cfg *types.Throttle) (*Accumulator, error) {
	a := &Accumulator{
		requirements: make(map[types.Functionality][]requirement),
		warnLimiter:  leakybucket.NewCollector(warnRate, warnBurst, true),
	}
	if cfg == nil {
		return a, nil
	}
	for _, bucket := range cfg.Buckets {
		var maxOps int64
		for _, g := range bucket.Groups {
			if g.OpsPerSec > maxOps {
				maxOps = g.OpsPerSec
			}
		}
		if maxOps <= 0 {
			return nil, errors.Errorf("throttle bucket %s has no capacity", bucket.Name)
		}
		t := NewDeterministicThrottle(bucket.Name, maxOps, bucket.BurstPeriodMs)
		a.throttles = append(a.throttles, t)
		for _, g := range bucket.Groups {
			if g.OpsPerSec <= 0 {
				return nil, errors.Errorf("throttle bucket %s has a group without capacity", bucket.Name)
			}
			// an op of a slower group uses proportionally more of the bucket
			cost := (nanoOpsPerOp*maxOps + g.OpsPerSec - 1) / g.OpsPerSec
			for _, op := range g.Operations {
				fn, ok := types.FunctionalityByName(op)
				if !ok {
					return nil, errors.Wrapf(types.ErrUnknownFunctionality, "throttle bucket %s operation %s", bucket.Name, op)
				}
				a.requirements[fn] = append(a.requirements[fn], requirement{throttle: t, cost: cost})
			}
		}
	}
	return a, nil
}

// ShouldThrottle true when any bucket of fn is full; usage is recorded only when admitted
func (a *Accumulator) ShouldThrottle(fn types.Functionality, now time.Time) bool {
	reqs := a.requirements[fn]
	for _, req := range reqs {
		if !req.throttle.hasRoomFor(now, req.cost) {
			a.warn(fn, req.throttle)
			return true
		}
	}
	for _, req := range reqs {
		req.throttle.use(req.cost)
	}
	return false
}

func (a *Accumulator) warn(fn types.Functionality, t *DeterministicThrottle) {
	key := fn.String()
	if a.warnLimiter.Remaining(key) <= 0 {
		return
	}
	a.warnLimiter.Add(key, 1)
	tlog.Warn("throttled", "functionality", key, "bucket", t.Name(), "used%", t.PercentUsed())
}

// Snapshots one per throttle, in definition order
func (a *Accumulator) Snapshots() []UsageSnapshot {
	snapshots := make([]UsageSnapshot, len(a.throttles))
	for i, t := range a.throttles {
		snapshots[i] = t.Snapshot()
	}
	return snapshots
}

// ResetUsageTo restores snapshots taken by Snapshots
func (a *Accumulator) ResetUsageTo(snapshots []UsageSnapshot) {
	for i, t := range a.throttles {
		if i < len(snapshots) {
			t.Restore(snapshots[i])
		}
	}
}
