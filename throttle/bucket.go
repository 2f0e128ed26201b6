// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package throttle 以共识时间驱动的确定性限流
package throttle

import (
	"time"
)

// nanoOpsPerOp usage is tracked in billionths of an operation
const nanoOpsPerOp int64 = 1e9

// UsageSnapshot point in time state of one throttle
type UsageSnapshot struct {
	Used         int64
	LastDecision int64
}

// DeterministicThrottle leaky bucket that only leaks as consensus time advances
type DeterministicThrottle struct {
	name      string
	opsPerSec int64
	capacity  int64
	used      int64
	// unix nanos of the last decision, 0 before the first one
	lastDecision int64
}

// NewDeterministicThrottle capacity is opsPerSec over the burst period, at least one op
func NewDeterministicThrottle(name string, opsPerSec int64, burstPeriodMs int64) *DeterministicThrottle {
	if burstPeriodMs <= 0 {
		burstPeriodMs = 1000
	}
	capacity := opsPerSec * burstPeriodMs * int64(time.Millisecond)
	if capacity < nanoOpsPerOp {
		capacity = nanoOpsPerOp
	}
	return &DeterministicThrottle{name: name, opsPerSec: opsPerSec, capacity: capacity}
}

// Name name
func (t *DeterministicThrottle) Name() string {
	return t.name
}

func (t *DeterministicThrottle) leakUntil(now time.Time) {
	nanos := now.UnixNano()
	if t.lastDecision == 0 || nanos <= t.lastDecision {
		if t.lastDecision == 0 {
			t.lastDecision = nanos
		}
		return
	}
	elapsed := nanos - t.lastDecision
	t.lastDecision = nanos
	if t.opsPerSec <= 0 {
		t.used = 0
		return
	}
	// a full drain takes capacity/opsPerSec nanos; avoid overflowing the product
	if elapsed >= t.capacity/t.opsPerSec+1 {
		t.used = 0
		return
	}
	t.used -= elapsed * t.opsPerSec
	if t.used < 0 {
		t.used = 0
	}
}

// hasRoomFor leaks up to now and reports whether cost fits
func (t *DeterministicThrottle) hasRoomFor(now time.Time, cost int64) bool {
	t.leakUntil(now)
	return t.opsPerSec > 0 && t.used+cost <= t.capacity
}

func (t *DeterministicThrottle) use(cost int64) {
	t.used += cost
}

// Allow admits cost if it fits and records the usage
func (t *DeterministicThrottle) Allow(now time.Time, cost int64) bool {
	if !t.hasRoomFor(now, cost) {
		return false
	}
	t.use(cost)
	return true
}

// PercentUsed of capacity
func (t *DeterministicThrottle) PercentUsed() float64 {
	return float64(t.used) * 100 / float64(t.capacity)
}

// Snapshot usage snapshot
func (t *DeterministicThrottle) Snapshot() UsageSnapshot {
	return UsageSnapshot{Used: t.used, LastDecision: t.lastDecision}
}

// Restore usage snapshot
func (t *DeterministicThrottle) Restore(s UsageSnapshot) {
	t.used = s.Used
	t.lastDecision = s.LastDecision
}
