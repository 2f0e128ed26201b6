// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package throttle

import (
	"time"

	"github.com/33cn/txflow/types"
)

// NetworkUtilizationManager consensus side throttling
type NetworkUtilizationManager struct {
	accumulator *Accumulator
}

// NewNetworkUtilizationManager new
func NewNetworkUtilizationManager(accumulator *Accumulator) *NetworkUtilizationManager {
	return &NetworkUtilizationManager{accumulator: accumulator}
}

// TrackTxn records the usage of a handled user transaction; returns true if it was over capacity
func (m *NetworkUtilizationManager) TrackTxn(info *types.TransactionInfo, now time.Time) bool {
	return m.accumulator.ShouldThrottle(info.Functionality, now)
}

// HasCapacityFor admits every child or none of them. Contract children are metered by
// gas and skipped. When any child is rejected all throttles go back to the usage seen
// before the first check.
func (m *NetworkUtilizationManager) HasCapacityFor(children []*types.TransactionInfo, now time.Time) bool {
	var snapshots []UsageSnapshot
	for _, child := range children {
		if child.Functionality.IsContract() {
			continue
		}
		if snapshots == nil {
			snapshots = m.accumulator.Snapshots()
		}
		if m.accumulator.ShouldThrottle(child.Functionality, now) {
			m.accumulator.ResetUsageTo(snapshots)
			return false
		}
	}
	return true
}

// Snapshots current throttle usage
func (m *NetworkUtilizationManager) Snapshots() []UsageSnapshot {
	return m.accumulator.Snapshots()
}

// ResetUsageTo restore throttle usage
func (m *NetworkUtilizationManager) ResetUsageTo(snapshots []UsageSnapshot) {
	m.accumulator.ResetUsageTo(snapshots)
}
