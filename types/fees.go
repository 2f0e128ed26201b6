// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"math"
)

// Fees tinybar amounts charged for one dispatch
type Fees struct {
	NodeFee    int64
	NetworkFee int64
	ServiceFee int64
}

// FREE zero fees
var FREE = Fees{}

// TotalFee node + network + service
func (f Fees) TotalFee() int64 {
	return f.NodeFee + f.NetworkFee + f.ServiceFee
}

// NetworkAndServiceFee the part paid to the funding account
func (f Fees) NetworkAndServiceFee() int64 {
	return f.NetworkFee + f.ServiceFee
}

// WithoutServiceComponent fees charged when the service was not rendered
func (f Fees) WithoutServiceComponent() Fees {
	return Fees{NodeFee: f.NodeFee, NetworkFee: f.NetworkFee}
}

// OnlyServiceComponent fees charged for a nested transaction
func (f Fees) OnlyServiceComponent() Fees {
	return Fees{ServiceFee: f.ServiceFee}
}

// IsFree all components zero
func (f Fees) IsFree() bool {
	return f == FREE
}

func (f Fees) String() string {
	return fmt.Sprintf("Fees{node=%d, network=%d, service=%d}", f.NodeFee, f.NetworkFee, f.ServiceFee)
}

// AddAmount a + b; ok is false when the sum does not fit in int64
func AddAmount(a, b int64) (sum int64, ok bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
