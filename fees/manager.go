// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fees 手续费计算, 汇率换算, 以及扣费
package fees

import (
	log "github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/33cn/txflow/types"
)

var flog = log.New("module", "fees")

// ExchangeRate HbarEquiv hbar are worth CentEquiv cents
type ExchangeRate struct {
	HbarEquiv int32
	CentEquiv int32
}

// ToTinybars converts tinycents, rounding down
func (r ExchangeRate) ToTinybars(tinycents int64) int64 {
	if r.CentEquiv == 0 {
		return 0
	}
	amount := decimal.New(tinycents, 0).
		Mul(decimal.New(int64(r.HbarEquiv), 0)).
		Div(decimal.New(int64(r.CentEquiv), 0))
	return amount.Floor().IntPart()
}

// Manager 手续费表
type Manager struct {
	schedules map[types.Functionality]*types.FeeSchedule
	rate      ExchangeRate
}

// NewManager fee schedule operations must name known functionalities
func NewManager(cfg *types.FeeConfig) (*Manager, error) {
	m := &Manager{
		schedules: make(map[types.Functionality]*types.FeeSchedule),
		rate:      ExchangeRate{HbarEquiv: cfg.HbarEquiv, CentEquiv: cfg.CentEquiv},
	}
	for _, s := range cfg.Schedule {
		fn, ok := types.FunctionalityByName(s.Operation)
		if !ok {
			return nil, errors.Wrapf(types.ErrUnknownFunctionality, "fee schedule operation %s", s.Operation)
		}
		m.schedules[fn] = s
	}
	flog.Debug("NewManager", "schedules", len(m.schedules), "rate", m.rate)
	return m, nil
}

// Rate current exchange rate
func (m *Manager) Rate() ExchangeRate {
	return m.rate
}

// CreateCalculator calculator for one transaction; unpriced functionalities are free
func (m *Manager) CreateCalculator(fn types.Functionality, bodySize int, numSigs int) *Calculator {
	schedule, ok := m.schedules[fn]
	if !ok {
		schedule = &types.FeeSchedule{}
	}
	return &Calculator{schedule: schedule, rate: m.rate, bytes: int64(bodySize), sigs: int64(numSigs)}
}

// Calculator accumulates usage then prices it
type Calculator struct {
	schedule     *types.FeeSchedule
	rate         ExchangeRate
	bytes        int64
	sigs         int64
	serviceUnits int64
}

// AddBytes extra bytes charged at the network per byte price
func (c *Calculator) AddBytes(n int64) *Calculator {
	c.bytes += n
	return c
}

// AddVerifications extra signature verifications
func (c *Calculator) AddVerifications(n int64) *Calculator {
	c.sigs += n
	return c
}

// AddServiceTinycents extra service charge, e.g. contract gas
func (c *Calculator) AddServiceTinycents(n int64) *Calculator {
	c.serviceUnits += n
	return c
}

// Calculate price in tinybars
func (c *Calculator) Calculate() types.Fees {
	network := c.schedule.NetworkFee + c.schedule.NetworkFeePerByte*c.bytes
	if c.sigs > 1 {
		// each extra verification costs one per byte unit of a signature pair
		network += c.schedule.NetworkFeePerByte * 64 * (c.sigs - 1)
	}
	return types.Fees{
		NodeFee:    c.rate.ToTinybars(c.schedule.NodeFee),
		NetworkFee: c.rate.ToTinybars(network),
		ServiceFee: c.rate.ToTinybars(c.schedule.ServiceFee + c.serviceUnits),
	}
}
