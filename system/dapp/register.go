// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dapp

import (
	log "github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/33cn/txflow/types"
)

var elog = log.New("module", "execs")

// HandlerCreate creates the handler of a functionality
type HandlerCreate func() Handler

var registedHandlers = make(map[types.Functionality]HandlerCreate)

// Register register handler of fn, called from init of the handler packages
func Register(fn types.Functionality, create HandlerCreate) {
	if create == nil {
		panic("Execute: Register handler is nil")
	}
	if _, dup := registedHandlers[fn]; dup {
		panic("Execute: Register called twice for handler " + fn.String())
	}
	registedHandlers[fn] = create
}

// LoadHandler new handler of fn
func LoadHandler(fn types.Functionality) (Handler, error) {
	create, ok := registedHandlers[fn]
	if !ok {
		elog.Debug("LoadHandler", "functionality", fn)
		return nil, types.ErrUnRegistedHandler
	}
	return create(), nil
}

// TransactionDispatcher routes every phase to the handler of the body's functionality
type TransactionDispatcher struct {
	handlers     map[types.Functionality]Handler
	maxMemoBytes int
}

// NewTransactionDispatcher dispatcher over every registered handler
func NewTransactionDispatcher(cfg *types.Exec) *TransactionDispatcher {
	d := &TransactionDispatcher{
		handlers:     make(map[types.Functionality]Handler),
		maxMemoBytes: int(cfg.MaxMemoBytes),
	}
	for fn, create := range registedHandlers {
		d.handlers[fn] = create()
	}
	return d
}

// SetHandler replaces the handler of fn
func (d *TransactionDispatcher) SetHandler(fn types.Functionality, h Handler) {
	d.handlers[fn] = h
}

func (d *TransactionDispatcher) handlerOf(fn types.Functionality) (Handler, error) {
	h, ok := d.handlers[fn]
	if !ok {
		return nil, errors.Wrap(types.ErrUnRegistedHandler, fn.String())
	}
	return h, nil
}

// DispatchPureChecks pure checks of body; unsupported functionalities fail with NOT_SUPPORTED
func (d *TransactionDispatcher) DispatchPureChecks(body *types.TransactionBody) error {
	if body == nil {
		return types.NewPreCheckError(types.INVALID_TRANSACTION_BODY)
	}
	fn, err := types.FunctionOf(body)
	if err != nil {
		return err
	}
	h, err := d.handlerOf(fn)
	if err != nil {
		return types.NewPreCheckError(types.NOT_SUPPORTED)
	}
	// memo length is the one check every functionality shares
	if len(body.Memo) > d.maxMemoBytes {
		return types.NewPreCheckError(types.MEMO_TOO_LONG)
	}
	return h.PureChecks(body)
}

// DispatchPreHandle gathers required keys through the handler
func (d *TransactionDispatcher) DispatchPreHandle(ctx PreHandleContext) error {
	h, err := d.handlerOf(ctx.Functionality())
	if err != nil {
		return types.NewPreCheckError(types.NOT_SUPPORTED)
	}
	return h.PreHandle(ctx)
}

// DispatchComputeFees fees as priced by the handler
func (d *TransactionDispatcher) DispatchComputeFees(ctx FeeContext) types.Fees {
	h, err := d.handlerOf(ctx.Functionality())
	if err != nil {
		return types.FREE
	}
	return h.CalculateFees(ctx)
}

// DispatchHandle runs the business logic
func (d *TransactionDispatcher) DispatchHandle(ctx HandleContext) error {
	h, err := d.handlerOf(ctx.Functionality())
	if err != nil {
		return types.NewHandleError(types.NOT_SUPPORTED)
	}
	return h.Handle(ctx)
}
