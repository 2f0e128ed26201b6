// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package executor

import (
	"time"

	"github.com/33cn/txflow/state"
	"github.com/33cn/txflow/types"
	"github.com/pkg/errors"
)

// SavepointStatus open until committed or rolled back
type SavepointStatus int32

// savepoint status
const (
	SavepointOpen SavepointStatus = iota
	SavepointCommitted
	SavepointRolledBack
)

// Savepoint 一层可回滚的状态修改, 以及这一层创建的 record builder
type Savepoint struct {
	depth    int
	overlay  *state.Overlay
	builders []*RecordBuilder
	status   SavepointStatus
}

// Depth 0 is the root
func (sp *Savepoint) Depth() int {
	return sp.depth
}

// Status status
func (sp *Savepoint) Status() SavepointStatus {
	return sp.status
}

// SavepointStack 嵌套的 savepoint, 只能在栈顶 push/pop.
// The root level sits over the durable base and is only written to it by CommitFullStack.
type SavepointStack struct {
	base    *state.Base
	root    *Savepoint
	stack   []*Savepoint
	records *RecordListBuilder
}

// NewSavepointStack new stack for one consensus transaction
func NewSavepointStack(base *state.Base, maxPreceding, maxChildren int) *SavepointStack {
	return &SavepointStack{
		base:    base,
		root:    &Savepoint{overlay: state.NewOverlay(base)},
		records: newRecordListBuilder(maxPreceding, maxChildren),
	}
}

// Top current savepoint, the root when nothing was pushed
func (s *SavepointStack) Top() *Savepoint {
	if len(s.stack) == 0 {
		return s.root
	}
	return s.stack[len(s.stack)-1]
}

// State reads and writes go to the top savepoint
func (s *SavepointStack) State() state.KV {
	return s.Top().overlay
}

// Depth number of pushed savepoints
func (s *SavepointStack) Depth() int {
	return len(s.stack)
}

// CreateSavepoint push a new savepoint over the top
func (s *SavepointStack) CreateSavepoint() *Savepoint {
	top := s.Top()
	sp := &Savepoint{depth: top.depth + 1, overlay: state.NewOverlay(top.overlay)}
	s.stack = append(s.stack, sp)
	return sp
}

func (s *SavepointStack) pop(sp *Savepoint) (*Savepoint, error) {
	if len(s.stack) == 0 {
		return nil, types.Fatal(types.ErrSavepointStackEmpty)
	}
	if sp.status != SavepointOpen {
		return nil, types.Fatal(types.ErrSavepointResolved)
	}
	if s.Top() != sp {
		return nil, types.Fatalf(types.ErrSavepointNotTop, "depth %d top %d", sp.depth, s.Top().depth)
	}
	s.stack = s.stack[:len(s.stack)-1]
	return s.Top(), nil
}

// Commit merges the top savepoint into its parent and keeps its records
func (s *SavepointStack) Commit(sp *Savepoint) error {
	parent, err := s.pop(sp)
	if err != nil {
		return err
	}
	if err := sp.overlay.MergeInto(parent.overlay); err != nil {
		return types.Fatal(errors.Wrap(err, "commit savepoint"))
	}
	sp.status = SavepointCommitted
	parent.builders = append(parent.builders, sp.builders...)
	return nil
}

// CommitThrough commits the top savepoint into every level below it, so its
// changes survive the rollback of any ancestor
func (s *SavepointStack) CommitThrough(sp *Savepoint) error {
	parent, err := s.pop(sp)
	if err != nil {
		return err
	}
	levels := append([]*Savepoint{s.root}, s.stack...)
	for _, lvl := range levels {
		if err := sp.overlay.WriteTo(lvl.overlay); err != nil {
			return types.Fatal(errors.Wrap(err, "commit savepoint through"))
		}
	}
	sp.overlay.Reset()
	sp.status = SavepointCommitted
	parent.builders = append(parent.builders, sp.builders...)
	return nil
}

// Rollback drops the top savepoint's changes. Its records are filtered: a record
// created in sp is rolled back with it unless IRREVERSIBLE; a record folded into
// sp by a committed descendant survives unless REMOVABLE, and a REVERSIBLE one
// is marked reverted.
func (s *SavepointStack) Rollback(sp *Savepoint) error {
	parent, err := s.pop(sp)
	if err != nil {
		return err
	}
	sp.overlay.Reset()
	sp.status = SavepointRolledBack
	for _, b := range sp.builders {
		switch b.reversing {
		case types.Irreversible:
		case types.Removable:
			b.removed = true
			continue
		case types.Reversible:
			if b.owner == sp {
				b.removed = true
				continue
			}
			b.revert()
		}
		parent.builders = append(parent.builders, b)
	}
	return nil
}

// CommitFullStack commits every savepoint down to the root and writes the root
// to the base as one batch
func (s *SavepointStack) CommitFullStack() error {
	for len(s.stack) > 0 {
		if err := s.Commit(s.Top()); err != nil {
			return err
		}
	}
	if err := s.base.Flush(s.root.overlay); err != nil {
		return types.Fatal(errors.Wrap(err, "flush state"))
	}
	return nil
}

// CreateBuilder record builder owned by the top savepoint
func (s *SavepointStack) CreateBuilder(info *types.TransactionInfo, category types.TransactionCategory, reversing types.ReversingBehavior) (*RecordBuilder, error) {
	b, err := s.records.newBuilder(info, category, reversing)
	if err != nil {
		return nil, err
	}
	top := s.Top()
	b.owner = top
	top.builders = append(top.builders, b)
	return b, nil
}

// Records final record list once the stack has been committed
func (s *SavepointStack) Records(consensusNow time.Time) []*types.TransactionRecord {
	return s.records.build(s.root.builders, consensusNow)
}
