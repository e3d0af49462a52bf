package ogm

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Phase identifies a point in the query/transaction lifecycle at which
// registered hooks fire.
type Phase int

const (
	PhaseBeforeQuery Phase = iota
	PhaseAfterQuery
	PhaseBeforeCommit
	PhaseAfterCommit
	PhaseBeforeRollback
	PhaseAfterRollback
)

func (p Phase) String() string {
	switch p {
	case PhaseBeforeQuery:
		return "before-query"
	case PhaseAfterQuery:
		return "after-query"
	case PhaseBeforeCommit:
		return "before-commit"
	case PhaseAfterCommit:
		return "after-commit"
	case PhaseBeforeRollback:
		return "before-rollback"
	case PhaseAfterRollback:
		return "after-rollback"
	default:
		return "unknown"
	}
}

// HookEvent carries the context of a lifecycle phase to hook functions.
// TxID is zero for auto-commit queries.
type HookEvent struct {
	Phase  Phase
	TxID   uuid.UUID
	Query  string
	Params map[string]any
	Err    error
}

// HookFunc observes a lifecycle phase. Hooks must not issue queries through
// the client they are registered on.
type HookFunc func(ctx context.Context, ev HookEvent)

// hookTable maps each phase to its ordered hook list.
type hookTable struct {
	mu    sync.RWMutex
	hooks map[Phase][]HookFunc
}

func newHookTable() *hookTable {
	return &hookTable{hooks: make(map[Phase][]HookFunc)}
}

func (t *hookTable) on(p Phase, fn HookFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks[p] = append(t.hooks[p], fn)
}

// fire invokes the hooks registered for ev.Phase in registration order.
func (t *hookTable) fire(ctx context.Context, ev HookEvent) {
	t.mu.RLock()
	fns := t.hooks[ev.Phase]
	t.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, ev)
	}
}
