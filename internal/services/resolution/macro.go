package resolution

import (
	"context"
	"sync"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/errors"
)

// MacroInvocation is the context handed to a scripted callback
type MacroInvocation struct {
	SourceItemID string
	AreaID       string
	BearerID     string
	TargetID     string
	Kind         area.TriggerKind
	Config       *area.EffectConfig
}

// MacroFunc is a registered scripted callback
type MacroFunc func(ctx context.Context, inv *MacroInvocation) error

// MacroRunner invokes scripted callbacks by source item id
type MacroRunner interface {
	Run(ctx context.Context, inv *MacroInvocation) error
}

// Registry is a MacroRunner backed by an in-process function table
type Registry struct {
	mu     sync.RWMutex
	macros map[string]MacroFunc
}

// NewRegistry creates an empty macro registry
func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]MacroFunc)}
}

// Register binds a callback to a source item id
func (r *Registry) Register(sourceItemID string, fn MacroFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.macros[sourceItemID] = fn
}

// Run invokes the callback registered for the invocation's source item
func (r *Registry) Run(ctx context.Context, inv *MacroInvocation) error {
	r.mu.RLock()
	fn, ok := r.macros[inv.SourceItemID]
	r.mu.RUnlock()

	if !ok {
		return errors.NotFoundf("no macro registered for %s", inv.SourceItemID)
	}
	return fn(ctx, inv)
}
