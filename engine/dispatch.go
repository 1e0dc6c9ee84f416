package engine

import (
	"context"

	"github.com/jdginn/padengine/action"
	"github.com/jdginn/padengine/condition"
	"github.com/jdginn/padengine/config"
	"github.com/jdginn/padengine/event"
	"github.com/jdginn/padengine/logging"
	"github.com/jdginn/padengine/mapping"
)

// dispatchLoop consumes classified events and resolves each against the
// current mapping table (spec.md §4.3, §4.7).
func (m *Manager) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pe := <-m.processedCh:
			m.stats.RecordEvent()
			m.resolve(ctx, pe)
		}
	}
}

// resolve finds the first candidate entry from Lookup whose trigger
// selector matches and whose action isn't a falling-through Conditional,
// then executes it. Lookup already narrows chord lookups to the exact
// member set and puts mode-local entries before global ones; resolve's job is purely the selector/fall-through filter
// spec.md §4.3 layers on top.
func (m *Manager) resolve(ctx context.Context, pe event.ProcessedEvent) {
	log := logging.Get(logging.ENGINE)
	mode := m.CurrentMode()

	candidates := m.table.Load().Lookup(mode, pe)
	for _, entry := range candidates {
		if !mapping.Matches(entry.Trigger, pe) {
			continue
		}
		if fallsThrough(entry.Action, mode, m.executor) {
			continue
		}

		tctx := action.TriggerContext{Velocity: pe.Velocity, CCValue: pe.Value, Mode: mode}
		if err := m.executor.Execute(ctx, entry.Action, tctx); err != nil {
			log.Warn("action execution failed", "description", entry.Description, "err", err)
			m.stats.RecordError("action", err)
		}
		return
	}
}

// fallsThrough reports whether a's the "conditional fall-through" case
// spec.md §4.3 names: a top-level Conditional action with no Else, whose
// Condition evaluates false. Execute already re-evaluates the same
// condition when actually invoked (it has no way to signal "skip me" back
// to its caller), so this is the only place that decision can be made
// before committing to an entry.
func fallsThrough(a config.Action, mode string, e *action.Executor) bool {
	if a.Type != config.ActionConditional || a.Else != nil {
		return false
	}
	ctx := condition.Context{Now: e.Now, Mode: mode, Apps: e.Apps, Modifiers: e.Modifiers}
	return !condition.Evaluate(a.Condition, ctx)
}
