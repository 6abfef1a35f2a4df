package tasks

import (
	"sort"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/world"
)

// Engine binds agents to the most urgent task they can perform.
type Engine struct {
	types      map[Kind]Type
	priorities []Kind
}

// NewEngine validates the task types against the priority ordering. A
// misconfigured ordering is rejected here rather than skipped at runtime.
func NewEngine(types map[Kind]Type, priorities []Kind) (*Engine, error) {
	if err := Validate(types, priorities); err != nil {
		return nil, err
	}
	return &Engine{
		types:      types,
		priorities: append([]Kind(nil), priorities...),
	}, nil
}

// DefaultEngine returns an engine over the stock types and priorities.
func DefaultEngine() *Engine {
	e, err := NewEngine(DefaultTypes(), DefaultPriorities)
	if err != nil {
		panic(err)
	}
	return e
}

// Priorities returns the priority ordering.
func (e *Engine) Priorities() []Kind {
	return append([]Kind(nil), e.priorities...)
}

// Type returns the registered task type for a kind.
func (e *Engine) Type(k Kind) (Type, bool) {
	t, ok := e.types[k]
	return t, ok
}

// Applicable filters the priority ordering to the task types the agent's
// role and capability allow, preserving priority order.
func (e *Engine) Applicable(a *agents.Agent) []Type {
	var out []Type
	for _, k := range e.priorities {
		if t := e.types[k]; t.Applies(a) {
			out = append(out, t)
		}
	}
	return out
}

// MostUrgent walks candidates in order and returns the first task type with
// at least one target below its claim ceiling, along with those targets.
func (e *Engine) MostUrgent(cat *Catalog, candidates []Type) (Type, []world.Entity, bool) {
	view := cat.View()
	for _, t := range candidates {
		var open []world.Entity
		for _, target := range cat.TargetsFor(t.Kind) {
			if view.ClaimCount(target.EntityID()) < t.MaxPerTarget {
				open = append(open, target)
			}
		}
		if len(open) > 0 {
			return t, open, true
		}
	}
	return Type{}, nil, false
}

// AssignTask rewrites the agent's binding: the previous binding is released,
// then the agent is bound to the nearest open target of its most urgent
// applicable task. Returns nil and leaves the agent unbound when nothing fits.
func (e *Engine) AssignTask(cat *Catalog, a *agents.Agent, tick uint64) *agents.Binding {
	a.Release()

	t, targets, ok := e.MostUrgent(cat, e.Applicable(a))
	if !ok {
		return nil
	}
	target := Nearest(a.Position, targets)
	if target == nil {
		return nil
	}
	b := &agents.Binding{
		Kind:     string(t.Kind),
		Action:   string(t.Action),
		TargetID: target.EntityID(),
		Tick:     tick,
	}
	a.Bind(b)
	return b
}

// AssignAll runs AssignTask for every agent in name order and returns how
// many ended up bound.
func (e *Engine) AssignAll(cat *Catalog, list []*agents.Agent, tick uint64) int {
	ordered := append([]*agents.Agent(nil), list...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	bound := 0
	for _, a := range ordered {
		if e.AssignTask(cat, a, tick) != nil {
			bound++
		}
	}
	return bound
}

// Nearest returns the target closest to pos; ties go to the lowest ID.
func Nearest(pos world.HexCoord, targets []world.Entity) world.Entity {
	var best world.Entity
	bestDist := 0
	for _, t := range targets {
		if t == nil {
			continue
		}
		d := world.Distance(pos, t.Location())
		if best == nil || d < bestDist || (d == bestDist && t.EntityID() < best.EntityID()) {
			best, bestDist = t, d
		}
	}
	return best
}
