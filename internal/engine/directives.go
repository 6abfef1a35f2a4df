// Directive-driven production. Each directive class keeps a small quota of
// agents on its directives; within a class the closest directive is served
// first.
package engine

import (
	"math"
	"sort"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/world"
)

// Reservers carry at most this many repetitions.
const reserverSizeLimit = 2

// DirectiveHandler serves every directive of one kind.
type DirectiveHandler struct {
	Kind world.DirectiveKind
}

func (h DirectiveHandler) Name() string { return "directives:" + h.Kind.String() }

func (h DirectiveHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	for _, d := range SortByRange(DirectivesOf(ctx.View, h.Kind)) {
		if order, ok := h.attemptOne(ctx, d); ok {
			return order, true
		}
	}
	return Order{}, false
}

func (h DirectiveHandler) attemptOne(ctx *SpawnContext, d *world.Directive) (Order, bool) {
	zone := d.Zone
	if zone == "" {
		zone = ctx.Zone
	}
	single := func(role agents.Role, size int) (Order, bool) {
		if ctx.View.AssignedCount(d.Name, string(role)) >= 1 {
			return Order{}, false
		}
		return Order{Template: agents.MustTemplate(role), Assignment: d.Name, WorkZone: zone, Size: size}, true
	}

	switch h.Kind {
	case world.DirectiveStationary:
		return single(agents.RoleScout, 1)
	case world.DirectiveGuard:
		return single(agents.RoleGuard, 0)
	case world.DirectiveReserve:
		if d.Reservation >= ctx.Planner.Settings().ReserveBuffer {
			return Order{}, false
		}
		return single(agents.RoleReserver, reserverSizeLimit)
	case world.DirectiveRemoteMine:
		return h.remoteMine(ctx, d, zone)
	case world.DirectiveHealPoint:
		return single(agents.RoleHealer, 0)
	case world.DirectiveSiege:
		return single(agents.RoleSieger, 0)
	}
	return Order{}, false
}

func (h DirectiveHandler) remoteMine(ctx *SpawnContext, d *world.Directive, zone string) (Order, bool) {
	src := d.Source
	if src == nil {
		return Order{}, false
	}
	if ctx.View.AssignedCount(d.Name, string(agents.RoleMiner)) < ctx.Planner.MinersPerSource() {
		return Order{Template: agents.MustTemplate(agents.RoleMiner), Assignment: d.Name, WorkZone: zone}, true
	}
	size, count, ok := ctx.Planner.Haulers(ctx.Economy, src, true)
	if !ok {
		return Order{}, false
	}
	if limit := ctx.Planner.Settings().RemoteHaulerPatternRepetitionLimit; size > limit {
		size = limit
	}
	if ctx.View.AssignedCount(d.Name, string(agents.RoleHauler)) >= count {
		return Order{}, false
	}
	return Order{Template: agents.MustTemplate(agents.RoleHauler), Assignment: d.Name, WorkZone: zone, Size: size}, true
}

// DirectivesOf returns the view's directives of one kind.
func DirectivesOf(v world.View, kind world.DirectiveKind) []*world.Directive {
	var out []*world.Directive
	for _, d := range v.Directives() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// SortByRange orders directives by path length to storage. Unknown lengths
// sort last; ties go by name.
func SortByRange(ds []*world.Directive) []*world.Directive {
	out := append([]*world.Directive(nil), ds...)
	rangeOf := func(d *world.Directive) int {
		if d.PathLength <= 0 {
			return math.MaxInt
		}
		return d.PathLength
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rangeOf(out[i]), rangeOf(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
