// Population control: an ordered chain of named handlers, each reporting
// whether its role is short. The first unmet need becomes the tick's single
// production request.
package engine

import (
	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/planner"
	"github.com/talgya/zone-brain/internal/world"
)

// SpawnContext is what a handler sees when it is attempted.
type SpawnContext struct {
	Zone    string
	View    world.View
	Planner planner.Planner
	Economy planner.Economy
	Tick    uint64
}

// Order describes the agent a handler wants produced.
type Order struct {
	Handler    string
	Template   agents.Template
	Assignment string
	WorkZone   string
	Size       int // 0 = largest affordable
}

// Handler is one step of the population-control chain.
type Handler interface {
	Name() string
	// Attempt reports an order when the handler's need is unmet.
	Attempt(ctx *SpawnContext) (Order, bool)
}

// Outcome is the result of a dispatch that produced an order.
type Outcome struct {
	Order  Order
	Handle agents.Handle
	Err    error
	// Estimate is the facility's quoted cost for the order's template,
	// taken before the request was made.
	Estimate int
}

// Dispatcher walks its handlers in order and submits at most one order.
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher creates a dispatcher over handlers in priority order.
func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// DefaultHandlers returns the stock chain: domestic roles, then directive
// classes.
func DefaultHandlers() []Handler {
	return []Handler{
		SupplierHandler{}, // don't move this from top
		LinkerHandler{},
		MinerHandler{},
		HaulerHandler{},
		WorkerHandler{},
		UpgraderHandler{},
		DirectiveHandler{Kind: world.DirectiveStationary},
		DirectiveHandler{Kind: world.DirectiveGuard},
		DirectiveHandler{Kind: world.DirectiveReserve},
		DirectiveHandler{Kind: world.DirectiveRemoteMine},
		DirectiveHandler{Kind: world.DirectiveHealPoint},
		DirectiveHandler{Kind: world.DirectiveSiege},
	}
}

// Handlers returns the chain in order.
func (d *Dispatcher) Handlers() []Handler {
	return append([]Handler(nil), d.handlers...)
}

// Dispatch runs the chain once. Nothing happens without a facility or while
// it is busy. The first handler reporting a need gets exactly one
// production request, whatever its result; the rest are not attempted.
func (d *Dispatcher) Dispatch(ctx *SpawnContext, f agents.Facility) (Outcome, bool) {
	if f == nil || f.Busy() {
		return Outcome{}, false
	}
	for _, h := range d.handlers {
		order, ok := h.Attempt(ctx)
		if !ok {
			continue
		}
		order.Handler = h.Name()
		estimate := f.EstimateCost(order.Template)
		handle, err := f.RequestProduction(order.Template, order.Assignment, order.WorkZone, order.Size)
		return Outcome{Order: order, Handle: handle, Err: err, Estimate: estimate}, true
	}
	return Outcome{}, false
}

// SupplierHandler keeps energy sinks supplied.
type SupplierHandler struct{}

func (SupplierHandler) Name() string { return "suppliers" }

func (SupplierHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	ctrl := ctx.View.Controller()
	if ctrl == nil {
		return Order{}, false
	}
	have := ctx.View.AssignedCount(ctrl.ID, string(agents.RoleSupplier))
	if have >= ctx.Planner.Suppliers(ctx.Economy) {
		return Order{}, false
	}
	return Order{
		Template:   agents.MustTemplate(agents.RoleSupplier),
		Assignment: ctrl.ID,
		WorkZone:   ctx.Zone,
		Size:       ctx.Planner.Settings().SupplierPatternRepetitionLimit,
	}, true
}

// LinkerHandler staffs a linked storage.
type LinkerHandler struct{}

func (LinkerHandler) Name() string { return "linkers" }

func (LinkerHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	storage := ctx.Economy.Storage
	if storage == nil {
		return Order{}, false
	}
	have := ctx.View.AssignedCount(storage.ID, string(agents.RoleLinker))
	if have >= ctx.Planner.Linkers(ctx.Economy) {
		return Order{}, false
	}
	return Order{
		Template:   agents.MustTemplate(agents.RoleLinker),
		Assignment: storage.ID,
		WorkZone:   ctx.Zone,
		Size:       1,
	}, true
}

// MinerHandler staffs every source, including exhausted ones.
type MinerHandler struct{}

func (MinerHandler) Name() string { return "miners" }

func (MinerHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	for _, src := range ctx.Economy.Sources {
		if ctx.View.AssignedCount(src.ID, string(agents.RoleMiner)) < ctx.Planner.MinersPerSource() {
			return Order{
				Template:   agents.MustTemplate(agents.RoleMiner),
				Assignment: src.ID,
				WorkZone:   ctx.Zone,
			}, true
		}
	}
	return Order{}, false
}

// HaulerHandler moves energy from unlinked sources to storage.
type HaulerHandler struct{}

func (HaulerHandler) Name() string { return "haulers" }

func (HaulerHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	storage := ctx.Economy.Storage
	if storage == nil {
		return Order{}, false
	}
	for _, src := range ctx.Economy.Sources {
		if src.Linked && storage.Linked {
			continue
		}
		size, count, ok := ctx.Planner.Haulers(ctx.Economy, src, false)
		if !ok {
			continue
		}
		if ctx.View.AssignedCount(src.ID, string(agents.RoleHauler)) < count {
			return Order{
				Template:   agents.MustTemplate(agents.RoleHauler),
				Assignment: src.ID,
				WorkZone:   ctx.Zone,
				Size:       size,
			}, true
		}
	}
	return Order{}, false
}

// WorkerHandler sizes the general worker force. Workers only spawn once a
// container or storage is up.
type WorkerHandler struct{}

func (WorkerHandler) Name() string { return "workers" }

func (WorkerHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	ctrl := ctx.View.Controller()
	if ctrl == nil || ctx.Economy.StagingCount == 0 {
		return Order{}, false
	}
	required, ok := ctx.Planner.Workers(ctx.Economy)
	if !ok || ctx.View.AssignedCount(ctrl.ID, string(agents.RoleWorker)) >= required {
		return Order{}, false
	}
	return Order{
		Template:   agents.MustTemplate(agents.RoleWorker),
		Assignment: ctrl.ID,
		WorkZone:   ctx.Zone,
		Size:       ctx.Planner.Settings().WorkerPatternRepetitionLimit,
	}, true
}

// UpgraderHandler scales upgraders with stored energy.
type UpgraderHandler struct{}

func (UpgraderHandler) Name() string { return "upgraders" }

func (UpgraderHandler) Attempt(ctx *SpawnContext) (Order, bool) {
	ctrl := ctx.View.Controller()
	if ctrl == nil {
		return Order{}, false
	}
	size, count, ok := ctx.Planner.Upgraders(ctx.Economy)
	if !ok || ctx.View.AssignedCount(ctrl.ID, string(agents.RoleUpgrader)) >= count {
		return Order{}, false
	}
	return Order{
		Template:   agents.MustTemplate(agents.RoleUpgrader),
		Assignment: ctrl.ID,
		WorkZone:   ctx.Zone,
		Size:       size,
	}, true
}
