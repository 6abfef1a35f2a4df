// Package tasks discovers work inside a zone and binds agents to it.
//
// Every task type is a single Type value carrying its executable action,
// the roles allowed to perform it, the precondition over an agent's
// capability, and the claim ceiling per target. The priority ordering is a
// fixed list of kinds; the first eligible kind with an unsaturated target
// wins.
package tasks

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/zone-brain/internal/agents"
)

// Kind identifies a task type.
type Kind string

const (
	KindSupplyTowers Kind = "supplyTowers"
	KindSupply       Kind = "supply"
	KindPickup       Kind = "pickup"
	KindCollect      Kind = "collect"
	KindRepair       Kind = "repair"
	KindBuild        Kind = "build"
	KindBuildRoads   Kind = "buildRoads"
	KindFortify      Kind = "fortify"
	KindUpgrade      Kind = "upgrade"
)

// Action is the executable action the behavior engine runs for a task.
type Action string

const (
	ActionPickup   Action = "pickup"
	ActionRecharge Action = "recharge"
	ActionSupply   Action = "supply"
	ActionRepair   Action = "repair"
	ActionBuild    Action = "build"
	ActionFortify  Action = "fortify"
	ActionUpgrade  Action = "upgrade"
)

// Unlimited is the claim ceiling for targets any number of agents may work.
const Unlimited = math.MaxInt32

// Type is a task type with all of its attributes.
type Type struct {
	Kind         Kind
	Action       Action
	Roles        []agents.Role
	Precondition func(agents.Capability) bool
	MaxPerTarget int
}

// Eligible reports whether an agent of the role may perform the task.
func (t Type) Eligible(role agents.Role) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Applies reports whether the agent's role and capability allow the task.
func (t Type) Applies(a *agents.Agent) bool {
	return t.Eligible(a.Role) && t.Precondition(a.Capability())
}

var (
	ErrUnknownTask      = errors.New("unknown task type")
	ErrMissingAttribute = errors.New("task type missing attribute")
	ErrDuplicateTask    = errors.New("duplicate task type in priorities")
)

// ConfigError wraps task registration failures.
type ConfigError struct {
	Kind error
	Task Kind
	Msg  string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Task)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Task, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// canGather: has carry parts and room for more energy.
func canGather(c agents.Capability) bool {
	return c.ActiveCarry > 0 && c.HasFreeCapacity()
}

// canDeliver: has carry parts and some energy to hand over.
func canDeliver(c agents.Capability) bool {
	return c.ActiveCarry > 0 && c.Energy > 0
}

// canWork: has work parts and energy to spend.
func canWork(c agents.Capability) bool {
	return c.ActiveWork > 0 && c.Energy > 0
}

var (
	haulingRoles = []agents.Role{agents.RoleSupplier, agents.RoleHauler}
)

// DefaultTypes returns the stock task types.
func DefaultTypes() map[Kind]Type {
	types := []Type{
		{Kind: KindPickup, Action: ActionPickup, Roles: haulingRoles, Precondition: canGather, MaxPerTarget: 1},
		{Kind: KindCollect, Action: ActionRecharge, Roles: haulingRoles, Precondition: canGather, MaxPerTarget: 2},
		{Kind: KindSupplyTowers, Action: ActionSupply, Roles: haulingRoles, Precondition: canDeliver, MaxPerTarget: 1},
		{Kind: KindSupply, Action: ActionSupply, Roles: haulingRoles, Precondition: canDeliver, MaxPerTarget: 1},
		{Kind: KindRepair, Action: ActionRepair,
			Roles:        []agents.Role{agents.RoleWorker, agents.RoleMiner, agents.RoleGuard},
			Precondition: canWork, MaxPerTarget: 1},
		{Kind: KindBuild, Action: ActionBuild,
			Roles:        []agents.Role{agents.RoleWorker, agents.RoleMiner},
			Precondition: canWork, MaxPerTarget: 3},
		{Kind: KindBuildRoads, Action: ActionBuild,
			Roles:        []agents.Role{agents.RoleWorker, agents.RoleGuard},
			Precondition: canWork, MaxPerTarget: 2},
		{Kind: KindFortify, Action: ActionFortify,
			Roles:        []agents.Role{agents.RoleWorker},
			Precondition: canWork, MaxPerTarget: 1},
		{Kind: KindUpgrade, Action: ActionUpgrade,
			Roles:        []agents.Role{agents.RoleWorker, agents.RoleUpgrader},
			Precondition: canWork, MaxPerTarget: Unlimited},
	}
	out := make(map[Kind]Type, len(types))
	for _, t := range types {
		out[t.Kind] = t
	}
	return out
}

// DefaultPriorities is the order tasks are given. Everything else depends on it.
var DefaultPriorities = []Kind{
	KindSupplyTowers,
	KindSupply,
	KindPickup,
	KindCollect,
	KindRepair,
	KindBuild,
	KindBuildRoads,
	KindFortify,
	KindUpgrade,
}

// Validate checks that every prioritized kind is registered with all of its
// attributes.
func Validate(types map[Kind]Type, priorities []Kind) error {
	seen := make(map[Kind]bool, len(priorities))
	for _, k := range priorities {
		if seen[k] {
			return &ConfigError{Kind: ErrDuplicateTask, Task: k}
		}
		seen[k] = true

		t, ok := types[k]
		if !ok {
			return &ConfigError{Kind: ErrUnknownTask, Task: k}
		}
		switch {
		case t.Kind != k:
			return &ConfigError{Kind: ErrMissingAttribute, Task: k, Msg: fmt.Sprintf("registered as %q", t.Kind)}
		case t.Action == "":
			return &ConfigError{Kind: ErrMissingAttribute, Task: k, Msg: "action"}
		case len(t.Roles) == 0:
			return &ConfigError{Kind: ErrMissingAttribute, Task: k, Msg: "roles"}
		case t.Precondition == nil:
			return &ConfigError{Kind: ErrMissingAttribute, Task: k, Msg: "precondition"}
		case t.MaxPerTarget <= 0:
			return &ConfigError{Kind: ErrMissingAttribute, Task: k, Msg: "max per target"}
		}
	}
	return nil
}
