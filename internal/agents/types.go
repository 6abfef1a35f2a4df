// Package agents provides the agent data model: roles, body composition,
// capability snapshots, task bindings, role templates and the production
// facility contract.
package agents

import (
	"github.com/talgya/zone-brain/internal/world"
)

// Role is an agent's immutable specialized class.
type Role string

const (
	RoleSupplier Role = "supplier"
	RoleLinker   Role = "linker"
	RoleMiner    Role = "miner"
	RoleHauler   Role = "hauler"
	RoleWorker   Role = "worker"
	RoleUpgrader Role = "upgrader"
	RoleGuard    Role = "guard"
	RoleScout    Role = "scout"
	RoleReserver Role = "reserver"
	RoleHealer   Role = "healer"
	RoleSieger   Role = "sieger"
)

// PartType is a body part kind.
type PartType string

const (
	PartMove   PartType = "move"
	PartWork   PartType = "work"
	PartCarry  PartType = "carry"
	PartAttack PartType = "attack"
	PartRanged PartType = "ranged_attack"
	PartHeal   PartType = "heal"
	PartClaim  PartType = "claim"
	PartTough  PartType = "tough"
)

// PartHitsMax is the durability of a fresh body part.
const PartHitsMax = 100

// CarryPerPart is the energy a single carry part holds.
const CarryPerPart = 50

// MaxBodyParts bounds the size of a single agent.
const MaxBodyParts = 50

// BodyPart is one part of an agent's body. Parts with zero hits are inactive.
type BodyPart struct {
	Type PartType `json:"type"`
	Hits int      `json:"hits"`
}

// Binding is an agent's current task assignment.
type Binding struct {
	Kind     string `json:"kind"`   // Task type identifier
	Action   string `json:"action"` // Executable action consumed by the behavior engine
	TargetID string `json:"target_id"`
	Tick     uint64 `json:"tick"`
}

// Agent is a mobile unit working inside a zone.
type Agent struct {
	Name     string         `json:"name"`
	Role     Role           `json:"role"`
	Position world.HexCoord `json:"position"`
	Body     []BodyPart     `json:"body"`
	Energy   int            `json:"energy"` // Carried energy

	// Entity the agent was produced for and the zone it works in.
	Assignment string `json:"assignment"`
	WorkZone   string `json:"work_zone"`

	Binding  *Binding `json:"binding,omitempty"`
	BornTick uint64   `json:"born_tick"`
}

// Capability is the snapshot task preconditions are evaluated against.
type Capability struct {
	ActiveWork    int
	ActiveCarry   int
	Energy        int
	CarryCapacity int
}

// HasFreeCapacity reports whether the agent can carry more energy.
func (c Capability) HasFreeCapacity() bool {
	return c.Energy < c.CarryCapacity
}

// ActiveParts counts the undamaged parts of a type.
func (a *Agent) ActiveParts(t PartType) int {
	n := 0
	for _, p := range a.Body {
		if p.Type == t && p.Hits > 0 {
			n++
		}
	}
	return n
}

// CarryCapacity counts every carry part, damaged or not.
func (a *Agent) CarryCapacity() int {
	n := 0
	for _, p := range a.Body {
		if p.Type == PartCarry {
			n++
		}
	}
	return n * CarryPerPart
}

// Capability returns the agent's current capability snapshot.
func (a *Agent) Capability() Capability {
	return Capability{
		ActiveWork:    a.ActiveParts(PartWork),
		ActiveCarry:   a.ActiveParts(PartCarry),
		Energy:        a.Energy,
		CarryCapacity: a.CarryCapacity(),
	}
}

// Bind replaces the agent's binding.
func (a *Agent) Bind(b *Binding) {
	a.Binding = b
}

// Release clears the agent's binding and returns the previous one.
func (a *Agent) Release() *Binding {
	prev := a.Binding
	a.Binding = nil
	return prev
}
