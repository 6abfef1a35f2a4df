package agents

import "fmt"

// PartCost is the production cost of each body part.
var PartCost = map[PartType]int{
	PartMove:   50,
	PartWork:   100,
	PartCarry:  50,
	PartAttack: 80,
	PartRanged: 150,
	PartHeal:   250,
	PartClaim:  600,
	PartTough:  10,
}

// Template describes how a role's body is composed. Bodies are the
// pattern repeated a number of times (the agent's size).
type Template struct {
	Role    Role
	Pattern []PartType
}

// Cost returns the cost of one repetition of the pattern.
func (t Template) Cost() int {
	total := 0
	for _, p := range t.Pattern {
		total += PartCost[p]
	}
	return total
}

// PartsPerRepetition counts how many parts of a type one repetition holds.
func (t Template) PartsPerRepetition(p PartType) int {
	n := 0
	for _, part := range t.Pattern {
		if part == p {
			n++
		}
	}
	return n
}

// MaxSize returns the largest size affordable within the budget.
func (t Template) MaxSize(budget int) int {
	cost := t.Cost()
	if cost <= 0 || len(t.Pattern) == 0 {
		return 0
	}
	size := budget / cost
	if limit := MaxBodyParts / len(t.Pattern); size > limit {
		size = limit
	}
	return size
}

// Body builds a fresh body of the given size.
func (t Template) Body(size int) []BodyPart {
	body := make([]BodyPart, 0, size*len(t.Pattern))
	for i := 0; i < size; i++ {
		for _, p := range t.Pattern {
			body = append(body, BodyPart{Type: p, Hits: PartHitsMax})
		}
	}
	return body
}

// Templates holds the body pattern for every role.
var Templates = map[Role]Template{
	RoleSupplier: {Role: RoleSupplier, Pattern: []PartType{PartCarry, PartCarry, PartMove}},
	RoleLinker:   {Role: RoleLinker, Pattern: []PartType{PartCarry, PartCarry, PartMove}},
	RoleMiner:    {Role: RoleMiner, Pattern: []PartType{PartWork, PartWork, PartCarry, PartMove}},
	RoleHauler:   {Role: RoleHauler, Pattern: []PartType{PartCarry, PartCarry, PartMove}},
	RoleWorker:   {Role: RoleWorker, Pattern: []PartType{PartWork, PartCarry, PartMove}},
	RoleUpgrader: {Role: RoleUpgrader, Pattern: []PartType{PartWork, PartWork, PartWork, PartCarry, PartMove}},
	RoleGuard:    {Role: RoleGuard, Pattern: []PartType{PartTough, PartMove, PartAttack}},
	RoleScout:    {Role: RoleScout, Pattern: []PartType{PartMove}},
	RoleReserver: {Role: RoleReserver, Pattern: []PartType{PartClaim, PartMove}},
	RoleHealer:   {Role: RoleHealer, Pattern: []PartType{PartMove, PartHeal}},
	RoleSieger:   {Role: RoleSieger, Pattern: []PartType{PartWork, PartMove}},
}

// TemplateFor returns the template registered for a role.
func TemplateFor(role Role) (Template, error) {
	t, ok := Templates[role]
	if !ok {
		return Template{}, fmt.Errorf("no template for role %q", role)
	}
	return t, nil
}

// MustTemplate is TemplateFor for roles known at compile time.
func MustTemplate(role Role) Template {
	t, err := TemplateFor(role)
	if err != nil {
		panic(err)
	}
	return t
}
