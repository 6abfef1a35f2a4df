// Agent spawning: builds agents from role templates for a production facility.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/zone-brain/internal/world"
)

// Spawner creates agents for a production facility.
type Spawner struct {
	rng *rand.Rand
}

// NewSpawner creates an agent spawner with the given seed. Names are
// derived from the seeded source so a replayed scenario produces the
// same agents.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed + 300)),
	}
}

// Plan resolves the size and cost of a request against the budget.
// A size of 0 or more than affordable is clamped to the affordable maximum.
func (s *Spawner) Plan(t Template, size, budget int) (int, int, error) {
	max := t.MaxSize(budget)
	if max < 1 {
		return 0, 0, ErrInsufficientBudget
	}
	if size <= 0 || size > max {
		size = max
	}
	return size, size * t.Cost(), nil
}

// NewHandle issues a request handle for a role.
func (s *Spawner) NewHandle(role Role) Handle {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}
	return Handle(fmt.Sprintf("%s_%s", role, id.String()[:8]))
}

// Spawn builds the agent for an accepted request.
func (s *Spawner) Spawn(h Handle, t Template, size int, assignment, workZone string, pos world.HexCoord, tick uint64) *Agent {
	return &Agent{
		Name:       string(h),
		Role:       t.Role,
		Position:   pos,
		Body:       t.Body(size),
		Assignment: assignment,
		WorkZone:   workZone,
		BornTick:   tick,
	}
}
