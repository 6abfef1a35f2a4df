package agents

import "errors"

var (
	// ErrFacilityBusy is returned when a request arrives while the facility produces.
	ErrFacilityBusy = errors.New("production facility busy")
	// ErrInsufficientBudget is returned when not even one repetition is affordable.
	ErrInsufficientBudget = errors.New("insufficient production budget")
)

// Handle identifies an accepted production request. It is also the name
// the produced agent will carry.
type Handle string

// Facility is the production facility that materializes new agents. It is
// consumed serially: while Busy, no new request is accepted.
type Facility interface {
	Busy() bool
	EstimateCost(t Template) int
	// RequestProduction asks for an agent of the template's role produced for
	// the assignment entity in workZone. A size of 0 means the largest
	// affordable size.
	RequestProduction(t Template, assignment, workZone string, size int) (Handle, error)
}
