package dice

import (
	"math/rand"
	"time"
)

// Kind names a polyhedral die.
type Kind string

const (
	D4  Kind = "d4"
	D6  Kind = "d6"
	D8  Kind = "d8"
	D10 Kind = "d10"
	D12 Kind = "d12"
	D20 Kind = "d20"
)

// Sides returns the face count for the kind. Unrecognized kinds fall back
// to six sides; the fallback is recorded on the roll so callers can surface
// it as a configuration smell instead of a silent substitution.
func (k Kind) Sides() int {
	switch k {
	case D4:
		return 4
	case D6:
		return 6
	case D8:
		return 8
	case D10:
		return 10
	case D12:
		return 12
	case D20:
		return 20
	default:
		return 6
	}
}

// known reports whether the kind is one of the named dice.
func (k Kind) known() bool {
	switch k {
	case D4, D6, D8, D10, D12, D20:
		return true
	}
	return false
}

// Context tags a roll with where in the game it happened.
type Context struct {
	Round int
	Phase string
}

// Roll records a single dice roll and its game context.
type Roll struct {
	Kind     Kind      `json:"dice_type"`
	Count    int       `json:"count"`
	Results  []int     `json:"rolls"`
	Total    int       `json:"total"`
	Round    int       `json:"round"`
	Phase    string    `json:"phase"`
	Fallback bool      `json:"fallback,omitempty"`
	At       time.Time `json:"timestamp"`
}

// Roller rolls dice from a single pseudorandom source and keeps a history
// of every roll. It is not safe for concurrent use; a game instance owns
// exactly one Roller and serializes all calls (the engine has no internal
// concurrency).
type Roller struct {
	rng     *rand.Rand
	history []Roll
	last    *Roll
}

// NewRoller creates a roller drawing from rng. The engine shares its seeded
// source here so a fixed seed reproduces every roll in order.
func NewRoller(rng *rand.Rand) *Roller {
	return &Roller{rng: rng}
}

// Roll rolls count dice of the given kind, appends the record to the
// history, and returns the individual results and their sum.
func (r *Roller) Roll(kind Kind, count int, ctx Context) ([]int, int) {
	if count < 1 {
		count = 1
	}
	sides := kind.Sides()
	results := make([]int, count)
	total := 0
	for i := range results {
		v := r.rng.Intn(sides) + 1
		results[i] = v
		total += v
	}

	record := Roll{
		Kind:     kind,
		Count:    count,
		Results:  results,
		Total:    total,
		Round:    ctx.Round,
		Phase:    ctx.Phase,
		Fallback: !kind.known(),
		At:       time.Now(),
	}
	r.history = append(r.history, record)
	r.last = &r.history[len(r.history)-1]

	return results, total
}

// Last returns the most recent roll across every subsystem, if any.
func (r *Roller) Last() (Roll, bool) {
	if r.last == nil {
		return Roll{}, false
	}
	return *r.last, true
}

// History returns all rolls in chronological order. The returned slice is
// the roller's own backing store; callers must not mutate it.
func (r *Roller) History() []Roll {
	return r.history
}
