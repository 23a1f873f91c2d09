// Package clock implements the optional two-sided game clock.
package clock

import (
	"fmt"
	"time"

	"github.com/park285/hotseat-chess/internal/rules"
)

// DefaultBudget is the per-side starting time.
const DefaultBudget = 10 * time.Minute

// Clock tracks remaining time per side. Only the active side is charged.
// The zero value is not usable; call New.
type Clock struct {
	Budget  time.Duration `json:"budget"`
	White   time.Duration `json:"white"`
	Black   time.Duration `json:"black"`
	Active  rules.Color   `json:"active"`
	Running bool          `json:"running"`
	Flagged bool          `json:"flagged"`
}

// New returns a stopped clock with budget on both sides and white active.
func New(budget time.Duration) *Clock {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Clock{Budget: budget, White: budget, Black: budget, Active: rules.White}
}

// Start runs the clock. A flagged clock stays stopped.
func (c *Clock) Start() {
	if c.Flagged {
		return
	}
	c.Running = true
}

// Stop pauses the clock without touching remaining time.
func (c *Clock) Stop() { c.Running = false }

// SetActive selects the side being charged.
func (c *Clock) SetActive(side rules.Color) { c.Active = side }

// Switch hands the move to the other side.
func (c *Clock) Switch() { c.Active = c.Active.Opponent() }

// Tick charges elapsed to the active side, flooring at zero. It returns the
// side that ran out, and true only on the tick that caused the flag fall.
func (c *Clock) Tick(elapsed time.Duration) (rules.Color, bool) {
	if !c.Running || c.Flagged || elapsed <= 0 {
		return c.Active, false
	}
	rem := c.remainingPtr(c.Active)
	*rem -= elapsed
	if *rem > 0 {
		return c.Active, false
	}
	*rem = 0
	c.Flagged = true
	c.Running = false
	return c.Active, true
}

// Revive clears a flag fall so the clock can run again, topping side up to
// at least grace (capped at the budget).
func (c *Clock) Revive(side rules.Color, grace time.Duration) {
	c.Flagged = false
	if grace > c.Budget {
		grace = c.Budget
	}
	if rem := c.remainingPtr(side); *rem < grace {
		*rem = grace
	}
}

// Remaining returns the time left for side.
func (c *Clock) Remaining(side rules.Color) time.Duration {
	return *c.remainingPtr(side)
}

// Reset restores the full budget, stops the clock and makes white active.
func (c *Clock) Reset() {
	*c = *New(c.Budget)
}

func (c *Clock) remainingPtr(side rules.Color) *time.Duration {
	if side == rules.Black {
		return &c.Black
	}
	return &c.White
}

// Format renders d as mm:ss, truncating partial seconds. Negative input shows 00:00.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
