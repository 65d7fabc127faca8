package impact

import (
	"fmt"

	"github.com/sprite-ai/specgate/internal/model"
)

// Counts tallies changes by impact level.
type Counts struct {
	High   int `json:"HIGH"`
	Medium int `json:"MEDIUM"`
	Low    int `json:"LOW"`
}

// Add counts one change at level.
func (c *Counts) Add(level model.ImpactLevel) {
	switch level {
	case model.ImpactHigh:
		c.High++
	case model.ImpactMedium:
		c.Medium++
	default:
		c.Low++
	}
}

// Of returns the count for level.
func (c Counts) Of(level model.ImpactLevel) int {
	switch level {
	case model.ImpactHigh:
		return c.High
	case model.ImpactMedium:
		return c.Medium
	default:
		return c.Low
	}
}

func (c Counts) Total() int {
	return c.High + c.Medium + c.Low
}

// RequiresRebuild reports whether any change is above LOW.
func (c Counts) RequiresRebuild() bool {
	return c.High > 0 || c.Medium > 0
}

// Max returns the highest level present, LOW when there are none.
func (c Counts) Max() model.ImpactLevel {
	switch {
	case c.High > 0:
		return model.ImpactHigh
	case c.Medium > 0:
		return model.ImpactMedium
	default:
		return model.ImpactLow
	}
}

func (c Counts) String() string {
	return fmt.Sprintf("%d HIGH, %d MEDIUM, %d LOW", c.High, c.Medium, c.Low)
}
