package keyword

import (
	"fmt"
	"math"
)

// PositionRange bounds the current ranking position, both ends inclusive.
type PositionRange struct {
	Lower float64 `json:"lower" yaml:"lower" mapstructure:"lower"`
	Upper float64 `json:"upper" yaml:"upper" mapstructure:"upper"`
}

// Criteria holds the inclusive thresholds of the range filter.
// A nil Position disables the position predicate.
type Criteria struct {
	MinVolume     float64        `json:"min_volume" yaml:"min_volume" mapstructure:"min_volume"`
	MaxDifficulty float64        `json:"max_difficulty" yaml:"max_difficulty" mapstructure:"max_difficulty"`
	MinCPC        float64        `json:"min_cpc" yaml:"min_cpc" mapstructure:"min_cpc"`
	Position      *PositionRange `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
}

// DefaultCriteria mirrors the dashboard's initial control values.
func DefaultCriteria() Criteria {
	return Criteria{
		MinVolume:     1000,
		MaxDifficulty: 20,
		MinCPC:        0.5,
		Position:      &PositionRange{Lower: 0, Upper: 100},
	}
}

// Validate rejects non-finite thresholds and inverted position ranges.
func (c Criteria) Validate() error {
	if !finite(c.MinVolume) || !finite(c.MaxDifficulty) || !finite(c.MinCPC) {
		return fmt.Errorf("%w: thresholds must be finite numbers", ErrInvalidCriteria)
	}
	if p := c.Position; p != nil {
		if !finite(p.Lower) || !finite(p.Upper) {
			return fmt.Errorf("%w: position bounds must be finite numbers", ErrInvalidCriteria)
		}
		if p.Lower > p.Upper {
			return fmt.Errorf("%w: position lower bound %v exceeds upper bound %v",
				ErrInvalidCriteria, p.Lower, p.Upper)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Match reports whether r satisfies every active predicate.
// withPosition gates the position predicate; NaN cells never match.
func (c Criteria) Match(r Record, withPosition bool) bool {
	if !(r.Volume >= c.MinVolume && r.Difficulty <= c.MaxDifficulty && r.CPC >= c.MinCPC) {
		return false
	}
	if withPosition && c.Position != nil {
		return r.CurrentPosition >= c.Position.Lower && r.CurrentPosition <= c.Position.Upper
	}
	return true
}

// Filter returns the rows of t that satisfy c, in input order.
// The position predicate applies only when c has a range and t has a position column.
func Filter(t *Table, c Criteria) *Table {
	withPosition := t.HasPosition
	return t.Select(func(r Record) bool { return c.Match(r, withPosition) })
}
