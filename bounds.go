package feedmix

import (
	"fmt"
	"math"
)

// Bounds limits an item within one formula. The zero value is the
// default: a minimum of 0 and no maximum.
//
// Neither minimum <= maximum nor minimum >= 0 is enforced; contradictory
// bounds simply make the formula infeasible.
type Bounds struct {
	min     float64
	max     float64
	bounded bool
}

// Unbounded returns the default bounds: at least 0, no maximum.
func Unbounded() Bounds {
	return Bounds{}
}

func AtLeast(min float64) Bounds {
	return Bounds{min: min}
}

func AtMost(max float64) Bounds {
	return Bounds{max: max, bounded: true}
}

func Between(min, max float64) Bounds {
	return Bounds{min: min, max: max, bounded: true}
}

func (b Bounds) WithMinimum(min float64) Bounds {
	b.min = min
	return b
}

func (b Bounds) WithMaximum(max float64) Bounds {
	b.max = max
	b.bounded = true
	return b
}

func (b Bounds) WithoutMaximum() Bounds {
	b.max = 0
	b.bounded = false
	return b
}

func (b Bounds) Minimum() float64 {
	return b.min
}

// Maximum returns the upper bound; ok is false when there is none.
func (b Bounds) Maximum() (max float64, ok bool) {
	return b.max, b.bounded
}

// Upper returns the maximum, or +Inf when there is none. This is how the
// lp package spells an absent bound.
func (b Bounds) Upper() float64 {
	if !b.bounded {
		return math.Inf(1)
	}
	return b.max
}

// Admits reports whether v lies within the bounds, allowing for tol.
func (b Bounds) Admits(v, tol float64) bool {
	if v < b.min-tol {
		return false
	}
	return !b.bounded || v <= b.max+tol
}

func (b Bounds) String() string {
	if !b.bounded {
		return fmt.Sprintf("[%g, ∞)", b.min)
	}
	return fmt.Sprintf("[%g, %g]", b.min, b.max)
}
