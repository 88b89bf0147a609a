package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrUnknownSolver is returned by Open for names nobody registered.
var ErrUnknownSolver = errors.New("unknown solver")

// Solver is an LP engine. Infeasible and unbounded models are reported
// through the Result's Status; errors are reserved for malformed models,
// engine failures and context cancellation.
type Solver interface {
	Solve(ctx context.Context, model *Model) (*Result, error)
}

// SolverFunc adapts a plain function to the Solver interface.
type SolverFunc func(ctx context.Context, model *Model) (*Result, error)

func (f SolverFunc) Solve(ctx context.Context, model *Model) (*Result, error) {
	return f(ctx, model)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// Factory builds a solver that reports its progress to logger.
type Factory func(logger Logger) Solver

// Register makes a backend available by name. It panics when called twice
// with the same name.
func Register(name string, factory Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if factory == nil {
		panic("lp: Register factory is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("lp: Register called twice for solver " + name)
	}
	drivers[name] = factory
}

// Open returns a fresh solver from the backend registered under name. A
// nil logger discards its output.
func Open(name string, logger Logger) (Solver, error) {
	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownSolver)
	}
	if logger == nil {
		logger = NopLogger()
	}
	return factory(logger), nil
}

// Drivers returns the sorted names of the registered backends.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SolveEmpty solves a model without variables, which engines tend to
// reject: every constraint then evaluates to 0 and either admits it or
// not.
func SolveEmpty(model *Model) *Result {
	for _, c := range model.Constraints() {
		lower, upper := c.Bounds()
		if lower > feasibilityTolerance || upper < -feasibilityTolerance {
			return NewResult(Infeasible, 0, []float64{})
		}
	}
	return NewResult(Optimal, 0, []float64{})
}

const feasibilityTolerance = 1e-9

// CrossedBounds reports whether a variable or constraint of the model has
// a lower bound above its upper bound. No values can satisfy such a model.
func CrossedBounds(model *Model) bool {
	for _, v := range model.Variables() {
		if lower, upper := v.Bounds(); lower > upper {
			return true
		}
	}
	for _, c := range model.Constraints() {
		if lower, upper := c.Bounds(); lower > upper {
			return true
		}
	}
	return false
}

// Satisfies reports whether values satisfy every bound and constraint of
// the model within tol.
func Satisfies(model *Model, values []float64, tol float64) bool {
	vars := model.Variables()
	if len(values) != len(vars) {
		return false
	}
	for i, v := range vars {
		lower, upper := v.Bounds()
		if values[i] < lower-tol || values[i] > upper+tol {
			return false
		}
	}
	for _, c := range model.Constraints() {
		lower, upper := c.Bounds()
		activity := c.Activity(values)
		if activity < lower-tol*math.Max(1, math.Abs(lower)) || activity > upper+tol*math.Max(1, math.Abs(upper)) {
			return false
		}
	}
	return true
}
