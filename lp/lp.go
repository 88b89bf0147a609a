/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

/*
Package lp describes linear programming models independently of the engine
that solves them.

A model is a set of continuous variables, each with an objective
coefficient and optional bounds, plus a set of named linear constraints of
the form

	lower <= c1 x1 + c2 x2 + ... + cn xn <= upper

An infinite bound (math.Inf) means the bound is absent. Models are handed
to a Solver, which reports a Result:

	model := lp.NewModel("diet", lp.Minimize)
	x, _ := model.AddVariable("x", 2, 0, math.Inf(1))
	y, _ := model.AddVariable("y", 3, 0, 10)
	model.AddConstraint("total", 5, 5, []*lp.Variable{x, y}, []float64{1, 1})

	result, err := solver.Solve(ctx, model)

Backends live in sub-packages and register themselves by name, in the
manner of database/sql drivers.
*/
package lp

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

var (
	ErrDuplicateConstraint = errors.New("duplicate constraint name")
	ErrForeignVariable     = errors.New("variable belongs to a different model")
	ErrInvalidBound        = errors.New("invalid bound")
)

/* Types */

type Model struct {
	mu          sync.RWMutex
	name        string
	dir         Direction
	vars        []*Variable
	constraints []*Constraint
	byName      map[string]*Constraint
}

type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "Maximize"
	}
	return "Minimize"
}

// Variable is a continuous decision variable of a Model.
type Variable struct {
	model       *Model
	index       int
	name        string
	coefficient float64
	lower       float64
	upper       float64
}

// Constraint is a named linear row of a Model.
type Constraint struct {
	name  string
	lower float64
	upper float64
	vars  []*Variable
	coefs []float64
}

/* Model related functions */

// NewModel instantiates a new linear programming model, providing a
// name (purely informational) and a optimization direction (either
// Minimize or Maximize)
func NewModel(name string, dir Direction) *Model {
	return &Model{
		name:   name,
		dir:    dir,
		byName: make(map[string]*Constraint),
	}
}

// Name returns the name provided upon instantiation of a model
func (model *Model) Name() string {
	return model.name
}

// Direction returns the model's optimization direction
func (model *Model) Direction() Direction {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return model.dir
}

/* Column-related functions */

func (model *Model) VariableCount() int {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return len(model.vars)
}

// Variables returns a new slice with the model's variables, in the order
// they were added.
func (model *Model) Variables() []*Variable {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return append([]*Variable(nil), model.vars...)
}

// AddVariable adds a continuous variable to the model with its objective
// coefficient and bounds. Pass math.Inf(-1) or math.Inf(1) for an absent
// lower or upper bound.
//
// A variable is bound to its model. Using it in constraints or results of
// another model is an error.
//
// Empty names will automatically replaced by a unique name.
func (model *Model) AddVariable(name string, coefficient, lowerBound, upperBound float64) (*Variable, error) {
	switch {
	case math.IsNaN(coefficient):
		return nil, fmt.Errorf("variable %q: objective coefficient is NaN", name)
	case math.IsNaN(lowerBound) || math.IsInf(lowerBound, 1):
		return nil, fmt.Errorf("variable %q: lower bound %v: %w", name, lowerBound, ErrInvalidBound)
	case math.IsNaN(upperBound) || math.IsInf(upperBound, -1):
		return nil, fmt.Errorf("variable %q: upper bound %v: %w", name, upperBound, ErrInvalidBound)
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	v := &Variable{
		model:       model,
		index:       len(model.vars),
		name:        name,
		coefficient: coefficient,
		lower:       lowerBound,
		upper:       upperBound,
	}
	if v.name == "" {
		v.name = fmt.Sprintf("V%d", v.index)
	}
	model.vars = append(model.vars, v)

	return v, nil
}

// SetObjectiveFunction defines the objective function for the model as
// a slice of coefficients and a slice of its respective variables.
// Variables not listed keep their current coefficient.
func (model *Model) SetObjectiveFunction(coefs []float64, vars []*Variable) error {
	if len(vars) != len(coefs) {
		return fmt.Errorf("inconsistent number of variables and coefficients: %d != %d", len(vars), len(coefs))
	}
	if err := model.owns(vars); err != nil {
		return err
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	for i, v := range vars {
		v.coefficient = coefs[i]
	}
	return nil
}

/* Constraint-related functions */

// ConstraintCount returns the number of individual constraints in
// the model
func (model *Model) ConstraintCount() int {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return len(model.constraints)
}

// Constraints returns a new slice with the model's constraints, in the
// order they were added.
func (model *Model) Constraints() []*Constraint {
	model.mu.RLock()
	defer model.mu.RUnlock()

	return append([]*Constraint(nil), model.constraints...)
}

// Constraint looks up a constraint by name.
func (model *Model) Constraint(name string) (*Constraint, bool) {
	model.mu.RLock()
	defer model.mu.RUnlock()

	c, ok := model.byName[name]
	return c, ok
}

// AddConstraint adds a named constraint to the model as a lower and an
// upper bound, a slice of variables and a slice of their respective
// coefficients. Names must be unique within the model; an empty name is
// replaced by a generated one.
func (model *Model) AddConstraint(name string, lower, upper float64, vars []*Variable, coefs []float64) error {
	if len(vars) != len(coefs) {
		return fmt.Errorf("inconsistent number of variables and coefficients: %d != %d", len(vars), len(coefs))
	}
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return fmt.Errorf("constraint %q: %w", name, ErrInvalidBound)
	}
	if err := model.owns(vars); err != nil {
		return fmt.Errorf("constraint %q: %w", name, err)
	}

	model.mu.Lock()
	defer model.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("R%d", len(model.constraints))
	}
	if _, exists := model.byName[name]; exists {
		return fmt.Errorf("constraint %q: %w", name, ErrDuplicateConstraint)
	}

	c := &Constraint{
		name:  name,
		lower: lower,
		upper: upper,
		vars:  append([]*Variable(nil), vars...),
		coefs: append([]float64(nil), coefs...),
	}
	model.constraints = append(model.constraints, c)
	model.byName[name] = c

	return nil
}

func (model *Model) owns(vars []*Variable) error {
	for _, v := range vars {
		if v == nil || v.model != model {
			return ErrForeignVariable
		}
	}
	return nil
}

// String renders the model in a human readable, LP-file like listing.
func (model *Model) String() string {
	model.mu.RLock()
	defer model.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n%s\n", model.name, model.dir)

	var obj []string
	for _, v := range model.vars {
		if v.coefficient != 0 {
			obj = append(obj, term(v.coefficient, v.name))
		}
	}
	if len(obj) == 0 {
		obj = append(obj, "0")
	}
	fmt.Fprintf(&b, "  obj: %s\n", joinTerms(obj))

	b.WriteString("Subject To\n")
	for _, c := range model.constraints {
		terms := make([]string, 0, len(c.vars))
		for i, v := range c.vars {
			terms = append(terms, term(c.coefs[i], v.name))
		}
		expr := "0"
		if len(terms) > 0 {
			expr = joinTerms(terms)
		}
		switch {
		case c.lower == c.upper:
			fmt.Fprintf(&b, "  %s: %s = %g\n", c.name, expr, c.upper)
		case math.IsInf(c.lower, -1) && math.IsInf(c.upper, 1):
			fmt.Fprintf(&b, "  %s: %s free\n", c.name, expr)
		case math.IsInf(c.lower, -1):
			fmt.Fprintf(&b, "  %s: %s <= %g\n", c.name, expr, c.upper)
		case math.IsInf(c.upper, 1):
			fmt.Fprintf(&b, "  %s: %s >= %g\n", c.name, expr, c.lower)
		default:
			fmt.Fprintf(&b, "  %s: %g <= %s <= %g\n", c.name, c.lower, expr, c.upper)
		}
	}

	b.WriteString("Bounds\n")
	for _, v := range model.vars {
		switch {
		case math.IsInf(v.lower, -1) && math.IsInf(v.upper, 1):
			fmt.Fprintf(&b, "  %s free\n", v.name)
		case math.IsInf(v.upper, 1):
			fmt.Fprintf(&b, "  %s >= %g\n", v.name, v.lower)
		case math.IsInf(v.lower, -1):
			fmt.Fprintf(&b, "  %s <= %g\n", v.name, v.upper)
		default:
			fmt.Fprintf(&b, "  %g <= %s <= %g\n", v.lower, v.name, v.upper)
		}
	}
	b.WriteString("End\n")

	return b.String()
}

func term(coef float64, name string) string {
	switch coef {
	case 1:
		return name
	case -1:
		return "-" + name
	}
	return fmt.Sprintf("%g %s", coef, name)
}

func joinTerms(terms []string) string {
	out := terms[0]
	for _, t := range terms[1:] {
		if strings.HasPrefix(t, "-") {
			out += " - " + strings.TrimPrefix(t, "-")
		} else {
			out += " + " + t
		}
	}
	return out
}

/* Variable-related functions (model variables, as opposed to Go variables) */

func (v *Variable) Name() string {
	return v.name
}

// Index is the position of the variable in its model, starting at 0.
func (v *Variable) Index() int {
	return v.index
}

func (v *Variable) Coefficient() float64 {
	v.model.mu.RLock()
	defer v.model.mu.RUnlock()

	return v.coefficient
}

// Bounds returns the variable's bounds; absent bounds are infinite.
func (v *Variable) Bounds() (lower, upper float64) {
	v.model.mu.RLock()
	defer v.model.mu.RUnlock()

	return v.lower, v.upper
}

/* Constraint accessors */

func (c *Constraint) Name() string {
	return c.name
}

// Bounds returns the constraint's bounds; absent bounds are infinite.
func (c *Constraint) Bounds() (lower, upper float64) {
	return c.lower, c.upper
}

// Terms returns copies of the constraint's variables and coefficients.
func (c *Constraint) Terms() ([]*Variable, []float64) {
	return append([]*Variable(nil), c.vars...), append([]float64(nil), c.coefs...)
}

// Coefficient returns the coefficient of v in the constraint, 0 when v
// does not appear in it.
func (c *Constraint) Coefficient(v *Variable) float64 {
	var sum float64
	for i, cv := range c.vars {
		if cv == v {
			sum += c.coefs[i]
		}
	}
	return sum
}

// Activity evaluates the constraint's linear expression for the given
// variable values, indexed like the model's variables.
func (c *Constraint) Activity(values []float64) float64 {
	var sum float64
	for i, v := range c.vars {
		sum += c.coefs[i] * values[v.index]
	}
	return sum
}
