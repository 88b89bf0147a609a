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
Package feedmix computes least-cost mixtures: given ingredients with a cost
and a nutrient content, it finds the ingredient quantities of a fixed-size
batch that satisfy every nutrient bound at minimum cost.

A formula binds catalog items to bounds and is then optimized:

	energy := feedmix.MustNutrient("Energy", "", "kcal/kg")
	protein := feedmix.MustNutrient("Protein", "", "%")

	corn := feedmix.MustIngredient("Corn", "", 50).
		AddNutrient(energy, 3300).
		AddNutrient(protein, 7.5)
	sbm := feedmix.MustIngredient("Soybean Meal", "sbm", 100).
		AddNutrient(energy, 2550).
		AddNutrient(protein, 48)

	formula, _ := feedmix.NewFormula("Broiler", feedmix.WithBatchSize(100))
	formula.AddIngredients(
		feedmix.IngredientBounds{Ingredient: corn},
		feedmix.IngredientBounds{Ingredient: sbm},
	)
	formula.AddNutrient(energy, feedmix.AtLeast(3000))
	formula.AddNutrient(protein, feedmix.AtLeast(20))

	if err := formula.Optimize(ctx); err != nil {
		// the model was broken or the solver failed
	}

	fmt.Println(formula.Status(), formula.Cost())
	for _, fi := range formula.Ingredients() {
		amount, _ := fi.Amount()
		fmt.Println(fi.Name(), amount)
	}

An infeasible or unbounded formula is not an error: it shows in Status.
*/
package feedmix

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/costela/feedmix/lp"
	"github.com/costela/feedmix/lp/simplex"
)

// ErrInvalidBatchSize is returned for batch sizes that are not positive.
var ErrInvalidBatchSize = errors.New("batch size must be positive")

// DeriveMode decides what DeriveFrom does with items present on both
// formulas.
type DeriveMode int

const (
	// DeriveOverwrite replaces local amounts and bounds with the source's.
	DeriveOverwrite DeriveMode = iota
	// DeriveSkipExisting keeps local entries and only adds missing ones.
	DeriveSkipExisting
)

func (m DeriveMode) String() string {
	switch m {
	case DeriveOverwrite:
		return "overwrite"
	case DeriveSkipExisting:
		return "skip-existing"
	}
	return fmt.Sprintf("DeriveMode(%d)", int(m))
}

// Formula is a named target mixture: a batch size, bounded ingredients and
// bounded nutrients. It owns the bound items and the solver that fills in
// their amounts.
//
// A Formula is safe for concurrent use. Bound items returned by its
// accessors are updated in place by Optimize and must not be read while it
// runs.
type Formula struct {
	mu sync.Mutex

	name      string
	code      string
	batchSize float64
	unit      string

	cost   float64
	status lp.Status

	ingredients   []*FormulaIngredient
	nutrients     []*FormulaNutrient
	ingredientIdx map[*Ingredient]int
	nutrientIdx   map[*Nutrient]int

	problem  *lp.Model
	bindings []binding

	backend        lp.Solver
	solver         *FormulaSolver
	accumulateCost bool
	deriveMode     DeriveMode
	logger         Logger
}

// binding ties a formula ingredient to its variable in the problem.
type binding struct {
	ingredient *FormulaIngredient
	variable   *lp.Variable
}

// NewFormula creates an empty formula with a batch size of 1, solved with
// the simplex backend unless told otherwise.
func NewFormula(name string, opts ...Option) (*Formula, error) {
	f := &Formula{
		name:          name,
		batchSize:     1,
		status:        lp.Unsolved,
		ingredientIdx: make(map[*Ingredient]int),
		nutrientIdx:   make(map[*Nutrient]int),
		logger:        noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("formula %q: applying option: %w", name, err)
		}
	}

	code, err := resolveCode(name, f.code)
	if err != nil {
		return nil, fmt.Errorf("formula: %w", err)
	}
	f.code = code

	if f.backend == nil {
		f.backend = simplex.New(simplex.WithLogger(f.logger))
	}
	f.solver = NewFormulaSolver(f, f.backend, f.logger)

	return f, nil
}

// MustFormula is like NewFormula but panics on error.
func MustFormula(name string, opts ...Option) *Formula {
	f, err := NewFormula(name, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formula) Name() string { return f.name }
func (f *Formula) Code() string { return f.code }
func (f *Formula) Unit() string { return f.unit }

func (f *Formula) BatchSize() float64 { return f.batchSize }

/* Ingredient related functions */

// AddIngredient binds ing to the formula with the given bounds. Adding an
// ingredient that is already bound updates that entry in place and clears
// its amount.
func (f *Formula) AddIngredient(ing *Ingredient, bounds Bounds) *FormulaIngredient {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.addIngredient(ing, quantity{}, bounds)
}

// AddIngredientAmount is like AddIngredient but also presets the amount.
func (f *Formula) AddIngredientAmount(ing *Ingredient, amount float64, bounds Bounds) *FormulaIngredient {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.addIngredient(ing, some(amount), bounds)
}

// AddIngredients binds several ingredients, in order.
func (f *Formula) AddIngredients(entries ...IngredientBounds) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range entries {
		f.addIngredient(e.Ingredient, quantity{}, e.Bounds)
	}
}

func (f *Formula) addIngredient(ing *Ingredient, amount quantity, bounds Bounds) *FormulaIngredient {
	if i, ok := f.ingredientIdx[ing]; ok {
		fi := f.ingredients[i]
		fi.amount = amount
		fi.bounds = bounds
		return fi
	}

	fi := &FormulaIngredient{
		ingredient: ing,
		amount:     amount,
		bounds:     bounds,
		formula:    f,
	}
	f.ingredientIdx[ing] = len(f.ingredients)
	f.ingredients = append(f.ingredients, fi)
	return fi
}

// Ingredients returns the formula's ingredients in the order they were
// first added.
func (f *Formula) Ingredients() []*FormulaIngredient {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*FormulaIngredient(nil), f.ingredients...)
}

// Ingredient returns the entry bound to ing, if any.
func (f *Formula) Ingredient(ing *Ingredient) (*FormulaIngredient, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.ingredientIdx[ing]
	if !ok {
		return nil, false
	}
	return f.ingredients[i], true
}

/* Nutrient related functions */

// AddNutrient binds n to the formula with bounds on its concentration in
// the finished batch. Like AddIngredient, it updates an existing entry.
func (f *Formula) AddNutrient(n *Nutrient, bounds Bounds) *FormulaNutrient {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.addNutrient(n, quantity{}, bounds)
}

func (f *Formula) AddNutrientAmount(n *Nutrient, amount float64, bounds Bounds) *FormulaNutrient {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.addNutrient(n, some(amount), bounds)
}

// AddNutrients binds several nutrients, in order.
func (f *Formula) AddNutrients(entries ...NutrientBounds) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range entries {
		f.addNutrient(e.Nutrient, quantity{}, e.Bounds)
	}
}

func (f *Formula) addNutrient(n *Nutrient, amount quantity, bounds Bounds) *FormulaNutrient {
	if i, ok := f.nutrientIdx[n]; ok {
		fn := f.nutrients[i]
		fn.amount = amount
		fn.bounds = bounds
		return fn
	}

	fn := &FormulaNutrient{
		nutrient: n,
		amount:   amount,
		bounds:   bounds,
		formula:  f,
	}
	f.nutrientIdx[n] = len(f.nutrients)
	f.nutrients = append(f.nutrients, fn)
	return fn
}

func (f *Formula) Nutrients() []*FormulaNutrient {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*FormulaNutrient(nil), f.nutrients...)
}

// Nutrient returns the entry bound to n, if any.
func (f *Formula) Nutrient(n *Nutrient) (*FormulaNutrient, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.nutrientIdx[n]
	if !ok {
		return nil, false
	}
	return f.nutrients[i], true
}

// Items returns every bound item: ingredients first, then nutrients.
func (f *Formula) Items() []BoundItem {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]BoundItem, 0, len(f.ingredients)+len(f.nutrients))
	for _, fi := range f.ingredients {
		items = append(items, fi)
	}
	for _, fn := range f.nutrients {
		items = append(items, fn)
	}
	return items
}

// DeriveFrom copies the bound items of other, with their amounts and
// bounds, into f. Items bound on both formulas are handled according to
// the formula's DeriveMode.
func (f *Formula) DeriveFrom(other *Formula) {
	if other == f {
		return
	}

	// copy first, so other is never locked together with f
	other.mu.Lock()
	ingredients := make([]FormulaIngredient, len(other.ingredients))
	for i, fi := range other.ingredients {
		ingredients[i] = *fi
	}
	nutrients := make([]FormulaNutrient, len(other.nutrients))
	for i, fn := range other.nutrients {
		nutrients[i] = *fn
	}
	other.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, fi := range ingredients {
		if _, exists := f.ingredientIdx[fi.ingredient]; exists && f.deriveMode == DeriveSkipExisting {
			continue
		}
		f.addIngredient(fi.ingredient, fi.amount, fi.bounds)
	}
	for _, fn := range nutrients {
		if _, exists := f.nutrientIdx[fn.nutrient]; exists && f.deriveMode == DeriveSkipExisting {
			continue
		}
		f.addNutrient(fn.nutrient, fn.amount, fn.bounds)
	}
}

/* Solving related functions */

// Optimize rebuilds the formula's problem from its current bounds and
// solves it. A formula that cannot be mixed is not an error: check
// Status afterwards.
func (f *Formula) Optimize(ctx context.Context) error {
	return f.solver.Optimize(ctx, f)
}

// Cost returns the cost of one unit of the mixture as of the last solve.
func (f *Formula) Cost() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cost
}

// ResetCost sets the cost back to 0. Only useful together with
// WithCostAccumulation.
func (f *Formula) ResetCost() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cost = 0
}

// Status returns the outcome of the last solve, lp.Unsolved before that.
func (f *Formula) Status() lp.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.status
}

// Problem returns the last built problem, or nil.
func (f *Formula) Problem() *lp.Model {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.problem
}

func (f *Formula) Solver() *FormulaSolver {
	return f.solver
}

func (f *Formula) String() string {
	return fmt.Sprintf("%s (%s)", f.name, f.code)
}
