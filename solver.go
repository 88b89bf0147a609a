package feedmix

import (
	"context"
	"fmt"
	"math"

	"github.com/costela/feedmix/lp"
)

// TotalConstraint names the constraint holding the ingredient amounts to
// the batch size.
const TotalConstraint = "total"

// FormulaSolver translates a formula into a linear program, hands it to an
// lp backend and writes the solution back into the formula.
//
// Every method takes the formula to work on; nil selects the formula the
// solver was created for.
type FormulaSolver struct {
	formula *Formula
	backend lp.Solver
	logger  Logger
}

func NewFormulaSolver(f *Formula, backend lp.Solver, logger Logger) *FormulaSolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &FormulaSolver{
		formula: f,
		backend: backend,
		logger:  logger,
	}
}

func (s *FormulaSolver) target(f *Formula) (*Formula, error) {
	if f == nil {
		f = s.formula
	}
	if f == nil {
		return nil, fmt.Errorf("no formula to solve")
	}
	return f, nil
}

// CreateProblem builds the linear program for f, replacing any earlier
// one:
//
//	minimize   Σ cost_i x_i
//	subject to Σ x_i = batch size                            (total)
//	           Σ (content_i,n / batch size) x_i >= min_n    (min_<nutrient>)
//	           Σ (content_i,n / batch size) x_i <= max_n    (max_<nutrient>)
//	           min_i <= x_i <= max_i
//
// A nutrient gets a minimum row only for a non-zero minimum and a maximum
// row only when it has a maximum; one without either is merely reported.
func (s *FormulaSolver) CreateProblem(f *Formula) error {
	f, err := s.target(f)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return s.createProblem(f)
}

func (s *FormulaSolver) createProblem(f *Formula) error {
	model := lp.NewModel(f.name, lp.Minimize)
	bindings := make([]binding, 0, len(f.ingredients))
	vars := make([]*lp.Variable, 0, len(f.ingredients))

	var (
		costed []*lp.Variable
		costs  []float64
	)
	for _, fi := range f.ingredients {
		v, err := model.AddVariable(fi.Code(), 0, fi.bounds.Minimum(), fi.bounds.Upper())
		if err != nil {
			return fmt.Errorf("formula %q: ingredient %q: %w", f.name, fi.Name(), err)
		}
		bindings = append(bindings, binding{ingredient: fi, variable: v})
		vars = append(vars, v)

		// free ingredients stay out of the objective
		if cost := fi.Cost(); cost != 0 {
			costed = append(costed, v)
			costs = append(costs, cost)
		}
	}
	if err := model.SetObjectiveFunction(costs, costed); err != nil {
		return fmt.Errorf("formula %q: %w", f.name, err)
	}

	ones := make([]float64, len(vars))
	for i := range ones {
		ones[i] = 1
	}
	if err := model.AddConstraint(TotalConstraint, f.batchSize, f.batchSize, vars, ones); err != nil {
		return fmt.Errorf("formula %q: %w", f.name, err)
	}

	for _, fn := range f.nutrients {
		max, hasMax := fn.bounds.Maximum()
		min := fn.bounds.Minimum()
		if min == 0 && !hasMax {
			continue
		}

		var (
			terms []*lp.Variable
			coefs []float64
		)
		for _, b := range bindings {
			content, ok := b.ingredient.ingredient.NutrientAmount(fn.nutrient)
			if !ok {
				continue
			}
			terms = append(terms, b.variable)
			coefs = append(coefs, content/f.batchSize)
		}

		if min != 0 {
			if err := model.AddConstraint("min_"+fn.Name(), min, math.Inf(1), terms, coefs); err != nil {
				return fmt.Errorf("formula %q: %w", f.name, err)
			}
		}
		if hasMax {
			if err := model.AddConstraint("max_"+fn.Name(), math.Inf(-1), max, terms, coefs); err != nil {
				return fmt.Errorf("formula %q: %w", f.name, err)
			}
		}
	}

	f.problem = model
	f.bindings = bindings

	return nil
}

// SolveProblem solves the problem of f, building it first if there is
// none yet, and stores the outcome on the formula: its status and cost,
// every ingredient amount and the resulting nutrient concentrations.
//
// Only a broken problem, a failing backend or a done context are errors.
// An infeasible formula is reported through its status and has its
// amounts cleared.
func (s *FormulaSolver) SolveProblem(ctx context.Context, f *Formula) error {
	f, err := s.target(f)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.problem == nil {
		if err := s.createProblem(f); err != nil {
			return err
		}
	}

	return s.solveProblem(ctx, f)
}

// Optimize always rebuilds the problem from the current bounds, then
// solves it.
func (s *FormulaSolver) Optimize(ctx context.Context, f *Formula) error {
	f, err := s.target(f)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := s.createProblem(f); err != nil {
		return err
	}

	return s.solveProblem(ctx, f)
}

func (s *FormulaSolver) solveProblem(ctx context.Context, f *Formula) error {
	res, err := s.backend.Solve(ctx, f.problem)
	if err != nil {
		return fmt.Errorf("formula %q: solving: %w", f.name, err)
	}

	f.status = res.Status()
	if !f.accumulateCost {
		f.cost = 0
	}

	if !res.HasValues() {
		s.logger.Print(fmt.Sprintf("formula %q: %s, no solution values", f.name, f.status))
		for _, b := range f.bindings {
			b.ingredient.amount = quantity{}
		}
		for _, fn := range f.nutrients {
			fn.amount = quantity{}
		}
		return nil
	}

	for _, b := range f.bindings {
		value, ok := res.Value(b.variable)
		if !ok {
			b.ingredient.amount = quantity{}
			continue
		}
		b.ingredient.amount = some(value)
		f.cost += b.ingredient.Cost() * value / f.batchSize
	}

	for _, fn := range f.nutrients {
		var total float64
		for _, fi := range f.ingredients {
			amount, ok := fi.amount.get()
			if !ok {
				continue
			}
			if content, ok := fi.ingredient.NutrientAmount(fn.nutrient); ok {
				total += amount * content
			}
		}
		fn.amount = some(total / f.batchSize)
	}

	s.logger.Print(fmt.Sprintf("formula %q: %s, cost %g", f.name, f.status, f.cost))

	return nil
}
