package feedmix

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/feedmix/lp"
)

const (
	delta = 0.000001 // acceptable numerical deviation for test results
)

type scenario struct {
	energy, protein *Nutrient
	corn, sbm       *Ingredient
}

func newScenario() scenario {
	energy := MustNutrient("Energy", "", "kcal/kg")
	protein := MustNutrient("Protein", "", "%")
	return scenario{
		energy:  energy,
		protein: protein,
		corn: MustIngredient("Corn", "", 50).
			AddNutrient(energy, 3300).
			AddNutrient(protein, 7.5),
		sbm: MustIngredient("Soybean Meal", "", 100).
			AddNutrient(energy, 2550).
			AddNutrient(protein, 48),
	}
}

func (s scenario) formula(t *testing.T, opts ...Option) *Formula {
	t.Helper()

	f, err := NewFormula("Broiler", append([]Option{WithBatchSize(100)}, opts...)...)
	require.NoError(t, err)
	f.AddIngredients(
		IngredientBounds{Ingredient: s.corn},
		IngredientBounds{Ingredient: s.sbm},
	)
	f.AddNutrients(
		NutrientBounds{Nutrient: s.energy, Bounds: AtLeast(3000)},
		NutrientBounds{Nutrient: s.protein, Bounds: AtLeast(20)},
	)
	return f
}

// checkSolution verifies the properties every optimal formula has.
func checkSolution(t *testing.T, f *Formula) {
	t.Helper()

	require.Equal(t, lp.Optimal, f.Status())

	var total float64
	for _, fi := range f.Ingredients() {
		amount, ok := fi.Amount()
		require.True(t, ok, fi.Name())
		assert.True(t, fi.Bounds().Admits(amount, delta), "%s: %g not in %s", fi.Name(), amount, fi.Bounds())
		total += amount
	}
	assert.InDelta(t, f.BatchSize(), total, delta)

	for _, fn := range f.Nutrients() {
		amount, ok := fn.Amount()
		require.True(t, ok, fn.Name())
		assert.True(t, fn.Bounds().Admits(amount, delta), "%s: %g not in %s", fn.Name(), amount, fn.Bounds())
	}
}

func TestCornSoybean(t *testing.T) {
	s := newScenario()
	f := s.formula(t)

	require.NoError(t, f.Optimize(context.Background()))
	checkSolution(t, f)

	corn, _ := f.Ingredient(s.corn)
	sbm, _ := f.Ingredient(s.sbm)
	cornAmount, _ := corn.Amount()
	sbmAmount, _ := sbm.Amount()
	assert.InDelta(t, 5600.0/81, cornAmount, delta)
	assert.InDelta(t, 2500.0/81, sbmAmount, delta)

	// soybean meal alone meets both minimums at 100 per unit; corn alone
	// lacks protein
	assert.Less(t, f.Cost(), s.sbm.Cost())
	assert.InDelta(t, (50*5600.0/81+100*2500.0/81)/100, f.Cost(), delta)

	protein, _ := f.Nutrient(s.protein)
	amount, _ := protein.Amount()
	assert.InDelta(t, 20, amount, delta)

	percent, ok := corn.Percent()
	assert.True(t, ok)
	assert.InDelta(t, 56.0/81, percent, delta)

	cornOnly := MustFormula("corn only", WithBatchSize(100))
	cornOnly.AddIngredient(s.corn, Unbounded())
	cornOnly.AddNutrient(s.energy, AtLeast(3000))
	cornOnly.AddNutrient(s.protein, AtLeast(20))
	require.NoError(t, cornOnly.Optimize(context.Background()))
	assert.Equal(t, lp.Infeasible, cornOnly.Status())
}

func TestMud(t *testing.T) {
	carbon := MustNutrient("Carbon", "", "")
	moisture := MustNutrient("Moisture", "wetness", "")

	dirt := MustIngredient("Dirt", "", 10).AddNutrients(
		IngredientNutrient{Nutrient: carbon, Amount: 0.85},
		IngredientNutrient{Nutrient: moisture, Amount: 0.1},
	)
	water := MustIngredient("Water", "", 15).AddNutrient(moisture, 1)

	mud := MustFormula("Mud", WithBatchSize(2000))
	mud.AddIngredients(
		IngredientBounds{Ingredient: dirt},
		IngredientBounds{Ingredient: water},
	)
	mud.AddNutrients(
		NutrientBounds{Nutrient: carbon, Bounds: AtLeast(0.5)},
		NutrientBounds{Nutrient: moisture, Bounds: AtLeast(0.2)},
	)

	require.NoError(t, mud.Optimize(context.Background()))
	checkSolution(t, mud)

	d, _ := mud.Ingredient(dirt)
	amount, _ := d.Amount()
	assert.InDelta(t, 16000.0/9, amount, 1e-4)

	w, _ := mud.Ingredient(water)
	amount, _ = w.Amount()
	assert.InDelta(t, 2000.0/9, amount, 1e-4)

	assert.InDelta(t, (10*16000.0/9+15*2000.0/9)/2000, mud.Cost(), delta)
}

func TestCreateProblem(t *testing.T) {
	s := newScenario()
	f := s.formula(t)
	fiber := MustNutrient("Fiber", "", "%")
	f.AddNutrient(fiber, Unbounded())
	f.AddNutrient(s.protein, Between(20, 24))
	oil := MustIngredient("Oil", "", 0)
	f.AddIngredient(oil, AtMost(10))

	require.NoError(t, f.Solver().CreateProblem(nil))
	problem := f.Problem()
	require.NotNil(t, problem)

	assert.Equal(t, "Broiler", problem.Name())
	assert.Equal(t, lp.Minimize, problem.Direction())

	vars := problem.Variables()
	require.Len(t, vars, 3)
	assert.Equal(t, "corn", vars[0].Name())
	assert.Equal(t, 50.0, vars[0].Coefficient())
	assert.Equal(t, "oil", vars[2].Name())
	assert.Equal(t, 0.0, vars[2].Coefficient())
	lower, upper := vars[2].Bounds()
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 10.0, upper)
	_, upper = vars[0].Bounds()
	assert.True(t, math.IsInf(upper, 1))

	var names []string
	for _, c := range problem.Constraints() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{TotalConstraint, "min_Energy", "min_Protein", "max_Protein"}, names)

	total, _ := problem.Constraint(TotalConstraint)
	lower, upper = total.Bounds()
	assert.Equal(t, 100.0, lower)
	assert.Equal(t, 100.0, upper)

	energy, ok := problem.Constraint("min_Energy")
	require.True(t, ok)
	assert.Equal(t, 33.0, energy.Coefficient(vars[0]))
	assert.Equal(t, 25.5, energy.Coefficient(vars[1]))
	assert.Equal(t, 0.0, energy.Coefficient(vars[2]), "oil does not supply energy")
	terms, _ := energy.Terms()
	assert.Len(t, terms, 2)

	maxProtein, _ := problem.Constraint("max_Protein")
	lower, upper = maxProtein.Bounds()
	assert.True(t, math.IsInf(lower, -1))
	assert.Equal(t, 24.0, upper)
}

func TestDegenerateNutrient(t *testing.T) {
	s := newScenario()

	plain := s.formula(t)
	require.NoError(t, plain.Optimize(context.Background()))

	tracked := s.formula(t)
	fiber := MustNutrient("Fiber", "", "%")
	s.corn.AddNutrient(fiber, 2.5)
	tracked.AddNutrient(fiber, Unbounded())
	require.NoError(t, tracked.Optimize(context.Background()))

	assert.Equal(t, plain.Problem().ConstraintCount(), tracked.Problem().ConstraintCount())
	_, ok := tracked.Problem().Constraint("min_Fiber")
	assert.False(t, ok)
	_, ok = tracked.Problem().Constraint("max_Fiber")
	assert.False(t, ok)

	assert.Equal(t, plain.Status(), tracked.Status())
	assert.InDelta(t, plain.Cost(), tracked.Cost(), delta)

	// still reported
	fn, _ := tracked.Nutrient(fiber)
	amount, ok := fn.Amount()
	assert.True(t, ok)
	corn, _ := tracked.Ingredient(s.corn)
	percent, _ := corn.Percent()
	assert.InDelta(t, 2.5*percent, amount, delta)
}

func TestZeroMaximum(t *testing.T) {
	s := newScenario()
	f := s.formula(t)
	f.AddIngredient(s.sbm, AtMost(0))

	require.NoError(t, f.Optimize(context.Background()))
	assert.Equal(t, lp.Infeasible, f.Status())

	for _, fi := range f.Ingredients() {
		_, ok := fi.Amount()
		assert.False(t, ok, "amounts of an unsolvable formula are cleared")
	}
	for _, fn := range f.Nutrients() {
		_, ok := fn.Amount()
		assert.False(t, ok)
	}
	assert.Equal(t, 0.0, f.Cost())
}

func TestDuplicateNutrientNames(t *testing.T) {
	s := newScenario()
	f := s.formula(t)
	f.AddNutrient(MustNutrient("Energy", "energy2", ""), AtLeast(1))

	err := f.Optimize(context.Background())
	assert.ErrorIs(t, err, lp.ErrDuplicateConstraint)
	assert.Equal(t, lp.Unsolved, f.Status())
}

func TestCostReset(t *testing.T) {
	s := newScenario()
	f := s.formula(t)

	require.NoError(t, f.Optimize(context.Background()))
	cost := f.Cost()
	require.NoError(t, f.Optimize(context.Background()))
	assert.InDelta(t, cost, f.Cost(), delta, "repeated solves do not add up")
}

func TestCostAccumulation(t *testing.T) {
	s := newScenario()
	f := s.formula(t, WithCostAccumulation(true))

	require.NoError(t, f.Optimize(context.Background()))
	cost := f.Cost()
	require.NoError(t, f.Solver().SolveProblem(context.Background(), f))
	assert.InDelta(t, 2*cost, f.Cost(), delta)

	f.ResetCost()
	assert.Equal(t, 0.0, f.Cost())
	require.NoError(t, f.Optimize(context.Background()))
	assert.InDelta(t, cost, f.Cost(), delta)
}

func TestSolveBuildsProblem(t *testing.T) {
	s := newScenario()
	f := s.formula(t)
	require.Nil(t, f.Problem())

	require.NoError(t, f.Solver().SolveProblem(context.Background(), nil))
	assert.NotNil(t, f.Problem())
	checkSolution(t, f)

	// bounds changed after building only apply once rebuilt
	problem := f.Problem()
	f.AddIngredient(s.sbm, AtLeast(35))
	require.NoError(t, f.Solver().SolveProblem(context.Background(), nil))
	assert.Same(t, problem, f.Problem())

	require.NoError(t, f.Optimize(context.Background()))
	assert.NotSame(t, problem, f.Problem())
	sbm, _ := f.Ingredient(s.sbm)
	amount, _ := sbm.Amount()
	assert.InDelta(t, 35, amount, delta)
}

func TestSolverForOtherFormula(t *testing.T) {
	s := newScenario()
	owner := s.formula(t)
	other := s.formula(t)

	require.NoError(t, owner.Solver().Optimize(context.Background(), other))
	assert.Equal(t, lp.Optimal, other.Status())
	assert.Equal(t, lp.Unsolved, owner.Status())

	err := NewFormulaSolver(nil, nil, nil).Optimize(context.Background(), nil)
	assert.Error(t, err)
}

func TestCrossedIngredientBounds(t *testing.T) {
	s := newScenario()
	f := s.formula(t)
	f.AddIngredient(s.corn, Between(30, 20))

	require.NoError(t, f.Optimize(context.Background()))
	assert.Equal(t, lp.Infeasible, f.Status())
	corn, _ := f.Ingredient(s.corn)
	_, ok := corn.Amount()
	assert.False(t, ok)
	assert.Equal(t, 0.0, f.Cost())
}

func TestEmptyFormula(t *testing.T) {
	f := MustFormula("empty", WithBatchSize(10))

	require.NoError(t, f.Optimize(context.Background()))
	assert.Equal(t, lp.Infeasible, f.Status(), "nothing can fill the batch")
}

func TestBackendFailure(t *testing.T) {
	broken := errors.New("engine on fire")
	s := newScenario()
	f := s.formula(t, WithSolver(lp.SolverFunc(func(ctx context.Context, model *lp.Model) (*lp.Result, error) {
		return nil, broken
	})))

	err := f.Optimize(context.Background())
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, lp.Unsolved, f.Status())
}

func TestBackendWithoutValues(t *testing.T) {
	s := newScenario()
	f := s.formula(t, WithSolver(lp.SolverFunc(func(ctx context.Context, model *lp.Model) (*lp.Result, error) {
		return lp.NewResult(lp.NotSolved, 0, nil), nil
	})))
	f.AddIngredientAmount(s.corn, 10, Unbounded())

	require.NoError(t, f.Optimize(context.Background()))
	assert.Equal(t, lp.NotSolved, f.Status())
	corn, _ := f.Ingredient(s.corn)
	_, ok := corn.Amount()
	assert.False(t, ok)
}

func TestCancelledOptimize(t *testing.T) {
	s := newScenario()
	f := s.formula(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Optimize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type logRecorder struct {
	lines []string
}

func (l *logRecorder) Print(v ...interface{}) {
	for _, s := range v {
		if str, ok := s.(string); ok {
			l.lines = append(l.lines, str)
		}
	}
}

func TestOptimizeLogs(t *testing.T) {
	logger := &logRecorder{}
	s := newScenario()
	f := s.formula(t, WithLogger(logger))

	require.NoError(t, f.Optimize(context.Background()))
	require.NotEmpty(t, logger.lines)
	assert.Contains(t, logger.lines[len(logger.lines)-1], "Optimal")
}
