// Package lptest holds conformance cases every lp backend must pass.
package lptest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/feedmix/lp"
)

// Delta is the acceptable numerical deviation for results.
const Delta = 0.0000001

// Run exercises solver against the shared cases.
func Run(t *testing.T, solver lp.Solver) {
	t.Helper()

	t.Run("Maximize", func(t *testing.T) { testMaximize(t, solver) })
	t.Run("Minimize", func(t *testing.T) { testMinimize(t, solver) })
	t.Run("Bounds", func(t *testing.T) { testBounds(t, solver) })
	t.Run("FreeVariable", func(t *testing.T) { testFreeVariable(t, solver) })
	t.Run("Infeasible", func(t *testing.T) { testInfeasible(t, solver) })
	t.Run("Unbounded", func(t *testing.T) { testUnbounded(t, solver) })
	t.Run("CrossedBounds", func(t *testing.T) { testCrossedBounds(t, solver) })
	t.Run("Empty", func(t *testing.T) { testEmpty(t, solver) })
	t.Run("Cancelled", func(t *testing.T) { testCancelled(t, solver) })
}

func testMaximize(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("test", lp.Maximize)

	x1, _ := model.AddVariable("x1", 1, 0, math.Inf(1))
	x2, _ := model.AddVariable("x2", 2, 0, math.Inf(1))
	x3, _ := model.AddVariable("x3", -1, 0, math.Inf(1))

	xs := []*lp.Variable{x1, x2, x3}
	require.NoError(t, model.AddConstraint("c1", 0, 14, xs, []float64{2, 1, 1}))
	require.NoError(t, model.AddConstraint("c2", 0, 28, xs, []float64{4, 2, 3}))
	require.NoError(t, model.AddConstraint("c3", 0, 30, xs, []float64{2, 5, 5}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)

	expectedXs := []float64{5, 4, 0}
	expectedObj := 13.0

	assert.Equal(t, lp.Optimal, res.Status())

	// ignore numerical inaccuracies
	assert.InDelta(t, expectedObj, res.ObjectiveValue(), Delta)

	for i, x := range xs {
		v, ok := res.Value(x)
		require.True(t, ok)
		assert.InDelta(t, expectedXs[i], v, Delta)
	}
}

func testMinimize(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("mud", lp.Minimize)

	dirt, _ := model.AddVariable("dirt", 10, 0, math.Inf(1))
	water, _ := model.AddVariable("water", 15, 0, math.Inf(1))
	both := []*lp.Variable{dirt, water}

	require.NoError(t, model.AddConstraint("total", 2000, 2000, both, []float64{1, 1}))
	require.NoError(t, model.AddConstraint("min_carbon", 0.5, math.Inf(1), both, []float64{0.85 / 2000, 0}))
	require.NoError(t, model.AddConstraint("min_moisture", 0.2, math.Inf(1), both, []float64{0.1 / 2000, 1.0 / 2000}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	require.Equal(t, lp.Optimal, res.Status())

	d, _ := res.Value(dirt)
	w, _ := res.Value(water)
	assert.InDelta(t, 16000.0/9, d, 1e-6)
	assert.InDelta(t, 2000-16000.0/9, w, 1e-6)
	assert.InDelta(t, 10*d+15*w, res.ObjectiveValue(), 1e-6)
	assert.True(t, lp.Satisfies(model, res.Values(), 1e-7))
}

func testBounds(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("bounds", lp.Minimize)

	cheap, _ := model.AddVariable("cheap", 1, 2, 6)
	dear, _ := model.AddVariable("dear", 5, -1, math.Inf(1))
	both := []*lp.Variable{cheap, dear}

	require.NoError(t, model.AddConstraint("total", 10, 10, both, []float64{1, 1}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	require.Equal(t, lp.Optimal, res.Status())

	c, _ := res.Value(cheap)
	d, _ := res.Value(dear)
	assert.InDelta(t, 6, c, Delta)
	assert.InDelta(t, 4, d, Delta)
	assert.InDelta(t, 26, res.ObjectiveValue(), Delta)
}

func testFreeVariable(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("free", lp.Minimize)

	x, _ := model.AddVariable("x", 1, math.Inf(-1), math.Inf(1))
	y, _ := model.AddVariable("y", 0, math.Inf(-1), 3)

	require.NoError(t, model.AddConstraint("floor", -4, math.Inf(1), []*lp.Variable{x}, []float64{1}))
	require.NoError(t, model.AddConstraint("link", 0, 0, []*lp.Variable{x, y}, []float64{1, -1}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	require.Equal(t, lp.Optimal, res.Status())

	v, _ := res.Value(x)
	assert.InDelta(t, -4, v, Delta)
	v, _ = res.Value(y)
	assert.InDelta(t, -4, v, Delta)
}

func testInfeasible(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("infeasible", lp.Minimize)

	x, _ := model.AddVariable("x", 1, 0, 10)
	y, _ := model.AddVariable("y", 1, 0, 10)

	require.NoError(t, model.AddConstraint("total", 100, 100, []*lp.Variable{x, y}, []float64{1, 1}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, lp.Infeasible, res.Status())
}

func testUnbounded(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("unbounded", lp.Maximize)

	x, _ := model.AddVariable("x", 1, 0, math.Inf(1))
	y, _ := model.AddVariable("y", 1, 0, math.Inf(1))

	require.NoError(t, model.AddConstraint("floor", 1, math.Inf(1), []*lp.Variable{x, y}, []float64{1, 1}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, lp.Unbounded, res.Status())
}

// Crossed bounds make a model infeasible, they are not an engine error.
func testCrossedBounds(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("crossed", lp.Minimize)

	x, _ := model.AddVariable("x", 1, 30, 20)
	y, _ := model.AddVariable("y", 1, 0, math.Inf(1))
	both := []*lp.Variable{x, y}

	require.NoError(t, model.AddConstraint("total", 100, 100, both, []float64{1, 1}))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, lp.Infeasible, res.Status())
	assert.False(t, res.HasValues())

	model = lp.NewModel("crossed row", lp.Minimize)
	x, _ = model.AddVariable("x", 1, 0, math.Inf(1))
	require.NoError(t, model.AddConstraint("window", 40, 10, []*lp.Variable{x}, []float64{1}))

	res, err = solver.Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, lp.Infeasible, res.Status())
}

func testEmpty(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("empty", lp.Minimize)
	require.NoError(t, model.AddConstraint("total", 1, 1, nil, nil))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, lp.Infeasible, res.Status())
}

func testCancelled(t *testing.T, solver lp.Solver) {
	model := lp.NewModel("cancelled", lp.Minimize)
	x, _ := model.AddVariable("x", 1, 0, 1)
	require.NoError(t, model.AddConstraint("total", 1, 1, []*lp.Variable{x}, []float64{1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := solver.Solve(ctx, model)
	assert.True(t, errors.Is(err, context.Canceled))
}
