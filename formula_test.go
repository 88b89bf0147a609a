package feedmix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/feedmix/lp"
)

func TestFormulaInstantiation(t *testing.T) {
	f, err := NewFormula("Mud Pie")
	require.NoError(t, err)

	assert.Equal(t, "Mud Pie", f.Name())
	assert.Equal(t, "mud_pie", f.Code())
	assert.Equal(t, 1.0, f.BatchSize())
	assert.Equal(t, lp.Unsolved, f.Status())
	assert.Equal(t, 0.0, f.Cost())
	assert.Nil(t, f.Problem())
	assert.NotNil(t, f.Solver())

	f, err = NewFormula("Starter", WithCode("B1"), WithBatchSize(100), WithUnit("kg"))
	require.NoError(t, err)
	assert.Equal(t, "B1", f.Code())
	assert.Equal(t, 100.0, f.BatchSize())
	assert.Equal(t, "kg", f.Unit())
}

func TestFormulaInvalidOptions(t *testing.T) {
	for _, size := range []float64{0, -1} {
		_, err := NewFormula("bad", WithBatchSize(size))
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	}

	_, err := NewFormula("bad", WithSolver(nil))
	assert.Error(t, err)

	_, err = NewFormula("bad", WithDeriveMode(DeriveMode(7)))
	assert.Error(t, err)
}

func TestAddIngredientUpsert(t *testing.T) {
	corn := MustIngredient("Corn", "", 50)
	f := MustFormula("f", WithBatchSize(100))

	first := f.AddIngredient(corn, AtMost(60))
	second := f.AddIngredient(corn, AtMost(60))

	assert.Same(t, first, second)
	assert.Len(t, f.Ingredients(), 1)

	f.AddIngredientAmount(corn, 40, Between(10, 50))
	require.Len(t, f.Ingredients(), 1)
	fi := f.Ingredients()[0]
	assert.Equal(t, Between(10, 50), fi.Bounds())
	amount, ok := fi.Amount()
	assert.True(t, ok)
	assert.Equal(t, 40.0, amount)
	assert.Same(t, f, fi.Formula())

	// the amount is cleared when not given again
	f.AddIngredient(corn, Unbounded())
	_, ok = fi.Amount()
	assert.False(t, ok)

	got, ok := f.Ingredient(corn)
	assert.True(t, ok)
	assert.Same(t, fi, got)

	_, ok = f.Ingredient(MustIngredient("Corn", "", 50))
	assert.False(t, ok, "a different ingredient with the same name is a different entry")
}

func TestAddNutrientUpsert(t *testing.T) {
	energy := MustNutrient("Energy", "", "kcal/kg")
	f := MustFormula("f")

	f.AddNutrients(
		NutrientBounds{Nutrient: energy, Bounds: AtLeast(3000)},
		NutrientBounds{Nutrient: energy, Bounds: AtLeast(3100)},
	)
	nutrients := f.Nutrients()
	require.Len(t, nutrients, 1)
	assert.Equal(t, AtLeast(3100), nutrients[0].Bounds())
	assert.Equal(t, "kcal/kg", nutrients[0].Unit())

	fn := f.AddNutrientAmount(energy, 3050, AtLeast(3000))
	amount, ok := fn.Amount()
	assert.True(t, ok)
	assert.Equal(t, 3050.0, amount)

	got, ok := f.Nutrient(energy)
	assert.True(t, ok)
	assert.Same(t, fn, got)
}

func TestItemsOrder(t *testing.T) {
	energy := MustNutrient("Energy", "", "")
	protein := MustNutrient("Protein", "", "")
	corn := MustIngredient("Corn", "", 50)
	sbm := MustIngredient("Soybean Meal", "", 100)

	f := MustFormula("f")
	f.AddNutrient(energy, Unbounded())
	f.AddIngredient(sbm, Unbounded())
	f.AddNutrient(protein, Unbounded())
	f.AddIngredient(corn, Unbounded())

	var codes []string
	for _, item := range f.Items() {
		codes = append(codes, item.Code())
	}
	assert.Equal(t, []string{"soybean_meal", "corn", "energy", "protein"}, codes)
}

func TestIngredientPercent(t *testing.T) {
	energy := MustNutrient("Energy", "", "")
	protein := MustNutrient("Protein", "", "")
	corn := MustIngredient("Corn", "", 50).AddNutrient(energy, 3300)

	f := MustFormula("f", WithBatchSize(200), WithUnit("kg"))

	fi := f.AddIngredient(corn, Unbounded())
	_, ok := fi.Percent()
	assert.False(t, ok, "no amount yet")
	_, ok = fi.CostPerBatch()
	assert.False(t, ok)
	_, ok = fi.Contribution(energy)
	assert.False(t, ok)
	assert.Equal(t, "kg", fi.Unit())

	f.AddIngredientAmount(corn, 0, Unbounded())
	percent, ok := fi.Percent()
	assert.True(t, ok, "a zero amount is still an amount")
	assert.Equal(t, 0.0, percent)

	f.AddIngredientAmount(corn, 50, Unbounded())
	percent, ok = fi.Percent()
	assert.True(t, ok)
	assert.InDelta(t, 0.25, percent, delta)

	cost, ok := fi.CostPerBatch()
	assert.True(t, ok)
	assert.InDelta(t, 12.5, cost, delta)

	contribution, ok := fi.Contribution(energy)
	assert.True(t, ok)
	assert.InDelta(t, 825, contribution, delta)

	_, ok = fi.Contribution(protein)
	assert.False(t, ok, "corn does not supply protein")

	batch, ok := fi.BatchSize()
	assert.True(t, ok)
	assert.Equal(t, 200.0, batch)

	var loose FormulaIngredient
	_, ok = loose.BatchSize()
	assert.False(t, ok)
	_, ok = loose.Percent()
	assert.False(t, ok)
}

func TestDeriveFrom(t *testing.T) {
	energy := MustNutrient("Energy", "", "")
	protein := MustNutrient("Protein", "", "")
	corn := MustIngredient("Corn", "", 50)
	oil := MustIngredient("Oil", "", 150)

	base := MustFormula("base")
	base.AddIngredient(corn, Unbounded())
	base.AddIngredientAmount(oil, 2, AtMost(10))
	base.AddNutrient(energy, AtLeast(3000))
	base.AddNutrient(protein, AtLeast(20))

	t.Run("Overwrite", func(t *testing.T) {
		f := MustFormula("derived")
		f.AddIngredient(oil, AtMost(5))
		f.AddNutrient(energy, AtLeast(3200))

		f.DeriveFrom(base)

		ingredients := f.Ingredients()
		require.Len(t, ingredients, 2)
		assert.Same(t, oil, ingredients[0].Ingredient())
		assert.Equal(t, AtMost(10), ingredients[0].Bounds())
		amount, ok := ingredients[0].Amount()
		assert.True(t, ok)
		assert.Equal(t, 2.0, amount)
		assert.Same(t, corn, ingredients[1].Ingredient())
		assert.Same(t, f, ingredients[1].Formula())

		nutrients := f.Nutrients()
		require.Len(t, nutrients, 2)
		assert.Equal(t, AtLeast(3000), nutrients[0].Bounds())
	})

	t.Run("SkipExisting", func(t *testing.T) {
		f := MustFormula("derived", WithDeriveMode(DeriveSkipExisting))
		f.AddIngredient(oil, AtMost(5))
		f.AddNutrient(energy, AtLeast(3200))

		f.DeriveFrom(base)

		ingredients := f.Ingredients()
		require.Len(t, ingredients, 2)
		assert.Equal(t, AtMost(5), ingredients[0].Bounds())
		_, ok := ingredients[0].Amount()
		assert.False(t, ok)

		nutrients := f.Nutrients()
		require.Len(t, nutrients, 2)
		assert.Equal(t, AtLeast(3200), nutrients[0].Bounds())
		assert.Equal(t, AtLeast(20), nutrients[1].Bounds())
	})

	t.Run("Self", func(t *testing.T) {
		base.DeriveFrom(base)
		assert.Len(t, base.Ingredients(), 2)
	})

	// the source is left untouched
	bounds, _ := base.Ingredient(oil)
	assert.Equal(t, AtMost(10), bounds.Bounds())
	assert.Same(t, base, bounds.Formula())
}

func TestDeriveModeString(t *testing.T) {
	assert.Equal(t, "overwrite", DeriveOverwrite.String())
	assert.Equal(t, "skip-existing", DeriveSkipExisting.String())
	assert.Equal(t, "DeriveMode(9)", DeriveMode(9).String())
}
