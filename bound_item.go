package feedmix

// BoundItem is a catalog item as it takes part in one formula: with
// formula-scoped bounds and, once solved, a resolved amount.
type BoundItem interface {
	Item
	// Amount is the resolved quantity; ok is false while there is none.
	Amount() (amount float64, ok bool)
	Bounds() Bounds
	// Formula is the formula the item was added to.
	Formula() *Formula
}

// quantity is an amount that may not have been determined yet.
type quantity struct {
	value float64
	set   bool
}

func some(v float64) quantity { return quantity{value: v, set: true} }

func (q quantity) get() (float64, bool) { return q.value, q.set }

// FormulaIngredient bounds the absolute quantity of an ingredient in a
// formula's batch.
type FormulaIngredient struct {
	ingredient *Ingredient
	amount     quantity
	bounds     Bounds
	// formula is a non-owning back-reference, only read for the batch
	// size and unit.
	formula *Formula
}

func (fi *FormulaIngredient) Ingredient() *Ingredient { return fi.ingredient }
func (fi *FormulaIngredient) Name() string            { return fi.ingredient.Name() }
func (fi *FormulaIngredient) Code() string            { return fi.ingredient.Code() }
func (fi *FormulaIngredient) ItemType() ItemType      { return IngredientItem }
func (fi *FormulaIngredient) Bounds() Bounds          { return fi.bounds }
func (fi *FormulaIngredient) Formula() *Formula       { return fi.formula }
func (fi *FormulaIngredient) Cost() float64           { return fi.ingredient.Cost() }

func (fi *FormulaIngredient) Amount() (float64, bool) { return fi.amount.get() }

func (fi *FormulaIngredient) Nutrients() []IngredientNutrient {
	return fi.ingredient.Nutrients()
}

// Unit is the unit of the owning formula.
func (fi *FormulaIngredient) Unit() string {
	if fi.formula == nil {
		return ""
	}
	return fi.formula.Unit()
}

// BatchSize is the batch size of the owning formula; ok is false outside
// a formula.
func (fi *FormulaIngredient) BatchSize() (float64, bool) {
	if fi.formula == nil {
		return 0, false
	}
	return fi.formula.BatchSize(), true
}

// Percent is the share of the batch taken by the ingredient, as a
// fraction. ok is false without a formula or an amount; a zero amount
// gives (0, true).
func (fi *FormulaIngredient) Percent() (float64, bool) {
	amount, ok := fi.amount.get()
	if !ok {
		return 0, false
	}
	batch, ok := fi.BatchSize()
	if !ok || batch == 0 {
		return 0, false
	}
	return amount / batch, true
}

// CostPerBatch is the ingredient's share of the cost of one unit of the
// finished mixture.
func (fi *FormulaIngredient) CostPerBatch() (float64, bool) {
	percent, ok := fi.Percent()
	if !ok {
		return 0, false
	}
	return percent * fi.Cost(), true
}

// Contribution is the concentration of n the ingredient brings into the
// finished mixture. ok is false when Percent is unavailable or the
// ingredient does not supply n.
func (fi *FormulaIngredient) Contribution(n *Nutrient) (float64, bool) {
	percent, ok := fi.Percent()
	if !ok {
		return 0, false
	}
	content, ok := fi.ingredient.NutrientAmount(n)
	if !ok {
		return 0, false
	}
	return percent * content, true
}

// FormulaNutrient bounds the concentration of a nutrient in a formula's
// finished batch.
type FormulaNutrient struct {
	nutrient *Nutrient
	amount   quantity
	bounds   Bounds
	formula  *Formula
}

func (fn *FormulaNutrient) Nutrient() *Nutrient     { return fn.nutrient }
func (fn *FormulaNutrient) Name() string            { return fn.nutrient.Name() }
func (fn *FormulaNutrient) Code() string            { return fn.nutrient.Code() }
func (fn *FormulaNutrient) Unit() string            { return fn.nutrient.Unit() }
func (fn *FormulaNutrient) ItemType() ItemType      { return NutrientItem }
func (fn *FormulaNutrient) Bounds() Bounds          { return fn.bounds }
func (fn *FormulaNutrient) Formula() *Formula       { return fn.formula }
func (fn *FormulaNutrient) Amount() (float64, bool) { return fn.amount.get() }

// IngredientBounds pairs an ingredient with its bounds for bulk adds.
type IngredientBounds struct {
	Ingredient *Ingredient
	Bounds     Bounds
}

// NutrientBounds pairs a nutrient with its bounds for bulk adds.
type NutrientBounds struct {
	Nutrient *Nutrient
	Bounds   Bounds
}
