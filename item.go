package feedmix

import (
	"fmt"
)

// ItemType discriminates the kinds of items in exported rows.
type ItemType string

const (
	IngredientItem ItemType = "ingredient"
	NutrientItem   ItemType = "nutrient"
)

// Item is anything with a name and an identifier-safe code.
type Item interface {
	Name() string
	Code() string
	ItemType() ItemType
}

// Nutrient is a measured constituent of a mixture. Nutrients are compared
// by identity: two nutrients sharing a name are still distinct.
type Nutrient struct {
	name string
	code string
	unit string
}

// NewNutrient creates a nutrient. An empty code is derived from the name.
func NewNutrient(name, code, unit string) (*Nutrient, error) {
	code, err := resolveCode(name, code)
	if err != nil {
		return nil, fmt.Errorf("nutrient: %w", err)
	}
	return &Nutrient{name: name, code: code, unit: unit}, nil
}

// MustNutrient is like NewNutrient but panics on error. It is meant for
// static catalogues.
func MustNutrient(name, code, unit string) *Nutrient {
	n, err := NewNutrient(name, code, unit)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Nutrient) Name() string       { return n.name }
func (n *Nutrient) Code() string       { return n.code }
func (n *Nutrient) Unit() string       { return n.unit }
func (n *Nutrient) ItemType() ItemType { return NutrientItem }

// IngredientNutrient is the content of one nutrient per unit of an
// ingredient.
type IngredientNutrient struct {
	Nutrient *Nutrient
	Amount   float64
}

// Is reports whether the link refers to n itself.
func (in IngredientNutrient) Is(n *Nutrient) bool {
	return in.Nutrient == n
}

// Ingredient is a purchasable material with a cost per unit and known
// nutrient content.
//
// Ingredients are shared by every formula using them and must not be
// changed while any of those formulas is being solved.
type Ingredient struct {
	name      string
	code      string
	cost      float64
	nutrients []IngredientNutrient
}

// NewIngredient creates an ingredient. An empty code is derived from the
// name.
func NewIngredient(name, code string, cost float64) (*Ingredient, error) {
	code, err := resolveCode(name, code)
	if err != nil {
		return nil, fmt.Errorf("ingredient: %w", err)
	}
	return &Ingredient{name: name, code: code, cost: cost}, nil
}

// MustIngredient is like NewIngredient but panics on error.
func MustIngredient(name, code string, cost float64) *Ingredient {
	i, err := NewIngredient(name, code, cost)
	if err != nil {
		panic(err)
	}
	return i
}

func (i *Ingredient) Name() string       { return i.name }
func (i *Ingredient) Code() string       { return i.code }
func (i *Ingredient) Cost() float64      { return i.cost }
func (i *Ingredient) ItemType() ItemType { return IngredientItem }

// AddNutrient sets the per-unit content of n. Setting a nutrient twice
// replaces the earlier amount and keeps its position.
func (i *Ingredient) AddNutrient(n *Nutrient, amount float64) *Ingredient {
	for k := range i.nutrients {
		if i.nutrients[k].Is(n) {
			i.nutrients[k].Amount = amount
			return i
		}
	}
	i.nutrients = append(i.nutrients, IngredientNutrient{Nutrient: n, Amount: amount})
	return i
}

// AddNutrients sets several nutrient contents at once, in order.
func (i *Ingredient) AddNutrients(links ...IngredientNutrient) *Ingredient {
	for _, l := range links {
		i.AddNutrient(l.Nutrient, l.Amount)
	}
	return i
}

// Nutrients returns a copy of the ingredient's nutrient links.
func (i *Ingredient) Nutrients() []IngredientNutrient {
	return append([]IngredientNutrient(nil), i.nutrients...)
}

// NutrientAmount returns the per-unit content of n; ok is false when the
// ingredient does not supply n at all.
func (i *Ingredient) NutrientAmount(n *Nutrient) (amount float64, ok bool) {
	for _, l := range i.nutrients {
		if l.Is(n) {
			return l.Amount, true
		}
	}
	return 0, false
}
