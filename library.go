package feedmix

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultLibraryName is used for formulas exported on their own.
const DefaultLibraryName = "default"

// FormulaLibrary is a named collection of nutrients, ingredients and
// formulas, used for bulk optimization and export. It holds duplicates as
// given.
type FormulaLibrary struct {
	mu sync.RWMutex

	name        string
	nutrients   []*Nutrient
	ingredients []*Ingredient
	formulas    []*Formula

	logger Logger
}

type LibraryOption func(*FormulaLibrary)

func WithLibraryLogger(logger Logger) LibraryOption {
	return func(l *FormulaLibrary) {
		l.logger = logger
	}
}

func NewFormulaLibrary(name string, opts ...LibraryOption) *FormulaLibrary {
	if name == "" {
		name = DefaultLibraryName
	}
	l := &FormulaLibrary{
		name:   name,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *FormulaLibrary) Name() string { return l.name }

func (l *FormulaLibrary) AddNutrients(nutrients ...*Nutrient) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nutrients = append(l.nutrients, nutrients...)
}

func (l *FormulaLibrary) AddIngredients(ingredients ...*Ingredient) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ingredients = append(l.ingredients, ingredients...)
}

func (l *FormulaLibrary) AddFormulas(formulas ...*Formula) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.formulas = append(l.formulas, formulas...)
}

func (l *FormulaLibrary) Nutrients() []*Nutrient {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]*Nutrient(nil), l.nutrients...)
}

func (l *FormulaLibrary) Ingredients() []*Ingredient {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]*Ingredient(nil), l.ingredients...)
}

func (l *FormulaLibrary) Formulas() []*Formula {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]*Formula(nil), l.formulas...)
}

// Formula returns the first formula with the given name or code.
func (l *FormulaLibrary) Formula(ref string) (*Formula, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, f := range l.formulas {
		if f.Name() == ref || f.Code() == ref {
			return f, true
		}
	}
	return nil, false
}

// NutrientByRef returns the first nutrient with the given name or code.
func (l *FormulaLibrary) NutrientByRef(ref string) (*Nutrient, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, n := range l.nutrients {
		if n.Name() == ref || n.Code() == ref {
			return n, true
		}
	}
	return nil, false
}

// IngredientByRef returns the first ingredient with the given name or
// code.
func (l *FormulaLibrary) IngredientByRef(ref string) (*Ingredient, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, i := range l.ingredients {
		if i.Name() == ref || i.Code() == ref {
			return i, true
		}
	}
	return nil, false
}

// Optimize optimizes every formula in insertion order. A failing formula
// does not stop the others; all failures are returned together.
func (l *FormulaLibrary) Optimize(ctx context.Context) error {
	var errs []error
	for _, f := range l.Formulas() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := f.Optimize(ctx); err != nil {
			l.logger.Print(fmt.Sprintf("library %q: %v", l.name, err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OptimizeConcurrently optimizes the library's formulas on up to workers
// goroutines; workers < 1 means one per formula. A formula added more than
// once is solved once. The first failure cancels the formulas not yet
// started and is returned.
func (l *FormulaLibrary) OptimizeConcurrently(ctx context.Context, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	seen := make(map[*Formula]struct{})
	for _, f := range l.Formulas() {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}

		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return f.Optimize(ctx)
		})
	}

	return g.Wait()
}
