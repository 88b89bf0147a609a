// Package catalog loads nutrients, ingredients and formulas from TOML or
// YAML documents into a feedmix.FormulaLibrary. It also carries a few
// embedded preset catalogs.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/costela/feedmix"
)

var (
	ErrUnknownFormat = errors.New("unknown catalog format")
	ErrUnknownRef    = errors.New("unknown reference")
	ErrDuplicateRef  = errors.New("duplicate reference")
)

type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf guesses the format of a file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// Document is the on-disk shape of a catalog.
type Document struct {
	Name        string       `toml:"name" yaml:"name"`
	Unit        string       `toml:"unit" yaml:"unit"`
	Nutrients   []Nutrient   `toml:"nutrients" yaml:"nutrients"`
	Ingredients []Ingredient `toml:"ingredients" yaml:"ingredients"`
	Formulas    []Formula    `toml:"formulas" yaml:"formulas"`
}

type Nutrient struct {
	Name string `toml:"name" yaml:"name"`
	Code string `toml:"code" yaml:"code"`
	Unit string `toml:"unit" yaml:"unit"`
}

// Ingredient lists its nutrient content by nutrient name or code.
type Ingredient struct {
	Name      string             `toml:"name" yaml:"name"`
	Code      string             `toml:"code" yaml:"code"`
	Cost      float64            `toml:"cost" yaml:"cost"`
	Nutrients map[string]float64 `toml:"nutrients" yaml:"nutrients"`
}

// Formula refers to catalog items and to an earlier formula by name or
// code. Its unit defaults to the document's.
type Formula struct {
	Name        string  `toml:"name" yaml:"name"`
	Code        string  `toml:"code" yaml:"code"`
	BatchSize   float64 `toml:"batch_size" yaml:"batch_size"`
	Unit        string  `toml:"unit" yaml:"unit"`
	DeriveFrom  string  `toml:"derive_from" yaml:"derive_from"`
	Ingredients []Bound `toml:"ingredients" yaml:"ingredients"`
	Nutrients   []Bound `toml:"nutrients" yaml:"nutrients"`
}

// Bound binds an item to a formula. A missing maximum means none.
type Bound struct {
	Ref     string   `toml:"ref" yaml:"ref"`
	Amount  *float64 `toml:"amount" yaml:"amount"`
	Minimum float64  `toml:"minimum" yaml:"minimum"`
	Maximum *float64 `toml:"maximum" yaml:"maximum"`
}

func (b Bound) bounds() feedmix.Bounds {
	bounds := feedmix.AtLeast(b.Minimum)
	if b.Maximum != nil {
		bounds = bounds.WithMaximum(*b.Maximum)
	}
	return bounds
}

// Decode parses a catalog document.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case TOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
		if err != nil {
			return nil, fmt.Errorf("decoding toml catalog: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decoding toml catalog: unknown key %q", undecoded[0].String())
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	return &doc, nil
}

// Load reads and builds the catalog file at path. opts apply to every
// formula.
func Load(path string, opts ...feedmix.Option) (*feedmix.FormulaLibrary, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	library, err := Build(doc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return library, nil
}

// Build turns a document into a library. Formulas are built in document
// order, so derive_from can only name a formula defined before.
func Build(doc *Document, opts ...feedmix.Option) (*feedmix.FormulaLibrary, error) {
	library := feedmix.NewFormulaLibrary(doc.Name)

	for _, n := range doc.Nutrients {
		nutrient, err := feedmix.NewNutrient(n.Name, n.Code, n.Unit)
		if err != nil {
			return nil, err
		}
		library.AddNutrients(nutrient)
	}
	nutrients := library.Nutrients()

	for _, i := range doc.Ingredients {
		ingredient, err := feedmix.NewIngredient(i.Name, i.Code, i.Cost)
		if err != nil {
			return nil, err
		}
		amounts := make(map[*feedmix.Nutrient]float64, len(i.Nutrients))
		refs := make(map[*feedmix.Nutrient]string, len(i.Nutrients))
		for ref, amount := range i.Nutrients {
			n, ok := library.NutrientByRef(ref)
			if !ok {
				return nil, fmt.Errorf("ingredient %q: nutrient %q: %w", i.Name, ref, ErrUnknownRef)
			}
			if other, dup := refs[n]; dup {
				first, second := other, ref
				if first > second {
					first, second = second, first
				}
				return nil, fmt.Errorf("ingredient %q: nutrient %q given as %q and %q: %w", i.Name, n.Name(), first, second, ErrDuplicateRef)
			}
			refs[n] = ref
			amounts[n] = amount
		}
		// links follow the nutrient list, map order is random
		for _, n := range nutrients {
			if amount, ok := amounts[n]; ok {
				ingredient.AddNutrient(n, amount)
			}
		}
		library.AddIngredients(ingredient)
	}

	for _, fd := range doc.Formulas {
		f, err := buildFormula(library, doc, fd, opts)
		if err != nil {
			return nil, fmt.Errorf("formula %q: %w", fd.Name, err)
		}
		library.AddFormulas(f)
	}

	return library, nil
}

func buildFormula(library *feedmix.FormulaLibrary, doc *Document, fd Formula, opts []feedmix.Option) (*feedmix.Formula, error) {
	unit := fd.Unit
	if unit == "" {
		unit = doc.Unit
	}
	formulaOpts := []feedmix.Option{feedmix.WithUnit(unit)}
	if fd.Code != "" {
		formulaOpts = append(formulaOpts, feedmix.WithCode(fd.Code))
	}
	if fd.BatchSize != 0 {
		formulaOpts = append(formulaOpts, feedmix.WithBatchSize(fd.BatchSize))
	}

	f, err := feedmix.NewFormula(fd.Name, append(formulaOpts, opts...)...)
	if err != nil {
		return nil, err
	}

	if fd.DeriveFrom != "" {
		base, ok := library.Formula(fd.DeriveFrom)
		if !ok {
			return nil, fmt.Errorf("derive_from %q: %w", fd.DeriveFrom, ErrUnknownRef)
		}
		f.DeriveFrom(base)
	}

	for _, b := range fd.Ingredients {
		ingredient, ok := library.IngredientByRef(b.Ref)
		if !ok {
			return nil, fmt.Errorf("ingredient %q: %w", b.Ref, ErrUnknownRef)
		}
		if b.Amount != nil {
			f.AddIngredientAmount(ingredient, *b.Amount, b.bounds())
		} else {
			f.AddIngredient(ingredient, b.bounds())
		}
	}
	for _, b := range fd.Nutrients {
		nutrient, ok := library.NutrientByRef(b.Ref)
		if !ok {
			return nil, fmt.Errorf("nutrient %q: %w", b.Ref, ErrUnknownRef)
		}
		if b.Amount != nil {
			f.AddNutrientAmount(nutrient, *b.Amount, b.bounds())
		} else {
			f.AddNutrient(nutrient, b.bounds())
		}
	}

	return f, nil
}
