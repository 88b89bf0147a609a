package feedmix

import (
	"encoding/json"

	"github.com/costela/feedmix/lp"
)

type jsonItem struct {
	Type         ItemType `json:"type"`
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	Amount       *float64 `json:"amount"`
	Minimum      float64  `json:"minimum"`
	Maximum      *float64 `json:"maximum"`
	Percent      *float64 `json:"percent,omitempty"`
	CostPerBatch *float64 `json:"cost_per_batch,omitempty"`
}

type jsonFormula struct {
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	BatchSize   float64    `json:"batch_size"`
	Unit        string     `json:"unit,omitempty"`
	Cost        float64    `json:"cost"`
	Status      lp.Status  `json:"status"`
	Ingredients []jsonItem `json:"ingredients"`
	Nutrients   []jsonItem `json:"nutrients"`
}

// MarshalJSON renders the formula with its bound items. The problem is
// left out.
func (f *Formula) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.document())
}

func (f *Formula) document() jsonFormula {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := jsonFormula{
		Name:        f.name,
		Code:        f.code,
		BatchSize:   f.batchSize,
		Unit:        f.unit,
		Cost:        f.cost,
		Status:      f.status,
		Ingredients: make([]jsonItem, 0, len(f.ingredients)),
		Nutrients:   make([]jsonItem, 0, len(f.nutrients)),
	}
	for _, fi := range f.ingredients {
		item := newJSONItem(fi)
		item.Percent = optional(fi.Percent())
		item.CostPerBatch = optional(fi.CostPerBatch())
		doc.Ingredients = append(doc.Ingredients, item)
	}
	for _, fn := range f.nutrients {
		doc.Nutrients = append(doc.Nutrients, newJSONItem(fn))
	}
	return doc
}

func newJSONItem(item BoundItem) jsonItem {
	return jsonItem{
		Type:    item.ItemType(),
		Name:    item.Name(),
		Code:    item.Code(),
		Amount:  optional(item.Amount()),
		Minimum: item.Bounds().Minimum(),
		Maximum: optional(item.Bounds().Maximum()),
	}
}

type jsonCatalogItem struct {
	Name string  `json:"name"`
	Code string  `json:"code"`
	Unit string  `json:"unit,omitempty"`
	Cost float64 `json:"cost,omitempty"`
}

// MarshalJSON renders the library's catalog and formulas.
func (l *FormulaLibrary) MarshalJSON() ([]byte, error) {
	doc := struct {
		Name        string            `json:"name"`
		Nutrients   []jsonCatalogItem `json:"nutrients"`
		Ingredients []jsonCatalogItem `json:"ingredients"`
		Formulas    []jsonFormula     `json:"formulas"`
	}{
		Name:        l.name,
		Nutrients:   []jsonCatalogItem{},
		Ingredients: []jsonCatalogItem{},
		Formulas:    []jsonFormula{},
	}

	for _, n := range l.Nutrients() {
		doc.Nutrients = append(doc.Nutrients, jsonCatalogItem{Name: n.Name(), Code: n.Code(), Unit: n.Unit()})
	}
	for _, i := range l.Ingredients() {
		doc.Ingredients = append(doc.Ingredients, jsonCatalogItem{Name: i.Name(), Code: i.Code(), Cost: i.Cost()})
	}
	for _, f := range l.Formulas() {
		doc.Formulas = append(doc.Formulas, f.document())
	}

	return json.Marshal(doc)
}
