package feedmix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/costela/feedmix/lp"
)

// Columns is the header of exported tables, in order.
var Columns = []string{
	"library_name",
	"formula_name",
	"formula_code",
	"formula_cost",
	"formula_status",
	"item_type",
	"item_name",
	"item_code",
	"item_amount",
	"item_minimum",
	"item_maximum",
}

// ErrMalformedRow is returned by ReadCSV for records that do not describe
// a formula item.
var ErrMalformedRow = errors.New("malformed row")

// Row is one (formula, item) line of an exported table. Amount and Maximum
// are nil when absent.
type Row struct {
	Library       string
	FormulaName   string
	FormulaCode   string
	FormulaCost   float64
	FormulaStatus lp.Status
	ItemType      ItemType
	ItemName      string
	ItemCode      string
	Amount        *float64
	Minimum       float64
	Maximum       *float64
}

// Record renders the row as CSV fields, in the order of Columns.
func (r Row) Record() []string {
	return []string{
		r.Library,
		r.FormulaName,
		r.FormulaCode,
		formatFloat(r.FormulaCost),
		r.FormulaStatus.String(),
		string(r.ItemType),
		r.ItemName,
		r.ItemCode,
		formatOptional(r.Amount),
		formatFloat(r.Minimum),
		formatOptional(r.Maximum),
	}
}

func parseRecord(record []string) (Row, error) {
	if len(record) != len(Columns) {
		return Row{}, fmt.Errorf("%d fields instead of %d: %w", len(record), len(Columns), ErrMalformedRow)
	}

	r := Row{
		Library:     record[0],
		FormulaName: record[1],
		FormulaCode: record[2],
		ItemType:    ItemType(record[5]),
		ItemName:    record[6],
		ItemCode:    record[7],
	}

	var err error
	if r.FormulaCost, err = strconv.ParseFloat(record[3], 64); err != nil {
		return Row{}, fmt.Errorf("formula_cost: %w", err)
	}
	if r.FormulaStatus, err = lp.ParseStatus(record[4]); err != nil {
		return Row{}, fmt.Errorf("formula_status: %w", err)
	}
	switch r.ItemType {
	case IngredientItem, NutrientItem:
	default:
		return Row{}, fmt.Errorf("item_type %q: %w", record[5], ErrMalformedRow)
	}
	if r.Amount, err = parseOptional(record[8]); err != nil {
		return Row{}, fmt.Errorf("item_amount: %w", err)
	}
	if r.Minimum, err = strconv.ParseFloat(record[9], 64); err != nil {
		return Row{}, fmt.Errorf("item_minimum: %w", err)
	}
	if r.Maximum, err = parseOptional(record[10]); err != nil {
		return Row{}, fmt.Errorf("item_maximum: %w", err)
	}

	return r, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Rows returns the formula's table rows: ingredients first, then
// nutrients, each in insertion order. An empty library name is replaced
// by DefaultLibraryName.
func (f *Formula) Rows(library string) []Row {
	if library == "" {
		library = DefaultLibraryName
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	base := Row{
		Library:       library,
		FormulaName:   f.name,
		FormulaCode:   f.code,
		FormulaCost:   f.cost,
		FormulaStatus: f.status,
	}

	rows := make([]Row, 0, len(f.ingredients)+len(f.nutrients))
	add := func(item BoundItem) {
		r := base
		r.ItemType = item.ItemType()
		r.ItemName = item.Name()
		r.ItemCode = item.Code()
		r.Amount = optional(item.Amount())
		r.Minimum = item.Bounds().Minimum()
		r.Maximum = optional(item.Bounds().Maximum())
		rows = append(rows, r)
	}
	for _, fi := range f.ingredients {
		add(fi)
	}
	for _, fn := range f.nutrients {
		add(fn)
	}
	return rows
}

// WriteCSV writes the formula's rows to w, preceded by the Columns header
// if header is set.
func (f *Formula) WriteCSV(w io.Writer, library string, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(Columns); err != nil {
			return err
		}
	}
	if err := writeRows(cw, f.Rows(library)); err != nil {
		return fmt.Errorf("formula %q: %w", f.name, err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes one header followed by the rows of every formula.
func (l *FormulaLibrary) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, f := range l.Formulas() {
		if err := writeRows(cw, f.Rows(l.name)); err != nil {
			return fmt.Errorf("library %q: formula %q: %w", l.name, f.Name(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the library's table to the file at path.
func (l *FormulaLibrary) SaveCSV(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	return l.WriteCSV(file)
}

func writeRows(cw *csv.Writer, rows []Row) error {
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV. The header must match
// Columns.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("header column %d is %q, expected %q: %w", i, header[i], col, ErrMalformedRow)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}
