package feedmix

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/feedmix/lp"
)

func TestFormulaRows(t *testing.T) {
	s := newScenario()
	f := s.formula(t, WithCode("B1"))
	f.AddIngredient(s.sbm, AtMost(40))

	rows := f.Rows("")
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, DefaultLibraryName, r.Library)
		assert.Equal(t, "Broiler", r.FormulaName)
		assert.Equal(t, "B1", r.FormulaCode)
		assert.Equal(t, lp.Unsolved, r.FormulaStatus)
		assert.Nil(t, r.Amount)
	}
	assert.Equal(t, IngredientItem, rows[0].ItemType)
	assert.Equal(t, IngredientItem, rows[1].ItemType)
	assert.Equal(t, NutrientItem, rows[2].ItemType)
	assert.Nil(t, rows[0].Maximum)
	require.NotNil(t, rows[1].Maximum)
	assert.Equal(t, 40.0, *rows[1].Maximum)
	assert.Equal(t, 3000.0, rows[2].Minimum)

	assert.Equal(t, []string{
		"default", "Broiler", "B1", "0", "Unsolved", "ingredient",
		"Soybean Meal", "soybean_meal", "", "0", "40",
	}, rows[1].Record())
}

func TestCSVRoundTrip(t *testing.T) {
	library, _ := newLibrary(t)
	require.NoError(t, library.Optimize(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, library.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Len(t, lines, 1+2*4, "one header for the whole library")

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)

	var want []Row
	for _, f := range library.Formulas() {
		want = append(want, f.Rows(library.Name())...)
	}
	assert.Equal(t, want, rows)
	assert.Equal(t, lp.Optimal, rows[0].FormulaStatus)
	assert.Equal(t, "Broiler", rows[0].Library)
}

func TestFormulaWriteCSV(t *testing.T) {
	s := newScenario()
	f := s.formula(t)

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf, "", false))
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))
	assert.NotContains(t, buf.String(), "library_name")

	buf.Reset()
	require.NoError(t, f.WriteCSV(&buf, "mine", true))
	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "mine", rows[0].Library)
}

func TestSaveCSV(t *testing.T) {
	library, _ := newLibrary(t)
	path := filepath.Join(t.TempDir(), "formulas.csv")

	require.NoError(t, library.SaveCSV(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := ReadCSV(file)
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestReadCSVMalformed(t *testing.T) {
	header := strings.Join(Columns, ",") + "\n"

	rows, err := ReadCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ReadCSV(strings.NewReader(strings.Replace(header, "item_code", "item_id", 1)))
	assert.ErrorIs(t, err, ErrMalformedRow)

	tests := map[string]string{
		"cost":   "lib,f,f,cheap,Optimal,ingredient,a,a,1,0,\n",
		"status": "lib,f,f,1,Great,ingredient,a,a,1,0,\n",
		"type":   "lib,f,f,1,Optimal,mineral,a,a,1,0,\n",
		"amount": "lib,f,f,1,Optimal,ingredient,a,a,x,0,\n",
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(header + line))
			assert.Error(t, err)
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	library, s := newLibrary(t)
	require.NoError(t, library.Optimize(context.Background()))

	data, err := json.Marshal(library)
	require.NoError(t, err)

	var doc struct {
		Name      string `json:"name"`
		Nutrients []struct {
			Code string `json:"code"`
			Unit string `json:"unit"`
		} `json:"nutrients"`
		Formulas []struct {
			Code        string  `json:"code"`
			Status      string  `json:"status"`
			Cost        float64 `json:"cost"`
			BatchSize   float64 `json:"batch_size"`
			Ingredients []struct {
				Code    string   `json:"code"`
				Amount  *float64 `json:"amount"`
				Percent *float64 `json:"percent"`
				Maximum *float64 `json:"maximum"`
			} `json:"ingredients"`
		} `json:"formulas"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "Broiler", doc.Name)
	require.Len(t, doc.Nutrients, 2)
	assert.Equal(t, "kcal/kg", doc.Nutrients[0].Unit)
	require.Len(t, doc.Formulas, 2)

	starter, _ := library.Formula("B1")
	assert.Equal(t, "B1", doc.Formulas[0].Code)
	assert.Equal(t, "Optimal", doc.Formulas[0].Status)
	assert.InDelta(t, starter.Cost(), doc.Formulas[0].Cost, delta)
	assert.Equal(t, 100.0, doc.Formulas[0].BatchSize)

	corn, _ := starter.Ingredient(s.corn)
	amount, _ := corn.Amount()
	ingredient := doc.Formulas[0].Ingredients[0]
	assert.Equal(t, "corn", ingredient.Code)
	require.NotNil(t, ingredient.Amount)
	assert.InDelta(t, amount, *ingredient.Amount, delta)
	require.NotNil(t, ingredient.Percent)
	assert.InDelta(t, amount/100, *ingredient.Percent, delta)
	assert.Nil(t, ingredient.Maximum)

	unsolved, err := json.Marshal(MustFormula("empty"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"empty","code":"empty","batch_size":1,"cost":0,"status":"Unsolved","ingredients":[],"nutrients":[]}`, string(unsolved))
}
