// Package simplex is the pure-Go lp backend, built on gonum's simplex
// implementation. It is registered as "simplex" and is the default
// engine of feedmix.
package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/costela/feedmix/lp"
)

// Name is the registry name of this backend.
const Name = "simplex"

// DefaultTolerance is handed to gonum when no other tolerance is set.
const DefaultTolerance = 1e-10

func init() {
	lp.Register(Name, func(logger lp.Logger) lp.Solver { return New(WithLogger(logger)) })
}

type Solver struct {
	tol    float64
	logger lp.Logger
}

type Option func(*Solver)

// WithTolerance sets the tolerance gonum uses to decide optimality and
// singularity.
func WithTolerance(tol float64) Option {
	return func(s *Solver) {
		s.tol = tol
	}
}

func WithLogger(logger lp.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

func New(opts ...Option) *Solver {
	s := &Solver{
		tol:    DefaultTolerance,
		logger: lp.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve converts the model to standard form and runs gonum's simplex on
// it. gonum classifies infeasible and unbounded problems through its
// errors; those become statuses here. Its numerical failures become
// lp.Undefined.
func (s *Solver) Solve(ctx context.Context, model *lp.Model) (*lp.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if model.VariableCount() == 0 {
		return lp.SolveEmpty(model), nil
	}
	if lp.CrossedBounds(model) {
		return lp.NewResult(lp.Infeasible, 0, nil), nil
	}

	sf := standardize(model)
	if sf.infeasible {
		return lp.NewResult(lp.Infeasible, 0, nil), nil
	}
	if sf.unbounded {
		return lp.NewResult(lp.Unbounded, 0, nil), nil
	}

	y := make([]float64, sf.columns)
	if len(sf.b) > 0 {
		c, A, b := sf.matrix()
		rows, cols := A.Dims()
		if rows > cols {
			return nil, fmt.Errorf("simplex: model %q has %d equality rows for %d columns", model.Name(), rows, cols)
		}

		_, x, err := gonumlp.Simplex(c, A, b, s.tol, nil)
		switch {
		case errors.Is(err, gonumlp.ErrInfeasible):
			return lp.NewResult(lp.Infeasible, 0, nil), nil
		case errors.Is(err, gonumlp.ErrUnbounded):
			return lp.NewResult(lp.Unbounded, 0, nil), nil
		case err != nil:
			s.logger.Print(fmt.Sprintf("simplex: model %q: %v", model.Name(), err))
			return lp.NewResult(lp.Undefined, 0, nil), nil
		}

		for k, col := range sf.active {
			y[col] = x[k]
		}
	}

	values := sf.recover(y)
	var objective float64
	for i, v := range model.Variables() {
		objective += v.Coefficient() * values[i]
	}

	return lp.NewResult(lp.Optimal, objective, values), nil
}

type term struct {
	col  int
	sign float64
}

// standardForm holds the model rewritten over non-negative columns y:
//
//	min c·y  s.t.  eq·y = beq,  le·y <= hle,  y >= 0
//
// with every model variable x expressed as offset + Σ sign·y.
type standardForm struct {
	columns int
	offset  []float64
	terms   [][]term

	c   []float64
	eq  [][]float64
	le  [][]float64
	b   []float64 // eq right-hand sides followed by le right-hand sides
	neq int

	active     []int
	infeasible bool
	unbounded  bool
}

func standardize(model *lp.Model) *standardForm {
	vars := model.Variables()
	sf := &standardForm{
		offset: make([]float64, len(vars)),
		terms:  make([][]term, len(vars)),
	}

	var upperCols []int
	var upperRHS []float64

	for i, v := range vars {
		lower, upper := v.Bounds()
		switch {
		case !math.IsInf(lower, -1):
			// x = lower + y
			sf.offset[i] = lower
			sf.terms[i] = []term{{sf.columns, 1}}
			if !math.IsInf(upper, 1) {
				upperCols = append(upperCols, sf.columns)
				upperRHS = append(upperRHS, upper-lower)
			}
			sf.columns++
		case !math.IsInf(upper, 1):
			// x = upper - y
			sf.offset[i] = upper
			sf.terms[i] = []term{{sf.columns, -1}}
			sf.columns++
		default:
			// x = y⁺ - y⁻
			sf.terms[i] = []term{{sf.columns, 1}, {sf.columns + 1, -1}}
			sf.columns += 2
		}
	}

	expand := func(cvars []*lp.Variable, coefs []float64) ([]float64, float64) {
		row := make([]float64, sf.columns)
		var constant float64
		for k, v := range cvars {
			i := v.Index()
			constant += coefs[k] * sf.offset[i]
			for _, t := range sf.terms[i] {
				row[t.col] += coefs[k] * t.sign
			}
		}
		return row, constant
	}

	var eqRHS, leRHS []float64
	for _, con := range model.Constraints() {
		cvars, coefs := con.Terms()
		row, constant := expand(cvars, coefs)
		lower, upper := con.Bounds()

		switch {
		case lower == upper:
			sf.eq = append(sf.eq, row)
			eqRHS = append(eqRHS, upper-constant)
			continue
		case !math.IsInf(upper, 1):
			sf.le = append(sf.le, row)
			leRHS = append(leRHS, upper-constant)
		}
		if !math.IsInf(lower, -1) {
			neg := make([]float64, len(row))
			for k := range row {
				neg[k] = -row[k]
			}
			sf.le = append(sf.le, neg)
			leRHS = append(leRHS, constant-lower)
		}
	}

	for k, col := range upperCols {
		row := make([]float64, sf.columns)
		row[col] = 1
		sf.le = append(sf.le, row)
		leRHS = append(leRHS, upperRHS[k])
	}

	sf.c = make([]float64, sf.columns)
	sign := 1.0
	if model.Direction() == lp.Maximize {
		sign = -1
	}
	for i, v := range vars {
		for _, t := range sf.terms[i] {
			sf.c[t.col] += sign * v.Coefficient() * t.sign
		}
	}

	// Equality rows without any coefficient either hold trivially or
	// make the model infeasible; gonum rejects both.
	var eq [][]float64
	var beq []float64
	for k, row := range sf.eq {
		if isZero(row) {
			if math.Abs(eqRHS[k]) > DefaultTolerance {
				sf.infeasible = true
			}
			continue
		}
		eq = append(eq, row)
		beq = append(beq, eqRHS[k])
	}
	sf.eq = eq
	sf.neq = len(eq)
	sf.b = append(beq, leRHS...)

	// Columns absent from every row sit at zero, unless lowering the
	// objective along them is free of limits.
	for col := 0; col < sf.columns; col++ {
		used := false
		for _, row := range sf.eq {
			used = used || row[col] != 0
		}
		for _, row := range sf.le {
			used = used || row[col] != 0
		}
		switch {
		case used:
			sf.active = append(sf.active, col)
		case sf.c[col] < 0:
			sf.unbounded = true
		}
	}

	return sf
}

// matrix assembles [eq 0; le I] over the active columns plus one slack
// column per inequality, flipping rows so every right-hand side is
// non-negative.
func (sf *standardForm) matrix() ([]float64, *mat.Dense, []float64) {
	nle := len(sf.le)
	rows := sf.neq + nle
	cols := len(sf.active) + nle

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)

	for k, col := range sf.active {
		c[k] = sf.c[col]
	}

	for i := 0; i < rows; i++ {
		var src []float64
		if i < sf.neq {
			src = sf.eq[i]
		} else {
			src = sf.le[i-sf.neq]
			A.Set(i, len(sf.active)+i-sf.neq, 1)
		}
		for k, col := range sf.active {
			A.Set(i, k, src[col])
		}
		b[i] = sf.b[i]

		if b[i] < 0 {
			for j := 0; j < cols; j++ {
				A.Set(i, j, -A.At(i, j))
			}
			b[i] = -b[i]
		}
	}

	return c, A, b
}

func (sf *standardForm) recover(y []float64) []float64 {
	values := make([]float64, len(sf.offset))
	for i := range values {
		values[i] = sf.offset[i]
		for _, t := range sf.terms[i] {
			values[i] += t.sign * y[t.col]
		}
	}
	return values
}

func isZero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}
	return true
}
