/*
Copyright © 2015 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

//go:build cgo && glpk

package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
// #include <stdlib.h>
import "C"
import (
	"context"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/costela/feedmix/lp"
)

// Name is the registry name of this backend.
const Name = "glpk"

func init() {
	lp.Register(Name, func(logger lp.Logger) lp.Solver { return New(WithLogger(logger)) })
}

/* Types */

type Solver struct {
	Verbose  bool
	Presolve bool
	Dual     bool

	logger lp.Logger
}

type Option func(*Solver)

// WithLogger reports the outcome of every solve to logger. GLPK's own
// terminal output is governed by WithVerbose.
func WithLogger(logger lp.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithVerbose lets GLPK print its progress to the terminal.
func WithVerbose(verbose bool) Option {
	return func(s *Solver) {
		s.Verbose = verbose
	}
}

// WithPresolve toggles GLPK's LP presolver, which is on by default.
func WithPresolve(presolve bool) Option {
	return func(s *Solver) {
		s.Presolve = presolve
	}
}

// WithDual selects the dual simplex method, falling back to the primal
// one when the dual fails.
func WithDual(dual bool) Option {
	return func(s *Solver) {
		s.Dual = dual
	}
}

func New(opts ...Option) *Solver {
	s := &Solver{
		Presolve: true,
		logger:   lp.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve copies the model into a fresh GLPK problem and runs the simplex
// method on it. A context deadline becomes GLPK's time limit; a deadline
// hit mid-search returns the context error.
func (s *Solver) Solve(ctx context.Context, model *lp.Model) (*lp.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if model.VariableCount() == 0 {
		return lp.SolveEmpty(model), nil
	}
	// GLPK fails with GLP_EBOUND on crossed bounds
	if lp.CrossedBounds(model) {
		return lp.NewResult(lp.Infeasible, 0, nil), nil
	}

	prob := C.glp_create_prob()
	defer C.glp_delete_prob(prob)

	cName := C.CString(model.Name())
	defer C.free(unsafe.Pointer(cName))
	C.glp_set_prob_name(prob, cName)

	if model.Direction() == lp.Maximize {
		C.glp_set_obj_dir(prob, C.GLP_MAX)
	} else {
		C.glp_set_obj_dir(prob, C.GLP_MIN)
	}

	vars := model.Variables()
	loadColumns(prob, vars)
	loadRows(prob, model.Constraints())

	var parm C.glp_smcp
	C.glp_init_smcp(&parm)

	if s.Verbose {
		parm.msg_lev = C.GLP_MSG_ON
	} else {
		parm.msg_lev = C.GLP_MSG_OFF
	}

	if s.Presolve {
		parm.presolve = C.GLP_ON
	} else {
		parm.presolve = C.GLP_OFF
	}

	if s.Dual {
		parm.meth = C.GLP_DUALP
	} else {
		parm.meth = C.GLP_PRIMAL
	}

	if deadline, ok := ctx.Deadline(); ok {
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			return nil, context.DeadlineExceeded
		}
		if ms < math.MaxInt32 {
			parm.tm_lim = C.int(ms)
		}
	}

	switch ret := C.glp_simplex(prob, &parm); ret {
	case 0:
	case C.GLP_ENOPFS:
		// the presolver proved primal infeasibility; no basis is left
		return lp.NewResult(lp.Infeasible, 0, nil), nil
	case C.GLP_ENODFS:
		return lp.NewResult(lp.Unbounded, 0, nil), nil
	case C.GLP_ETMLIM:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return lp.NewResult(lp.NotSolved, 0, nil), nil
	case C.GLP_EITLIM:
		return lp.NewResult(lp.NotSolved, 0, nil), nil
	default:
		err := glpkError(ret)
		s.logger.Print(fmt.Sprintf("glpk: model %q: %v", model.Name(), err))
		return nil, err
	}

	values := make([]float64, len(vars))
	for i := range vars {
		values[i] = float64(C.glp_get_col_prim(prob, C.int(i+1)))
	}

	status := statusOf(C.glp_get_status(prob))
	s.logger.Print(fmt.Sprintf("glpk: model %q: %s", model.Name(), status))

	return lp.NewResult(status, float64(C.glp_get_obj_val(prob)), values), nil
}

func loadColumns(prob *C.glp_prob, vars []*lp.Variable) {
	C.glp_add_cols(prob, C.int(len(vars)))

	for i, v := range vars {
		col := C.int(i + 1)

		cName := C.CString(v.Name())
		C.glp_set_col_name(prob, col, cName)
		C.free(unsafe.Pointer(cName))

		C.glp_set_col_kind(prob, col, C.GLP_CV)
		C.glp_set_obj_coef(prob, col, C.double(v.Coefficient()))

		lower, upper := v.Bounds()
		kind, lb, ub := boundType(lower, upper)
		C.glp_set_col_bnds(prob, col, kind, lb, ub)
	}
}

func loadRows(prob *C.glp_prob, constraints []*lp.Constraint) {
	if len(constraints) == 0 {
		return
	}
	C.glp_add_rows(prob, C.int(len(constraints)))

	// glpk indices start at 1; index 0 is reserved
	ia := []C.int{0}
	ja := []C.int{0}
	ar := []C.double{0}

	for i, c := range constraints {
		row := C.int(i + 1)

		cName := C.CString(c.Name())
		C.glp_set_row_name(prob, row, cName)
		C.free(unsafe.Pointer(cName))

		lower, upper := c.Bounds()
		kind, lb, ub := boundType(lower, upper)
		C.glp_set_row_bnds(prob, row, kind, lb, ub)

		vars, coefs := c.Terms()
		for k, v := range vars {
			ia = append(ia, row)
			ja = append(ja, C.int(v.Index()+1))
			ar = append(ar, C.double(coefs[k]))
		}
	}

	if len(ia) > 1 {
		C.glp_load_matrix(prob, C.int(len(ia)-1), &ia[0], &ja[0], &ar[0])
	}
}

// boundType maps a pair of bounds, infinite when absent, to GLPK's bound
// kinds.
func boundType(lower, upper float64) (C.int, C.double, C.double) {
	switch {
	case math.IsInf(lower, 0) && math.IsInf(upper, 0):
		return C.GLP_FR, 0, 0
	case math.IsInf(lower, 0):
		return C.GLP_UP, 0, C.double(upper)
	case math.IsInf(upper, 0):
		return C.GLP_LO, C.double(lower), 0
	case upper == lower:
		return C.GLP_FX, C.double(lower), C.double(upper)
	default:
		return C.GLP_DB, C.double(lower), C.double(upper)
	}
}

func statusOf(status C.int) lp.Status {
	switch status {
	case C.GLP_OPT:
		return lp.Optimal
	case C.GLP_FEAS:
		return lp.Feasible
	case C.GLP_INFEAS, C.GLP_NOFEAS:
		return lp.Infeasible
	case C.GLP_UNBND:
		return lp.Unbounded
	default:
		return lp.Undefined
	}
}

func glpkError(err C.int) error {
	switch err {
	case C.GLP_EBADB:
		return fmt.Errorf("glpk: initial basis invalid")
	case C.GLP_ESING:
		return fmt.Errorf("glpk: initial basis is exactly singular")
	case C.GLP_ECOND:
		return fmt.Errorf("glpk: initial basis is ill-conditioned")
	case C.GLP_EBOUND:
		return fmt.Errorf("glpk: double-bounded (auxiliary or structural) variables has incorrect bounds")
	case C.GLP_EFAIL:
		return fmt.Errorf("glpk: solver failure")
	case C.GLP_EOBJLL, C.GLP_EOBJUL:
		return fmt.Errorf("glpk: objective limit reached")
	default:
		return fmt.Errorf("glpk: unknown error: %d", err)
	}
}
