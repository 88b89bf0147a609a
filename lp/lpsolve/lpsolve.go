/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

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

//go:build cgo && lpsolve

package lpsolve

// #cgo linux LDFLAGS: -llpsolve55
// #cgo linux CFLAGS: -I/usr/include/lpsolve/
// #cgo darwin LDFLAGS: -L/usr/local/lib -llpsolve55
// #cgo darwin CFLAGS: -I/usr/local/include
// #include <lp_lib.h>
// #include <stdlib.h>
/*
// https://golang.org/issue/19837
extern int abortCallback(lprec *lp, void *userhandle);
extern void logCallback(lprec *lp, void *userhandle, char *buf);
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/costela/feedmix/lp"
)

// Name is the registry name of this backend.
const Name = "lpsolve"

func init() {
	lp.Register(Name, func(logger lp.Logger) lp.Solver { return New(WithLogger(logger)) })
}

/* Types */

type Solver struct {
	logger    lp.Logger
	verbosity int
}

type Option func(*Solver)

// WithLogger redirects lp_solve's own reporting to logger.
func WithLogger(logger lp.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithVerbosity sets lp_solve's verbosity level, from 0 (NEUTRAL) to 6
// (FULL). The default, 1, only reports critical messages.
func WithVerbosity(level int) Option {
	return func(s *Solver) {
		s.verbosity = level
	}
}

func New(opts ...Option) *Solver {
	s := &Solver{
		logger:    lp.NopLogger(),
		verbosity: int(C.CRITICAL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

//export logCallback
func logCallback(prob *C.lprec, loggerPtr unsafe.Pointer, msg *C.char) {
	logger, ok := loadRef(loggerPtr).(lp.Logger)
	if !ok {
		return
	}

	logger.Print(C.GoString(msg))
}

//export abortCallback
func abortCallback(prob *C.lprec, ctxPtr unsafe.Pointer) C.int {
	ctx, ok := loadRef(ctxPtr).(context.Context)
	if ok && ctx.Err() != nil {
		return C.TRUE
	}

	return C.FALSE
}

// Solve copies the model into a fresh lp_solve problem and solves it.
// If the context is cancelled or times out, the solution search will be
// aborted and the context error will be returned.
func (s *Solver) Solve(ctx context.Context, model *lp.Model) (*lp.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if model.VariableCount() == 0 {
		return lp.SolveEmpty(model), nil
	}
	// lp_solve refuses crossed bounds instead of reporting infeasibility
	if lp.CrossedBounds(model) {
		return lp.NewResult(lp.Infeasible, 0, nil), nil
	}

	vars := model.Variables()

	prob := C.make_lp(0, C.int(len(vars)))
	if prob == nil {
		return nil, ErrNoMemory
	}
	// the problem never outlives this call, so no finalizer is needed
	defer C.delete_lp(prob)

	cName := C.CString(model.Name())
	defer C.free(unsafe.Pointer(cName))
	C.set_lp_name(prob, cName)

	// disable stdout logging and redirect to our logger
	loggerRef := saveRef(s.logger)
	defer releaseRef(loggerRef)
	C.put_logfunc(prob, (*C.lphandlestr_func)(C.logCallback), loggerRef)
	cEmpty := C.CString("")
	defer C.free(unsafe.Pointer(cEmpty))
	C.set_outputfile(prob, cEmpty)
	C.set_verbose(prob, C.int(s.verbosity))

	if model.Direction() == lp.Maximize {
		C.set_maxim(prob)
	} else {
		C.set_minim(prob)
	}

	if err := loadColumns(prob, vars); err != nil {
		return nil, err
	}
	if err := loadRows(prob, model.Constraints()); err != nil {
		return nil, err
	}

	ctxRef := saveRef(ctx)
	defer releaseRef(ctxRef)
	C.put_abortfunc(prob, (*C.lphandle_intfunc)(C.abortCallback), ctxRef)

	ret := C.solve(prob)

	status, err := statusOf(ret)
	if errors.Is(err, ErrUserAbort) && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	values := make([]C.REAL, len(vars))
	if C.get_variables(prob, &values[0]) != C.TRUE {
		return lp.NewResult(status, 0, nil), nil
	}

	out := make([]float64, len(vars))
	for i, v := range values {
		out[i] = float64(v)
	}

	return lp.NewResult(status, float64(C.get_objective(prob)), out), nil
}

func loadColumns(prob *C.lprec, vars []*lp.Variable) error {
	inf := float64(C.get_infinite(prob))

	for i, v := range vars {
		col := C.int(i + 1)

		cName := C.CString(v.Name())
		C.set_col_name(prob, col, cName)
		C.free(unsafe.Pointer(cName))

		if C.set_obj(prob, col, C.REAL(v.Coefficient())) != C.TRUE {
			return fmt.Errorf("lpsolve: setting objective coefficient of %q", v.Name())
		}

		lower, upper := v.Bounds()
		if math.IsInf(lower, -1) {
			lower = -inf
		}
		if math.IsInf(upper, 1) {
			upper = inf
		}
		if C.set_bounds(prob, col, C.REAL(lower), C.REAL(upper)) != C.TRUE {
			return fmt.Errorf("lpsolve: setting bounds of %q", v.Name())
		}
	}

	return nil
}

func loadRows(prob *C.lprec, constraints []*lp.Constraint) error {
	C.set_add_rowmode(prob, C.TRUE)
	defer C.set_add_rowmode(prob, C.FALSE)

	for _, c := range constraints {
		vars, coefs := c.Terms()

		row := make([]C.REAL, len(vars))
		colno := make([]C.int, len(vars))
		for i, v := range vars {
			colno[i] = C.int(v.Index() + 1)
			row[i] = C.REAL(coefs[i])
		}
		var rowPtr *C.REAL
		var colPtr *C.int
		if len(vars) > 0 {
			rowPtr, colPtr = &row[0], &colno[0]
		}

		add := func(kind C.int, rh float64, name string) error {
			if C.add_constraintex(prob, C.int(len(vars)), rowPtr, colPtr, kind, C.REAL(rh)) != C.TRUE {
				return fmt.Errorf("lpsolve: adding constraint %q", name)
			}
			cName := C.CString(name)
			defer C.free(unsafe.Pointer(cName))
			C.set_row_name(prob, C.get_Nrows(prob), cName)
			return nil
		}

		lower, upper := c.Bounds()
		var err error
		switch {
		case math.IsInf(lower, 0) && math.IsInf(upper, 0):
			// no constraints
		case math.IsInf(lower, 0):
			err = add(C.LE, upper, c.Name())
		case math.IsInf(upper, 0):
			err = add(C.GE, lower, c.Name())
		case upper == lower:
			err = add(C.EQ, upper, c.Name())
		default:
			if err = add(C.LE, upper, c.Name()+"_ub"); err == nil {
				err = add(C.GE, lower, c.Name()+"_lb")
			}
		}
		if err != nil {
			return err
		}
	}

	return nil
}
