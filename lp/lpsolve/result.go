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

// #include <lp_lib.h>
import "C"

import (
	"fmt"

	"github.com/costela/feedmix/lp"
)

// SolveError is an lp_solve return code that says nothing about the
// model itself.
type SolveError C.int

const (
	ErrBranchCutBreak = SolveError(C.PROCBREAK)
	ErrBranchCutFail  = SolveError(C.PROCFAIL)
	ErrNoMemory       = SolveError(C.NOMEMORY)
	ErrPresolved      = SolveError(C.PRESOLVED) // should not be seen: presolve is never enabled
	ErrUserAbort      = SolveError(C.USERABORT)
)

// Error returns a string representation of the given error value.
func (e SolveError) Error() string {
	switch e {
	case ErrBranchCutBreak:
		return "branch-and-cut stopped at beakpoint"
	case ErrBranchCutFail:
		return "branch-and-cut failure"
	case ErrNoMemory:
		return "ran out of memory while solving"
	case ErrPresolved:
		return "model was presolved"
	case ErrUserAbort:
		return "aborted by user abort function"
	default:
		return fmt.Sprintf("unrecognized lp_solve result %d", int(e))
	}
}

// statusOf maps lp_solve's solve() return code. Outcomes describing the
// model become statuses; engine trouble becomes a SolveError.
func statusOf(ret C.int) (lp.Status, error) {
	switch ret {
	case C.OPTIMAL:
		return lp.Optimal, nil
	case C.SUBOPTIMAL, C.FEASFOUND:
		return lp.Feasible, nil
	case C.INFEASIBLE, C.NOFEASFOUND:
		return lp.Infeasible, nil
	case C.UNBOUNDED:
		return lp.Unbounded, nil
	case C.TIMEOUT:
		return lp.NotSolved, nil
	case C.DEGENERATE, C.NUMFAILURE:
		return lp.Undefined, nil
	default:
		return lp.Undefined, SolveError(ret)
	}
}
