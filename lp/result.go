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

package lp

import (
	"fmt"
)

/* Types */

type Result struct {
	status    Status
	objective float64
	values    []float64
}

// Status is the outcome classification reported by a solver.
type Status int

const (
	// Unsolved is the zero value: no solver has looked at the model yet.
	Unsolved Status = iota
	Optimal
	// Feasible means a feasible but not provably optimal point was found.
	Feasible
	Infeasible
	Unbounded
	// NotSolved means the solver gave up before classifying the model,
	// e.g. on an iteration or time limit.
	NotSolved
	// Undefined covers numerical failures and other engine outcomes that
	// say nothing about the model itself.
	Undefined
)

var statusNames = map[Status]string{
	Unsolved:   "Unsolved",
	Optimal:    "Optimal",
	Feasible:   "Feasible",
	Infeasible: "Infeasible",
	Unbounded:  "Unbounded",
	NotSolved:  "Not Solved",
	Undefined:  "Undefined",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return Undefined, fmt.Errorf("unknown solver status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// NewResult is used by backends to report an outcome. values must be
// indexed like the model's variables, or be nil when the engine produced
// no assignment.
func NewResult(status Status, objective float64, values []float64) *Result {
	return &Result{
		status:    status,
		objective: objective,
		values:    values,
	}
}

// Status reports the classification of the solution.
func (res *Result) Status() Status {
	return res.status
}

// ObjectiveValue returns the value of the objective function for
// this optimization result. This value is only optimal if Status
// also returns Optimal.
func (res *Result) ObjectiveValue() float64 {
	return res.objective
}

// HasValues reports whether the engine produced a variable assignment.
func (res *Result) HasValues() bool {
	return res.values != nil
}

// Value returns the computed value of the given variable for this
// optimization result. ok is false when the engine produced no
// assignment or v is not part of the solved model.
func (res *Result) Value(v *Variable) (value float64, ok bool) {
	if res.values == nil || v == nil || v.index >= len(res.values) {
		return 0, false
	}
	return res.values[v.index], true
}

// Values returns a copy of the assignment, indexed like the model's
// variables.
func (res *Result) Values() []float64 {
	return append([]float64(nil), res.values...)
}
