package feedmix

import (
	"fmt"

	"github.com/costela/feedmix/lp"
)

type Option func(*Formula) error

// WithCode sets the formula's code verbatim instead of deriving it from
// the name.
func WithCode(code string) Option {
	return func(f *Formula) error {
		f.code = code

		return nil
	}
}

// WithBatchSize sets the quantity the ingredient amounts must add up to.
func WithBatchSize(size float64) Option {
	return func(f *Formula) error {
		if !(size > 0) {
			return fmt.Errorf("%v: %w", size, ErrInvalidBatchSize)
		}
		f.batchSize = size

		return nil
	}
}

func WithUnit(unit string) Option {
	return func(f *Formula) error {
		f.unit = unit

		return nil
	}
}

func WithLogger(logger Logger) Option {
	return func(f *Formula) error {
		if logger == nil {
			logger = noopLogger{}
		}
		f.logger = logger

		return nil
	}
}

// WithSolver selects the LP backend used by the formula's solver.
func WithSolver(backend lp.Solver) Option {
	return func(f *Formula) error {
		if backend == nil {
			return fmt.Errorf("nil solver")
		}
		f.backend = backend

		return nil
	}
}

// WithCostAccumulation makes every solve add onto the previous cost
// instead of starting from 0.
func WithCostAccumulation(accumulate bool) Option {
	return func(f *Formula) error {
		f.accumulateCost = accumulate

		return nil
	}
}

func WithDeriveMode(mode DeriveMode) Option {
	return func(f *Formula) error {
		switch mode {
		case DeriveOverwrite, DeriveSkipExisting:
		default:
			return fmt.Errorf("unknown derive mode %d", mode)
		}
		f.deriveMode = mode

		return nil
	}
}
