// Package cmd implements the feedmix command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/costela/feedmix"
	"github.com/costela/feedmix/catalog"
	"github.com/costela/feedmix/lp"
	"github.com/costela/feedmix/lp/simplex"

	// optional backends, empty unless built with their tags
	_ "github.com/costela/feedmix/lp/glpk"
	_ "github.com/costela/feedmix/lp/lpsolve"
)

var (
	verboseFlag bool
	presetFlag  string
	solverFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "feedmix",
	Short: "Least-cost feed formulation",
	Long: `feedmix finds the cheapest mix of ingredients that meets the nutrient
bounds of each formula in a catalog.

Catalogs are TOML or YAML files, or one of the embedded presets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log solver progress to stderr")
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsSilentExit(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func logger(cmd *cobra.Command) feedmix.Logger {
	if !verboseFlag {
		return lp.NopLogger()
	}
	return log.New(cmd.ErrOrStderr(), "feedmix: ", log.LstdFlags)
}

// addCatalogFlags registers the flags selecting a catalog and a backend.
func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Use an embedded catalog instead of a file")
	cmd.Flags().StringVarP(&solverFlag, "solver", "s", simplex.Name, fmt.Sprintf("LP backend, one of %v", lp.Drivers()))
}

func openSolver(logger feedmix.Logger) (lp.Solver, error) {
	return lp.Open(solverFlag, logger)
}

// loadLibrary builds the library named by --preset or by the single file
// argument.
func loadLibrary(cmd *cobra.Command, args []string) (*feedmix.FormulaLibrary, error) {
	logs := logger(cmd)
	backend, err := openSolver(logs)
	if err != nil {
		return nil, err
	}
	opts := []feedmix.Option{
		feedmix.WithSolver(backend),
		feedmix.WithLogger(logs),
	}

	switch {
	case presetFlag != "" && len(args) > 0:
		return nil, fmt.Errorf("--preset and a catalog file are mutually exclusive")
	case presetFlag != "":
		return catalog.Preset(presetFlag, opts...)
	case len(args) == 1:
		return catalog.Load(args[0], opts...)
	}
	return nil, fmt.Errorf("a catalog file or --preset is required")
}

// output opens path for writing, or returns w for "" and "-".
func output(w io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}
