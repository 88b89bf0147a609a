package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costela/feedmix/lp"
)

var (
	solveFormatFlag  string
	solveOutputFlag  string
	solveWorkersFlag int
)

var solveCmd = &cobra.Command{
	Use:   "solve [catalog]",
	Short: "Optimize every formula of a catalog",
	Long: `Optimize every formula of a catalog and print the resulting amounts.

Exits with code 2 when some formula has no optimal solution; the output is
written anyway and shows each formula's status.

Examples:
  feedmix solve --preset poultry
  feedmix solve feeds.toml --format json --output feeds.json
  feedmix solve feeds.yaml --workers 4 --solver glpk`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	addCatalogFlags(solveCmd)
	solveCmd.Flags().StringVarP(&solveFormatFlag, "format", "f", "csv", "Output format: csv or json")
	solveCmd.Flags().StringVarP(&solveOutputFlag, "output", "o", "", "Write to a file instead of stdout")
	solveCmd.Flags().IntVarP(&solveWorkersFlag, "workers", "w", 1, "Formulas solved in parallel, 0 for one per formula")
}

func runSolve(cmd *cobra.Command, args []string) (err error) {
	if solveFormatFlag != "csv" && solveFormatFlag != "json" {
		return fmt.Errorf("unknown format %q", solveFormatFlag)
	}

	library, err := loadLibrary(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if solveWorkersFlag == 1 {
		err = library.Optimize(ctx)
	} else {
		err = library.OptimizeConcurrently(ctx, solveWorkersFlag)
	}
	if err != nil {
		return err
	}

	w, closeOutput, err := output(cmd.OutOrStdout(), solveOutputFlag)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOutput(); err == nil {
			err = cerr
		}
	}()

	switch solveFormatFlag {
	case "json":
		data, err := json.MarshalIndent(library, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	default:
		if err := library.WriteCSV(w); err != nil {
			return err
		}
	}

	for _, f := range library.Formulas() {
		if f.Status() != lp.Optimal {
			fmt.Fprintf(cmd.ErrOrStderr(), "formula %q: %s\n", f.Name(), f.Status())
			err = NewSilentExit(2)
		}
	}
	return err
}
