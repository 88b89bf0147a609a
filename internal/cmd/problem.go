package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costela/feedmix"
)

var problemFormulaFlag string

var problemCmd = &cobra.Command{
	Use:   "problem [catalog]",
	Short: "Print the linear programs built for a catalog's formulas",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProblem,
}

func init() {
	rootCmd.AddCommand(problemCmd)
	addCatalogFlags(problemCmd)
	problemCmd.Flags().StringVar(&problemFormulaFlag, "formula", "", "Only print the formula with this name or code")
}

func runProblem(cmd *cobra.Command, args []string) error {
	library, err := loadLibrary(cmd, args)
	if err != nil {
		return err
	}

	formulas := library.Formulas()
	if problemFormulaFlag != "" {
		f, ok := library.Formula(problemFormulaFlag)
		if !ok {
			return fmt.Errorf("no formula %q in %q", problemFormulaFlag, library.Name())
		}
		formulas = []*feedmix.Formula{f}
	}

	for i, f := range formulas {
		if err := f.Solver().CreateProblem(f); err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprint(cmd.OutOrStdout(), f.Problem().String())
	}
	return nil
}
