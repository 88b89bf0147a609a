package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costela/feedmix"
	"github.com/costela/feedmix/catalog"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the embedded catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range catalog.Presets() {
			doc, err := catalog.PresetDocument(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d formulas\n", name, doc.Name, len(doc.Formulas))
		}
		return nil
	},
}

var codeCmd = &cobra.Command{
	Use:   "code NAME...",
	Short: "Print the codes derived from item names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			code, err := feedmix.NormalizeCode(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(codeCmd)
}
