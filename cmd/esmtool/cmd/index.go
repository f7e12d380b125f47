/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <plugin>...",
	Short: "Scan plugin files into the script catalog",
	Long: `Index scans one or more plugin files in load order and records every
script in the catalog under --data-dir. When several plugins provide the
same script id the plugin indexed last wins; earlier providers stay
visible in the script's history and in 'esmtool conflicts'.

Example:
  esmtool index Morrowind.esm Tribunal.esm Bloodmoon.esm patch.esp`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer catalog.Close()

		for _, path := range args {
			report, err := catalog.IndexPlugin(cmd.Context(), path)
			if err != nil {
				return err
			}
			cmd.Printf("%s: %d scripts, %d other records", report.Plugin, report.Scripts, report.Skipped)
			if report.Diagnostics > 0 {
				cmd.Printf(", %d irregularities", report.Diagnostics)
			}
			cmd.Printf(" (run %s)\n", report.RunID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
