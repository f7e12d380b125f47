package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// conflictsCmd represents the conflicts command
var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List script ids provided by more than one plugin",
	Long: `Conflicts lists every script id that more than one indexed plugin
provides, oldest provider first. The last provider wins in game, so the
marked line of each group is the version the catalog serves.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer catalog.Close()

		entries, err := catalog.Conflicts()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			cmd.Println("No conflicts in the catalog")
			return nil
		}

		for _, entry := range entries {
			cmd.Println(colorText(entry.ID, color.FgHiGreen, color.Bold))
			for i, p := range entry.History {
				line := fmt.Sprintf("%s at offset %d", p.Plugin, p.Offset)
				if p.Deleted {
					line += " (deleted)"
				}
				if i == len(entry.History)-1 {
					cmd.Printf("  %s %s\n", colorText("wins:", color.FgYellow), line)
				} else {
					cmd.Printf("        %s\n", line)
				}
			}
		}
		cmd.Printf("\n%d conflicted script ids\n", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}
