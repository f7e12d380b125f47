package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one cataloged script",
	Long: `Get looks a script up by id (case-insensitive) and prints its winning
version: provider plugin, variable declarations, sizes and source text.
--history lists every plugin that ever provided the id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withHistory, _ := cmd.Flags().GetBool("history")

		catalog, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer catalog.Close()

		entry, err := catalog.Script(args[0])
		if err != nil {
			return err
		}

		cmd.Printf("%s  (from %s)\n", entry.ID, entry.Plugin)
		if entry.Deleted {
			cmd.Println("  deleted")
		} else {
			cmd.Printf("  %d shorts, %d longs, %d floats; %d bytes compiled\n",
				entry.NumShorts, entry.NumLongs, entry.NumFloats, len(entry.ScriptData))
		}
		if len(entry.VarNames) > 0 {
			cmd.Printf("  vars: %s\n", strings.Join(entry.VarNames, ", "))
		}
		if withHistory && len(entry.History) > 0 {
			cmd.Println("  history:")
			for _, p := range entry.History {
				line := p.Plugin
				if p.Deleted {
					line += " (deleted)"
				}
				cmd.Printf("    %s at offset %d (run %s)\n", line, p.Offset, p.RunID)
			}
		}
		if entry.ScriptText != "" {
			cmd.Println()
			cmd.Print(entry.ScriptText)
			if !strings.HasSuffix(entry.ScriptText, "\n") {
				cmd.Println()
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("history", false, "List every plugin that provided this id")
}
