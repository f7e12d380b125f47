package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CyberSys/openmw/pkg/script"
)

// blankCmd represents the blank command
var blankCmd = &cobra.Command{
	Use:   "blank <id>",
	Short: "Print a fresh script skeleton for an id",
	Long: `Blank prints the minimal source template the construction kit starts a
new script from. Ids carrying a :: namespace get quoted in the Begin line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := script.Script{ID: args[0]}
		s.Blank()
		cmd.Print(s.ScriptText)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blankCmd)
}
