package cmd

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CyberSys/openmw/pkg/esm"
	"github.com/CyberSys/openmw/pkg/script"
)

func colorText(text string, attrs ...color.Attribute) string {
	return color.New(attrs...).SprintFunc()(text)
}

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <plugin>",
	Short: "Print the scripts a plugin file contains",
	Long: `Dump walks every record of a plugin file and prints a summary of each
script: id, variable counts, compiled size and record flags, plus any
irregularities the parser repaired along the way.

Examples:
  esmtool dump Morrowind.esm
  esmtool dump --id doorTrap --text Tribunal.esm
  esmtool dump --vars mod_weather.esp`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withText, _ := cmd.Flags().GetBool("text")
		withVars, _ := cmd.Flags().GetBool("vars")
		idFilter, _ := cmd.Flags().GetString("id")

		r, err := esm.OpenFile(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		r.SetEncoding(runEncoding(cmd))

		header, err := readPluginHeader(r)
		if err != nil {
			return err
		}
		cmd.Printf("%s: %s, format %.1f, %d records, author %q\n",
			r.Name(), fileKind(header.FileType), header.Version, header.NumRecords, header.Author)
		for _, m := range header.Masters {
			cmd.Printf("  requires %s (%d bytes)\n", m.Name, m.Size)
		}
		cmd.Println()

		scripts, others := 0, 0
		var s script.Script
		for {
			tag, err := r.NextRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if tag != esm.RecSCPT {
				others++
				continue
			}

			diags, err := s.Load(r)
			if err != nil {
				return err
			}
			if idFilter != "" && !strings.EqualFold(s.ID, idFilter) {
				continue
			}
			scripts++
			printScript(cmd, &s, diags, withVars, withText)
		}

		cmd.Printf("\n%d scripts, %d other records\n", scripts, others)
		return nil
	},
}

func printScript(cmd *cobra.Command, s *script.Script, diags esm.Diagnostics, withVars, withText bool) {
	line := colorText(s.ID, color.FgHiGreen, color.Bold)
	if s.Deleted {
		line += " " + colorText("(deleted)", color.FgRed)
	}
	if s.Flags&esm.FlagPersistent != 0 {
		line += " " + colorText("[persistent]", color.FgHiBlack)
	}
	if s.Flags&esm.FlagBlocked != 0 {
		line += " " + colorText("[blocked]", color.FgHiBlack)
	}
	cmd.Println(line)

	if !s.Deleted {
		cmd.Printf("  %d shorts, %d longs, %d floats; %d bytes compiled, %d bytes text\n",
			s.Header.NumShorts, s.Header.NumLongs, s.Header.NumFloats,
			s.Header.ScriptDataSize, len(s.ScriptText))
	}
	for _, d := range diags {
		cmd.Printf("  %s\n", colorText(d.String(), color.FgYellow))
	}
	if withVars && len(s.VarNames) > 0 {
		cmd.Printf("  vars: %s\n", strings.Join(s.VarNames, ", "))
	}
	if withText && s.ScriptText != "" {
		cmd.Println(indent(s.ScriptText, "  | "))
	}
}

func fileKind(t uint32) string {
	switch t {
	case esm.FileTypeMaster:
		return "master"
	case esm.FileTypeSavegame:
		return "savegame"
	default:
		return "plugin"
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	return prefix + strings.Join(lines, "\n"+prefix)
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Bool("text", false, "Print each script's source text")
	dumpCmd.Flags().Bool("vars", false, "Print each script's variable names")
	dumpCmd.Flags().String("id", "", "Only show the script with this id")
}
