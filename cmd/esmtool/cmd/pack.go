package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CyberSys/openmw/pkg/esm"
	"github.com/CyberSys/openmw/pkg/script"
)

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack <dir> <plugin>",
	Short: "Build a plugin file from extracted script sources",
	Long: `Pack collects every .mwscript file in a directory into a new plugin file.
Each script carries only its source text; compiled data and variable
counts stay zeroed, the way the construction kit leaves freshly written
scripts before compilation.

Example:
  esmtool pack ./scripts patch.esp`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, _ := cmd.Flags().GetString("author")
		desc, _ := cmd.Flags().GetString("description")
		n, err := packScripts(args[0], args[1], runEncoding(cmd), author, desc)
		if err != nil {
			return err
		}
		cmd.Printf("Packed %d scripts into %s\n", n, args[1])
		return nil
	},
}

// packScripts builds a plugin at out from the .mwscript files under dir.
// File names become script ids; sources are re-encoded from UTF-8 to the
// plugin encoding on write.
func packScripts(dir, out string, enc *esm.Encoding, author, desc string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mwscript"))
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("no .mwscript files under %s", dir)
	}
	sort.Strings(matches)

	w, err := esm.CreateFile(out)
	if err != nil {
		return 0, err
	}
	w.SetEncoding(enc)

	header := &esm.FileHeader{
		Version:     esm.Version13,
		FileType:    esm.FileTypePlugin,
		Author:      author,
		Description: desc,
		NumRecords:  uint32(len(matches)),
	}
	if err := header.Write(w); err != nil {
		w.Close()
		return 0, err
	}

	for _, path := range matches {
		text, err := os.ReadFile(path)
		if err != nil {
			w.Close()
			return 0, err
		}
		s := script.Script{
			ID:         strings.TrimSuffix(filepath.Base(path), ".mwscript"),
			ScriptText: string(text),
		}
		w.StartRecord(esm.RecSCPT, 0)
		if err := s.Save(w); err != nil {
			w.Close()
			return 0, err
		}
		if err := w.EndRecord(); err != nil {
			w.Close()
			return 0, err
		}
	}
	return len(matches), w.Close()
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().String("author", "esmtool", "Author field of the new plugin")
	packCmd.Flags().String("description", "Packed script sources", "Description field of the new plugin")
}
