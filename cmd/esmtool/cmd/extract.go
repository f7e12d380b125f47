/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CyberSys/openmw/pkg/esm"
	"github.com/CyberSys/openmw/pkg/script"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <plugin> <dir>",
	Short: "Write every script source in a plugin to .mwscript files",
	Long: `Extract decodes each script record in a plugin file and writes its source
text to <dir>/<id>.mwscript, converted from the plugin encoding to UTF-8.
Deleted scripts and scripts without source text are skipped.

Example:
  esmtool extract Morrowind.esm ./scripts`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		written, skipped, err := extractScripts(args[0], args[1], runEncoding(cmd))
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %d script files to %s (%d scripts without text)\n",
			written, args[1], skipped)
		return nil
	},
}

// extractScripts writes the source text of every script in the plugin at
// path into dir, one <id>.mwscript file per script. Scripts without text,
// deleted or compiled-only, are counted but not written.
func extractScripts(path, dir string, enc *esm.Encoding) (written, skipped int, err error) {
	r, err := esm.OpenFile(path)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()
	r.SetEncoding(enc)

	if _, err := readPluginHeader(r); err != nil {
		return 0, 0, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, 0, err
	}

	var s script.Script
	for {
		tag, err := r.NextRecord()
		if err == io.EOF {
			return written, skipped, nil
		}
		if err != nil {
			return written, skipped, err
		}
		if tag != esm.RecSCPT {
			continue
		}
		if _, err := s.Load(r); err != nil {
			return written, skipped, err
		}
		if s.Deleted || s.ScriptText == "" {
			skipped++
			continue
		}
		name := scriptFileName(s.ID)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(s.ScriptText), 0644); err != nil {
			return written, skipped, err
		}
		written++
	}
}

// scriptFileName maps a script id to a file name. Ids in shipped content
// never hold path separators, but ids come off disk and are untrusted.
func scriptFileName(id string) string {
	clean := strings.NewReplacer("/", "_", "\\", "_").Replace(id)
	return clean + ".mwscript"
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
