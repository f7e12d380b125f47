/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/CyberSys/openmw/pkg/config"
	"github.com/CyberSys/openmw/pkg/esm"
	"github.com/CyberSys/openmw/pkg/store"

	_ "github.com/tliron/commonlog/simple"
)

type ctxKey string

const (
	configKey   ctxKey = "config"
	encodingKey ctxKey = "encoding"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "esmtool",
	Short: "Inspect, extract and catalog the scripts in TES3 plugin files",
	Long: `esmtool reads the script records of Morrowind-era plugin files (.esp,
.esm, .ess), repairs the irregularities the vanilla toolchain shipped, and
keeps a persistent catalog of every script seen across a load order.

Plugin files store text in a Windows codepage; esmtool converts to and
from UTF-8 at the file boundary (--encoding picks the codepage).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetCount("verbose")
		commonlog.Configure(cfg.Logging.Verbosity+verbose, nil)

		enc, err := esm.EncodingByName(cfg.Encoding)
		if err != nil {
			return err
		}

		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		ctx = context.WithValue(ctx, encodingKey, enc)
		cmd.SetContext(ctx)
		return nil
	},
}

// loadConfig resolves the effective configuration: the config file when one
// exists, defaults otherwise, with explicit flags beating both.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("encoding") {
		cfg.Encoding, _ = cmd.Flags().GetString("encoding")
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "win1252"
	}
	return cfg, nil
}

// runConfig returns the configuration resolved by PersistentPreRunE.
func runConfig(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(configKey).(*config.Config)
}

// runEncoding returns the plugin file encoding resolved by PersistentPreRunE.
func runEncoding(cmd *cobra.Command) *esm.Encoding {
	return cmd.Context().Value(encodingKey).(*esm.Encoding)
}

// openCatalog opens the script catalog under the configured data directory.
// The caller closes it.
func openCatalog(cmd *cobra.Command) (*store.Catalog, error) {
	cfg := runConfig(cmd)
	return store.Open(store.Config{
		DataDir:  cfg.DataDir,
		Encoding: runEncoding(cmd),
	})
}

// readPluginHeader consumes the TES3 header record that must open every
// plugin file.
func readPluginHeader(r *esm.Reader) (*esm.FileHeader, error) {
	tag, err := r.NextRecord()
	if err == io.EOF {
		return nil, r.Fail("file has no records")
	}
	if err != nil {
		return nil, err
	}
	if tag != esm.RecTES3 {
		return nil, r.Fail("first record is not a TES3 file header")
	}
	return esm.ReadFileHeader(r)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Directory holding the script catalog")
	rootCmd.PersistentFlags().String("config", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().String("encoding", "win1252", "Plugin file encoding (win1250, win1251, win1252, utf8)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Raise log verbosity (repeatable)")
}
