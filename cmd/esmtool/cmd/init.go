/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CyberSys/openmw/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the esmtool config file",
	Long: `Init writes a config file with a fresh API key and the chosen data
directory. An existing config file is left alone.

Example:
  esmtool init --data-dir ~/morrowind/catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(path) {
			cmd.Printf("Config already exists at %s\n", path)
			return nil
		}

		dataDir, _ := cmd.Flags().GetString("data-dir")
		cfg, err := config.BootstrapConfig(path, dataDir)
		if err != nil {
			return err
		}

		cmd.Printf("✅ Wrote %s\n", path)
		cmd.Printf("🔑 API key: %s\n", cfg.Security.APIKey)
		cmd.Printf("📁 Data directory: %s\n", cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
