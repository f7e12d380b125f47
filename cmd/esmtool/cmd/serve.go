/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/CyberSys/openmw/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the script catalog over HTTP",
	Long: `Serve starts a REST API over the catalog under --data-dir. Endpoints
live under /api/v1 and answer JSON; Prometheus metrics are exposed on
/metrics. Requests must carry the configured API key in the X-API-Key
header unless the key is empty.

Example:
  esmtool serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runConfig(cmd)

		port := cfg.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		apiKey := cfg.Security.APIKey
		if cmd.Flags().Changed("api-key") {
			apiKey, _ = cmd.Flags().GetString("api-key")
		}
		if apiKey == "auto" {
			// No bootstrapped config; mint a key for this run only.
			apiKey = ksuid.New().String()
			cmd.Printf("🔑 Generated API key for this run: %s\n", apiKey)
			cmd.Println("   Run 'esmtool init' to persist one")
		}

		catalog, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer catalog.Close()

		return api.StartServer(catalog, api.ServerConfig{
			Port:   port,
			APIKey: apiKey,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key clients must present (overrides config)")
}
