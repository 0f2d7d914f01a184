package main

import (
	"github.com/spf13/cobra"

	"github.com/gantrylabs/gantry/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP query facade",
	Long: `Serve exposes the store over HTTP: /health for liveness, /stats for
the verification counts, and /query for ad-hoc Cypher with JSON-safe
result values.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := connect()
	if err != nil {
		return err
	}
	defer d.Close(cmd.Context())

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	return server.NewServer(d, cfg).Run()
}
