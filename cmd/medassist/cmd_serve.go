package main

import (
	"github.com/spf13/cobra"

	"github.com/medassist/triage/internal/config"
	"github.com/medassist/triage/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API for consultations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		svc, err := buildService(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		srv := server.New(server.Config{Addr: cfg.Server.Addr}, svc, logger)
		return srv.ListenAndServe()
	},
}
