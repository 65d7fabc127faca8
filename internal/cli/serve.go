package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/specgate/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the specgate engine.

Endpoints:
  GET  /health          Health check
  POST /api/inventory   Parse a document into its message inventory
  POST /api/compare     Compare two documents and gate the result
  POST /api/classify    Classify one block-level change
  POST /api/check       Classify a unified diff of markdown exports
  GET  /api/ws          WebSocket session for reviewing pending messages`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	p, err := e.adhocParser()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	listen := fmt.Sprintf("%s:%d", addr, port)
	srv := api.New(listen, api.Options{Parser: p, Strategy: e.strategy, Store: e.store})
	return srv.ListenAndServe()
}
