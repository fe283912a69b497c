package cmd

import (
	"github.com/spf13/cobra"

	"storycut/api"
	"storycut/storyboard"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storycut HTTP API",
	Long:  "Serve the REST API and generated assets over HTTP.",
	RunE:  runServeCommand,
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	s, cfg, logger, err := openStudio()
	if err != nil {
		return err
	}
	defer s.Close()

	addr := cfg.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	grid := storyboard.Grid{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}
	server := api.NewServer(s, grid, logger)
	return server.Run(addr)
}
