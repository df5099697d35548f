package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/forensicq/internal/httpapi"
	"github.com/dshills/forensicq/internal/mcp"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP/JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, logger, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		addr := eng.Config.HTTP.Addr
		if flagAddr != "" {
			addr = flagAddr
		}

		ctx, cancel := signalContext(logger)
		defer cancel()

		logger.Info().Str("version", version).Msg("forensicq starting")
		if err := httpapi.New(eng, logger).ListenAndServe(ctx, addr); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, logger, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		ctx, cancel := signalContext(logger)
		defer cancel()

		logger.Info().Str("version", version).Msg("MCP server ready, listening on stdio")
		if err := mcp.NewServer(eng, logger).Serve(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides http.addr)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}
