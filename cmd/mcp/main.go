package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/setup"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/setup/logger"
)

func main() {
	// Load env
	_ = godotenv.Load()

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load Config
	cfg, err := setup.LoadConfig()
	if err != nil {
		l := logger.New("info", os.Stderr)
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	// stdout carries the stdio transport, so logs go to stderr.
	log := logger.New(cfg.LogLevel, os.Stderr)

	// Wire dependencies
	deps, err := setup.Wire(ctx, cfg, &log)
	if err != nil {
		log.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}
	defer deps.Close()

	server := mcpadapter.NewServer(deps.Toolbox)

	switch cfg.MCPTransport {
	case "stdio":
		err = runStdio(ctx, server)
	case "sse":
		err = serveHTTP(ctx, cfg.MCPAddr, mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return server }, nil))
	case "http":
		err = serveHTTP(ctx, cfg.MCPAddr, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil))
	default:
		log.Error().Str("transport", cfg.MCPTransport).Msg("Unknown MCP_TRANSPORT, expected stdio, sse or http")
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("transport", cfg.MCPTransport).Msg("Failed to run mcp server")
		deps.Close()
		os.Exit(1)
	}
	log.Info().Msg("MCP server stopped")
}

func runStdio(ctx context.Context, server *mcp.Server) error {
	err := server.Run(ctx, &mcp.StdioTransport{})
	// EOF / "server is closing" is expected when stdin closes.
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "server is closing") {
		return nil
	}
	return err
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
