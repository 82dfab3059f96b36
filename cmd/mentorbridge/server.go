package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/magicbus/mentorbridge/internal/advisor"
	"github.com/magicbus/mentorbridge/internal/api"
	"github.com/magicbus/mentorbridge/internal/config"
	"github.com/magicbus/mentorbridge/internal/dataset"
	"github.com/magicbus/mentorbridge/internal/session"
	"github.com/magicbus/mentorbridge/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mentorbridge server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "mentorbridge version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Dataset resolver: warehouse first when configured, CSV fallback always.
	var warehouse dataset.Querier
	if cfg.WarehouseEnabled() {
		warehouse = dataset.NewWarehouseClient(cfg.Warehouse.WorkspaceURL, cfg.Warehouse.WarehouseID, cfg.Warehouse.Token)
		slog.Info("warehouse dataset source enabled", "workspace", cfg.Warehouse.WorkspaceURL)
	}
	resolver := dataset.NewResolver(warehouse, cfg.Warehouse.TablePath, cfg.Dataset.CSVPath)

	advisorClient := advisor.New(cfg.Backend.BaseURL)
	sessions := session.NewManager(store, resolver, advisorClient)

	appHandler := api.NewAppHandler(api.AppDeps{
		Sessions:    sessions,
		Store:       store,
		Learners:    resolver,
		Verifier:    advisorClient,
		Token:       cfg.API.Token,
		KGRulesPath: cfg.Insights.KGRulesPath,
	})
	if cfg.API.Token == "" {
		slog.Warn("API token not set, bearer auth disabled")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// MCP server over stdio in a goroutine.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Sessions: sessions,
		Learners: resolver,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "mentorbridge listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
