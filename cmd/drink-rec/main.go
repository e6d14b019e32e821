// cmd/drink-rec/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mcp-drink-rec/internal/config"
	"mcp-drink-rec/internal/logger"
	"mcp-drink-rec/internal/server"
)

const version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	dbPath     string
	catalog    string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "drink-rec",
		Short: "Recommend drinks by nutrition preference",
		Long: `drink-rec recommends beverages whose calories, sugars, protein, total fat
and caffeine fall into the requested High/Medium/Low (or Zero caffeine)
levels. When nothing matches every preference it ignores one preference at a
time, in priority order, until something does.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML); defaults to $DRINK_REC_CONFIG")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.dbPath, "db-path", "", "Database path")
	cmd.PersistentFlags().StringVar(&g.catalog, "catalog", "", "Catalog CSV path")

	cmd.AddCommand(
		serveCmd(g),
		recommendCmd(g),
		importCmd(g),
		levelsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "drink-rec version %s\n", version)
			},
		},
	)

	return cmd
}

// load reads the config file and applies the persistent flags on top.
func (g *globalFlags) load() (*config.Config, error) {
	path := g.configPath
	if path == "" {
		path = config.Path()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	if g.catalog != "" {
		cfg.CatalogPath = g.catalog
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		host    string
		address string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			// address is an alias for host
			if address != "" {
				host = address
			}
			if host != "" {
				cfg.Host = host
			}
			if port != 0 {
				cfg.Port = port
			}

			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address")
	cmd.Flags().StringVar(&address, "address", "", "Address (alias for host)")
	cmd.Flags().IntVar(&port, "port", 0, "Port for HTTP transport")

	return cmd
}

func serve(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := server.NewDrinkRecServer(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	case runErr = <-errCh:
		logger.Errorf("server error: %v", runErr)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Errorf("error during shutdown: %v", err)
	}
	return runErr
}
