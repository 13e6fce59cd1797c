package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreluis2005/cognira/internal/config"
	transport "github.com/andreluis2005/cognira/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the practice API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "listen port (overrides config)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout, true)

	if cfg.Catalog.Source == config.SourcePostgres {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	res := &resources{}
	defer res.Close()
	service, err := res.practiceService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	transport.RegisterRoutes(mux,
		transport.NewHandler(service, logger),
		transport.NewWSHandler(service, logger),
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.Logging(logger)(transport.CORS(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting practice service", "addr", server.Addr, "certification", cfg.Catalog.Certification)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		return err
	case sig := <-stop:
		logger.Info("shutting down server", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	timeout := config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
