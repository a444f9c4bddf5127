package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ovenprofile/internal/api"
	"ovenprofile/internal/config"
	"ovenprofile/internal/session"
	"ovenprofile/internal/table"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts.Config)
		},
	}
}

func newRegistry(cfg *config.Config) *session.Registry {
	loader := table.NewLoader(cfg.LoadTimeout)
	sources := cfg.Sources
	return session.NewRegistry(func(ctx context.Context) (*table.Store, error) {
		return loader.Load(ctx, sources)
	}, cfg.SessionTTL)
}

// janitorInterval checks for idle sessions a few times per ttl.
func janitorInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}

func runServe(ctx context.Context, cfg *config.Config) error {
	reg := newRegistry(cfg)
	go reg.Run(ctx, janitorInterval(cfg.SessionTTL))

	srv := &http.Server{
		Addr:              cfg.Bind,
		Handler:           api.NewRouter(api.NewHandler(reg), cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", cfg.Bind)
		log.Printf("[server] CORS enabled for: %v", cfg.AllowedOrigins)
		for _, s := range cfg.Sources {
			log.Printf("[server] source %s: %s", s.Name, s.Location())
		}
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
