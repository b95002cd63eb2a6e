package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/auth"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/config"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/httpapi"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/logger"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/schema"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/service"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

Configuration comes from CRVS_* environment variables and an optional
crvs.yaml file. In production and staging, serve refuses to start with
the development JWT secret or an in-memory database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}

	return cmd
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if opts.DBPath != "" {
		cfg.Database.Path = opts.DBPath
	}

	log := logger.New("crvs", cfg.Server.Environment)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	reg, err := schema.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "load declaration schemas", err)
	}

	maxSeq, err := st.MaxSeq(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "read clock checkpoint", err)
	}

	eng := engine.New(reg,
		engine.WithClock(engine.NewClockAt(maxSeq)),
		engine.WithLateRegistrationCutoff(cfg.Registration.LateCutoff),
	)
	svc := service.New(eng, st, log)
	tokens := auth.NewManager(&cfg.JWT)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      httpapi.NewServer(svc, tokens, log).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine so we can listen for shutdown signals.
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("environment", cfg.Server.Environment).
			Str("database", cfg.Database.Path).
			Int64("resume_seq", maxSeq).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return WrapExitError(ExitCommandError, "server failed", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	case <-cmd.Context().Done():
		log.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return WrapExitError(ExitCommandError, "forced shutdown", err)
	}

	log.Info().Msg("server exited")
	return nil
}
