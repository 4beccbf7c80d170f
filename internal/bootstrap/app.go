package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/infra/config"
	"github.com/yanqian/circulabot/pkg/util"
)

// App encapsulates the HTTP server lifecycle and the one-shot check mode.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	advisorSvc advisor.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, advisorSvc advisor.Service) *App {
	return &App{
		cfg:        cfg,
		logger:     logger.With("component", "bootstrap"),
		server:     server,
		advisorSvc: advisorSvc,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// RunOnce performs a single check for today's date and exits. Intended for
// cron-style scheduling. Sundays are skipped because no restriction ever
// applies on them.
func (a *App) RunOnce(ctx context.Context) error {
	today := util.NowCDMX()
	if today.Weekday() == time.Sunday {
		a.logger.Info("sunday, no restrictions apply, skipping check")
		return nil
	}

	record, err := a.advisorSvc.Check(ctx, advisor.CheckRequest{})
	if err != nil {
		return err
	}

	a.logger.Info("check completed",
		"date", record.Date,
		"mayDrive", record.MayDrive,
		"level", record.Level,
		"notified", record.Notified,
	)
	return nil
}
