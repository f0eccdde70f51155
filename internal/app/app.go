package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilinovom/photo-stats-bot/internal/app/cmdHandlers"
	"github.com/ilinovom/photo-stats-bot/internal/config"
	"github.com/ilinovom/photo-stats-bot/internal/repository"
	"github.com/ilinovom/photo-stats-bot/internal/service"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/metrics"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
)

const (
	pollRetryDelay  = time.Second
	shutdownTimeout = 10 * time.Second
)

// requestMargin is added to the long poll wait for the HTTP client timeout.
const requestMargin = 15 * time.Second

// App coordinates the services and telegram client.
type App struct {
	cfg      *config.Config
	tgClient *telegram.Client
	handler  *cmdHandlers.CmdHandler
	logger   logger.Logger
}

func New(cfg *config.Config, repo repository.PhotoRepository, log logger.Logger, opts ...telegram.Option) *App {
	if log == nil {
		log = logger.Nop()
	}
	httpClient := &http.Client{Timeout: cfg.PollTimeout + requestMargin}
	opts = append([]telegram.Option{telegram.WithHTTPClient(httpClient)}, opts...)
	tgClient := telegram.NewClient(cfg.TelegramToken, opts...)
	leaderboard := service.NewLeaderboardService(repo, cmdHandlers.NewMemberNames(tgClient),
		service.WithLimit(cfg.TopLimit),
		service.WithLookupTimeout(cfg.NameLookupTimeout),
		service.WithFallbackLabel(cfg.Message(config.MsgUserFallback)),
		service.WithLeaderboardLogger(log.Named("leaderboard")),
	)
	handler := cmdHandlers.NewCmdHandler(cfg, tgClient,
		service.NewPhotoService(repo),
		leaderboard,
		service.NewOnboardingService(),
		log.Named("handlers"),
	)
	return &App{
		cfg:      cfg,
		tgClient: tgClient,
		handler:  handler,
		logger:   log,
	}
}

// Run polls Telegram until ctx is cancelled or the process is interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.handler.SetCommands(ctx)

	var metricsSrv *http.Server
	if a.cfg.MetricsAddr != "" {
		metricsSrv = a.serveMetrics(ctx)
	}

	dispatcher := NewDispatcher(a.cfg.Workers, a.handler, a.logger.Named("dispatcher"))
	dispatcher.Start(ctx)
	a.logger.Info(ctx, "bot started", logger.Int("workers", a.cfg.Workers), logger.String("db_driver", a.cfg.DBDriver))

	a.handleUpdates(ctx, dispatcher)

	dispatcher.Stop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn(ctx, "metrics server shutdown", logger.Error(err))
		}
	}
	a.logger.Info(ctx, "bot stopped", logger.Int("pending_dialogs", a.handler.PendingDialogs()))
	return nil
}

func (a *App) handleUpdates(ctx context.Context, d *Dispatcher) {
	offset := 0
	pollTimeout := int(a.cfg.PollTimeout / time.Second)
	for ctx.Err() == nil {
		updates, err := a.tgClient.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Warn(ctx, "get updates", logger.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil {
				continue
			}
			if err := d.Dispatch(ctx, u); err != nil {
				return
			}
		}
	}
}

func (a *App) serveMetrics(ctx context.Context) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info(ctx, "starting metrics server", logger.String("addr", a.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv
}
