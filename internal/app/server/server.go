package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/chat"
	"wfm/internal/domain/checklists"
	"wfm/internal/domain/forms"
	"wfm/internal/domain/notifications"
	"wfm/internal/domain/org"
	"wfm/internal/domain/pto"
	"wfm/internal/domain/reports"
	"wfm/internal/domain/shifts"
	"wfm/internal/domain/swaps"
	"wfm/internal/domain/timeclock"
	"wfm/internal/domain/timesheets"
	"wfm/internal/platform/config"
	"wfm/internal/platform/email"
	"wfm/internal/platform/jobs"
	"wfm/internal/platform/realtime"
	audithandler "wfm/internal/transport/http/handlers/audit"
	authhandler "wfm/internal/transport/http/handlers/auth"
	chathandler "wfm/internal/transport/http/handlers/chat"
	checklistshandler "wfm/internal/transport/http/handlers/checklists"
	formshandler "wfm/internal/transport/http/handlers/forms"
	notificationshandler "wfm/internal/transport/http/handlers/notifications"
	orghandler "wfm/internal/transport/http/handlers/org"
	ptohandler "wfm/internal/transport/http/handlers/pto"
	reportshandler "wfm/internal/transport/http/handlers/reports"
	shiftshandler "wfm/internal/transport/http/handlers/shifts"
	swapshandler "wfm/internal/transport/http/handlers/swaps"
	timeclockhandler "wfm/internal/transport/http/handlers/timeclock"
	timesheetshandler "wfm/internal/transport/http/handlers/timesheets"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/ws"
)

// App holds the wired application. Router is exported so tests can drive
// the full HTTP surface without opening a listener.
type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Hub    *realtime.Hub
	Jobs   *jobs.Service

	bridge *realtime.Bridge
}

func New(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*App, error) {
	hub := realtime.New()
	bridge, err := realtime.NewBridge(hub, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	authStore := auth.NewStore(pool)
	orgStore := org.NewStore(pool)
	auditSvc := audit.New(pool)

	mailer := email.New(cfg)
	notifySvc := notifications.New(notifications.NewStore(pool), mailer, bridge, cfg.EmailFrom, cfg.EmailEnabled)

	shiftSvc := shifts.NewService(shifts.NewStore(pool))
	clockStore := timeclock.NewStore(pool)
	clockSvc := timeclock.NewService(clockStore, orgStore)
	swapSvc := swaps.NewService(swaps.NewStore(pool), shiftSvc.Store, orgStore)
	ptoSvc := pto.NewService(pto.NewStore(pool), orgStore)
	timesheetSvc := timesheets.NewService(timesheets.NewStore(pool), clockStore)
	reportSvc := reports.NewService(reports.NewStore(pool))
	checklistSvc := checklists.NewService(checklists.NewStore(pool))
	formSvc := forms.NewService(forms.NewStore(pool))
	chatStore := chat.NewStore(pool)
	chatSvc := chat.NewService(chatStore, bridge)

	jobSvc := jobs.New(pool, cfg)
	jobSvc.BalanceInit = func(ctx context.Context, orgID string, year int) (any, error) {
		return ptoSvc.InitializeBalances(ctx, orgID, pto.InitializeInput{Year: year})
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret, auditSvc).RegisterRoutes(r)
		orghandler.NewHandler(orgStore, authStore, auditSvc).RegisterRoutes(r)
		shiftshandler.NewHandler(shiftSvc, authStore, notifySvc, auditSvc).RegisterRoutes(r)
		timeclockhandler.NewHandler(clockSvc, authStore).RegisterRoutes(r)
		swapshandler.NewHandler(swapSvc, authStore, notifySvc, auditSvc).RegisterRoutes(r)
		ptohandler.NewHandler(ptoSvc, authStore, notifySvc, auditSvc).RegisterRoutes(r)
		timesheetshandler.NewHandler(timesheetSvc, orgStore, authStore, notifySvc, auditSvc).RegisterRoutes(r)
		checklistshandler.NewHandler(checklistSvc, authStore, notifySvc, auditSvc).RegisterRoutes(r)
		formshandler.NewHandler(formSvc, authStore, auditSvc).RegisterRoutes(r)
		chathandler.NewHandler(chatSvc, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc, authStore).RegisterRoutes(r)
		reportshandler.NewHandler(reportSvc, authStore).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
	})

	router.Handle("/ws", ws.NewHandler(hub, chatStore))

	return &App{
		Config: cfg,
		DB:     pool,
		Router: otelhttp.NewHandler(router, "http.server"),
		Hub:    hub,
		Jobs:   jobSvc,
		bridge: bridge,
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Jobs.Start(ctx)
	a.bridge.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.bridge.Close(); err != nil {
		slog.Warn("redis bridge close failed", "err", err)
	}
	return nil
}
