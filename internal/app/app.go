package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/bistro/internal/domain/order"
	"github.com/xenking/bistro/internal/domain/report"
	"github.com/xenking/bistro/internal/handler"
	"github.com/xenking/bistro/internal/storage/postgres"
	"github.com/xenking/bistro/internal/wire"
	"github.com/xenking/bistro/pkg/health"
	"github.com/xenking/bistro/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("cutoff", cfg.Orders.CutoffTime),
		zap.String("time_zone", cfg.Orders.TimeZone),
	)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	h, err := NewHandler(ctx, lg, cfg, pool, healthSvc, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// NewHandler builds repositories, domain services and the instrumented
// HTTP handler serving the API and health probes. The limiter pruner runs
// until ctx is done.
func NewHandler(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	pool *pgxpool.Pool,
	healthSvc *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (http.Handler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return nil, err
	}

	// Repositories.
	menuRepo := postgres.NewMenuRepository(pool, cfg.Orders.CurrencyExponent)
	orderRepo := postgres.NewOrderRepository(pool)

	// Domain services.
	orderService := order.NewService(orderRepo, menuRepo, cutoff,
		order.WithMeterProvider(mp),
	)
	engine := report.NewEngine(
		report.WithLocation(loc),
		report.WithLogger(lg.Named("report")),
		report.WithTopCustomers(cfg.Reports.TopCustomers),
		report.WithRecentOrders(cfg.Reports.RecentOrders),
		report.WithStatsDays(cfg.Reports.StatsDays),
		report.WithMeterProvider(mp),
	)
	reportService := report.NewService(orderRepo, engine, tp)

	// HTTP handlers.
	auth, err := handler.NewAuthenticator(cfg.AdminKeyHash, []byte(cfg.AdminKeyPepper))
	if err != nil {
		return nil, errors.Wrap(err, "create authenticator")
	}
	if cfg.AdminKeyHash == "" {
		lg.Warn("Admin key hash not configured, admin routes are disabled")
	}

	var limiter *httpmiddleware.Limiter
	if cfg.RateLimit.Max > 0 {
		limiter = httpmiddleware.NewLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		go limiter.RunPruner(ctx, cfg.RateLimit.Window)
	}

	h := handler.New(handler.Config{
		StatusCodes: cfg.Orders.StatusCodes,
		Settings: wire.Settings{
			OrderCutoffTime:  cfg.Orders.CutoffTime,
			TimeZone:         loc.String(),
			Currency:         cfg.Orders.Currency,
			CurrencyExponent: cfg.Orders.CurrencyExponent,
			StatusCodes:      cfg.Orders.StatusCodes,
		},
		Location:     loc,
		MaxBodyBytes: cfg.MaxBodyBytes,
		PlaceLimiter: limiter,
	}, menuRepo, orderService, reportService, auth)

	// Mux: health endpoints + API routes on one server.
	mux := h.Routes()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)

	instrumented := otelhttp.NewHandler(mux, "bistro-api",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/livez" && r.URL.Path != "/readyz"
		}),
	)

	return httpmiddleware.Wrap(instrumented,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			AllowHeaders: []string{
				"Content-Type",
				httpmiddleware.HeaderRequestID,
				handler.HeaderAdminKey,
				handler.HeaderCustomerName,
				handler.HeaderCustomerPhone,
				handler.HeaderCustomerEmail,
			},
			MaxAge: 86400,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	), nil
}
