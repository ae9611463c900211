package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"trimline/internal/booking"
	"trimline/internal/handlers"
	"trimline/internal/outbox"
	"trimline/internal/storage"
	"trimline/libs/config"
	"trimline/libs/db"
	"trimline/libs/httpx"
	"trimline/libs/kafkax"
	otelx "trimline/libs/otel"
	"trimline/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "trimline-server")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	barberID, err := config.RequiredString("BARBER_ID")
	if err != nil {
		// Without the barber id no booking can be attributed; refuse to start.
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	tzName := config.String("SHOP_TIMEZONE", "Asia/Jerusalem")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		logger.Error("invalid SHOP_TIMEZONE, falling back to UTC", "tz", tzName, "err", err)
		loc = time.UTC
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	repo := storage.NewRepository(pool, outboxRepo)
	svc := booking.NewService(repo, barberID, loc, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	publicHandler := handlers.NewPublicHandler(svc, logger)
	adminHandler := handlers.NewAdminHandler(repo, logger, barberID, loc)
	authHandler := handlers.NewAuthHandler(repo, logger, jwtSecret,
		time.Duration(config.Int("JWT_TTL_HOURS", 12))*time.Hour)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if strings.TrimSpace(kafkaBrokers) != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("/api/v1/public/slots", publicHandler.Slots)
	mux.HandleFunc("/api/v1/public/booked", publicHandler.Booked)
	mux.HandleFunc("/api/v1/public/book", publicHandler.Book)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)

	admin := http.NewServeMux()
	admin.HandleFunc("/api/v1/admin/appointments", adminHandler.ListDay)
	admin.HandleFunc("/api/v1/admin/appointments/approve", adminHandler.Approve)
	admin.HandleFunc("/api/v1/admin/appointments/cancel", adminHandler.Cancel)
	admin.HandleFunc("/api/v1/admin/availability", adminHandler.Availability)
	mux.Handle("/api/v1/admin/",
		handlers.RequireAuth(handlers.RequireRole(admin, "barber"), jwtSecret))

	corsOrigins := splitCSV(config.String("CORS_ALLOWED_ORIGINS", ""))
	middlewares := []httpx.Middleware{
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second),
	}

	rateLimit := config.Int("RATE_LIMIT", 60)
	rateWindow := time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, rateWindow, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, rateWindow).Middleware())
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "trimline")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
