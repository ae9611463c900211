package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"trimline/internal/inbox"
	"trimline/internal/notify"
	"trimline/internal/outbox"
	"trimline/libs/config"
	"trimline/libs/db"
	"trimline/libs/kafkax"
	otelx "trimline/libs/otel"
	"trimline/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "notify-worker")
	port, err := config.Port("PORT", "8081")
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
	kafkaBrokers, err := config.RequiredString("KAFKA_BROKERS")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	sender := notify.NewSMTPSender(
		config.String("SMTP_HOST", "localhost"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", ""),
	)
	shopName := config.String("SHOP_NAME", "Trimline")
	groupID := config.String("KAFKA_GROUP_ID", "notify-worker")

	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		consumer := notify.NewConsumer(logger, inboxRepo, sender, notify.Config{
			Brokers:  kafkaBrokers,
			GroupID:  groupID,
			Topic:    topic,
			ShopName: shopName,
		})
		go consumer.Run(ctx)
	}
	startConsumer(outbox.EventAppointmentBooked)
	startConsumer(outbox.EventAppointmentCancelled)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
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
	logger.Info("notify worker stopped")
}
