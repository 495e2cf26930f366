package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/shoplane/order/internal/config"
	"github.com/shoplane/order/internal/dal/postgres"
	"github.com/shoplane/order/internal/dal/rabbitmq"
	outboxrepo "github.com/shoplane/order/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/shoplane/order/internal/dal/repositories/product/postgres"
	userrepo "github.com/shoplane/order/internal/dal/repositories/user/postgres"
	"github.com/shoplane/order/internal/otel"
	"github.com/shoplane/order/internal/payment"
	"github.com/shoplane/order/internal/payment/paypal"
	"github.com/shoplane/order/internal/payment/stripepay"
	"github.com/shoplane/order/internal/service/services/ordersvc"
	httptransport "github.com/shoplane/order/internal/transport/http"
	outboxworker "github.com/shoplane/order/internal/worker/outbox"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	outboxWorker   *outboxworker.Worker
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	verifiers := payment.NewRegistry()
	verifiers.Register("PayPal", paypal.NewClient(paypal.Config{
		BaseURL:      viper.GetString("payment.paypal.base_url"),
		ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		ClientSecret: os.Getenv("PAYPAL_APP_SECRET"),
	}))
	verifiers.Register("Stripe", stripepay.NewVerifier(os.Getenv("STRIPE_SECRET_KEY")))

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithProductRepository(productrepo.NewPostgresProductRepository(postgresClient.DB())),
		ordersvc.WithUserRepository(userrepo.NewPostgresUserRepository(postgresClient.DB())),
		ordersvc.WithVerifierRegistry(verifiers),
		ordersvc.WithCalculator(config.MustNewCalculator()),
	)

	transport := httptransport.NewHTTPTransport(orderSvc, []byte(os.Getenv("ORDER_JWT_SECRET")))
	transport.RegisterRoutes()

	worker := outboxworker.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.DB()),
		rabbitClient,
	)

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		outboxWorker:   worker,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go a.outboxWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancelWorker()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.postgresClient.Close(); err != nil {
		slog.Error("Database connection close error", "error", err)
	} else {
		slog.Info("Database connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
