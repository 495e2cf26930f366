package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/service/services/ordersvc"
	createorder "github.com/shoplane/order/internal/transport/http/create_order"
	deliverorder "github.com/shoplane/order/internal/transport/http/deliver_order"
	getorder "github.com/shoplane/order/internal/transport/http/get_order"
	listorders "github.com/shoplane/order/internal/transport/http/list_orders"
	"github.com/shoplane/order/internal/transport/http/middleware/auth"
	myorders "github.com/shoplane/order/internal/transport/http/my_orders"
	payorder "github.com/shoplane/order/internal/transport/http/pay_order"
	"github.com/shoplane/order/pkg/http/middleware/trace"
	"github.com/shoplane/order/pkg/logger"
)

type service interface {
	CreateOrder(ctx context.Context, p principal.Principal, model ordersvc.CreateOrderModel) (*order.Order, error)
	GetOrderByID(ctx context.Context, p principal.Principal, id uuid.UUID) (*order.Order, error)
	GetMyOrders(ctx context.Context, p principal.Principal) ([]order.Order, error)
	GetOrders(ctx context.Context, p principal.Principal, query order.QueryOrdersModel) ([]order.Order, error)
	PayOrder(ctx context.Context, p principal.Principal, id uuid.UUID, model ordersvc.PaymentConfirmationModel) (*order.Order, error)
	DeliverOrder(ctx context.Context, p principal.Principal, id uuid.UUID) (*order.Order, error)
}

type HTTPTransport struct {
	server     *http.Server
	router     *chi.Mux
	service    service
	authSecret []byte
}

func NewHTTPTransport(service service, authSecret []byte) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:     server,
		router:     router,
		service:    service,
		authSecret: authSecret,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api/orders", func(r chi.Router) {
		r.Use(auth.NewAuthMiddleware(h.authSecret))

		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/mine", h.myOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Put("/{orderID}/pay", h.payOrder)
		r.Put("/{orderID}/deliver", h.deliverOrder)
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) myOrders(w http.ResponseWriter, r *http.Request) {
	myorders.MyOrders(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) payOrder(w http.ResponseWriter, r *http.Request) {
	payorder.PayOrder(w, r, h.service)
}

func (h *HTTPTransport) deliverOrder(w http.ResponseWriter, r *http.Request) {
	deliverorder.DeliverOrder(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware(viper.GetString("service.name")))

	c := cors.New(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("server.http.cors.allowed_origins"),
		AllowedMethods:   viper.GetStringSlice("server.http.cors.allowed_methods"),
		AllowedHeaders:   viper.GetStringSlice("server.http.cors.allowed_headers"),
		ExposedHeaders:   viper.GetStringSlice("server.http.cors.exposed_headers"),
		AllowCredentials: viper.GetBool("server.http.cors.allow_credentials"),
		MaxAge:           viper.GetInt("server.http.cors.max_age"),
	})
	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
