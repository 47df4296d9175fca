package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilmenon/campusbite-backend/api/controllers"
	"github.com/nikhilmenon/campusbite-backend/api/middleware"
	"github.com/nikhilmenon/campusbite-backend/internal/analytics"
	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/internal/orders"
	"github.com/nikhilmenon/campusbite-backend/internal/payments"
	"github.com/nikhilmenon/campusbite-backend/internal/wallet"
	"github.com/nikhilmenon/campusbite-backend/pkg/config"
	"github.com/nikhilmenon/campusbite-backend/pkg/db"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	az authz.Authorizer,
	ordersSvc orders.Service,
	walletSvc wallet.Service,
	paymentsSvc payments.Service,
	analyticsSvc analytics.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(ordersSvc, logg))
			r.Get("/", controllers.MyOrders(ordersSvc, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersSvc, logg))
			r.Post("/{orderId}/status", controllers.UpdateOrderStatus(ordersSvc, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersSvc, logg))
		})
		r.Post("/pickup/verify", controllers.VerifyPickup(ordersSvc, logg))

		r.Route("/shops/{shopId}", func(r chi.Router) {
			r.Get("/orders", controllers.ShopOrders(ordersSvc, logg))
			r.Get("/analytics/summary", controllers.ShopSummary(analyticsSvc, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", controllers.WalletBalance(walletSvc, logg))
			r.Get("/entries", controllers.WalletEntries(walletSvc, az, logg))
		})

		r.Route("/payment-requests", func(r chi.Router) {
			r.Get("/", controllers.ListPaymentRequests(paymentsSvc, logg))
			r.Get("/{requestId}", controllers.PaymentRequestDetail(paymentsSvc, logg))
			r.Post("/{requestId}/pay", controllers.PayPaymentRequest(paymentsSvc, logg))
			r.Get("/mine", controllers.MyPaymentSubmissions(paymentsSvc, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

		r.Route("/payment-requests", func(r chi.Router) {
			r.Post("/", controllers.CreatePaymentRequest(paymentsSvc, logg))
			r.Post("/{requestId}/close", controllers.ClosePaymentRequest(paymentsSvc, logg))
			r.Get("/{requestId}/submissions", controllers.ListPaymentSubmissions(paymentsSvc, logg))
		})
		r.Get("/wallet/{userId}/reconcile", controllers.WalletReconcile(walletSvc, az, logg))
	})

	return r
}
