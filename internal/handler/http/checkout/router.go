package checkout_http

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"portpos-bridge/internal/app/checkout"
)

func RegisterRoutes(r chi.Router, s checkout.CheckoutService, l *zap.Logger) {
	handler := NewCheckoutHandler(s, l.With(zap.String("component", "CheckoutHTTPHandler")))

	r.Post("/checkout", handler.Initiate)
	r.Route("/orders", func(r chi.Router) {
		r.Get("/{orderID}", handler.GetOrder)
		r.Get("/{orderID}/invoice", handler.GetInvoiceDetail)
	})
}
