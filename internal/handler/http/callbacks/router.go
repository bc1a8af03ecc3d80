package callbacks

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"portpos-bridge/internal/app/checkout"
)

func RegisterRoutes(r chi.Router, s checkout.CheckoutService, checkoutURL, successURL string, l *zap.Logger) {
	handler := NewCallbackHandler(s, checkoutURL, successURL, l.With(zap.String("component", "CallbackHandler")))

	r.Route("/callbacks", func(r chi.Router) {
		r.Get("/return", handler.HandleReturn)
		// The IPN handler owns method validation so a wrong method gets the
		// provider-facing plaintext rejection, not the router's default 405.
		r.HandleFunc("/ipn", handler.HandleIPN)
	})
}
