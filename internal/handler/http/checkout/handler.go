package checkout_http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"portpos-bridge/internal/app/checkout"
	"portpos-bridge/internal/domain"
	"portpos-bridge/internal/portpos"
)

type CheckoutHandler struct {
	service checkout.CheckoutService
	logger  *zap.Logger
}

func NewCheckoutHandler(s checkout.CheckoutService, l *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: s, logger: l}
}

// Initiate creates a pending order and a provider invoice, answering with
// the destination the presentation layer should send the payer to.
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req checkout.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for Initiate", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	dest, err := h.service.Initiate(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrUnsupportedCurrency), errors.Is(err, domain.ErrInvalidOrder):
			h.logger.Warn("Bad checkout submission", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, checkout.ErrMissingCredentials):
			h.logger.Error("Checkout refused, gateway not configured")
			http.Error(w, "Payment gateway is not configured", http.StatusServiceUnavailable)
		case errors.Is(err, checkout.ErrGatewayRejected):
			h.logger.Warn("Gateway rejected invoice creation", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			h.logger.Error("Error initiating payment", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dest)
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			h.logger.Info("Order not found", zap.String("order_id", orderID))
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting order", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// GetInvoiceDetail proxies the provider's full invoice record, used by
// support tooling for reconciliation.
func (h *CheckoutHandler) GetInvoiceDetail(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	raw, err := h.service.GetInvoiceDetail(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, checkout.ErrNoInvoice):
			http.Error(w, "Order has no invoice", http.StatusNotFound)
		case errors.Is(err, portpos.ErrTransport):
			h.logger.Warn("Provider unreachable for invoice detail", zap.String("order_id", orderID), zap.Error(err))
			http.Error(w, "Payment provider unreachable", http.StatusBadGateway)
		default:
			h.logger.Error("Error fetching invoice detail", zap.String("order_id", orderID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}
