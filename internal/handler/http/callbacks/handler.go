package callbacks

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"portpos-bridge/internal/app/checkout"
)

// CallbackHandler terminates the two provider notification channels: the
// browser return redirect and the server-to-server IPN. The two may race for
// the same order; reconciliation is the service's job, this layer only
// enforces each channel's input and response contract.
type CallbackHandler struct {
	service     checkout.CheckoutService
	checkoutURL string
	successURL  string
	logger      *zap.Logger
}

func NewCallbackHandler(s checkout.CheckoutService, checkoutURL, successURL string, l *zap.Logger) *CallbackHandler {
	return &CallbackHandler{
		service:     s,
		checkoutURL: checkoutURL,
		successURL:  successURL,
		logger:      l,
	}
}

// HandleReturn processes the payer's browser coming back from PortPos. The
// return redirect is untrusted input: anything that doesn't check out sends
// the payer to checkout without surfacing an error (stale links, tampering).
func (h *CallbackHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.URL.Query().Get("invoice")
	orderID := r.URL.Query().Get("payment_id")

	if invoiceID == "" || orderID == "" {
		h.logger.Debug("Return callback missing parameters")
		http.Redirect(w, r, h.checkoutURL, http.StatusFound)
		return
	}

	verified, err := h.service.VerifyAndComplete(r.Context(), orderID, invoiceID, "")
	if err != nil {
		if errors.Is(err, checkout.ErrInvoiceMismatch) || errors.Is(err, checkout.ErrOrderNotFound) {
			h.logger.Warn("Return callback for unknown or mismatched invoice",
				zap.String("order_id", orderID),
				zap.String("invoice_id", invoiceID))
			http.Redirect(w, r, h.checkoutURL, http.StatusFound)
			return
		}
		h.logger.Error("Return callback verification errored", zap.String("order_id", orderID), zap.Error(err))
		http.Redirect(w, r, h.checkoutURL+"?payment-error=portpos_failed", http.StatusFound)
		return
	}

	if verified {
		http.Redirect(w, r, h.successURL, http.StatusFound)
		return
	}
	http.Redirect(w, r, h.checkoutURL+"?payment-error=portpos_failed", http.StatusFound)
}

// HandleIPN processes PortPos's server-to-server notification. The provider
// only needs a delivery acknowledgment: once the input passes validation the
// response is a fixed "OK" regardless of the verification outcome, so the
// provider stops retrying.
func (h *CallbackHandler) HandleIPN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		plaintext(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID := r.URL.Query().Get("payment_id")
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("IPN with unparseable body", zap.Error(err))
		plaintext(w, http.StatusBadRequest, "Missing data")
		return
	}
	invoiceID := r.PostFormValue("invoice")
	amount := r.PostFormValue("amount")

	if orderID == "" || invoiceID == "" {
		h.logger.Warn("IPN missing order or invoice identifier")
		plaintext(w, http.StatusBadRequest, "Missing data")
		return
	}

	_, err := h.service.VerifyAndComplete(r.Context(), orderID, invoiceID, amount)
	if err != nil {
		if errors.Is(err, checkout.ErrInvoiceMismatch) || errors.Is(err, checkout.ErrOrderNotFound) {
			h.logger.Warn("IPN for unknown or mismatched invoice",
				zap.String("order_id", orderID),
				zap.String("invoice_id", invoiceID))
			plaintext(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("IPN verification errored", zap.String("order_id", orderID), zap.Error(err))
	}

	plaintext(w, http.StatusOK, "OK")
}

func plaintext(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(body))
}
