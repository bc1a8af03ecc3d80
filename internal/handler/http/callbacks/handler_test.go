package callbacks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portpos-bridge/internal/app/checkout"
)

const (
	checkoutURL = "https://shop.example/checkout"
	successURL  = "https://shop.example/success"
)

type fakeService struct {
	verified   bool
	verifyErr  error
	calls      int
	lastOrder  string
	lastInv    string
	lastAmount string
}

func (f *fakeService) Initiate(context.Context, *checkout.InitiateRequest) (*checkout.Destination, error) {
	panic("not used")
}

func (f *fakeService) VerifyAndComplete(_ context.Context, orderID, invoiceID, amount string) (bool, error) {
	f.calls++
	f.lastOrder = orderID
	f.lastInv = invoiceID
	f.lastAmount = amount
	return f.verified, f.verifyErr
}

func (f *fakeService) GetOrder(context.Context, string) (*checkout.OrderResponse, error) {
	panic("not used")
}

func (f *fakeService) GetInvoiceDetail(context.Context, string) (json.RawMessage, error) {
	panic("not used")
}

func newRouter(s checkout.CheckoutService) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, s, checkoutURL, successURL, zap.NewNop())
	return r
}

func TestHandleReturn(t *testing.T) {
	t.Run("VerifiedRedirectsToSuccess", func(t *testing.T) {
		svc := &fakeService{verified: true}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callbacks/return?invoice=INV1&payment_id=o1", nil)

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, successURL, rr.Header().Get("Location"))
		assert.Equal(t, "o1", svc.lastOrder)
		assert.Equal(t, "INV1", svc.lastInv)
		assert.Empty(t, svc.lastAmount) // return channel carries no amount
	})

	t.Run("FailedVerificationRedirectsToCheckoutWithError", func(t *testing.T) {
		svc := &fakeService{verified: false}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callbacks/return?invoice=INV1&payment_id=o1", nil)

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, checkoutURL+"?payment-error=portpos_failed", rr.Header().Get("Location"))
	})

	t.Run("MissingParamsRedirectSilently", func(t *testing.T) {
		for _, target := range []string{
			"/callbacks/return",
			"/callbacks/return?invoice=INV1",
			"/callbacks/return?payment_id=o1",
		} {
			svc := &fakeService{verified: true}
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, target, nil)

			newRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusFound, rr.Code, target)
			assert.Equal(t, checkoutURL, rr.Header().Get("Location"), target)
			assert.Zero(t, svc.calls, target)
		}
	})

	t.Run("MismatchRedirectsSilently", func(t *testing.T) {
		svc := &fakeService{verifyErr: checkout.ErrInvoiceMismatch}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callbacks/return?invoice=INV_B&payment_id=o1", nil)

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, checkoutURL, rr.Header().Get("Location"))
	})
}

func TestHandleIPN(t *testing.T) {
	post := func(target string, form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("AcknowledgesVerified", func(t *testing.T) {
		svc := &fakeService{verified: true}
		rr := httptest.NewRecorder()
		req := post("/callbacks/ipn?payment_id=o1", url.Values{"invoice": {"INV1"}, "amount": {"500.00"}})

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
		assert.Equal(t, "500.00", svc.lastAmount)
	})

	t.Run("AcknowledgesRejectedToo", func(t *testing.T) {
		// The provider only needs delivery confirmation; a failed
		// verification still answers OK so it stops retrying.
		svc := &fakeService{verified: false}
		rr := httptest.NewRecorder()
		req := post("/callbacks/ipn?payment_id=o1", url.Values{"invoice": {"INV1"}, "amount": {"500.00"}})

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
	})

	t.Run("NonPostRejectedBeforeAnyProcessing", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			svc := &fakeService{verified: true}
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(method, "/callbacks/ipn?payment_id=o1", nil)

			newRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, method)
			assert.Equal(t, "Method not allowed", rr.Body.String(), method)
			assert.Zero(t, svc.calls, method)
		}
	})

	t.Run("UnparseableBodyRejected", func(t *testing.T) {
		svc := &fakeService{verified: true}
		rr := httptest.NewRecorder()
		// Invalid percent-encoding makes ParseForm fail.
		req := httptest.NewRequest(http.MethodPost, "/callbacks/ipn?payment_id=o1", strings.NewReader("invoice=%zz&amount=500.00"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing data", rr.Body.String())
		assert.Zero(t, svc.calls)
	})

	t.Run("MissingDataRejected", func(t *testing.T) {
		cases := map[string]*http.Request{
			"no invoice":  post("/callbacks/ipn?payment_id=o1", url.Values{"amount": {"500.00"}}),
			"no order id": post("/callbacks/ipn", url.Values{"invoice": {"INV1"}}),
		}
		for name, req := range cases {
			svc := &fakeService{verified: true}
			rr := httptest.NewRecorder()

			newRouter(svc).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, name)
			assert.Equal(t, "Missing data", rr.Body.String(), name)
			assert.Zero(t, svc.calls, name)
		}
	})

	t.Run("MismatchAnswersOrderNotFound", func(t *testing.T) {
		svc := &fakeService{verifyErr: checkout.ErrInvoiceMismatch}
		rr := httptest.NewRecorder()
		req := post("/callbacks/ipn?payment_id=o1", url.Values{"invoice": {"INV_B"}, "amount": {"500.00"}})

		newRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Order not found", rr.Body.String())
	})

	t.Run("UnknownOrderAnswersOrderNotFound", func(t *testing.T) {
		svc := &fakeService{verifyErr: checkout.ErrOrderNotFound}
		rr := httptest.NewRecorder()
		req := post("/callbacks/ipn?payment_id=ghost", url.Values{"invoice": {"INV1"}})

		newRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Order not found", rr.Body.String())
	})
}
