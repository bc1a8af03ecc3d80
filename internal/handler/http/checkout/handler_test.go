package checkout_http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portpos-bridge/internal/app/checkout"
)

type fakeService struct {
	dest        *checkout.Destination
	initiateErr error
	order       *checkout.OrderResponse
	orderErr    error
	detail      json.RawMessage
	detailErr   error
}

func (f *fakeService) Initiate(context.Context, *checkout.InitiateRequest) (*checkout.Destination, error) {
	return f.dest, f.initiateErr
}

func (f *fakeService) VerifyAndComplete(context.Context, string, string, string) (bool, error) {
	panic("not used")
}

func (f *fakeService) GetOrder(context.Context, string) (*checkout.OrderResponse, error) {
	return f.order, f.orderErr
}

func (f *fakeService) GetInvoiceDetail(context.Context, string) (json.RawMessage, error) {
	return f.detail, f.detailErr
}

func newRouter(s checkout.CheckoutService) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, s, zap.NewNop())
	return r
}

func TestInitiate(t *testing.T) {
	body := `{"amount":500,"currency":"BDT","customer":{"name":"Jan","email":"jan@example.com"}}`

	t.Run("Created", func(t *testing.T) {
		svc := &fakeService{dest: &checkout.Destination{
			OrderID: "o1",
			Kind:    checkout.DestinationRedirect,
			URL:     "https://payment-sandbox.portpos.com/payment/?invoice=INV1",
		}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))

		newRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var dest checkout.Destination
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dest))
		assert.Equal(t, "o1", dest.OrderID)
		assert.Equal(t, checkout.DestinationRedirect, dest.Kind)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("{"))

		newRouter(&fakeService{}).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("UnsupportedCurrency", func(t *testing.T) {
		svc := &fakeService{initiateErr: checkout.ErrUnsupportedCurrency}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))

		newRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		svc := &fakeService{initiateErr: checkout.ErrMissingCredentials}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))

		newRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("GatewayRejected", func(t *testing.T) {
		svc := &fakeService{initiateErr: checkout.ErrGatewayRejected}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))

		newRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		svc := &fakeService{order: &checkout.OrderResponse{ID: "o1", Status: "PAID", TxnID: "T1"}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orders/o1", nil)

		newRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"PAID"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := &fakeService{orderErr: checkout.ErrOrderNotFound}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orders/ghost", nil)

		newRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetInvoiceDetail(t *testing.T) {
	t.Run("PassesThroughProviderJSON", func(t *testing.T) {
		svc := &fakeService{detail: json.RawMessage(`{"status":200,"data":{"invoice_id":"INV1"}}`)}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orders/o1/invoice", nil)

		newRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "INV1")
	})

	t.Run("NoInvoice", func(t *testing.T) {
		svc := &fakeService{detailErr: checkout.ErrNoInvoice}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orders/o1/invoice", nil)

		newRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
