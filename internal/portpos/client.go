package portpos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURLLive    = "https://api.portpos.com/"
	apiURLSandbox = "https://api-sandbox.portpos.com/"

	paymentHostLive    = "https://payment.portpos.com"
	paymentHostSandbox = "https://payment-sandbox.portpos.com"

	requestTimeout = 45 * time.Second

	// StatusAccepted is the provider's sentinel for a settled invoice.
	StatusAccepted = "ACCEPTED"
)

// ErrTransport marks DNS/TLS/timeout failures talking to PortPos, as opposed
// to a well-formed provider response carrying a rejection.
var ErrTransport = errors.New("portpos transport failure")

// Config mirrors the credentials and environment selection of a PortPos
// merchant account. EntrypointURL overrides the API host when set (tests,
// proxies); otherwise the host follows the Sandbox flag.
type Config struct {
	AppKey        string
	SecretKey     string
	Sandbox       bool
	EntrypointURL string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewClient(cfg Config, l *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: l.With(zap.String("component", "PortPosClient")),
		now:    time.Now,
	}
}

func (c *Client) baseURL() string {
	if c.cfg.EntrypointURL != "" {
		return c.cfg.EntrypointURL
	}
	if c.cfg.Sandbox {
		return apiURLSandbox
	}
	return apiURLLive
}

// PaymentPageURL is the hosted payment page for an invoice, on the host
// matching the configured environment.
func (c *Client) PaymentPageURL(invoiceID string) string {
	host := paymentHostLive
	if c.cfg.Sandbox {
		host = paymentHostSandbox
	}
	return host + "/payment/?invoice=" + invoiceID
}

// CreateInvoice registers a new invoice with PortPos. A rejection by the
// provider is reported through the result, not the error.
func (c *Client) CreateInvoice(ctx context.Context, params *InvoiceParams) (*InvoiceResult, error) {
	body, err := c.post(ctx, c.baseURL()+"payment/v2/invoice", params)
	if err != nil {
		return nil, err
	}

	var env invoiceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Warn("Unparseable invoice-creation response", zap.ByteString("body", body), zap.Error(err))
		return &InvoiceResult{Accepted: false, Reason: DefaultReason}, nil
	}

	if env.Status == http.StatusOK && env.Data.InvoiceID != "" {
		return &InvoiceResult{Accepted: true, InvoiceID: env.Data.InvoiceID}, nil
	}

	reason := env.Error.Message
	if reason == "" {
		reason = env.Message
	}
	if reason == "" {
		reason = DefaultReason
	}
	c.logger.Info("Invoice creation rejected by provider",
		zap.Int("provider_status", env.Status),
		zap.String("reason", reason))
	return &InvoiceResult{Accepted: false, Reason: reason}, nil
}

// VerifyTransaction asks PortPos to validate an invoice against the expected
// amount. The accept criterion is provider status 200 and data.status equal
// to the ACCEPTED sentinel; anything else, including an unparseable body, is
// a rejection with the reason taken from data.reason, then message, then a
// generic fallback.
func (c *Client) VerifyTransaction(ctx context.Context, invoiceID, amount string) (*VerifyResult, error) {
	reqBody := map[string]string{
		"invoice": invoiceID,
		"amount":  amount,
	}
	body, err := c.post(ctx, c.baseURL()+"payment/v2/invoice/ipn-validate", reqBody)
	if err != nil {
		return nil, err
	}

	var env verifyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Warn("Unparseable verification response", zap.ByteString("body", body), zap.Error(err))
		return &VerifyResult{Accepted: false, Reason: DefaultReason}, nil
	}

	var data verifyData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.logger.Warn("Unparseable verification data object", zap.ByteString("data", env.Data), zap.Error(err))
			return &VerifyResult{Accepted: false, Reason: DefaultReason}, nil
		}
	}

	if env.Status == http.StatusOK && data.Status == StatusAccepted {
		method := data.Gateway.Name
		if method == "" {
			method = "PortPos"
		}
		txnID := data.Gateway.TxnID
		if txnID == "" {
			txnID = "N/A"
		}
		return &VerifyResult{
			Accepted: true,
			Method:   method,
			TxnID:    txnID,
			Payload:  append([]byte(nil), env.Data...),
		}, nil
	}

	reason := data.Reason
	if reason == "" {
		reason = env.Message
	}
	if reason == "" {
		reason = DefaultReason
	}
	return &VerifyResult{Accepted: false, Reason: reason}, nil
}

// GetInvoice fetches the full invoice detail, returned as raw JSON for
// support and reconciliation views.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"payment/v2/invoice/"+invoiceID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build invoice detail request: %w", err)
	}
	req.Header.Set("Authorization", AuthHeader(c.cfg.AppKey, c.cfg.SecretKey, c.now()))

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Invoice detail request failed", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrTransport, err)
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", AuthHeader(c.cfg.AppKey, c.cfg.SecretKey, c.now()))
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Provider request failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrTransport, err)
	}
	return body, nil
}
