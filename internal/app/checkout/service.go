package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portpos-bridge/internal/config"
	"portpos-bridge/internal/domain"
	"portpos-bridge/internal/events"
	"portpos-bridge/internal/portpos"
	"portpos-bridge/internal/repository/order_repo"
)

var (
	ErrMissingCredentials  = errors.New("gateway credentials are not configured")
	ErrUnsupportedCurrency = errors.New("currency is not supported by the gateway")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvoiceMismatch     = errors.New("invoice does not match the order")
	ErrGatewayRejected     = errors.New("gateway rejected the invoice")
	ErrNoInvoice           = errors.New("order has no invoice reference")
)

// defaultPhone is sent to the provider when the customer left no phone
// number; the invoice endpoint rejects an empty field.
const defaultPhone = "01700000000"

// Gateway is the provider surface the reconciler depends on, implemented by
// *portpos.Client.
type Gateway interface {
	CreateInvoice(ctx context.Context, params *portpos.InvoiceParams) (*portpos.InvoiceResult, error)
	VerifyTransaction(ctx context.Context, invoiceID, amount string) (*portpos.VerifyResult, error)
	GetInvoice(ctx context.Context, invoiceID string) (json.RawMessage, error)
	PaymentPageURL(invoiceID string) string
}

type CheckoutService interface {
	// Initiate creates the order, registers an invoice with the provider
	// and returns where to send the payer.
	Initiate(ctx context.Context, req *InitiateRequest) (*Destination, error)

	// VerifyAndComplete reconciles a confirmation arriving on either
	// notification channel. Safe to call concurrently for the same order;
	// the terminal transition happens exactly once. An empty amount means
	// the caller carried none and the order's own amount is used.
	VerifyAndComplete(ctx context.Context, orderID, invoiceID, amount string) (bool, error)

	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)
	GetInvoiceDetail(ctx context.Context, orderID string) (json.RawMessage, error)
}

type checkoutService struct {
	cfg       *config.Config
	orderRepo order_repo.OrderRepository
	gateway   Gateway
	publisher events.Publisher
	logger    *zap.Logger
}

func NewCheckoutService(
	cfg *config.Config,
	orderRepo order_repo.OrderRepository,
	gateway Gateway,
	publisher events.Publisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		cfg:       cfg,
		orderRepo: orderRepo,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *checkoutService) Initiate(ctx context.Context, req *InitiateRequest) (*Destination, error) {
	if s.cfg.AppKey == "" || s.cfg.SecretKey == "" {
		s.logger.Warn("Payment initiation refused, gateway credentials missing")
		return nil, ErrMissingCredentials
	}
	if req.Currency != s.cfg.Currency {
		s.logger.Warn("Payment initiation refused, unsupported currency",
			zap.String("currency", req.Currency),
			zap.String("supported", s.cfg.Currency))
		return nil, ErrUnsupportedCurrency
	}

	order, err := domain.NewOrder(uuid.NewString(), req.Currency, req.Amount, domain.Customer{
		Name:    req.Customer.Name,
		Email:   req.Customer.Email,
		Phone:   req.Customer.Phone,
		Address: req.Customer.Address,
		City:    req.Customer.City,
		State:   req.Customer.State,
		Zip:     req.Customer.Zip,
		Country: req.Customer.Country,
	})
	if err != nil {
		s.logger.Warn("Invalid checkout submission", zap.Error(err))
		return nil, err
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		s.logger.Error("Failed to persist pending order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("failed to create order record")
	}

	result, err := s.gateway.CreateInvoice(ctx, s.invoiceParams(order))
	if err != nil {
		// Transport failures get the same terminal handling as a provider
		// rejection; retry is the payer's, not ours.
		s.failWithNote(ctx, order.ID, fmt.Sprintf("PortPos gateway error: %v", err))
		return nil, fmt.Errorf("%w: unable to reach PortPos", ErrGatewayRejected)
	}
	if !result.Accepted {
		s.failWithNote(ctx, order.ID, "PortPos gateway error: "+result.Reason)
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, result.Reason)
	}

	if err := s.orderRepo.SetInvoiceID(ctx, order.ID, result.InvoiceID); err != nil {
		s.logger.Error("Failed to store invoice reference",
			zap.String("order_id", order.ID),
			zap.String("invoice_id", result.InvoiceID),
			zap.Error(err))
		return nil, errors.New("failed to store invoice reference")
	}

	s.logger.Info("Invoice created",
		zap.String("order_id", order.ID),
		zap.String("invoice_id", result.InvoiceID),
		zap.String("integration_method", s.cfg.IntegrationMethod))

	if s.cfg.IntegrationMethod == config.IntegrationPopup {
		return &Destination{
			OrderID: order.ID,
			Kind:    DestinationPopup,
			URL:     s.cfg.CheckoutURL + "?portpos_popup=" + url.QueryEscape(result.InvoiceID),
		}, nil
	}
	return &Destination{
		OrderID: order.ID,
		Kind:    DestinationRedirect,
		URL:     s.gateway.PaymentPageURL(result.InvoiceID),
	}, nil
}

func (s *checkoutService) VerifyAndComplete(ctx context.Context, orderID, invoiceID, amount string) (bool, error) {
	// Fresh read every time: the idempotency guard, not locking, is what
	// makes concurrent confirmations safe.
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrOrderNotFound
		}
		s.logger.Error("Failed to load order for verification", zap.String("order_id", orderID), zap.Error(err))
		return false, errors.New("failed to load order")
	}

	if order.Status == domain.OrderStatusPaid {
		s.logger.Info("Order already paid, confirmation is a no-op", zap.String("order_id", orderID))
		return true, nil
	}

	if order.InvoiceID == "" || order.InvoiceID != invoiceID {
		s.logger.Warn("Invoice mismatch on confirmation",
			zap.String("order_id", orderID),
			zap.String("supplied_invoice", invoiceID))
		return false, ErrInvoiceMismatch
	}

	if amount == "" {
		amount = formatAmount(order.Amount)
	}

	result, err := s.gateway.VerifyTransaction(ctx, invoiceID, amount)
	if err != nil {
		s.logger.Warn("Verification call failed",
			zap.String("order_id", orderID),
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		s.failWithNote(ctx, orderID, fmt.Sprintf("PortPos verification failed. Result: %v", err))
		return false, nil
	}

	if !result.Accepted {
		s.failWithNote(ctx, orderID, "PortPos verification failed. Result: "+result.Reason)
		return false, nil
	}

	transitioned, err := s.orderRepo.MarkPaid(ctx, orderID, domain.Settlement{
		Method:  result.Method,
		TxnID:   result.TxnID,
		Payload: result.Payload,
	})
	if err != nil {
		return false, err
	}
	if !transitioned {
		// Another caller finalized the order while we were talking to the
		// provider. That winner may have FAILED it (say, a transport error
		// on the first confirmation), so answer from the actual state
		// instead of assuming the race was lost to a paid transition.
		current, err := s.orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			s.logger.Error("Failed to re-read order after lost transition", zap.String("order_id", orderID), zap.Error(err))
			return false, errors.New("failed to load order")
		}
		return current.Status == domain.OrderStatusPaid, nil
	}

	note := fmt.Sprintf("PortPos Payment Verified. Method: %s. Transaction ID: %s", result.Method, result.TxnID)
	if err := s.orderRepo.AddNote(ctx, orderID, note); err != nil {
		s.logger.Error("Failed to record settlement note", zap.String("order_id", orderID), zap.Error(err))
	}
	if err := s.publisher.PublishStatus(ctx, orderID, domain.OrderStatusPaid, result.TxnID); err != nil {
		s.logger.Error("Failed to publish paid event", zap.String("order_id", orderID), zap.Error(err))
	}
	s.logger.Info("Order settled",
		zap.String("order_id", orderID),
		zap.String("method", result.Method),
		zap.String("txn_id", result.TxnID))
	return true, nil
}

func (s *checkoutService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("failed to load order")
	}

	res := &OrderResponse{
		ID:        order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Status:    string(order.Status),
		InvoiceID: order.InvoiceID,
	}
	if order.Settlement != nil {
		res.SettlingMethod = order.Settlement.Method
		res.TxnID = order.Settlement.TxnID
	}

	notes, err := s.orderRepo.ListNotes(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to list order notes", zap.String("order_id", orderID), zap.Error(err))
	} else {
		for _, n := range notes {
			res.Notes = append(res.Notes, n.Body)
		}
	}
	return res, nil
}

func (s *checkoutService) GetInvoiceDetail(ctx context.Context, orderID string) (json.RawMessage, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.New("failed to load order")
	}
	if order.InvoiceID == "" {
		return nil, ErrNoInvoice
	}
	return s.gateway.GetInvoice(ctx, order.InvoiceID)
}

func (s *checkoutService) invoiceParams(order *domain.Order) *portpos.InvoiceParams {
	phone := order.Customer.Phone
	if phone == "" {
		phone = defaultPhone
	}
	state := order.Customer.State
	if state == "" {
		state = order.Customer.City
	}

	returnURL := fmt.Sprintf("%s/callbacks/return?payment_id=%s", s.cfg.PublicBaseURL, url.QueryEscape(order.ID))
	ipnURL := fmt.Sprintf("%s/callbacks/ipn?payment_id=%s", s.cfg.PublicBaseURL, url.QueryEscape(order.ID))

	return &portpos.InvoiceParams{
		Order: portpos.OrderParams{
			Amount:      formatAmount(order.Amount),
			Currency:    order.Currency,
			RedirectURL: returnURL,
			IPNURL:      ipnURL,
		},
		Product: portpos.ProductParams{
			Name:        fmt.Sprintf("Order #%s", order.ID),
			Description: "Purchase from " + s.cfg.StoreName,
		},
		Billing: portpos.BillingParams{
			Customer: portpos.CustomerParams{
				Name:    order.Customer.Name,
				Email:   order.Customer.Email,
				Phone:   phone,
				Address: order.Customer.Address,
				City:    order.Customer.City,
				State:   state,
				Zip:     order.Customer.Zip,
				Country: order.Customer.Country,
			},
		},
	}
}

// failWithNote records the failure for support traceability and performs the
// conditional FAILED transition.
func (s *checkoutService) failWithNote(ctx context.Context, orderID, note string) {
	if err := s.orderRepo.AddNote(ctx, orderID, note); err != nil {
		s.logger.Error("Failed to record failure note", zap.String("order_id", orderID), zap.Error(err))
	}
	transitioned, err := s.orderRepo.MarkFailed(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to mark order as failed", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if transitioned {
		if err := s.publisher.PublishStatus(ctx, orderID, domain.OrderStatusFailed, ""); err != nil {
			s.logger.Error("Failed to publish failed event", zap.String("order_id", orderID), zap.Error(err))
		}
	}
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
