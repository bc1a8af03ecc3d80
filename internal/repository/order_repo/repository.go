package order_repo

import (
	"context"
	"errors"

	"portpos-bridge/internal/domain"
)

// ErrInvoiceAlreadySet is returned when a second invoice reference is written
// to an order; the reference is write-once.
var ErrInvoiceAlreadySet = errors.New("order already has an invoice reference")

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)

	// SetInvoiceID associates the provider invoice with the order. The write
	// succeeds at most once per order.
	SetInvoiceID(ctx context.Context, orderID, invoiceID string) error

	// MarkPaid and MarkFailed transition the order to a terminal state only
	// if it is still PENDING. The bool reports whether this call performed
	// the transition; false means another caller finalized the order first,
	// or the order does not exist.
	MarkPaid(ctx context.Context, orderID string, settlement domain.Settlement) (bool, error)
	MarkFailed(ctx context.Context, orderID string) (bool, error)

	AddNote(ctx context.Context, orderID, body string) error
	ListNotes(ctx context.Context, orderID string) ([]domain.Note, error)
}
