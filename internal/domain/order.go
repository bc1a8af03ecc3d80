package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

var (
	ErrInvalidOrder   = errors.New("invalid order data")
	ErrOrderFinalized = errors.New("order already in a terminal state")
)

// Customer holds the billing details forwarded to the payment provider.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	Zip     string
	Country string
}

type Order struct {
	ID        string
	Amount    float64
	Currency  string
	Customer  Customer
	InvoiceID string // provider invoice reference, written at most once
	Status    OrderStatus
	// Settlement is populated once the provider confirms payment.
	Settlement *Settlement
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewOrder(id, currency string, amount float64, customer Customer) (*Order, error) {
	if id == "" || currency == "" || amount <= 0 {
		return nil, ErrInvalidOrder
	}
	now := time.Now()
	return &Order{
		ID:        id,
		Amount:    amount,
		Currency:  currency,
		Customer:  customer,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (o *Order) MarkAsPaid() error {
	if o.Status != OrderStatusPending {
		return ErrOrderFinalized
	}
	o.Status = OrderStatusPaid
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) MarkAsFailed() error {
	if o.Status != OrderStatusPending {
		return ErrOrderFinalized
	}
	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now()
	return nil
}

// IsFinal reports whether the order has reached PAID or FAILED.
func (o *Order) IsFinal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusFailed
}
