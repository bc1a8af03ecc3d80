package domain

import "time"

// Settlement captures how the provider settled an invoice. Payload is the
// raw verified response object, kept for support and reconciliation.
type Settlement struct {
	Method  string
	TxnID   string
	Payload []byte
}

// Note is one entry of an order's append-only audit trail.
type Note struct {
	ID        int64
	OrderID   string
	Body      string
	CreatedAt time.Time
}
