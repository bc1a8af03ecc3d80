package checkout

type InitiateRequest struct {
	Amount   float64         `json:"amount"`
	Currency string          `json:"currency"`
	Customer CustomerRequest `json:"customer"`
}

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type DestinationKind string

const (
	// DestinationRedirect sends the payer's browser straight to the hosted
	// payment page.
	DestinationRedirect DestinationKind = "redirect"
	// DestinationPopup sends the payer back to checkout with a flag that
	// opens the payment page in an overlay.
	DestinationPopup DestinationKind = "popup"
)

// Destination tells the presentation layer where to send the payer after an
// invoice has been created.
type Destination struct {
	OrderID string          `json:"order_id"`
	Kind    DestinationKind `json:"kind"`
	URL     string          `json:"url"`
}

type OrderResponse struct {
	ID             string   `json:"id"`
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	Status         string   `json:"status"`
	InvoiceID      string   `json:"invoice_id,omitempty"`
	SettlingMethod string   `json:"settling_method,omitempty"`
	TxnID          string   `json:"txn_id,omitempty"`
	Notes          []string `json:"notes,omitempty"`
}
