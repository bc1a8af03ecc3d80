package portpos

import "encoding/json"

// InvoiceParams is the request body of the v2 invoice-creation endpoint.
type InvoiceParams struct {
	Order   OrderParams   `json:"order"`
	Product ProductParams `json:"product"`
	Billing BillingParams `json:"billing"`
}

type OrderParams struct {
	Amount      string `json:"amount"` // fixed two-decimal string
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url"`
	IPNURL      string `json:"ipn_url"`
}

type ProductParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type BillingParams struct {
	Customer CustomerParams `json:"customer"`
}

type CustomerParams struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// InvoiceResult is the decoded outcome of an invoice-creation call. A
// provider-side rejection is a normal result with Accepted=false, never an
// error; errors are reserved for transport failures.
type InvoiceResult struct {
	Accepted  bool
	InvoiceID string
	Reason    string
}

// VerifyResult is the decoded outcome of an ipn-validate call. Payload holds
// the raw "data" object from the provider for audit storage.
type VerifyResult struct {
	Accepted bool
	Method   string
	TxnID    string
	Reason   string
	Payload  []byte
}

// DefaultReason is the terminal fallback when the provider supplies no
// usable rejection reason in any of the known response fields.
const DefaultReason = "Rejected"

type invoiceEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		InvoiceID string `json:"invoice_id"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type verifyEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type verifyData struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Gateway struct {
		Name  string `json:"name"`
		TxnID string `json:"txn_id"`
	} `json:"gateway"`
}
