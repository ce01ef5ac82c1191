package models

import "encoding/json"

// PaymentTypeOneTime is the only payment type the connector requests
const PaymentTypeOneTime = "ONE_TIME"

// CustomerInfo is the buyer contact block of a session request
type CustomerInfo struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	DialCode    string `json:"dialCode"`
}

// SessionPayload is the signed body of a session creation request.
// Field order is the wire order; the payload is signed as encoded.
type SessionPayload struct {
	MerchantID       string       `json:"merchantId"`
	ApplicationKey   string       `json:"applicationKey"`
	Domain           string       `json:"domain"`
	Amount           json.Number  `json:"amount"`
	PaymentType      string       `json:"paymentType"`
	OrderID          string       `json:"orderId"`
	Currency         string       `json:"currency"`
	PluginVersion    string       `json:"pluginVersion"`
	NotifyURL        string       `json:"notifyUrl"`
	RedirectURL      string       `json:"redirectUrl"`
	Source           string       `json:"source"`
	Description      string       `json:"description"`
	DoInitialPayment bool         `json:"doInitialPayment"`
	CustomerInfo     CustomerInfo `json:"customerInfo"`
}

// SessionData is the data block of a session creation response
type SessionData struct {
	Link      *string `json:"link"`
	SessionID *string `json:"sessionId"`
}

// SessionResponse is the gateway's answer to a session creation request
type SessionResponse struct {
	Status  string       `json:"status,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    *SessionData `json:"data"`
}

// RedirectLink returns the buyer redirect URL, or "" when absent
func (r *SessionResponse) RedirectLink() string {
	if r == nil || r.Data == nil || r.Data.Link == nil {
		return ""
	}
	return *r.Data.Link
}

// SessionID returns the gateway session id, or "" when absent
func (r *SessionResponse) SessionID() string {
	if r == nil || r.Data == nil || r.Data.SessionID == nil {
		return ""
	}
	return *r.Data.SessionID
}

// WebhookEnvelope is the inbound callback body.
// Payload is kept raw so the signature is checked against what was sent.
type WebhookEnvelope struct {
	Signature string          `json:"signature"`
	Payload   json.RawMessage `json:"payload"`
}

// WebhookPayload holds the fields the connector reads from a callback payload
type WebhookPayload struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	SessionID     string `json:"sessionId,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}
