package domain

// GatewayResponse is the normalized result of every gateway operation:
// charges, captures, refunds, and status probes all produce this shape.
// Operational failures are expressed through Status and ErrorMessage rather
// than Go errors.
type GatewayResponse struct {
	TransactionID       string         `json:"transaction_id"`
	PaymentID           string         `json:"payment_id,omitempty"`
	Status              Status         `json:"status"`
	PaymentURL          string         `json:"payment_url,omitempty"`
	DocumentID          string         `json:"document_id,omitempty"`
	AuthorizationNumber string         `json:"authorization_number,omitempty"`
	LastFourDigits      string         `json:"last_four_digits,omitempty"`
	CustomerID          string         `json:"customer_id,omitempty"`
	RefundDocumentID    string         `json:"refund_document_id,omitempty"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	Raw                 map[string]any `json:"-"`
}

// Succeeded reports whether the operation completed successfully.
func (r *GatewayResponse) Succeeded() bool {
	return r.Status == StatusCompleted
}

// HasFailed reports whether the operation failed. A non-empty ErrorMessage
// marks the response as failed regardless of Status: a gateway that reports
// an error alongside a success status is not trusted.
func (r *GatewayResponse) HasFailed() bool {
	return r.Status == StatusFailed || r.ErrorMessage != ""
}

// IsPending reports whether the operation is awaiting completion, such as a
// redirect flow where the payer has not finished checkout.
func (r *GatewayResponse) IsPending() bool {
	return r.Status == StatusPending
}
