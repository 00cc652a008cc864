package gateway

import (
	"strconv"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
)

// ParseResponse normalizes a raw gateway response body. The locally generated
// transaction id always wins over anything the gateway reports; the vendor's
// own payment id is carried separately.
func ParseResponse(raw map[string]any, transactionID string) *domain.GatewayResponse {
	resp := &domain.GatewayResponse{
		TransactionID:       transactionID,
		Status:              domain.MapVendorStatus(stringField(raw, "Status")),
		PaymentID:           stringField(raw, "PaymentID"),
		PaymentURL:          stringField(raw, "RedirectURL"),
		DocumentID:          stringField(raw, "DocumentID"),
		AuthorizationNumber: stringField(raw, "AuthorizationNumber"),
		LastFourDigits:      stringField(raw, "LastFourDigits"),
		CustomerID:          stringField(raw, "CustomerID"),
		RefundDocumentID:    stringField(raw, "RefundDocumentID"),
		ErrorMessage:        stringField(raw, "UserErrorMessage"),
		Raw:                 raw,
	}

	// A redirect URL without a recognizable status means the payer has been
	// handed off to the hosted page and the charge is still in flight.
	if resp.Status == domain.StatusUnknown && resp.PaymentURL != "" {
		resp.Status = domain.StatusPending
	}

	return resp
}

// stringField reads a field that the gateway may serialize as a string or a
// JSON number.
func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
