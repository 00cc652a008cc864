package gateway

import (
	"strconv"
	"strings"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
)

// API paths. All operations are credentialed POSTs.
const (
	PathCharge        = "/website/payments/charge/"
	PathChargeJ5      = "/website/payments/chargej5/"
	PathBeginRedirect = "/website/payments/beginredirect/"
	PathCapture       = "/website/payments/capture/"
	PathRefund        = "/website/payments/refund/"
	PathGetPayment    = "/website/payments/getpayment/"
	PathCustomerList  = "/website/customers/getlist/"
	PathCustomerSave  = "/website/customers/update/"
)

// Credentials returns the account credential block attached to every
// request.
func Credentials(s config.Settings) map[string]any {
	return map[string]any{
		"CompanyID": s.CompanyID,
		"APIKey":    s.APIKey,
	}
}

// ChargePath selects the endpoint for a charge: the hosted redirect flow, the
// J5 token endpoint, or the standard charge endpoint.
func ChargePath(intent domain.PaymentIntent, s config.Settings) string {
	if s.PCIMode == config.PCIModeRedirect && !intent.HasToken() {
		return PathBeginRedirect
	}
	if intent.HasToken() && strings.EqualFold(s.TokenMethod, config.TokenMethodJ5) {
		return PathChargeJ5
	}
	return PathCharge
}

// BuildChargeRequest assembles the vendor charge payload for the given
// intent. It is a pure function of its inputs: settings are read once by the
// caller and passed in, so a charge observes one consistent snapshot.
func BuildChargeRequest(intent domain.PaymentIntent, transactionID string, s config.Settings) map[string]any {
	req := map[string]any{
		"Credentials":         Credentials(s),
		"Items":               buildItems(intent),
		"VATIncluded":         boolString(s.VATIncluded),
		"VATRate":             s.VATRate,
		"AuthoriseOnly":       s.TestingMode,
		"DraftDocument":       s.DraftDocument,
		"SendDocumentByEmail": s.EmailDocument,
		"DocumentLanguage":    documentLanguage(intent, s),
		"MaximumPayments":     maximumPayments(s),
		"ExternalIdentifier":  transactionID,
	}

	if intent.Description != "" {
		req["DocumentDescription"] = intent.Description
	}
	if intent.PaymentsCount > 1 {
		req["Payments_Count"] = intent.PaymentsCount
	}
	if mn := merchantNumber(intent, s); mn != "" {
		req["MerchantNumber"] = mn
	}
	if intent.IsDonation {
		req["DocumentType"] = "DonationReceipt"
	}
	if customer := buildCustomer(intent); customer != nil {
		req["Customer"] = customer
	}

	attachPaymentMethod(req, intent, transactionID, s)

	return req
}

// BuildCaptureRequest assembles the payload to capture a previously
// authorized transaction.
func BuildCaptureRequest(paymentID string, amount float64, s config.Settings) map[string]any {
	return map[string]any{
		"Credentials": Credentials(s),
		"PaymentID":   paymentID,
		"Amount":      amount,
	}
}

// BuildRefundRequest assembles the refund payload. Reason is omitted when
// empty.
func BuildRefundRequest(transactionID string, amount float64, reason string, s config.Settings) map[string]any {
	req := map[string]any{
		"Credentials":   Credentials(s),
		"TransactionID": transactionID,
		"Amount":        amount,
	}
	if reason != "" {
		req["Reason"] = reason
	}
	return req
}

// BuildStatusRequest assembles the payload for a transaction status probe.
func BuildStatusRequest(transactionID string, s config.Settings) map[string]any {
	return map[string]any{
		"Credentials":   Credentials(s),
		"TransactionID": transactionID,
	}
}

// buildItems produces the item list: explicit items when provided, otherwise
// a single synthetic line carrying the full amount.
func buildItems(intent domain.PaymentIntent) []map[string]any {
	if len(intent.Items) > 0 {
		items := make([]map[string]any, 0, len(intent.Items))
		for _, it := range intent.Items {
			qty := it.Quantity
			if qty <= 0 {
				qty = 1
			}
			items = append(items, map[string]any{
				"Item":      map[string]any{"Name": it.Name},
				"UnitPrice": it.Price,
				"Quantity":  qty,
			})
		}
		return items
	}

	name := intent.ItemName
	if name == "" {
		name = "Payment"
	}
	return []map[string]any{
		{
			"Item":      map[string]any{"Name": name},
			"UnitPrice": intent.Amount,
			"Quantity":  1,
		},
	}
}

// buildCustomer returns the customer block, or nil when no customer details
// are present so the field is omitted from the payload.
func buildCustomer(intent domain.PaymentIntent) map[string]any {
	customer := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			customer[key] = value
		}
	}
	set("Name", intent.CustomerName)
	set("EmailAddress", intent.CustomerEmail)
	set("Phone", intent.CustomerPhone)
	set("Address", intent.CustomerAddress)
	set("City", intent.CustomerCity)
	set("Country", intent.CustomerCountry)
	set("ZipCode", intent.CustomerZip)

	if len(customer) == 0 {
		return nil
	}
	return customer
}

// attachPaymentMethod applies the method priority: stored token first, then
// the hosted redirect flow, then raw card details.
func attachPaymentMethod(req map[string]any, intent domain.PaymentIntent, transactionID string, s config.Settings) {
	switch {
	case intent.HasToken():
		req["PaymentMethod"] = map[string]any{
			"CreditCard_Token": intent.Token,
		}
	case s.PCIMode == config.PCIModeRedirect:
		req["RedirectURL"] = redirectURL(s, transactionID)
	default:
		req["PaymentMethod"] = map[string]any{
			"CreditCard_Number":   intent.CardNumber,
			"CreditCard_ExpMonth": intent.ExpiryMonth,
			"CreditCard_ExpYear":  intent.ExpiryYear,
			// The gateway accepts CVV-less charges; absent means empty.
			"CreditCard_CVV": intent.CVV,
		}
	}
}

// redirectURL builds the return URL for the hosted flow, carrying the local
// transaction id so the callback can be correlated.
func redirectURL(s config.Settings, transactionID string) string {
	base := strings.TrimSuffix(s.CallbackURL, "/")
	if base == "" {
		return ""
	}
	return base + "?transaction_id=" + transactionID
}

// merchantNumber picks the subscriptions merchant for subscription charges,
// falling back to the default merchant number.
func merchantNumber(intent domain.PaymentIntent, s config.Settings) string {
	if intent.IsSubscription && s.SubsMerchantNumber != "" {
		return s.SubsMerchantNumber
	}
	return s.MerchantNumber
}

func documentLanguage(intent domain.PaymentIntent, s config.Settings) string {
	if intent.Language != "" {
		return intent.Language
	}
	if s.DocumentLanguage != "" {
		return s.DocumentLanguage
	}
	return "he"
}

func maximumPayments(s config.Settings) int {
	if s.MaximumPayments > 0 {
		return s.MaximumPayments
	}
	return 1
}

// boolString renders booleans the way the vendor API expects them.
func boolString(b bool) string {
	return strconv.FormatBool(b)
}
