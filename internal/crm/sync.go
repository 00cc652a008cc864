package crm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
	"github.com/nm-digitalhub/sumit-gateway/internal/gateway"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
)

// Transport sends a credentialed request to the vendor API.
type Transport interface {
	Send(ctx context.Context, path string, payload map[string]any, includeClientIP bool) (map[string]any, error)
}

// SyncResult reports the outcome of a sync operation. Failures are carried
// in the result, not as errors; sync never interrupts the caller.
type SyncResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Synced  int    `json:"synced"`
}

// Syncer mirrors customer records between the vendor CRM and local storage.
type Syncer struct {
	transport Transport
	settings  config.SettingsProvider
	customers repository.CustomerStore
	logger    *slog.Logger
}

// NewSyncer creates a CRM syncer. The customer store may be nil when
// persistence is disabled; PullCustomers then reports counts without storing.
func NewSyncer(transport Transport, settings config.SettingsProvider, customers repository.CustomerStore, logger *slog.Logger) *Syncer {
	return &Syncer{
		transport: transport,
		settings:  settings,
		customers: customers,
		logger:    logger,
	}
}

// PullCustomers fetches the vendor customer list and upserts each record
// locally, keyed by the vendor customer id. Individual record failures are
// logged and skipped; the pull keeps going.
func (s *Syncer) PullCustomers(ctx context.Context) SyncResult {
	settings := s.settings.Current()

	raw, err := s.transport.Send(ctx, gateway.PathCustomerList, map[string]any{
		"Credentials": gateway.Credentials(settings),
	}, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "customer pull failed",
			slog.String("error", err.Error()),
		)
		return SyncResult{Message: "Failed to fetch customers: " + err.Error()}
	}

	records := customerList(raw)
	synced := 0
	for _, rec := range records {
		customer := parseCustomer(rec)
		if customer.SumitCustomerID == "" {
			continue
		}
		if s.customers != nil {
			if err := s.customers.Upsert(ctx, customer); err != nil {
				s.logger.ErrorContext(ctx, "failed to upsert customer",
					slog.String("sumit_customer_id", customer.SumitCustomerID),
					slog.String("error", err.Error()),
				)
				continue
			}
		}
		synced++
	}

	return SyncResult{
		Success: true,
		Message: fmt.Sprintf("Synced %d of %d customers", synced, len(records)),
		Synced:  synced,
	}
}

// PushCustomer sends a local customer record to the vendor CRM, then stores
// the vendor-assigned customer id if one comes back.
func (s *Syncer) PushCustomer(ctx context.Context, customer *domain.Customer) SyncResult {
	settings := s.settings.Current()

	payload := map[string]any{
		"Credentials": gateway.Credentials(settings),
		"Customer":    customerPayload(customer),
	}

	raw, err := s.transport.Send(ctx, gateway.PathCustomerSave, payload, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "customer push failed",
			slog.String("customer_id", customer.ID),
			slog.String("error", err.Error()),
		)
		return SyncResult{Message: "Failed to push customer: " + err.Error()}
	}

	if id := stringValue(raw["CustomerID"]); id != "" && customer.SumitCustomerID == "" {
		customer.SumitCustomerID = id
		if s.customers != nil {
			if err := s.customers.Upsert(ctx, customer); err != nil {
				s.logger.ErrorContext(ctx, "failed to store pushed customer",
					slog.String("customer_id", customer.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return SyncResult{Success: true, Message: "Customer pushed", Synced: 1}
}

// customerList extracts the record array from the vendor response. The list
// arrives either at the top level or under a Customers key.
func customerList(raw map[string]any) []map[string]any {
	for _, key := range []string{"Customers", "Data", "Items"} {
		if list, ok := raw[key].([]any); ok {
			out := make([]map[string]any, 0, len(list))
			for _, item := range list {
				if rec, ok := item.(map[string]any); ok {
					out = append(out, rec)
				}
			}
			return out
		}
	}
	return nil
}

func parseCustomer(rec map[string]any) *domain.Customer {
	now := time.Now().UTC()
	return &domain.Customer{
		ID:              uuid.New().String(),
		SumitCustomerID: stringValue(firstPresent(rec, "ID", "CustomerID")),
		Name:            stringValue(rec["Name"]),
		Email:           stringValue(firstPresent(rec, "EmailAddress", "Email")),
		Phone:           stringValue(rec["Phone"]),
		Address:         stringValue(rec["Address"]),
		City:            stringValue(rec["City"]),
		Country:         stringValue(rec["Country"]),
		ZipCode:         stringValue(rec["ZipCode"]),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func customerPayload(c *domain.Customer) map[string]any {
	payload := map[string]any{
		"Name": c.Name,
	}
	set := func(key, value string) {
		if value != "" {
			payload[key] = value
		}
	}
	set("ID", c.SumitCustomerID)
	set("EmailAddress", c.Email)
	set("Phone", c.Phone)
	set("Address", c.Address)
	set("City", c.City)
	set("Country", c.Country)
	set("ZipCode", c.ZipCode)
	return payload
}

func firstPresent(rec map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return ""
	}
}
