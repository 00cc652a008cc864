package service

import (
	"context"
	"log/slog"

	"github.com/nm-digitalhub/sumit-gateway/internal/domain"
)

// TokenChargeOptions carries the optional fields of a stored-token charge.
type TokenChargeOptions struct {
	Currency      string
	Description   string
	PaymentsCount int
	Metadata      map[string]any
}

// ChargeStoredToken performs a recurring charge against a stored token. It is
// a thin pass-through to CreatePayment with the token as the payment method;
// all lifecycle notifications fire exactly as for a regular charge. The
// token's last-used timestamp is updated on success when a token store is
// configured.
func (o *Orchestrator) ChargeStoredToken(ctx context.Context, token domain.TokenRecord, amount float64, opts TokenChargeOptions) *domain.GatewayResponse {
	currency := opts.Currency
	if currency == "" {
		currency = "ILS"
	}

	intent := domain.PaymentIntent{
		Amount:         amount,
		Currency:       currency,
		Description:    opts.Description,
		Token:          token.Token,
		CustomerName:   token.CardholderName,
		PaymentsCount:  opts.PaymentsCount,
		IsSubscription: true,
		Metadata:       opts.Metadata,
	}

	resp := o.CreatePayment(ctx, intent)

	if resp.Succeeded() && o.tokens != nil && token.ID != "" {
		if err := o.tokens.TouchLastUsed(ctx, token.ID); err != nil {
			o.logger.WarnContext(ctx, "failed to update token last used",
				slog.String("token_id", token.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return resp
}
