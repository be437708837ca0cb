// Package payment creates online payment invoices through Stripe checkout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"salonbook/config"
)

// ProviderName is recorded on bookings paid through this collaborator.
const ProviderName = "stripe"

// ErrUnavailable indicates online payments are not configured.
var ErrUnavailable = errors.New("online payments unavailable")

// InvoiceRequest describes one booking to invoice.
type InvoiceRequest struct {
	BookingID   int64
	Title       string
	AmountCents int64
	Currency    string
}

// Invoice is the created payment link.
type Invoice struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// InvoiceProvider creates payment invoices for bookings.
type InvoiceProvider interface {
	Enabled() bool
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// StripeProvider implements InvoiceProvider over Stripe checkout sessions.
// The API key is set process-wide at boot (stripe.Key).
type StripeProvider struct{}

// NewStripeProvider returns the provider.
func NewStripeProvider() *StripeProvider {
	return &StripeProvider{}
}

// Enabled reports whether an API key is configured.
func (p *StripeProvider) Enabled() bool {
	return config.AppConfig.StripeKey != ""
}

// CreateInvoice creates a single-item checkout session and returns its URL.
func (p *StripeProvider) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	if !p.Enabled() {
		return nil, ErrUnavailable
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive, got %d", req.AmountCents)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(strconv.FormatInt(req.BookingID, 10)),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &Invoice{ID: s.ID, URL: s.URL}, nil
}
