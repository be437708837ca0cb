// Package pricing aggregates multi-service compositions into a total
// duration and price, and applies the online-payment discount.
package pricing

import (
	"context"
	"fmt"
	"time"

	"salonbook/config"
	"salonbook/database/repository"
	"salonbook/models"
)

// ServiceRepo is the catalog surface the engine needs.
type ServiceRepo interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Service, error)
	DurationOverrides(ctx context.Context, masterID int64, serviceIDs []string) (map[string]int, error)
}

// Settings is the runtime-mutable knob surface.
type Settings interface {
	GetInt(ctx context.Context, key string, def int) int
	GetString(ctx context.Context, key string, def string) string
}

// LineItem is the resolved duration and price of one service in an aggregate.
type LineItem struct {
	ServiceID  string `json:"service_id"`
	Name       string `json:"name"`
	Minutes    int    `json:"minutes"`
	PriceCents int64  `json:"price_cents"`
}

// Aggregate is the combined quote for an ordered service composition.
type Aggregate struct {
	TotalMinutes    int        `json:"total_minutes"`
	TotalPriceCents int64      `json:"total_price_cents"`
	Currency        string     `json:"currency"`
	Items           []LineItem `json:"items"`
}

// Quote is the final price after any applicable discount.
type Quote struct {
	OriginalCents          int64   `json:"original_price_cents"`
	FinalCents             int64   `json:"final_price_cents"`
	DiscountAmountCents    int64   `json:"discount_amount_cents"`
	DiscountPercentApplied int     `json:"discount_percent_applied"`
	DiscountApplied        *string `json:"discount_applied,omitempty"`
}

// PricingService resolves durations and prices for compositions.
type PricingService interface {
	Aggregate(ctx context.Context, serviceIDs []string, masterID *int64) (*Aggregate, error)
	QuoteFor(ctx context.Context, originalCents int64, onlinePayment bool) Quote
}

// DefaultPricingService implements PricingService over the catalog.
type DefaultPricingService struct {
	Services ServiceRepo
	Settings Settings
}

// NewDefaultPricingService wires the engine.
func NewDefaultPricingService(services ServiceRepo, settings Settings) *DefaultPricingService {
	return &DefaultPricingService{Services: services, Settings: settings}
}

// OnlineDiscountLabel marks quotes discounted for paying online.
const OnlineDiscountLabel = "online_payment"

// Aggregate resolves per-service durations and prices in the caller's order.
// Duration precedence: master override, then the service's own duration, then
// the slot duration fallback. Missing prices count as zero.
func (p *DefaultPricingService) Aggregate(ctx context.Context, serviceIDs []string, masterID *int64) (*Aggregate, error) {
	if len(serviceIDs) == 0 {
		return nil, repository.ErrServiceNotFound
	}
	services, err := p.Services.FindByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate services: %w", err)
	}
	byID := make(map[string]models.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	overrides := map[string]int{}
	if masterID != nil {
		overrides, err = p.Services.DurationOverrides(ctx, *masterID, serviceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate services: %w", err)
		}
	}

	fallback := p.Settings.GetInt(ctx, config.KeySlotDurationMinutes, config.AppConfig.SlotDurationMinutes)
	agg := &Aggregate{
		Currency: p.Settings.GetString(ctx, config.KeyDefaultCurrency, config.AppConfig.DefaultCurrency),
	}
	for _, id := range serviceIDs {
		svc, ok := byID[id]
		if !ok {
			return nil, repository.ErrServiceNotFound
		}
		minutes := fallback
		if override, ok := overrides[id]; ok && override > 0 {
			minutes = override
		} else if svc.DurationMinutes != nil && *svc.DurationMinutes > 0 {
			minutes = *svc.DurationMinutes
		}
		var price int64
		if svc.PriceCents != nil {
			price = *svc.PriceCents
		}
		agg.Items = append(agg.Items, LineItem{ServiceID: id, Name: svc.Name, Minutes: minutes, PriceCents: price})
		agg.TotalMinutes += minutes
		agg.TotalPriceCents += price
	}
	return agg, nil
}

// QuoteFor applies the online-payment discount to an original price. The
// discount percent is read from settings and clamped to 0..100.
func (p *DefaultPricingService) QuoteFor(ctx context.Context, originalCents int64, onlinePayment bool) Quote {
	q := Quote{OriginalCents: originalCents, FinalCents: originalCents}
	if !onlinePayment {
		return q
	}
	pct := p.Settings.GetInt(ctx, config.KeyOnlinePaymentDiscountPercent, config.AppConfig.OnlinePaymentDiscountPercent)
	if pct <= 0 {
		return q
	}
	if pct > 100 {
		pct = 100
	}
	q.FinalCents = DiscountedPrice(originalCents, pct)
	q.DiscountAmountCents = q.OriginalCents - q.FinalCents
	q.DiscountPercentApplied = pct
	label := OnlineDiscountLabel
	q.DiscountApplied = &label
	return q
}

// DiscountedPrice returns original reduced by pct percent, rounded half up
// on the minor currency unit.
func DiscountedPrice(originalCents int64, pct int) int64 {
	if originalCents <= 0 {
		return 0
	}
	return (originalCents*int64(100-pct) + 50) / 100
}

// TotalDuration is a convenience for slot math over an aggregate.
func (a *Aggregate) TotalDuration() time.Duration {
	return time.Duration(a.TotalMinutes) * time.Minute
}
