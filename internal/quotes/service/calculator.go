package service

import (
	"math"

	"breed_site_backend/internal/catalog"
	"breed_site_backend/internal/quotes/transport"
)

// Totals holds the financial summary for a set of priced positions.
// All amounts are in cents.
type Totals struct {
	SubtotalCents int64
	DiscountCents int64
	TotalCents    int64
}

// SelectionSummary is the result of pricing a catalog selection in the
// interactive package builder.
type SelectionSummary struct {
	Totals
	EstimatedTimeframe string
}

// roundCents rounds a float amount to the nearest cent.
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

// multiItemDiscount returns the 10% discount, floored to the cent, that
// applies only when more than one position is priced.
func multiItemDiscount(subtotalCents int64, positions int) int64 {
	if positions <= 1 {
		return 0
	}
	return subtotalCents / 10
}

// CalculateSelection prices a set of selected catalog entry ids. Unknown ids
// are ignored for pricing but still count toward the coordination buffer of
// the timeframe estimate.
func CalculateSelection(cat *catalog.Catalog, ids []string) SelectionSummary {
	var subtotal int64
	priced := 0
	for _, id := range ids {
		if entry, ok := cat.Lookup(id); ok {
			subtotal += entry.PriceCents
			priced++
		}
	}

	discount := multiItemDiscount(subtotal, priced)
	return SelectionSummary{
		Totals: Totals{
			SubtotalCents: subtotal,
			DiscountCents: discount,
			TotalCents:    subtotal - discount,
		},
		EstimatedTimeframe: EstimateTimeframe(cat, ids),
	}
}

// CalculateItems prices the free-form line items of a quote request:
// subtotal is the sum of quantity times rate, and the multi-item discount
// applies when the request carries more than one item.
func CalculateItems(items []transport.QuoteLineItem) Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += roundCents(float64(item.Quantity) * item.Rate * 100)
	}

	discount := multiItemDiscount(subtotal, len(items))
	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    subtotal - discount,
	}
}

// EstimateTimeframe sums the per-service business days for the selection,
// adds a coordination buffer of max(2, ceil(n*0.5)) days, converts to
// calendar weeks at five business days per week, and buckets the result into
// a human-readable range. An empty selection still yields an estimate from
// the buffer alone.
func EstimateTimeframe(cat *catalog.Catalog, ids []string) string {
	days := 0
	for _, id := range ids {
		days += cat.BusinessDays(id)
	}

	buffer := (len(ids) + 1) / 2
	if buffer < 2 {
		buffer = 2
	}
	days += buffer

	weeks := (days + 4) / 5

	switch {
	case weeks <= 1:
		return "3-5 Business Days"
	case weeks <= 2:
		return "1-2 Weeks"
	case weeks <= 3:
		return "2-3 Weeks"
	case weeks <= 4:
		return "3-4 Weeks"
	case weeks <= 6:
		return "4-6 Weeks"
	case weeks <= 8:
		return "6-8 Weeks"
	default:
		return "8-12 Weeks"
	}
}
