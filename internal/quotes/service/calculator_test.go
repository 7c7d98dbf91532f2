package service

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"breed_site_backend/internal/catalog"
	"breed_site_backend/internal/quotes/transport"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestCalculateItemsSingleItemNoDiscount(t *testing.T) {
	totals := CalculateItems([]transport.QuoteLineItem{
		{Name: "Logo Design", Quantity: 1, Rate: 2000},
	})

	if totals.SubtotalCents != 200000 {
		t.Errorf("subtotal = %d, want 200000", totals.SubtotalCents)
	}
	if totals.DiscountCents != 0 {
		t.Errorf("discount = %d, want 0 for a single item", totals.DiscountCents)
	}
	if totals.TotalCents != 200000 {
		t.Errorf("total = %d", totals.TotalCents)
	}
}

func TestCalculateItemsMultiItemDiscount(t *testing.T) {
	totals := CalculateItems([]transport.QuoteLineItem{
		{Name: "Logo Design", Quantity: 1, Rate: 2000},
		{Name: "Business Cards", Quantity: 2, Rate: 800},
	})

	if totals.SubtotalCents != 360000 {
		t.Fatalf("subtotal = %d, want 360000", totals.SubtotalCents)
	}
	if totals.DiscountCents != 36000 {
		t.Errorf("discount = %d, want 10%% of subtotal", totals.DiscountCents)
	}
	if totals.TotalCents != 324000 {
		t.Errorf("total = %d", totals.TotalCents)
	}
}

func TestMultiItemDiscountFloorsToCent(t *testing.T) {
	// 25 cents across two items: 10% is 2.5 cents, floored to 2.
	if got := multiItemDiscount(25, 2); got != 2 {
		t.Errorf("discount = %d, want 2", got)
	}
	if got := multiItemDiscount(25, 1); got != 0 {
		t.Errorf("single position discount = %d, want 0", got)
	}
	if got := multiItemDiscount(0, 5); got != 0 {
		t.Errorf("zero subtotal discount = %d, want 0", got)
	}
}

func TestRoundCentsHandlesFractionalRates(t *testing.T) {
	totals := CalculateItems([]transport.QuoteLineItem{
		{Name: "Flyer", Quantity: 3, Rate: 33.335},
	})
	// 3 * 33.335 * 100 = 10000.5, rounded to 10001.
	if totals.SubtotalCents != 10001 {
		t.Errorf("subtotal = %d, want 10001", totals.SubtotalCents)
	}
}

func TestCalculateSelectionIgnoresUnknownIDs(t *testing.T) {
	cat := loadCatalog(t)

	known := CalculateSelection(cat, []string{"logo-design"})
	withUnknown := CalculateSelection(cat, []string{"logo-design", "not-a-service"})

	if known.SubtotalCents != withUnknown.SubtotalCents {
		t.Errorf("unknown id changed the subtotal: %d vs %d", known.SubtotalCents, withUnknown.SubtotalCents)
	}
	if withUnknown.DiscountCents != 0 {
		t.Errorf("one priced position must not trigger the discount, got %d", withUnknown.DiscountCents)
	}
}

func TestEstimateTimeframeBuckets(t *testing.T) {
	cat := loadCatalog(t)

	if got := EstimateTimeframe(cat, nil); got != "3-5 Business Days" {
		t.Errorf("empty selection = %q", got)
	}

	// Enough services to push the estimate past the one-week bucket.
	var ids []string
	for _, category := range cat.Categories() {
		for _, entry := range category.Entries {
			ids = append(ids, entry.ID)
		}
	}
	got := EstimateTimeframe(cat, ids)
	switch got {
	case "1-2 Weeks", "2-3 Weeks", "3-4 Weeks", "4-6 Weeks", "6-8 Weeks", "8-12 Weeks":
	default:
		t.Errorf("full selection = %q, want a multi-week bucket", got)
	}
}

func TestQuoteNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^Q-(\d{4})-(\d{4})$`)
	year := time.Now().Year()

	for i := 0; i < 200; i++ {
		number := QuoteNumber(year)
		match := pattern.FindStringSubmatch(number)
		if match == nil {
			t.Fatalf("number %q does not match Q-<year>-<NNNN>", number)
		}
		if match[1] != strconv.Itoa(year) {
			t.Errorf("number %q carries the wrong year", number)
		}
		n, _ := strconv.Atoi(match[2])
		if n < 1000 || n > 9999 {
			t.Errorf("number %q suffix out of range", number)
		}
	}
}
