// Package transport defines the request and response shapes for the quotes
// module.
package transport

import (
	"fmt"
	"strings"

	"breed_site_backend/platform/apperr"
)

// PaymentTerms accepted on a quote request.
var PaymentTerms = []string{"Net 30", "Net 15", "Due on Receipt", "50% Upfront"}

// QuoteLineItem is a single priced row on a quote request.
type QuoteLineItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Rate        float64 `json:"rate"` // rand per unit
}

// QuoteRequest is the payload of POST /generate-quote.
type QuoteRequest struct {
	CustomerName    string          `json:"customerName"`
	CustomerCompany string          `json:"customerCompany"`
	CustomerAddress string          `json:"customerAddress"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	ProjectName     string          `json:"projectName"`
	ContactPerson   string          `json:"contactPerson"`
	PaymentTerms    string          `json:"paymentTerms"`
	Items           []QuoteLineItem `json:"items"`
	Notes           string          `json:"notes"`
}

// GenerateQuoteResponse is returned on success.
type GenerateQuoteResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	QuoteNumber string `json:"quoteNumber"`
}

// Validate enforces the request invariants: the named customer fields must be
// non-empty after trimming, and every line item needs a name, a positive
// quantity and a positive rate.
func (r *QuoteRequest) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{r.CustomerName, "customerName"},
		{r.CustomerEmail, "customerEmail"},
		{r.ProjectName, "projectName"},
		{r.ContactPerson, "contactPerson"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return apperr.Validation(fmt.Sprintf("missing required field: %s", field.name))
		}
	}

	if r.PaymentTerms != "" && !validPaymentTerms(r.PaymentTerms) {
		return apperr.Validation(fmt.Sprintf("invalid payment terms: %s", r.PaymentTerms))
	}

	if len(r.Items) == 0 {
		return apperr.Validation("quote must contain at least one line item")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return apperr.Validation(fmt.Sprintf("invalid line item %d: name is required", i+1))
		}
		if item.Quantity <= 0 {
			return apperr.Validation(fmt.Sprintf("invalid line item %d: quantity must be greater than zero", i+1))
		}
		if item.Rate <= 0 {
			return apperr.Validation(fmt.Sprintf("invalid line item %d: rate must be greater than zero", i+1))
		}
	}

	return nil
}

func validPaymentTerms(value string) bool {
	for _, terms := range PaymentTerms {
		if terms == value {
			return true
		}
	}
	return false
}
