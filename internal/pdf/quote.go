package pdf

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"sync"
)

//go:embed templates/quote.html templates/logo.svg
var templateFS embed.FS

// VATDisclaimer appears verbatim in every generated document; the agency is
// not VAT-registered and no VAT is ever added.
const VATDisclaimer = "Breed Industries is not registered for VAT. No VAT is charged on this quotation."

// QuoteDocumentItem is one row of the itemized table, currency pre-formatted.
type QuoteDocumentItem struct {
	Name        string
	Description string
	Quantity    int
	Rate        string
	Amount      string
}

// QuoteDocument carries everything the quote template renders.
type QuoteDocument struct {
	Number          string
	IssueDate       string
	ValidUntil      string
	CustomerName    string
	CustomerCompany string
	CustomerAddress string
	CustomerEmail   string
	CustomerPhone   string
	ProjectName     string
	ContactPerson   string
	PaymentTerms    string
	Items           []QuoteDocumentItem
	Subtotal        string
	Discount        string
	HasDiscount     bool
	Total           string
	Timeframe       string
	Notes           string
}

var (
	logoOnce    sync.Once
	logoDataURI string

	quoteTmplOnce sync.Once
	quoteTmpl     *template.Template
	quoteTmplErr  error
)

// logo returns the company logo as a data URI. The decoded value is computed
// once and reused across renders; redundant concurrent initializations would
// produce the same value.
func logo() string {
	logoOnce.Do(func() {
		raw, err := templateFS.ReadFile("templates/logo.svg")
		if err != nil {
			return
		}
		logoDataURI = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(raw)
	})
	return logoDataURI
}

// BuildQuoteHTML renders the quote document template. The output is a pure
// function of the document value, so identical inputs produce identical HTML.
func BuildQuoteHTML(doc QuoteDocument) (string, error) {
	quoteTmplOnce.Do(func() {
		quoteTmpl, quoteTmplErr = template.New("quote.html").ParseFS(templateFS, "templates/quote.html")
	})
	if quoteTmplErr != nil {
		return "", fmt.Errorf("parse quote template: %w", quoteTmplErr)
	}

	data := struct {
		QuoteDocument
		LogoURI       string
		VATDisclaimer string
	}{
		QuoteDocument: doc,
		LogoURI:       logo(),
		VATDisclaimer: VATDisclaimer,
	}

	var buf bytes.Buffer
	if err := quoteTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute quote template: %w", err)
	}
	return buf.String(), nil
}
