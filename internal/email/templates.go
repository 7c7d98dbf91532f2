package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"breed_site_backend/platform/currency"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type quoteEmailData struct {
	baseEmailData
	CustomerName   string
	QuoteNumber    string
	TotalFormatted string
}

type contactAckEmailData struct {
	baseEmailData
	Name string
}

type contactMessageEmailData struct {
	baseEmailData
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func quoteContent(customerName, quoteNumber string, totalCents int64) (string, error) {
	return renderEmailTemplate("quote.html", quoteEmailData{
		baseEmailData: baseEmailData{
			Title:   "Your quotation is ready",
			Heading: "Your quotation is ready",
		},
		CustomerName:   customerName,
		QuoteNumber:    quoteNumber,
		TotalFormatted: currency.FormatZAR(totalCents),
	})
}

func contactAckContent(name string) (string, error) {
	return renderEmailTemplate("contact_ack.html", contactAckEmailData{
		baseEmailData: baseEmailData{
			Title:   "Thank you for reaching out",
			Heading: "Thank you for reaching out",
		},
		Name: name,
	})
}

func contactMessageContent(name, fromEmail, phone, service, message string) (string, error) {
	return renderEmailTemplate("contact_message.html", contactMessageEmailData{
		baseEmailData: baseEmailData{
			Title:   "New website enquiry",
			Heading: "New website enquiry",
		},
		Name:    name,
		Email:   fromEmail,
		Phone:   phone,
		Service: service,
		Message: message,
	})
}
