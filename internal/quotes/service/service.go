// Package service implements quote pricing and generation: a validated
// request becomes priced line items, a rendered PDF document, an email to the
// customer, and an operator notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"breed_site_backend/internal/catalog"
	"breed_site_backend/internal/pdf"
	"breed_site_backend/internal/quotes/transport"
	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/currency"
	"breed_site_backend/platform/logger"
)

// DocumentRenderer is the external render-document capability.
type DocumentRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// MailSender delivers the generated quote to the customer.
type MailSender interface {
	SendQuoteEmail(ctx context.Context, toEmail, customerName, quoteNumber string, totalCents int64, pdfContent []byte) error
	Enabled() bool
}

// Archiver stores a copy of the generated document.
type Archiver interface {
	StoreQuotePDF(ctx context.Context, objectName string, content []byte) error
}

// OperatorNotifier raises a best-effort operator alert after generation.
type OperatorNotifier interface {
	Notify(ctx context.Context, kind string, data map[string]any)
}

// Service generates quotes.
type Service struct {
	catalog       *catalog.Catalog
	renderer      DocumentRenderer
	sender        MailSender
	archiver      Archiver
	notifier      OperatorNotifier
	log           *logger.Logger
	renderTimeout time.Duration
	sendTimeout   time.Duration
	now           func() time.Time
	numberFor     func(year int) string
}

// New creates the quote service. renderer, archiver and notifier may be nil
// when the corresponding capability is not configured.
func New(cat *catalog.Catalog, renderer DocumentRenderer, sender MailSender, log *logger.Logger, renderTimeout, sendTimeout time.Duration) *Service {
	return &Service{
		catalog:       cat,
		renderer:      renderer,
		sender:        sender,
		log:           log,
		renderTimeout: renderTimeout,
		sendTimeout:   sendTimeout,
		now:           time.Now,
		numberFor:     QuoteNumber,
	}
}

// SetArchiver wires the optional PDF archive.
func (s *Service) SetArchiver(a Archiver) { s.archiver = a }

// SetOperatorNotifier wires the optional operator alert.
func (s *Service) SetOperatorNotifier(n OperatorNotifier) { s.notifier = n }

// QuoteNumber returns a fresh quote number in the form Q-<year>-<NNNN> with
// NNNN in [1000, 9999].
func QuoteNumber(year int) string {
	return fmt.Sprintf("Q-%d-%d", year, 1000+rand.Intn(9000))
}

// Selection prices a catalog selection for the interactive builder.
func (s *Service) Selection(ids []string) SelectionSummary {
	return CalculateSelection(s.catalog, ids)
}

// Generate validates the request, renders the quote document, emails it to
// the customer and archives a copy. It returns the assigned quote number;
// the number is also returned alongside a delivery error so callers can
// report "generated but not delivered" distinctly from a render failure.
func (s *Service) Generate(ctx context.Context, req *transport.QuoteRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if !s.sender.Enabled() {
		return "", apperr.Configuration("Email service is not configured.")
	}
	if s.renderer == nil {
		return "", apperr.Configuration("Document service is not configured.")
	}

	totals := CalculateItems(req.Items)
	issued := s.now()
	number := s.numberFor(issued.Year())

	doc := s.buildDocument(req, totals, number, issued)
	html, err := pdf.BuildQuoteHTML(doc)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to build quote document", err)
	}

	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()
	content, err := s.renderer.RenderHTML(renderCtx, html)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "failed to render quote document: "+timeoutOr(err), err)
	}

	if s.archiver != nil {
		if archiveErr := s.archiver.StoreQuotePDF(ctx, number+".pdf", content); archiveErr != nil {
			s.log.Warn("quote archive failed", "quoteNumber", number, "error", archiveErr.Error())
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sender.SendQuoteEmail(sendCtx, req.CustomerEmail, req.CustomerName, number, totals.TotalCents, content); err != nil {
		return number, apperr.Wrap(apperr.KindUnavailable,
			fmt.Sprintf("quote %s generated but email delivery failed: %s", number, timeoutOr(err)), err)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, "quote_status_update", map[string]any{
			"client":      req.CustomerName,
			"status":      "generated",
			"quoteNumber": number,
			"total":       currency.FormatZAR(totals.TotalCents),
		})
	}

	s.log.Info("quote generated", "quoteNumber", number, "customer", req.CustomerEmail, "total_cents", totals.TotalCents)
	return number, nil
}

func (s *Service) buildDocument(req *transport.QuoteRequest, totals Totals, number string, issued time.Time) pdf.QuoteDocument {
	items := make([]pdf.QuoteDocumentItem, 0, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		rateCents := roundCents(item.Rate * 100)
		items = append(items, pdf.QuoteDocumentItem{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        currency.FormatZAR(rateCents),
			Amount:      currency.FormatZAR(roundCents(float64(item.Quantity) * item.Rate * 100)),
		})
		if item.ID != "" {
			ids = append(ids, item.ID)
		}
	}

	return pdf.QuoteDocument{
		Number:          number,
		IssueDate:       issued.Format("2 January 2006"),
		ValidUntil:      issued.AddDate(0, 0, 30).Format("2 January 2006"),
		CustomerName:    req.CustomerName,
		CustomerCompany: req.CustomerCompany,
		CustomerAddress: req.CustomerAddress,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ProjectName:     req.ProjectName,
		ContactPerson:   req.ContactPerson,
		PaymentTerms:    paymentTermsOrDefault(req.PaymentTerms),
		Items:           items,
		Subtotal:        currency.FormatZAR(totals.SubtotalCents),
		Discount:        currency.FormatZAR(totals.DiscountCents),
		HasDiscount:     totals.DiscountCents > 0,
		Total:           currency.FormatZAR(totals.TotalCents),
		Timeframe:       EstimateTimeframe(s.catalog, ids),
		Notes:           req.Notes,
	}
}

func paymentTermsOrDefault(terms string) string {
	if terms == "" {
		return "50% Upfront"
	}
	return terms
}

// timeoutOr collapses deadline errors into the literal "timeout" so the
// failure reason is uniform across providers.
func timeoutOr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}
