// Package handler exposes the quote generation and catalog endpoints.
package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"breed_site_backend/internal/catalog"
	"breed_site_backend/internal/quotes/service"
	"breed_site_backend/internal/quotes/transport"
	"breed_site_backend/platform/currency"
	"breed_site_backend/platform/httpkit"
)

type Handler struct {
	service *service.Service
	catalog *catalog.Catalog
}

func New(svc *service.Service, cat *catalog.Catalog) *Handler {
	return &Handler{service: svc, catalog: cat}
}

// Name identifies the module in startup logs.
func (h *Handler) Name() string { return "quotes" }

// RegisterRoutes mounts the quote endpoints on the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/generate-quote", h.Generate)
	r.POST("/calculate-package", h.CalculatePackage)
	r.GET("/catalog", h.Catalog)
}

// Generate handles POST /generate-quote.
func (h *Handler) Generate(c *gin.Context) {
	var req transport.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	number, err := h.service.Generate(c.Request.Context(), &req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.GenerateQuoteResponse{
		Success:     true,
		Message:     fmt.Sprintf("Quote %s has been generated and emailed to %s.", number, req.CustomerEmail),
		QuoteNumber: number,
	})
}

type calculatePackageRequest struct {
	Items []string `json:"items"`
}

// CalculatePackage prices a catalog selection for the interactive package
// builder.
func (h *Handler) CalculatePackage(c *gin.Context) {
	var req calculatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	summary := h.service.Selection(req.Items)
	httpkit.OK(c, gin.H{
		"success":            true,
		"subtotal":           currency.FormatZAR(summary.SubtotalCents),
		"discount":           currency.FormatZAR(summary.DiscountCents),
		"total":              currency.FormatZAR(summary.TotalCents),
		"estimatedTimeframe": summary.EstimatedTimeframe,
	})
}

type catalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Days        int    `json:"days"`
}

type catalogCategory struct {
	Key     string         `json:"key"`
	Name    string         `json:"name"`
	Entries []catalogEntry `json:"entries"`
}

// Catalog returns the service catalog grouped by category.
func (h *Handler) Catalog(c *gin.Context) {
	categories := make([]catalogCategory, 0)
	for _, cat := range h.catalog.Categories() {
		out := catalogCategory{Key: cat.Key, Name: cat.Name, Entries: make([]catalogEntry, 0, len(cat.Entries))}
		for _, entry := range cat.Entries {
			out.Entries = append(out.Entries, catalogEntry{
				ID:          entry.ID,
				Name:        entry.Name,
				Description: entry.Description,
				Price:       currency.FormatZAR(entry.PriceCents),
				Days:        entry.BusinessDays,
			})
		}
		categories = append(categories, out)
	}

	httpkit.OK(c, gin.H{"success": true, "categories": categories})
}
