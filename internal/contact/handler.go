package contact

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breed_site_backend/platform/httpkit"
)

// Handler serves the public contact endpoint.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Name identifies the module in startup logs.
func (h *Handler) Name() string { return "contact" }

// RegisterRoutes mounts the contact endpoint on the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/contact", h.Submit)
}

// Submit handles POST /contact.
func (h *Handler) Submit(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if httpkit.HandleError(c, h.service.Submit(c.Request.Context(), &sub)) {
		return
	}
	httpkit.OK(c, gin.H{"success": true})
}
