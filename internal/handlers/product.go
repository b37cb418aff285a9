package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/restock/backend/internal/apierror"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

type ProductHandler struct {
	predictionService service.PredictionService
	analyticsService  service.AnalyticsService
}

// NewProductHandler creates a new product handler
func NewProductHandler(predictionService service.PredictionService, analyticsService service.AnalyticsService) *ProductHandler {
	return &ProductHandler{
		predictionService: predictionService,
		analyticsService:  analyticsService,
	}
}

// ListProducts handles GET /api/v1/users/:user_id/products?min_urgency=
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var minUrgency float64
	if raw := c.Query("min_urgency"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{{
				Field:   "min_urgency",
				Message: "must be a non-negative number",
				Code:    "invalid_range",
			}}))
			return
		}
		minUrgency = v
	}

	products, err := h.predictionService.Products(c.Request.Context(), c.Param("user_id"), minUrgency)
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /api/v1/users/:user_id/products/:product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	detail, err := h.predictionService.Detail(c.Request.Context(), c.Param("user_id"), c.Param("product"))
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// RecomputeProduct handles POST /api/v1/users/:user_id/products/:product/recompute.
// A write that loses to a concurrent recompute answers 409 with a retry hint.
func (h *ProductHandler) RecomputeProduct(c *gin.Context) {
	snapshot, err := h.analyticsService.Recompute(c.Request.Context(), c.Param("user_id"), c.Param("product"))
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
