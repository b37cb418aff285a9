package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/restock/backend/internal/apierror"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

type PredictionHandler struct {
	predictionService service.PredictionService
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictionService service.PredictionService) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
	}
}

// GetPredictions handles GET /api/v1/users/:user_id/predictions
func (h *PredictionHandler) GetPredictions(c *gin.Context) {
	opts, ok := parseRankOptions(c)
	if !ok {
		return
	}

	predictions, err := h.predictionService.Rank(c.Request.Context(), c.Param("user_id"), opts)
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// GetSummary handles GET /api/v1/users/:user_id/predictions/summary
func (h *PredictionHandler) GetSummary(c *gin.Context) {
	opts, ok := parseRankOptions(c)
	if !ok {
		return
	}

	summary, err := h.predictionService.Summary(c.Request.Context(), c.Param("user_id"), opts)
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// parseRankOptions reads ?threshold= (a probability in [0, 1]) and ?limit=
// (a non-negative count, 0 for no limit). It writes a problem response and
// returns false on bad input.
func parseRankOptions(c *gin.Context) (service.RankOptions, bool) {
	var opts service.RankOptions
	var fieldErrors []apierror.FieldError

	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			fieldErrors = append(fieldErrors, apierror.FieldError{
				Field:   "threshold",
				Message: "must be a number between 0 and 1",
				Code:    "invalid_range",
			})
		} else {
			opts.Threshold = &threshold
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			fieldErrors = append(fieldErrors, apierror.FieldError{
				Field:   "limit",
				Message: "must be a non-negative integer",
				Code:    "invalid_range",
			})
		} else {
			opts.Limit = &limit
		}
	}

	if len(fieldErrors) > 0 {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), fieldErrors))
		return opts, false
	}
	return opts, true
}
