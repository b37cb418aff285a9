package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/JonnyWalker81/restock/backend/internal/apierror"
	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// CreatePurchase handles POST /api/v1/users/:user_id/purchases
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req models.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			apierror.WriteProblem(c, apierror.NewValidationError(requestID, bindingFieldErrors(verrs, req)))
			return
		}
		// JSON syntax or type error (not field-level)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
		return
	}

	result, err := h.purchaseService.RecordPurchase(c.Request.Context(), c.Param("user_id"), &req)
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListPurchases handles GET /api/v1/users/:user_id/products/:product/purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	events, err := h.purchaseService.ListPurchases(c.Request.Context(), c.Param("user_id"), c.Param("product"))
	if err != nil {
		apierror.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": events})
}

// DeleteUser handles DELETE /api/v1/users/:user_id
func (h *PurchaseHandler) DeleteUser(c *gin.Context) {
	if _, err := h.purchaseService.PurgeUser(c.Request.Context(), c.Param("user_id")); err != nil {
		apierror.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bindingFieldErrors reports gin binding failures under the JSON names
// clients send.
func bindingFieldErrors(verrs validator.ValidationErrors, target any) []apierror.FieldError {
	t := reflect.TypeOf(target)
	out := make([]apierror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if tag := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]; tag != "" && tag != "-" {
				name = tag
			}
		}
		message := "is invalid"
		if fe.Tag() == "required" {
			message = "is required"
		}
		out = append(out, apierror.FieldError{Field: name, Message: message, Code: fe.Tag()})
	}
	return out
}
