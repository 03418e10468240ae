package handlers

import (
	"errors"
	"net/http"

	"caravanas/internal/domain"
	"caravanas/internal/http/middleware"
	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var capErr domain.CapacityError
	var balErr domain.InsufficientBalanceError
	switch {
	case errors.As(err, &capErr):
		respondError(c, http.StatusConflict, "capacity_exceeded", err.Error(), gin.H{
			"onibus_id":      capErr.BusID,
			"capacidade":     capErr.Capacity,
			"ocupacao":       capErr.Occupancy,
			"lugares_livres": capErr.Free(),
		})
	case errors.As(err, &balErr):
		respondError(c, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), gin.H{
			"disponivel": balErr.Available,
			"solicitado": balErr.Requested,
		})
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	default:
		middlewareLog(c, err)
		respondError(c, http.StatusInternalServerError, "internal_error", "erro interno", nil)
	}
}

// validationDetails flattens validator errors into field -> tag.
func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := map[string]string{}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
