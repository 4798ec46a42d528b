package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/logging"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// publicErrors is checked in order. Clients only ever see these fixed messages.
var publicErrors = []struct {
	sentinel error
	status   int
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrInsufficientStock, http.StatusUnprocessableEntity},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
}

// classify returns the status code and the client-facing message for err.
func classify(err error) (int, string) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusUnprocessableEntity, fmt.Sprintf("%s for product %s", domain.ErrInsufficientStock, stockErr.ProductID)
	}

	for _, pe := range publicErrors {
		if errors.Is(err, pe.sentinel) {
			return pe.status, pe.sentinel.Error()
		}
	}

	return http.StatusInternalServerError, "internal error"
}

// writeError responds with a fixed message per domain error. The full error chain is only logged.
func writeError(c *gin.Context, err error) {
	status, msg := classify(err)

	logger := logging.FromContext(c.Request.Context())
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s[%s] is not a valid id: %w", name, c.Param(name), domain.ErrInvalidRequest)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("malformed body: %v: %w", err, domain.ErrInvalidRequest)
	}
	return nil
}
