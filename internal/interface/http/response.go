package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		RequestID: requestIDFrom(c),
	})
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

func respondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		RequestID: requestIDFrom(c),
	})
}

// respondError maps a domain error onto a status code and writes it.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	message := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}

	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.String("code", code), logger.Err(err))
		if status == http.StatusInternalServerError {
			message = "an unexpected error occurred"
		}
	} else {
		log.Debug("request rejected", logger.String("code", code), logger.Err(err))
	}
	abortWithError(c, status, code, message)
}

// classify is ordered: specific sentinels first, then kinds.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrQuestNotPending):
		return http.StatusConflict, "quest_not_pending"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsStateTransition(err):
		return http.StatusConflict, "invalid_state"
	case shared.IsConflict(err):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, shared.ErrPersistence), errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, shared.ErrInvariantViolation):
		return http.StatusInternalServerError, "invariant_violation"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
