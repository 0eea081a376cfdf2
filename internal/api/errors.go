package api

import (
	"errors"
	"net/http"

	"github.com/celerix-dev/celerix-pantry/internal/cloudsync"
	"github.com/celerix-dev/celerix-pantry/internal/engine"
	"github.com/celerix-dev/celerix-pantry/internal/history"
	"github.com/celerix-dev/celerix-pantry/internal/ledger"
	"github.com/celerix-dev/celerix-pantry/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	var te *sdk.TransportError
	switch {
	case errors.Is(err, engine.ErrNoSession),
		errors.Is(err, engine.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, engine.ErrAlreadyExists),
		errors.Is(err, ledger.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, engine.ErrAccountNotFound),
		errors.Is(err, history.ErrVersionNotFound),
		errors.Is(err, cloudsync.ErrNoRemoteData):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidPrice),
		errors.Is(err, ledger.ErrInvalidThreshold),
		errors.Is(err, ledger.ErrInvalidExchangeRate),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrUnknownTag),
		errors.Is(err, engine.ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(err, cloudsync.ErrNotConfigured):
		return http.StatusPreconditionFailed
	case errors.As(err, &te):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var te *sdk.TransportError
	if errors.As(err, &te) {
		body["remote_status"] = te.StatusCode
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error(c.Request.Context(), "request failed", err)
	}
	c.JSON(status, body)
}
