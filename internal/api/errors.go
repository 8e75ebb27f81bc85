package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/logging"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrConvergenceFailure),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrPayloadTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errors.ErrRiskBlocked):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes {"detail": msg}. Internal errors are logged and their text
// is not echoed to the client.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		logger := logging.FromContext(c.Request.Context())
		logger.Error().Err(err).Msg("Request failed")
		detail = "internal server error"
	}
	var nf *errors.DataError
	if status == http.StatusNotFound && errors.As(err, &nf) {
		detail = "not found"
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// badRequest reports a body that could not be decoded or bound.
func badRequest(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "request body too large"})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
}
