// Package handlers implements the HTTP API over the pipeline services.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps application error codes onto HTTP statuses.  Unknown codes
// fall through to 500 with the message masked.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeJobNotFound,
		errors.ErrCodeLexiconEntryNotFound, errors.ErrCodeTagsetNodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeValidation, errors.ErrCodeBadRequest,
		errors.ErrCodeLexiconEntryMalformed, errors.ErrCodeLexiconSourceUnknown,
		errors.ErrCodePOSNotationUnknown, errors.ErrCodePropagationSeedUnclassified:
		return http.StatusBadRequest
	case errors.ErrCodeConflict, errors.ErrCodeJobAlreadyTerminal,
		errors.ErrCodeJobInvalidTransition, errors.ErrCodeJobChunkRegression:
		return http.StatusConflict
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeServiceUnavailable, errors.ErrCodeSynonymGraphUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Code: code.String(), Message: message})
}

func parseLimit(c *gin.Context, fallback, ceiling int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return min(limit, ceiling)
}
