package mw

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"panel-backend/internal/apperr"
)

// ErrorObject is one entry of the error envelope.
type ErrorObject struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// Error codes and their default messages.
const (
	CodeNotFound          = "NotFoundHttpException"
	CodeForbidden         = "AccessDeniedHttpException"
	CodeUnauthenticated   = "AuthenticationException"
	CodeValidation        = "ValidationException"
	CodeDisplay           = "DisplayException"
	CodeTooManyRequests   = "TooManyRequestsHttpException"
	CodeHTTP              = "HttpException"
	DetailNotFound        = "The requested resource could not be located on the server."
	DetailForbidden       = "This action is unauthorized."
	DetailUnauthenticated = "Unauthenticated."
	DetailTooManyRequests = "Too Many Attempts."
	DetailServerError     = "An unexpected error was encountered while processing this request."
)

// NewErrorResponse builds an envelope holding a single error.
func NewErrorResponse(code string, status int, detail string) ErrorResponse {
	return ErrorResponse{Errors: []ErrorObject{{
		Code:   code,
		Status: strconv.Itoa(status),
		Detail: detail,
	}}}
}

// AbortWithError writes the envelope for err and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Errors renders the last error attached to the context, if the handler did
// not write a response itself.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status, body := Describe(last)
		if status >= http.StatusInternalServerError {
			log.WithFields(log.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			}).Errorf("Request failed: %v", last.Err)
		}
		c.JSON(status, body)
	}
}

// Describe maps an error onto its HTTP status and envelope.
func Describe(e *gin.Error) (int, ErrorResponse) {
	err := e.Err
	switch {
	case e.IsType(gin.ErrorTypeBind):
		return http.StatusUnprocessableEntity, NewErrorResponse(CodeValidation, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, NewErrorResponse(CodeNotFound, http.StatusNotFound, DetailNotFound)
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, NewErrorResponse(CodeForbidden, http.StatusForbidden, DetailForbidden)
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, NewErrorResponse(CodeUnauthenticated, http.StatusUnauthorized, DetailUnauthenticated)
	}
	if de, ok := apperr.AsDisplay(err); ok {
		return http.StatusBadRequest, NewErrorResponse(CodeDisplay, http.StatusBadRequest, de.Message)
	}
	return http.StatusInternalServerError, NewErrorResponse(CodeHTTP, http.StatusInternalServerError, DetailServerError)
}
