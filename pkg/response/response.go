package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/interntrack/backend/pkg/apperrors"
)

// Body is the standard API response envelope.
type Body struct {
	Success         bool        `json:"success"`
	Message         string      `json:"message,omitempty"`
	Data            interface{} `json:"data,omitempty"`
	Error           string      `json:"error,omitempty"`
	UpgradeRequired bool        `json:"upgrade_required,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// OKMessage sends a 200 JSON response with a message and optional data.
func OKMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Message: message, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// QuotaExceeded sends 403 with the upgrade-required flag set.
func QuotaExceeded(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err, UpgradeRequired: true})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps an apperrors type to its HTTP status and envelope. Unrecognized
// errors become a generic 500 without leaking internals.
func Error(c *gin.Context, err error) {
	var (
		validation *apperrors.ValidationError
		authz      *apperrors.AuthorizationError
		notFound   *apperrors.NotFoundError
		conflict   *apperrors.StateConflictError
		quota      *apperrors.QuotaExceededError
		storage    *apperrors.StorageBackendError
	)
	switch {
	case errors.As(err, &validation):
		BadRequest(c, validation.Error())
	case errors.As(err, &authz):
		Forbidden(c, authz.Error())
	case errors.As(err, &notFound):
		NotFound(c, notFound.Error())
	case errors.As(err, &conflict):
		Conflict(c, conflict.Error())
	case errors.As(err, &quota):
		QuotaExceeded(c, quota.Error())
	case errors.As(err, &storage):
		Internal(c, "storage backend unavailable")
	default:
		Internal(c, "internal server error")
	}
}
