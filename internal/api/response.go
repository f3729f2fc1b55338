package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jansmig/magmamath/internal/users"
	"github.com/Jansmig/magmamath/pkg/logger"
	"github.com/Jansmig/magmamath/pkg/models"
)

// Response is the envelope of every successful single-resource response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"User retrieved successfully"`
	Data    models.User `json:"data"`
}

// ListResponse is the envelope of GET /users.
type ListResponse struct {
	Success bool            `json:"success" example:"true"`
	Message string          `json:"message" example:"Users retrieved successfully"`
	Data    []models.User   `json:"data"`
	Meta    models.PageMeta `json:"meta"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"User not found"`
}

func respond(c *gin.Context, status int, message string, user models.User) {
	c.JSON(status, Response{Success: true, Message: message, Data: user})
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Ctx(c.Request.Context()).Error().Err(err).Str("component", "API").Msg("request failed")
	}
	c.JSON(status, ErrorResponse{Success: false, Message: users.Message(err)})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, users.ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrBadRequest), errors.Is(err, users.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
