package web

import (
	"net/http"

	"github.com/gomantics/gitdesk/api/auth"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context wraps echo.Context with additional fields
type Context struct {
	echo.Context
	L *zap.Logger
}

// HandlerFunc is a handler function that uses our custom Context
type HandlerFunc func(ctx Context) error

// Wrap wraps a handler function to use our custom context. Authenticated
// requests get the caller's id on the logger.
func Wrap(h HandlerFunc, l *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)

		fields := []zap.Field{zap.String("request_id", rid)}
		if claims, ok := auth.FromContext(c); ok {
			fields = append(fields, zap.Int64("user_id", claims.UserID))
		}

		ctx := Context{
			Context: c,
			L:       l.With(fields...),
		}

		return h(ctx)
	}
}

// UserID returns the authenticated caller, 0 when the route is public.
func (c Context) UserID() int64 {
	if claims, ok := auth.FromContext(c.Context); ok {
		return claims.UserID
	}
	return 0
}

// Username returns the authenticated caller's name.
func (c Context) Username() string {
	if claims, ok := auth.FromContext(c.Context); ok {
		return claims.Username
	}
	return ""
}

// Error sends an error response
func (c Context) Error(status int, message string) error {
	return c.JSON(status, map[string]string{
		"error": message,
	})
}

// BadRequest sends a 400 error
func (c Context) BadRequest(message string) error {
	return c.Error(http.StatusBadRequest, message)
}

func (c Context) Unauthorized(message string) error {
	return c.Error(http.StatusUnauthorized, message)
}

// NotFound sends a 404 error
func (c Context) NotFound(message string) error {
	return c.Error(http.StatusNotFound, message)
}

func (c Context) Conflict(message string) error {
	return c.Error(http.StatusConflict, message)
}

// RequestTooLarge sends a 413 error
func (c Context) RequestTooLarge(message string) error {
	return c.Error(http.StatusRequestEntityTooLarge, message)
}

// InternalError sends a 500 error
func (c Context) InternalError(message string) error {
	return c.Error(http.StatusInternalServerError, message)
}

// BadGateway sends a 502 error, used when a remote git host fails
func (c Context) BadGateway(message string) error {
	return c.Error(http.StatusBadGateway, message)
}

// OK sends a 200 response with data
func (c Context) OK(data any) error {
	return c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with data
func (c Context) Created(data any) error {
	return c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response
func (c Context) NoContent() error {
	return c.Context.NoContent(http.StatusNoContent)
}
