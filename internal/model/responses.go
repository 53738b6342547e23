package model

import "github.com/labstack/echo/v4"

// ErrorResponse is the body returned for any failed request.
//
// swagger:model
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Error sends an error response to the caller.
func Error(ctx echo.Context, msg string, code int) error {
	return ctx.JSON(code, ErrorResponse{Success: false, Message: msg})
}

// Success sends a success response to the caller.
func Success(ctx echo.Context, body interface{}, code int) error {
	return ctx.JSON(code, body)
}
