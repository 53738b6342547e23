package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echolog "github.com/spirosoik/echo-logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// RequestValidator adapts the validator library to echo's Validator interface.
type RequestValidator struct {
	validate *validator.Validate
}

// Validate validates a bound request body.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func InitRouter() *echo.Echo {
	log := log.WithFields(logrus.Fields{"context": "router"})

	// Create the web server.
	e := echo.New()

	// Set a custom logger.
	echoLogger := echolog.NewLoggerMiddleware(log)
	e.Logger = echoLogger

	// Add middleware.
	e.Use(otelecho.Middleware("tryon"))
	e.Use(echoLogger.Hook())
	e.Use(middleware.Recover())

	// Request body validation.
	e.Validator = &RequestValidator{validate: validator.New()}

	return e
}
