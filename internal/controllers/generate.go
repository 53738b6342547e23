package controllers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/fitlooks/tryon/internal/httpmodel"
	"github.com/fitlooks/tryon/internal/inference"
	"github.com/fitlooks/tryon/internal/model"
	"github.com/fitlooks/tryon/internal/orchestrator"
	"github.com/fitlooks/tryon/internal/quota"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// httpStatusCode maps a generation workflow error to the status code reported to the
// caller.
func httpStatusCode(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, orchestrator.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, quota.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// generationFailureMessage builds the message reported to the caller for a failed
// generation. Upstream failures surface only the upstream status; the response body
// is logged server-side.
func generationFailureMessage(err error) string {
	var apiErr *inference.APIError
	switch {
	case errors.Is(err, orchestrator.ErrAuthenticationRequired):
		return "authentication required"
	case errors.Is(err, orchestrator.ErrMissingInput):
		return "please provide both subject and garment images"
	case errors.Is(err, orchestrator.ErrQuotaExceeded):
		return "quota exceeded: you have used all of your tries for today"
	case errors.Is(err, quota.ErrUserNotFound):
		return "user not found"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("generation failed: %d", apiErr.StatusCode)
	default:
		return "connection error"
	}
}

// swagger:route POST /v1/generate generation generate
//
// Generate a Try-On Image
//
// Runs the generation workflow for the authenticated user: checks the quota, calls
// the synthesis service, commits the quota on success, and releases any images
// staged for the request regardless of the outcome.
//
// responses:
//   200: generateResponse
//   400: badRequestResponse
//   401: unauthorizedResponse
//   403: forbiddenResponse
//   404: notFoundResponse
//   500: internalServerErrorResponse

// Generate handles generation requests.
func (s Server) Generate(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "generate"})

	context := ctx.Request().Context()

	var request httpmodel.GenerateRequest
	if err := ctx.Bind(&request); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"user": request.Email})

	result, err := s.Runner.Run(context, orchestrator.Request{
		Email:           request.Email,
		SubjectURL:      request.SubjectURL,
		GarmentURL:      request.GarmentURL,
		SubjectPublicID: request.SubjectPublicID,
		GarmentPublicID: request.GarmentPublicID,
	})
	if err != nil {
		var apiErr *inference.APIError
		if errors.As(err, &apiErr) {
			// The upstream response body stays server-side.
			log.WithFields(logrus.Fields{"status": apiErr.StatusCode}).Errorf("synthesis service error: %s", apiErr.Body)
		} else {
			log.Errorf("generation failed: %s", err.Error())
		}
		return model.Error(ctx, generationFailureMessage(err), httpStatusCode(err))
	}

	image := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(result.Image))

	return model.Success(ctx, httpmodel.GenerateResponse{
		Success:   true,
		Image:     image,
		Remaining: result.Remaining,
	}, http.StatusOK)
}
