package controllers

import (
	"net/http"

	"github.com/fitlooks/tryon/internal/httpmodel"
	"github.com/fitlooks/tryon/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// swagger:route GET /v1/quota quota getQuotaStatus
//
// Get Quota Status
//
// Reports whether the user could run a generation now and how many generations they
// have left in the current window. This endpoint is read-only: a lapsed window is
// reported as a full allowance but the reset itself is only persisted on the
// generation path.
//
// responses:
//   200: quotaStatus

// GetQuotaStatus handles requests for a user's current quota standing.
func (s Server) GetQuotaStatus(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "quota status"})

	context := ctx.Request().Context()

	// Callers without an identity are presumed to have a full allowance.
	email := ctx.QueryParam("email")
	if email == "" {
		return model.Success(ctx, httpmodel.QuotaStatus{Allowed: true, Remaining: s.DailyLimit}, http.StatusOK)
	}

	remaining, err := s.Quota.PeekRemaining(context, email)
	if err != nil {
		// The status display degrades to a full allowance rather than failing.
		log.WithFields(logrus.Fields{"user": email}).Errorf("unable to look up the quota: %s", err.Error())
		return model.Success(ctx, httpmodel.QuotaStatus{Allowed: true, Remaining: s.DailyLimit}, http.StatusOK)
	}

	return model.Success(ctx, httpmodel.QuotaStatus{Allowed: remaining > 0, Remaining: remaining}, http.StatusOK)
}
