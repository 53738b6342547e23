package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fitlooks/tryon/internal/db"
	"github.com/fitlooks/tryon/internal/httpmodel"
	"github.com/fitlooks/tryon/internal/model"
	"github.com/fitlooks/tryon/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// swagger:route POST /v1/auth/login auth login
//
// Begin Login
//
// Generates a one-time verification code, emails it to the user, and records the
// login attempt. New users are created with a full generation allowance; for
// existing users the quota fields are left untouched.
//
// responses:
//   200: messageResponse
//   400: badRequestResponse
//   500: internalServerErrorResponse

// Login handles requests to begin the login flow.
func (s Server) Login(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "login"})

	context := ctx.Request().Context()

	var request httpmodel.LoginRequest
	if err := ctx.Bind(&request); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err := ctx.Validate(&request); err != nil {
		return model.Error(ctx, "email and name are required", http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"user": request.Email})

	// Generate the one-time code.
	code, err := utils.GenerateVerificationCode()
	if err != nil {
		log.Errorf("unable to generate a verification code: %s", err.Error())
		return model.Error(ctx, "server error", http.StatusInternalServerError)
	}

	// Deliver the code. The code isn't persisted unless delivery succeeds.
	if err := s.Mailer.SendVerificationCode(request.Email, code); err != nil {
		log.Errorf("unable to send the verification code: %s", err.Error())
		return model.Error(ctx, "unable to send the verification email", http.StatusInternalServerError)
	}

	// Record the login attempt.
	if err := db.UpsertLogin(context, s.GORMDB, request.Email, request.Name, code, time.Now()); err != nil {
		log.Errorf("unable to record the login attempt: %s", err.Error())
		return model.Error(ctx, "server error", http.StatusInternalServerError)
	}

	log.Info("sent a verification code")

	return model.Success(ctx, httpmodel.MessageResponse{Success: true, Message: "Code sent!"}, http.StatusOK)
}

// swagger:route POST /v1/auth/verify auth verifyCode
//
// Verify Login Code
//
// Compares a submitted one-time code against the most recently issued code for the
// user.
//
// responses:
//   200: messageResponse
//   400: badRequestResponse
//   401: unauthorizedResponse
//   404: notFoundResponse
//   500: internalServerErrorResponse

// VerifyCode handles requests to verify a one-time code.
func (s Server) VerifyCode(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "verify code"})

	context := ctx.Request().Context()

	var request httpmodel.VerifyRequest
	if err := ctx.Bind(&request); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err := ctx.Validate(&request); err != nil {
		return model.Error(ctx, "email and code are required", http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"user": request.Email})

	user, err := db.GetUserByEmail(context, s.GORMDB, request.Email)
	if err != nil {
		log.Errorf("unable to look up the user: %s", err.Error())
		return model.Error(ctx, "server error", http.StatusInternalServerError)
	}
	if user == nil {
		return model.Error(ctx, "user not found", http.StatusNotFound)
	}

	if strings.TrimSpace(user.VerificationCode) != strings.TrimSpace(request.Code) {
		log.Info("rejected an invalid verification code")
		return model.Error(ctx, "invalid code", http.StatusUnauthorized)
	}

	log.Info("verified the login code")

	return model.Success(ctx, httpmodel.MessageResponse{Success: true, Message: "Verified!"}, http.StatusOK)
}
