package controllers

import (
	"context"
	"database/sql"
	"io"
	"net/http"

	"github.com/fitlooks/tryon/internal/model"
	"github.com/fitlooks/tryon/internal/orchestrator"
	"github.com/fitlooks/tryon/internal/storage"
	"github.com/fitlooks/tryon/logging"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "controllers"})

// GenerationRunner runs the generation workflow.
type GenerationRunner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// QuotaReader reports a user's remaining allowance without mutating it.
type QuotaReader interface {
	PeekRemaining(ctx context.Context, email string) (int, error)
}

// AssetUploader stages an uploaded image in the object store.
type AssetUploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*storage.Asset, error)
}

// CodeMailer delivers one-time verification codes.
type CodeMailer interface {
	SendVerificationCode(toEmail, code string) error
}

// Server defines the REST API of the tryon service.
type Server struct {
	Router     *echo.Echo
	DB         *sql.DB
	GORMDB     *gorm.DB
	Service    string
	Title      string
	Version    string
	DailyLimit int

	Runner   GenerationRunner
	Quota    QuotaReader
	Uploader AssetUploader
	Mailer   CodeMailer
}

// ServiceInfo describes the service in the root endpoint responses.
//
// swagger:model
type ServiceInfo struct {
	Service     string `json:"service"`
	Title       string `json:"title"`
	Version     string `json:"version"`
	APIVersion  string `json:"api_version,omitempty"`
	Description string `json:"description,omitempty"`
}

// RootHandler handles the root endpoint, which doubles as a health check.
func (s Server) RootHandler(ctx echo.Context) error {
	return model.Success(ctx, ServiceInfo{
		Service: s.Service,
		Title:   s.Title,
		Version: s.Version,
	}, http.StatusOK)
}

// V1RootHandler handles the root endpoint of version 1 of the API.
func (s Server) V1RootHandler(ctx echo.Context) error {
	return model.Success(ctx, ServiceInfo{
		Service:    s.Service,
		Title:      s.Title,
		Version:    s.Version,
		APIVersion: "1.0.0",
	}, http.StatusOK)
}
