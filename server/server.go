package server

import (
	"fmt"
	"time"

	"github.com/fitlooks/tryon/config"
	"github.com/fitlooks/tryon/internal/controllers"
	"github.com/fitlooks/tryon/internal/db"
	"github.com/fitlooks/tryon/internal/inference"
	"github.com/fitlooks/tryon/internal/mail"
	"github.com/fitlooks/tryon/internal/orchestrator"
	"github.com/fitlooks/tryon/internal/quota"
	"github.com/fitlooks/tryon/internal/storage"
	"github.com/fitlooks/tryon/logging"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "server"})

func Init(spec *config.Specification) {
	log := log.WithFields(logrus.Fields{"context": "server init"})

	e := InitRouter()

	// Establish the database connection.
	log.Info("establishing the database connection")
	conn, gormdb, err := db.Init("postgres", spec.DatabaseURI)
	if err != nil {
		log.Fatalf("service initialization failed: %s", err.Error())
	}

	// Set up the object store client.
	store, err := storage.NewStore(
		spec.CloudinaryCloudName,
		spec.CloudinaryAPIKey,
		spec.CloudinaryAPISecret,
		spec.UploadFolder,
	)
	if err != nil {
		log.Fatalf("service initialization failed: %s", err.Error())
	}

	// Set up the synthesis service client.
	synthesizer, err := inference.NewClient(inference.Config{
		BaseURL: spec.InferenceBaseURL,
		Timeout: time.Duration(spec.InferenceTimeout) * time.Second,
	})
	if err != nil {
		log.Fatalf("service initialization failed: %s", err.Error())
	}

	// Set up the verification code mailer.
	mailer := mail.NewMailer(spec.SMTPHost, spec.SMTPPort, spec.EmailSender, spec.EmailPassword)

	// Assemble the generation workflow.
	quotaManager := quota.NewManager(db.NewUserStore(gormdb), spec.DailyGenerationLimit)
	runner := orchestrator.New(quotaManager, synthesizer, store)

	s := controllers.Server{
		Router:     e,
		DB:         conn,
		GORMDB:     gormdb,
		Service:    "tryon",
		Title:      "Virtual Try-On",
		Version:    "1.0.0",
		DailyLimit: spec.DailyGenerationLimit,
		Runner:     runner,
		Quota:      quotaManager,
		Uploader:   store,
		Mailer:     mailer,
	}

	// Register the handlers.
	RegisterHandlers(s)

	log.Info("starting the service")
	log.Fatal(e.Start(fmt.Sprintf(":%d", spec.ListenPort)))
}

func RegisterHandlers(s controllers.Server) {

	// The base URL acts as a health check endpoint.
	s.Router.GET("/", s.RootHandler)

	// API version 1 endpoints.
	v1 := s.Router.Group("/v1")
	v1.GET("", s.V1RootHandler)

	// The one-time-code login flow.
	auth := v1.Group("/auth")
	auth.POST("/login", s.Login)
	auth.POST("/verify", s.VerifyCode)

	// Reports the user's current quota standing without mutating it.
	v1.GET("/quota", s.GetQuotaStatus)

	// Stages an image in the object store for one generation request.
	v1.POST("/uploads", s.UploadImage)

	// Runs the generation workflow.
	v1.POST("/generate", s.Generate)
}
