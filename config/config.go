package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

var ServiceName = "tryon"

const (
	// DefaultConfigPath is the path to the config file that is used when no other path is given.
	DefaultConfigPath = "/etc/tryon/config.yaml"

	// DefaultDotEnvPath is the path to the dotenv file that is used when no other path is given.
	DefaultDotEnvPath = ".env"

	// DefaultDailyGenerationLimit is the number of generations a user may run per rolling 24-hour window.
	DefaultDailyGenerationLimit = 3

	// DefaultInferenceTimeoutSeconds bounds the synchronous call to the try-on synthesis service,
	// which can take more than a minute to produce an image.
	DefaultInferenceTimeoutSeconds = 300

	// DefaultListenPort is the port the API server listens on.
	DefaultListenPort = 9000
)

// Specification defines the configuration settings for the tryon service.
type Specification struct {
	DatabaseURI          string
	ListenPort           int
	RunSchemaMigrations  bool
	ReinitDB             bool
	InferenceBaseURL     string
	InferenceTimeout     int
	DailyGenerationLimit int
	CloudinaryCloudName  string
	CloudinaryAPIKey     string
	CloudinaryAPISecret  string
	UploadFolder         string
	SMTPHost             string
	SMTPPort             int
	EmailSender          string
	EmailPassword        string
}

// envTransform maps an environment variable name like TRYON_DATABASE_URI to a koanf key
// like database.uri.
func envTransform(prefix string) func(string) string {
	return func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, prefix)), "_", ".", -1)
	}
}

// LoadConfig loads the configuration for the tryon service. Values come from the YAML
// configuration file, the dotenv file, and prefixed environment variables, with the
// environment taking precedence.
func LoadConfig(envPrefix, configPath, dotEnvPath string) (*Specification, error) {
	wrapMsg := "unable to load the configuration"

	k := koanf.New(".")

	// Load the configuration file if it exists. The environment alone is enough to run.
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
	}

	// Load the dotenv file into the environment if it exists.
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
	}

	// Load the settings from the environment.
	if err := k.Load(env.Provider(envPrefix, ".", envTransform(envPrefix)), nil); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	var s Specification

	s.DatabaseURI = k.String("database.uri")
	if s.DatabaseURI == "" {
		return nil, errors.New("database.uri or TRYON_DATABASE_URI must be set")
	}

	s.ListenPort = k.Int("listen.port")
	if s.ListenPort == 0 {
		s.ListenPort = DefaultListenPort
	}

	s.RunSchemaMigrations = k.Bool("run.schema.migrations")
	s.ReinitDB = k.Bool("reinit.db")

	s.InferenceBaseURL = k.String("inference.url")
	if s.InferenceBaseURL == "" {
		return nil, errors.New("inference.url or TRYON_INFERENCE_URL must be set")
	}

	s.InferenceTimeout = k.Int("inference.timeout")
	if s.InferenceTimeout == 0 {
		s.InferenceTimeout = DefaultInferenceTimeoutSeconds
	}

	s.DailyGenerationLimit = k.Int("quota.daily.limit")
	if s.DailyGenerationLimit == 0 {
		s.DailyGenerationLimit = DefaultDailyGenerationLimit
	}

	s.CloudinaryCloudName = k.String("cloudinary.cloud.name")
	s.CloudinaryAPIKey = k.String("cloudinary.api.key")
	s.CloudinaryAPISecret = k.String("cloudinary.api.secret")
	if s.CloudinaryCloudName == "" || s.CloudinaryAPIKey == "" || s.CloudinaryAPISecret == "" {
		return nil, errors.New("the cloudinary cloud name, API key, and API secret must all be set")
	}

	s.UploadFolder = k.String("cloudinary.upload.folder")
	if s.UploadFolder == "" {
		s.UploadFolder = "tryon-uploads"
	}

	s.SMTPHost = k.String("smtp.host")
	if s.SMTPHost == "" {
		s.SMTPHost = "smtp.gmail.com"
	}

	s.SMTPPort = k.Int("smtp.port")
	if s.SMTPPort == 0 {
		s.SMTPPort = 587
	}

	s.EmailSender = k.String("email.sender")
	s.EmailPassword = k.String("email.password")

	return &s, nil
}
