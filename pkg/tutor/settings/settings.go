// Package settings assembles the service configuration.
//
// Values are layered: built-in defaults, then the optional file named by
// KORLI_CONFIG (YAML or JSON), then environment variables. The result is
// validated as a whole, so one call reports every bad setting.
package settings

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/randalmurphal/korli/pkg/flowgraph/config"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/tutor/chat"
)

// EnvConfigFile names the optional settings file.
const EnvConfigFile = "KORLI_CONFIG"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Settings is the full service configuration.
type Settings struct {
	Server       Server      `yaml:"server"`
	LLM          LLM         `yaml:"llm"`
	Conversation chat.Config `yaml:"conversation" validate:"-"`
	Store        Store       `yaml:"store"`
	Log          Log         `yaml:"log"`
	Telemetry    Telemetry   `yaml:"telemetry"`
}

// Server configures the HTTP listener.
type Server struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address for Port.
func (s Server) Addr() string { return ":" + s.Port }

// LLM configures the model client. StrongModel answers the student;
// FastModel summarizes and corrects.
type LLM struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url" validate:"omitempty,url"`
	StrongModel    string        `yaml:"strong_model" validate:"required"`
	FastModel      string        `yaml:"fast_model" validate:"required"`
	MaxRetries     int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
}

// Store selects the checkpoint backend.
type Store struct {
	Driver      string `yaml:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Driver postgres"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text console"`
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	Tracing     bool   `yaml:"tracing"`
	Metrics     bool   `yaml:"metrics"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Server: Server{
			Port:            "8000",
			ReadTimeout:     30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		LLM: LLM{
			StrongModel:    "gpt-4o",
			FastModel:      "gpt-4o-mini",
			MaxRetries:     2,
			RequestTimeout: 60 * time.Second,
		},
		Conversation: chat.DefaultConfig(),
		Store:        Store{Driver: DriverMemory, SQLitePath: "korli.db"},
		Log:          Log{Level: "info", Format: "json"},
		Telemetry:    Telemetry{ServiceName: "korli"},
	}
}

// ChatConfig is the workflow configuration with the model names applied.
func (s Settings) ChatConfig() chat.Config {
	cfg := s.Conversation
	cfg.ResponseModel = s.LLM.StrongModel
	cfg.SummaryModel = s.LLM.FastModel
	cfg.CorrectionModel = s.LLM.FastModel
	return cfg
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads settings from the process environment.
func Load() (Settings, error) {
	return LoadFrom(os.Getenv(EnvConfigFile), os.LookupEnv)
}

// LoadFrom layers the file at path (skipped when empty) and the
// variables visible through lookup over the defaults.
func LoadFrom(path string, lookup LookupFunc) (Settings, error) {
	s := Default()
	if path != "" {
		file, err := config.FromFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: %w", err)
		}
		s.applyFile(file)
	}

	if err := s.applyEnv(lookup); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) applyFile(c config.Config) {
	srv := c.Sub("server")
	s.Server.Port = srv.String("port", s.Server.Port)
	s.Server.ReadTimeout = srv.Duration("read_timeout", s.Server.ReadTimeout)
	s.Server.IdleTimeout = srv.Duration("idle_timeout", s.Server.IdleTimeout)
	s.Server.ShutdownTimeout = srv.Duration("shutdown_timeout", s.Server.ShutdownTimeout)

	l := c.Sub("llm")
	s.LLM.APIKey = l.String("api_key", s.LLM.APIKey)
	s.LLM.BaseURL = l.String("base_url", s.LLM.BaseURL)
	s.LLM.StrongModel = l.String("strong_model", s.LLM.StrongModel)
	s.LLM.FastModel = l.String("fast_model", s.LLM.FastModel)
	s.LLM.MaxRetries = l.Int("max_retries", s.LLM.MaxRetries)
	s.LLM.RequestTimeout = l.Duration("request_timeout", s.LLM.RequestTimeout)

	conv := c.Sub("conversation")
	s.Conversation.MessagesBeforeSummary = conv.Int("messages_before_summary", s.Conversation.MessagesBeforeSummary)
	s.Conversation.MessagesToKeep = conv.Int("messages_to_keep", s.Conversation.MessagesToKeep)
	s.Conversation.CorrectResponses = conv.Bool("corrections_enabled", s.Conversation.CorrectResponses)

	st := c.Sub("store")
	s.Store.Driver = st.String("driver", s.Store.Driver)
	s.Store.SQLitePath = st.String("sqlite_path", s.Store.SQLitePath)
	s.Store.DatabaseURL = st.String("database_url", s.Store.DatabaseURL)

	lg := c.Sub("log")
	s.Log.Level = lg.String("level", s.Log.Level)
	s.Log.Format = lg.String("format", s.Log.Format)

	tel := c.Sub("telemetry")
	s.Telemetry.ServiceName = tel.String("service_name", s.Telemetry.ServiceName)
	s.Telemetry.Endpoint = tel.String("endpoint", s.Telemetry.Endpoint)
	s.Telemetry.Insecure = tel.Bool("insecure", s.Telemetry.Insecure)
	s.Telemetry.Tracing = tel.Bool("tracing", s.Telemetry.Tracing)
	s.Telemetry.Metrics = tel.Bool("metrics", s.Telemetry.Metrics)
}

// envReader applies variables and remembers the ones that do not parse.
type envReader struct {
	lookup LookupFunc
	errs   fgerrors.ValidationErrors
}

func (r *envReader) stringVar(key string, dst *string) {
	if v, ok := r.lookup(key); ok && v != "" {
		*dst = v
	}
}

func (r *envReader) intVar(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fgerrors.Validation(key, "not an integer: %q", v))
		return
	}
	*dst = n
}

func (r *envReader) boolVar(key string, dst *bool) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fgerrors.Validation(key, "not a boolean: %q", v))
		return
	}
	*dst = b
}

func (s *Settings) applyEnv(lookup LookupFunc) error {
	r := &envReader{lookup: lookup}

	r.stringVar("PORT", &s.Server.Port)
	r.stringVar("OPENAI_API_KEY", &s.LLM.APIKey)
	r.stringVar("OPENAI_BASE_URL", &s.LLM.BaseURL)
	r.stringVar("STRONG_MODEL", &s.LLM.StrongModel)
	r.stringVar("FAST_MODEL", &s.LLM.FastModel)
	r.intVar("MESSAGES_BEFORE_SUMMARY", &s.Conversation.MessagesBeforeSummary)
	r.intVar("MESSAGES_TO_KEEP", &s.Conversation.MessagesToKeep)
	r.boolVar("CORRECTIONS_ENABLED", &s.Conversation.CorrectResponses)
	r.stringVar("STORE_DRIVER", &s.Store.Driver)
	r.stringVar("SQLITE_PATH", &s.Store.SQLitePath)
	r.stringVar("DATABASE_URL", &s.Store.DatabaseURL)
	r.stringVar("LOG_LEVEL", &s.Log.Level)
	r.stringVar("LOG_FORMAT", &s.Log.Format)
	r.boolVar("OTEL_TRACING", &s.Telemetry.Tracing)
	r.boolVar("OTEL_METRICS", &s.Telemetry.Metrics)
	r.stringVar("OTEL_EXPORTER_OTLP_ENDPOINT", &s.Telemetry.Endpoint)

	// A DATABASE_URL alone is enough to pick postgres.
	if _, set := lookup("STORE_DRIVER"); !set && s.Store.DatabaseURL != "" && s.Store.Driver == DriverMemory {
		s.Store.Driver = DriverPostgres
	}

	return r.errs.OrNil()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and returns ValidationErrors naming the
// dotted settings path of each problem.
func (s Settings) Validate() error {
	var errs fgerrors.ValidationErrors

	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("settings: %w", err)
		}
		for _, fe := range fieldErrs {
			path := strings.TrimPrefix(fe.Namespace(), "Settings.")
			errs = append(errs, fgerrors.Validation(path, "failed %s check", fe.Tag()))
		}
	}

	if err := s.Conversation.Validate(); err != nil {
		var convErrs fgerrors.ValidationErrors
		if errors.As(err, &convErrs) {
			for _, e := range convErrs {
				errs = append(errs, fgerrors.Validation("conversation."+e.Field, "%s", e.Message))
			}
		} else {
			errs = append(errs, fgerrors.Validation("conversation", "%v", err))
		}
	}

	return errs.OrNil()
}
