// Package config loads the countingsm settings from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig is returned when a parsed value is outside its allowed set
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the runtime settings of the countingsm command.
type Config struct {
	LogLevel  string `env:"STATEMACHINE_LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	LogFormat string `env:"STATEMACHINE_LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	// Name is the machine name used in logs and graph exports.
	Name string `env:"STATEMACHINE_NAME" envDefault:"CountingSM" validate:"required"`
	// Metrics enables the Prometheus observer.
	Metrics bool `env:"STATEMACHINE_METRICS" envDefault:"false"`
	// Trace enables the OpenTelemetry observer, exporting spans to stderr.
	Trace bool `env:"STATEMACHINE_TRACE" envDefault:"false"`
}

var validate = validator.New()

// Load reads the optional .env files and parses the environment into a Config.
func Load(files ...string) (Config, error) {
	// Ignore errors - the .env file might not exist and that's ok
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
