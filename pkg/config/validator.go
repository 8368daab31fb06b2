package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ConfigValidator provides a fluent interface for validating configuration
// values. It collects all validation errors rather than failing on the
// first one, so a misconfigured file reports every problem at once.
type ConfigValidator struct {
	errors []error
	name   string
}

// NewConfigValidator creates a validator that prefixes every error with
// the given config struct name.
func NewConfigValidator(name string) *ConfigValidator {
	return &ConfigValidator{name: name}
}

func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: required field is empty", cv.name, field))
	}
	return cv
}

func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d must be positive", cv.name, field, value))
	}
	return cv
}

func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %q must be one of %v", cv.name, field, value, allowed))
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// Validate returns a combined error describing every collected problem,
// or nil if there were none.
func (cv *ConfigValidator) Validate() error {
	if len(cv.errors) == 0 {
		return nil
	}
	if len(cv.errors) == 1 {
		return cv.errors[0]
	}
	return fmt.Errorf("%s validation failed with %d errors: %v", cv.name, len(cv.errors), cv.errors)
}

var structValidator = validator.New()

// Validate checks a KernelConfig two ways: go-playground/validator's
// struct tags catch simple scalar bounds (required fields, port syntax,
// enum membership), then ConfigValidator catches the cross-field rules
// those tags can't express.
func Validate(cfg KernelConfig) error {
	if err := structValidator.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cv := NewConfigValidator("KernelConfig")
	cv.Required("DataDir", cfg.DataDir)

	if cfg.Journal.Mode == JournalModeNone {
		cv.When(cfg.Journal.SnapshotDir != "", func(cv *ConfigValidator) {
			cv.errors = append(cv.errors, fmt.Errorf("%s.Journal: snapshot_dir requires a journal mode other than %q", cv.name, JournalModeNone))
		})
	}

	cv.When(cfg.Journal.S3Bucket != "" && cfg.Journal.S3Prefix == "", func(cv *ConfigValidator) {
		cv.errors = append(cv.errors, fmt.Errorf("%s.Journal: s3_prefix required when s3_bucket is set", cv.name))
	})

	cv.When(cfg.Metrics.Enabled, func(cv *ConfigValidator) {
		cv.Required("Metrics.ListenAddr", cfg.Metrics.ListenAddr)
	})

	cv.When(cfg.Subscribe.Enabled, func(cv *ConfigValidator) {
		cv.Positive("Subscribe.MaxSubscribers", cfg.Subscribe.MaxSubscribers)
	})

	return cv.Validate()
}
