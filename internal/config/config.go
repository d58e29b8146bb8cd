package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"
)

// Config holds configuration options for the inlining process
type Config struct {
	// EmailClientOptimizations drops properties the target email client cannot render
	EmailClientOptimizations bool `yaml:"email_client_optimizations"`

	// TargetEmailClient selects the compatibility profile used for filtering and warnings
	TargetEmailClient string `yaml:"target_email_client" validate:"required,oneof=generic outlook outlook_desktop gmail gmail_web apple_mail mail_app outlook_online outlook_web"`

	// SkipTags lists elements that never receive inline styles (e.g. head, title)
	SkipTags []string `yaml:"skip_tags" validate:"dive,required"`

	// ReportUnusedSelectors makes validation report rules matching no element
	ReportUnusedSelectors bool `yaml:"report_unused_selectors"`

	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used by ConvertStyleToInline: every element is
// eligible and no property is filtered
func Default() Config {
	return Config{
		EmailClientOptimizations: false,     // keep the full cascade result
		TargetEmailClient:        "generic", // conservative warnings
		SkipTags:                 nil,
		ReportUnusedSelectors:    true,
		Logging: LoggingConfig{
			Level: "normal",
		},
	}
}

// Validate checks field constraints
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads the configuration file at path and superimposes its values on top of the
// defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes YAML on top of base and validates the result
func Parse(data []byte, base Config) (Config, error) {
	// Only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if err := base.Validate(); err != nil {
		return Config{}, err
	}
	return base, nil
}

// Dump serializes the configuration as YAML
func Dump(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return data, nil
}
