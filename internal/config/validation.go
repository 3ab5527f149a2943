package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"yqhp/aspect/pkg/aspect"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateServerConfig(&cfg.Server)
	v.validateLogConfig(cfg)
	if cfg.Script.Timeout < 0 {
		v.addError("script.timeout", "script timeout must be non-negative")
	}
	for i := range cfg.Aspects {
		v.validateAspectConfig(i, &cfg.Aspects[i])
	}

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServerConfig(cfg *ServerConfig) {
	if cfg.Address == "" {
		v.addError("server.address", "address is required")
	} else if !isValidAddress(cfg.Address) {
		v.addError("server.address", "invalid address format, expected host:port or :port")
	}

	if cfg.ReadTimeout < 0 {
		v.addError("server.read_timeout", "read timeout must be non-negative")
	}
	if cfg.WriteTimeout < 0 {
		v.addError("server.write_timeout", "write timeout must be non-negative")
	}
	if cfg.ReadTimeout > 0 && cfg.ReadTimeout < time.Second {
		v.addError("server.read_timeout", "read timeout should be at least 1 second")
	}
	if cfg.WriteTimeout > 0 && cfg.WriteTimeout < time.Second {
		v.addError("server.write_timeout", "write timeout should be at least 1 second")
	}
}

func (v *Validator) validateLogConfig(cfg *Config) {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if cfg.Log.Level == "" {
		v.addError("log.level", "log level is required")
	} else if !validLevels[strings.ToLower(cfg.Log.Level)] {
		v.addError("log.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", cfg.Log.Level))
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if cfg.Log.Format != "" && !validFormats[strings.ToLower(cfg.Log.Format)] {
		v.addError("log.format", fmt.Sprintf("invalid log format '%s', must be one of: json, console", cfg.Log.Format))
	}

	switch strings.ToLower(cfg.Log.Output) {
	case "", "stdout":
	case "file", "both":
		if cfg.Log.FilePath == "" {
			v.addError("log.file_path", "file path is required when output is file or both")
		}
	default:
		v.addError("log.output", fmt.Sprintf("invalid log output '%s', must be one of: stdout, file, both", cfg.Log.Output))
	}
}

func (v *Validator) validateAspectConfig(i int, cfg *AspectConfig) {
	prefix := fmt.Sprintf("aspects[%d]", i)

	if cfg.Controller == "" {
		v.addError(prefix+".controller", "controller is required")
	}
	if !aspect.ValidPhase(cfg.Phase) {
		v.addError(prefix+".phase", fmt.Sprintf("invalid phase '%s', must be one of: before, after, wrap", cfg.Phase))
	}
	if cfg.Script == "" && cfg.File == "" {
		v.addError(prefix+".script", "script or file is required")
	}
	if cfg.Script != "" && cfg.File != "" {
		v.addError(prefix+".file", "script and file are mutually exclusive")
	}
	for _, action := range cfg.Actions {
		if strings.TrimSpace(action) == "" {
			v.addError(prefix+".actions", "action names must not be blank")
			break
		}
	}
	if cfg.Timeout < 0 {
		v.addError(prefix+".timeout", "timeout must be non-negative")
	}
}

// isValidAddress checks if the address is a valid host:port or :port format.
func isValidAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return false
	}
	if host == "" || net.ParseIP(host) != nil {
		return true
	}
	return isValidHostname(host)
}

func isValidHostname(host string) bool {
	if len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for _, c := range label {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}

// ValidateConfig is a convenience function to validate a configuration.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
