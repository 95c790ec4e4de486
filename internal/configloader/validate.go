package configloader

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yaklabco/forummark/pkg/config"
	"github.com/yaklabco/forummark/pkg/render"
)

// ValidationError is a configuration validation failure.
type ValidationError struct {
	// Field is the dotted path of the field (e.g. "fetch.timeout").
	Field string

	// Value is the offending value.
	Value any

	// Message describes the problem.
	Message string

	// FilePath is the config file the value came from, if known.
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Valid reports whether there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// HasWarnings reports whether there are warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *ValidationResult) fail(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// knownColorModes lists valid output.color values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownColorModes = map[string]bool{
	"auto":   true,
	"always": true,
	"never":  true,
}

// knownLogLevels lists valid log_level values.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks a configuration. Zero values are accepted so that
// partial file configs can be validated before merging.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	validateURLTemplate(result, "markup.formula_url", cfg.Markup.FormulaURL, "{tex}")
	validateURLTemplate(result, "markup.attachment_url", cfg.Markup.AttachmentURL, "{id}")
	if cfg.Markup.BaseURL != "" {
		if u, err := url.Parse(cfg.Markup.BaseURL); err != nil || !u.IsAbs() {
			result.fail("markup.base_url", cfg.Markup.BaseURL, "base URL must be absolute")
		}
	}
	if cfg.Markup.MaxDepth < 0 {
		result.fail("markup.max_depth", cfg.Markup.MaxDepth, "max depth must be >= 0")
	}

	if cfg.Fetch.Timeout < 0 {
		result.fail("fetch.timeout", cfg.Fetch.Timeout, "timeout must be >= 0")
	}
	if cfg.Fetch.Retries != nil && *cfg.Fetch.Retries < 0 {
		result.fail("fetch.retries", *cfg.Fetch.Retries, "retries must be >= 0")
	}
	if cfg.Fetch.RetryWait < 0 {
		result.fail("fetch.retry_wait", cfg.Fetch.RetryWait, "retry wait must be >= 0")
	}
	if cfg.Fetch.MaxBytes < 0 {
		result.fail("fetch.max_bytes", cfg.Fetch.MaxBytes, "max bytes must be >= 0")
	}

	if cfg.Images.MaxWidth < 0 {
		result.fail("images.max_width", cfg.Images.MaxWidth, "max width must be >= 0")
	}
	if cfg.Images.InlineMaxHeight < 0 {
		result.fail("images.inline_max_height", cfg.Images.InlineMaxHeight, "inline max height must be >= 0")
	}

	if cfg.Output.Format != "" && !render.Format(cfg.Output.Format).IsValid() {
		result.fail("output.format", cfg.Output.Format,
			"invalid format %q; must be one of: text, html, json", cfg.Output.Format)
	}
	if cfg.Output.Color != "" && !knownColorModes[cfg.Output.Color] {
		result.fail("output.color", cfg.Output.Color,
			"invalid color mode %q; must be one of: auto, always, never", cfg.Output.Color)
	}
	if cfg.Output.Width < 0 {
		result.fail("output.width", cfg.Output.Width, "width must be >= 0")
	}
	if cfg.MinifyEnabled() && cfg.Output.Format != "" && cfg.Output.Format != string(render.FormatHTML) {
		result.warn("output.minify", true, "minify only applies to html output")
	}

	if cfg.Jobs < 0 {
		result.fail("jobs", cfg.Jobs, "jobs must be >= 0 (0 means default)")
	}
	if cfg.LogLevel != "" && !knownLogLevels[strings.ToLower(cfg.LogLevel)] {
		result.fail("log_level", cfg.LogLevel,
			"invalid log level %q; must be one of: debug, info, warn, error", cfg.LogLevel)
	}

	return result
}

func validateURLTemplate(result *ValidationResult, field, tmpl, placeholder string) {
	if tmpl == "" {
		return
	}
	if !strings.Contains(tmpl, placeholder) {
		result.warn(field, tmpl, "template has no %s placeholder", placeholder)
	}
	probe := strings.NewReplacer("{tex}", "x", "{id}", "1", "{filename}", "f", "{secret}", "s").Replace(tmpl)
	if u, err := url.Parse(probe); err != nil || !u.IsAbs() {
		result.fail(field, tmpl, "template must be an absolute URL")
	}
}

// ValidateWithFile validates cfg and records filePath on each finding.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}
