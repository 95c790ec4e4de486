// Package config defines the forummark configuration types.
// These are plain data structures; discovery and merging live in the loader.
package config

import "time"

// Defaults.
const (
	DefaultMaxDepth        = 32
	DefaultFetchTimeout    = 15 * time.Second
	DefaultFetchRetries    = 2
	DefaultFetchRetryWait  = 500 * time.Millisecond
	DefaultFetchMaxBytes   = 8 << 20
	DefaultMaxImageWidth   = 640
	DefaultInlineMaxHeight = 48
	DefaultJobs            = 4
	DefaultWidth           = 80
	DefaultLogLevel        = "info"
	DefaultFormat          = "text"
	DefaultColor           = "auto"
)

// MarkupConfig configures parsing.
type MarkupConfig struct {
	// FormulaURL is the formula server template. {tex} is replaced by the
	// query-escaped LaTeX source.
	FormulaURL string `yaml:"formula_url"`

	// AttachmentURL is the attachment template with {id}, {filename} and
	// {secret} placeholders.
	AttachmentURL string `yaml:"attachment_url"`

	// BaseURL resolves relative [img] sources.
	BaseURL string `yaml:"base_url"`

	// MaxDepth bounds quote and table-cell nesting.
	MaxDepth int `yaml:"max_depth"`
}

// FetchConfig configures remote fetches.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Retries   *int          `yaml:"retries"`
	RetryWait time.Duration `yaml:"retry_wait"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// ImageConfig configures resolved image scaling.
type ImageConfig struct {
	// MaxWidth is the widest a resolved image may be.
	MaxWidth int `yaml:"max_width"`

	// InlineMaxHeight is the tallest image kept on the text baseline.
	InlineMaxHeight int `yaml:"inline_max_height"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	// Format is text, html or json.
	Format string `yaml:"format"`

	// Color is auto, always or never.
	Color string `yaml:"color"`

	// Width is the text output width.
	Width int `yaml:"width"`

	// Minify compacts HTML output.
	Minify *bool `yaml:"minify"`
}

// Config is the root configuration.
type Config struct {
	Markup MarkupConfig `yaml:"markup"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Images ImageConfig  `yaml:"images"`
	Output OutputConfig `yaml:"output"`

	// Resolve enables fetching of formula and image content.
	Resolve *bool `yaml:"resolve"`

	// Jobs is the number of text runs resolved at once.
	Jobs int `yaml:"jobs"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Markup: MarkupConfig{
			MaxDepth: DefaultMaxDepth,
		},
		Fetch: FetchConfig{
			Timeout:   DefaultFetchTimeout,
			Retries:   Ptr(DefaultFetchRetries),
			RetryWait: DefaultFetchRetryWait,
			MaxBytes:  DefaultFetchMaxBytes,
		},
		Images: ImageConfig{
			MaxWidth:        DefaultMaxImageWidth,
			InlineMaxHeight: DefaultInlineMaxHeight,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
			Color:  DefaultColor,
			Width:  DefaultWidth,
			Minify: Ptr(false),
		},
		Resolve:  Ptr(false),
		Jobs:     DefaultJobs,
		LogLevel: DefaultLogLevel,
	}
}

// ResolveEnabled reports whether resolution is switched on.
func (c *Config) ResolveEnabled() bool {
	return c.Resolve != nil && *c.Resolve
}

// MinifyEnabled reports whether HTML minification is switched on.
func (c *Config) MinifyEnabled() bool {
	return c.Output.Minify != nil && *c.Output.Minify
}

// FetchRetries returns the retry count, or the default when unset.
func (c *Config) FetchRetries() int {
	if c.Fetch.Retries == nil {
		return DefaultFetchRetries
	}
	return *c.Fetch.Retries
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
