package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/yaklabco/forummark/pkg/config"
)

// envVarPrefix prefixes every forummark environment variable.
const envVarPrefix = "FORUMMARK_"

// envMapping binds one variable to a typed setter.
type envMapping struct {
	description string
	apply       func(cfg *config.Config, value string) error
}

func stringField(set func(*config.Config, string)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		set(cfg, value)
		return nil
	}
}

func intField(set func(*config.Config, int)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		set(cfg, i)
		return nil
	}
}

func boolField(set func(*config.Config, bool)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q (expected true/false/1/0)", value)
		}
		set(cfg, b)
		return nil
	}
}

func durationField(set func(*config.Config, time.Duration)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q", value)
		}
		set(cfg, d)
		return nil
	}
}

// envMappings maps variable names, without prefix, to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"FORMULA_URL": {"Formula server URL template ({tex})",
		stringField(func(c *config.Config, v string) { c.Markup.FormulaURL = v })},
	"ATTACHMENT_URL": {"Attachment URL template ({id}, {filename}, {secret})",
		stringField(func(c *config.Config, v string) { c.Markup.AttachmentURL = v })},
	"BASE_URL": {"Base URL for relative image sources",
		stringField(func(c *config.Config, v string) { c.Markup.BaseURL = v })},
	"MAX_DEPTH": {"Maximum quote and table nesting",
		intField(func(c *config.Config, v int) { c.Markup.MaxDepth = v })},
	"FETCH_TIMEOUT": {"Per-fetch timeout (e.g. 15s)",
		durationField(func(c *config.Config, v time.Duration) { c.Fetch.Timeout = v })},
	"FETCH_RETRIES": {"Retries per fetch",
		intField(func(c *config.Config, v int) { c.Fetch.Retries = config.Ptr(v) })},
	"USER_AGENT": {"HTTP User-Agent",
		stringField(func(c *config.Config, v string) { c.Fetch.UserAgent = v })},
	"MAX_IMAGE_WIDTH": {"Widest resolved image in pixels",
		intField(func(c *config.Config, v int) { c.Images.MaxWidth = v })},
	"FORMAT": {"Output format: text, html or json",
		stringField(func(c *config.Config, v string) { c.Output.Format = v })},
	"COLOR": {"Color mode: auto, always or never",
		stringField(func(c *config.Config, v string) { c.Output.Color = v })},
	"WIDTH": {"Text output width",
		intField(func(c *config.Config, v int) { c.Output.Width = v })},
	"MINIFY": {"Minify HTML output: true or false",
		boolField(func(c *config.Config, v bool) { c.Output.Minify = config.Ptr(v) })},
	"RESOLVE": {"Fetch formula and image content: true or false",
		boolField(func(c *config.Config, v bool) { c.Resolve = config.Ptr(v) })},
	"JOBS": {"Text runs resolved at once",
		intField(func(c *config.Config, v int) { c.Jobs = v })},
	"LOG_LEVEL": {"Log level: debug, info, warn or error",
		stringField(func(c *config.Config, v string) { c.LogLevel = v })},
}

// LoadFromEnv applies FORUMMARK_* overrides to cfg.
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for _, suffix := range sortedEnvSuffixes() {
		envVar := envVarPrefix + suffix
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if err := envMappings[suffix].apply(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", envVar, err)
		}
	}

	return nil
}

// ListEnvVars returns every supported variable with its description.
func ListEnvVars() map[string]string {
	vars := make(map[string]string, len(envMappings))
	for suffix, mapping := range envMappings {
		vars[envVarPrefix+suffix] = mapping.description
	}
	return vars
}

func sortedEnvSuffixes() []string {
	keys := make([]string, 0, len(envMappings))
	for k := range envMappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
