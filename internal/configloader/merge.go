package configloader

import "github.com/yaklabco/forummark/pkg/config"

// merge returns base overlaid with the set fields of override.
// Zero scalars and nil pointers in override leave base untouched; pointer
// fields let an override switch a boolean off.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}

	result := base.Clone()

	mergeString(&result.Markup.FormulaURL, override.Markup.FormulaURL)
	mergeString(&result.Markup.AttachmentURL, override.Markup.AttachmentURL)
	mergeString(&result.Markup.BaseURL, override.Markup.BaseURL)
	mergeNonZero(&result.Markup.MaxDepth, override.Markup.MaxDepth)

	mergeNonZero(&result.Fetch.Timeout, override.Fetch.Timeout)
	mergePtr(&result.Fetch.Retries, override.Fetch.Retries)
	mergeNonZero(&result.Fetch.RetryWait, override.Fetch.RetryWait)
	mergeNonZero(&result.Fetch.MaxBytes, override.Fetch.MaxBytes)
	mergeString(&result.Fetch.UserAgent, override.Fetch.UserAgent)

	mergeNonZero(&result.Images.MaxWidth, override.Images.MaxWidth)
	mergeNonZero(&result.Images.InlineMaxHeight, override.Images.InlineMaxHeight)

	mergeString(&result.Output.Format, override.Output.Format)
	mergeString(&result.Output.Color, override.Output.Color)
	mergeNonZero(&result.Output.Width, override.Output.Width)
	mergePtr(&result.Output.Minify, override.Output.Minify)

	mergePtr(&result.Resolve, override.Resolve)
	mergeNonZero(&result.Jobs, override.Jobs)
	mergeString(&result.LogLevel, override.LogLevel)

	return result
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeNonZero[T ~int | ~int64](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func mergePtr[T any](dst **T, v *T) {
	if v != nil {
		c := *v
		*dst = &c
	}
}

// MergeAll merges configurations in order; later ones win.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for _, cfg := range configs[1:] {
		result = merge(result, cfg)
	}
	return result
}
