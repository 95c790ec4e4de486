package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/yaklabco/forummark/internal/configloader"
	"github.com/yaklabco/forummark/internal/logging"
	"github.com/yaklabco/forummark/internal/ui/pretty"
	"github.com/yaklabco/forummark/pkg/config"
	"github.com/yaklabco/forummark/pkg/fetch"
	"github.com/yaklabco/forummark/pkg/fsutil"
	"github.com/yaklabco/forummark/pkg/markup"
	"github.com/yaklabco/forummark/pkg/render"
	"github.com/yaklabco/forummark/pkg/resolve"
)

type renderFlags struct {
	output        string
	format        string
	width         int
	attachments   string
	resolve       bool
	minify        bool
	compact       bool
	strict        bool
	summary       bool
	metricsFile   string
	formulaURL    string
	attachmentURL string
	baseURL       string
	maxDepth      int
	jobs          int
	timeout       time.Duration
}

const renderLongDescription = `Render a forum post body.

The body is read from the given file, or from standard input when the
argument is "-" or omitted. Formulas and images are shown as placeholders
unless --resolve is set, in which case their content is fetched, decoded and
scaled before rendering.

Examples:
  forummark render post.txt                      # Styled terminal output
  forummark render post.txt --format html        # Sanitized HTML
  cat post.txt | forummark render --format json  # Document tree as JSON
  forummark render post.txt --resolve --summary  # Fetch formulas, report counts
  forummark render post.txt --attachments att.yaml`

func newRenderCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a post body",
		Long:  renderLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write output to a file instead of stdout")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: text, html, json")
	cmd.Flags().IntVar(&flags.width, "width", 0, "text output width (default: terminal width)")
	cmd.Flags().StringVar(&flags.attachments, "attachments", "", "YAML file listing post attachments")
	cmd.Flags().BoolVar(&flags.resolve, "resolve", false, "fetch formula and image content")
	cmd.Flags().BoolVar(&flags.minify, "minify", false, "minify HTML output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "write JSON without indentation")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit non-zero when a formula fails to resolve")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "print a summary to stderr")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write resolver metrics in Prometheus text format")
	cmd.Flags().StringVar(&flags.formulaURL, "formula-url", "", "formula server URL template ({tex})")
	cmd.Flags().StringVar(&flags.attachmentURL, "attachment-url", "", "attachment URL template ({id}, {filename}, {secret})")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "base URL for relative image sources")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 0, "maximum quote and table nesting")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "text runs resolved at once")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-fetch timeout")

	return cmd
}

// cliConfig collects the flags the user actually set.
func cliConfig(cmd *cobra.Command, flags *renderFlags) *config.Config {
	cfg := &config.Config{}
	changed := cmd.Flags().Changed

	if changed("format") {
		cfg.Output.Format = flags.format
	}
	if changed("width") {
		cfg.Output.Width = flags.width
	}
	if changed("minify") {
		cfg.Output.Minify = config.Ptr(flags.minify)
	}
	if changed("resolve") {
		cfg.Resolve = config.Ptr(flags.resolve)
	}
	if changed("formula-url") {
		cfg.Markup.FormulaURL = flags.formulaURL
	}
	if changed("attachment-url") {
		cfg.Markup.AttachmentURL = flags.attachmentURL
	}
	if changed("base-url") {
		cfg.Markup.BaseURL = flags.baseURL
	}
	if changed("max-depth") {
		cfg.Markup.MaxDepth = flags.maxDepth
	}
	if changed("jobs") {
		cfg.Jobs = flags.jobs
	}
	if changed("timeout") {
		cfg.Fetch.Timeout = flags.timeout
	}
	if color, err := cmd.Flags().GetString("color"); err == nil && color != "" {
		cfg.Output.Color = color
	}

	return cfg
}

func loadConfig(cmd *cobra.Command, cli *config.Config) (*config.Config, error) {
	ctx := commandContext(cmd)
	logger := logging.Default()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	result, err := configloader.Load(ctx, configloader.LoadOptions{
		ExplicitPath: configPath,
		CLIConfig:    cli,
	})
	if err != nil {
		return nil, errors.Join(errors.New("failed to load configuration"), err)
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	if len(result.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldConfig, result.LoadedFrom)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); !debug {
		logging.SetLevel(result.Config.LogLevel)
	}

	return result.Config, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runRender(cmd *cobra.Command, args []string, flags *renderFlags) error {
	ctx := commandContext(cmd)
	started := time.Now()

	cfg, err := loadConfig(cmd, cliConfig(cmd, flags))
	if err != nil {
		return err
	}
	logger := logging.Default()
	ctx = logging.WithLogger(ctx, logger)

	source := "-"
	if len(args) == 1 {
		source = args[0]
	}
	body, err := readSource(ctx, cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	attachments, err := loadAttachments(ctx, flags.attachments)
	if err != nil {
		return err
	}

	parser := markup.NewParser(markup.Options{
		FormulaURL:    cfg.Markup.FormulaURL,
		AttachmentURL: cfg.Markup.AttachmentURL,
		BaseURL:       cfg.Markup.BaseURL,
		MaxDepth:      cfg.Markup.MaxDepth,
	})
	doc, err := parser.Parse(ctx, body, attachments)
	if err != nil {
		return err
	}

	stats := pretty.CollectStats(doc)
	stats.Source = source
	stats.Bytes = len(body)
	logger.Debug("parsed post",
		logging.FieldSource, source,
		logging.FieldBlocks, stats.Blocks,
		logging.FieldRuns, stats.Runs,
		logging.FieldFormulas, stats.Formulas,
		logging.FieldMaxDepth, parser.MaxDepth(),
	)

	if cfg.ResolveEnabled() {
		summary, err := resolveDocument(ctx, cfg, doc, flags.metricsFile)
		if err != nil {
			return err
		}
		stats.Resolve = &summary
	}

	var out io.Writer = cmd.OutOrStdout()
	var buffered *bytes.Buffer
	if flags.output != "" {
		buffered = &bytes.Buffer{}
		out = buffered
	}

	colorEnabled := pretty.IsColorEnabled(cfg.Output.Color, out)
	renderer, err := render.New(render.Options{
		Writer:  out,
		Format:  render.Format(cfg.Output.Format),
		Color:   colorEnabled,
		Width:   outputWidth(cmd, cfg, out),
		Minify:  cfg.MinifyEnabled(),
		Compact: flags.compact,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if err := renderer.Render(ctx, doc); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if buffered != nil {
		if err := fsutil.WriteAtomic(ctx, flags.output, buffered.Bytes(), 0); err != nil {
			return fmt.Errorf("write %s: %w", flags.output, err)
		}
		logger.Debug("wrote output", logging.FieldOutput, flags.output, logging.FieldBytes, buffered.Len())
	}

	stats.Elapsed = time.Since(started)
	if flags.summary {
		styles := pretty.NewStyles(pretty.IsColorEnabled(cfg.Output.Color, cmd.ErrOrStderr()))
		if _, err := io.WriteString(cmd.ErrOrStderr(), styles.FormatSummary(stats)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if flags.strict && stats.Resolve != nil && stats.Resolve.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrResolveFailures, stats.Resolve.Failed, stats.Formulas)
	}
	return nil
}

func readSource(ctx context.Context, stdin io.Reader, source string) (string, error) {
	var data []byte
	var err error
	if source == "-" {
		data, err = fsutil.ReadAll(stdin, fsutil.DefaultMaxInputBytes)
	} else {
		data, err = fsutil.ReadFile(ctx, source, fsutil.DefaultMaxInputBytes)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", source, err)
	}
	return string(data), nil
}

// loadAttachments reads a YAML list of {id, filename, secret} entries.
func loadAttachments(ctx context.Context, path string) ([]markup.Attachment, error) {
	if path == "" {
		return nil, nil
	}

	data, err := fsutil.ReadFile(ctx, path, 0)
	if err != nil {
		return nil, fmt.Errorf("read attachments: %w", err)
	}

	var attachments []markup.Attachment
	if err := yaml.Unmarshal(data, &attachments); err != nil {
		return nil, fmt.Errorf("parse attachments %s: %w", path, err)
	}
	return attachments, nil
}

func resolveDocument(
	ctx context.Context,
	cfg *config.Config,
	doc *markup.Document,
	metricsFile string,
) (resolve.DocumentSummary, error) {
	fetcher := fetch.New(fetch.Options{
		RetryMax:     cfg.FetchRetries(),
		RetryWaitMin: cfg.Fetch.RetryWait,
		MaxBytes:     cfg.Fetch.MaxBytes,
		UserAgent:    cfg.Fetch.UserAgent,
	})

	var metrics *resolve.Metrics
	registry := prometheus.NewRegistry()
	if metricsFile != "" {
		var err error
		metrics, err = resolve.NewMetrics(registry)
		if err != nil {
			return resolve.DocumentSummary{}, fmt.Errorf("register metrics: %w", err)
		}
	}

	resolver := resolve.New(fetcher, resolve.Options{
		Timeout:         cfg.Fetch.Timeout,
		MaxWidth:        cfg.Images.MaxWidth,
		InlineMaxHeight: cfg.Images.InlineMaxHeight,
		Jobs:            cfg.Jobs,
		Metrics:         metrics,
	})
	summary := resolver.ResolveDocument(ctx, doc)

	logging.FromContext(ctx).Debug("resolved post",
		logging.FieldRuns, summary.Runs,
		logging.FieldResolved, summary.Resolved,
		logging.FieldFailed, summary.Failed,
		logging.FieldSkipped, summary.Skipped,
	)

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
			return summary, fmt.Errorf("write metrics: %w", err)
		}
	}

	return summary, nil
}

// outputWidth prefers the configured width, then the terminal width.
func outputWidth(cmd *cobra.Command, cfg *config.Config, out io.Writer) int {
	if cmd.Flags().Changed("width") {
		return cfg.Output.Width
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return cfg.Output.Width
}
