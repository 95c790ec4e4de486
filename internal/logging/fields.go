package logging

// Field names for structured logging.
const (
	// Common fields.
	FieldError  = "error"
	FieldPath   = "path"
	FieldInput  = "input"
	FieldOutput = "output"
	FieldFormat = "format"

	// Configuration fields.
	FieldConfig   = "config"
	FieldSource   = "source"
	FieldMaxDepth = "max_depth"
	FieldJobs     = "jobs"

	// Document fields.
	FieldBlocks   = "blocks"
	FieldRuns     = "runs"
	FieldFormulas = "formulas"
	FieldBytes    = "bytes"

	// Resolution fields.
	FieldURL      = "url"
	FieldKind     = "kind"
	FieldIndex    = "index"
	FieldResolved = "resolved"
	FieldFailed   = "failed"
	FieldSkipped  = "skipped"
	FieldDuration = "duration"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
