// Package langdetect guesses the programming language of a forum code block.
// It uses go-enry for shebangs and classification, after a set of cheap
// pattern checks for the languages that dominate technical forum posts.
package langdetect

import (
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Text is returned when no language can be determined with confidence.
const Text = "text"

// Language identifiers returned by Detect.
const (
	langC      = "c"
	langCpp    = "cpp"
	langJava   = "java"
	langPython = "python"
	langGo     = "go"
	langMatlab = "matlab"
	langLaTeX  = "latex"
	langSQL    = "sql"
	langBash   = "bash"
	langHTML   = "html"
)

// classifierCandidates limits the enry classifier to languages seen in posts.
//
//nolint:gochecknoglobals // Read-only lookup table.
var classifierCandidates = []string{
	"C", "C++", "Java", "Python", "Go", "MATLAB", "TeX",
	"JavaScript", "Shell", "SQL", "HTML", "Rust",
}

// patternChecks run in order; the first non-empty result wins.
//
//nolint:gochecknoglobals // Read-only lookup table.
var patternChecks = []func(trimmed string) string{
	detectCFamily,
	detectJava,
	detectGo,
	detectPython,
	detectLaTeX,
	detectMatlab,
	detectSQL,
	detectHTML,
}

// Detect returns a lower-case language identifier for code, or Text.
func Detect(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Text
	}

	if lang, safe := enry.GetLanguageByShebang([]byte(trimmed)); safe {
		return normalize(lang)
	}

	for _, check := range patternChecks {
		if lang := check(trimmed); lang != "" {
			return lang
		}
	}

	if lang, safe := enry.GetLanguageByClassifier([]byte(trimmed), classifierCandidates); safe && lang != "" {
		return normalize(lang)
	}

	return Text
}

// Normalize maps a user-supplied language tag (e.g. from [code=C++]) to the
// identifiers Detect returns. Unknown tags are lower-cased and kept.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if lang, ok := enry.GetLanguageByAlias(tag); ok {
		return normalize(lang)
	}
	return strings.ToLower(tag)
}

func detectCFamily(trimmed string) string {
	if !strings.Contains(trimmed, "#include") {
		return ""
	}
	if strings.Contains(trimmed, "std::") ||
		strings.Contains(trimmed, "<iostream>") ||
		strings.Contains(trimmed, "cout <<") ||
		strings.Contains(trimmed, "namespace ") {
		return langCpp
	}
	return langC
}

func detectJava(trimmed string) string {
	if strings.Contains(trimmed, "public class ") ||
		strings.Contains(trimmed, "public static void main") ||
		strings.Contains(trimmed, "System.out.print") {
		return langJava
	}
	return ""
}

func detectGo(trimmed string) string {
	if strings.HasPrefix(trimmed, "package ") && strings.Contains(trimmed, "func ") {
		return langGo
	}
	return ""
}

func detectPython(trimmed string) string {
	if strings.Contains(trimmed, "def ") && strings.Contains(trimmed, "):") {
		return langPython
	}
	if strings.Contains(trimmed, "__name__") || strings.HasPrefix(trimmed, "import numpy") {
		return langPython
	}
	return ""
}

func detectLaTeX(trimmed string) string {
	if strings.Contains(trimmed, `\documentclass`) ||
		strings.Contains(trimmed, `\usepackage`) ||
		strings.Contains(trimmed, `\begin{document}`) {
		return langLaTeX
	}
	return ""
}

func detectMatlab(trimmed string) string {
	// MATLAB comments start with % and blocks close with a bare "end".
	if strings.Contains(trimmed, "function ") && strings.Contains(trimmed, "\nend") {
		return langMatlab
	}
	if strings.Contains(trimmed, "disp(") || strings.Contains(trimmed, "zeros(") && strings.Contains(trimmed, ";\n") {
		return langMatlab
	}
	return ""
}

func detectSQL(trimmed string) string {
	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"SELECT ", "INSERT INTO ", "UPDATE ", "DELETE FROM ", "CREATE TABLE "} {
		if strings.HasPrefix(upper, kw) {
			return langSQL
		}
	}
	return ""
}

func detectHTML(trimmed string) string {
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html") {
		return langHTML
	}
	return ""
}

// normalize converts go-enry language names to short identifiers.
func normalize(lang string) string {
	switch lang {
	case "Shell":
		return langBash
	case "C++":
		return langCpp
	case "TeX":
		return langLaTeX
	default:
		return strings.ToLower(lang)
	}
}
