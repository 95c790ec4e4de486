package markup

import (
	"regexp"
	"strings"
)

// styleTag maps one bracket tag name to the span it produces.
type styleTag struct {
	name string
	kind StyleKind
}

// styleOrder is the fixed pass order. Later passes see the text with the
// tags of earlier passes already stripped.
//
//nolint:gochecknoglobals // Read-only lookup table.
var styleOrder = []styleTag{
	{name: "c", kind: StyleColor},
	{name: "color", kind: StyleColor},
	{name: "url", kind: StyleLink},
	{name: "curtain", kind: StyleSpoiler},
	{name: "b", kind: StyleBold},
	{name: "i", kind: StyleItalic},
	{name: "u", kind: StyleUnderline},
	{name: "s", kind: StyleStrikethrough},
	{name: "center", kind: StyleCentered},
	{name: "h", kind: StyleHeading},
}

// leftoverMarkers matches color and link markers that survived their pass
// because the pair was unterminated or its parameter did not parse.
//
//nolint:gochecknoglobals // Compiled once.
var leftoverMarkers = regexp.MustCompile(`(?i)\[(?:c|color|url)(?:=[^\]\[\n]*)?\]|\[/(?:c|color|url)\]`)

// ApplyStyles strips inline style tags from text and returns the remaining
// text together with one StyleSpan per recognized tag pair. Span offsets are
// relative to the returned text.
//
// Pairs that cannot be styled degrade to plain text: an unparsable color or an
// empty link target leaves its markers to a final cleanup that removes them
// without a span, and any other unterminated tag stays in the text verbatim.
func ApplyStyles(text string) (string, []StyleSpan) {
	var spans []StyleSpan

	for _, tag := range styleOrder {
		text, spans = applyStylePass(text, tag, spans)
	}

	var cleanup edit
	for _, loc := range leftoverMarkers.FindAllStringIndex(text, -1) {
		cleanup.remove(loc[0], loc[1])
	}
	text = cleanup.apply(text)
	cleanup.remapStyles(spans)

	return text, spans
}

// applyStylePass handles every pair of one tag name. All cuts are collected
// against the pass's input and applied at once.
func applyStylePass(text string, tag styleTag, spans []StyleSpan) (string, []StyleSpan) {
	var (
		cuts  edit
		found []StyleSpan
	)

	for _, pair := range pairTags(text, tag.name) {
		param := openTagParam(text[pair.openStart:], tag.name, pair.openEnd-pair.openStart)
		span, valid := newStyleSpan(tag.kind, param, text[pair.openEnd:pair.closeStart])
		if !valid {
			continue
		}
		span.Start = pair.openEnd
		span.End = pair.closeStart
		found = append(found, span)

		cuts.remove(pair.openStart, pair.openEnd)
		cuts.remove(pair.closeStart, pair.closeEnd)
	}

	if cuts.empty() {
		return text, spans
	}

	text = cuts.apply(text)
	spans = append(spans, found...)
	cuts.remapStyles(spans)
	return text, spans
}

// newStyleSpan validates the tag parameter and fills the kind-specific fields.
func newStyleSpan(kind StyleKind, param, inner string) (StyleSpan, bool) {
	span := StyleSpan{Kind: kind}

	switch kind {
	case StyleColor:
		rgb, ok := ParseColor(param)
		if !ok {
			return span, false
		}
		span.Color = rgb
	case StyleLink:
		target := strings.Trim(strings.TrimSpace(param), `"'`)
		if target == "" {
			target = strings.TrimSpace(inner)
		}
		if target == "" {
			return span, false
		}
		span.URL = withDefaultScheme(target)
	}

	return span, true
}

// withDefaultScheme prefixes http:// to link targets that carry no scheme.
func withDefaultScheme(target string) string {
	if strings.Contains(target, "://") || hasPrefixFold(target, "mailto:") {
		return target
	}
	return "http://" + target
}
