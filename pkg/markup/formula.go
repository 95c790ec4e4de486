package markup

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/yaklabco/forummark/pkg/interval"
)

// Pattern class precedence. Lower values win when two candidates start at the
// same offset.
const (
	precAttachment = iota
	precImage
	precEnvironment
	precTex
	precDollar
	precBackslash
)

// Placeholders understood by FormulaScanner URL templates.
const (
	PlaceholderTeX      = "{tex}"
	PlaceholderID       = "{id}"
	PlaceholderFilename = "{filename}"
	PlaceholderSecret   = "{secret}"
)

//nolint:gochecknoglobals // Compiled once.
var (
	attachmentPattern = regexp.MustCompile(`(?i)\[attachment:([^\]\s]+)\]`)
	imagePattern      = regexp.MustCompile(`(?is)\[img(?:=(\d{1,5}))?\](.*?)\[/img\]`)
	envPattern        = regexp.MustCompile(`\\(begin|end)\{([A-Za-z]+\*?)\}`)
	texPattern        = regexp.MustCompile(`(?is)\[tex\](.*?)\[/tex\]`)
	parenMathPattern  = regexp.MustCompile(`(?s)\\\((.+?)\\\)`)
	squareMathPattern = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
)

// imageExtensions are the attachment file types rendered as images.
//
//nolint:gochecknoglobals // Read-only lookup table.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// candidate is a formula match before overlap resolution. inner is the
// range between the delimiters.
type candidate struct {
	kind       FormulaKind
	innerStart int
	innerEnd   int
	content    string
	sizeHint   int
	attachment *Attachment
}

// FormulaScanner finds formula, image and attachment regions in text.
type FormulaScanner struct {
	// FormulaURL renders math; {tex} is replaced with the escaped LaTeX.
	// Math formulas get an empty URL when it is unset.
	FormulaURL string

	// AttachmentURL locates attachment files; {id}, {filename} and {secret}
	// are replaced from the matched attachment.
	AttachmentURL string

	// BaseURL resolves relative [img] sources. Relative sources are kept
	// as written when it is unset.
	BaseURL string

	// Attachments are the post's attachments, in upload order.
	Attachments []Attachment
}

// Scan removes newlines inside math regions and returns the resulting text
// with its formulas, sorted by Start and pairwise disjoint.
func (s *FormulaScanner) Scan(text string) (string, []Formula) {
	text, _, formulas := s.scan(text)
	return text, formulas
}

// scan also returns the newline edit so callers can remap offsets computed
// against the input.
func (s *FormulaScanner) scan(text string) (string, *edit, []Formula) {
	stripped, newlines := s.stripNewlines(text)

	resolved := s.candidates(stripped).Disjoint()
	formulas := make([]Formula, 0, len(resolved))
	for _, c := range resolved {
		formulas = append(formulas, s.formula(c))
	}
	return stripped, newlines, formulas
}

// stripNewlines removes line breaks strictly inside math regions. A formula
// spanning lines would otherwise render as one image per line.
func (s *FormulaScanner) stripNewlines(text string) (string, *edit) {
	var newlines edit
	if !strings.ContainsAny(text, "\r\n") {
		return text, &newlines
	}

	for _, c := range s.candidates(text).Disjoint() {
		if !c.Value.kind.IsMath() {
			continue
		}
		for i := c.Value.innerStart; i < c.Value.innerEnd; i++ {
			if text[i] == '\n' || text[i] == '\r' {
				newlines.remove(i, i+1)
			}
		}
	}
	return newlines.apply(text), &newlines
}

// candidates collects matches of every pattern class.
func (s *FormulaScanner) candidates(text string) *interval.Set[candidate] {
	set := &interval.Set[candidate]{}

	for _, m := range attachmentPattern.FindAllStringSubmatchIndex(text, -1) {
		id := text[m[2]:m[3]]
		att, ok := s.findAttachment(id)
		if !ok {
			continue
		}
		set.Add(m[0], m[1], precAttachment, candidate{
			kind:       FormulaAttachmentImage,
			innerStart: m[2],
			innerEnd:   m[3],
			content:    id,
			attachment: att,
		})
	}

	for _, m := range imagePattern.FindAllStringSubmatchIndex(text, -1) {
		size := 0
		if m[2] >= 0 {
			size, _ = strconv.Atoi(text[m[2]:m[3]])
		}
		src := strings.TrimSpace(text[m[4]:m[5]])
		if src == "" {
			continue
		}
		set.Add(m[0], m[1], precImage, candidate{
			kind:       FormulaInlineImage,
			innerStart: m[4],
			innerEnd:   m[5],
			content:    src,
			sizeHint:   size,
		})
	}

	addEnvironments(set, text)

	for _, m := range texPattern.FindAllStringSubmatchIndex(text, -1) {
		addMath(set, text, m[0], m[1], m[2], m[3], precTex, FormulaTexBlock)
	}

	addDollars(set, text)

	for _, m := range parenMathPattern.FindAllStringSubmatchIndex(text, -1) {
		addMath(set, text, m[0], m[1], m[2], m[3], precBackslash, FormulaInlineMath)
	}
	for _, m := range squareMathPattern.FindAllStringSubmatchIndex(text, -1) {
		addMath(set, text, m[0], m[1], m[2], m[3], precBackslash, FormulaDisplayMath)
	}

	return set
}

func addMath(set *interval.Set[candidate], text string, start, end, innerStart, innerEnd, prec int, kind FormulaKind) {
	if strings.TrimSpace(text[innerStart:innerEnd]) == "" {
		return
	}
	set.Add(start, end, prec, candidate{
		kind:       kind,
		innerStart: innerStart,
		innerEnd:   innerEnd,
		content:    text[innerStart:innerEnd],
	})
}

// addEnvironments matches \begin{env}...\end{env}, balancing nested uses of
// the same environment with one stack per name, so all environments are
// paired in a single pass over the delimiters. The whole
// environment, delimiters included, is the formula content.
func addEnvironments(set *interval.Set[candidate], text string) {
	type open struct{ start, innerStart int }
	stacks := make(map[string][]open)

	for _, m := range envPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[4]:m[5]]
		if text[m[2]:m[3]] == "begin" {
			stacks[name] = append(stacks[name], open{start: m[0], innerStart: m[1]})
			continue
		}

		stack := stacks[name]
		if len(stack) == 0 {
			continue
		}
		top := stack[len(stack)-1]
		stacks[name] = stack[:len(stack)-1]

		set.Add(top.start, m[1], precEnvironment, candidate{
			kind:       FormulaMathEnvironment,
			innerStart: top.innerStart,
			innerEnd:   m[0],
			content:    text[top.start:m[1]],
		})
	}
}

// addDollars matches $$...$$ display math and $...$ inline math. A backslash
// escapes a dollar sign, and inline math never spans a blank line.
func addDollars(set *interval.Set[candidate], text string) {
	for i := 0; i < len(text); {
		switch {
		case text[i] == '\\':
			i += 2
			continue
		case text[i] != '$':
			i++
			continue
		}

		if strings.HasPrefix(text[i:], "$$") {
			closing := indexUnescaped(text, "$$", i+2)
			if closing > i+2 && strings.TrimSpace(text[i+2:closing]) != "" {
				addMath(set, text, i, closing+2, i+2, closing, precDollar, FormulaDisplayMath)
				i = closing + 2
				continue
			}
			i += 2
			continue
		}

		closing := indexUnescaped(text, "$", i+1)
		if closing > i+1 {
			inner := text[i+1 : closing]
			if !strings.Contains(inner, "\n\n") && !strings.Contains(inner, "\r\n\r\n") {
				addMath(set, text, i, closing+1, i+1, closing, precDollar, FormulaInlineMath)
				i = closing + 1
				continue
			}
		}
		i++
	}
}

// indexUnescaped finds delim at or after from where it is not preceded by a
// backslash.
func indexUnescaped(text, delim string, from int) int {
	for from <= len(text) {
		j := strings.Index(text[from:], delim)
		if j < 0 {
			return -1
		}
		j += from
		if j == 0 || text[j-1] != '\\' {
			return j
		}
		from = j + 1
	}
	return -1
}

// findAttachment searches from the end of the list so the latest upload wins.
// An attachment with an image extension is preferred; otherwise the last one
// with the id is returned so the reference still renders as a file link.
func (s *FormulaScanner) findAttachment(id string) (*Attachment, bool) {
	var fallback *Attachment
	for i := len(s.Attachments) - 1; i >= 0; i-- {
		att := &s.Attachments[i]
		if att.ID != id {
			continue
		}
		if isImageFile(att.Filename) {
			copied := *att
			return &copied, true
		}
		if fallback == nil {
			copied := *att
			fallback = &copied
		}
	}
	return fallback, fallback != nil
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// formula builds the public descriptor, computing the fetch URL.
func (s *FormulaScanner) formula(span interval.Span[candidate]) Formula {
	c := span.Value
	f := Formula{
		Start:      span.Start,
		End:        span.End,
		Content:    c.content,
		Kind:       c.kind,
		SizeHint:   c.sizeHint,
		Attachment: c.attachment,
	}

	switch {
	case c.kind.IsMath():
		f.URL = s.mathURL(c.content)
	case c.kind == FormulaInlineImage:
		f.URL = s.imageURL(c.content)
	case c.kind == FormulaAttachmentImage && c.attachment != nil:
		f.URL = s.attachmentURL(c.attachment)
	}
	return f
}

func (s *FormulaScanner) mathURL(tex string) string {
	if s.FormulaURL == "" {
		return ""
	}
	escaped := strings.ReplaceAll(url.QueryEscape(tex), "+", "%20")
	return strings.ReplaceAll(s.FormulaURL, PlaceholderTeX, escaped)
}

func (s *FormulaScanner) imageURL(src string) string {
	if s.BaseURL == "" || strings.Contains(src, "://") {
		return src
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

func (s *FormulaScanner) attachmentURL(att *Attachment) string {
	if s.AttachmentURL == "" {
		return ""
	}
	return strings.NewReplacer(
		PlaceholderID, url.PathEscape(att.ID),
		PlaceholderFilename, url.PathEscape(att.Filename),
		PlaceholderSecret, url.QueryEscape(att.Secret),
	).Replace(s.AttachmentURL)
}
