// Package markup parses forum-post bodies into a tree of typed blocks.
//
// A post body mixes plain text with a BBCode-like tag language
// ([b], [quote], [code], [url=...], ...), Markdown pipe tables, LaTeX math
// regions, inline image and attachment references, and emoticon shortcodes.
// Parse produces a Document whose blocks partition the input; text-bearing
// leaves carry style spans, formula placeholders and emoticons expressed as
// byte offsets into their tag-stripped text.
package markup

import "image"

// SourceRange is a half-open byte range into the original post body.
type SourceRange struct {
	// Start is the byte index where the range begins (inclusive).
	Start int

	// End is the byte index where the range ends (exclusive).
	End int
}

// Len returns the length of the range in bytes.
func (r SourceRange) Len() int {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r SourceRange) IsEmpty() bool {
	return r.Start == r.End
}

// Contains returns true if the given offset is within this range.
func (r SourceRange) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// BlockKind classifies a Block.
type BlockKind uint8

// Block kinds.
const (
	BlockText BlockKind = iota
	BlockCode
	BlockQuote
	BlockTable
)

func (k BlockKind) String() string {
	switch k {
	case BlockText:
		return "Text"
	case BlockCode:
		return "Code"
	case BlockQuote:
		return "Quote"
	case BlockTable:
		return "Table"
	default:
		return "Unknown"
	}
}

// Block is one structural unit of a post: *CodeBlock, *Quote, *Table or *TextRun.
type Block interface {
	// Kind identifies the concrete block type.
	Kind() BlockKind

	// Source returns the range of the original input the block was parsed from,
	// tag markers included.
	Source() SourceRange
}

// Document is an ordered sequence of blocks. The root document covers one post
// body; quotes and table cells own nested documents.
type Document struct {
	Blocks []Block

	// Range is the part of the original input this document covers.
	Range SourceRange
}

// IsEmpty returns true if the document has no blocks.
func (d *Document) IsEmpty() bool {
	return d == nil || len(d.Blocks) == 0
}

// CodeBlock is a [code] region. Its body is never interpreted.
type CodeBlock struct {
	Range SourceRange

	// Raw is the text between the tags, unchanged.
	Raw string

	// Language comes from [code=lang] or is guessed from Raw.
	Language string

	// Unterminated is set when no closing tag was found and the block runs
	// to the end of its enclosing text.
	Unterminated bool
}

// Kind implements Block.
func (*CodeBlock) Kind() BlockKind { return BlockCode }

// Source implements Block.
func (b *CodeBlock) Source() SourceRange { return b.Range }

// Quote is a [quote] region whose body is parsed recursively.
type Quote struct {
	Range SourceRange

	// PostID and Username come from the [quote=<postId>:@<name>] form.
	// Both are empty for a bare [quote].
	PostID   string
	Username string

	Nested *Document

	Unterminated bool
}

// Kind implements Block.
func (*Quote) Kind() BlockKind { return BlockQuote }

// Source implements Block.
func (b *Quote) Source() SourceRange { return b.Range }

// Alignment is the horizontal alignment of a table column.
type Alignment uint8

// Column alignments.
const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignRight:
		return "Right"
	case AlignCenter:
		return "Center"
	default:
		return "Unknown"
	}
}

// Cell is one table cell. Content holds the cell text parsed as a nested document.
type Cell struct {
	Text    string
	Content *Document
}

// Row is one table row.
type Row []Cell

// Texts returns the trimmed source text of every cell.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

// Table is a Markdown pipe table.
type Table struct {
	Range SourceRange

	// Header is nil when the table has no header row.
	Header *Row

	// Alignments has one entry per column.
	Alignments []Alignment

	Rows []Row
}

// Kind implements Block.
func (*Table) Kind() BlockKind { return BlockTable }

// Source implements Block.
func (b *Table) Source() SourceRange { return b.Range }

// Columns returns the number of columns.
func (b *Table) Columns() int {
	return len(b.Alignments)
}

// TextRun is styled inline text. All offsets in Styles, Formulas and Emoticons
// index into Text, which has tag markers removed.
type TextRun struct {
	Range SourceRange

	Text      string
	Styles    []StyleSpan
	Formulas  []Formula
	Emoticons []Emoticon
}

// Kind implements Block.
func (*TextRun) Kind() BlockKind { return BlockText }

// Source implements Block.
func (b *TextRun) Source() SourceRange { return b.Range }

// IsBlank returns true if the run holds only whitespace and no formulas.
func (b *TextRun) IsBlank() bool {
	if len(b.Formulas) > 0 || len(b.Emoticons) > 0 {
		return false
	}
	for _, c := range b.Text {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// StyleKind is the kind of a StyleSpan.
type StyleKind uint8

// Style kinds.
const (
	StyleBold StyleKind = iota
	StyleItalic
	StyleUnderline
	StyleStrikethrough
	StyleColor
	StyleLink
	StyleCentered
	StyleHeading
	StyleSpoiler
)

func (k StyleKind) String() string {
	switch k {
	case StyleBold:
		return "Bold"
	case StyleItalic:
		return "Italic"
	case StyleUnderline:
		return "Underline"
	case StyleStrikethrough:
		return "Strikethrough"
	case StyleColor:
		return "Color"
	case StyleLink:
		return "Link"
	case StyleCentered:
		return "Centered"
	case StyleHeading:
		return "Heading"
	case StyleSpoiler:
		return "Spoiler"
	default:
		return "Unknown"
	}
}

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0x0f]
	}
	return string(buf)
}

// StyleSpan annotates the half-open range [Start, End) of a TextRun.
type StyleSpan struct {
	Start int
	End   int
	Kind  StyleKind

	// Color is set for StyleColor.
	Color RGB

	// URL is set for StyleLink.
	URL string
}

// FormulaKind classifies a Formula.
type FormulaKind uint8

// Formula kinds.
const (
	FormulaInlineMath FormulaKind = iota
	FormulaDisplayMath
	FormulaTexBlock
	FormulaMathEnvironment
	FormulaInlineImage
	FormulaAttachmentImage
)

func (k FormulaKind) String() string {
	switch k {
	case FormulaInlineMath:
		return "InlineMath"
	case FormulaDisplayMath:
		return "DisplayMath"
	case FormulaTexBlock:
		return "TexBlock"
	case FormulaMathEnvironment:
		return "MathEnvironment"
	case FormulaInlineImage:
		return "InlineImage"
	case FormulaAttachmentImage:
		return "AttachmentImage"
	default:
		return "Unknown"
	}
}

// IsMath returns true for the kinds rendered by the formula server.
func (k FormulaKind) IsMath() bool {
	switch k {
	case FormulaInlineMath, FormulaDisplayMath, FormulaTexBlock, FormulaMathEnvironment:
		return true
	default:
		return false
	}
}

// Formula is a region of a TextRun destined to be replaced by a remote image.
// The region's text stays in place as the placeholder until Image is set.
type Formula struct {
	Start int
	End   int

	// Content is the LaTeX source, the [img] body, or the attachment id.
	Content string

	// URL is where the rendered image is fetched from, or the download
	// link of a file attachment. Empty means the formula cannot be resolved
	// and stays a placeholder.
	URL string

	Kind FormulaKind

	// SizeHint is the requested width in pixels; 0 means default.
	SizeHint int

	// Attachment is the matched attachment for FormulaAttachmentImage.
	Attachment *Attachment

	// Image is the resolved content. It is nil until resolution succeeds.
	Image *Image
}

// Resolved returns true once the placeholder has been substituted.
func (f *Formula) Resolved() bool {
	return f.Image != nil
}

// IsFileLink reports whether f references an attachment that is not an
// image. Such formulas render as a filename link and are never fetched.
func (f *Formula) IsFileLink() bool {
	return f.Kind == FormulaAttachmentImage && f.Attachment != nil && !isImageFile(f.Attachment.Filename)
}

// Image is decoded, scaled image content substituted for a formula placeholder.
type Image struct {
	Width  int
	Height int
	Data   image.Image

	// CenterBaseline asks the renderer to center the image on the text line
	// instead of aligning it to the glyph baseline. Set for tall images.
	CenterBaseline bool
}

// Emoticon is a recognized shortcode in a TextRun.
type Emoticon struct {
	Start int
	End   int
	Code  string
	Icon  string
}

// Attachment is a file attached to a post. The parser only reads it.
type Attachment struct {
	ID       string `json:"id" yaml:"id"`
	Filename string `json:"filename" yaml:"filename"`
	Secret   string `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// WalkTextRuns calls fn for every TextRun in doc in document order, descending
// into quotes and table cells. Code blocks hold no runs.
func WalkTextRuns(doc *Document, fn func(*TextRun)) {
	if doc == nil {
		return
	}
	for _, b := range doc.Blocks {
		switch b := b.(type) {
		case *TextRun:
			fn(b)
		case *Quote:
			WalkTextRuns(b.Nested, fn)
		case *Table:
			if b.Header != nil {
				walkRow(*b.Header, fn)
			}
			for _, row := range b.Rows {
				walkRow(row, fn)
			}
		}
	}
}

func walkRow(row Row, fn func(*TextRun)) {
	for _, c := range row {
		WalkTextRuns(c.Content, fn)
	}
}
