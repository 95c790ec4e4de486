package markup

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// emoticons maps shortcodes to icon identifiers.
//
//nolint:gochecknoglobals // Read-only lookup table.
var emoticons = map[string]string{
	":)":         "smile",
	":-)":        "smile",
	":(":         "sad",
	":-(":        "sad",
	":D":         "grin",
	":-D":        "grin",
	";)":         "wink",
	";-)":        "wink",
	":P":         "tongue",
	":p":         "tongue",
	":O":         "surprised",
	":o":         "surprised",
	":'(":        "cry",
	"T_T":        "cry",
	"^_^":        "happy",
	"^^":         "happy",
	"XD":         "laugh",
	"-_-":        "speechless",
	"<3":         "heart",
	":+1:":       "thumbsup",
	":-1:":       "thumbsdown",
	":doge:":     "doge",
	":shrug:":    "shrug",
	":facepalm:": "facepalm",
	":thinking:": "thinking",
}

// EmoticonIcon returns the icon for a shortcode.
func EmoticonIcon(code string) (string, bool) {
	icon, ok := emoticons[code]
	return icon, ok
}

// ScanEmoticons finds shortcodes delimited by whitespace or the text
// boundaries. Tokens overlapping any of the given formulas are skipped.
func ScanEmoticons(text string, formulas []Formula) []Emoticon {
	var out []Emoticon

	for start := 0; start < len(text); {
		r, size := utf8.DecodeRuneInString(text[start:])
		if unicode.IsSpace(r) {
			start += size
			continue
		}

		end := start
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			if unicode.IsSpace(r) {
				break
			}
			end += size
		}

		code := text[start:end]
		if icon, ok := emoticons[code]; ok && !overlapsFormula(formulas, start, end) {
			out = append(out, Emoticon{Start: start, End: end, Code: code, Icon: icon})
		}
		start = end
	}

	return out
}

// overlapsFormula reports whether [start, end) meets any formula. formulas
// must be sorted by Start.
func overlapsFormula(formulas []Formula, start, end int) bool {
	i := sort.Search(len(formulas), func(i int) bool { return formulas[i].End > start })
	return i < len(formulas) && formulas[i].Start < end
}
