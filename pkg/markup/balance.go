package markup

import (
	"fmt"
	"strings"
)

// Balance finds the end of the tag pair opened at or after from.
//
// It scans text forward from from, counting every occurrence of startTag as
// an open and every occurrence of endTag as a close. It returns the index just
// past the endTag that brings the count back to zero. Tags match ASCII
// case-insensitively. ok is false when the text ends before the pair
// balances; callers treat text[from:] as an unterminated instance.
//
// A from outside [0, len(text)] is a caller bug and panics.
func Balance(text, startTag, endTag string, from int) (end int, ok bool) {
	checkOffset(text, from)
	if startTag == "" || endTag == "" {
		panic("markup: Balance with empty tag")
	}

	_, end, ok = balance(text, from, func(s string) int {
		if hasPrefixFold(s, startTag) {
			return len(startTag)
		}
		return 0
	}, func(s string) int {
		if hasPrefixFold(s, endTag) {
			return len(endTag)
		}
		return 0
	})
	return end, ok
}

// BalanceTag is Balance for a named bracket tag whose opening form may carry a
// parameter: it counts both [name] and [name=...] as opens and [/name] as a
// close. It also returns the index where the closing tag starts.
func BalanceTag(text, name string, from int) (closeStart, end int, ok bool) {
	checkOffset(text, from)
	closeTag := "[/" + name + "]"

	return balance(text, from, func(s string) int {
		return openTagLen(s, name)
	}, func(s string) int {
		if hasPrefixFold(s, closeTag) {
			return len(closeTag)
		}
		return 0
	})
}

// balance is the shared depth counter. openLen and closeLen report the length
// of a tag starting at the beginning of their argument, or 0.
func balance(text string, from int, openLen, closeLen func(string) int) (closeStart, end int, ok bool) {
	depth := 0
	for i := from; i < len(text); {
		if n := openLen(text[i:]); n > 0 {
			depth++
			i += n
			continue
		}
		if n := closeLen(text[i:]); n > 0 {
			if depth > 0 {
				depth--
				if depth == 0 {
					return i, i + n, true
				}
			}
			i += n
			continue
		}
		i++
	}
	return 0, 0, false
}

// openTagLen reports the length of an opening [name] or [name=param] tag at the
// start of s, or 0. A parameter may not contain ']' or a newline.
func openTagLen(s, name string) int {
	if len(s) < len(name)+2 || s[0] != '[' || !hasPrefixFold(s[1:], name) {
		return 0
	}
	i := 1 + len(name)
	switch s[i] {
	case ']':
		return i + 1
	case '=':
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case ']':
				return j + 1
			case '\n', '[':
				return 0
			}
		}
	}
	return 0
}

// openTagParam returns the parameter of the opening tag at the start of s.
// It is empty for the bare [name] form.
func openTagParam(s, name string, n int) string {
	start := 1 + len(name)
	if s[start] != '=' {
		return ""
	}
	return s[start+1 : n-1]
}

// indexOpenTag returns the index of the first opening [name] or [name=...]
// tag at or after from, and its length.
func indexOpenTag(text, name string, from int) (int, int) {
	for i := from; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		if n := openTagLen(text[i:], name); n > 0 {
			return i, n
		}
	}
	return -1, 0
}

// hasPrefixFold is strings.HasPrefix with ASCII case folding. Non-ASCII bytes
// must match exactly, so lengths in bytes never change.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if lowerASCII(s[i]) != lowerASCII(prefix[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func checkOffset(text string, offset int) {
	if offset < 0 || offset > len(text) {
		panic(fmt.Sprintf("markup: offset %d out of range [0, %d]", offset, len(text)))
	}
}

// tagPair is one balanced occurrence of a named tag.
type tagPair struct {
	openStart, openEnd   int
	closeStart, closeEnd int
}

// pairTags matches every opening [name] / [name=...] in text with its closing
// [/name] in a single pass. The result is ordered by opening position and
// equals calling BalanceTag at each opening tag; opens left on the stack at
// the end are unterminated and omitted.
func pairTags(text, name string) []tagPair {
	closeTag := "[/" + name + "]"

	var (
		pairs []tagPair
		stack []int
	)
	for i := 0; i < len(text); {
		j := strings.IndexByte(text[i:], '[')
		if j < 0 {
			break
		}
		i += j

		if n := openTagLen(text[i:], name); n > 0 {
			pairs = append(pairs, tagPair{openStart: i, openEnd: i + n, closeStart: -1})
			stack = append(stack, len(pairs)-1)
			i += n
			continue
		}
		if hasPrefixFold(text[i:], closeTag) {
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				pairs[top].closeStart = i
				pairs[top].closeEnd = i + len(closeTag)
			}
			i += len(closeTag)
			continue
		}
		i++
	}

	closed := pairs[:0]
	for _, p := range pairs {
		if p.closeStart >= 0 {
			closed = append(closed, p)
		}
	}
	return closed
}
