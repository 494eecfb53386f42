package textutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// SanitizeText converts value into a single line of plain text. Markup is
// parsed and discarded (script and style bodies included), leftover angle
// brackets and control characters are removed, whitespace runs collapse to a
// single space, and the result is NFC normalized.
func SanitizeText(value string) string {
	text := stripMarkup(value)
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case dropRune(r):
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return norm.NFC.String(b.String())
}

// SanitizeTextarea behaves like SanitizeText but keeps line breaks. Trailing
// whitespace is trimmed from every line and runs of blank lines shrink to one.
func SanitizeTextarea(value string) string {
	text := strings.ReplaceAll(stripMarkup(value), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		var b strings.Builder
		for _, r := range line {
			switch {
			case r == '\t':
				b.WriteByte(' ')
			case dropRune(r):
			default:
				b.WriteRune(r)
			}
		}
		cleaned := strings.TrimRightFunc(b.String(), unicode.IsSpace)
		if cleaned == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, cleaned)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return norm.NFC.String(strings.Join(out, "\n"))
}

func stripMarkup(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if !strings.ContainsAny(value, "<>&") {
		return value
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	doc.Find("script, style, noscript, iframe, template").Remove()
	return doc.Text()
}

func dropRune(r rune) bool {
	if r == '<' || r == '>' || r == unicode.ReplacementChar {
		return true
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}
