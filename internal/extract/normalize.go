package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// NormalizeInput turns submitted text into plain prose: pasted HTML is
// reduced to its visible text and runs of whitespace collapse to one space.
func NormalizeInput(s string) string {
	if looksLikeHTML(s) {
		if doc, err := html.Parse(strings.NewReader(s)); err == nil {
			s = visibleText(doc)
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

const htmlElements = `html|head|body|title|meta|link|script|style|noscript|p|div|span|br|hr|a|b|i|u|em|strong|small|sub|sup|code|pre|blockquote|q|ul|ol|li|dl|dt|dd|table|thead|tbody|tr|td|th|h[1-6]|article|section|header|footer|nav|main|aside|figure|figcaption|img|iframe|template|form|input|label|button`

// htmlMarkupRe matches a doctype or comment, a closing tag of a known
// element, or an opening tag of a known element that is bare (<p>, <br/>)
// or carries at least one attribute assignment. Prose such as "a<b and c>d"
// never matches.
var htmlMarkupRe = regexp.MustCompile(`(?i)<!doctype\s+html|<!--|</\s*(?:` + htmlElements + `)\s*>|<(?:` + htmlElements + `)(?:\s+[^<>]*=[^<>]*)?\s*/?>`)

func looksLikeHTML(s string) bool {
	return htmlMarkupRe.MatchString(s)
}

// visibleText extracts text nodes from HTML, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "st": true, "vs": true,
	"jr": true, "sr": true, "inc": true, "ltd": true, "co": true, "no": true,
	"e.g": true, "i.e": true, "etc": true, "approx": true,
}

// firstSentence returns the first sentence of text. A terminator followed by
// whitespace ends a sentence unless it closes an abbreviation or initial.
func firstSentence(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(text)

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[:i]) {
			continue
		}
		return strings.TrimSpace(string(runes[:i+1]))
	}
	return text
}

// isAbbreviation reports whether the word ending at prefix is an
// abbreviation or a single-letter initial such as the "S" in "U.S."
func isAbbreviation(prefix []rune) bool {
	start := len(prefix)
	for start > 0 && !unicode.IsSpace(prefix[start-1]) {
		start--
	}
	word := strings.ToLower(string(prefix[start:]))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	for _, part := range strings.Split(word, ".") {
		if r := []rune(part); len(r) != 1 || !unicode.IsLetter(r[0]) {
			return false
		}
	}
	return true
}
