// Package dom parses page markup into a queryable tree and provides the small
// set of lookups judges need: required elements, optional text and layout
// marker probes.
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a precompiled CSS selector that remembers its source text for
// error messages.
type Selector struct {
	m   cascadia.Selector
	src string
}

// MustCompile compiles a selector group and panics on syntax errors.
// Intended for package-level selector variables.
func MustCompile(selector string) Selector {
	return Selector{m: cascadia.MustCompile(selector), src: selector}
}

func (s Selector) String() string { return s.src }

// Find returns every descendant of root matching s, in document order.
func (s Selector) Find(root *goquery.Selection) *goquery.Selection {
	return root.FindMatcher(s.m)
}

// Parse builds a document from raw markup. Broken markup is repaired the way
// browsers do; only a failure of the parser itself is reported.
func Parse(raw string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Text returns the trimmed text content of sel and its descendants.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// Has reports whether any element under root matches s.
func Has(root *goquery.Selection, s Selector) bool {
	return s.Find(root).Length() > 0
}

// Require returns the first element under root matching s, or an
// ExtractionError naming field when there is none.
func Require(root *goquery.Selection, field string, s Selector) (*goquery.Selection, error) {
	sel := s.Find(root).First()
	if sel.Length() == 0 {
		return nil, Missing(field, s)
	}
	return sel, nil
}

// RequireText is Require followed by Text.
func RequireText(root *goquery.Selection, field string, s Selector) (string, error) {
	sel, err := Require(root, field, s)
	if err != nil {
		return "", err
	}
	return Text(sel), nil
}

// OptionalText returns the trimmed text of the first match, or "" when
// nothing matches.
func OptionalText(root *goquery.Selection, s Selector) string {
	return Text(s.Find(root).First())
}

// Texts returns the untrimmed text of every match in document order.
func Texts(root *goquery.Selection, s Selector) []string {
	sel := s.Find(root)
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, el *goquery.Selection) {
		out = append(out, el.Text())
	})
	return out
}

// PreText returns the text of a preformatted block, turning <br> elements
// into line breaks. Surrounding whitespace is kept.
func PreText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

// OwnText returns the trimmed text of sel's direct text children, ignoring
// nested elements such as buttons or badges.
func OwnText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
