package pages

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrRegionNotFound is returned when a page lacks the content region to extract.
var ErrRegionNotFound = errors.New("content region not found")

const (
	docPrefix  = `<!DOCTYPE html><html><head>`
	bodyOpen   = `</head><body style="margin:0;padding:0;">`
	docSuffix  = `</body></html>`
	attrPrefix = "["
)

var italianWeekdays = [...]string{
	time.Sunday:    "domenica",
	time.Monday:    "lunedi",
	time.Tuesday:   "martedi",
	time.Wednesday: "mercoledi",
	time.Thursday:  "giovedi",
	time.Friday:    "venerdi",
	time.Saturday:  "sabato",
}

// ItalianWeekday returns the schedule section id for the day of t.
func ItalianWeekday(t time.Time) string {
	return italianWeekdays[t.Weekday()]
}

// matcher selects an element node.
type matcher func(n *html.Node) bool

// parseSelector accepts the two selector forms the station pages need:
// "#id" and `[attr="value"]`.
func parseSelector(sel string) (matcher, error) {
	sel = strings.TrimSpace(sel)
	switch {
	case strings.HasPrefix(sel, "#") && len(sel) > 1:
		return attrEquals("id", sel[1:]), nil
	case strings.HasPrefix(sel, attrPrefix) && strings.HasSuffix(sel, "]"):
		name, value, ok := strings.Cut(sel[1:len(sel)-1], "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("unsupported selector %q", sel)
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		return attrEquals(strings.TrimSpace(name), value), nil
	default:
		return nil, fmt.Errorf("unsupported selector %q", sel)
	}
}

func attrEquals(name, value string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == name && a.Val == value {
				return true
			}
		}
		return false
	}
}

// findFirst walks the tree depth-first in document order.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func renderChildren(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render node: %w", err)
		}
	}
	return buf.String(), nil
}

// extractRegion parses a page and returns a standalone document made of the page
// head and the first element matching match. When requireContent is set a region
// whose inner HTML is blank counts as missing.
func extractRegion(r io.Reader, match matcher, requireContent bool) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	region := findFirst(doc, match)
	if region == nil {
		return "", ErrRegionNotFound
	}
	if requireContent {
		inner, err := renderChildren(region)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(inner) == "" {
			return "", fmt.Errorf("%w: region is empty", ErrRegionNotFound)
		}
	}

	var headInner string
	if head := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Head
	}); head != nil {
		if headInner, err = renderChildren(head); err != nil {
			return "", err
		}
	}

	var outer bytes.Buffer
	if err := html.Render(&outer, region); err != nil {
		return "", fmt.Errorf("failed to render region: %w", err)
	}

	return docPrefix + headInner + bodyOpen + outer.String() + docSuffix, nil
}

// ExtractSchedule isolates the section of the schedule page for the given
// Italian weekday id.
func ExtractSchedule(r io.Reader, day string) (string, error) {
	return extractRegion(r, attrEquals("id", day), true)
}

// ExtractPrograms isolates the programs listing matched by selector.
func ExtractPrograms(r io.Reader, selector string) (string, error) {
	match, err := parseSelector(selector)
	if err != nil {
		return "", err
	}
	return extractRegion(r, match, false)
}
