package html

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	nethtml "golang.org/x/net/html"
)

// Document is a parsed DOM view of a document, used for auditing only.
// The inliner itself never rewrites through it: the DOM serializer would normalize markup.
type Document struct {
	doc *goquery.Document
}

// Parse parses HTML string into a Document
func Parse(htmlStr string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Count returns how many elements match a CSS selector. Selectors cascadia cannot
// compile are reported as errors.
func (d *Document) Count(selector string) (int, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return 0, fmt.Errorf("failed to compile selector %q: %w", selector, err)
	}
	return d.doc.FindMatcher(sel).Length(), nil
}

// HasElement reports whether at least one element with the given tag is present under body
func (d *Document) HasElement(tag string) bool {
	return d.doc.Find("body " + tag).Length() > 0
}

// StyleTexts returns the text content of every <style> element
func (d *Document) StyleTexts() []string {
	var texts []string
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, s.Text())
	})
	return texts
}

// StyledElement is an element carrying a style attribute
type StyledElement struct {
	Tag   string
	Style string
}

// InlineStyles lists the elements that carry a style attribute, in document order
func (d *Document) InlineStyles() []StyledElement {
	var styled []StyledElement
	d.doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node.Type != nethtml.ElementNode {
			return
		}
		for _, attr := range node.Attr {
			if attr.Key == "style" {
				styled = append(styled, StyledElement{Tag: node.Data, Style: attr.Val})
			}
		}
	})
	return styled
}
