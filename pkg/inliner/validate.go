package inliner

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"cssinline/internal/config"
	"cssinline/internal/css"
	"cssinline/internal/html"
)

// ValidationIssue represents an email compatibility issue
type ValidationIssue struct {
	Type     string // "structure", "css", "selector"
	Severity string // "error", "warning", "info"
	Message  string
	Element  string
	Property string // for CSS issues
}

func (v ValidationIssue) String() string {
	s := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(v.Severity), v.Element, v.Message)
	if v.Property != "" {
		s += " (" + v.Property + ")"
	}
	return s
}

// ValidateHTML validates HTML for email client compatibility without inlining
func (i *Inliner) ValidateHTML(htmlContent string) ([]ValidationIssue, error) {
	doc, err := html.Parse(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var issues []ValidationIssue

	// Check for problematic HTML elements
	issues = append(issues, i.validateHTMLStructure(doc)...)

	// Check for email-unsafe CSS
	issues = append(issues, i.validateEmbeddedCSS(doc)...)

	// Check rules that will not be inlined
	issues = append(issues, i.validateSelectors(doc, i.parser.Extract(htmlContent))...)

	i.log.Debug("Validated document", zap.Int("issues", len(issues)))
	return issues, nil
}

// validateHTMLStructure checks for HTML structure issues
func (i *Inliner) validateHTMLStructure(doc *html.Document) []ValidationIssue {
	var issues []ValidationIssue

	// Check for missing table structure in emails
	if !doc.HasElement("table") {
		issues = append(issues, ValidationIssue{
			Type:     "structure",
			Severity: "warning",
			Message:  "Email should use table-based layout for better client compatibility",
			Element:  "body",
		})
	}

	return issues
}

// validateEmbeddedCSS checks for problematic CSS in style tags and style attributes
func (i *Inliner) validateEmbeddedCSS(doc *html.Document) []ValidationIssue {
	var issues []ValidationIssue

	profile := config.GetCompatibilityProfile(i.config.TargetEmailClient)
	for _, content := range doc.StyleTexts() {
		minified := css.Minify(content)

		// Check for problematic CSS features
		if strings.Contains(minified, "position:fixed") {
			issues = append(issues, ValidationIssue{
				Type:     "css",
				Severity: "error",
				Message:  "position: fixed is not supported in email clients",
				Element:  "style",
				Property: "position",
			})
		}

		if profile.MaxStylesheetSize > 0 && len(minified) > profile.MaxStylesheetSize {
			issues = append(issues, ValidationIssue{
				Type:     "css",
				Severity: "warning",
				Message:  fmt.Sprintf("Stylesheet is %d bytes, %s clips style blocks above %d", len(minified), i.config.TargetEmailClient, profile.MaxStylesheetSize),
				Element:  "style",
			})
		}

		if !profile.SupportsMediaQueries && slices.Contains(css.AtRules(content), "@media") {
			issues = append(issues, ValidationIssue{
				Type:     "css",
				Severity: "warning",
				Message:  fmt.Sprintf("Media queries are ignored by %s, responsive rules will not apply", i.config.TargetEmailClient),
				Element:  "style",
				Property: "@media",
			})
		}
	}

	for _, styled := range doc.InlineStyles() {
		for _, declaration := range css.ParseDeclarations(css.MinifyDeclarations(css.NormalizeQuotes(styled.Style))) {
			if declaration.Property == "position" && strings.HasPrefix(strings.ToLower(declaration.Value), "fixed") {
				issues = append(issues, ValidationIssue{
					Type:     "css",
					Severity: "error",
					Message:  "position: fixed is not supported in email clients",
					Element:  styled.Tag,
					Property: "position",
				})
			}
		}
	}

	return issues
}

// validateSelectors reports rules the inliner skipped and, if enabled, rules matching no element
func (i *Inliner) validateSelectors(doc *html.Document, stylesheet *css.Stylesheet) []ValidationIssue {
	var issues []ValidationIssue

	for _, skipped := range stylesheet.Warnings {
		issues = append(issues, ValidationIssue{
			Type:     "selector",
			Severity: "info",
			Message:  "CSS will not be inlined, " + skipped,
			Element:  "style",
		})
	}

	profile := config.GetCompatibilityProfile(i.config.TargetEmailClient)
	for _, rule := range stylesheet.Rules {
		for _, step := range rule.Chain {
			for _, pseudo := range step.PseudoClasses {
				if !profile.UnsupportedPseudoClass(pseudo) {
					continue
				}
				issues = append(issues, ValidationIssue{
					Type:     "selector",
					Severity: "warning",
					Message:  fmt.Sprintf(":%s is not supported by %s", pseudo, i.config.TargetEmailClient),
					Element:  rule.Selector,
				})
			}
		}
	}

	if !i.config.ReportUnusedSelectors {
		return issues
	}

	for _, rule := range stylesheet.Rules {
		count, err := doc.Count(rule.Selector)
		if err != nil {
			// dynamic pseudo-classes have no static match
			i.log.Debug("Selector not evaluated", zap.String("selector", rule.Selector), zap.Error(err))
			continue
		}
		if count == 0 {
			issues = append(issues, ValidationIssue{
				Type:     "selector",
				Severity: "info",
				Message:  "Selector matches no element",
				Element:  rule.Selector,
			})
		}
	}

	return issues
}
