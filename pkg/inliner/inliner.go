package inliner

import (
	"time"

	"go.uber.org/zap"

	"cssinline/internal/config"
	"cssinline/internal/css"
	"cssinline/internal/html"
	"cssinline/internal/resolver"
)

// Inliner is the main CSS inlining engine for email HTML. It is immutable after
// construction and safe for concurrent use.
type Inliner struct {
	config config.Config
	parser *css.Parser
	log    *zap.Logger
}

// New creates a new CSS inliner with the given configuration
func New(cfg config.Config, log *zap.Logger) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inliner{
		config: cfg,
		parser: css.NewParser(log),
		log:    log.Named("inliner"),
	}
}

// NewWithDefaults creates a new CSS inliner with default configuration and no logging
func NewWithDefaults() *Inliner {
	return New(config.Default(), nil)
}

// InlineResult contains the result of CSS inlining operation
type InlineResult struct {
	HTML          string                       // Final HTML with inlined styles
	InlinedStyles int                          // Number of declarations written to style attributes
	Warnings      []resolver.ValidationWarning // Any validation warnings
	SkippedRules  []string                     // CSS blocks and selectors that could not be used
	ProcessingStats
}

// ProcessingStats contains performance metrics from the inlining process
type ProcessingStats struct {
	RulesParsed       int           // Total CSS rules extracted
	ElementsProcessed int           // HTML elements examined
	ElementsStyled    int           // HTML elements that had styles applied
	SelectorsMatched  int           // Total selector matches found
	ProcessingTime    time.Duration // Wall time of the whole run
}

// Inline moves the rules of the document's <style type="text/css"> blocks into style
// attributes. It never fails: unusable CSS is skipped and reported in SkippedRules.
// A document without usable rules is returned unchanged.
func (i *Inliner) Inline(htmlContent string) *InlineResult {
	start := time.Now()

	// Extract CSS from <style> tags
	stylesheet := i.parser.Extract(htmlContent)

	result := &InlineResult{
		HTML:         htmlContent,
		SkippedRules: stylesheet.Warnings,
	}
	result.RulesParsed = len(stylesheet.Rules)

	if len(stylesheet.Rules) == 0 {
		result.ProcessingTime = time.Since(start)
		i.log.Debug("No inlinable rules, document left unchanged")
		return result
	}

	// Tokenize and resolve every element against the rules
	tokens := html.Tokenize(htmlContent)
	stats := resolver.New(stylesheet, i.config, i.log).Apply(tokens)

	result.HTML = tokens.String()
	result.InlinedStyles = stats.InlinedStyles
	result.Warnings = stats.Warnings
	result.ElementsProcessed = stats.ElementsProcessed
	result.ElementsStyled = stats.ElementsStyled
	result.SelectorsMatched = stats.SelectorsMatched
	result.ProcessingTime = time.Since(start)

	i.log.Debug("Inlined document",
		zap.Int("rules", result.RulesParsed),
		zap.Int("styled", result.ElementsStyled),
		zap.Int("declarations", result.InlinedStyles),
		zap.Duration("elapsed", result.ProcessingTime))
	return result
}

// InlineString is a convenience method that inlines CSS in an HTML string
func (i *Inliner) InlineString(htmlContent string) string {
	return i.Inline(htmlContent).HTML
}

var defaultInliner = NewWithDefaults()

// ConvertStyleToInline inlines CSS with the default configuration
func ConvertStyleToInline(htmlContent string) string {
	return defaultInliner.InlineString(htmlContent)
}

// InlineCSSWithConfig is a convenience function that inlines CSS with custom configuration
func InlineCSSWithConfig(htmlContent string, cfg config.Config) string {
	return New(cfg, nil).InlineString(htmlContent)
}
