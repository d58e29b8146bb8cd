package resolver

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"cssinline/internal/config"
	"cssinline/internal/css"
	"cssinline/internal/html"
)

var tagEndRegex = regexp.MustCompile(`\s*/?>$`)

// Resolver handles CSS cascade resolution and computes final styles for HTML elements
type Resolver struct {
	rules    []compiledRule
	config   config.Config
	skipTags map[string]bool
	log      *zap.Logger
}

// compiledRule keeps a rule with its declarations parsed once per document
type compiledRule struct {
	rule         css.Rule
	specificity  css.Specificity
	declarations []css.Declaration
}

// Stats summarizes one Apply run
type Stats struct {
	ElementsProcessed int // opening tags examined
	ElementsStyled    int // opening tags whose style attribute was rewritten
	SelectorsMatched  int // (element, rule) matches
	InlinedStyles     int // declarations written into style attributes
	Warnings          []ValidationWarning
}

// New creates a new style resolver
func New(stylesheet *css.Stylesheet, cfg config.Config, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Resolver{
		rules:    make([]compiledRule, 0, len(stylesheet.Rules)),
		config:   cfg,
		skipTags: make(map[string]bool, len(cfg.SkipTags)),
		log:      log.Named("resolver"),
	}
	for _, tag := range cfg.SkipTags {
		r.skipTags[strings.ToLower(tag)] = true
	}
	for _, rule := range stylesheet.Rules {
		r.rules = append(r.rules, compiledRule{
			rule:         rule,
			specificity:  rule.Specificity(),
			declarations: css.ParseDeclarations(rule.Declarations),
		})
	}
	return r
}

// Apply rewrites the style attribute of every element matched by at least one rule.
// Elements nothing matches keep their original text.
func (r *Resolver) Apply(tokens *html.Tokens) Stats {
	var stats Stats

	for _, node := range tokens.Elements() {
		if r.skipTags[node.Tag] {
			continue
		}
		stats.ElementsProcessed++

		styles, matched := r.ResolveStyles(node)
		stats.SelectorsMatched += matched
		if matched == 0 || len(styles) == 0 {
			continue
		}

		if r.config.EmailClientOptimizations {
			if styles = r.filterEmailSafeStyles(styles); len(styles) == 0 {
				continue
			}
		}
		stats.Warnings = append(stats.Warnings, r.ValidateStyles(styles)...)

		node.Raw = SetStyle(node.Raw, StylesString(styles))
		stats.ElementsStyled++
		stats.InlinedStyles += len(styles)
	}

	r.log.Debug("Resolved styles",
		zap.Int("elements", stats.ElementsProcessed),
		zap.Int("styled", stats.ElementsStyled),
		zap.Int("matches", stats.SelectorsMatched))
	return stats
}

// ResolveStyles computes the final declarations for an element following the cascade.
// It also returns how many rules matched the element.
func (r *Resolver) ResolveStyles(node *html.Node) ([]css.Declaration, int) {
	var entries []cascadeEntry
	matched := 0

	// Step 1: Collect declarations of all rules that match this element
	for _, cr := range r.rules {
		if !matchesChain(node, cr.rule.Chain) {
			continue
		}
		matched++
		for _, declaration := range cr.declarations {
			entries = append(entries, cascadeEntry{
				declaration: declaration,
				specificity: cr.specificity,
				order:       len(entries),
			})
		}
	}
	if matched == 0 {
		return nil, 0
	}

	// Step 2: Existing inline styles come last in source order
	for _, declaration := range InlineStyle(node.Raw) {
		entries = append(entries, cascadeEntry{
			declaration: declaration,
			isInline:    true,
			order:       len(entries),
		})
	}

	// Step 3: Apply the cascade per property
	return applyCascade(entries), matched
}

// cascadeEntry tracks the cascade information for a declaration
type cascadeEntry struct {
	declaration css.Declaration
	specificity css.Specificity
	isInline    bool
	order       int
}

// less orders entries from lowest to highest precedence:
// !important, then inline over stylesheet, then specificity, then source order
func (e cascadeEntry) less(other cascadeEntry) bool {
	if e.declaration.Important != other.declaration.Important {
		return !e.declaration.Important
	}
	if e.isInline != other.isInline {
		return !e.isInline
	}
	if c := e.specificity.Compare(other.specificity); c != 0 {
		return c < 0
	}
	return e.order < other.order
}

// applyCascade groups entries by property and keeps the highest-precedence one.
// Properties are returned in order of first appearance.
func applyCascade(entries []cascadeEntry) []css.Declaration {
	var properties []string
	byProperty := make(map[string][]cascadeEntry)

	for _, entry := range entries {
		property := entry.declaration.Property
		if _, seen := byProperty[property]; !seen {
			properties = append(properties, property)
		}
		byProperty[property] = append(byProperty[property], entry)
	}

	winners := make([]css.Declaration, 0, len(properties))
	for _, property := range properties {
		candidates := byProperty[property]
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].less(candidates[j])
		})
		winners = append(winners, candidates[len(candidates)-1].declaration)
	}
	return winners
}

// InlineStyle parses the style attribute of an opening tag, if any
func InlineStyle(tag string) []css.Declaration {
	for _, attr := range html.Attributes(tag) {
		if attr.Name == "style" {
			return css.ParseDeclarations(css.MinifyDeclarations(css.NormalizeQuotes(attr.Value)))
		}
	}
	return nil
}

// StylesString joins declarations into the value of a style attribute
func StylesString(styles []css.Declaration) string {
	parts := make([]string, 0, len(styles))
	for _, declaration := range styles {
		parts = append(parts, declaration.String())
	}
	return strings.Join(parts, ";")
}

// SetStyle replaces the style attribute of an opening tag, or inserts one before the
// closing '>' or '/>' when the tag has none
func SetStyle(tag, style string) string {
	attribute := ` style="` + style + `"`

	for _, attr := range html.Attributes(tag) {
		if attr.Name == "style" {
			return tag[:attr.Start] + attribute + tag[attr.End:]
		}
	}

	loc := tagEndRegex.FindStringIndex(tag)
	if loc == nil {
		return tag
	}
	return tag[:loc[0]] + attribute + tag[loc[0]:]
}

// filterEmailSafeStyles removes CSS properties that don't work well in email clients
func (r *Resolver) filterEmailSafeStyles(styles []css.Declaration) []css.Declaration {
	// Get compatibility profile for target email client
	compatibility := config.GetCompatibilityProfile(r.config.TargetEmailClient)

	filtered := make([]css.Declaration, 0, len(styles))
	for _, declaration := range styles {
		// Always keep email-safe properties
		if css.IsEmailSafeProperty(declaration.Property) {
			filtered = append(filtered, declaration)
			continue
		}

		keep := false
		value := strings.TrimSpace(importantSuffix.ReplaceAllString(declaration.Value, ""))

		// Handle email client specific rules
		switch declaration.Property {
		case "float":
			// Float works in most clients but can be problematic
			keep = !config.IsOutlook(r.config.TargetEmailClient)

		case "display":
			// Display property support varies widely
			keep = value == "block" || value == "inline" || value == "inline-block" ||
				value == "table" || value == "table-cell" || value == "none"

		default:
			// Positioning and unknown properties: be conservative
			keep = !compatibility.RequiresInlineStyles
		}

		if keep {
			filtered = append(filtered, declaration)
		} else {
			r.log.Debug("Dropping email-unsafe property", zap.String("property", declaration.Property), zap.String("client", r.config.TargetEmailClient))
		}
	}

	return filtered
}

var importantSuffix = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)
