package css

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrUnsupportedSelector is returned for selectors outside the supported grammar
var ErrUnsupportedSelector = errors.New("unsupported selector")

var (
	// tag or #id, then classes, then pseudo-classes with an optional argument
	compoundRegex = regexp.MustCompile(`^(?:([a-zA-Z][a-zA-Z0-9-]*)|#([a-zA-Z0-9_-]+))?((?:\.[a-zA-Z0-9_-]+)*)((?::[a-zA-Z-]+(?:\([^()]*\))?)*)$`)
	pseudoRegex   = regexp.MustCompile(`:([a-zA-Z-]+(?:\([^()]*\))?)`)
)

// Parser extracts inlinable rules from <style> blocks of an HTML document
type Parser struct {
	log *zap.Logger

	conditionalRegex *regexp.Regexp
	styleBlockRegex  *regexp.Regexp
	cssTypeRegex     *regexp.Regexp
	commentRegex     *regexp.Regexp
	blockRegex       *regexp.Regexp
	declarationRegex *regexp.Regexp
	linkRegex        *regexp.Regexp
	markerReplacer   *strings.Replacer
}

// NewParser creates a new CSS parser with compiled regexes
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		log: log.Named("css-parser"),

		// Downlevel-hidden and downlevel-revealed conditional comments
		conditionalRegex: regexp.MustCompile(`(?is)<!--\[if[^\]]*\]>.*?<!\[endif\]-->|<!\[if[^\]]*\]>|<!\[endif\]>`),
		styleBlockRegex:  regexp.MustCompile(`(?is)<style\b([^>]*)>(.*?)</style\s*>`),
		cssTypeRegex:     regexp.MustCompile(`(?i)\btype\s*=\s*["']?text/css\b`),
		commentRegex:     regexp.MustCompile(`/\*[^*]*\*+([^/*][^*]*\*+)*/`),

		// selector list, '{', declarations (the closing brace is already split off)
		blockRegex:       regexp.MustCompile(`^([^{}]+)\{([^{}]*)$`),
		declarationRegex: regexp.MustCompile(`^[a-zA-Z-]+:[^;]`),
		linkRegex:        regexp.MustCompile(`(?i):link\b`),
		markerReplacer:   strings.NewReplacer("<!--", "", "-->", "", "<![CDATA[", "", "]]>", ""),
	}
}

// Extract collects the rules of every <style type="text/css"> block in the document.
// Malformed CSS never produces an error: offending blocks are skipped and noted in Warnings.
func (p *Parser) Extract(html string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:    make([]Rule, 0),
		Warnings: make([]string, 0),
	}

	// Conditional comments are not part of the document for every client
	scanned := p.conditionalRegex.ReplaceAllString(html, "")

	blocks := p.styleBlockRegex.FindAllStringSubmatch(scanned, -1)
	for _, block := range blocks {
		if !p.cssTypeRegex.MatchString(block[1]) {
			p.log.Debug("Skipping style block without text/css type", zap.String("attrs", strings.TrimSpace(block[1])))
			continue
		}
		p.parseInto(sheet, block[2])
	}

	p.log.Debug("Extracted stylesheet", zap.Int("blocks", len(blocks)), zap.Int("rules", len(sheet.Rules)), zap.Int("warnings", len(sheet.Warnings)))
	return sheet
}

// Parse parses bare CSS text (the content of one style block) into a Stylesheet
func (p *Parser) Parse(cssText string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:    make([]Rule, 0),
		Warnings: make([]string, 0),
	}
	p.parseInto(sheet, cssText)
	return sheet
}

// Clean strips markup markers and comments, minifies and normalizes quotes.
// At-rules are dropped: their content cannot be expressed inline.
func (p *Parser) Clean(cssText string) string {
	cssText = p.markerReplacer.Replace(cssText)
	cssText = p.commentRegex.ReplaceAllString(cssText, "")
	cssText = MinifyRulesets(cssText)
	return NormalizeQuotes(cssText)
}

func (p *Parser) parseInto(sheet *Stylesheet, cssText string) {
	cssText = p.Clean(cssText)

	segments := strings.Split(cssText, "}")
	if len(segments) > 0 && strings.TrimSpace(segments[len(segments)-1]) == "" {
		segments = segments[:len(segments)-1]
	}

	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		match := p.blockRegex.FindStringSubmatch(segment)
		if match == nil || !p.declarationRegex.MatchString(match[2]) {
			p.skip(sheet, "malformed block", segment)
			continue
		}

		rules, err := p.parseSelectorList(match[1])
		if err != nil {
			p.skip(sheet, err.Error(), segment)
			continue
		}

		for _, rule := range rules {
			rule.Declarations = match[2]
			rule.SourceOrder = len(sheet.Rules)
			sheet.Rules = append(sheet.Rules, rule)
		}
	}
}

// parseSelectorList parses every comma-separated alternative; one bad alternative rejects the block
func (p *Parser) parseSelectorList(list string) ([]Rule, error) {
	var rules []Rule
	for _, alternative := range strings.Split(list, ",") {
		selector := strings.TrimSpace(p.linkRegex.ReplaceAllString(alternative, ""))
		if selector == "" {
			return nil, fmt.Errorf("%w: empty selector in %q", ErrUnsupportedSelector, list)
		}

		chain, err := ParseSelector(selector)
		if err != nil {
			return nil, err
		}
		rules = append(rules, Rule{Selector: selector, Chain: chain})
	}
	return rules, nil
}

func (p *Parser) skip(sheet *Stylesheet, reason, segment string) {
	sheet.Warnings = append(sheet.Warnings, reason+": "+segment)
	p.log.Debug("Skipping CSS block", zap.String("reason", reason), zap.String("block", segment))
}

// ParseSelector parses one selector (no commas) into its chain of simple selectors
func ParseSelector(selector string) ([]SimpleSelector, error) {
	var (
		chain      []SimpleSelector
		combinator = CombinatorNone
		explicit   bool // '>' or '+' seen since the last step
	)

	for i := 0; i < len(selector); {
		c := selector[i]
		switch {
		case isSelectorSpace(c):
			if combinator == CombinatorNone && len(chain) > 0 {
				combinator = CombinatorDescendant
			}
			i++

		case c == '>' || c == '+':
			if len(chain) == 0 || explicit {
				return nil, fmt.Errorf("%w: misplaced combinator in %q", ErrUnsupportedSelector, selector)
			}
			combinator = CombinatorChild
			if c == '+' {
				combinator = CombinatorSibling
			}
			explicit = true
			i++

		default:
			end := compoundEnd(selector, i)
			step, err := parseCompound(selector[i:end])
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, selector)
			}
			if len(chain) > 0 {
				step.Combinator = combinator
			}
			chain = append(chain, step)
			combinator = CombinatorNone
			explicit = false
			i = end
		}
	}

	if len(chain) == 0 || explicit {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSelector, selector)
	}
	return chain, nil
}

// compoundEnd finds where a compound token starting at i ends; '+' and '>' inside
// parentheses belong to a pseudo-class argument
func compoundEnd(s string, i int) int {
	depth := 0
	for ; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (isSelectorSpace(c) || c == '>' || c == '+'):
			return i
		}
	}
	return i
}

func parseCompound(token string) (SimpleSelector, error) {
	m := compoundRegex.FindStringSubmatch(token)
	if m == nil {
		return SimpleSelector{}, fmt.Errorf("%w: %q", ErrUnsupportedSelector, token)
	}

	step := SimpleSelector{
		Tag: strings.ToLower(m[1]),
		ID:  m[2],
	}
	for _, class := range strings.Split(m[3], ".") {
		if class != "" {
			step.Classes = append(step.Classes, class)
		}
	}
	for _, pseudo := range pseudoRegex.FindAllStringSubmatch(m[4], -1) {
		step.PseudoClasses = append(step.PseudoClasses, strings.ToLower(pseudo[1]))
	}

	if !step.IsValid() {
		return SimpleSelector{}, fmt.Errorf("%w: %q", ErrUnsupportedSelector, token)
	}
	return step, nil
}

func isSelectorSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
