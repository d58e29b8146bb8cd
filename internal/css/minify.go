package css

import (
	"regexp"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var (
	emptyRulesetRegex = regexp.MustCompile(`[^{};]*\{\}`)
	quoteReplacer     = strings.NewReplacer(`&quot;`, `'`, `&#34;`, `'`, `&#034;`, `'`, `&#39;`, `'`, `&#039;`, `'`, `&apos;`, `'`, `"`, `'`)
)

// blockKind tells what a '{' opened: a ruleset body or a group of rulesets (@media and friends)
type blockKind int

const (
	declarationBlock blockKind = iota
	groupingBlock
)

// groupingAtRules hold nested rulesets instead of declarations
var groupingAtRules = map[string]bool{
	"@media":     true,
	"@supports":  true,
	"@document":  true,
	"@layer":     true,
	"@container": true,
}

// Minify compacts a stylesheet: comments and redundant whitespace go away, #aabbcc
// becomes #abc, zero dimensions lose their unit, the last ';' of a block is dropped and
// empty rulesets are removed. Color and unit rewriting only happens inside declaration blocks.
func Minify(text string) string {
	return minify(text, false, false)
}

// MinifyRulesets is Minify that also drops every top-level at-rule, statements like
// @import as well as blocks like @media together with their nested rulesets
func MinifyRulesets(text string) string {
	return minify(text, false, true)
}

// MinifyDeclarations compacts a bare declaration list such as a style attribute value
func MinifyDeclarations(text string) string {
	return strings.TrimSuffix(minify(text, true, false), ";")
}

// AtRules lists the top-level at-keywords of a stylesheet in order of appearance, lowercased
func AtRules(text string) []string {
	l := css.NewLexer(parse.NewInputString(text))

	var (
		names []string
		depth int
	)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return names
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		case css.AtKeywordToken:
			if depth == 0 {
				names = append(names, strings.ToLower(string(data)))
			}
		}
	}
}

// NormalizeQuotes turns double quotes and their HTML entities into single quotes so the
// text can live inside a double-quoted attribute
func NormalizeQuotes(text string) string {
	return quoteReplacer.Replace(text)
}

func minify(text string, inline, dropAtRules bool) string {
	l := css.NewLexer(parse.NewInputString(text))

	var (
		out          []byte
		stack        []blockKind
		prelude      string // at-keyword that started the current prelude, if any
		pendingSpace bool
		lastPunct    = true // nothing written yet, so no leading space
		dropping     bool   // inside a top-level at-rule being dropped
	)

	inDeclarations := func() bool {
		if len(stack) == 0 {
			return inline
		}
		return stack[len(stack)-1] == declarationBlock
	}

	lastByte := func() byte {
		if len(out) == 0 {
			return 0
		}
		return out[len(out)-1]
	}

	write := func(data string, punct bool) {
		if pendingSpace && !lastPunct && !punct {
			out = append(out, ' ')
		}
		pendingSpace = false
		out = append(out, data...)
		lastPunct = punct
	}

	for {
		tt, data := l.Next()

		if dropping {
			// strings and url() are single tokens, so only real braces and ';' count here
			switch tt {
			case css.ErrorToken:
				return removeEmptyRulesets(string(out))
			case css.LeftBraceToken:
				stack = append(stack, groupingBlock)
			case css.RightBraceToken:
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				dropping = len(stack) > 0
			case css.SemicolonToken:
				dropping = len(stack) > 0
			}
			pendingSpace = false
			continue
		}

		switch tt {
		case css.ErrorToken:
			return removeEmptyRulesets(string(out))

		case css.WhitespaceToken, css.CommentToken, css.CDOToken, css.CDCToken:
			pendingSpace = true

		case css.LeftBraceToken:
			kind := declarationBlock
			if groupingAtRules[prelude] {
				kind = groupingBlock
			}
			stack = append(stack, kind)
			prelude = ""
			write("{", true)

		case css.RightBraceToken:
			if lastByte() == ';' {
				out = out[:len(out)-1]
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			prelude = ""
			write("}", true)

		case css.SemicolonToken:
			if b := lastByte(); b == ';' || b == '{' || b == 0 {
				pendingSpace = false
				continue
			}
			prelude = ""
			write(";", true)

		case css.CommaToken, css.LeftParenthesisToken, css.RightParenthesisToken:
			write(string(data), true)

		case css.FunctionToken:
			// "name(" glues to what follows but not to what precedes
			write(string(data), false)
			lastPunct = true

		case css.ColonToken:
			if inDeclarations() {
				write(":", true)
			} else {
				// "a :hover" and "a:hover" are different selectors
				write(":", false)
				lastPunct = true
			}

		case css.DelimToken:
			d := string(data)
			switch {
			case !inDeclarations() && (d == ">" || d == "+" || d == "~"):
				write(d, true)
			case inDeclarations() && d == "!":
				write(d, true)
			default:
				write(d, false)
			}

		case css.AtKeywordToken:
			if dropAtRules && len(stack) == 0 {
				dropping = true
				continue
			}
			if len(stack) == 0 || !inDeclarations() {
				prelude = strings.ToLower(string(data))
			}
			write(string(data), false)

		case css.HashToken:
			if inDeclarations() {
				write(shortenHex(string(data)), false)
			} else {
				write(string(data), false)
			}

		case css.DimensionToken:
			if inDeclarations() && isZeroDimension(string(data)) {
				write("0", false)
			} else {
				write(string(data), false)
			}

		default:
			write(string(data), false)
		}
	}
}

// shortenHex collapses #aabbcc into #abc
func shortenHex(hash string) string {
	if len(hash) != 7 {
		return hash
	}
	for i := 1; i < 7; i++ {
		if !isHexDigit(hash[i]) {
			return hash
		}
	}
	if hash[1] == hash[2] && hash[3] == hash[4] && hash[5] == hash[6] {
		return "#" + string([]byte{hash[1], hash[3], hash[5]})
	}
	return hash
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// isZeroDimension reports whether a dimension token like "0px" or "0.0em" has a zero value
func isZeroDimension(s string) bool {
	numEnd := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('0' <= c && c <= '9') || c == '.' || ((c == '-' || c == '+') && i == 0) {
			numEnd = i + 1
			continue
		}
		break
	}
	if numEnd == 0 || numEnd == len(s) {
		return false
	}
	v, err := strconv.ParseFloat(s[:numEnd], 64)
	return err == nil && v == 0
}

func removeEmptyRulesets(text string) string {
	for {
		next := emptyRulesetRegex.ReplaceAllString(text, "")
		if next == text {
			return next
		}
		text = next
	}
}
