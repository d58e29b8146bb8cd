package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"cssinline/internal/css"
	"cssinline/internal/html"
)

var nthRegex = regexp.MustCompile(`^([+-]?\d*)n([+-]\d+)?$`)

// Matches tests a single element against one simple selector
func Matches(node *html.Node, sel css.SimpleSelector) bool {
	if node == nil || node.Kind != html.OpeningTag {
		return false
	}
	if sel.Tag != "" && sel.Tag != node.Tag {
		return false
	}
	if sel.ID != "" && sel.ID != node.ID {
		return false
	}
	for _, class := range sel.Classes {
		if !node.HasClass(class) {
			return false
		}
	}
	if len(sel.PseudoClasses) == 0 {
		return true
	}

	// Structural pseudo-classes need siblings to count
	if node.Parent == nil {
		return false
	}
	position, count := node.Position(false)
	typePosition, typeCount := node.Position(true)

	for _, pseudo := range sel.PseudoClasses {
		if !matchesPseudo(pseudo, position, count, typePosition, typeCount) {
			return false
		}
	}
	return true
}

func matchesPseudo(pseudo string, position, count, typePosition, typeCount int) bool {
	name, arg, hasArg := strings.Cut(pseudo, "(")
	arg = strings.TrimSuffix(arg, ")")

	switch name {
	case "first-child":
		return position == 1
	case "last-child":
		return position == count
	case "only-child":
		return count == 1
	case "first-of-type":
		return typePosition == 1
	case "last-of-type":
		return typePosition == typeCount
	case "only-of-type":
		return typeCount == 1
	case "nth-child":
		return hasArg && matchesNth(arg, position, count, false)
	case "nth-last-child":
		return hasArg && matchesNth(arg, position, count, true)
	case "nth-of-type":
		return hasArg && matchesNth(arg, typePosition, typeCount, false)
	case "nth-last-of-type":
		return hasArg && matchesNth(arg, typePosition, typeCount, true)
	}

	// dynamic (:hover, :focus, ...) and unknown pseudo-classes never match statically
	return false
}

// matchesNth evaluates an nth expression (odd, even, An+B or an integer) for the
// 1-based position among count siblings. For the "last" variants the odd/even check
// flips when the sibling count is even.
func matchesNth(expr string, position, count int, fromEnd bool) bool {
	expr = strings.ToLower(strings.ReplaceAll(expr, " ", ""))

	switch expr {
	case "odd", "even":
		wantOdd := expr == "odd"
		if fromEnd && count%2 == 0 {
			wantOdd = !wantOdd
		}
		return (position%2 == 1) == wantOdd
	}

	a, b, ok := parseNth(expr)
	if !ok {
		return false
	}
	if fromEnd {
		position = count + 1 - position
	}
	if a == 0 {
		return position == b
	}
	return (b-position)%a == 0
}

// parseNth parses "An+B", "n", "-n+B" or a plain integer
func parseNth(expr string) (a, b int, ok bool) {
	if n, err := strconv.Atoi(expr); err == nil {
		return 0, n, true
	}

	m := nthRegex.FindStringSubmatch(expr)
	if m == nil {
		return 0, 0, false
	}
	switch m[1] {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		a, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		b, _ = strconv.Atoi(m[2])
	}
	return a, b, true
}

// matchesChain matches the chain's last step against node, then walks the
// combinators back through parents and siblings
func matchesChain(node *html.Node, chain []css.SimpleSelector) bool {
	// not enough ancestors to satisfy every step
	if len(chain) == 0 || len(chain) > node.Level+1 {
		return false
	}
	if !Matches(node, chain[len(chain)-1]) {
		return false
	}

	current := node
	for i := len(chain) - 1; i > 0; i-- {
		prev := chain[i-1]
		switch chain[i].Combinator {
		case css.CombinatorSibling:
			current = current.PrevSibling()
			if !Matches(current, prev) {
				return false
			}
		case css.CombinatorChild:
			current = current.Parent
			if !Matches(current, prev) {
				return false
			}
		default:
			current = current.Parent
			for current != nil && !Matches(current, prev) {
				current = current.Parent
			}
			if current == nil {
				return false
			}
		}
	}
	return true
}
