package html

import (
	"regexp"
	"strings"
)

// emptyTags never have content and are never explicitly closed
var emptyTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "param": true, "area": true, "command": true,
	"col": true, "base": true, "keygen": true, "wbr": true,
}

// rawTextTags hold text that must not be scanned as markup
var rawTextTags = map[string]*regexp.Regexp{
	"script": regexp.MustCompile(`(?i)</script\s*>`),
	"style":  regexp.MustCompile(`(?i)</style\s*>`),
}

var (
	// Order matters: comments, CDATA and declarations first, then closing and opening
	// tags, then text; a stray '<' is taken alone.
	tokenRegex = regexp.MustCompile(`^(?:` +
		`<!--[\s\S]*?-->|` +
		`<!\[CDATA\[[\s\S]*?\]\]>|` +
		`<![^>]*>|` +
		`<\?[\s\S]*?\?>|` +
		`</[a-zA-Z][a-zA-Z0-9:-]*\s*>|` +
		`<[a-zA-Z][a-zA-Z0-9:-]*(?:[^>"']|"[^"]*"|'[^']*')*>|` +
		`[^<]+|` +
		`<)`)

	openingNameRegex = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9:-]*)`)
	closingNameRegex = regexp.MustCompile(`^</([a-zA-Z][a-zA-Z0-9:-]*)`)
	attributeRegex   = regexp.MustCompile(`\s([^\s"'>/=]+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)
	selfClosingRegex = regexp.MustCompile(`/\s*>$`)
)

// Attribute is one attribute of an opening tag with its byte span inside the tag text.
// The span starts at the whitespace that precedes the name.
type Attribute struct {
	Name  string // lowercased
	Value string
	Start int
	End   int
}

// Attributes lists the attributes of an opening tag in source order
func Attributes(tag string) []Attribute {
	name := openingNameRegex.FindString(tag)
	if name == "" {
		return nil
	}

	var attrs []Attribute
	for _, m := range attributeRegex.FindAllStringSubmatchIndex(tag[len(name):], -1) {
		attr := Attribute{
			Name:  strings.ToLower(tag[len(name)+m[2] : len(name)+m[3]]),
			Start: len(name) + m[0],
			End:   len(name) + m[1],
		}
		for g := 4; g < len(m); g += 2 {
			if m[g] >= 0 {
				attr.Value = tag[len(name)+m[g] : len(name)+m[g+1]]
				break
			}
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// Tokenize scans the document once, producing its flat token stream with the element
// tree (parent, children, nesting level) built along the way. Unbalanced markup is not
// repaired: an unclosed non-empty element shifts the levels of everything after it.
func Tokenize(src string) *Tokens {
	tokens := &Tokens{Nodes: make([]*Node, 0, strings.Count(src, "<")*2+1)}

	var (
		level int
		path  []*Node // open element at each level
	)

	add := func(n *Node) *Node {
		n.Index = len(tokens.Nodes)
		tokens.Nodes = append(tokens.Nodes, n)
		return n
	}

	for pos := 0; pos < len(src); {
		raw := tokenRegex.FindString(src[pos:])
		pos += len(raw)

		switch {
		case strings.HasPrefix(raw, "</") && closingNameRegex.MatchString(raw):
			tag := strings.ToLower(closingNameRegex.FindStringSubmatch(raw)[1])
			if !emptyTags[tag] && level > 0 {
				level--
				path = path[:level]
			}
			add(&Node{Kind: ClosingTag, Raw: raw, Level: level, Tag: tag})

		case len(raw) > 1 && raw[0] == '<' && isASCIILetter(raw[1]):
			node := add(newElement(raw, level))
			path = append(path[:level], node)
			if level > 0 {
				node.Parent = path[level-1]
				node.Parent.Children = append(node.Parent.Children, node)
			}
			if emptyTags[node.Tag] || selfClosingRegex.MatchString(raw) {
				continue
			}
			level++

			if closer, ok := rawTextTags[node.Tag]; ok {
				end := len(src) - pos
				if loc := closer.FindStringIndex(src[pos:]); loc != nil {
					end = loc[0]
				}
				if end > 0 {
					add(&Node{Kind: Other, Raw: src[pos : pos+end], Level: level})
					pos += end
				}
			}

		default:
			add(&Node{Kind: Other, Raw: raw, Level: level})
		}
	}

	return tokens
}

func newElement(raw string, level int) *Node {
	node := &Node{
		Kind:  OpeningTag,
		Raw:   raw,
		Level: level,
		Tag:   strings.ToLower(openingNameRegex.FindStringSubmatch(raw)[1]),
	}
	for _, attr := range Attributes(raw) {
		switch attr.Name {
		case "id":
			node.ID = attr.Value
		case "class":
			node.Classes = strings.Fields(attr.Value)
		}
	}
	return node
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
