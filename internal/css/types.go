package css

import (
	"fmt"
	"strings"
)

// Combinator describes how a selector step relates to the step before it
type Combinator int

const (
	CombinatorNone       Combinator = iota // first step of a chain
	CombinatorDescendant                   // whitespace
	CombinatorChild                        // >
	CombinatorSibling                      // + (adjacent sibling)
)

func (c Combinator) String() string {
	switch c {
	case CombinatorDescendant:
		return " "
	case CombinatorChild:
		return ">"
	case CombinatorSibling:
		return "+"
	default:
		return ""
	}
}

// SimpleSelector is one step of a selector chain: tag or id, classes and pseudo-classes
type SimpleSelector struct {
	Combinator    Combinator // relation to the previous step in the chain
	Tag           string     // lowercased element name
	ID            string
	Classes       []string
	PseudoClasses []string // AND semantics, raw text without the leading colon
}

// IsValid checks if the step carries at least one component
func (s SimpleSelector) IsValid() bool {
	return s.Tag != "" || s.ID != "" || len(s.Classes) > 0 || len(s.PseudoClasses) > 0
}

func (s SimpleSelector) String() string {
	var sb strings.Builder
	sb.WriteString(s.Tag)
	if s.ID != "" {
		sb.WriteString("#" + s.ID)
	}
	for _, c := range s.Classes {
		sb.WriteString("." + c)
	}
	for _, p := range s.PseudoClasses {
		sb.WriteString(":" + p)
	}
	return sb.String()
}

// Specificity holds the components used to order conflicting declarations.
// IDs counts chain steps carrying an id, Classes counts classes and pseudo-classes,
// Elements counts steps carrying a tag.
type Specificity struct {
	IDs      int
	Classes  int
	Elements int
}

// Score folds the components into the single number used by the cascade
func (s Specificity) Score() int {
	return 10000*s.IDs + 100*s.Classes + s.Elements
}

// Compare returns -1 if s < other, 0 if equal, 1 if s > other
func (s Specificity) Compare(other Specificity) int {
	a, b := s.Score(), other.Score()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.IDs, s.Classes, s.Elements)
}

// ChainSpecificity sums specificity across all steps of a selector chain
func ChainSpecificity(chain []SimpleSelector) Specificity {
	var sp Specificity
	for _, step := range chain {
		if step.ID != "" {
			sp.IDs++
		}
		sp.Classes += len(step.Classes) + len(step.PseudoClasses)
		if step.Tag != "" {
			sp.Elements++
		}
	}
	return sp
}

// Rule is a single selector alternative with the declarations of its block
type Rule struct {
	Selector     string           // selector text after cleanup
	Chain        []SimpleSelector // ordered steps, last one is matched against the target
	Declarations string           // minified declaration text, e.g. "color:red;margin:0"
	SourceOrder  int              // order in the extracted stylesheet (for tie-breaking)
}

// Specificity returns the summed specificity of the rule's chain
func (r Rule) Specificity() Specificity {
	return ChainSpecificity(r.Chain)
}

// Declaration represents a single CSS property declaration
type Declaration struct {
	Property  string // lowercased property name
	Value     string // value as written, including any !important suffix
	Important bool
}

// String renders the declaration the way it is written into a style attribute
func (d Declaration) String() string {
	return d.Property + ":" + d.Value
}

// Stylesheet is the result of extracting all inlinable rules from a document
type Stylesheet struct {
	Rules    []Rule   // all rules in source order
	Warnings []string // skipped blocks and selectors
}
