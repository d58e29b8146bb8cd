package css

import (
	"regexp"
	"strings"
)

var importantRegex = regexp.MustCompile(`(?i)!\s*important\s*$`)

// ParseDeclarations splits a declaration list into declarations in source order.
// Values keep any !important suffix untouched; Important reports its presence.
func ParseDeclarations(text string) []Declaration {
	var declarations []Declaration

	for _, part := range smartSplit(text, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		colonIndex := findUnquotedChar(part, ':')
		if colonIndex == -1 {
			continue
		}

		property := strings.ToLower(strings.TrimSpace(part[:colonIndex]))
		value := strings.TrimSpace(part[colonIndex+1:])
		if property == "" || value == "" {
			continue
		}

		declarations = append(declarations, Declaration{
			Property:  property,
			Value:     value,
			Important: importantRegex.MatchString(value),
		})
	}

	return declarations
}

// smartSplit splits a string by delimiter, respecting quoted strings and parentheses
// so that url(data:...;base64,...) stays in one piece
func smartSplit(s string, delimiter rune) []string {
	var parts []string
	var current strings.Builder
	var inQuotes bool
	var quoteChar rune
	depth := 0

	for _, char := range s {
		switch {
		case !inQuotes && (char == '"' || char == '\''):
			inQuotes = true
			quoteChar = char
			current.WriteRune(char)
		case inQuotes && char == quoteChar:
			inQuotes = false
			current.WriteRune(char)
		case !inQuotes && char == '(':
			depth++
			current.WriteRune(char)
		case !inQuotes && char == ')' && depth > 0:
			depth--
			current.WriteRune(char)
		case !inQuotes && depth == 0 && char == delimiter:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// findUnquotedChar finds the first occurrence of char that's not in quotes
func findUnquotedChar(s string, char rune) int {
	var inQuotes bool
	var quoteChar rune

	for i, c := range s {
		switch {
		case !inQuotes && (c == '"' || c == '\''):
			inQuotes = true
			quoteChar = c
		case inQuotes && c == quoteChar:
			inQuotes = false
		case !inQuotes && c == char:
			return i
		}
	}

	return -1
}

// IsEmailSafeProperty checks if a CSS property is safe for email clients
func IsEmailSafeProperty(property string) bool {
	return emailSafeProperties[strings.ToLower(property)]
}

// Properties that work reliably across email clients
var emailSafeProperties = map[string]bool{
	// Text properties
	"color":           true,
	"font":            true,
	"font-family":     true,
	"font-size":       true,
	"font-weight":     true,
	"font-style":      true,
	"text-align":      true,
	"text-decoration": true,
	"text-transform":  true,
	"line-height":     true,
	"letter-spacing":  true,

	// Box model
	"width":          true,
	"height":         true,
	"padding":        true,
	"padding-top":    true,
	"padding-right":  true,
	"padding-bottom": true,
	"padding-left":   true,
	"margin":         true,
	"margin-top":     true,
	"margin-right":   true,
	"margin-bottom":  true,
	"margin-left":    true,

	// Background
	"background":       true,
	"background-color": true,
	"background-image": true,

	// Border
	"border":        true,
	"border-top":    true,
	"border-right":  true,
	"border-bottom": true,
	"border-left":   true,
	"border-color":  true,
	"border-style":  true,
	"border-width":  true,
	"border-radius": true,

	// Table properties
	"border-collapse": true,
	"border-spacing":  true,
	"vertical-align":  true,
}
