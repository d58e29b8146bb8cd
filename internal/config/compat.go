package config

import "strings"

// EmailClientCompatibility describes the CSS support of one email client family
type EmailClientCompatibility struct {
	SupportsMediaQueries bool
	// dynamic pseudo-classes with known support, keyed with the leading colon
	SupportsPseudoSelectors map[string]bool
	RequiresInlineStyles    bool
	MaxStylesheetSize       int // bytes, 0 means no limit
}

// UnsupportedPseudoClass reports whether the client is known to ignore a pseudo-class.
// The name may carry an argument ("nth-child(2)") and may omit the colon.
func (c EmailClientCompatibility) UnsupportedPseudoClass(name string) bool {
	name, _, _ = strings.Cut(strings.ToLower(name), "(")
	if !strings.HasPrefix(name, ":") {
		name = ":" + name
	}
	supported, known := c.SupportsPseudoSelectors[name]
	return known && !supported
}

// alternative client names accepted in configuration
var clientAliases = map[string]string{
	"outlook_desktop": "outlook",
	"gmail_web":       "gmail",
	"mail_app":        "apple_mail",
	"outlook_web":     "outlook_online",
}

var clientProfiles = map[string]EmailClientCompatibility{
	// Word rendering engine
	"outlook": {
		SupportsPseudoSelectors: map[string]bool{":hover": false, ":focus": false, ":active": false},
		RequiresInlineStyles:    true,
		MaxStylesheetSize:       64 << 10,
	},
	"gmail": {
		SupportsMediaQueries:    true,
		SupportsPseudoSelectors: map[string]bool{":hover": true, ":focus": true, ":active": true},
	},
	"apple_mail": {
		SupportsMediaQueries:    true,
		SupportsPseudoSelectors: map[string]bool{":hover": true, ":focus": true, ":active": true},
	},
	"outlook_online": {
		SupportsMediaQueries:    true,
		SupportsPseudoSelectors: map[string]bool{":hover": true, ":focus": false, ":active": false},
		RequiresInlineStyles:    true,
		MaxStylesheetSize:       64 << 10,
	},
}

// used for "generic" and anything unknown
var conservativeProfile = EmailClientCompatibility{
	SupportsPseudoSelectors: map[string]bool{":hover": false, ":focus": false, ":active": false},
	RequiresInlineStyles:    true,
	MaxStylesheetSize:       32 << 10,
}

func canonicalClient(client string) string {
	name := strings.ToLower(strings.TrimSpace(client))
	if canonical, ok := clientAliases[name]; ok {
		return canonical
	}
	return name
}

// GetCompatibilityProfile returns the support profile of a target email client
func GetCompatibilityProfile(client string) EmailClientCompatibility {
	if profile, ok := clientProfiles[canonicalClient(client)]; ok {
		return profile
	}
	return conservativeProfile
}

// IsOutlook reports whether the client renders with the Word engine
func IsOutlook(client string) bool {
	return canonicalClient(client) == "outlook"
}
