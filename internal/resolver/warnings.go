package resolver

import (
	"strings"

	"cssinline/internal/config"
	"cssinline/internal/css"
)

// ValidationWarning represents a potential issue with computed styles
type ValidationWarning struct {
	Property string
	Value    string
	Message  string
	Severity string // "error", "warning", "info"
}

// ValidateStyles checks if the computed styles are valid for email clients
func (r *Resolver) ValidateStyles(styles []css.Declaration) []ValidationWarning {
	var warnings []ValidationWarning

	compatibility := config.GetCompatibilityProfile(r.config.TargetEmailClient)

	for _, declaration := range styles {
		property := declaration.Property
		value := strings.ToLower(declaration.Value)

		// Check for problematic property values
		switch property {
		case "background-image", "background":
			if strings.Contains(value, "url(") && config.IsOutlook(r.config.TargetEmailClient) {
				warnings = append(warnings, ValidationWarning{
					Property: property,
					Value:    declaration.Value,
					Message:  "Background images may not render in Outlook desktop",
					Severity: "warning",
				})
			}

		case "width", "height", "max-width", "min-width", "max-height", "min-height":
			if strings.Contains(value, "vw") || strings.Contains(value, "vh") {
				warnings = append(warnings, ValidationWarning{
					Property: property,
					Value:    declaration.Value,
					Message:  "Viewport units not supported in email clients",
					Severity: "error",
				})
			}

		case "position":
			if !strings.HasPrefix(value, "static") && compatibility.RequiresInlineStyles {
				warnings = append(warnings, ValidationWarning{
					Property: property,
					Value:    declaration.Value,
					Message:  "Positioning not supported in this email client",
					Severity: "warning",
				})
			}
		}

		// Check for email-unsafe properties
		if !css.IsEmailSafeProperty(property) {
			warnings = append(warnings, ValidationWarning{
				Property: property,
				Value:    declaration.Value,
				Message:  "Property may not be supported across all email clients",
				Severity: "info",
			})
		}
	}

	return warnings
}

// String formats the warning for reports
func (w ValidationWarning) String() string {
	return w.Severity + ": " + w.Property + ":" + w.Value + " - " + w.Message
}
