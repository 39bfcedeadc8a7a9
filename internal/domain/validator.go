package domain

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxSlugLength   = 200
	maxTargetLength = 2048
)

// InputValidator implements comprehensive input validation
type InputValidator struct {
	allowedSchemes    []string
	dangerousPatterns []*regexp.Regexp
}

// NewInputValidator creates a new input validator with default settings
func NewInputValidator() *InputValidator {
	return &InputValidator{
		allowedSchemes: []string{"http", "https"},
		dangerousPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<script[^>]*>`),
			regexp.MustCompile(`(?i)javascript:`),
			regexp.MustCompile(`(?i)vbscript:`),
		},
	}
}

// NewValidator creates a new input validator instance
func NewValidator() Validator {
	return NewInputValidator()
}

// ValidateRule validates a complete rule structure
func (v *InputValidator) ValidateRule(rule *Rule) error {
	if rule == nil {
		return NewAppError(ErrValidationFailed, "Rule cannot be nil", 422, nil)
	}

	if rule.ID == "" {
		return NewAppError(ErrValidationFailed, "Rule ID is required", 422, map[string]any{"field": "id"})
	}

	if err := v.ValidateSlug(rule.Slug); err != nil {
		return err
	}

	// An empty target is allowed; the rule simply never matches
	if rule.TargetURL != "" {
		if err := v.ValidateTargetURL(rule.TargetURL); err != nil {
			return err
		}
	}

	return v.validateStatus(rule.Status)
}

// ValidateSlug checks that a slug can be matched against a normalized request path
func (v *InputValidator) ValidateSlug(slug string) error {
	if slug == "" {
		return NewAppError(ErrValidationFailed, "Slug is required", 422, map[string]any{"field": "slug"})
	}

	if len(slug) > maxSlugLength {
		return NewAppError(ErrValidationFailed, "Slug too long (max 200 characters)", 422, map[string]any{
			"field":      "slug",
			"length":     len(slug),
			"max_length": maxSlugLength,
		})
	}

	if !utf8.ValidString(slug) {
		return NewAppError(ErrValidationFailed, "Slug must be valid UTF-8", 422, map[string]any{"field": "slug"})
	}

	if strings.Contains(slug, "/") {
		return NewAppError(ErrValidationFailed, "Slug must be a single path segment", 422, map[string]any{
			"field": "slug",
			"value": slug,
		})
	}

	if strings.IndexFunc(slug, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return NewAppError(ErrValidationFailed, "Slug must not contain whitespace or control characters", 422, map[string]any{
			"field": "slug",
			"value": slug,
		})
	}

	return nil
}

// ValidateTargetURL validates the destination of a redirect
func (v *InputValidator) ValidateTargetURL(urlStr string) error {
	if urlStr == "" {
		return NewAppError(ErrValidationFailed, "Target URL is required", 422, map[string]any{"field": "target_url"})
	}

	if len(urlStr) > maxTargetLength {
		return NewAppError(ErrValidationFailed, "Target URL too long (max 2048 characters)", 422, map[string]any{
			"field":      "target_url",
			"length":     len(urlStr),
			"max_length": maxTargetLength,
		})
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return NewAppErrorWithCause(ErrValidationFailed, "Invalid URL format", 422, err, map[string]any{"field": "target_url"})
	}

	if !v.isAllowedScheme(parsedURL.Scheme) {
		return NewAppError(ErrValidationFailed, "Only HTTP and HTTPS URLs are allowed", 422, map[string]any{
			"field":           "target_url",
			"scheme":          parsedURL.Scheme,
			"allowed_schemes": v.allowedSchemes,
		})
	}

	if parsedURL.Host == "" {
		return NewAppError(ErrValidationFailed, "URL must have a valid host", 422, map[string]any{"field": "target_url"})
	}

	if v.containsDangerousPatterns(urlStr) {
		return NewAppError(ErrValidationFailed, "URL contains potentially dangerous content", 422, map[string]any{"field": "target_url"})
	}

	return nil
}

// ValidateReservedPath validates a reserved path entry after normalization
func (v *InputValidator) ValidateReservedPath(path *ReservedPath) error {
	if path == nil {
		return NewAppError(ErrValidationFailed, "Reserved path cannot be nil", 422, nil)
	}
	if path.Path == "" {
		return NewAppError(ErrValidationFailed, "Path is required", 422, map[string]any{"field": "path"})
	}
	if len(path.Path) > maxSlugLength {
		return NewAppError(ErrValidationFailed, "Path too long (max 200 characters)", 422, map[string]any{"field": "path"})
	}
	switch path.Kind {
	case "", ReservedPage, ReservedPost, ReservedSystem:
		return nil
	}
	return NewAppError(ErrValidationFailed, "Invalid reserved path kind", 422, map[string]any{
		"field":          "kind",
		"value":          path.Kind,
		"allowed_values": []ReservedKind{ReservedPage, ReservedPost, ReservedSystem},
	})
}

func (v *InputValidator) validateStatus(status RuleStatus) error {
	allowed := []RuleStatus{StatusPublished, StatusUnpublished}
	if slices.Contains(allowed, status) {
		return nil
	}
	return NewAppError(ErrValidationFailed, "Invalid rule status", 422, map[string]any{
		"field":          "status",
		"value":          status,
		"allowed_values": allowed,
	})
}

// isAllowedScheme checks if the URL scheme is allowed
func (v *InputValidator) isAllowedScheme(scheme string) bool {
	return slices.Contains(v.allowedSchemes, strings.ToLower(scheme))
}

func (v *InputValidator) containsDangerousPatterns(content string) bool {
	for _, pattern := range v.dangerousPatterns {
		if pattern.MatchString(content) {
			return true
		}
	}
	return false
}
