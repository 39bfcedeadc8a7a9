package conflict

import (
	"context"

	"github.com/freewebtopdf/redirector/internal/domain"
)

// RuleWithConflictInfo extends a rule with conflict information for the admin listing
type RuleWithConflictInfo struct {
	domain.Rule
	HasConflict bool          `json:"has_conflict"`
	Conflict    *ConflictInfo `json:"conflict,omitempty"`
}

// RuleListWithConflicts represents a list of rules with conflict information
type RuleListWithConflicts struct {
	Rules         []RuleWithConflictInfo `json:"rules"`
	Count         int                    `json:"count"`
	ConflictCount int                    `json:"conflict_count"`
}

// ConflictManager combines duplicate detection and reserved path validation
type ConflictManager struct {
	detector  *Detector
	validator *Validator
}

// NewConflictManager creates a new conflict manager
func NewConflictManager(validator *Validator) *ConflictManager {
	return &ConflictManager{
		detector:  NewDetector(),
		validator: validator,
	}
}

// GetDetector returns the duplicate slug detector
func (m *ConflictManager) GetDetector() *Detector {
	return m.detector
}

// GetValidator returns the reserved path validator
func (m *ConflictManager) GetValidator() *Validator {
	return m.validator
}

// EnrichRulesWithConflictInfo flags rules whose slug is duplicated or reserved.
// Reserved path lookup failures leave the rule unflagged.
func (m *ConflictManager) EnrichRulesWithConflictInfo(ctx context.Context, rules []domain.Rule) RuleListWithConflicts {
	duplicates := m.detector.DuplicateSlugs(rules)

	enriched := make([]RuleWithConflictInfo, 0, len(rules))
	conflictCount := 0

	for _, rule := range rules {
		slug := domain.NormalizeSlug(rule.Slug)
		var info *ConflictInfo

		if dup, exists := duplicates[slug]; exists {
			d := dup
			info = &d
		} else if m.validator != nil {
			result, err := m.validator.CheckConflict(ctx, slug, rule.ID)
			if err == nil && result.Conflict {
				info = &ConflictInfo{
					Slug:         result.Slug,
					ReservedID:   result.ReservedID,
					ReservedKind: result.Kind,
					Message:      result.Message,
				}
			}
		}

		if info != nil {
			conflictCount++
		}

		enriched = append(enriched, RuleWithConflictInfo{
			Rule:        rule,
			HasConflict: info != nil,
			Conflict:    info,
		})
	}

	return RuleListWithConflicts{
		Rules:         enriched,
		Count:         len(enriched),
		ConflictCount: conflictCount,
	}
}
