// Package conflict detects redirect slugs that cannot be served: slugs claimed by
// host site content and slugs shared by more than one rule.
package conflict

import (
	"sort"

	"github.com/freewebtopdf/redirector/internal/domain"
)

// ConflictInfo describes why a rule's slug is not reliably reachable
type ConflictInfo struct {
	Slug         string   `json:"slug"`
	RuleIDs      []string `json:"rule_ids,omitempty"`
	ActiveRuleID string   `json:"active_rule_id,omitempty"`
	ReservedID   string   `json:"reserved_id,omitempty"`
	ReservedKind string   `json:"reserved_kind,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Detector identifies rules that share a slug
type Detector struct{}

// NewDetector creates a new conflict detector
func NewDetector() *Detector {
	return &Detector{}
}

// DuplicateSlugs groups rule IDs by slug and returns only slugs used by more than one rule.
// IDs are ordered newest first, so the first ID is the rule a file store keeps on load.
func (d *Detector) DuplicateSlugs(rules []domain.Rule) map[string]ConflictInfo {
	bySlug := make(map[string][]domain.Rule)
	for _, rule := range rules {
		slug := domain.NormalizeSlug(rule.Slug)
		if slug == "" {
			continue
		}
		bySlug[slug] = append(bySlug[slug], rule)
	}

	conflicts := make(map[string]ConflictInfo)
	for slug, group := range bySlug {
		if len(group) < 2 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})

		ids := make([]string, 0, len(group))
		for _, rule := range group {
			ids = append(ids, rule.ID)
		}

		conflicts[slug] = ConflictInfo{
			Slug:         slug,
			RuleIDs:      ids,
			ActiveRuleID: ids[0],
			Message:      "Slug is used by more than one redirect rule",
		}
	}

	return conflicts
}

// HasDuplicate reports whether slug is used by more than one of the rules
func (d *Detector) HasDuplicate(slug string, rules []domain.Rule) bool {
	slug = domain.NormalizeSlug(slug)
	count := 0
	for _, rule := range rules {
		if domain.NormalizeSlug(rule.Slug) == slug {
			count++
			if count > 1 {
				return true
			}
		}
	}
	return false
}
