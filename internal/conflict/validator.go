package conflict

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/rs/zerolog/log"
)

// WarningFormat is the notice shown to an administrator whose slug is already claimed
const WarningFormat = "WARNING: The slug \"%s\" is already used by a Page or Post on this site. " +
	"This redirect might not work until you change the Title/Slug to something unique."

// DefaultSystemPaths are claimed by the service itself and never reach the resolver
var DefaultSystemPaths = []string{"health", "metrics", "swagger"}

// Validator checks candidate slugs against the reserved path namespace.
// A conflict is advisory: it never blocks a rule from being saved.
type Validator struct {
	reserved domain.ReservedPathRepository
	notices  domain.NoticeQueue
	system   map[string]struct{}
}

// NewValidator creates a validator. systemPaths are extra first path segments
// owned by the service, typically the admin prefix.
func NewValidator(reserved domain.ReservedPathRepository, notices domain.NoticeQueue, systemPaths ...string) *Validator {
	system := make(map[string]struct{}, len(DefaultSystemPaths)+len(systemPaths))
	for _, p := range append(append([]string{}, DefaultSystemPaths...), systemPaths...) {
		p = domain.NormalizeSlug(p)
		if p != "" {
			system[p] = struct{}{}
		}
	}

	return &Validator{
		reserved: reserved,
		notices:  notices,
		system:   system,
	}
}

// CheckConflict reports whether slug collides with a reserved path other than ownerRuleID
func (v *Validator) CheckConflict(ctx context.Context, slug, ownerRuleID string) (domain.ConflictResult, error) {
	slug = domain.NormalizeSlug(slug)
	if slug == "" {
		return domain.ConflictResult{}, nil
	}

	if _, ok := v.system[slug]; ok {
		return conflictResult(slug, "", string(domain.ReservedSystem)), nil
	}

	if v.reserved == nil {
		return domain.ConflictResult{Slug: slug}, nil
	}

	path, found, err := v.reserved.PathIsReserved(ctx, slug, ownerRuleID)
	if err != nil {
		return domain.ConflictResult{Slug: slug}, domain.NewAppErrorWithCause(
			domain.ErrLookupUnavailable,
			"Reserved path lookup failed",
			503,
			err,
			map[string]string{"slug": slug},
		).WithContext(ctx, "check_conflict")
	}
	if !found {
		return domain.ConflictResult{Slug: slug}, nil
	}

	return conflictResult(slug, path.ID, string(path.Kind)), nil
}

// Advise runs the check for a saved rule and queues a one-shot notice on conflict.
// Lookup failures are logged and reported as no conflict.
func (v *Validator) Advise(ctx context.Context, rule *domain.Rule) domain.ConflictResult {
	if rule == nil {
		return domain.ConflictResult{}
	}

	result, err := v.CheckConflict(ctx, rule.Slug, rule.ID)
	if err != nil {
		log.Warn().Err(err).Str("rule_id", rule.ID).Str("slug", rule.Slug).Msg("Conflict check failed, saving without warning")
		return domain.ConflictResult{Slug: result.Slug}
	}
	if !result.Conflict {
		return result
	}

	log.Info().
		Str("rule_id", rule.ID).
		Str("slug", result.Slug).
		Str("reserved_kind", result.Kind).
		Msg("Redirect slug shadows a reserved path")

	if v.notices != nil {
		notice := domain.Notice{
			RuleID:    rule.ID,
			Kind:      domain.NoticeSlugConflict,
			Slug:      result.Slug,
			Message:   result.Message,
			CreatedAt: time.Now(),
		}
		if err := v.notices.Push(ctx, notice); err != nil {
			log.Warn().Err(err).Str("rule_id", rule.ID).Msg("Failed to queue conflict notice")
		}
	}

	return result
}

// IsSystemPath reports whether the first segment of path is owned by the service
func (v *Validator) IsSystemPath(path string) bool {
	path = domain.NormalizeSlug(path)
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	_, ok := v.system[path]
	return ok
}

func conflictResult(slug, reservedID, kind string) domain.ConflictResult {
	return domain.ConflictResult{
		Conflict:   true,
		Code:       domain.ErrSlugConflict,
		Slug:       slug,
		ReservedID: reservedID,
		Kind:       kind,
		Message:    fmt.Sprintf(WarningFormat, slug),
	}
}
