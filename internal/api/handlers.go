package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/redirector/internal/conflict"
	"github.com/freewebtopdf/redirector/internal/domain"
)

// StatsProvider exposes component statistics for the metrics endpoint
type StatsProvider interface {
	GetStats() map[string]any
}

// bulkVisitCounter reads many visit counts in one round trip
type bulkVisitCounter interface {
	Counts(ctx context.Context, ruleIDs []string) (map[string]int64, error)
}

// visitForgetter drops the count of a deleted rule
type visitForgetter interface {
	Forget(ctx context.Context, ruleID string) error
}

// Handlers contains all HTTP handlers for the admin API
type Handlers struct {
	resolver      domain.RedirectResolver
	repository    domain.RuleRepository
	visits        domain.VisitCounter
	conflicts     *conflict.ConflictManager
	checker       domain.ConflictChecker
	notices       domain.NoticeQueue
	cache         domain.CacheManager
	validator     domain.Validator
	healthChecker domain.HealthChecker
	counterStats  StatsProvider
}

// NewHandlers creates a new instance of API handlers
func NewHandlers(deps RouterDependencies) *Handlers {
	return &Handlers{
		resolver:      deps.Resolver,
		repository:    deps.Repository,
		visits:        deps.Visits,
		conflicts:     deps.Conflicts,
		checker:       deps.Checker,
		notices:       deps.Notices,
		cache:         deps.Cache,
		validator:     deps.Validator,
		healthChecker: deps.HealthChecker,
		counterStats:  deps.CounterStats,
	}
}

// ErrorResponse represents the standard error response format
// @Description Standard error response format
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Invalid input provided"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse represents the standard success response format
// @Description Standard success response format
type SuccessResponse struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

// CreateRuleRequest represents the request payload for creating a rule
// @Description Request payload for creating a redirect rule
type CreateRuleRequest struct {
	ID          string            `json:"id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Slug        string            `json:"slug" validate:"required" example:"promo"`
	TargetURL   string            `json:"target_url" example:"https://partner.example.com/offer"`
	Status      domain.RuleStatus `json:"status,omitempty" example:"published" enums:"published,unpublished"`
	Description string            `json:"description,omitempty" example:"Spring campaign landing page"`
}

// UpdateRuleRequest represents the request payload for updating a rule.
// Omitted fields keep their current value; an empty target_url clears the destination.
// @Description Request payload for updating a redirect rule
type UpdateRuleRequest struct {
	Slug        *string            `json:"slug,omitempty" example:"promo"`
	TargetURL   *string            `json:"target_url,omitempty" example:"https://partner.example.com/offer"`
	Status      *domain.RuleStatus `json:"status,omitempty" example:"unpublished" enums:"published,unpublished"`
	Description *string            `json:"description,omitempty" example:"Updated description"`
}

// RuleResponse carries a saved rule and the advisory conflict check
// @Description Saved rule with advisory conflict information
type RuleResponse struct {
	Rule     domain.Rule           `json:"rule"`
	Conflict domain.ConflictResult `json:"conflict"`
}

// RuleDetailResponse carries a rule and its pending one-shot notices
// @Description Rule with pending admin notices
type RuleDetailResponse struct {
	Rule    domain.Rule     `json:"rule"`
	Notices []domain.Notice `json:"notices"`
}

// ConflictCheckRequest represents the request payload for a conflict check
// @Description Request payload for checking a slug against reserved paths
type ConflictCheckRequest struct {
	Slug   string `json:"slug" validate:"required" example:"about"`
	RuleID string `json:"rule_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// HealthResponse represents the health check response
// @Description Health check response
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Timestamp string `json:"timestamp" example:"2023-01-01T12:00:00Z"`
}

// ListRulesHandler handles GET /v1/rules requests
// @Summary      List all rules
// @Description  Retrieves every redirect rule with current visit counts and conflict flags
// @Tags         Rules
// @Produce      json
// @Success      200 {object} SuccessResponse{data=conflict.RuleListWithConflicts} "Successfully retrieved rules"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules [get]
func (h *Handlers) ListRulesHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	rules, err := h.repository.GetAllRules(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Msg("Failed to retrieve rules")

		return h.sendError(c, domain.NewAppError(
			domain.ErrInternal,
			"Failed to retrieve rules",
			500,
			nil,
		).WithContext(ctx, "list_rules_retrieval"))
	}

	h.applyVisitCounts(ctx, rules)

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.conflicts.EnrichRulesWithConflictInfo(ctx, rules),
	})
}

// GetRuleHandler handles GET /v1/rules/:id requests
// @Summary      Get a rule
// @Description  Retrieves a rule and consumes its pending admin notices; each notice is returned once
// @Tags         Rules
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      200 {object} SuccessResponse{data=RuleDetailResponse} "Successfully retrieved rule"
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Router       /v1/rules/{id} [get]
func (h *Handlers) GetRuleHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	rule, err := h.repository.GetRuleByID(ctx, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return h.sendError(c, toAppError(err, "Failed to retrieve rule"))
	}

	rules := []domain.Rule{*rule}
	h.applyVisitCounts(ctx, rules)

	notices := []domain.Notice{}
	if h.notices != nil {
		pending, err := h.notices.Consume(ctx, rule.ID)
		if err != nil {
			log.Warn().Err(err).Str("rule_id", rule.ID).Msg("Failed to read admin notices")
		} else if len(pending) > 0 {
			notices = pending
		}
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   RuleDetailResponse{Rule: rules[0], Notices: notices},
	})
}

// CreateRuleHandler handles POST /v1/rules requests
// @Summary      Create a rule
// @Description  Creates a redirect rule with a visit count of zero. A slug that shadows a reserved path is saved and reported as a conflict.
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        rule body CreateRuleRequest true "Rule to create"
// @Success      201 {object} SuccessResponse{data=RuleResponse} "Successfully created rule"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      409 {object} ErrorResponse "Slug already used by another rule"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules [post]
func (h *Handlers) CreateRuleHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "create_rule_parsing"))
	}

	rule := domain.Rule{
		ID:          strings.TrimSpace(req.ID),
		Slug:        domain.NormalizeSlug(strings.TrimSpace(req.Slug)),
		TargetURL:   strings.TrimSpace(req.TargetURL),
		Status:      req.Status,
		Description: strings.TrimSpace(req.Description),
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.Status == "" {
		rule.Status = domain.StatusPublished
	}

	if err := h.validator.ValidateRule(&rule); err != nil {
		return h.sendError(c, toAppError(err, "Invalid rule").WithContext(ctx, "create_rule_validation"))
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := h.repository.CreateRule(ctx, &rule); err != nil {
		log.Error().Err(err).Str("rule_id", rule.ID).Str("slug", rule.Slug).Msg("Failed to create rule")
		return h.sendError(c, toAppError(err, "Failed to create rule"))
	}

	h.resolver.Invalidate(rule.Slug)

	return c.Status(201).JSON(SuccessResponse{
		Status: "success",
		Data: RuleResponse{
			Rule:     rule,
			Conflict: h.checker.Advise(ctx, &rule),
		},
	})
}

// UpdateRuleHandler handles PUT /v1/rules/:id requests
// @Summary      Update a rule
// @Description  Updates the provided fields of a redirect rule. The visit count is never changed by an update.
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Param        rule body UpdateRuleRequest true "Rule fields to update"
// @Success      200 {object} SuccessResponse{data=RuleResponse} "Successfully updated rule"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Failure      409 {object} ErrorResponse "Slug already used by another rule"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules/{id} [put]
func (h *Handlers) UpdateRuleHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	ruleID := strings.TrimSpace(c.Params("id"))
	existing, err := h.repository.GetRuleByID(ctx, ruleID)
	if err != nil {
		return h.sendError(c, toAppError(err, "Failed to retrieve rule"))
	}
	previousSlug := existing.Slug

	var req UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "update_rule_parsing"))
	}

	if req.Slug != nil {
		existing.Slug = domain.NormalizeSlug(strings.TrimSpace(*req.Slug))
	}
	if req.TargetURL != nil {
		existing.TargetURL = strings.TrimSpace(*req.TargetURL)
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	existing.UpdatedAt = time.Now()

	if err := h.validator.ValidateRule(existing); err != nil {
		return h.sendError(c, toAppError(err, "Invalid rule").WithContext(ctx, "update_rule_validation"))
	}

	if err := h.repository.UpdateRule(ctx, existing); err != nil {
		log.Error().Err(err).Str("rule_id", existing.ID).Msg("Failed to update rule")
		return h.sendError(c, toAppError(err, "Failed to update rule"))
	}

	h.resolver.Invalidate(previousSlug)
	h.resolver.Invalidate(existing.Slug)

	rules := []domain.Rule{*existing}
	h.applyVisitCounts(ctx, rules)

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: RuleResponse{
			Rule:     rules[0],
			Conflict: h.checker.Advise(ctx, existing),
		},
	})
}

// DeleteRuleHandler handles DELETE /v1/rules/:id requests
// @Summary      Delete a rule
// @Description  Deletes a redirect rule by its ID
// @Tags         Rules
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      200 {object} SuccessResponse{data=object{message=string,rule_id=string}} "Successfully deleted rule"
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules/{id} [delete]
func (h *Handlers) DeleteRuleHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	ruleID := strings.TrimSpace(c.Params("id"))
	existing, err := h.repository.GetRuleByID(ctx, ruleID)
	if err != nil {
		return h.sendError(c, toAppError(err, "Failed to retrieve rule"))
	}

	if err := h.repository.DeleteRule(ctx, ruleID); err != nil {
		log.Error().Err(err).Str("rule_id", ruleID).Msg("Failed to delete rule")
		return h.sendError(c, toAppError(err, "Failed to delete rule"))
	}

	h.resolver.Invalidate(existing.Slug)

	if forgetter, ok := h.visits.(visitForgetter); ok {
		if err := forgetter.Forget(ctx, ruleID); err != nil {
			log.Warn().Err(err).Str("rule_id", ruleID).Msg("Failed to drop visit count of deleted rule")
		}
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"message": "Rule deleted successfully",
			"rule_id": ruleID,
		},
	})
}

// CheckConflictHandler handles POST /v1/conflicts/check requests
// @Summary      Check a slug for conflicts
// @Description  Reports whether a slug is already claimed by a page, post or system path. The result is advisory.
// @Tags         Conflicts
// @Accept       json
// @Produce      json
// @Param        request body ConflictCheckRequest true "Slug to check"
// @Success      200 {object} SuccessResponse{data=domain.ConflictResult} "Check completed"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      503 {object} ErrorResponse "Reserved path lookup failed"
// @Router       /v1/conflicts/check [post]
func (h *Handlers) CheckConflictHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req ConflictCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return h.sendError(c, domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "conflict_check_parsing"))
	}

	slug := domain.NormalizeSlug(strings.TrimSpace(req.Slug))
	if err := h.validator.ValidateSlug(slug); err != nil {
		return h.sendError(c, toAppError(err, "Invalid slug"))
	}

	result, err := h.checker.CheckConflict(ctx, slug, strings.TrimSpace(req.RuleID))
	if err != nil {
		return h.sendError(c, toAppError(err, "Conflict check failed"))
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   result,
	})
}

// ResolveHandler handles GET /v1/resolve requests
// @Summary      Preview redirect resolution
// @Description  Shows what the dispatcher would do for a request path. No visit is recorded.
// @Tags         Resolution
// @Produce      json
// @Param        path query string true "Request path" example(/promo)
// @Success      200 {object} SuccessResponse{data=domain.Outcome} "Resolution outcome"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Router       /v1/resolve [get]
func (h *Handlers) ResolveHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	path := c.Query("path")
	if path == "" {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Query parameter path is required",
			422,
			map[string]string{"field": "path", "reason": "required"},
		))
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.resolver.Preview(ctx, path),
	})
}

// HealthHandler handles GET /health requests
// @Summary      Health check
// @Description  Returns the health status of the service
// @Tags         System
// @Produce      json
// @Success      200 {object} HealthResponse "Service is healthy"
// @Failure      503 {object} HealthResponse "Service is degraded or unhealthy"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *fiber.Ctx) error {
	health := h.healthChecker.CheckHealth(c.UserContext())

	status := 200
	if health.Status != domain.HealthStatusHealthy {
		status = 503
	}

	return c.Status(status).JSON(map[string]any{
		"status":     health.Status,
		"timestamp":  health.Timestamp.Format(time.RFC3339),
		"components": health.Components,
		"uptime":     health.Uptime,
	})
}

// MetricsHandler handles GET /metrics requests
// @Summary      System metrics
// @Description  Returns cache, resolver and visit counter statistics
// @Tags         System
// @Produce      json
// @Success      200 {object} SuccessResponse "Successfully retrieved metrics"
// @Router       /metrics [get]
func (h *Handlers) MetricsHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cacheStats := h.cache.Stats()

	rules, err := h.repository.GetAllRules(ctx)
	ruleCount, published := 0, 0
	if err == nil {
		ruleCount = len(rules)
		for i := range rules {
			if rules[i].IsMatchable() {
				published++
			}
		}
	}

	data := map[string]any{
		"cache": map[string]any{
			"hits":      cacheStats.Hits,
			"misses":    cacheStats.Misses,
			"size":      cacheStats.Size,
			"max_size":  cacheStats.MaxSize,
			"hit_ratio": cacheStats.HitRatio,
		},
		"rules": map[string]any{
			"count":     ruleCount,
			"matchable": published,
		},
		"resolver": h.resolver.GetStats(ctx),
		"uptime": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if h.counterStats != nil {
		data["counter"] = h.counterStats.GetStats()
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   data,
	})
}

// applyVisitCounts overlays counts from the visit counter, which may live outside the rule store
func (h *Handlers) applyVisitCounts(ctx context.Context, rules []domain.Rule) {
	if h.visits == nil || len(rules) == 0 {
		return
	}

	if bulk, ok := h.visits.(bulkVisitCounter); ok {
		ids := make([]string, len(rules))
		for i := range rules {
			ids[i] = rules[i].ID
		}
		counts, err := bulk.Counts(ctx, ids)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read visit counts")
			return
		}
		for i := range rules {
			rules[i].VisitCount = counts[rules[i].ID]
		}
		return
	}

	for i := range rules {
		count, err := h.visits.VisitCount(ctx, rules[i].ID)
		if err != nil {
			log.Warn().Err(err).Str("rule_id", rules[i].ID).Msg("Failed to read visit count")
			continue
		}
		rules[i].VisitCount = count
	}
}

// sendError sends a standardized error response
func (h *Handlers) sendError(c *fiber.Ctx, appErr *domain.AppError) error {
	return sendError(c, appErr)
}

func sendError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// toAppError keeps domain errors as they are and hides anything else behind a 500
func toAppError(err error, message string) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domain.NewAppErrorWithCause(domain.ErrInternal, message, 500, err, nil)
}

func requestID(c *fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok {
		return rid
	}
	return ""
}
