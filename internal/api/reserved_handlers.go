package api

import (
	"context"
	"strings"

	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/reserved"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ReservedSyncer refreshes reserved paths from the host site's index
type ReservedSyncer interface {
	Sync(ctx context.Context) (*reserved.SyncResult, error)
}

// ReservedHandlers contains HTTP handlers for the reserved path namespace
type ReservedHandlers struct {
	repo      domain.ReservedPathRepository
	syncer    ReservedSyncer
	validator domain.Validator
}

// NewReservedHandlers creates a new instance of reserved path handlers
func NewReservedHandlers(repo domain.ReservedPathRepository, syncer ReservedSyncer, validator domain.Validator) *ReservedHandlers {
	return &ReservedHandlers{
		repo:      repo,
		syncer:    syncer,
		validator: validator,
	}
}

// ReservedPathRequest represents the request payload for registering a reserved path
// @Description Request payload for reserving a path
type ReservedPathRequest struct {
	Path string              `json:"path" validate:"required" example:"about"`
	Kind domain.ReservedKind `json:"kind,omitempty" example:"page" enums:"page,post,system"`
}

// ReservedListResponse represents the response for listing reserved paths
// @Description Response containing reserved paths
type ReservedListResponse struct {
	Paths []domain.ReservedPath `json:"paths"`
	Count int                   `json:"count"`
}

// ListReservedHandler handles GET /v1/reserved requests
// @Summary      List reserved paths
// @Description  Lists paths owned by host site content
// @Tags         Reserved
// @Produce      json
// @Success      200 {object} SuccessResponse{data=ReservedListResponse} "Successfully retrieved reserved paths"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/reserved [get]
func (h *ReservedHandlers) ListReservedHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	paths, err := h.repo.ListReservedPaths(ctx)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("Failed to list reserved paths")
		return sendError(c, toAppError(err, "Failed to list reserved paths"))
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: ReservedListResponse{
			Paths: paths,
			Count: len(paths),
		},
	})
}

// CreateReservedHandler handles POST /v1/reserved requests
// @Summary      Reserve a path
// @Description  Registers a path owned by a page, post or system route
// @Tags         Reserved
// @Accept       json
// @Produce      json
// @Param        request body ReservedPathRequest true "Path to reserve"
// @Success      201 {object} SuccessResponse{data=domain.ReservedPath} "Path reserved"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      409 {object} ErrorResponse "Path already reserved"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Router       /v1/reserved [post]
func (h *ReservedHandlers) CreateReservedHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req ReservedPathRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "create_reserved_parsing"))
	}

	path := domain.ReservedPath{
		Path:   domain.NormalizeSlug(strings.TrimSpace(req.Path)),
		Kind:   req.Kind,
		Source: domain.SourceManual,
	}
	if path.Kind == "" {
		path.Kind = domain.ReservedPage
	}

	if err := h.validator.ValidateReservedPath(&path); err != nil {
		return sendError(c, toAppError(err, "Invalid reserved path"))
	}

	if err := h.repo.CreateReservedPath(ctx, &path); err != nil {
		return sendError(c, toAppError(err, "Failed to reserve path"))
	}

	log.Info().Str("path", path.Path).Str("kind", string(path.Kind)).Msg("Path reserved")

	return c.Status(201).JSON(SuccessResponse{
		Status: "success",
		Data:   path,
	})
}

// DeleteReservedHandler handles DELETE /v1/reserved/:id requests
// @Summary      Release a reserved path
// @Tags         Reserved
// @Produce      json
// @Param        id path string true "Reserved path ID"
// @Success      200 {object} SuccessResponse{data=object{message=string,id=string}} "Path released"
// @Failure      404 {object} ErrorResponse "Reserved path not found"
// @Router       /v1/reserved/{id} [delete]
func (h *ReservedHandlers) DeleteReservedHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id := strings.TrimSpace(c.Params("id"))
	if err := h.repo.DeleteReservedPath(ctx, id); err != nil {
		return sendError(c, toAppError(err, "Failed to release reserved path"))
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"message": "Reserved path deleted successfully",
			"id":      id,
		},
	})
}

// SyncReservedHandler handles POST /v1/reserved/sync requests
// @Summary      Sync reserved paths
// @Description  Fetches the host site's reserved path index now instead of waiting for the schedule
// @Tags         Reserved
// @Produce      json
// @Success      200 {object} SuccessResponse{data=reserved.SyncResult} "Sync completed"
// @Failure      404 {object} ErrorResponse "No index configured"
// @Failure      502 {object} ErrorResponse "Index unavailable"
// @Router       /v1/reserved/sync [post]
func (h *ReservedHandlers) SyncReservedHandler(c *fiber.Ctx) error {
	if h.syncer == nil {
		return sendError(c, domain.NewAppError(
			domain.ErrNotFound,
			"Reserved path index is not configured",
			404,
			nil,
		))
	}

	result, err := h.syncer.Sync(c.UserContext())
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("Manual reserved path sync failed")
		return sendError(c, toAppError(err, "Reserved path sync failed"))
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   result,
	})
}
