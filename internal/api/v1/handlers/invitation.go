package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/handyhub/quotehub/internal/api/v1/middleware"
	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/services"
	"github.com/handyhub/quotehub/internal/types"
)

// InvitationHandler handles HTTP requests for invitation operations
type InvitationHandler struct {
	service *services.Invitation
}

// NewInvitationHandler creates a new invitation handler instance
func NewInvitationHandler(service *services.Invitation) *InvitationHandler {
	return &InvitationHandler{service: service}
}

// ListMyInvitations handles listing the authenticated provider's invitations
func (h *InvitationHandler) ListMyInvitations(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	var status *models.InviteStatus
	if statusStr := c.Query("status"); statusStr != "" {
		parsed, err := models.ParseInviteStatus(statusStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidInviteStatus))
		}
		status = &parsed
	}

	invitations, err := h.service.ListByProvider(c.Context(), identity.UserID, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.ListResponse[models.Invitation]{
		Rows: invitations,
		Pagination: types.PaginationResponse{
			Total: len(invitations),
			Page:  1,
			Limit: len(invitations),
		},
	})
}

// DeclineInvitation handles a provider declining an invitation without quoting
func (h *InvitationHandler) DeclineInvitation(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	inviteID := c.Params("id")
	if inviteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInviteIDRequired))
	}

	invitation, err := h.service.Decline(c.Context(), inviteID, identity.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(invitation))
}

// GetJobInvitationStats handles the customer's invitation stats for a job
func (h *InvitationHandler) GetJobInvitationStats(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgJobIDRequired))
	}

	stats, err := h.service.StatsForJob(c.Context(), jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(stats))
}
