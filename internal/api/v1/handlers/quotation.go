package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/handyhub/quotehub/internal/api/v1/middleware"
	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/services"
	"github.com/handyhub/quotehub/internal/types"
)

// QuotationHandler handles HTTP requests for quotation operations
type QuotationHandler struct {
	service *services.Quotation
}

// NewQuotationHandler creates a new quotation handler instance
func NewQuotationHandler(service *services.Quotation) *QuotationHandler {
	return &QuotationHandler{service: service}
}

type decisionRequest struct {
	CustomerNotes string `json:"customer_notes"`
}

// SubmitQuote handles a provider submitting a quote for a job
func (h *QuotationHandler) SubmitQuote(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	var params services.SubmitParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidReqBody))
	}

	quote, err := h.service.Submit(c.Context(), &params, identity.UserID, identity.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(types.Success(quote))
}

// ListMyQuotes handles listing the authenticated provider's quotes
func (h *QuotationHandler) ListMyQuotes(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	var status *models.QuoteStatus
	if statusStr := c.Query("status"); statusStr != "" {
		parsed, err := models.ParseQuoteStatus(statusStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidQuoteStatus))
		}
		status = &parsed
	}

	quotes, err := h.service.ListByProvider(c.Context(), identity.UserID, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.ListResponse[models.Quotation]{
		Rows: quotes,
		Pagination: types.PaginationResponse{
			Total: len(quotes),
			Page:  1,
			Limit: len(quotes),
		},
	})
}

// UpdateQuote handles a provider editing a still-pending quote
func (h *QuotationHandler) UpdateQuote(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	quoteID := c.Params("id")
	if quoteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgQuoteIDRequired))
	}

	var params services.SubmitParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidReqBody))
	}

	quote, err := h.service.Update(c.Context(), quoteID, identity.UserID, &params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(quote))
}

// CancelQuote handles a provider withdrawing a pending quote
func (h *QuotationHandler) CancelQuote(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	quoteID := c.Params("id")
	if quoteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgQuoteIDRequired))
	}

	quote, err := h.service.Cancel(c.Context(), quoteID, identity.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(quote))
}

// DeleteQuote handles a provider removing a non-accepted quote entirely
func (h *QuotationHandler) DeleteQuote(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	quoteID := c.Params("id")
	if quoteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgQuoteIDRequired))
	}

	if err := h.service.Remove(c.Context(), quoteID, identity.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(nil))
}

// GetQuote returns details of a specific quotation
func (h *QuotationHandler) GetQuote(c *fiber.Ctx) error {
	quoteID := c.Params("id")
	if quoteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgQuoteIDRequired))
	}

	quote, err := h.service.GetByID(c.Context(), quoteID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(quote))
}

// ListJobQuotes handles the customer listing a job's quotes with a summary
func (h *QuotationHandler) ListJobQuotes(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgJobIDRequired))
	}

	view, err := h.service.FindByJob(c.Context(), jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(view))
}

// AcceptQuote handles the customer accepting a quote. Every other pending
// quote for the job is rejected in the same transaction.
func (h *QuotationHandler) AcceptQuote(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	quoteID := c.Params("id")
	if quoteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgQuoteIDRequired))
	}

	var req decisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidReqBody))
		}
	}

	quote, err := h.service.Accept(c.Context(), quoteID, identity.UserID, req.CustomerNotes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(quote))
}

// RejectQuote handles the customer rejecting a single quote
func (h *QuotationHandler) RejectQuote(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	quoteID := c.Params("id")
	if quoteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgQuoteIDRequired))
	}

	var req decisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidReqBody))
		}
	}

	quote, err := h.service.Reject(c.Context(), quoteID, identity.UserID, req.CustomerNotes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(quote))
}
