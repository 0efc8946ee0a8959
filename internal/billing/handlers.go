package billing

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/validation"
)

// PageInvoices is the paginated invoice list (swagger only).
type PageInvoices = models.Page[models.Invoice]

type Handler struct {
	db     *gorm.DB
	svc    *Service
	notify *notifications.Emitter
	loc    *time.Location
}

func NewHandler(db *gorm.DB, svc *Service, notify *notifications.Emitter, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{db: db, svc: svc, notify: notify, loc: loc}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Invoice")
	}
	return id, nil
}

// List godoc
// @Summary      List invoices
// @Description  Paginated invoices, newest first, with case and client summaries
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize (alias limit)"
// @Param        search    query string false "invoice number, attorney or description"
// @Param        status    query string false "status"
// @Param        caseId    query string false "case id"
// @Param        clientId  query string false "client id"
// @Success      200  {object}  PageInvoices
// @Router       /billing [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := utils.ParsePage(c)

	q := h.db.WithContext(c.UserContext()).Model(&models.Invoice{})
	q = utils.Search(q, c.Query("search"), "invoice_number", "attorney", "description")
	q = utils.Filter(c, q, "status", "status")
	q, err := utils.FilterIDs(c, q, "caseId", "case_id", "clientId", "client_id")
	if err != nil {
		return err
	}

	res, err := utils.Paginate[models.Invoice](q, page, size, "created_at DESC", withRefs)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(res)
}

// Summary godoc
// @Summary      Billing summary
// @Description  Grand totals, per-status totals and the 6-month paid revenue trend
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Summary
// @Router       /billing/summary [get]
func (h *Handler) Summary(c *fiber.Ctx) error {
	s, err := Summarize(c.UserContext(), h.db, time.Now(), h.loc)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(s)
}

// Get godoc
// @Summary      Invoice detail
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "invoice id (uuid)"
// @Success      200  {object}  models.Invoice
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// Create godoc
// @Summary      Create invoice
// @Description  Allocates the next invoice number; amount is always hours × hourlyRate
// @Tags         billing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateInvoiceRequest  true  "Invoice payload"
// @Success      201  {object}  models.Invoice
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /billing [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	inv, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	h.notify.Emit(c.UserContext(), models.EntityInvoice, models.ActionCreated, Label(inv), auth.ActorFrom(c).DisplayName())
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// Update godoc
// @Summary      Update invoice
// @Description  Partial update; amount is recomputed, moving to Paid stamps paidDate
// @Tags         billing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "invoice id (uuid)"
// @Param        payload  body  UpdateInvoiceRequest  true  "Fields to change"
// @Success      200  {object}  models.Invoice
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	inv, _, err := h.svc.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	label := fmt.Sprintf("%s → %s", inv.InvoiceNumber, inv.Status)
	h.notify.Emit(c.UserContext(), models.EntityInvoice, models.ActionUpdated, label, auth.ActorFrom(c).DisplayName())
	return c.JSON(inv)
}

// MarkPaid godoc
// @Summary      Mark invoice paid
// @Description  Sets status Paid and paidDate to now
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "invoice id (uuid)"
// @Success      200  {object}  models.Invoice
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/{id}/pay [put]
func (h *Handler) MarkPaid(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.MarkPaid(c.UserContext(), id)
	if err != nil {
		return err
	}
	h.notify.Emit(c.UserContext(), models.EntityInvoice, models.ActionUpdated,
		inv.InvoiceNumber+" marked as Paid", auth.ActorFrom(c).DisplayName())
	return c.JSON(inv)
}

// Delete godoc
// @Summary      Delete invoice
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "invoice id (uuid)"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	h.notify.Emit(c.UserContext(), models.EntityInvoice, models.ActionDeleted, inv.InvoiceNumber, auth.ActorFrom(c).DisplayName())
	return c.JSON(models.MessageResponse{Message: "Invoice deleted"})
}
