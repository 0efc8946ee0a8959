package clients

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/cascade"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/validation"
)

const duplicateEmail = "A client with this email already exists"

// ===== DTOs =====

type CreateClientRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email,max=120"`
	Phone      string `json:"phone" validate:"max=40"`
	Company    string `json:"company" validate:"max=120"`
	Type       string `json:"type" validate:"omitempty,client_type"`
	Address    string `json:"address" validate:"max=300"`
	Status     string `json:"status" validate:"omitempty,client_status"`
	JoinedDate string `json:"joinedDate"`
}

// UpdateClientRequest has no activeCases: the counter is maintained by case writes only.
type UpdateClientRequest struct {
	Name       *string `json:"name" validate:"omitnil,min=1,max=120"`
	Email      *string `json:"email" validate:"omitnil,email,max=120"`
	Phone      *string `json:"phone" validate:"omitnil,max=40"`
	Company    *string `json:"company" validate:"omitnil,max=120"`
	Type       *string `json:"type" validate:"omitnil,client_type"`
	Address    *string `json:"address" validate:"omitnil,max=300"`
	Status     *string `json:"status" validate:"omitnil,client_status"`
	JoinedDate *string `json:"joinedDate"`
}

type PageClients = models.Page[models.Client]

// DeleteResponse reports what the client cascade removed.
type DeleteResponse struct {
	Message string         `json:"message"`
	Removed cascade.Result `json:"removed"`
}

type Handler struct {
	db      *gorm.DB
	cascade *cascade.Engine
	notify  *notifications.Emitter
}

func NewHandler(db *gorm.DB, ce *cascade.Engine, notify *notifications.Emitter) *Handler {
	return &Handler{db: db, cascade: ce, notify: notify}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Client")
	}
	return id, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// List Clients godoc
// @Summary      List clients
// @Description  Paginated clients, newest first
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize (alias limit)"
// @Param        search    query string false "name, email, company or phone"
// @Param        status    query string false "Active | Inactive"
// @Param        type      query string false "Individual | Corporate"
// @Success      200  {object}  PageClients
// @Router       /clients [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := utils.ParsePage(c)

	q := h.db.WithContext(c.UserContext()).Model(&models.Client{})
	q = utils.Search(q, c.Query("search"), "name", "email", "company", "phone")
	q = utils.Filter(c, q, "status", "status", "type", "type")

	res, err := utils.Paginate[models.Client](q, page, size, "created_at DESC")
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(res)
}

// Get Client godoc
// @Summary      Client detail
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  models.Client
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var cl models.Client
	if err := h.db.WithContext(c.UserContext()).First(&cl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Client")
		}
		return apperr.Upstream(err)
	}
	return c.JSON(cl)
}

// Create Client godoc
// @Summary      Create client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateClientRequest  true  "Client payload"
// @Success      201  {object}  models.Client
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "email already exists"
// @Router       /clients [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Email = normalizeEmail(in.Email)
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	joined := time.Now().UTC()
	if in.JoinedDate != "" {
		t, err := utils.ParseDate(in.JoinedDate)
		if err != nil {
			return apperr.Field("joinedDate", "Invalid date")
		}
		joined = t
	}

	cl := models.Client{
		Name:       strings.TrimSpace(in.Name),
		Email:      in.Email,
		Phone:      strings.TrimSpace(in.Phone),
		Company:    strings.TrimSpace(in.Company),
		Type:       models.ClientType(in.Type),
		Address:    strings.TrimSpace(in.Address),
		Status:     models.ClientStatus(in.Status),
		JoinedDate: joined,
	}
	if cl.Type == "" {
		cl.Type = models.ClientIndividual
	}
	if cl.Status == "" {
		cl.Status = models.ClientActive
	}

	if err := h.db.WithContext(c.UserContext()).Create(&cl).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict(duplicateEmail)
		}
		return apperr.Upstream(err)
	}

	h.notify.Emit(c.UserContext(), models.EntityClient, models.ActionCreated, cl.Name, auth.ActorFrom(c).DisplayName())
	return c.Status(fiber.StatusCreated).JSON(cl)
}

// Update Client godoc
// @Summary      Update client
// @Description  Partial update; activeCases is not writable
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "client id (uuid)"
// @Param        payload  body  UpdateClientRequest  true  "Fields to change"
// @Success      200  {object}  models.Client
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /clients/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in UpdateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	updates := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("name", in.Name)
	set("email", in.Email)
	set("phone", in.Phone)
	set("company", in.Company)
	set("type", in.Type)
	set("address", in.Address)
	set("status", in.Status)
	if in.JoinedDate != nil {
		t, err := utils.ParseDate(*in.JoinedDate)
		if err != nil {
			return apperr.Field("joinedDate", "Invalid date")
		}
		updates["joined_date"] = t
	}

	var cl models.Client
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx, &cl, "Client", id); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&cl).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&cl, "id = ?", id).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict(duplicateEmail)
		}
		return apperr.Wrap(err)
	}

	h.notify.Emit(c.UserContext(), models.EntityClient, models.ActionUpdated, cl.Name, auth.ActorFrom(c).DisplayName())
	return c.JSON(cl)
}

// Delete Client godoc
// @Summary      Delete client
// @Description  Removes the client with its cases and their documents and tasks. Invoices are kept.
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  DeleteResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cl, res, err := h.cascade.DeleteClient(c.UserContext(), id)
	if err != nil {
		return apperr.Wrap(err)
	}
	h.notify.Emit(c.UserContext(), models.EntityClient, models.ActionDeleted, cl.Name, auth.ActorFrom(c).DisplayName())
	return c.JSON(DeleteResponse{Message: "Client deleted successfully", Removed: res})
}
