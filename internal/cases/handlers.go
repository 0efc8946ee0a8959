package cases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/cascade"
	"github.com/ShivaprasadMurashillin/LexDash/internal/counters"
	"github.com/ShivaprasadMurashillin/LexDash/internal/identifiers"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/refs"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/validation"
)

// ===== DTOs =====

type CreateCaseRequest struct {
	Title            string `json:"title" validate:"required,max=200"`
	Type             string `json:"type" validate:"required,case_type"`
	Status           string `json:"status" validate:"omitempty,case_status"`
	Priority         string `json:"priority" validate:"omitempty,priority"`
	ClientID         string `json:"clientId" validate:"ref"`
	AssignedAttorney string `json:"assignedAttorney" validate:"max=120"`
	CourtDate        string `json:"courtDate"`
	FilingDate       string `json:"filingDate"`
	Description      string `json:"description" validate:"max=5000"`
}

// UpdateCaseRequest is a partial update. clientId "" detaches the client.
type UpdateCaseRequest struct {
	Title            *string `json:"title" validate:"omitnil,min=1,max=200"`
	Type             *string `json:"type" validate:"omitnil,case_type"`
	Status           *string `json:"status" validate:"omitnil,case_status"`
	Priority         *string `json:"priority" validate:"omitnil,priority"`
	ClientID         *string `json:"clientId" validate:"omitnil,ref"`
	AssignedAttorney *string `json:"assignedAttorney" validate:"omitnil,max=120"`
	CourtDate        *string `json:"courtDate"`
	FilingDate       *string `json:"filingDate"`
	Description      *string `json:"description" validate:"omitnil,max=5000"`
}

type PageCases = models.Page[models.Case]

// DeleteResponse reports what the case cascade removed.
type DeleteResponse struct {
	Message string         `json:"message"`
	Removed cascade.Result `json:"removed"`
}

type Handler struct {
	db      *gorm.DB
	ids     *identifiers.Generator
	cascade *cascade.Engine
	notify  *notifications.Emitter
	loc     *time.Location
}

func NewHandler(db *gorm.DB, ids *identifiers.Generator, ce *cascade.Engine, notify *notifications.Emitter, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{db: db, ids: ids, cascade: ce, notify: notify, loc: loc}
}

func withClient(fields ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload("Client", func(q *gorm.DB) *gorm.DB { return q.Select(fields) })
	}
}

var listClient = withClient("id", "name", "email")

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Case")
	}
	return id, nil
}

// dateField parses an optional date field into a pointer ("" is nil).
func dateField(field, s string) (*time.Time, error) {
	t, err := utils.ParseOptionalDate(s)
	if err != nil {
		return nil, apperr.Field(field, "Invalid date")
	}
	return t, nil
}

func (h *Handler) load(ctx context.Context, id uuid.UUID) (models.Case, error) {
	var cs models.Case
	if err := h.db.WithContext(ctx).Scopes(listClient).First(&cs, "id = ?", id).Error; err != nil {
		return cs, apperr.Upstream(err)
	}
	return cs, nil
}

// List Cases godoc
// @Summary      List cases
// @Description  Paginated cases, newest first, with client summary
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        page          query int    false "page"
// @Param        pageSize      query int    false "pageSize (alias limit)"
// @Param        search        query string false "title, case number, attorney or description"
// @Param        status        query string false "status"
// @Param        type          query string false "type"
// @Param        priority      query string false "priority"
// @Param        clientId      query string false "client id"
// @Param        createdSince  query string false "YYYY-MM-DD (configured timezone)"
// @Success      200  {object}  PageCases
// @Router       /cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := utils.ParsePage(c)

	q := h.db.WithContext(c.UserContext()).Model(&models.Case{})
	q = utils.Search(q, c.Query("search"), "title", "case_number", "assigned_attorney", "description")
	q = utils.Filter(c, q, "status", "status", "type", "type", "priority", "priority")
	q, err := utils.FilterIDs(c, q, "clientId", "client_id")
	if err != nil {
		return err
	}
	if s := c.Query("createdSince"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			return apperr.Field("createdSince", "Invalid date")
		}
		q = q.Where("created_at >= ?", t.UTC())
	}

	res, err := utils.Paginate[models.Case](q, page, size, "created_at DESC", listClient)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(res)
}

// Get Case godoc
// @Summary      Case detail
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var cs models.Case
	err = h.db.WithContext(c.UserContext()).
		Scopes(withClient("id", "name", "email", "phone")).
		First(&cs, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Case")
		}
		return apperr.Upstream(err)
	}
	return c.JSON(cs)
}

// Create Case godoc
// @Summary      Create case
// @Description  Allocates the next case number and credits the client's active case counter
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateCaseRequest  true  "Case payload"
// @Success      201  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /cases [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	ctx := c.UserContext()

	clientID, err := refs.Parse("clientId", in.ClientID)
	if err != nil {
		return err
	}
	if err := refs.Require(ctx, h.db, refs.Client("clientId", clientID)); err != nil {
		return err
	}
	court, err := dateField("courtDate", in.CourtDate)
	if err != nil {
		return err
	}
	filing, err := dateField("filingDate", in.FilingDate)
	if err != nil {
		return err
	}

	cs := models.Case{
		Title:            strings.TrimSpace(in.Title),
		Type:             models.CaseType(in.Type),
		Status:           models.CaseStatus(in.Status),
		Priority:         models.Priority(in.Priority),
		ClientID:         clientID,
		AssignedAttorney: strings.TrimSpace(in.AssignedAttorney),
		CourtDate:        court,
		FilingDate:       filing,
		Description:      strings.TrimSpace(in.Description),
	}
	if cs.Status == "" {
		cs.Status = models.CasePending
	}
	if cs.Priority == "" {
		cs.Priority = models.PriorityMedium
	}

	err = h.ids.Create(ctx, identifiers.CaseNumber, func(tx *gorm.DB, number string) error {
		cs.ID = uuid.Nil
		cs.CaseNumber = number
		if err := tx.Omit(clause.Associations).Create(&cs).Error; err != nil {
			return err
		}
		return counters.Sync(tx, counters.None, counters.Of(cs))
	})
	if err != nil {
		return apperr.Wrap(err)
	}

	out, err := h.load(ctx, cs.ID)
	if err != nil {
		return err
	}
	h.notify.Emit(ctx, models.EntityCase, models.ActionCreated, out.Title, auth.ActorFrom(c).DisplayName())
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update Case godoc
// @Summary      Update case
// @Description  Partial update; status and client changes move the active case counters
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "case id (uuid)"
// @Param        payload  body  UpdateCaseRequest  true  "Fields to change"
// @Success      200  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in UpdateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	ctx := c.UserContext()

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cs models.Case
		if err := database.ForUpdate(tx, &cs, "Case", id); err != nil {
			return err
		}
		before := counters.Of(cs)

		if err := applyPatch(ctx, tx, &cs, in); err != nil {
			return err
		}
		if err := database.UpdateRow(tx, &cs, "Case"); err != nil {
			return err
		}
		return counters.Sync(tx, before, counters.Of(cs))
	})
	if err != nil {
		return apperr.Wrap(err)
	}

	out, err := h.load(ctx, id)
	if err != nil {
		return err
	}
	h.notify.Emit(ctx, models.EntityCase, models.ActionUpdated, out.Title, auth.ActorFrom(c).DisplayName())
	return c.JSON(out)
}

func applyPatch(ctx context.Context, tx *gorm.DB, cs *models.Case, in UpdateCaseRequest) error {
	if in.ClientID != nil {
		id, err := refs.Parse("clientId", *in.ClientID)
		if err != nil {
			return err
		}
		if err := refs.Require(ctx, tx, refs.Client("clientId", id)); err != nil {
			return err
		}
		cs.ClientID = id
	}
	if in.Title != nil {
		cs.Title = strings.TrimSpace(*in.Title)
	}
	if in.Type != nil {
		cs.Type = models.CaseType(*in.Type)
	}
	if in.Status != nil {
		cs.Status = models.CaseStatus(*in.Status)
	}
	if in.Priority != nil {
		cs.Priority = models.Priority(*in.Priority)
	}
	if in.AssignedAttorney != nil {
		cs.AssignedAttorney = strings.TrimSpace(*in.AssignedAttorney)
	}
	if in.Description != nil {
		cs.Description = strings.TrimSpace(*in.Description)
	}
	if in.CourtDate != nil {
		t, err := dateField("courtDate", *in.CourtDate)
		if err != nil {
			return err
		}
		cs.CourtDate = t
	}
	if in.FilingDate != nil {
		t, err := dateField("filingDate", *in.FilingDate)
		if err != nil {
			return err
		}
		cs.FilingDate = t
	}
	return nil
}

// Delete Case godoc
// @Summary      Delete case
// @Description  Removes the case with its documents and tasks
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "case id (uuid)"
// @Success      200  {object}  DeleteResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cs, res, err := h.cascade.DeleteCase(c.UserContext(), id)
	if err != nil {
		return apperr.Wrap(err)
	}
	h.notify.Emit(c.UserContext(), models.EntityCase, models.ActionDeleted, cs.Title, auth.ActorFrom(c).DisplayName())
	return c.JSON(DeleteResponse{Message: "Case deleted successfully", Removed: res})
}
