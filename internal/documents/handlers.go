package documents

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	"github.com/ShivaprasadMurashillin/LexDash/internal/refs"
	"github.com/ShivaprasadMurashillin/LexDash/internal/storage"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/validation"
)

// ===== DTOs =====

type CreateDocumentRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	CaseID     string `json:"caseId" validate:"ref"`
	Type       string `json:"type" validate:"required,document_type"`
	Status     string `json:"status" validate:"omitempty,document_status"`
	UploadedBy string `json:"uploadedBy" validate:"max=120"`
	FileURL    string `json:"fileUrl" validate:"max=1024"`
	Notes      string `json:"notes" validate:"max=5000"`
	Deadline   string `json:"deadline"`
}

type UpdateDocumentRequest struct {
	Title      *string `json:"title" validate:"omitnil,min=1,max=200"`
	CaseID     *string `json:"caseId" validate:"omitnil,ref"`
	Type       *string `json:"type" validate:"omitnil,document_type"`
	Status     *string `json:"status" validate:"omitnil,document_status"`
	UploadedBy *string `json:"uploadedBy" validate:"omitnil,max=120"`
	FileURL    *string `json:"fileUrl" validate:"omitnil,max=1024"`
	Notes      *string `json:"notes" validate:"omitnil,max=5000"`
	Deadline   *string `json:"deadline"`
}

type PageDocuments = models.Page[models.Document]

type Handler struct {
	db     *gorm.DB
	store  storage.Store
	notify *notifications.Emitter
	log    *logger.Logger
	m      *metrics.Metrics
}

func NewHandler(db *gorm.DB, store storage.Store, notify *notifications.Emitter, log *logger.Logger, m *metrics.Metrics) *Handler {
	if store == nil {
		store = storage.Nop{}
	}
	return &Handler{db: db, store: store, notify: notify, log: log.With("service", "Documents"), m: m}
}

func withCase(db *gorm.DB) *gorm.DB {
	return db.Preload("Case", func(q *gorm.DB) *gorm.DB { return q.Select("id", "title", "case_number") })
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Document")
	}
	return id, nil
}

func (h *Handler) load(ctx context.Context, id uuid.UUID) (models.Document, error) {
	var d models.Document
	if err := h.db.WithContext(ctx).Scopes(withCase).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return d, apperr.NotFound("Document")
		}
		return d, apperr.Upstream(err)
	}
	return d, nil
}

// List Documents godoc
// @Summary      List documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize (alias limit)"
// @Param        search    query string false "title, uploader or notes"
// @Param        status    query string false "status"
// @Param        type      query string false "type"
// @Param        caseId    query string false "case id"
// @Success      200  {object}  PageDocuments
// @Router       /documents [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := utils.ParsePage(c)

	q := h.db.WithContext(c.UserContext()).Model(&models.Document{})
	q = utils.Search(q, c.Query("search"), "title", "uploaded_by", "notes")
	q = utils.Filter(c, q, "status", "status", "type", "type")
	q, err := utils.FilterIDs(c, q, "caseId", "case_id")
	if err != nil {
		return err
	}

	res, err := utils.Paginate[models.Document](q, page, size, "created_at DESC", withCase)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(res)
}

// Get Document godoc
// @Summary      Document detail
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "document id (uuid)"
// @Success      200  {object}  models.Document
// @Failure      404  {object}  models.ErrorResponse
// @Router       /documents/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.load(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

// Create Document godoc
// @Summary      Create document
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateDocumentRequest  true  "Document payload"
// @Success      201  {object}  models.Document
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /documents [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	ctx := c.UserContext()

	caseID, err := refs.Parse("caseId", in.CaseID)
	if err != nil {
		return err
	}
	if err := refs.Require(ctx, h.db, refs.Case("caseId", caseID)); err != nil {
		return err
	}
	deadline, err := utils.ParseOptionalDate(in.Deadline)
	if err != nil {
		return apperr.Field("deadline", "Invalid date")
	}

	d := models.Document{
		Title:      strings.TrimSpace(in.Title),
		CaseID:     caseID,
		Type:       models.DocumentType(in.Type),
		Status:     models.DocumentStatus(in.Status),
		UploadedBy: strings.TrimSpace(in.UploadedBy),
		FileURL:    strings.TrimSpace(in.FileURL),
		Notes:      strings.TrimSpace(in.Notes),
		Deadline:   deadline,
	}
	if d.Status == "" {
		d.Status = models.DocDraft
	}
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Create(&d).Error; err != nil {
		return apperr.Upstream(err)
	}

	out, err := h.load(ctx, d.ID)
	if err != nil {
		return err
	}
	h.notify.Emit(ctx, models.EntityDocument, models.ActionCreated, out.Title, auth.ActorFrom(c).DisplayName())
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update Document godoc
// @Summary      Update document
// @Description  Partial update; caseId "" detaches the document
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "document id (uuid)"
// @Param        payload  body  UpdateDocumentRequest  true  "Fields to change"
// @Success      200  {object}  models.Document
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /documents/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in UpdateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	ctx := c.UserContext()

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Document
		if err := database.ForUpdate(tx, &d, "Document", id); err != nil {
			return err
		}
		if in.CaseID != nil {
			caseID, err := refs.Parse("caseId", *in.CaseID)
			if err != nil {
				return err
			}
			if err := refs.Require(ctx, tx, refs.Case("caseId", caseID)); err != nil {
				return err
			}
			d.CaseID = caseID
		}
		if in.Deadline != nil {
			t, err := utils.ParseOptionalDate(*in.Deadline)
			if err != nil {
				return apperr.Field("deadline", "Invalid date")
			}
			d.Deadline = t
		}
		str := func(dst *string, v *string) {
			if v != nil {
				*dst = strings.TrimSpace(*v)
			}
		}
		str(&d.Title, in.Title)
		str(&d.UploadedBy, in.UploadedBy)
		str(&d.FileURL, in.FileURL)
		str(&d.Notes, in.Notes)
		if in.Type != nil {
			d.Type = models.DocumentType(*in.Type)
		}
		if in.Status != nil {
			d.Status = models.DocumentStatus(*in.Status)
		}
		return database.UpdateRow(tx, &d, "Document")
	})
	if err != nil {
		return apperr.Wrap(err)
	}

	out, err := h.load(ctx, id)
	if err != nil {
		return err
	}
	h.notify.Emit(ctx, models.EntityDocument, models.ActionUpdated, out.Title, auth.ActorFrom(c).DisplayName())
	return c.JSON(out)
}

// Delete Document godoc
// @Summary      Delete document
// @Description  Removes the document, then its stored file (best-effort)
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "document id (uuid)"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /documents/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	var d models.Document
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx, &d, "Document", id); err != nil {
			return err
		}
		return tx.Delete(&models.Document{}, "id = ?", id).Error
	})
	if err != nil {
		return apperr.Wrap(err)
	}

	storage.RemoveAll(context.WithoutCancel(ctx), h.store, h.log, h.m, []string{d.FileURL})
	h.notify.Emit(ctx, models.EntityDocument, models.ActionDeleted, d.Title, auth.ActorFrom(c).DisplayName())
	return c.JSON(models.MessageResponse{Message: "Document deleted successfully"})
}
