package tasks

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
	"github.com/ShivaprasadMurashillin/LexDash/internal/refs"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/sanitize"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/validation"
)

/* ================================ DTOs ================================= */

type CreateTaskRequest struct {
	Title                string `json:"title" validate:"required,max=200"`
	Description          string `json:"description" validate:"max=5000"`
	CaseID               string `json:"caseId" validate:"ref"`
	AssignedTo           string `json:"assignedTo" validate:"max=120"`
	Priority             string `json:"priority" validate:"omitempty,priority"`
	Status               string `json:"status" validate:"omitempty,task_status"`
	DueDate              string `json:"dueDate"`
	CompletionPercentage int    `json:"completionPercentage" validate:"gte=0,lte=100"`
}

// UpdateTaskRequest is a partial update; absent fields keep their stored value.
type UpdateTaskRequest struct {
	Title                *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description          *string `json:"description" validate:"omitnil,max=5000"`
	CaseID               *string `json:"caseId" validate:"omitnil,ref"`
	AssignedTo           *string `json:"assignedTo" validate:"omitnil,max=120"`
	Priority             *string `json:"priority" validate:"omitnil,priority"`
	Status               *string `json:"status" validate:"omitnil,task_status"`
	DueDate              *string `json:"dueDate"`
	CompletionPercentage *int    `json:"completionPercentage" validate:"omitnil,gte=0,lte=100"`
}

type PageTasks = models.Page[models.Task]

/* ============================== Handler ================================= */

type Handler struct {
	db     *gorm.DB
	notify *notifications.Emitter
}

func NewHandler(db *gorm.DB, notify *notifications.Emitter) *Handler {
	return &Handler{db: db, notify: notify}
}

func withCase(db *gorm.DB) *gorm.DB {
	return db.Preload("Case", func(q *gorm.DB) *gorm.DB { return q.Select("id", "title", "case_number") })
}

func (h *Handler) load(ctx context.Context, id uuid.UUID) (models.Task, error) {
	var tk models.Task
	if err := h.db.WithContext(ctx).Scopes(withCase).First(&tk, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tk, apperr.NotFound("Task")
		}
		return tk, apperr.Upstream(err)
	}
	return tk, nil
}

func taskID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Task")
	}
	return id, nil
}

/* ================================ List ================================== */

// @Summary      List tasks
// @Description  Ordered by due date (soonest first), then newest
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        page        query int    false "page"
// @Param        pageSize    query int    false "pageSize (alias limit)"
// @Param        search      query string false "title, description or assignee"
// @Param        status      query string false "status"
// @Param        priority    query string false "priority"
// @Param        assignedTo  query string false "assignee (substring)"
// @Param        caseId      query string false "case id"
// @Success      200  {object}  PageTasks
// @Router       /tasks [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := utils.ParsePage(c)

	q := h.db.WithContext(c.UserContext()).Model(&models.Task{})
	q = utils.Search(q, c.Query("search"), "title", "description", "assigned_to")
	q = utils.Filter(c, q, "status", "status", "priority", "priority")
	if who := strings.TrimSpace(c.Query("assignedTo")); who != "" {
		q = q.Where(`LOWER(assigned_to) LIKE ? ESCAPE '\'`, sanitize.LikePattern(who))
	}
	q, err := utils.FilterIDs(c, q, "caseId", "case_id")
	if err != nil {
		return err
	}

	res, err := utils.Paginate[models.Task](q, page, size, "due_date ASC, created_at DESC", withCase)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(res)
}

/* ================================= Get ================================== */

// @Summary      Task detail
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "task id (uuid)"
// @Success      200  {object}  models.Task
// @Failure      404  {object}  models.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	tk, err := h.load(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(tk)
}

/* ================================ Create ================================ */

// @Summary      Create task
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateTaskRequest  true  "Task payload"
// @Success      201  {object}  models.Task
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /tasks [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateTaskRequest
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
	due, err := utils.ParseOptionalDate(in.DueDate)
	if err != nil {
		return apperr.Field("dueDate", "Invalid date")
	}

	tk := models.Task{
		Title:                strings.TrimSpace(in.Title),
		Description:          strings.TrimSpace(in.Description),
		CaseID:               caseID,
		AssignedTo:           strings.TrimSpace(in.AssignedTo),
		Priority:             models.Priority(in.Priority),
		Status:               models.TaskStatus(in.Status),
		DueDate:              due,
		CompletionPercentage: in.CompletionPercentage,
	}
	if tk.Priority == "" {
		tk.Priority = models.PriorityMedium
	}
	if tk.Status == "" {
		tk.Status = models.TaskToDo
	}
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Create(&tk).Error; err != nil {
		return apperr.Upstream(err)
	}

	out, err := h.load(ctx, tk.ID)
	if err != nil {
		return err
	}
	h.notify.Emit(ctx, models.EntityTask, models.ActionCreated, out.Title, auth.ActorFrom(c).DisplayName())
	return c.Status(fiber.StatusCreated).JSON(out)
}

/* ================================ Update ================================ */

// @Summary      Update task
// @Description  Partial update; caseId "" detaches the task
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "task id (uuid)"
// @Param        payload  body  UpdateTaskRequest  true  "Fields to change"
// @Success      200  {object}  models.Task
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var in UpdateTaskRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	ctx := c.UserContext()

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tk models.Task
		if err := database.ForUpdate(tx, &tk, "Task", id); err != nil {
			return err
		}
		if err := applyPatch(ctx, tx, &tk, in); err != nil {
			return err
		}
		return database.UpdateRow(tx, &tk, "Task")
	})
	if err != nil {
		return apperr.Wrap(err)
	}

	out, err := h.load(ctx, id)
	if err != nil {
		return err
	}
	h.notify.Emit(ctx, models.EntityTask, models.ActionUpdated, out.Title, auth.ActorFrom(c).DisplayName())
	return c.JSON(out)
}

func applyPatch(ctx context.Context, tx *gorm.DB, tk *models.Task, in UpdateTaskRequest) error {
	if in.CaseID != nil {
		caseID, err := refs.Parse("caseId", *in.CaseID)
		if err != nil {
			return err
		}
		if err := refs.Require(ctx, tx, refs.Case("caseId", caseID)); err != nil {
			return err
		}
		tk.CaseID = caseID
	}
	if in.DueDate != nil {
		due, err := utils.ParseOptionalDate(*in.DueDate)
		if err != nil {
			return apperr.Field("dueDate", "Invalid date")
		}
		tk.DueDate = due
	}
	if in.Title != nil {
		tk.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		tk.Description = strings.TrimSpace(*in.Description)
	}
	if in.AssignedTo != nil {
		tk.AssignedTo = strings.TrimSpace(*in.AssignedTo)
	}
	if in.Priority != nil {
		tk.Priority = models.Priority(*in.Priority)
	}
	if in.Status != nil {
		tk.Status = models.TaskStatus(*in.Status)
	}
	if in.CompletionPercentage != nil {
		tk.CompletionPercentage = *in.CompletionPercentage
	}
	return nil
}

/* ================================ Delete ================================ */

// @Summary      Delete task
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "task id (uuid)"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	var tk models.Task
	if err := h.db.WithContext(ctx).First(&tk, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Task")
		}
		return apperr.Upstream(err)
	}
	res := h.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Upstream(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Task")
	}

	h.notify.Emit(ctx, models.EntityTask, models.ActionDeleted, tk.Title, auth.ActorFrom(c).DisplayName())
	return c.JSON(models.MessageResponse{Message: "Task deleted successfully"})
}
