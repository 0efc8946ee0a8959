package notifications

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

type Handler struct {
	db     *gorm.DB
	log    *logger.Logger
	notify *Emitter
}

func NewHandler(db *gorm.DB, log *logger.Logger, notify *Emitter) *Handler {
	return &Handler{db: db, log: log.With("service", "Notifications"), notify: notify}
}

func viewer(c *fiber.Ctx) (string, error) {
	v := auth.ActorFrom(c).Viewer()
	if v == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "User email required")
	}
	return v, nil
}

// List godoc
// @Summary      List notifications
// @Description  Newest notifications with per-viewer read state and unread count
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  int  false  "max items (default 40, max 100)"
// @Success      200  {object}  ListResult
// @Router       /notifications [get]
func (h *Handler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", DefaultLimit)
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	res, err := List(c.UserContext(), h.db, auth.ActorFrom(c).Viewer(), limit)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(res)
}

// MarkAllRead godoc
// @Summary      Mark all notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  models.ErrorResponse
// @Router       /notifications/mark-all-read [put]
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	n, err := MarkAllRead(c.UserContext(), h.db, v)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(fiber.Map{"message": "All marked as read", "marked": n})
}

// MarkRead godoc
// @Summary      Mark one notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "notification id (uuid)"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /notifications/{id}/read [put]
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.NotFound("Notification")
	}
	if err := MarkRead(c.UserContext(), h.db, id, v); err != nil {
		if _, ok := apperr.As(err); ok {
			return err
		}
		return apperr.Upstream(err)
	}
	return c.JSON(models.MessageResponse{Message: "Marked as read"})
}

// ClearAll godoc
// @Summary      Clear all notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.MessageResponse
// @Router       /notifications [delete]
func (h *Handler) ClearAll(c *fiber.Ctx) error {
	n, err := ClearAll(c.UserContext(), h.db)
	if err != nil {
		return apperr.Upstream(err)
	}
	h.notify.Invalidate(c.UserContext())
	h.log.Info("notifications cleared", "count", n, "by", auth.ActorFrom(c).DisplayName())
	return c.JSON(models.MessageResponse{Message: "All notifications cleared"})
}
