package counters

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

type Handler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	return &Handler{db: db, log: log.With("service", "Counters")}
}

// Recount godoc
// @Summary      Recount active cases
// @Description  Admin: rebuild every client's activeCases from its Active cases
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  RecountResult
// @Failure      403  {object}  models.ErrorResponse
// @Router       /maintenance/recount-active-cases [post]
func (h *Handler) Recount(c *fiber.Ctx) error {
	res, err := Recount(c.UserContext(), h.db)
	if err != nil {
		return apperr.Upstream(err)
	}
	h.log.Info("active case counters rebuilt", "clients", res.Clients, "corrected", res.Corrected)
	return c.JSON(res)
}
