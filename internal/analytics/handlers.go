package analytics

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

type Handler struct{ agg *Aggregator }

func NewHandler(agg *Aggregator) *Handler { return &Handler{agg: agg} }

// Stats godoc
// @Summary      Dashboard statistics
// @Description  Overview counts, case breakdowns, recent cases, upcoming court dates and open tasks
// @Tags         analytics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Dashboard
// @Router       /stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	d, err := h.agg.Dashboard(c.UserContext())
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(d)
}

// Analytics godoc
// @Summary      Analytics
// @Description  Monthly trends (zero-filled), workload, outcomes, pipeline and revenue breakdowns
// @Tags         analytics
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Report
// @Router       /analytics [get]
func (h *Handler) Analytics(c *fiber.Ctx) error {
	r, err := h.agg.Analytics(c.UserContext())
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(r)
}
