package search

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

// Response wraps the hits of one query.
type Response struct {
	Query string `json:"query"`
	Items []Hit  `json:"items"`
}

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// Search godoc
// @Summary      Global search
// @Description  Up to 8 hits each across cases, clients, documents and tasks
// @Tags         search
// @Security     BearerAuth
// @Produce      json
// @Param        q   query string false "search text"
// @Success      200  {object}  Response
// @Router       /search [get]
func (h *Handler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	hits, err := Run(c.UserContext(), h.db, q)
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(Response{Query: q, Items: hits})
}
