package calendar

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

// Response is one month of events.
type Response struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Events []Event `json:"events"`
}

type Handler struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewHandler(db *gorm.DB, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{db: db, loc: loc, now: time.Now}
}

// queryInt reads an optional integer parameter within [lo, hi].
func queryInt(c *fiber.Ctx, key string, def, lo, hi int, fields map[string][]string) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		fields[key] = append(fields[key], "Must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
		return def
	}
	return n
}

// Events godoc
// @Summary      Calendar events
// @Description  Task due dates, document deadlines, court and filing dates within one month (defaults to the current month)
// @Tags         calendar
// @Security     BearerAuth
// @Produce      json
// @Param        year   query int false "year"
// @Param        month  query int false "month (1-12)"
// @Success      200  {object}  Response
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /calendar [get]
func (h *Handler) Events(c *fiber.Ctx) error {
	now := h.now().In(h.loc)
	fields := map[string][]string{}
	year := queryInt(c, "year", now.Year(), 1970, 9999, fields)
	month := queryInt(c, "month", int(now.Month()), 1, 12, fields)
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}

	events, err := Events(c.UserContext(), h.db, Month(year, time.Month(month), h.loc))
	if err != nil {
		return apperr.Upstream(err)
	}
	return c.JSON(Response{Year: year, Month: month, Events: events})
}
