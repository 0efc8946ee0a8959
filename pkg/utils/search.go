package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/sanitize"
)

// Search narrows q to rows where any of cols contains term, ignoring case.
// A blank term leaves q unchanged.
func Search(q *gorm.DB, term string, cols ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" || len(cols) == 0 {
		return q
	}
	like := sanitize.LikePattern(term)
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = like
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// Filter adds an equality condition for every query parameter present.
// pairs alternates query parameter and column name.
func Filter(c *fiber.Ctx, q *gorm.DB, pairs ...string) *gorm.DB {
	for i := 0; i+1 < len(pairs); i += 2 {
		if v := strings.TrimSpace(c.Query(pairs[i])); v != "" {
			q = q.Where(pairs[i+1]+" = ?", v)
		}
	}
	return q
}

// FilterIDs is Filter for id parameters. A malformed id is a validation error.
func FilterIDs(c *fiber.Ctx, q *gorm.DB, pairs ...string) (*gorm.DB, error) {
	for i := 0; i+1 < len(pairs); i += 2 {
		v := strings.TrimSpace(c.Query(pairs[i]))
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperr.Field(pairs[i], "Invalid id format")
		}
		q = q.Where(pairs[i+1]+" = ?", id)
	}
	return q, nil
}
