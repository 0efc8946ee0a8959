package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParsePage reads page and pageSize (alias limit) from the query string.
func ParsePage(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	raw := c.Query("pageSize")
	if raw == "" {
		raw = c.Query("limit")
	}
	size, _ = strconv.Atoi(raw)
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return
}

// Pages is ceil(total/size).
func Pages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

// Paginate counts q, then loads one page of it into a models.Page.
// Scopes (preloads) are applied to the page query only.
func Paginate[T any](q *gorm.DB, page, size int, order string, scopes ...func(*gorm.DB) *gorm.DB) (models.Page[T], error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return models.Page[T]{}, err
	}
	items := make([]T, 0, size)
	if err := q.Scopes(scopes...).Order(order).Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return models.Page[T]{}, err
	}
	return models.Page[T]{
		Page: page, PageSize: size, Total: total,
		Pages: Pages(total, size),
		Items: items, // always [] when empty
	}, nil
}
