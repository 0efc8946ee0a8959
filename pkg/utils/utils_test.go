package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 10},
		{"?page=3&pageSize=25", 3, 25},
		{"?page=0&pageSize=0", 1, 10},
		{"?pageSize=500", 1, 100},
		{"?limit=7", 1, 7},
		{"?page=abc&limit=-2", 1, 10},
	}
	for _, tc := range tests {
		app := fiber.New()
		var gotPage, gotSize int
		app.Get("/", func(c *fiber.Ctx) error {
			gotPage, gotSize = ParsePage(c)
			return nil
		})
		if _, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil), -1); err != nil {
			t.Fatalf("%q: %v", tc.query, err)
		}
		if gotPage != tc.page || gotSize != tc.size {
			t.Fatalf("%q: got (%d,%d), want (%d,%d)", tc.query, gotPage, gotSize, tc.page, tc.size)
		}
	}
}

func TestPages(t *testing.T) {
	if got := Pages(0, 10); got != 0 {
		t.Fatalf("Pages(0,10) = %d", got)
	}
	if got := Pages(21, 10); got != 3 {
		t.Fatalf("Pages(21,10) = %d", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	if err != nil || !d.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only: %v %v", d, err)
	}
	d, err = ParseDate("2025-03-14T10:00:00+02:00")
	if err != nil || d.Hour() != 8 || d.Location() != time.UTC {
		t.Fatalf("rfc3339: %v %v", d, err)
	}
	if _, err := ParseDate("14/03/2025"); err != ErrBadDate {
		t.Fatalf("expected ErrBadDate, got %v", err)
	}
	if p, err := ParseOptionalDate(" "); p != nil || err != nil {
		t.Fatalf("blank should be nil, got %v %v", p, err)
	}
}
