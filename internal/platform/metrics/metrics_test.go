package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics
	m.IncSecondaryFailure("notification")
	m.IncIdentifierRetry("case")
	m.IncNotification("Case", "created")
	m.IncCache(true)
}

func TestMiddleware_RecordsRouteAndStatus(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/cases/:id", func(c *fiber.Ctx) error { return apperr.NotFound("Case") })
	app.Get("/metrics", m.Handler())

	if _, err := app.Test(httptest.NewRequest("GET", "/cases/abc", nil), -1); err != nil {
		t.Fatal(err)
	}
	got := testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/cases/:id", "404"))
	if got != 1 {
		t.Fatalf("requests{GET,/cases/:id,404} = %v, want 1", got)
	}

	m.IncSecondaryFailure("file_removal")
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `lexdash_secondary_effect_failures_total{effect="file_removal"} 1`) {
		t.Fatalf("metrics output missing failure counter:\n%s", body)
	}
}
