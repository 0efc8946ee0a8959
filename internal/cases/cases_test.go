package cases

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/cascade"
	"github.com/ShivaprasadMurashillin/LexDash/internal/identifiers"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/storage"
	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

// newTestApp registers routes the way cmd/server does.
func newTestApp(t *testing.T) (*gorm.DB, *fiber.App) {
	t.Helper()
	db := tu.OpenDB(t)
	h := NewHandler(db,
		identifiers.New(db, time.UTC, logger.Nop(), nil),
		cascade.New(db, storage.Nop{}, logger.Nop(), nil),
		notifications.NewEmitter(db, logger.Nop(), nil, nil),
		time.UTC)

	app := tu.NewApp()
	app.Get("/cases", h.List)
	app.Get("/cases/:id", h.Get)
	app.Post("/cases", h.Create)
	app.Put("/cases/:id", h.Update)
	app.Delete("/cases/:id", h.Delete)
	return db, app
}

func activeCases(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var cl models.Client
	if err := db.First(&cl, "id = ?", id).Error; err != nil {
		t.Fatalf("load client: %v", err)
	}
	return cl.ActiveCases
}

func createCase(t *testing.T, app *fiber.App, body map[string]any) models.Case {
	t.Helper()
	if _, ok := body["type"]; !ok {
		body["type"] = "Civil"
	}
	if _, ok := body["title"]; !ok {
		body["title"] = "Smith v. Jones"
	}
	var cs models.Case
	tu.DoJSON(t, app, "POST", "/cases", body, fiber.StatusCreated, &cs)
	return cs
}

/* ============================================================================
   Tests
   ============================================================================ */

func TestCreate_NumbersDefaultsAndCounter(t *testing.T) {
	db, app := newTestApp(t)
	cl := tu.SeedClient(t, db, "Acme")

	first := createCase(t, app, map[string]any{"clientId": cl.ID.String(), "status": "Active"})
	if want := fmt.Sprintf("CASE-%d-001", time.Now().Year()); first.CaseNumber != want {
		t.Fatalf("caseNumber = %q, want %q", first.CaseNumber, want)
	}
	if first.Priority != models.PriorityMedium || first.Client == nil || first.Client.Name != "Acme" {
		t.Fatalf("got %+v", first)
	}
	if got := activeCases(t, db, cl.ID); got != 1 {
		t.Fatalf("activeCases = %d, want 1", got)
	}

	second := createCase(t, app, map[string]any{"clientId": cl.ID.String()})
	if second.Status != models.CasePending {
		t.Fatalf("default status = %q", second.Status)
	}
	if want := fmt.Sprintf("CASE-%d-002", time.Now().Year()); second.CaseNumber != want {
		t.Fatalf("caseNumber = %q, want %q", second.CaseNumber, want)
	}
	if got := activeCases(t, db, cl.ID); got != 1 {
		t.Fatalf("pending case must not count: %d", got)
	}
}

func TestCreate_NumberSkipsCollisionAfterDelete(t *testing.T) {
	db, app := newTestApp(t)

	a := createCase(t, app, map[string]any{})
	b := createCase(t, app, map[string]any{})
	tu.DoJSON(t, app, "DELETE", "/cases/"+a.ID.String(), nil, fiber.StatusOK, nil)

	// count+1 is b's number again; the retry advances past it.
	c := createCase(t, app, map[string]any{})
	if c.CaseNumber == b.CaseNumber {
		t.Fatalf("duplicate number %q", c.CaseNumber)
	}
	if n := tu.Count(t, db, &models.Case{}, ""); n != 2 {
		t.Fatalf("cases = %d", n)
	}
}

func TestCreate_RejectsUnknownClient(t *testing.T) {
	db, app := newTestApp(t)

	var out models.ValidationErrorResponse
	tu.DoJSON(t, app, "POST", "/cases", map[string]any{
		"title": "x", "type": "Civil", "clientId": uuid.NewString(),
	}, fiber.StatusBadRequest, &out)
	if got := out.Errors["clientId"]; len(got) != 1 || got[0] != "Client does not exist" {
		t.Fatalf("errors = %v", out.Errors)
	}

	tu.DoJSON(t, app, "POST", "/cases", map[string]any{
		"title": "x", "type": "Maritime",
	}, fiber.StatusBadRequest, &out)
	if len(out.Errors["type"]) != 1 {
		t.Fatalf("errors = %v", out.Errors)
	}
	if n := tu.Count(t, db, &models.Case{}, ""); n != 0 {
		t.Fatalf("cases = %d", n)
	}
}

func TestUpdate_MovesCounters(t *testing.T) {
	db, app := newTestApp(t)
	a := tu.SeedClient(t, db, "A")
	b := tu.SeedClient(t, db, "B")
	cs := createCase(t, app, map[string]any{"clientId": a.ID.String(), "status": "Active"})
	path := "/cases/" + cs.ID.String()

	steps := []struct {
		name         string
		body         map[string]any
		wantA, wantB int
	}{
		{"close", map[string]any{"status": "Closed"}, 0, 0},
		{"reopen", map[string]any{"status": "Active"}, 1, 0},
		{"title only", map[string]any{"title": "Renamed"}, 1, 0},
		{"reassign", map[string]any{"clientId": b.ID.String()}, 0, 1},
		{"reassign and hold", map[string]any{"clientId": a.ID.String(), "status": "On Hold"}, 0, 0},
		{"activate", map[string]any{"status": "Active"}, 1, 0},
		{"detach", map[string]any{"clientId": ""}, 0, 0},
	}
	for _, s := range steps {
		var got models.Case
		tu.DoJSON(t, app, "PUT", path, s.body, fiber.StatusOK, &got)
		gotA, gotB := activeCases(t, db, a.ID), activeCases(t, db, b.ID)
		if gotA != s.wantA || gotB != s.wantB {
			t.Fatalf("%s: A=%d B=%d, want %d %d", s.name, gotA, gotB, s.wantA, s.wantB)
		}
	}

	var got models.Case
	tu.DoJSON(t, app, "GET", path, nil, fiber.StatusOK, &got)
	if got.ClientID != nil || got.Title != "Renamed" || got.Status != models.CaseActive {
		t.Fatalf("got %+v", got)
	}

	tu.DoJSON(t, app, "PUT", path, map[string]any{"clientId": uuid.NewString()}, fiber.StatusBadRequest, nil)
	tu.DoJSON(t, app, "PUT", path, map[string]any{"courtDate": "next week"}, fiber.StatusBadRequest, nil)
	tu.DoJSON(t, app, "PUT", "/cases/"+uuid.NewString(), map[string]any{"title": "x"}, fiber.StatusNotFound, nil)
}

func TestDelete_CascadesAndReleasesCounter(t *testing.T) {
	db, app := newTestApp(t)
	cl := tu.SeedClient(t, db, "Acme")
	cs := createCase(t, app, map[string]any{"clientId": cl.ID.String(), "status": "Active"})
	tu.SeedDocument(t, db, &cs.ID, "")
	tu.SeedTask(t, db, &cs.ID, models.TaskToDo)

	var res DeleteResponse
	tu.DoJSON(t, app, "DELETE", "/cases/"+cs.ID.String(), nil, fiber.StatusOK, &res)
	if res.Removed.Cases != 1 || res.Removed.Documents != 1 || res.Removed.Tasks != 1 {
		t.Fatalf("removed = %+v", res.Removed)
	}
	if got := activeCases(t, db, cl.ID); got != 0 {
		t.Fatalf("activeCases = %d", got)
	}
	tu.DoJSON(t, app, "DELETE", "/cases/"+cs.ID.String(), nil, fiber.StatusNotFound, nil)

	var n models.Notification
	if err := db.Order("created_at DESC").First(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n.Type != models.NotifyDanger || n.Message != `"Smith v. Jones" was deleted by Jane Doe` {
		t.Fatalf("notification = %+v", n)
	}
}

func TestList_FiltersSearchAndPaging(t *testing.T) {
	db, app := newTestApp(t)
	cl := tu.SeedClient(t, db, "Acme")
	for i := 0; i < 12; i++ {
		body := map[string]any{"title": fmt.Sprintf("Matter %02d", i)}
		if i%3 == 0 {
			body["priority"] = "High"
			body["clientId"] = cl.ID.String()
		}
		createCase(t, app, body)
	}
	createCase(t, app, map[string]any{"title": "Estate of Doe", "type": "Family", "assignedAttorney": "Bob Roe"})

	var page PageCases
	tu.DoJSON(t, app, "GET", "/cases", nil, fiber.StatusOK, &page)
	if page.Total != 13 || page.Pages != 2 || len(page.Items) != 10 || page.Items[0].Title != "Estate of Doe" {
		t.Fatalf("default page: total=%d pages=%d items=%d", page.Total, page.Pages, len(page.Items))
	}

	tu.DoJSON(t, app, "GET", "/cases?priority=High&clientId="+cl.ID.String(), nil, fiber.StatusOK, &page)
	if page.Total != 4 || page.Items[0].Client == nil {
		t.Fatalf("filter: %+v", page)
	}

	tu.DoJSON(t, app, "GET", "/cases?search=roe", nil, fiber.StatusOK, &page)
	if page.Total != 1 || page.Items[0].Type != models.CaseFamily {
		t.Fatalf("search: %+v", page)
	}

	tu.DoJSON(t, app, "GET", "/cases?createdSince=2999-01-01", nil, fiber.StatusOK, &page)
	if page.Total != 0 {
		t.Fatalf("createdSince: %+v", page)
	}
	tu.DoJSON(t, app, "GET", "/cases?createdSince=yesterday", nil, fiber.StatusBadRequest, nil)
}
