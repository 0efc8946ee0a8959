package documents

import (
	"context"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

type fakeStore struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeStore) Delete(_ context.Context, u string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, u)
	return nil
}

func newTestApp(t *testing.T) (*gorm.DB, *fiber.App, *fakeStore) {
	t.Helper()
	db := tu.OpenDB(t)
	store := &fakeStore{}
	h := NewHandler(db, store, notifications.NewEmitter(db, logger.Nop(), nil, nil), logger.Nop(), nil)

	app := tu.NewApp()
	app.Get("/documents", h.List)
	app.Get("/documents/:id", h.Get)
	app.Post("/documents", h.Create)
	app.Put("/documents/:id", h.Update)
	app.Delete("/documents/:id", h.Delete)
	return db, app, store
}

func ref(id uuid.UUID) *uuid.UUID { return &id }

func TestCreate_DefaultsAndCaseLookup(t *testing.T) {
	db, app, _ := newTestApp(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)

	var d models.Document
	tu.DoJSON(t, app, "POST", "/documents", map[string]any{
		"title": "  Motion to dismiss ", "type": "Motion", "caseId": cs.ID.String(), "deadline": "2026-03-01",
	}, fiber.StatusCreated, &d)

	if d.Status != models.DocDraft || d.Title != "Motion to dismiss" {
		t.Fatalf("got %+v", d)
	}
	if d.Case == nil || d.Case.CaseNumber != cs.CaseNumber {
		t.Fatalf("case lookup missing: %+v", d.Case)
	}
	if d.Deadline == nil || d.Deadline.Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("deadline = %v", d.Deadline)
	}
	if n := tu.Count(t, db, &models.Notification{}, "entity = ? AND action = ?", models.EntityDocument, models.ActionCreated); n != 1 {
		t.Fatalf("notifications = %d", n)
	}
}

func TestCreate_Validation(t *testing.T) {
	_, app, _ := newTestApp(t)

	var body models.ValidationErrorResponse
	tu.DoJSON(t, app, "POST", "/documents", map[string]any{"type": "Memo"}, fiber.StatusBadRequest, &body)
	if len(body.Errors["title"]) != 1 || len(body.Errors["type"]) != 1 {
		t.Fatalf("errors = %v", body.Errors)
	}

	body = models.ValidationErrorResponse{}
	tu.DoJSON(t, app, "POST", "/documents", map[string]any{
		"title": "x", "type": "Motion", "caseId": uuid.NewString(),
	}, fiber.StatusBadRequest, &body)
	if got := body.Errors["caseId"]; len(got) != 1 || got[0] != "Case does not exist" {
		t.Fatalf("caseId errors = %v", body.Errors)
	}
}

func TestUpdate_PartialAndDetach(t *testing.T) {
	db, app, _ := newTestApp(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)
	seeded := tu.SeedDocument(t, db, ref(cs.ID), "")

	var d models.Document
	tu.DoJSON(t, app, "PUT", "/documents/"+seeded.ID.String(), map[string]any{"status": "Filed"}, fiber.StatusOK, &d)
	if d.Status != models.DocFiled || d.Title != seeded.Title || d.CaseID == nil {
		t.Fatalf("got %+v", d)
	}

	tu.DoJSON(t, app, "PUT", "/documents/"+seeded.ID.String(), map[string]any{"caseId": ""}, fiber.StatusOK, &d)
	if d.CaseID != nil || d.Case != nil {
		t.Fatalf("expected detached, got %+v", d)
	}

	status, _ := tu.Do(t, app, "PUT", "/documents/"+uuid.NewString(), map[string]any{"status": "Filed"})
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
}

func TestDelete_RemovesStoredFile(t *testing.T) {
	db, app, store := newTestApp(t)
	d := tu.SeedDocument(t, db, nil, "https://files.test/uploads/brief.pdf")

	tu.DoJSON(t, app, "DELETE", "/documents/"+d.ID.String(), nil, fiber.StatusOK, nil)

	if n := tu.Count(t, db, &models.Document{}, "id = ?", d.ID); n != 0 {
		t.Fatalf("document still present")
	}
	if len(store.deleted) != 1 || store.deleted[0] != d.FileURL {
		t.Fatalf("deleted = %v", store.deleted)
	}

	status, _ := tu.Do(t, app, "DELETE", "/documents/"+d.ID.String(), nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("second delete status = %d", status)
	}
}

func TestList_FiltersAndSearch(t *testing.T) {
	db, app, _ := newTestApp(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)
	a := tu.SeedDocument(t, db, ref(cs.ID), "")
	tu.SeedDocument(t, db, nil, "")
	if err := db.Model(&a).Updates(map[string]any{"status": models.DocFiled, "notes": "Signed 50% copy"}).Error; err != nil {
		t.Fatal(err)
	}

	var page PageDocuments
	tu.DoJSON(t, app, "GET", "/documents?status=Filed", nil, fiber.StatusOK, &page)
	if page.Total != 1 || page.Items[0].ID != a.ID {
		t.Fatalf("status filter: %+v", page)
	}

	tu.DoJSON(t, app, "GET", "/documents?caseId="+cs.ID.String(), nil, fiber.StatusOK, &page)
	if page.Total != 1 || page.Items[0].Case == nil {
		t.Fatalf("case filter: %+v", page)
	}

	tu.DoJSON(t, app, "GET", "/documents?search=50%25", nil, fiber.StatusOK, &page)
	if page.Total != 1 {
		t.Fatalf("search: %+v", page)
	}

	tu.DoJSON(t, app, "GET", "/documents?pageSize=1", nil, fiber.StatusOK, &page)
	if page.Total != 2 || len(page.Items) != 1 || page.Pages != 2 {
		t.Fatalf("paging: %+v", page)
	}
}
