package tasks

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

func newTestApp(t *testing.T) (*gorm.DB, *fiber.App) {
	t.Helper()
	db := tu.OpenDB(t)
	h := NewHandler(db, notifications.NewEmitter(db, logger.Nop(), nil, nil))

	app := tu.NewApp()
	app.Get("/tasks", h.List)
	app.Get("/tasks/:id", h.Get)
	app.Post("/tasks", h.Create)
	app.Put("/tasks/:id", h.Update)
	app.Delete("/tasks/:id", h.Delete)
	return db, app
}

func TestCreate_Defaults(t *testing.T) {
	db, app := newTestApp(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)

	var tk models.Task
	tu.DoJSON(t, app, "POST", "/tasks", map[string]any{
		"title": "Draft reply", "caseId": cs.ID.String(), "dueDate": "2026-04-10",
	}, fiber.StatusCreated, &tk)

	if tk.Priority != models.PriorityMedium || tk.Status != models.TaskToDo || tk.CompletionPercentage != 0 {
		t.Fatalf("defaults not applied: %+v", tk)
	}
	if tk.Case == nil || tk.Case.Title != cs.Title {
		t.Fatalf("case lookup missing: %+v", tk.Case)
	}
	if n := tu.Count(t, db, &models.Notification{}, "entity = ?", models.EntityTask); n != 1 {
		t.Fatalf("notifications = %d", n)
	}
}

func TestCreate_CompletionBounds(t *testing.T) {
	_, app := newTestApp(t)

	for _, pct := range []int{-1, 101} {
		var body models.ValidationErrorResponse
		tu.DoJSON(t, app, "POST", "/tasks", map[string]any{"title": "x", "completionPercentage": pct},
			fiber.StatusBadRequest, &body)
		if len(body.Errors["completionPercentage"]) != 1 {
			t.Fatalf("%d: errors = %v", pct, body.Errors)
		}
	}
	tu.DoJSON(t, app, "POST", "/tasks", map[string]any{"title": "x", "completionPercentage": 100},
		fiber.StatusCreated, nil)
}

func TestCreate_UnknownCase(t *testing.T) {
	_, app := newTestApp(t)

	var body models.ValidationErrorResponse
	tu.DoJSON(t, app, "POST", "/tasks", map[string]any{"title": "x", "caseId": uuid.NewString()},
		fiber.StatusBadRequest, &body)
	if got := body.Errors["caseId"]; len(got) != 1 || got[0] != "Case does not exist" {
		t.Fatalf("errors = %v", body.Errors)
	}
}

func TestUpdate_Partial(t *testing.T) {
	db, app := newTestApp(t)
	seeded := tu.SeedTask(t, db, nil, models.TaskToDo)

	var tk models.Task
	tu.DoJSON(t, app, "PUT", "/tasks/"+seeded.ID.String(),
		map[string]any{"status": "In Progress", "completionPercentage": 40}, fiber.StatusOK, &tk)
	if tk.Status != models.TaskInProgress || tk.CompletionPercentage != 40 || tk.Title != seeded.Title {
		t.Fatalf("got %+v", tk)
	}

	var body models.ValidationErrorResponse
	tu.DoJSON(t, app, "PUT", "/tasks/"+seeded.ID.String(),
		map[string]any{"completionPercentage": 150}, fiber.StatusBadRequest, &body)

	status, _ := tu.Do(t, app, "PUT", "/tasks/not-a-uuid", map[string]any{"title": "y"})
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
}

func TestDelete(t *testing.T) {
	db, app := newTestApp(t)
	tk := tu.SeedTask(t, db, nil, models.TaskToDo)

	tu.DoJSON(t, app, "DELETE", "/tasks/"+tk.ID.String(), nil, fiber.StatusOK, nil)
	if n := tu.Count(t, db, &models.Task{}, "id = ?", tk.ID); n != 0 {
		t.Fatalf("task still present")
	}
	if n := tu.Count(t, db, &models.Notification{}, "action = ?", models.ActionDeleted); n != 1 {
		t.Fatalf("notifications = %d", n)
	}
	status, _ := tu.Do(t, app, "DELETE", "/tasks/"+tk.ID.String(), nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
}

func TestList_OrderAndFilters(t *testing.T) {
	db, app := newTestApp(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	late := tu.SeedTask(t, db, &cs.ID, models.TaskToDo)
	soon := tu.SeedTask(t, db, nil, models.TaskCompleted)
	mid := tu.SeedTask(t, db, nil, models.TaskToDo)
	for tk, patch := range map[uuid.UUID]map[string]any{
		late.ID: {"due_date": base.AddDate(0, 0, 20), "assigned_to": "Jane Doe", "priority": models.PriorityHigh},
		soon.ID: {"due_date": base, "assigned_to": "John Roe"},
		mid.ID:  {"due_date": base.AddDate(0, 0, 5), "description": "file 100% of exhibits"},
	} {
		if err := db.Model(&models.Task{}).Where("id = ?", tk).Updates(patch).Error; err != nil {
			t.Fatal(err)
		}
	}

	var page PageTasks
	tu.DoJSON(t, app, "GET", "/tasks", nil, fiber.StatusOK, &page)
	if page.Total != 3 || page.Items[0].ID != soon.ID || page.Items[1].ID != mid.ID || page.Items[2].ID != late.ID {
		t.Fatalf("order: %+v", page.Items)
	}

	cases := []struct {
		query string
		want  uuid.UUID
	}{
		{"status=Completed", soon.ID},
		{"priority=High", late.ID},
		{"assignedTo=jane", late.ID},
		{"caseId=" + cs.ID.String(), late.ID},
		{"search=100%25", mid.ID},
	}
	for _, tc := range cases {
		tu.DoJSON(t, app, "GET", "/tasks?"+tc.query, nil, fiber.StatusOK, &page)
		if page.Total != 1 || page.Items[0].ID != tc.want {
			t.Fatalf("%s: %+v", tc.query, page)
		}
	}

	status, _ := tu.Do(t, app, "GET", "/tasks?caseId=bogus", nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad caseId status = %d", status)
	}
}
