package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

func at(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 9, 0, 0, 0, time.UTC) }

func TestMonth_UsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	m := Month(2026, time.March, ny)
	if m.Start.UTC() != time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC) {
		t.Fatalf("start = %v", m.Start.UTC())
	}
	if m.End.UTC() != time.Date(2026, 4, 1, 4, 0, 0, 0, time.UTC) {
		t.Fatalf("end = %v", m.End.UTC())
	}
}

func TestEvents_CollectsMonthOnly(t *testing.T) {
	db := tu.OpenDB(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)
	court, filing := at(2026, 3, 20), at(2026, 2, 10)
	if err := db.Model(&cs).Updates(map[string]any{"court_date": court, "filing_date": filing}).Error; err != nil {
		t.Fatal(err)
	}

	tk := tu.SeedTask(t, db, &cs.ID, models.TaskToDo)
	db.Model(&tk).Update("due_date", at(2026, 3, 5))
	outside := tu.SeedTask(t, db, nil, models.TaskToDo)
	db.Model(&outside).Update("due_date", at(2026, 4, 1))
	tu.SeedTask(t, db, nil, models.TaskToDo)

	doc := tu.SeedDocument(t, db, nil, "")
	db.Model(&doc).Update("deadline", at(2026, 3, 12))

	events, err := Events(context.Background(), db, Month(2026, time.March, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{KindTask, KindDocument, KindCourt}
	if len(events) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Fatalf("event %d kind = %s, want %s", i, events[i].Kind, k)
		}
	}
	if events[0].Sub != cs.CaseNumber || events[0].ID != tk.ID {
		t.Fatalf("task event = %+v", events[0])
	}
	if events[2].Sub != "Court Date" || events[2].CaseID == nil || *events[2].CaseID != cs.ID {
		t.Fatalf("court event = %+v", events[2])
	}
}

func TestHandler_DefaultsAndValidation(t *testing.T) {
	db := tu.OpenDB(t)
	h := NewHandler(db, time.UTC)
	h.now = func() time.Time { return at(2026, 7, 4) }

	app := tu.NewApp()
	app.Get("/calendar", h.Events)

	var res Response
	tu.DoJSON(t, app, "GET", "/calendar", nil, fiber.StatusOK, &res)
	if res.Year != 2026 || res.Month != 7 || res.Events == nil {
		t.Fatalf("got %+v", res)
	}

	var body models.ValidationErrorResponse
	tu.DoJSON(t, app, "GET", "/calendar?month=13&year=abc", nil, fiber.StatusBadRequest, &body)
	if len(body.Errors["month"]) != 1 || len(body.Errors["year"]) != 1 {
		t.Fatalf("errors = %v", body.Errors)
	}
}
