package notifications

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/cache"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

func TestSeverity(t *testing.T) {
	tests := map[models.Action]models.NotificationType{
		models.ActionCreated: models.NotifySuccess,
		models.ActionUpdated: models.NotifyInfo,
		models.ActionDeleted: models.NotifyDanger,
		"archived":           models.NotifyInfo,
	}
	for action, want := range tests {
		if got := Severity(action); got != want {
			t.Fatalf("Severity(%q) = %q, want %q", action, got, want)
		}
	}
}

func TestBuild(t *testing.T) {
	n := Build(models.EntityCase, models.ActionCreated, "Smith v. Jones", "Jane Doe")
	if n.Title != "Case created" || n.Message != `"Smith v. Jones" was created by Jane Doe` {
		t.Fatalf("got %q / %q", n.Title, n.Message)
	}
	if n.Type != models.NotifySuccess || n.Entity != "Case" || n.CreatedBy != "Jane Doe" {
		t.Fatalf("got %+v", n)
	}
	if Build("Task", models.ActionDeleted, "x", "").CreatedBy != "System" {
		t.Fatal("empty actor should fall back to System")
	}
}

func TestEmit_PersistsAndCounts(t *testing.T) {
	db := tu.OpenDB(t)
	m := metrics.New()
	e := NewEmitter(db, logger.Nop(), m, nil)

	e.Emit(context.Background(), models.EntityClient, models.ActionUpdated, "Acme", "Jane")

	var n models.Notification
	if err := db.First(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n.Type != models.NotifyInfo || n.Action != models.ActionUpdated {
		t.Fatalf("got %+v", n)
	}
	if n, _ := testutil.GatherAndCount(m.Registry(), "lexdash_notifications_emitted_total"); n != 1 {
		t.Fatalf("emitted series = %d", n)
	}
}

func TestEmit_FailureIsSwallowed(t *testing.T) {
	db := tu.OpenDB(t)
	if err := db.Migrator().DropTable(&models.Notification{}); err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	e := NewEmitter(db, logger.Nop(), m, nil)

	e.Emit(context.Background(), models.EntityTask, models.ActionCreated, "t", "Jane") // must not panic

	if n, _ := testutil.GatherAndCount(m.Registry(), "lexdash_secondary_effect_failures_total"); n != 1 {
		t.Fatalf("failure series = %d", n)
	}
}

func TestMarkRead_IsIdempotentPerViewer(t *testing.T) {
	db := tu.OpenDB(t)
	e := NewEmitter(db, logger.Nop(), nil, nil)
	for i := 0; i < 3; i++ {
		e.Emit(context.Background(), models.EntityDocument, models.ActionCreated, fmt.Sprint("doc ", i), "Jane")
	}

	h := NewHandler(db, logger.Nop(), e)
	app := tu.NewApp()
	app.Get("/notifications", h.List)
	app.Put("/notifications/mark-all-read", h.MarkAllRead)
	app.Put("/notifications/:id/read", h.MarkRead)
	app.Delete("/notifications", h.ClearAll)

	var before ListResult
	tu.DoJSON(t, app, "GET", "/notifications", nil, 200, &before)
	if len(before.Items) != 3 || before.UnreadCount != 3 {
		t.Fatalf("before: %d items, %d unread", len(before.Items), before.UnreadCount)
	}
	id := before.Items[0].ID

	var after ListResult
	for i, wantUnread := range []int64{2, 2} {
		tu.DoJSON(t, app, "PUT", "/notifications/"+id.String()+"/read", nil, 200, nil)
		tu.DoJSON(t, app, "GET", "/notifications", nil, 200, &after)
		if after.UnreadCount != wantUnread {
			t.Fatalf("mark %d: unread = %d, want %d", i+1, after.UnreadCount, wantUnread)
		}
	}
	for _, got := range after.Items {
		if got.ID != id {
			if got.Read {
				t.Fatalf("notification %s should be unread", got.ID)
			}
			continue
		}
		if !got.Read || len(got.ReadBy) != 1 || got.ReadBy[0] != tu.Attorney.Email {
			t.Fatalf("readBy = %v read=%v", got.ReadBy, got.Read)
		}
	}
	if n := tu.Count(t, db, &models.NotificationRead{}, "notification_id = ?", id); n != 1 {
		t.Fatalf("read rows = %d", n)
	}

	// Another viewer is unaffected.
	other := tu.NewAppAs(auth.Actor{Name: "Sam", Email: "sam@firm.test"}, models.RoleAttorney)
	other.Get("/notifications", h.List)
	var sams ListResult
	tu.DoJSON(t, other, "GET", "/notifications", nil, 200, &sams)
	if sams.UnreadCount != 3 {
		t.Fatalf("other viewer unread = %d", sams.UnreadCount)
	}

	tu.DoJSON(t, app, "PUT", "/notifications/mark-all-read", nil, 200, nil)
	tu.DoJSON(t, app, "PUT", "/notifications/mark-all-read", nil, 200, nil)
	tu.DoJSON(t, app, "GET", "/notifications", nil, 200, &after)
	if after.UnreadCount != 0 {
		t.Fatalf("after mark-all unread = %d", after.UnreadCount)
	}
	if n := tu.Count(t, db, &models.NotificationRead{}, "viewer = ?", tu.Attorney.Email); n != 3 {
		t.Fatalf("read rows after mark-all = %d", n)
	}

	tu.DoJSON(t, app, "DELETE", "/notifications", nil, 200, nil)
	if n := tu.Count(t, db, &models.Notification{}, ""); n != 0 {
		t.Fatalf("notifications after clear = %d", n)
	}
	if n := tu.Count(t, db, &models.NotificationRead{}, ""); n != 0 {
		t.Fatalf("reads after clear = %d", n)
	}
}

func TestMarkRead_UnknownID(t *testing.T) {
	db := tu.OpenDB(t)
	app := tu.NewApp()
	app.Put("/notifications/:id/read", NewHandler(db, logger.Nop(), NewEmitter(db, logger.Nop(), nil, nil)).MarkRead)

	status, _ := tu.Do(t, app, "PUT", "/notifications/00000000-0000-0000-0000-000000000001/read", nil)
	if status != 404 {
		t.Fatalf("status = %d", status)
	}
}

func TestList_Limit(t *testing.T) {
	db := tu.OpenDB(t)
	e := NewEmitter(db, logger.Nop(), nil, nil)
	for i := 0; i < 5; i++ {
		e.Emit(context.Background(), models.EntityTask, models.ActionCreated, fmt.Sprint(i), "Jane")
	}
	res, err := List(context.Background(), db, "jane@firm.test", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 || res.UnreadCount != 5 {
		t.Fatalf("items=%d unread=%d", len(res.Items), res.UnreadCount)
	}
}

// countingCache records invalidations.
type countingCache struct {
	cache.Nop
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

func TestClearAll_DropsCachedAggregations(t *testing.T) {
	db := tu.OpenDB(t)
	rc := &countingCache{}
	e := NewEmitter(db, logger.Nop(), nil, rc)
	e.Emit(context.Background(), models.EntityClient, models.ActionCreated, "Acme", "Jane")
	if rc.invalidations != 1 {
		t.Fatalf("invalidations after emit = %d", rc.invalidations)
	}

	app := tu.NewApp()
	app.Delete("/notifications", NewHandler(db, logger.Nop(), e).ClearAll)
	tu.DoJSON(t, app, "DELETE", "/notifications", nil, 200, nil)
	if rc.invalidations != 2 {
		t.Fatalf("invalidations after clear = %d, want 2", rc.invalidations)
	}
}
