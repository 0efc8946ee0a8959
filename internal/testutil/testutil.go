// Package testutil holds helpers shared by handler and engine tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ShivaprasadMurashillin/LexDash/internal/auth"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

/* ============================================================================
   Database
   ============================================================================ */

// OpenDB returns a migrated database for one test.
// TEST_DATABASE_URL selects a real Postgres (truncated after the test);
// otherwise a fresh SQLite file under t.TempDir() is used.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	gcfg := database.Config(gormLogger.Default.LogMode(gormLogger.Silent))

	var db *gorm.DB
	var err error
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		// Truncate AFTER each test (data survives within a single test).
		t.Cleanup(func() {
			sql := `
TRUNCATE TABLE
	notification_reads,
	notifications,
	invoices,
	tasks,
	documents,
	cases,
	clients,
	users
RESTART IDENTITY CASCADE`
			if err := db.Exec(sql).Error; err != nil {
				t.Logf("truncate failed (ignored): %v", err)
			}
		})
	} else {
		db, err = database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), gcfg)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

/* ============================================================================
   HTTP
   ============================================================================ */

// Attorney is the default actor injected by NewApp.
var Attorney = auth.Actor{ID: uuid.NewString(), Name: "Jane Doe", Email: "jane@firm.test"}

// InjectAuth puts the locals RequireAuth would set, without a real JWT.
func InjectAuth(a auth.Actor, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", a.ID)
		c.Locals("role", string(role))
		c.Locals("name", a.Name)
		c.Locals("email", a.Email)
		return c.Next()
	}
}

// NewApp builds a fiber app with the production error handler and an injected attorney.
func NewApp() *fiber.App {
	return NewAppAs(Attorney, models.RoleAttorney)
}

// NewAppAs is NewApp with an explicit actor and role.
func NewAppAs(a auth.Actor, role models.Role) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler(logger.Nop())})
	app.Use(InjectAuth(a, role))
	return app
}

// Do sends a request with an optional JSON body and returns status and raw body.
func Do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

// DoJSON is Do, failing unless the status matches, then decoding into out (if non-nil).
func DoJSON(t *testing.T, app *fiber.App, method, path string, body any, wantStatus int, out any) {
	t.Helper()
	status, raw := Do(t, app, method, path, body)
	if status != wantStatus {
		t.Fatalf("%s %s: status %d, want %d; body=%s", method, path, status, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
}

/* ============================================================================
   Seeds
   ============================================================================ */

var seq int

func next() int { seq++; return seq }

// SeedClient inserts a client with a unique email.
func SeedClient(t *testing.T, db *gorm.DB, name string) models.Client {
	t.Helper()
	cl := models.Client{
		Name:       name,
		Email:      fmt.Sprintf("client%d-%s@example.test", next(), uuid.NewString()[:8]),
		Type:       models.ClientIndividual,
		Status:     models.ClientActive,
		JoinedDate: time.Now().UTC(),
	}
	if err := db.Create(&cl).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return cl
}

// SeedCase inserts a case directly (no counter bookkeeping).
func SeedCase(t *testing.T, db *gorm.DB, clientID *uuid.UUID, status models.CaseStatus) models.Case {
	t.Helper()
	cs := models.Case{
		CaseNumber: fmt.Sprintf("SEED-%d-%s", next(), uuid.NewString()[:8]),
		Title:      "Seeded case",
		Type:       models.CaseCivil,
		Status:     status,
		Priority:   models.PriorityMedium,
		ClientID:   clientID,
	}
	if err := db.Create(&cs).Error; err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return cs
}

// SeedDocument inserts a document attached to caseID.
func SeedDocument(t *testing.T, db *gorm.DB, caseID *uuid.UUID, fileURL string) models.Document {
	t.Helper()
	d := models.Document{
		Title:   fmt.Sprintf("Doc %d", next()),
		CaseID:  caseID,
		Type:    models.DocMotion,
		Status:  models.DocDraft,
		FileURL: fileURL,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return d
}

// SeedTask inserts a task attached to caseID.
func SeedTask(t *testing.T, db *gorm.DB, caseID *uuid.UUID, status models.TaskStatus) models.Task {
	t.Helper()
	tk := models.Task{
		Title:    fmt.Sprintf("Task %d", next()),
		CaseID:   caseID,
		Priority: models.PriorityMedium,
		Status:   status,
	}
	if err := db.Create(&tk).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return tk
}

// Count returns the number of rows of model matching where.
func Count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
