package identifiers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

func newGen(db *gorm.DB, m *metrics.Metrics) *Generator {
	g := New(db, time.UTC, logger.Nop(), m)
	g.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func insertCase(title string) func(tx *gorm.DB, number string) error {
	return func(tx *gorm.DB, number string) error {
		return tx.Create(&models.Case{
			CaseNumber: number, Title: title, Type: models.CaseCivil,
			Status: models.CasePending, Priority: models.PriorityLow,
		}).Error
	}
}

func TestFormat(t *testing.T) {
	if got := Format("CASE", 2026, 7, 3); got != "CASE-2026-007" {
		t.Fatalf("got %s", got)
	}
	if got := Format("INV", 2026, 12, 4); got != "INV-2026-0012" {
		t.Fatalf("got %s", got)
	}
	if got := Format("CASE", 2026, 1234, 3); got != "CASE-2026-1234" {
		t.Fatalf("overflow should widen, got %s", got)
	}
}

func TestYearUsesConfiguredZone(t *testing.T) {
	db := tu.OpenDB(t)
	loc := time.FixedZone("UTC+10", 10*3600)
	g := New(db, loc, logger.Nop(), nil)
	g.now = func() time.Time { return time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC) }

	got, err := g.NextInvoiceNumber(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "INV-2026-0001" {
		t.Fatalf("got %s, want INV-2026-0001", got)
	}
}

func TestCreate_SequentialNumbers(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := g.Create(ctx, CaseNumber, insertCase(fmt.Sprint(i))); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	var numbers []string
	db.Model(&models.Case{}).Order("case_number").Pluck("case_number", &numbers)
	want := []string{"CASE-2026-001", "CASE-2026-002", "CASE-2026-003"}
	for i := range want {
		if numbers[i] != want[i] {
			t.Fatalf("numbers = %v, want %v", numbers, want)
		}
	}
	if next, _ := g.NextCaseNumber(ctx); next != "CASE-2026-004" {
		t.Fatalf("next = %s", next)
	}
}

func TestCreate_RetriesAfterDeletionCollision(t *testing.T) {
	db := tu.OpenDB(t)
	m := metrics.New()
	g := newGen(db, m)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.Create(ctx, CaseNumber, insertCase("c")); err != nil {
			t.Fatal(err)
		}
	}
	// Deleting the first case shrinks the count; count+1 now collides with 003
	// on both counted attempts, then the year maximum gives 004.
	db.Where("case_number = ?", "CASE-2026-001").Delete(&models.Case{})

	if err := g.Create(ctx, CaseNumber, insertCase("after delete")); err != nil {
		t.Fatalf("create after delete: %v", err)
	}
	var cs models.Case
	db.Where("title = ?", "after delete").First(&cs)
	if cs.CaseNumber != "CASE-2026-004" {
		t.Fatalf("got %s, want CASE-2026-004", cs.CaseNumber)
	}
	if n, err := testutil.GatherAndCount(m.Registry(), "lexdash_identifier_retries_total"); err != nil || n != 1 {
		t.Fatalf("retry series = %d (%v), want 1", n, err)
	}
}

func TestCreate_KeepsAllocatingAfterMassDelete(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := g.Create(ctx, CaseNumber, insertCase("seed")); err != nil {
			t.Fatal(err)
		}
	}
	// Ten rows left: count+1 lands on 011..020, all still taken.
	db.Where("case_number <= ?", "CASE-2026-010").Delete(&models.Case{})

	for i := 1; i <= 3; i++ {
		if err := g.Create(ctx, CaseNumber, insertCase(fmt.Sprint("late ", i))); err != nil {
			t.Fatalf("create %d after delete: %v", i, err)
		}
	}
	var numbers []string
	db.Model(&models.Case{}).Where("title LIKE ?", "late %").Order("case_number").Pluck("case_number", &numbers)
	want := []string{"CASE-2026-021", "CASE-2026-022", "CASE-2026-023"}
	if fmt.Sprint(numbers) != fmt.Sprint(want) {
		t.Fatalf("numbers = %v, want %v", numbers, want)
	}
}

func TestCreate_RecountRetryDoesNotSkip(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	ctx := context.Background()

	var tried []string
	err := g.Create(ctx, CaseNumber, func(tx *gorm.DB, number string) error {
		tried = append(tried, number)
		if len(tried) == 1 {
			return gorm.ErrDuplicatedKey
		}
		return insertCase("x")(tx, number)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tried) != 2 || tried[1] != "CASE-2026-001" {
		t.Fatalf("tried %v, want the re-count to offer CASE-2026-001 again", tried)
	}
}

func TestNumber_FallsBackToYearMaximum(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	ctx := context.Background()

	for _, n := range []string{"CASE-2025-040", "CASE-2026-009", "CASE-2026-010"} {
		if err := insertCase("old")(db, n); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := g.number(ctx, db, CaseNumber, 1); got != "CASE-2026-004" {
		t.Fatalf("attempt 1 = %s, want count-based CASE-2026-004", got)
	}
	if got, _ := g.number(ctx, db, CaseNumber, 2); got != "CASE-2026-011" {
		t.Fatalf("attempt 2 = %s, want CASE-2026-011", got)
	}
}

func TestNumber_WideSuffixRanksHighest(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	for _, n := range []string{"CASE-2026-999", "CASE-2026-1000"} {
		if err := insertCase("wide")(db, n); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := g.number(context.Background(), db, CaseNumber, MaxAttempts-1); got != "CASE-2026-1001" {
		t.Fatalf("got %s, want CASE-2026-1001", got)
	}
}

func TestCreate_ConflictAfterMaxAttempts(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	if err := insertCase("pre")(db, "CASE-2026-001"); err != nil {
		t.Fatal(err)
	}
	calls := 0
	err := g.Create(context.Background(), CaseNumber, func(tx *gorm.DB, _ string) error {
		calls++
		return insertCase("x")(tx, "CASE-2026-001")
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != MaxAttempts {
		t.Fatalf("calls = %d, want %d", calls, MaxAttempts)
	}
	if n := tu.Count(t, db, &models.Case{}, ""); n != 1 {
		t.Fatalf("failed attempts must not persist rows, have %d", n)
	}
}

func TestCreate_PassesThroughOtherErrors(t *testing.T) {
	db := tu.OpenDB(t)
	g := newGen(db, nil)
	boom := errors.New("boom")
	calls := 0
	err := g.Create(context.Background(), InvoiceNumber, func(*gorm.DB, string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}
