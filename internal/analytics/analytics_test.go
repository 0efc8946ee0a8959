package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/timebucket"
)

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }

func newAggregator(db *gorm.DB) *Aggregator {
	a := New(db, time.UTC, nil, logger.Nop())
	a.now = func() time.Time { return fixedNow }
	return a
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func addCase(t *testing.T, db *gorm.DB, typ models.CaseType, status models.CaseStatus, attorney string, prio models.Priority, created time.Time) models.Case {
	t.Helper()
	cs := models.Case{
		CaseNumber:       "CASE-" + uuid.NewString()[:8],
		Title:            "Matter",
		Type:             typ,
		Status:           status,
		Priority:         prio,
		AssignedAttorney: attorney,
		CreatedAt:        created,
	}
	mustCreate(t, db, &cs)
	return cs
}

func addInvoice(t *testing.T, db *gorm.DB, caseID uuid.UUID, status models.InvoiceStatus, amount float64, paid *time.Time) {
	t.Helper()
	mustCreate(t, db, &models.Invoice{
		InvoiceNumber: "INV-" + uuid.NewString()[:8],
		CaseID:        caseID,
		ClientID:      uuid.New(),
		Attorney:      "Jane Doe",
		Hours:         1,
		HourlyRate:    amount,
		Amount:        amount,
		Status:        status,
		DueDate:       fixedNow,
		PaidDate:      paid,
	})
}

func TestCountByMonthAndCumulative(t *testing.T) {
	w := timebucket.Months(fixedNow, 3, time.UTC)
	counts := CountByMonth(w, []time.Time{
		date(2026, 4, 1), date(2026, 6, 30), date(2026, 6, 1), date(2026, 3, 31), date(2026, 7, 1),
	})
	if fmt.Sprint(counts) != "[1 0 2]" {
		t.Fatalf("counts = %v", counts)
	}
	if got := Cumulative(5, counts); fmt.Sprint(got) != "[6 6 8]" {
		t.Fatalf("cumulative = %v", got)
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		n, d int64
		want int
	}{
		{0, 0, 0}, {5, 0, 0}, {1, 3, 33}, {2, 3, 67}, {1, 2, 50}, {4, 4, 100},
	}
	for _, tt := range tests {
		if got := Rate(tt.n, tt.d); got != tt.want {
			t.Fatalf("Rate(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}

func TestAnalytics_IntakeIsZeroFilled(t *testing.T) {
	db := tu.OpenDB(t)
	addCase(t, db, models.CaseCivil, models.CaseActive, "", models.PriorityMedium, date(2026, 3, 2))
	addCase(t, db, models.CaseCivil, models.CaseActive, "", models.PriorityMedium, date(2026, 3, 28))
	addCase(t, db, models.CaseFamily, models.CaseClosed, "", models.PriorityLow, date(2026, 6, 1))
	addCase(t, db, models.CaseFamily, models.CaseClosed, "", models.PriorityLow, date(2024, 1, 1))

	r, err := newAggregator(db).Analytics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(r.MonthlyIntake) != IntakeMonths {
		t.Fatalf("months = %d", len(r.MonthlyIntake))
	}
	if r.MonthlyIntake[0].Month != "Jul 25" || r.MonthlyIntake[11].Month != "Jun 26" {
		t.Fatalf("labels: first %q last %q", r.MonthlyIntake[0].Month, r.MonthlyIntake[11].Month)
	}
	zeros := 0
	for i, p := range r.MonthlyIntake {
		switch i {
		case 8:
			if p.Cases != 2 {
				t.Fatalf("Mar 26 = %d", p.Cases)
			}
		case 11:
			if p.Cases != 1 {
				t.Fatalf("Jun 26 = %d", p.Cases)
			}
		default:
			if p.Cases == 0 {
				zeros++
			}
		}
	}
	if zeros != 10 {
		t.Fatalf("zero months = %d, want 10", zeros)
	}
	if len(r.TaskVelocity) != VelocityMonths || len(r.MonthlyRevenue) != 6 {
		t.Fatalf("velocity %d revenue %d", len(r.TaskVelocity), len(r.MonthlyRevenue))
	}
	if r.CaseOutcomes != (CaseOutcomes{Closed: 2, Active: 2, Total: 4, ClosureRate: 50}) {
		t.Fatalf("outcomes = %+v", r.CaseOutcomes)
	}
}

func TestAnalytics_ClientGrowthIsCumulative(t *testing.T) {
	db := tu.OpenDB(t)
	for _, joined := range []time.Time{date(2024, 2, 1), date(2025, 6, 30), date(2026, 1, 10), date(2026, 5, 5)} {
		mustCreate(t, db, &models.Client{
			Name:       "C",
			Email:      uuid.NewString() + "@example.test",
			Type:       models.ClientIndividual,
			Status:     models.ClientActive,
			JoinedDate: joined,
		})
	}

	r, err := newAggregator(db).Analytics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4}
	for i, p := range r.ClientGrowth {
		if p.Clients != want[i] {
			t.Fatalf("%s = %d, want %d (all: %+v)", p.Month, p.Clients, want[i], r.ClientGrowth)
		}
	}
}

func TestAnalytics_Breakdowns(t *testing.T) {
	db := tu.OpenDB(t)
	civil := addCase(t, db, models.CaseCivil, models.CaseActive, "Jane Doe", models.PriorityHigh, date(2026, 6, 1))
	crim := addCase(t, db, models.CaseCriminal, models.CasePending, "Jane Doe", models.PriorityLow, date(2026, 6, 1))
	addCase(t, db, models.CaseFamily, models.CaseActive, "Bob Roe", models.PriorityHigh, date(2026, 6, 1))
	addCase(t, db, models.CaseFamily, models.CaseClosed, "Bob Roe", models.PriorityHigh, date(2026, 6, 1))

	paid := date(2026, 5, 20)
	addInvoice(t, db, civil.ID, models.InvoicePaid, 100.10, &paid)
	addInvoice(t, db, civil.ID, models.InvoiceSent, 50.20, nil)
	addInvoice(t, db, civil.ID, models.InvoiceCancelled, 70, nil)
	addInvoice(t, db, crim.ID, models.InvoiceDraft, 999, nil)
	addInvoice(t, db, crim.ID, models.InvoiceOverdue, 30, nil)

	mustCreate(t, db, &models.Task{Title: "done", Priority: models.PriorityLow, Status: models.TaskCompleted, UpdatedAt: date(2026, 5, 3)})
	past := date(2026, 6, 1)
	future := date(2026, 7, 1)
	mustCreate(t, db, &models.Task{Title: "late", Priority: models.PriorityLow, Status: models.TaskToDo, DueDate: &past})
	mustCreate(t, db, &models.Task{Title: "soon", Priority: models.PriorityLow, Status: models.TaskInProgress, DueDate: &future})
	mustCreate(t, db, &models.Task{Title: "marked", Priority: models.PriorityLow, Status: models.TaskOverdue, DueDate: &past})

	r, err := newAggregator(db).Analytics(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(r.RevenueByType) != 2 ||
		r.RevenueByType[0] != (RevenueByType{Type: "Civil", Cases: 2, EstimatedRevenue: 150.3}) ||
		r.RevenueByType[1] != (RevenueByType{Type: "Criminal", Cases: 1, EstimatedRevenue: 30}) {
		t.Fatalf("revenueByType = %+v", r.RevenueByType)
	}
	if fmt.Sprint(r.AttorneyWorkload) != "[{Jane Doe 2} {Bob Roe 1}]" {
		t.Fatalf("workload = %+v", r.AttorneyWorkload)
	}
	if fmt.Sprint(r.PriorityBreakdown) != "[{Bob Roe 1 0 0} {Jane Doe 1 0 1}]" {
		t.Fatalf("priority = %+v", r.PriorityBreakdown)
	}
	if r.OverdueAnalysis != (OverdueAnalysis{Overdue: 2, TotalActive: 3, OverdueRate: 67}) {
		t.Fatalf("overdue = %+v", r.OverdueAnalysis)
	}
	if r.TaskVelocity[4].Month != "May 26" || r.TaskVelocity[4].Completed != 1 {
		t.Fatalf("velocity = %+v", r.TaskVelocity)
	}
	if r.MonthlyRevenue[4].Revenue != 100.1 {
		t.Fatalf("revenue = %+v", r.MonthlyRevenue)
	}
	bo := r.BillingOverview
	if bo.InvoiceCount != 5 || bo.PaidCount != 1 || bo.OverdueCount != 1 || bo.TotalOutstanding != 80.2 {
		t.Fatalf("billing overview = %+v", bo)
	}
	if r.RecentActivity == nil || r.DocPipeline == nil {
		t.Fatal("empty lists must be [] not null")
	}
}

func TestDashboard(t *testing.T) {
	db := tu.OpenDB(t)
	a := newAggregator(db)

	cl := tu.SeedClient(t, db, "Acme")
	inWindow := fixedNow.Add(10 * 24 * time.Hour)
	tooFar := fixedNow.Add(40 * 24 * time.Hour)
	for i := 0; i < 7; i++ {
		cs := models.Case{
			CaseNumber: fmt.Sprintf("CASE-2026-%03d", i+1),
			Title:      fmt.Sprintf("Matter %d", i),
			Type:       models.CaseCivil,
			Status:     models.CaseActive,
			Priority:   models.PriorityMedium,
			ClientID:   &cl.ID,
		}
		switch i {
		case 0:
			cs.CourtDate = &inWindow
		case 1:
			cs.CourtDate = &tooFar
		case 2:
			cs.Status = models.CaseClosed
			cs.Type = models.CaseFamily
		}
		mustCreate(t, db, &cs)
	}
	due := fixedNow
	mustCreate(t, db, &models.Task{Title: "a", Priority: models.PriorityLow, Status: models.TaskCompleted, DueDate: &due})
	mustCreate(t, db, &models.Task{Title: "b", Priority: models.PriorityLow, Status: models.TaskToDo, DueDate: &due})
	mustCreate(t, db, &models.Document{Title: "d", Type: models.DocBrief, Status: models.DocFiled})

	d, err := a.Dashboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := Overview{TotalCases: 7, ActiveCases: 6, PendingTasks: 1, DocumentsFiled: 1, TotalDocuments: 1, TotalClients: 1, TaskCompletionRate: 50}
	if d.Overview != want {
		t.Fatalf("overview = %+v", d.Overview)
	}
	if len(d.RecentCases) != 5 || d.RecentCases[0].Client == nil || d.RecentCases[0].Client.Name != "Acme" {
		t.Fatalf("recent cases = %+v", d.RecentCases)
	}
	if len(d.UpcomingDeadlines) != 1 || d.UpcomingDeadlines[0].Title != "Matter 0" {
		t.Fatalf("upcoming = %+v", d.UpcomingDeadlines)
	}
	if len(d.RecentTasks) != 1 || d.RecentTasks[0].Title != "b" {
		t.Fatalf("tasks = %+v", d.RecentTasks)
	}
	if fmt.Sprint(d.CasesByType) != "[{Civil 6} {Family 1}]" {
		t.Fatalf("by type = %+v", d.CasesByType)
	}
	if fmt.Sprint(d.CasesByStatus) != "[{Active 6} {Closed 1}]" {
		t.Fatalf("by status = %+v", d.CasesByStatus)
	}
}
