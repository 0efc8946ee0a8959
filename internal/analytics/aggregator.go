// Package analytics computes the read-only dashboard and analytics rollups.
//
// Counts and categorical breakdowns are grouped in SQL. Monthly trends fetch
// the timestamps inside the window and bucket them in Go, so months without
// activity are reported as explicit zeros and month boundaries follow the
// configured location rather than the database session's.
package analytics

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/billing"
	"github.com/ShivaprasadMurashillin/LexDash/internal/notifications"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/cache"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/timebucket"
)

const (
	IntakeMonths   = 12
	VelocityMonths = 6
	UpcomingWindow = 30 * 24 * time.Hour

	recentCases    = 5
	upcomingCases  = 10
	recentTasks    = 6
	recentActivity = 10
)

var (
	openCaseStatuses    = []models.CaseStatus{models.CaseActive, models.CasePending}
	openTaskStatuses    = []models.TaskStatus{models.TaskToDo, models.TaskInProgress, models.TaskOverdue}
	billedStatuses      = []models.InvoiceStatus{models.InvoicePaid, models.InvoiceSent, models.InvoiceOverdue}
	pendingTaskStatuses = []models.TaskStatus{models.TaskToDo, models.TaskInProgress}
)

type Aggregator struct {
	db    *gorm.DB
	loc   *time.Location
	now   func() time.Time
	cache cache.Cache
	log   *logger.Logger
}

func New(db *gorm.DB, loc *time.Location, c cache.Cache, log *logger.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Aggregator{db: db, loc: loc, now: time.Now, cache: c, log: log.With("service", "Analytics")}
}

/* ============================== Dashboard =============================== */

// Dashboard returns the overview counts, case breakdowns and the short lists
// shown on the landing page.
func (a *Aggregator) Dashboard(ctx context.Context) (Dashboard, error) {
	return cache.Remember(ctx, a.cache, a.log, "dashboard", a.dashboard)
}

func (a *Aggregator) dashboard(ctx context.Context) (Dashboard, error) {
	now := a.now().UTC()
	db := a.db.WithContext(ctx)

	var (
		d                     Dashboard
		totalTasks, doneTasks int64
		g                     errgroup.Group
	)
	count := func(dst *int64, model any, where string, args ...any) {
		g.Go(func() error {
			q := db.Model(model)
			if where != "" {
				q = q.Where(where, args...)
			}
			return q.Count(dst).Error
		})
	}
	count(&d.Overview.TotalCases, &models.Case{}, "")
	count(&d.Overview.ActiveCases, &models.Case{}, "status = ?", models.CaseActive)
	count(&d.Overview.PendingTasks, &models.Task{}, "status IN ?", pendingTaskStatuses)
	count(&d.Overview.DocumentsFiled, &models.Document{}, "status = ?", models.DocFiled)
	count(&d.Overview.TotalDocuments, &models.Document{}, "")
	count(&d.Overview.TotalClients, &models.Client{}, "")
	count(&totalTasks, &models.Task{}, "")
	count(&doneTasks, &models.Task{}, "status = ?", models.TaskCompleted)

	g.Go(func() (err error) {
		d.CasesByStatus, err = groupCount(db, &models.Case{}, "status", false)
		return
	})
	g.Go(func() (err error) {
		d.CasesByType, err = groupCount(db, &models.Case{}, "type", true)
		return
	})
	g.Go(func() error {
		d.RecentCases = make([]models.Case, 0, recentCases)
		return db.Scopes(withClient).Order("created_at DESC").Limit(recentCases).Find(&d.RecentCases).Error
	})
	g.Go(func() error {
		d.UpcomingDeadlines = make([]models.Case, 0, upcomingCases)
		return db.Scopes(withClient).
			Where("court_date >= ? AND court_date <= ?", now, now.Add(UpcomingWindow)).
			Order("court_date ASC").Limit(upcomingCases).Find(&d.UpcomingDeadlines).Error
	})
	g.Go(func() error {
		d.RecentTasks = make([]models.Task, 0, recentTasks)
		return db.Preload("Case", func(q *gorm.DB) *gorm.DB { return q.Select("id", "title", "case_number") }).
			Where("status <> ?", models.TaskCompleted).
			Order("due_date ASC").Limit(recentTasks).Find(&d.RecentTasks).Error
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	d.Overview.TaskCompletionRate = Rate(doneTasks, totalTasks)
	return d, nil
}

func withClient(db *gorm.DB) *gorm.DB {
	return db.Preload("Client", func(q *gorm.DB) *gorm.DB { return q.Select("id", "name", "email") })
}

// groupCount returns {name, value} pairs of model grouped by col, ordered by
// name or, with byValue, largest group first.
func groupCount(db *gorm.DB, model any, col string, byValue bool) ([]models.NameValue, error) {
	order := col + " ASC"
	if byValue {
		order = "COUNT(*) DESC, " + order
	}
	out := make([]models.NameValue, 0)
	err := db.Model(model).
		Select(col + " AS name, COUNT(*) AS value").
		Group(col).
		Order(order).
		Scan(&out).Error
	return out, err
}

/* ============================== Analytics =============================== */

// Analytics returns every trend and breakdown of the analytics page.
func (a *Aggregator) Analytics(ctx context.Context) (Report, error) {
	return cache.Remember(ctx, a.cache, a.log, "analytics", a.analytics)
}

func (a *Aggregator) analytics(ctx context.Context) (Report, error) {
	now := a.now()

	var r Report
	g, gctx := errgroup.WithContext(ctx)
	db := a.db.WithContext(gctx)
	g.Go(func() (err error) { r.MonthlyIntake, err = a.intake(db, now); return })
	g.Go(func() (err error) { r.ClientGrowth, err = a.clientGrowth(db, now); return })
	g.Go(func() (err error) { r.TaskVelocity, err = a.velocity(db, now); return })
	g.Go(func() (err error) {
		r.MonthlyRevenue, err = billing.PaidRevenue(gctx, a.db, now, billing.RevenueMonths, a.loc)
		return
	})
	g.Go(func() (err error) { r.AttorneyWorkload, err = workload(db); return })
	g.Go(func() (err error) { r.CaseOutcomes, err = outcomes(db); return })
	g.Go(func() (err error) {
		r.DocPipeline, err = groupCount(db, &models.Document{}, "status", true)
		return
	})
	g.Go(func() (err error) { r.PriorityBreakdown, err = priorityByAttorney(db); return })
	g.Go(func() (err error) { r.OverdueAnalysis, err = overdue(db, now.UTC()); return })
	g.Go(func() (err error) { r.RevenueByType, err = revenueByType(db); return })
	g.Go(func() (err error) { r.BillingOverview, err = billingOverview(gctx, a.db); return })
	g.Go(func() (err error) { r.RecentActivity, err = notifications.Recent(gctx, a.db, recentActivity); return })
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// times plucks col of model for rows at or after since.
func times(db *gorm.DB, model any, col string, since time.Time, where string, args ...any) ([]time.Time, error) {
	var ts []time.Time
	q := db.Model(model).Where(col+" >= ?", since.UTC())
	if where != "" {
		q = q.Where(where, args...)
	}
	err := q.Pluck(col, &ts).Error
	return ts, err
}

func (a *Aggregator) intake(db *gorm.DB, now time.Time) ([]IntakePoint, error) {
	w := timebucket.Months(now, IntakeMonths, a.loc)
	ts, err := times(db, &models.Case{}, "created_at", w.Start(), "")
	if err != nil {
		return nil, err
	}
	counts := CountByMonth(w, ts)
	out := make([]IntakePoint, len(w))
	for i, m := range w {
		out[i] = IntakePoint{Month: m.Label, Cases: counts[i]}
	}
	return out, nil
}

// clientGrowth is the running total of clients by joinedDate, seeded with
// everyone who joined before the window.
func (a *Aggregator) clientGrowth(db *gorm.DB, now time.Time) ([]GrowthPoint, error) {
	w := timebucket.Months(now, IntakeMonths, a.loc)
	var seed int64
	if err := db.Model(&models.Client{}).Where("joined_date < ?", w.Start().UTC()).Count(&seed).Error; err != nil {
		return nil, err
	}
	ts, err := times(db, &models.Client{}, "joined_date", w.Start(), "")
	if err != nil {
		return nil, err
	}
	totals := Cumulative(seed, CountByMonth(w, ts))
	out := make([]GrowthPoint, len(w))
	for i, m := range w {
		out[i] = GrowthPoint{Month: m.Label, Clients: totals[i]}
	}
	return out, nil
}

// velocity counts tasks completed per month, taking updatedAt as the
// completion time.
func (a *Aggregator) velocity(db *gorm.DB, now time.Time) ([]VelocityPoint, error) {
	w := timebucket.Months(now, VelocityMonths, a.loc)
	ts, err := times(db, &models.Task{}, "updated_at", w.Start(), "status = ?", models.TaskCompleted)
	if err != nil {
		return nil, err
	}
	counts := CountByMonth(w, ts)
	out := make([]VelocityPoint, len(w))
	for i, m := range w {
		out[i] = VelocityPoint{Month: m.Label, Completed: counts[i]}
	}
	return out, nil
}

func workload(db *gorm.DB) ([]AttorneyLoad, error) {
	out := make([]AttorneyLoad, 0)
	err := db.Model(&models.Case{}).
		Select("assigned_attorney AS name, COUNT(*) AS cases").
		Where("status IN ? AND assigned_attorney <> ''", openCaseStatuses).
		Group("assigned_attorney").
		Order("COUNT(*) DESC, assigned_attorney ASC").
		Scan(&out).Error
	return out, err
}

func outcomes(db *gorm.DB) (CaseOutcomes, error) {
	byStatus, err := groupCount(db, &models.Case{}, "status", false)
	if err != nil {
		return CaseOutcomes{}, err
	}
	var o CaseOutcomes
	for _, s := range byStatus {
		switch models.CaseStatus(s.Name) {
		case models.CaseClosed:
			o.Closed = s.Value
		case models.CaseActive:
			o.Active = s.Value
		case models.CasePending:
			o.Pending = s.Value
		case models.CaseOnHold:
			o.OnHold = s.Value
		}
	}
	o.Total = o.Closed + o.Active + o.Pending + o.OnHold
	o.ClosureRate = Rate(o.Closed, o.Total)
	return o, nil
}

func priorityByAttorney(db *gorm.DB) ([]PriorityRow, error) {
	var rows []struct {
		Attorney string
		Priority string
		Count    int64
	}
	if err := db.Model(&models.Case{}).
		Select("assigned_attorney AS attorney, priority, COUNT(*) AS count").
		Where("status IN ? AND assigned_attorney <> ''", openCaseStatuses).
		Group("assigned_attorney, priority").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byName := map[string]*PriorityRow{}
	for _, r := range rows {
		p, ok := byName[r.Attorney]
		if !ok {
			p = &PriorityRow{Name: r.Attorney}
			byName[r.Attorney] = p
		}
		switch models.Priority(r.Priority) {
		case models.PriorityHigh:
			p.High = r.Count
		case models.PriorityMedium:
			p.Medium = r.Count
		case models.PriorityLow:
			p.Low = r.Count
		}
	}
	out := make([]PriorityRow, 0, len(byName))
	for _, p := range byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// overdue counts open tasks whose due date has passed.
func overdue(db *gorm.DB, now time.Time) (OverdueAnalysis, error) {
	var o OverdueAnalysis
	if err := db.Model(&models.Task{}).
		Where("status IN ? AND due_date < ?", openTaskStatuses, now).
		Count(&o.Overdue).Error; err != nil {
		return o, err
	}
	if err := db.Model(&models.Task{}).Where("status IN ?", openTaskStatuses).Count(&o.TotalActive).Error; err != nil {
		return o, err
	}
	o.OverdueRate = Rate(o.Overdue, o.TotalActive)
	return o, nil
}

// revenueByType joins billed invoices to their case and sums per case type.
// Invoices whose case no longer exists drop out of the join.
func revenueByType(db *gorm.DB) ([]RevenueByType, error) {
	out := make([]RevenueByType, 0)
	err := db.Table("invoices").
		Select("cases.type AS type, COUNT(*) AS cases, COALESCE(SUM(invoices.amount), 0) AS estimated_revenue").
		Joins("JOIN cases ON cases.id = invoices.case_id").
		Where("invoices.status IN ?", billedStatuses).
		Group("cases.type").
		Order("estimated_revenue DESC, cases.type ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].EstimatedRevenue = billing.Round(out[i].EstimatedRevenue)
	}
	return out, nil
}

func billingOverview(ctx context.Context, db *gorm.DB) (BillingOverview, error) {
	ov, byStatus, err := billing.Totals(ctx, db)
	if err != nil {
		return BillingOverview{}, err
	}
	return BillingOverview{
		Overview:     ov,
		PaidCount:    byStatus[string(models.InvoicePaid)].Count,
		OverdueCount: byStatus[string(models.InvoiceOverdue)].Count,
	}, nil
}
