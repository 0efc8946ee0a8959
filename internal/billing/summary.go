package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/timebucket"
)

// RevenueMonths is the width of the paid revenue trend.
const RevenueMonths = 6

type Overview struct {
	TotalBilled      float64 `json:"totalBilled"`
	TotalPaid        float64 `json:"totalPaid"`
	TotalOutstanding float64 `json:"totalOutstanding"`
	TotalOverdue     float64 `json:"totalOverdue"`
	InvoiceCount     int64   `json:"invoiceCount"`
}

type StatusTotal struct {
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type Summary struct {
	Overview       Overview               `json:"overview"`
	ByStatus       map[string]StatusTotal `json:"byStatus"`
	MonthlyRevenue []MonthRevenue         `json:"monthlyRevenue"`
}

type statusRow struct {
	Status string
	Count  int64
	Total  float64
}

// PaidRevenue sums the amount of Paid invoices per month over the trailing
// window of n months, zero-filled, oldest first.
func PaidRevenue(ctx context.Context, db *gorm.DB, now time.Time, n int, loc *time.Location) ([]MonthRevenue, error) {
	w := timebucket.Months(now, n, loc)

	var rows []struct {
		Amount   float64
		PaidDate time.Time
	}
	if err := db.WithContext(ctx).Model(&models.Invoice{}).
		Select("amount", "paid_date").
		Where("status = ? AND paid_date IS NOT NULL AND paid_date >= ?", models.InvoicePaid, w.Start().UTC()).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make([]decimal.Decimal, len(w))
	for _, r := range rows {
		if i := w.Index(r.PaidDate); i >= 0 {
			sums[i] = sums[i].Add(decimal.NewFromFloat(r.Amount))
		}
	}
	out := make([]MonthRevenue, len(w))
	for i, m := range w {
		v, _ := sums[i].Round(2).Float64()
		out[i] = MonthRevenue{Month: m.Label, Revenue: v}
	}
	return out, nil
}

// Totals aggregates every invoice by status and derives the grand totals.
// Outstanding is Sent plus Overdue.
func Totals(ctx context.Context, db *gorm.DB) (Overview, map[string]StatusTotal, error) {
	var rows []statusRow
	if err := db.WithContext(ctx).Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return Overview{}, nil, err
	}

	var (
		ov                                 Overview
		billed, paid, outstanding, overdue decimal.Decimal
	)
	byStatus := make(map[string]StatusTotal, len(rows))
	for _, r := range rows {
		t := decimal.NewFromFloat(r.Total)
		billed = billed.Add(t)
		switch models.InvoiceStatus(r.Status) {
		case models.InvoicePaid:
			paid = paid.Add(t)
		case models.InvoiceOverdue:
			overdue = overdue.Add(t)
			outstanding = outstanding.Add(t)
		case models.InvoiceSent:
			outstanding = outstanding.Add(t)
		}
		ov.InvoiceCount += r.Count
		byStatus[r.Status] = StatusTotal{Count: r.Count, Total: round2(t)}
	}
	ov.TotalBilled = round2(billed)
	ov.TotalPaid = round2(paid)
	ov.TotalOutstanding = round2(outstanding)
	ov.TotalOverdue = round2(overdue)
	return ov, byStatus, nil
}

// Summarize builds the billing summary: grand totals, per-status totals and
// the paid revenue trend.
func Summarize(ctx context.Context, db *gorm.DB, now time.Time, loc *time.Location) (Summary, error) {
	var s Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.Overview, s.ByStatus, err = Totals(gctx, db)
		return err
	})
	g.Go(func() error {
		var err error
		s.MonthlyRevenue, err = PaidRevenue(gctx, db, now, RevenueMonths, loc)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
