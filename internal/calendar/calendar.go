// Package calendar lists the dated events of one calendar month: task due
// dates, document deadlines, and case court and filing dates.
package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/timebucket"
)

// Event kinds.
const (
	KindTask     = "task"
	KindDocument = "document"
	KindCourt    = "court"
	KindFiling   = "filing"
)

type Event struct {
	Kind     string     `json:"kind"`
	ID       uuid.UUID  `json:"id"`
	Date     time.Time  `json:"date"`
	Label    string     `json:"label"`
	Sub      string     `json:"sub"`
	Status   string     `json:"status"`
	Priority string     `json:"priority,omitempty"`
	CaseID   *uuid.UUID `json:"caseId,omitempty"`
}

// Month returns the calendar month containing (year, month, 1) in loc.
func Month(year int, month time.Month, loc *time.Location) timebucket.Month {
	if loc == nil {
		loc = time.UTC
	}
	return timebucket.Months(time.Date(year, month, 1, 12, 0, 0, 0, loc), 1, loc)[0]
}

// Events collects every event in m, ordered by date.
func Events(ctx context.Context, db *gorm.DB, m timebucket.Month) ([]Event, error) {
	start, end := m.Start.UTC(), m.End.UTC()
	in := func(t *time.Time) bool { return t != nil && !t.Before(start) && t.Before(end) }

	var (
		tasks []models.Task
		docs  []models.Document
		cases []models.Case
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).
			Preload("Case", func(q *gorm.DB) *gorm.DB { return q.Select("id", "case_number") }).
			Where("due_date >= ? AND due_date < ?", start, end).
			Find(&tasks).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).
			Where("deadline >= ? AND deadline < ?", start, end).
			Find(&docs).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).
			Where("(court_date >= ? AND court_date < ?) OR (filing_date >= ? AND filing_date < ?)", start, end, start, end).
			Find(&cases).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(tasks)+len(docs)+len(cases))
	for _, t := range tasks {
		ev := Event{Kind: KindTask, ID: t.ID, Date: *t.DueDate, Label: t.Title, Status: string(t.Status), Priority: string(t.Priority), CaseID: t.CaseID}
		if t.Case != nil {
			ev.Sub = t.Case.CaseNumber
		}
		events = append(events, ev)
	}
	for _, d := range docs {
		events = append(events, Event{Kind: KindDocument, ID: d.ID, Date: *d.Deadline, Label: d.Title, Sub: string(d.Type), Status: string(d.Status), CaseID: d.CaseID})
	}
	for _, c := range cases {
		id := c.ID
		if in(c.CourtDate) {
			events = append(events, Event{Kind: KindCourt, ID: c.ID, Date: *c.CourtDate, Label: c.Title, Sub: "Court Date", Status: string(c.Status), CaseID: &id})
		}
		if in(c.FilingDate) {
			events = append(events, Event{Kind: KindFiling, ID: c.ID, Date: *c.FilingDate, Label: c.Title, Sub: "Filing Date", Status: string(c.Status), CaseID: &id})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}
