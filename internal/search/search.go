// Package search implements the global quick-search over cases, clients,
// documents and tasks.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/sanitize"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
)

// PerKind caps the hits returned for each entity kind.
const PerKind = 8

const subMax = 80

// Hit is one search result; Kind is case, client, document or task.
type Hit struct {
	Kind  string    `json:"kind"`
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Sub   string    `json:"sub"`
}

// Run searches every kind concurrently and returns hits grouped in kind order.
// A blank query returns no hits.
func Run(ctx context.Context, db *gorm.DB, q string) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Hit{}, nil
	}

	var (
		cases   []models.Case
		clients []models.Client
		docs    []models.Document
		tasks   []models.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	find := func(dst any, model any, cols ...string) {
		g.Go(func() error {
			tx := utils.Search(db.WithContext(gctx).Model(model), q, cols...)
			return tx.Order("created_at DESC").Limit(PerKind).Find(dst).Error
		})
	}
	find(&cases, &models.Case{}, "title", "case_number", "assigned_attorney")
	find(&clients, &models.Client{}, "name", "email", "company")
	find(&docs, &models.Document{}, "title", "type", "uploaded_by")
	find(&tasks, &models.Task{}, "title", "description", "assigned_to")
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(cases)+len(clients)+len(docs)+len(tasks))
	for _, c := range cases {
		hits = append(hits, hit("case", c.ID, fmt.Sprintf("%s – %s", c.CaseNumber, c.Title), pair(string(c.Type), string(c.Status))))
	}
	for _, c := range clients {
		sub := c.Email
		if sub == "" {
			sub = c.Company
		}
		hits = append(hits, hit("client", c.ID, c.Name, sub))
	}
	for _, d := range docs {
		hits = append(hits, hit("document", d.ID, d.Title, pair(string(d.Type), string(d.Status))))
	}
	for _, t := range tasks {
		hits = append(hits, hit("task", t.ID, t.Title, pair(string(t.Priority), string(t.Status))))
	}
	return hits, nil
}

func pair(a, b string) string { return a + " · " + b }

func hit(kind string, id uuid.UUID, label, sub string) Hit {
	return Hit{Kind: kind, ID: id, Label: label, Sub: sanitize.Summary(sub, subMax)}
}
