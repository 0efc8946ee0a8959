// Package cascade deletes an aggregate root together with everything that
// hangs off it: a case with its documents and tasks, a client with its cases
// and their documents and tasks.
//
// Each delete runs in one transaction, dependents first and the root last.
// Stored files of removed documents are deleted after commit, best-effort.
package cascade

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShivaprasadMurashillin/LexDash/internal/counters"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	"github.com/ShivaprasadMurashillin/LexDash/internal/storage"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

type Engine struct {
	db    *gorm.DB
	store storage.Store
	log   *logger.Logger
	m     *metrics.Metrics
}

func New(db *gorm.DB, store storage.Store, log *logger.Logger, m *metrics.Metrics) *Engine {
	if store == nil {
		store = storage.Nop{}
	}
	return &Engine{db: db, store: store, log: log.With("service", "Cascade"), m: m}
}

// Result reports what a cascade removed.
type Result struct {
	Cases     int64 `json:"cases"`
	Documents int64 `json:"documents"`
	Tasks     int64 `json:"tasks"`
	files     []string
}

// removeDependents deletes documents and tasks of caseIDs and remembers their files.
func removeDependents(tx *gorm.DB, caseIDs []uuid.UUID, res *Result) error {
	if len(caseIDs) == 0 {
		return nil
	}
	var files []string
	if err := tx.Model(&models.Document{}).
		Where("case_id IN ? AND file_url <> ''", caseIDs).
		Pluck("file_url", &files).Error; err != nil {
		return err
	}
	docs := tx.Where("case_id IN ?", caseIDs).Delete(&models.Document{})
	if docs.Error != nil {
		return docs.Error
	}
	tasks := tx.Where("case_id IN ?", caseIDs).Delete(&models.Task{})
	if tasks.Error != nil {
		return tasks.Error
	}
	res.Documents += docs.RowsAffected
	res.Tasks += tasks.RowsAffected
	res.files = append(res.files, files...)
	return nil
}

// DeleteCase removes the case, its documents and tasks, and releases its
// contribution to the client's active case counter. It returns the deleted case.
func (e *Engine) DeleteCase(ctx context.Context, id uuid.UUID) (models.Case, Result, error) {
	var (
		cs  models.Case
		res Result
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx, &cs, "Case", id); err != nil {
			return err
		}
		if err := removeDependents(tx, []uuid.UUID{cs.ID}, &res); err != nil {
			return err
		}
		if err := tx.Delete(&models.Case{}, "id = ?", cs.ID).Error; err != nil {
			return err
		}
		res.Cases = 1
		return counters.Sync(tx, counters.Of(cs), counters.None)
	})
	if err != nil {
		return models.Case{}, Result{}, err
	}
	e.afterCommit(ctx, "Case", cs.ID, res)
	return cs, res, nil
}

// DeleteClient removes the client and, transitively, its cases with their
// documents and tasks. Invoices are billing history and are kept.
func (e *Engine) DeleteClient(ctx context.Context, id uuid.UUID) (models.Client, Result, error) {
	var (
		cl  models.Client
		res Result
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx, &cl, "Client", id); err != nil {
			return err
		}
		var caseIDs []uuid.UUID
		if err := tx.Model(&models.Case{}).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("client_id = ?", cl.ID).Pluck("id", &caseIDs).Error; err != nil {
			return err
		}
		if err := removeDependents(tx, caseIDs, &res); err != nil {
			return err
		}
		if len(caseIDs) > 0 {
			cases := tx.Where("id IN ?", caseIDs).Delete(&models.Case{})
			if cases.Error != nil {
				return cases.Error
			}
			res.Cases = cases.RowsAffected
		}
		return tx.Delete(&models.Client{}, "id = ?", cl.ID).Error
	})
	if err != nil {
		return models.Client{}, Result{}, err
	}
	e.afterCommit(ctx, "Client", cl.ID, res)
	return cl, res, nil
}

func (e *Engine) afterCommit(ctx context.Context, kind string, id uuid.UUID, res Result) {
	e.log.Info("cascade delete", "root", kind, "id", id,
		"cases", res.Cases, "documents", res.Documents, "tasks", res.Tasks)
	storage.RemoveAll(context.WithoutCancel(ctx), e.store, e.log, e.m, res.files)
}
