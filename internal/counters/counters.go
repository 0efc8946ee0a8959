// Package counters keeps Client.activeCases equal to the number of that
// client's cases in status Active.
//
// Every case write calls Sync inside its own transaction, so the counter moves
// atomically with the case row. Recount rebuilds all counters from scratch.
package counters

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

// Snapshot is the part of a case the counter depends on.
type Snapshot struct {
	ClientID *uuid.UUID
	Status   models.CaseStatus
}

// Of captures a case's counter-relevant state.
func Of(c models.Case) Snapshot {
	var id *uuid.UUID
	if c.ClientID != nil {
		v := *c.ClientID
		id = &v
	}
	return Snapshot{ClientID: id, Status: c.Status}
}

// credited is the client whose counter includes this case, if any.
func (s Snapshot) credited() *uuid.UUID {
	if s.ClientID == nil || s.Status != models.CaseActive {
		return nil
	}
	return s.ClientID
}

// None is the snapshot of a case that does not exist (before create, after delete).
var None = Snapshot{}

// Sync moves the case's contribution from before to after. A client change is
// handled as removing the case from the old client and adding it to the new one.
func Sync(tx *gorm.DB, before, after Snapshot) error {
	from, to := before.credited(), after.credited()
	if from != nil && to != nil && *from == *to {
		return nil
	}
	if from != nil {
		if err := decrement(tx, *from); err != nil {
			return err
		}
	}
	if to != nil {
		if err := increment(tx, *to); err != nil {
			return err
		}
	}
	return nil
}

func increment(tx *gorm.DB, clientID uuid.UUID) error {
	return tx.Model(&models.Client{}).
		Where("id = ?", clientID).
		UpdateColumn("active_cases", gorm.Expr("active_cases + ?", 1)).Error
}

// decrement never takes a counter below zero.
func decrement(tx *gorm.DB, clientID uuid.UUID) error {
	return tx.Model(&models.Client{}).
		Where("id = ? AND active_cases > 0", clientID).
		UpdateColumn("active_cases", gorm.Expr("active_cases - ?", 1)).Error
}

// RecountResult reports what Recount changed.
type RecountResult struct {
	Clients   int64 `json:"clients"`
	Corrected int64 `json:"corrected"`
}

const activeCount = "(SELECT COUNT(*) FROM cases WHERE cases.client_id = clients.id AND cases.status = ?)"

// Recount sets every client's activeCases to the actual number of its Active
// cases and reports how many counters had drifted.
func Recount(ctx context.Context, db *gorm.DB) (RecountResult, error) {
	var res RecountResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Client{}).
			Where("active_cases <> "+activeCount, models.CaseActive).
			Count(&res.Corrected).Error; err != nil {
			return err
		}
		upd := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&models.Client{}).
			UpdateColumn("active_cases", gorm.Expr(activeCount, models.CaseActive))
		if upd.Error != nil {
			return upd.Error
		}
		res.Clients = upd.RowsAffected
		return nil
	})
	return res, err
}
