package database_test

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	tu "github.com/ShivaprasadMurashillin/LexDash/internal/testutil"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

func TestForUpdate_MissingRowIsNotFound(t *testing.T) {
	db := tu.OpenDB(t)
	var cs models.Case
	err := db.Transaction(func(tx *gorm.DB) error {
		return database.ForUpdate(tx, &cs, "Case", uuid.New())
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRow_WritesZeroValues(t *testing.T) {
	db := tu.OpenDB(t)
	cl := tu.SeedClient(t, db, "Acme")
	cs := tu.SeedCase(t, db, &cl.ID, models.CaseActive)

	err := db.Transaction(func(tx *gorm.DB) error {
		var row models.Case
		if err := database.ForUpdate(tx, &row, "Case", cs.ID); err != nil {
			return err
		}
		row.ClientID = nil
		row.Status = models.CaseClosed
		return database.UpdateRow(tx, &row, "Case")
	})
	if err != nil {
		t.Fatal(err)
	}
	var got models.Case
	db.First(&got, "id = ?", cs.ID)
	if got.ClientID != nil || got.Status != models.CaseClosed {
		t.Fatalf("client=%v status=%s", got.ClientID, got.Status)
	}
}

func TestUpdateRow_DeletedRowStaysDeleted(t *testing.T) {
	db := tu.OpenDB(t)
	cs := tu.SeedCase(t, db, nil, models.CaseActive)

	// A writer holding a stale copy after another request removed the row.
	stale := cs
	if err := db.Delete(&models.Case{}, "id = ?", cs.ID).Error; err != nil {
		t.Fatal(err)
	}
	stale.Title = "edited"
	err := db.Transaction(func(tx *gorm.DB) error {
		return database.UpdateRow(tx, &stale, "Case")
	})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := tu.Count(t, db, &models.Case{}, "id = ?", cs.ID); n != 0 {
		t.Fatalf("row came back, count=%d", n)
	}
}
