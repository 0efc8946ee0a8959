package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

// ForUpdate loads the row with id into dst and locks it until the transaction
// ends (SELECT ... FOR UPDATE). SQLite drops the clause; its writers are
// serialized anyway. A missing row is a NotFound naming kind.
func ForUpdate(tx *gorm.DB, dst any, kind string, id any) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dst, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(kind)
		}
		return err
	}
	return nil
}

// UpdateRow writes every column of a loaded row, zero values included.
// Unlike Save it never inserts: a row deleted in the meantime is a NotFound.
func UpdateRow(tx *gorm.DB, row any, kind string) error {
	res := tx.Model(row).Select("*").Omit(clause.Associations).Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(kind)
	}
	return nil
}
