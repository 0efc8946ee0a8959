// Package refs validates weak references supplied on create and update.
package refs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

// Ref names one reference to check.
type Ref struct {
	Field string // json field reported on failure
	Kind  string // "Case" or "Client"
	ID    *uuid.UUID
}

func Case(field string, id *uuid.UUID) Ref { return Ref{Field: field, Kind: models.EntityCase, ID: id} }
func Client(field string, id *uuid.UUID) Ref {
	return Ref{Field: field, Kind: models.EntityClient, ID: id}
}

// Require fails with a validation error naming every reference that does not
// point to an existing record. Nil ids are skipped.
func Require(ctx context.Context, db *gorm.DB, refs ...Ref) error {
	fields := map[string][]string{}
	for _, r := range refs {
		if r.ID == nil {
			continue
		}
		var model any = &models.Case{}
		if r.Kind == models.EntityClient {
			model = &models.Client{}
		}
		var n int64
		if err := db.WithContext(ctx).Model(model).Where("id = ?", *r.ID).Count(&n).Error; err != nil {
			return apperr.Upstream(err)
		}
		if n == 0 {
			fields[r.Field] = append(fields[r.Field], r.Kind+" does not exist")
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// Parse turns an optional id string into a pointer. "" means cleared (nil).
func Parse(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Field(field, "Invalid id format")
	}
	return &id, nil
}
