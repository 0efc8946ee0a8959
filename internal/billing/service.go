package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShivaprasadMurashillin/LexDash/internal/identifiers"
	"github.com/ShivaprasadMurashillin/LexDash/internal/refs"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/utils"
)

/* ================================ DTOs ================================= */

type CreateInvoiceRequest struct {
	CaseID      string  `json:"caseId" validate:"required,uuid"`
	ClientID    string  `json:"clientId" validate:"required,uuid"`
	Attorney    string  `json:"attorney" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Hours       float64 `json:"hours" validate:"required,gte=0.1"`
	HourlyRate  float64 `json:"hourlyRate" validate:"required,gte=1"`
	Status      string  `json:"status" validate:"omitempty,invoice_status"`
	DueDate     string  `json:"dueDate" validate:"required"`
	PaidDate    string  `json:"paidDate"`
	Notes       string  `json:"notes" validate:"max=2000"`
}

// UpdateInvoiceRequest is a partial update; nil fields are left unchanged.
// amount is accepted on the wire but always recomputed.
type UpdateInvoiceRequest struct {
	CaseID      *string  `json:"caseId" validate:"omitnil,uuid"`
	ClientID    *string  `json:"clientId" validate:"omitnil,uuid"`
	Attorney    *string  `json:"attorney" validate:"omitnil,min=1,max=120"`
	Description *string  `json:"description" validate:"omitnil,max=2000"`
	Hours       *float64 `json:"hours" validate:"omitnil,gte=0.1"`
	HourlyRate  *float64 `json:"hourlyRate" validate:"omitnil,gte=1"`
	Amount      *float64 `json:"amount"`
	Status      *string  `json:"status" validate:"omitnil,invoice_status"`
	DueDate     *string  `json:"dueDate"`
	PaidDate    *string  `json:"paidDate"`
	Notes       *string  `json:"notes" validate:"omitnil,max=2000"`
}

/* =============================== Service =============================== */

// Service owns invoice writes: number allocation and derived fields.
type Service struct {
	db  *gorm.DB
	ids *identifiers.Generator
	now func() time.Time
}

func NewService(db *gorm.DB, ids *identifiers.Generator) *Service {
	return &Service{db: db, ids: ids, now: time.Now}
}

func withRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Case", func(q *gorm.DB) *gorm.DB { return q.Select("id", "case_number", "title") }).
		Preload("Client", func(q *gorm.DB) *gorm.DB { return q.Select("id", "name", "email") })
}

// Get loads one invoice with its case and client summaries.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	var inv models.Invoice
	if err := withRefs(s.db.WithContext(ctx)).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inv, apperr.NotFound("Invoice")
		}
		return inv, apperr.Upstream(err)
	}
	return inv, nil
}

// Create validates references, allocates an invoice number and stores the
// invoice with its amount derived from hours and rate.
func (s *Service) Create(ctx context.Context, in CreateInvoiceRequest) (models.Invoice, error) {
	caseID, _ := uuid.Parse(in.CaseID)
	clientID, _ := uuid.Parse(in.ClientID)
	if err := refs.Require(ctx, s.db, refs.Case("caseId", &caseID), refs.Client("clientId", &clientID)); err != nil {
		return models.Invoice{}, err
	}
	due, err := utils.ParseDate(in.DueDate)
	if err != nil {
		return models.Invoice{}, apperr.Field("dueDate", "Invalid date")
	}
	paid, err := utils.ParseOptionalDate(in.PaidDate)
	if err != nil {
		return models.Invoice{}, apperr.Field("paidDate", "Invalid date")
	}

	inv := models.Invoice{
		CaseID:      caseID,
		ClientID:    clientID,
		Attorney:    strings.TrimSpace(in.Attorney),
		Description: strings.TrimSpace(in.Description),
		Hours:       in.Hours,
		HourlyRate:  in.HourlyRate,
		Status:      models.InvoiceStatus(in.Status),
		DueDate:     due,
		PaidDate:    paid,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceDraft
	}
	Recompute(&inv)
	StampPaid(&inv, models.InvoiceDraft, paid != nil, s.now())

	err = s.ids.Create(ctx, identifiers.InvoiceNumber, func(tx *gorm.DB, number string) error {
		inv.ID = uuid.Nil
		inv.InvoiceNumber = number
		return tx.Omit(clause.Associations).Create(&inv).Error
	})
	if err != nil {
		return models.Invoice{}, apperr.Wrap(err)
	}
	return s.Get(ctx, inv.ID)
}

// Update applies a partial update. A missing hours or hourlyRate is read from
// the stored invoice before the amount is recomputed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInvoiceRequest) (models.Invoice, models.InvoiceStatus, error) {
	var prev models.InvoiceStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := database.ForUpdate(tx, &inv, "Invoice", id); err != nil {
			return err
		}
		prev = inv.Status

		if err := applyPatch(ctx, tx, &inv, in); err != nil {
			return err
		}
		Recompute(&inv)
		StampPaid(&inv, prev, in.PaidDate != nil && *in.PaidDate != "", s.now())

		return database.UpdateRow(tx, &inv, "Invoice")
	})
	if err != nil {
		return models.Invoice{}, "", apperr.Wrap(err)
	}
	inv, err := s.Get(ctx, id)
	return inv, prev, err
}

func applyPatch(ctx context.Context, tx *gorm.DB, inv *models.Invoice, in UpdateInvoiceRequest) error {
	var check []refs.Ref
	if in.CaseID != nil {
		id, _ := uuid.Parse(*in.CaseID)
		inv.CaseID = id
		check = append(check, refs.Case("caseId", &id))
	}
	if in.ClientID != nil {
		id, _ := uuid.Parse(*in.ClientID)
		inv.ClientID = id
		check = append(check, refs.Client("clientId", &id))
	}
	if err := refs.Require(ctx, tx, check...); err != nil {
		return err
	}
	if in.Attorney != nil {
		inv.Attorney = strings.TrimSpace(*in.Attorney)
	}
	if in.Description != nil {
		inv.Description = strings.TrimSpace(*in.Description)
	}
	if in.Hours != nil {
		inv.Hours = *in.Hours
	}
	if in.HourlyRate != nil {
		inv.HourlyRate = *in.HourlyRate
	}
	if in.Status != nil {
		inv.Status = models.InvoiceStatus(*in.Status)
	}
	if in.DueDate != nil {
		due, err := utils.ParseDate(*in.DueDate)
		if err != nil {
			return apperr.Field("dueDate", "Invalid date")
		}
		inv.DueDate = due
	}
	if in.PaidDate != nil {
		paid, err := utils.ParseOptionalDate(*in.PaidDate)
		if err != nil {
			return apperr.Field("paidDate", "Invalid date")
		}
		inv.PaidDate = paid
	}
	if in.Notes != nil {
		inv.Notes = strings.TrimSpace(*in.Notes)
	}
	return nil
}

// MarkPaid sets status Paid and stamps paidDate with the current time.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := database.ForUpdate(tx, &inv, "Invoice", id); err != nil {
			return err
		}
		now := s.now().UTC()
		inv.Status = models.InvoicePaid
		inv.PaidDate = &now
		Recompute(&inv)
		return database.UpdateRow(tx, &inv, "Invoice")
	})
	if err != nil {
		return models.Invoice{}, apperr.Wrap(err)
	}
	return s.Get(ctx, id)
}

// Delete removes one invoice and returns it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx, &inv, "Invoice", id); err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, "id = ?", id).Error
	})
	if err != nil {
		return inv, apperr.Wrap(err)
	}
	return inv, nil
}

// Label is how an invoice appears in notifications after creation.
func Label(inv models.Invoice) string {
	return fmt.Sprintf("%s – %s", inv.InvoiceNumber, Money(inv.Amount))
}
