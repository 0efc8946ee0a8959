// Package identifiers allocates the human-facing CASE-YYYY-NNN and
// INV-YYYY-NNNN numbers.
//
// The sequence is count-based: the all-time row count of the kind plus one,
// formatted with the current year. Uniqueness is enforced by a unique index.
// Create retries a colliding insert in a fresh transaction: first with a
// re-count, which picks up a row committed by a concurrent create, then with
// the highest number issued this year plus one, which steps past numbers
// still held by rows that outlived deleted ones.
package identifiers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/database"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

// MaxAttempts bounds Create's retries on identifier collisions.
const MaxAttempts = 5

// Kind describes one identifier family.
type Kind struct {
	Name   string // metrics/log label
	Prefix string
	Width  int
	model  any
	column string
}

var (
	CaseNumber    = Kind{Name: "case", Prefix: "CASE", Width: 3, model: &models.Case{}, column: "case_number"}
	InvoiceNumber = Kind{Name: "invoice", Prefix: "INV", Width: 4, model: &models.Invoice{}, column: "invoice_number"}
)

// countedAttempts is how many attempts use count+1; later ones use max+1.
const countedAttempts = 2

// Format renders PREFIX-YEAR-SEQ with SEQ zero-padded to width.
func Format(prefix string, year, seq, width int) string {
	return fmt.Sprintf("%s-%d-%0*d", prefix, year, width, seq)
}

type Generator struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
	log *logger.Logger
	m   *metrics.Metrics
}

func New(db *gorm.DB, loc *time.Location, log *logger.Logger, m *metrics.Metrics) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{db: db, loc: loc, now: time.Now, log: log.With("service", "Identifiers"), m: m}
}

// next counts existing rows through db and returns count+1, formatted.
func (g *Generator) next(ctx context.Context, db *gorm.DB, k Kind) (string, error) {
	var n int64
	if err := db.WithContext(ctx).Model(k.model).Count(&n).Error; err != nil {
		return "", err
	}
	return Format(k.Prefix, g.year(), int(n)+1, k.Width), nil
}

// afterMax returns the number following the highest one issued this year.
// Longer suffixes sort first so 1000 ranks above 999.
func (g *Generator) afterMax(ctx context.Context, db *gorm.DB, k Kind) (string, error) {
	year := g.year()
	prefix := fmt.Sprintf("%s-%d-", k.Prefix, year)

	var top []string
	if err := db.WithContext(ctx).Model(k.model).
		Where(k.column+" LIKE ?", prefix+"%").
		Order("LENGTH("+k.column+") DESC, "+k.column+" DESC").
		Limit(1).
		Pluck(k.column, &top).Error; err != nil {
		return "", err
	}
	seq := 0
	if len(top) == 1 {
		n, err := strconv.Atoi(strings.TrimPrefix(top[0], prefix))
		if err != nil {
			return "", fmt.Errorf("unparseable %s number %q: %w", k.Name, top[0], err)
		}
		seq = n
	}
	return Format(k.Prefix, year, seq+1, k.Width), nil
}

func (g *Generator) year() int { return g.now().In(g.loc).Year() }

// number picks the candidate for the given attempt.
func (g *Generator) number(ctx context.Context, db *gorm.DB, k Kind, attempt int) (string, error) {
	if attempt < countedAttempts {
		return g.next(ctx, db, k)
	}
	return g.afterMax(ctx, db, k)
}

// NextCaseNumber previews the number the next case would receive.
func (g *Generator) NextCaseNumber(ctx context.Context) (string, error) {
	return g.next(ctx, g.db, CaseNumber)
}

// NextInvoiceNumber previews the number the next invoice would receive.
func (g *Generator) NextInvoiceNumber(ctx context.Context) (string, error) {
	return g.next(ctx, g.db, InvoiceNumber)
}

// Create runs insert inside a transaction with a freshly allocated number.
// A unique violation rolls the attempt back and retries with a fresh number;
// after MaxAttempts a Conflict is returned. Any other error from insert is
// returned unchanged.
func (g *Generator) Create(ctx context.Context, k Kind, insert func(tx *gorm.DB, number string) error) error {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		var number string
		err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			if number, err = g.number(ctx, tx, k, attempt); err != nil {
				return err
			}
			return insert(tx, number)
		})
		if err == nil {
			return nil
		}
		if !database.IsUniqueViolation(err) {
			return err
		}
		g.m.IncIdentifierRetry(k.Name)
		g.log.Warn("identifier collision, retrying", "kind", k.Name, "number", number, "attempt", attempt+1)
	}
	return apperr.Conflict(fmt.Sprintf("Could not allocate a unique %s number, please retry", k.Name))
}
