package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
)

// Amount is hours × hourlyRate rounded to cents, half away from zero.
func Amount(hours, hourlyRate float64) float64 {
	f, _ := decimal.NewFromFloat(hours).Mul(decimal.NewFromFloat(hourlyRate)).Round(2).Float64()
	return f
}

// Round rounds v to cents, half away from zero.
func Round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Recompute refreshes every derived field of inv. Callers never set Amount.
func Recompute(inv *models.Invoice) {
	inv.Amount = Amount(inv.Hours, inv.HourlyRate)
}

// StampPaid sets paidDate to now when inv moves into Paid without an
// explicit paidDate. A paid invoice keeps its existing paidDate on re-save.
func StampPaid(inv *models.Invoice, prev models.InvoiceStatus, paidDateSupplied bool, now time.Time) {
	if inv.Status != models.InvoicePaid || paidDateSupplied {
		return
	}
	if prev == models.InvoicePaid && inv.PaidDate != nil {
		return
	}
	t := now.UTC()
	inv.PaidDate = &t
}

// Money renders an amount for notification labels.
func Money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
