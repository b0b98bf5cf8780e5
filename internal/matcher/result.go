package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

// MatchResult is the reconciliation verdict for one booking: either an
// excel group (with or without its paired reservation) or a DB-only
// leftover reservation that never appeared in the settlement export.
type MatchResult struct {
	Status MatchStatus `json:"status"`
	Label  string      `json:"label"`

	// ProductName is the classified canonical display name, or the
	// heuristic fallback text when no catalog product matched.
	ProductName string `json:"product_name"`

	// ExcelGroup is nil for DB-only leftovers.
	ExcelGroup *models.ExcelGroup `json:"excel_group,omitempty"`

	// Reservation is nil when no DB match was found. When set after a
	// multi-date reservation matched, its TourDate is the cascade-chosen
	// member of the tour-date set, not necessarily the default earliest.
	Reservation *models.MergedReservation `json:"reservation,omitempty"`

	// Strategy reports which cascade strategy produced the pairing;
	// StrategyNone when unmatched.
	Strategy StrategyKind `json:"strategy"`

	Product *models.ProductPrice `json:"product,omitempty"`

	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
	AmountDiff     decimal.Decimal `json:"amount_diff"`

	// DiffPercent is the amount diff as a percentage of the expected
	// amount, zero when the expected amount is zero.
	DiffPercent float64 `json:"diff_percent"`

	// Notes holds the diagnostic notes in the order upstream stages
	// generated them.
	Notes []string `json:"notes,omitempty"`
}

// IsMatched reports whether the result pairs an excel group with a
// reservation.
func (r *MatchResult) IsMatched() bool {
	return r.ExcelGroup != nil && r.Reservation != nil
}

// CustomerName returns the customer the result belongs to, from whichever
// side is present.
func (r *MatchResult) CustomerName() string {
	if r.ExcelGroup != nil {
		return r.ExcelGroup.CustomerName
	}
	if r.Reservation != nil {
		return r.Reservation.CustomerName
	}
	return ""
}

// String returns a string representation of the MatchResult.
func (r *MatchResult) String() string {
	return fmt.Sprintf("MatchResult{Customer: %s, Status: %s, Label: %s, Product: %s, Diff: %s}",
		r.CustomerName(), r.Status, r.Label, r.ProductName, r.AmountDiff.String())
}

// SettlementSummary rolls up counts per status and aggregate amounts
// across all results of one reconciliation run.
type SettlementSummary struct {
	TotalResults  int `json:"total_results"`
	MatchedCount  int `json:"matched_count"`
	ExcelOnly     int `json:"excel_only"`
	DBOnly        int `json:"db_only"`

	NormalCount        int `json:"normal_count"`
	WarningCount       int `json:"warning_count"`
	ErrorCount         int `json:"error_count"`
	CancelledCount     int `json:"cancelled_count"`
	PartialRefundCount int `json:"partial_refund_count"`
	CarriedOverCount   int `json:"carried_over_count"`
	OnsitePaymentCount int `json:"onsite_payment_count"`

	TotalExpected decimal.Decimal `json:"total_expected"`
	TotalActual   decimal.Decimal `json:"total_actual"`
	TotalDiff     decimal.Decimal `json:"total_diff"`
}

// Summarize folds match results into a SettlementSummary. It performs no
// matching logic of its own.
func Summarize(results []*MatchResult) SettlementSummary {
	summary := SettlementSummary{
		TotalResults:  len(results),
		TotalExpected: decimal.Zero,
		TotalActual:   decimal.Zero,
		TotalDiff:     decimal.Zero,
	}

	for _, result := range results {
		switch {
		case result.IsMatched():
			summary.MatchedCount++
		case result.ExcelGroup != nil:
			summary.ExcelOnly++
		default:
			summary.DBOnly++
		}

		switch result.Status {
		case StatusNormal:
			summary.NormalCount++
		case StatusWarning:
			summary.WarningCount++
		case StatusError:
			summary.ErrorCount++
		case StatusCancelled:
			summary.CancelledCount++
		case StatusPartialRefund:
			summary.PartialRefundCount++
		case StatusCarriedOver:
			summary.CarriedOverCount++
		}

		if result.Label == LabelOnsitePayment {
			summary.OnsitePaymentCount++
		}

		summary.TotalExpected = summary.TotalExpected.Add(result.ExpectedAmount)
		summary.TotalActual = summary.TotalActual.Add(result.ActualAmount)
		summary.TotalDiff = summary.TotalDiff.Add(result.AmountDiff)
	}

	return summary
}
