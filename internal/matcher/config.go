// Package matcher implements the settlement matching engine: pairing
// excel-side settlement groups with virtually-merged internal reservations
// through an ordered strategy cascade, validating charged amounts against
// the product catalog, and composing per-booking match results.
//
// The engine is a pure transformation over already-loaded in-memory
// collections. It performs no I/O, holds no global state, never reads the
// wall clock, and never mutates its inputs; given identical inputs the
// output is identical.
//
// Example usage:
//
//	engine := matcher.NewSettlementEngine(matcher.DefaultMatchingConfig(), products)
//	engine.LoadReservations(merged)
//	engine.LoadSettlementRows(rows)
//
//	results, err := engine.Reconcile()
//	summary := matcher.Summarize(results)
package matcher

import (
	"fmt"
)

// MatchStatus classifies the reconciliation verdict for one booking.
type MatchStatus string

const (
	// StatusNormal means the booking reconciled cleanly.
	StatusNormal MatchStatus = "normal"

	// StatusWarning means the booking matched but carries a discrepancy
	// worth reviewing (small amount diff, 1-day receipt drift).
	StatusWarning MatchStatus = "warning"

	// StatusError means the booking needs manual review: no DB match or
	// an unexplained large amount discrepancy.
	StatusError MatchStatus = "error"

	// StatusCancelled marks a fully cancelled booking.
	StatusCancelled MatchStatus = "cancelled"

	// StatusPartialRefund marks a partially refunded booking whose
	// settled amount is positive but below the expected charge.
	StatusPartialRefund MatchStatus = "partial_refund"

	// StatusCarriedOver marks a Saturday booking presumed to roll into
	// the next settlement cycle rather than being an error.
	StatusCarriedOver MatchStatus = "carried_over"
)

// String returns the string representation of the MatchStatus.
func (s MatchStatus) String() string {
	return string(s)
}

// IsValid checks if the match status is a known value.
func (s MatchStatus) IsValid() bool {
	switch s {
	case StatusNormal, StatusWarning, StatusError, StatusCancelled, StatusPartialRefund, StatusCarriedOver:
		return true
	default:
		return false
	}
}

// Display labels rendered by the dashboard for each verdict.
const (
	LabelNormal        = "정상"
	LabelWarning       = "확인"
	LabelNeedsReview   = "확인필요"
	LabelCancelled     = "취소"
	LabelPartialRefund = "부분환불"
	LabelCarriedOver   = "이월대기"
	LabelOnsitePayment = "현장결제"
)

// DefaultLabel returns the display label for a status. The on-site payment
// exception overrides this with LabelOnsitePayment while keeping the
// status normal.
func DefaultLabel(status MatchStatus) string {
	switch status {
	case StatusNormal:
		return LabelNormal
	case StatusWarning:
		return LabelWarning
	case StatusError:
		return LabelNeedsReview
	case StatusCancelled:
		return LabelCancelled
	case StatusPartialRefund:
		return LabelPartialRefund
	case StatusCarriedOver:
		return LabelCarriedOver
	default:
		return string(status)
	}
}

// MatchingConfig holds the tunable policy of the matching engine: date
// tolerance windows for the strategy cascade, the amount discrepancy
// thresholds, and the on-site payment marker tokens.
//
// The numeric diff thresholds and the marker token set are deliberately
// configuration, not constants; operators adjust them per season.
type MatchingConfig struct {
	// ReceiptDateToleranceDays is the receipt-date distance accepted by
	// the fuzzy receipt-date strategy. The strategy fires for distances
	// from 1 up to this value.
	ReceiptDateToleranceDays int `json:"receipt_date_tolerance_days"`

	// TourDateToleranceDays is the tour-date distance accepted by the
	// tour-date tolerance strategy when the excel group has no receipt
	// date.
	TourDateToleranceDays int `json:"tour_date_tolerance_days"`

	// WarnDiffPercent is the absolute amount-diff percentage up to which
	// a nonzero discrepancy maps to warning; beyond it maps to error.
	WarnDiffPercent float64 `json:"warn_diff_percent"`

	// OnsitePaymentMarkers are tokens looked up in the reservation note
	// that explain a settlement shortfall as cash collected in person.
	OnsitePaymentMarkers []string `json:"onsite_payment_markers"`

	// SaturdayCarryOver controls whether unmatched Saturday bookings are
	// flagged as carried over instead of errors.
	SaturdayCarryOver bool `json:"saturday_carry_over"`
}

// DefaultMatchingConfig returns a configuration with the thresholds used
// in production reconciliation runs.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		ReceiptDateToleranceDays: 1,
		TourDateToleranceDays:    1,
		WarnDiffPercent:          5.0,
		OnsitePaymentMarkers:     []string{"add", "$"},
		SaturdayCarryOver:        true,
	}
}

// Validate checks if the matching configuration is valid.
func (mc *MatchingConfig) Validate() error {
	if mc.ReceiptDateToleranceDays < 0 {
		return fmt.Errorf("receipt date tolerance days cannot be negative: %d", mc.ReceiptDateToleranceDays)
	}

	if mc.TourDateToleranceDays < 0 {
		return fmt.Errorf("tour date tolerance days cannot be negative: %d", mc.TourDateToleranceDays)
	}

	if mc.WarnDiffPercent < 0.0 || mc.WarnDiffPercent > 100.0 {
		return fmt.Errorf("warn diff percent must be between 0.0 and 100.0: %f", mc.WarnDiffPercent)
	}

	return nil
}

// Clone creates a deep copy of the matching configuration.
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	clone.OnsitePaymentMarkers = make([]string, len(mc.OnsitePaymentMarkers))
	copy(clone.OnsitePaymentMarkers, mc.OnsitePaymentMarkers)
	return &clone
}

// String returns a human-readable description of the configuration.
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{ReceiptTolerance: %d days, TourTolerance: %d days, WarnDiff: %.1f%%, OnsiteMarkers: %d}",
		mc.ReceiptDateToleranceDays, mc.TourDateToleranceDays, mc.WarnDiffPercent, len(mc.OnsitePaymentMarkers))
}
