package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/product"
)

// amountVerdict is the outcome of validating a matched group's settled
// amount against the catalog expectation.
type amountVerdict struct {
	status      MatchStatus
	label       string
	expected    decimal.Decimal
	actual      decimal.Decimal
	diff        decimal.Decimal
	diffPercent float64
	notes       []string
}

// validateAmount computes the expected charge from the classified product
// and maps the discrepancy to a status.
//
// Policy order:
//  1. on-site payment exception: a shortfall explained by a marker token
//     in the reservation note forces normal/현장결제 regardless of size
//  2. partial refund: an explicitly flagged partial cancellation settling
//     below the expected charge
//  3. diff-magnitude policy: zero diff is normal, small nonzero diffs are
//     warnings with a percentage note, large diffs are errors
func (e *SettlementEngine) validateAmount(group *models.ExcelGroup, reservation *models.MergedReservation, cls product.ClassifierResult) amountVerdict {
	verdict := amountVerdict{
		expected: decimal.Zero,
		actual:   group.TotalAmount,
	}

	if cls.Matched() {
		verdict.expected = cls.Product.ExpectedAmount(group.AdultCount, group.ChildCount)
	}

	verdict.diff = verdict.actual.Sub(verdict.expected)
	if !verdict.expected.IsZero() {
		verdict.diffPercent = verdict.diff.Div(verdict.expected).InexactFloat64() * 100.0
	}

	if verdict.diff.IsNegative() && reservation != nil && e.hasOnsiteMarker(reservation.Note) {
		verdict.status = StatusNormal
		verdict.label = LabelOnsitePayment
		verdict.notes = append(verdict.notes, fmt.Sprintf(
			"현장결제 차액 %s (DB 메모 확인)", verdict.diff.Abs().String()))
		return verdict
	}

	if group.IsPartialRefund && verdict.actual.IsPositive() && verdict.actual.LessThan(verdict.expected) {
		verdict.status = StatusPartialRefund
		verdict.label = LabelPartialRefund
		verdict.notes = append(verdict.notes, fmt.Sprintf(
			"부분환불 (예상 %s / 실제 %s)", verdict.expected.String(), verdict.actual.String()))
		return verdict
	}

	switch {
	case verdict.diff.IsZero():
		verdict.status = StatusNormal
		verdict.label = LabelNormal

	case verdict.expected.IsZero():
		// Money moved for a product the catalog cannot price; a
		// percentage is undefined, so surface it for review.
		verdict.status = StatusWarning
		verdict.label = LabelWarning
		verdict.notes = append(verdict.notes, fmt.Sprintf(
			"단가 미등록 상품 (정산액 %s)", verdict.actual.String()))

	case math.Abs(verdict.diffPercent) <= e.Config.WarnDiffPercent:
		verdict.status = StatusWarning
		verdict.label = LabelWarning
		verdict.notes = append(verdict.notes, fmt.Sprintf(
			"금액 차이 %.1f%% (예상 %s / 실제 %s)",
			verdict.diffPercent, verdict.expected.String(), verdict.actual.String()))

	default:
		verdict.status = StatusError
		verdict.label = LabelNeedsReview
		verdict.notes = append(verdict.notes, fmt.Sprintf(
			"금액 차이 %.1f%% (예상 %s / 실제 %s)",
			verdict.diffPercent, verdict.expected.String(), verdict.actual.String()))
	}

	return verdict
}

// hasOnsiteMarker reports whether the reservation note contains any of the
// configured on-site payment marker tokens, case-insensitively.
func (e *SettlementEngine) hasOnsiteMarker(note string) bool {
	if note == "" {
		return false
	}

	lowered := strings.ToLower(note)
	for _, marker := range e.Config.OnsitePaymentMarkers {
		if marker != "" && strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}

	return false
}
