package matcher

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/product"
)

func validate(t *testing.T, group *models.ExcelGroup, reservation *models.MergedReservation) amountVerdict {
	t.Helper()

	engine := NewSettlementEngine(nil, testProducts())
	cls := product.ClassifyGroup(group, engine.Products)
	return engine.validateAmount(group, reservation, cls)
}

func TestValidateAmount_ExactMatch(t *testing.T) {
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 100, 2)

	verdict := validate(t, group, nil)

	if verdict.status != StatusNormal || verdict.label != LabelNormal {
		t.Errorf("Expected normal/정상, got %s/%s", verdict.status, verdict.label)
	}
	if !verdict.diff.IsZero() {
		t.Errorf("Expected zero diff, got %s", verdict.diff)
	}
	if len(verdict.notes) != 0 {
		t.Errorf("Expected no notes, got %v", verdict.notes)
	}
}

func TestValidateAmount_SmallDiffWarns(t *testing.T) {
	// 2 adults at 50 expected, 104 settled: +4%
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 104, 2)

	verdict := validate(t, group, nil)

	if verdict.status != StatusWarning {
		t.Errorf("Expected warning for 4%% diff, got %s", verdict.status)
	}
	if len(verdict.notes) == 0 {
		t.Fatal("Expected a percentage note")
	}
}

func TestValidateAmount_LargeDiffErrors(t *testing.T) {
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 150, 2)

	verdict := validate(t, group, nil)

	if verdict.status != StatusError || verdict.label != LabelNeedsReview {
		t.Errorf("Expected error/확인필요 for 50%% diff, got %s/%s", verdict.status, verdict.label)
	}
}

func TestValidateAmount_UnpricedProductWarns(t *testing.T) {
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 88, 2)
	group.Option = "등록 안 된 상품"

	verdict := validate(t, group, nil)

	if !verdict.expected.IsZero() {
		t.Fatalf("Expected zero expected amount without a catalog hit, got %s", verdict.expected)
	}
	if verdict.status != StatusWarning {
		t.Errorf("Expected warning for unpriced settlement, got %s", verdict.status)
	}
	if verdict.diffPercent != 0 {
		t.Errorf("Expected diff percent 0 with zero expected amount, got %f", verdict.diffPercent)
	}
}

func TestValidateAmount_PartialRefund(t *testing.T) {
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 60, 2)
	group.IsPartialRefund = true

	verdict := validate(t, group, nil)

	if verdict.status != StatusPartialRefund || verdict.label != LabelPartialRefund {
		t.Errorf("Expected partial_refund/부분환불, got %s/%s", verdict.status, verdict.label)
	}
}

func TestValidateAmount_OnsiteMarkerOverridesMagnitude(t *testing.T) {
	// 50% shortfall explained by the note marker
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 50, 2)
	res := &models.MergedReservation{CustomerName: "Kim", Note: "COLLECT $50 ADD ON SITE"}

	verdict := validate(t, group, res)

	if verdict.status != StatusNormal || verdict.label != LabelOnsitePayment {
		t.Errorf("Expected normal/현장결제, got %s/%s", verdict.status, verdict.label)
	}
}

func TestValidateAmount_OnsiteMarkerIgnoredForSurplus(t *testing.T) {
	// The exception only explains shortfalls; a surplus with a marker
	// note still follows the magnitude policy.
	group := testGroup("Kim", date(2026, 2, 8), date(2026, 1, 3), 150, 2)
	res := &models.MergedReservation{CustomerName: "Kim", Note: "($10 add)"}

	verdict := validate(t, group, res)

	if verdict.label == LabelOnsitePayment {
		t.Error("Expected no on-site exception for a positive diff")
	}
	if verdict.status != StatusError {
		t.Errorf("Expected error for 50%% surplus, got %s", verdict.status)
	}
}

func TestHasOnsiteMarker(t *testing.T) {
	engine := NewSettlementEngine(nil, nil)

	tests := []struct {
		note     string
		expected bool
	}{
		{"($10 add)", true},
		{"현장에서 $20", true},
		{"ADD 2 PAX", true},
		{"픽업 로비", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := engine.hasOnsiteMarker(tt.note); got != tt.expected {
			t.Errorf("hasOnsiteMarker(%q) = %v, expected %v", tt.note, got, tt.expected)
		}
	}
}

func TestSummarize(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 2, 8), date(2026, 1, 3), 100, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))
	leftover := testReservation("Park Jun", date(2026, 1, 6), date(2026, 2, 9))

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res, leftover})
	summary := Summarize(results)

	if summary.TotalResults != 2 {
		t.Errorf("Expected 2 results, got %d", summary.TotalResults)
	}
	if summary.MatchedCount != 1 || summary.DBOnly != 1 || summary.ExcelOnly != 0 {
		t.Errorf("Unexpected breakdown: matched %d, db-only %d, excel-only %d",
			summary.MatchedCount, summary.DBOnly, summary.ExcelOnly)
	}
	if summary.NormalCount != 1 || summary.ErrorCount != 1 {
		t.Errorf("Unexpected status counts: normal %d, error %d", summary.NormalCount, summary.ErrorCount)
	}
	if !summary.TotalActual.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected total actual 100, got %s", summary.TotalActual)
	}
	if !summary.TotalExpected.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected total expected 200, got %s", summary.TotalExpected)
	}
}
