package matcher

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testProducts() []models.ProductPrice {
	return []models.ProductPrice{
		{
			Name:       "거북이 스노클링",
			Keywords:   "거북이,turtle",
			AdultPrice: decimal.NewFromInt(50),
			ChildPrice: decimal.NewFromInt(30),
			IsActive:   true,
		},
		{
			Name:       "선셋 세일링",
			Keywords:   "선셋,sunset",
			AdultPrice: decimal.NewFromInt(60),
			ChildPrice: decimal.NewFromInt(40),
			IsActive:   true,
		},
	}
}

func testGroup(customer string, tour, receipt time.Time, amount int64, adults int) *models.ExcelGroup {
	return &models.ExcelGroup{
		CustomerName: customer,
		TourDate:     tour,
		ReceiptDate:  receipt,
		TotalAmount:  decimal.NewFromInt(amount),
		TotalPax:     adults,
		AdultCount:   adults,
		Option:       "거북이 스노클링",
	}
}

func testReservation(customer string, receipt time.Time, tours ...time.Time) *models.MergedReservation {
	set := models.NewDateSet(tours...)
	return &models.MergedReservation{
		ReservationIDs: []string{"R-" + customer},
		CustomerName:   customer,
		ReceiptDate:    receipt,
		TourDate:       set.Earliest(),
		TourDates:      set,
		Option:         "거북이 스노클링",
		AdultCount:     2,
		PaxCount:       2,
	}
}

func reconcile(t *testing.T, groups []*models.ExcelGroup, reservations []*models.MergedReservation) []*MatchResult {
	t.Helper()

	engine := NewSettlementEngine(nil, testProducts())
	engine.LoadExcelGroups(groups)
	engine.LoadReservations(reservations)

	results, err := engine.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	return results
}

func hasNoteContaining(result *MatchResult, substr string) bool {
	for _, note := range result.Notes {
		if strings.Contains(note, substr) {
			return true
		}
	}
	return false
}

func TestReconcile_RequiresLoadedInputs(t *testing.T) {
	engine := NewSettlementEngine(nil, testProducts())

	if _, err := engine.Reconcile(); err == nil {
		t.Error("Expected error before loading reservations")
	}

	engine.LoadReservations(nil)
	if _, err := engine.Reconcile(); err == nil {
		t.Error("Expected error before loading settlement rows")
	}

	engine.LoadExcelGroups(nil)
	if _, err := engine.Reconcile(); err != nil {
		t.Errorf("Expected empty inputs to reconcile cleanly, got %v", err)
	}
}

func TestReconcile_ExactTourDateMatch(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 2, 8), date(2026, 1, 3), 100, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))
	res.Note = "(2/8)"

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0]
	if !r.IsMatched() {
		t.Fatal("Expected a matched pair")
	}
	if r.Status != StatusNormal || r.Label != LabelNormal {
		t.Errorf("Expected normal/정상, got %s/%s (notes %v)", r.Status, r.Label, r.Notes)
	}
	if r.Strategy != StrategyExactTourDate {
		t.Errorf("Expected exact tour date strategy, got %s", r.Strategy)
	}
	if len(r.Notes) != 0 {
		t.Errorf("Expected no notes on a clean match, got %v", r.Notes)
	}
	if !r.ExpectedAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected amount 100 for 2 adults, got %s", r.ExpectedAmount)
	}
}

func TestReconcile_EqualReceiptDatesNeverError(t *testing.T) {
	// Tour dates disagree and the settled amount is wildly off; the
	// exactly equal receipt date still caps the verdict at warning.
	group := testGroup("Kim Minsu", date(2026, 2, 10), date(2026, 1, 3), 500, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res})

	r := results[0]
	if !r.IsMatched() {
		t.Fatal("Expected receipt-date match")
	}
	if r.Strategy != StrategyExactReceiptDate {
		t.Errorf("Expected exact receipt date strategy, got %s", r.Strategy)
	}
	if r.Status == StatusError {
		t.Errorf("Equal receipt dates must never yield error, got %s (notes %v)", r.Status, r.Notes)
	}
	if r.Status != StatusWarning {
		t.Errorf("Expected warning for a 400%% diff, got %s", r.Status)
	}
	if !hasNoteContaining(r, "투어일이 다름") {
		t.Errorf("Expected differing-tour-date note, got %v", r.Notes)
	}
}

func TestReconcile_OnsitePaymentException(t *testing.T) {
	products := []models.ProductPrice{
		{
			Name:       "거북이 스노클링",
			Keywords:   "거북이",
			AdultPrice: decimal.NewFromInt(50),
			ChildPrice: decimal.NewFromInt(55),
			IsActive:   true,
		},
	}

	group := &models.ExcelGroup{
		CustomerName: "Kim Minsu",
		TourDate:     date(2026, 2, 8),
		ReceiptDate:  date(2026, 1, 3),
		TotalAmount:  decimal.NewFromInt(100),
		ChildCount:   2,
		TotalPax:     2,
		Option:       "거북이 스노클링",
	}
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))
	res.Note = "($10 add)"

	engine := NewSettlementEngine(nil, products)
	engine.LoadExcelGroups([]*models.ExcelGroup{group})
	engine.LoadReservations([]*models.MergedReservation{res})

	results, err := engine.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	r := results[0]
	if r.Status != StatusNormal {
		t.Errorf("Expected normal status for explained shortfall, got %s (notes %v)", r.Status, r.Notes)
	}
	if r.Label != LabelOnsitePayment {
		t.Errorf("Expected 현장결제 label, got %s", r.Label)
	}
	if !r.AmountDiff.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("Expected diff -10, got %s", r.AmountDiff)
	}
	if !hasNoteContaining(r, "현장결제") {
		t.Errorf("Expected on-site payment note, got %v", r.Notes)
	}
}

func TestReconcile_SaturdayLeftoverCarriedOver(t *testing.T) {
	// 2026-02-07 is a Saturday
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 7))

	results := reconcile(t, nil, []*models.MergedReservation{res})

	if len(results) != 1 {
		t.Fatalf("Expected exactly one result, got %d", len(results))
	}
	r := results[0]
	if r.Status != StatusCarriedOver || r.Label != LabelCarriedOver {
		t.Errorf("Expected carried_over/이월대기, got %s/%s", r.Status, r.Label)
	}
	if r.ExcelGroup != nil {
		t.Error("Expected DB-only result without an excel group")
	}
}

func TestReconcile_WeekdayLeftoverNeedsReview(t *testing.T) {
	// 2026-02-09 is a Monday
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 9))

	results := reconcile(t, nil, []*models.MergedReservation{res})

	r := results[0]
	if r.Status != StatusError || r.Label != LabelNeedsReview {
		t.Errorf("Expected error/확인필요, got %s/%s", r.Status, r.Label)
	}
	if !hasNoteContaining(r, "정산 내역에 없는 예약") {
		t.Errorf("Expected missing-settlement note, got %v", r.Notes)
	}
}

func TestReconcile_FuzzyReceiptDateWarns(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 2, 9), date(2026, 1, 4), 100, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res})

	r := results[0]
	if !r.IsMatched() {
		t.Fatal("Expected fuzzy receipt-date match")
	}
	if r.Strategy != StrategyFuzzyReceiptDate {
		t.Errorf("Expected fuzzy receipt date strategy, got %s", r.Strategy)
	}
	if !hasNoteContaining(r, "1일 차이") {
		t.Errorf("Expected 1-day difference note, got %v", r.Notes)
	}
	if r.Status != StatusWarning {
		t.Errorf("Expected fuzzy match to read as warning, got %s", r.Status)
	}
}

func TestReconcile_NoReceiptDateSilentTolerance(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 2, 9), time.Time{}, 100, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res})

	r := results[0]
	if !r.IsMatched() {
		t.Fatal("Expected tour-date tolerance match")
	}
	if r.Strategy != StrategyTourDateTolerance {
		t.Errorf("Expected tour date tolerance strategy, got %s", r.Strategy)
	}
	if len(r.Notes) != 0 {
		t.Errorf("Expected no date-mismatch note without a receipt identifier, got %v", r.Notes)
	}
	if r.Status != StatusNormal {
		t.Errorf("Expected normal status for equal amounts, got %s", r.Status)
	}
}

func TestReconcile_ConsecutiveRowsUseMinimumDate(t *testing.T) {
	// Two rows on consecutive receipt dates merge into one group keyed at
	// the minimum (1/4); against a DB receipt of 1/3 that is a 1-day
	// fuzzy hit. Keyed at the later date it would be 2 days out and must
	// not match silently.
	rows := []models.SettlementRow{
		{
			CustomerName: "Kim Minsu",
			TourDate:     date(2026, 2, 9),
			ReceiptDate:  date(2026, 1, 4),
			Amount:       decimal.NewFromInt(50),
			AdultCount:   1,
			PaxCount:     1,
			Option:       "거북이 스노클링",
		},
		{
			CustomerName: "Kim Minsu",
			TourDate:     date(2026, 2, 9),
			ReceiptDate:  date(2026, 1, 5),
			Amount:       decimal.NewFromInt(50),
			AdultCount:   1,
			PaxCount:     1,
			Option:       "거북이 스노클링",
		},
	}
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))

	results := MatchSettlementData(rows, []*models.MergedReservation{res}, testProducts(), nil)

	if len(results) != 1 {
		t.Fatalf("Expected the rows to merge into one result, got %d", len(results))
	}
	r := results[0]
	if !r.IsMatched() {
		t.Fatal("Expected a match via the merged minimum date")
	}
	if !hasNoteContaining(r, "1일 차이") {
		t.Errorf("Expected 1-day difference note, got %v", r.Notes)
	}
	if !hasNoteContaining(r, "2026-01-04") {
		t.Errorf("Expected the note to cite the minimum excel date, got %v", r.Notes)
	}
}

func TestReconcile_MultiDateReportsClosest(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 1, 30), date(2026, 1, 3), 100, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 1, 29), date(2026, 1, 30))

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res})

	r := results[0]
	if !r.IsMatched() {
		t.Fatal("Expected a match")
	}
	if !r.Reservation.TourDate.Equal(date(2026, 1, 30)) {
		t.Errorf("Expected the closer set member 2026-01-30, got %v", r.Reservation.TourDate)
	}
	if len(r.Notes) != 0 {
		t.Errorf("Expected no mismatch note, got %v", r.Notes)
	}
	if !res.TourDate.Equal(date(2026, 1, 29)) {
		t.Error("Expected the input reservation to keep its representative date")
	}
}

func TestReconcile_UnmatchedExcelGroup(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 2, 9), date(2026, 1, 3), 100, 2)

	results := reconcile(t, []*models.ExcelGroup{group}, nil)

	r := results[0]
	if r.Status != StatusError || r.Label != LabelNeedsReview {
		t.Errorf("Expected error/확인필요, got %s/%s", r.Status, r.Label)
	}
	if !hasNoteContaining(r, "DB에서 일치하는 예약을 찾을 수 없음") {
		t.Errorf("Expected no-DB-match note, got %v", r.Notes)
	}
	if r.Reservation != nil {
		t.Error("Expected no reservation on an unmatched excel result")
	}
}

func TestReconcile_UnmatchedSaturdayExcelGroup(t *testing.T) {
	// 2026-02-07 is a Saturday
	group := testGroup("Kim Minsu", date(2026, 2, 7), date(2026, 1, 3), 100, 2)

	results := reconcile(t, []*models.ExcelGroup{group}, nil)

	r := results[0]
	if r.Status != StatusCarriedOver || r.Label != LabelCarriedOver {
		t.Errorf("Expected carried_over/이월대기, got %s/%s", r.Status, r.Label)
	}
}

func TestReconcile_FullCancellation(t *testing.T) {
	group := testGroup("Kim Minsu", date(2026, 2, 8), date(2026, 1, 3), 0, 2)
	group.IsFullCancellation = true
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))

	results := reconcile(t, []*models.ExcelGroup{group}, []*models.MergedReservation{res})

	r := results[0]
	if r.Status != StatusCancelled || r.Label != LabelCancelled {
		t.Errorf("Expected cancelled/취소, got %s/%s", r.Status, r.Label)
	}
	if !r.ExpectedAmount.IsZero() {
		t.Errorf("Expected zero expected amount on cancellation, got %s", r.ExpectedAmount)
	}
	if r.ProductName == "" {
		t.Error("Expected the product to still be classified on a cancellation")
	}
}

func TestReconcile_ReservationConsumedOnce(t *testing.T) {
	groupA := testGroup("Kim Minsu", date(2026, 2, 8), date(2026, 1, 3), 100, 2)
	groupB := testGroup("Kim Minsu", date(2026, 2, 8), date(2026, 1, 10), 100, 2)
	res := testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8))

	results := reconcile(t, []*models.ExcelGroup{groupA, groupB}, []*models.MergedReservation{res})

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	matched := 0
	for _, r := range results {
		if r.IsMatched() {
			matched++
		}
	}
	if matched != 1 {
		t.Errorf("Expected the reservation to pair exactly once, got %d matches", matched)
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	groups := []*models.ExcelGroup{
		testGroup("Kim Minsu", date(2026, 2, 8), date(2026, 1, 3), 100, 2),
		testGroup("Lee Jiwon", date(2026, 2, 9), date(2026, 1, 5), 120, 2),
	}
	reservations := []*models.MergedReservation{
		testReservation("Kim Minsu", date(2026, 1, 3), date(2026, 2, 8)),
		testReservation("Lee Jiwon", date(2026, 1, 5), date(2026, 2, 9)),
		testReservation("Park Jun", date(2026, 1, 6), date(2026, 2, 10)),
	}

	first := reconcile(t, groups, reservations)
	second := reconcile(t, groups, reservations)

	if len(first) != len(second) {
		t.Fatalf("Result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Status != second[i].Status || first[i].CustomerName() != second[i].CustomerName() {
			t.Errorf("Result %d differs between runs: %s vs %s", i, first[i], second[i])
		}
	}
}
