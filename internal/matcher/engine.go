package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/grouper"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/product"
)

// SettlementEngine pairs excel settlement groups with merged reservations
// and produces one MatchResult per booking. An engine instance carries the
// data of a single reconciliation run; construct a fresh one per run.
type SettlementEngine struct {
	Config           *MatchingConfig
	Products         []models.ProductPrice
	ReservationIndex *ReservationIndex

	cascade     []Strategy
	excelGroups []*models.ExcelGroup
	groupsSet   bool
}

// NewSettlementEngine creates an engine with the given configuration and
// product catalog. A nil config falls back to the defaults.
func NewSettlementEngine(config *MatchingConfig, products []models.ProductPrice) *SettlementEngine {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &SettlementEngine{
		Config:   config,
		Products: products,
		cascade:  defaultCascade(config),
	}
}

// LoadReservations loads merged reservations and builds the name index.
func (e *SettlementEngine) LoadReservations(reservations []*models.MergedReservation) {
	e.ReservationIndex = NewReservationIndex(reservations)
}

// LoadSettlementRows groups raw settlement rows into excel groups using
// the default grouping policy and loads them.
func (e *SettlementEngine) LoadSettlementRows(rows []models.SettlementRow) {
	e.LoadExcelGroups(grouper.GroupSettlementRows(rows, nil))
}

// LoadExcelGroups loads pre-built excel groups.
func (e *SettlementEngine) LoadExcelGroups(groups []*models.ExcelGroup) {
	e.excelGroups = groups
	e.groupsSet = true
}

// Reconcile runs the strategy cascade over every excel group, validates
// amounts for the pairs, and appends synthetic results for DB-only
// leftovers. Inputs must be loaded first; beyond that the engine never
// fails, since business-level ambiguity is expressed as result statuses.
func (e *SettlementEngine) Reconcile() ([]*MatchResult, error) {
	if e.ReservationIndex == nil {
		return nil, fmt.Errorf("reservations must be loaded before reconciliation")
	}

	if !e.groupsSet {
		return nil, fmt.Errorf("settlement rows must be loaded before reconciliation")
	}

	results := make([]*MatchResult, 0, len(e.excelGroups)+len(e.ReservationIndex.AllReservations))
	consumed := make(map[string]bool)

	for _, group := range e.excelGroups {
		candidates := e.ReservationIndex.GetCandidates(group, consumed)

		var hit *strategyHit
		kind := StrategyNone
		for _, strategy := range e.cascade {
			if h := strategy.Match(group, candidates); h != nil {
				hit = h
				kind = strategy.Kind()
				break
			}
		}

		if hit != nil {
			consumed[hit.reservation.GroupKey()] = true
			results = append(results, e.composeMatched(group, hit, kind))
		} else {
			results = append(results, e.composeUnmatchedExcel(group))
		}
	}

	for _, res := range e.ReservationIndex.AllReservations {
		if !consumed[res.GroupKey()] {
			results = append(results, e.composeLeftoverReservation(res))
		}
	}

	return results, nil
}

// composeMatched assembles the result for a paired group. The reported
// reservation is a copy carrying the cascade-chosen tour date; strategy
// notes precede amount notes, preserving generation order.
func (e *SettlementEngine) composeMatched(group *models.ExcelGroup, hit *strategyHit, kind StrategyKind) *MatchResult {
	cls := product.ClassifyGroup(group, e.Products)
	reservation := hit.reservation.WithTourDate(hit.tourDate)

	result := &MatchResult{
		ExcelGroup:  group,
		Reservation: reservation,
		Strategy:    kind,
		Product:     cls.Product,
		ProductName: cls.DisplayName,
		Notes:       append([]string{}, hit.notes...),
	}

	if group.IsFullCancellation {
		result.Status = StatusCancelled
		result.Label = LabelCancelled
		result.ExpectedAmount = decimal.Zero
		result.ActualAmount = group.TotalAmount
		result.AmountDiff = group.TotalAmount
		return result
	}

	verdict := e.validateAmount(group, hit.reservation, cls)
	result.Status = verdict.status
	result.Label = verdict.label
	result.ExpectedAmount = verdict.expected
	result.ActualAmount = verdict.actual
	result.AmountDiff = verdict.diff
	result.DiffPercent = verdict.diffPercent
	result.Notes = append(result.Notes, verdict.notes...)

	// A 1-day receipt drift keeps the pairing but never reads as fully
	// clean. The on-site payment exception keeps its label.
	if hit.forceWarning && result.Status == StatusNormal && result.Label != LabelOnsitePayment {
		result.Status = StatusWarning
		result.Label = LabelWarning
	}

	// An exactly agreeing receipt date confirms the booking identity, so
	// amount drift alone caps at warning.
	if result.Status == StatusError && group.HasReceiptDate() &&
		models.SameDay(group.ReceiptDate, hit.reservation.ReceiptDate) {
		result.Status = StatusWarning
		result.Label = LabelWarning
	}

	return result
}

// composeUnmatchedExcel assembles the result for an excel group no
// strategy could pair.
func (e *SettlementEngine) composeUnmatchedExcel(group *models.ExcelGroup) *MatchResult {
	cls := product.ClassifyGroup(group, e.Products)

	result := &MatchResult{
		ExcelGroup:   group,
		Strategy:     StrategyNone,
		Product:      cls.Product,
		ProductName:  cls.DisplayName,
		ActualAmount: group.TotalAmount,
	}

	switch {
	case group.IsFullCancellation:
		result.Status = StatusCancelled
		result.Label = LabelCancelled
		result.ExpectedAmount = decimal.Zero
		result.AmountDiff = group.TotalAmount

	case e.isCarryOverDate(group.TourDate):
		result.Status = StatusCarriedOver
		result.Label = LabelCarriedOver
		result.ExpectedAmount = e.expectedFor(cls, group.AdultCount, group.ChildCount)
		result.AmountDiff = result.ActualAmount.Sub(result.ExpectedAmount)

	default:
		result.Status = StatusError
		result.Label = LabelNeedsReview
		result.ExpectedAmount = e.expectedFor(cls, group.AdultCount, group.ChildCount)
		result.AmountDiff = result.ActualAmount.Sub(result.ExpectedAmount)
		result.Notes = append(result.Notes, "DB에서 일치하는 예약을 찾을 수 없음")
	}

	return result
}

// composeLeftoverReservation assembles the synthetic result for a merged
// reservation that no excel group consumed. The Saturday carry-over rule
// applies to these identically.
func (e *SettlementEngine) composeLeftoverReservation(res *models.MergedReservation) *MatchResult {
	cls := product.Classify(res.Option, "", e.Products)

	result := &MatchResult{
		Reservation:    res,
		Strategy:       StrategyNone,
		Product:        cls.Product,
		ProductName:    cls.DisplayName,
		ExpectedAmount: e.expectedFor(cls, res.AdultCount, res.ChildCount),
		ActualAmount:   decimal.Zero,
	}
	result.AmountDiff = result.ActualAmount.Sub(result.ExpectedAmount)

	if e.isCarryOverDate(res.TourDate) {
		result.Status = StatusCarriedOver
		result.Label = LabelCarriedOver
	} else {
		result.Status = StatusError
		result.Label = LabelNeedsReview
		result.Notes = append(result.Notes, "정산 내역에 없는 예약")
	}

	return result
}

// expectedFor returns the catalog charge for the classified product, or
// zero when no product matched.
func (e *SettlementEngine) expectedFor(cls product.ClassifierResult, adults, children int) decimal.Decimal {
	if !cls.Matched() {
		return decimal.Zero
	}
	return cls.Product.ExpectedAmount(adults, children)
}

// isCarryOverDate reports whether a tour date falls under the Saturday
// carry-over rule: weekend departures settle in the next cycle, so an
// unmatched Saturday booking is pending rather than wrong. The check uses
// the record's own date, never the wall clock.
func (e *SettlementEngine) isCarryOverDate(date time.Time) bool {
	return e.Config.SaturdayCarryOver && date.Weekday() == time.Saturday
}

// MatchSettlementData is the primary entry point: it groups the raw
// settlement rows, matches them against the merged reservations using the
// given catalog, and returns one MatchResult per booking. A nil config
// uses the defaults. The function is pure and safe to call concurrently
// on independent inputs.
func MatchSettlementData(rows []models.SettlementRow, reservations []*models.MergedReservation, products []models.ProductPrice, config *MatchingConfig) []*MatchResult {
	engine := NewSettlementEngine(config, products)
	engine.LoadReservations(reservations)
	engine.LoadSettlementRows(rows)

	// Both loads always precede Reconcile here, so it cannot fail.
	results, _ := engine.Reconcile()
	return results
}
