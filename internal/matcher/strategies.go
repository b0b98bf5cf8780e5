package matcher

import (
	"fmt"
	"time"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

// StrategyKind tags the strategies of the matching cascade. The numeric
// order IS the cascade order: the engine evaluates strategies ascending
// and the first one that yields a hit wins.
type StrategyKind int

const (
	// StrategyExactTourDate pairs groups whose excel tour date is a
	// member of the reservation's tour-date set.
	StrategyExactTourDate StrategyKind = iota

	// StrategyExactReceiptDate pairs groups on an exact receipt-date
	// match, tolerating a differing tour date with a diagnostic note.
	StrategyExactReceiptDate

	// StrategyFuzzyReceiptDate pairs groups whose receipt dates differ
	// by a small number of days, flagged as a warning.
	StrategyFuzzyReceiptDate

	// StrategyTourDateTolerance pairs groups without any receipt date on
	// tour-date proximity alone, accepted silently.
	StrategyTourDateTolerance

	// StrategyNone indicates no strategy produced a match.
	StrategyNone
)

// String returns the string representation of the StrategyKind.
func (k StrategyKind) String() string {
	switch k {
	case StrategyExactTourDate:
		return "exact_tour_date"
	case StrategyExactReceiptDate:
		return "exact_receipt_date"
	case StrategyFuzzyReceiptDate:
		return "fuzzy_receipt_date"
	case StrategyTourDateTolerance:
		return "tour_date_tolerance"
	case StrategyNone:
		return "none"
	default:
		return "unknown"
	}
}

// strategyHit is one candidate pick produced by a strategy: the paired
// reservation, the tour date selected from its date set, and the
// diagnostics accumulated while selecting it.
type strategyHit struct {
	reservation *models.MergedReservation

	// tourDate is the selected member of the reservation's tour-date
	// set. It overwrites the reported reservation's representative date.
	tourDate time.Time

	// dateDistance is |tourDate - excel tour date| in days, used for
	// tie-breaking between candidates within one strategy.
	dateDistance int

	notes        []string
	forceWarning bool
}

// Strategy is one independently testable unit of the matching cascade.
// Candidates passed to Match already share the group's normalized name
// and are not yet consumed by an earlier pairing; ties between candidates
// are resolved inside the strategy before the cascade moves on.
type Strategy interface {
	Kind() StrategyKind
	Match(group *models.ExcelGroup, candidates []*models.MergedReservation) *strategyHit
}

// defaultCascade returns the ordered strategy list. The ordering is the
// contract: exact tour date, exact receipt date, fuzzy receipt date, then
// tour-date tolerance for groups without a receipt identifier.
func defaultCascade(config *MatchingConfig) []Strategy {
	return []Strategy{
		&exactTourDateStrategy{},
		&exactReceiptDateStrategy{},
		&fuzzyReceiptDateStrategy{toleranceDays: config.ReceiptDateToleranceDays},
		&tourDateToleranceStrategy{toleranceDays: config.TourDateToleranceDays},
	}
}

// betterHit reports whether candidate hit a should replace b: smaller day
// distance first, then the earlier chosen tour date, then the earlier
// receipt date.
func betterHit(a, b *strategyHit) bool {
	if b == nil {
		return true
	}
	if a.dateDistance != b.dateDistance {
		return a.dateDistance < b.dateDistance
	}
	if !a.tourDate.Equal(b.tourDate) {
		return a.tourDate.Before(b.tourDate)
	}
	return a.reservation.ReceiptDate.Before(b.reservation.ReceiptDate)
}

// exactTourDateStrategy: the excel tour date is a member of the
// reservation's tour-date set. No diagnostics; this is the clean case.
type exactTourDateStrategy struct{}

func (s *exactTourDateStrategy) Kind() StrategyKind { return StrategyExactTourDate }

func (s *exactTourDateStrategy) Match(group *models.ExcelGroup, candidates []*models.MergedReservation) *strategyHit {
	var best *strategyHit

	for _, res := range candidates {
		if !res.TourDates.Contains(group.TourDate) {
			continue
		}

		hit := &strategyHit{
			reservation:  res,
			tourDate:     models.TruncateToDay(group.TourDate),
			dateDistance: 0,
		}
		if betterHit(hit, best) {
			best = hit
		}
	}

	return best
}

// exactReceiptDateStrategy: receipt dates are equal. The reported tour
// date becomes the set member closest to the excel tour date; a differing
// tour date is noted but does not by itself degrade the status.
type exactReceiptDateStrategy struct{}

func (s *exactReceiptDateStrategy) Kind() StrategyKind { return StrategyExactReceiptDate }

func (s *exactReceiptDateStrategy) Match(group *models.ExcelGroup, candidates []*models.MergedReservation) *strategyHit {
	if !group.HasReceiptDate() {
		return nil
	}

	var best *strategyHit

	for _, res := range candidates {
		if !models.SameDay(group.ReceiptDate, res.ReceiptDate) {
			continue
		}

		chosen, dist, ok := res.TourDates.ClosestTo(group.TourDate)
		if !ok {
			continue
		}

		hit := &strategyHit{
			reservation:  res,
			tourDate:     chosen,
			dateDistance: dist,
		}
		if dist > 0 {
			hit.notes = append(hit.notes, fmt.Sprintf(
				"접수일은 일치하지만 투어일이 다름 (엑셀 %s / DB %s)",
				group.TourDate.Format("2006-01-02"), chosen.Format("2006-01-02")))
		}
		if betterHit(hit, best) {
			best = hit
		}
	}

	return best
}

// fuzzyReceiptDateStrategy: receipt dates differ by at least one and at
// most toleranceDays calendar days. Matching succeeds with a warning note.
type fuzzyReceiptDateStrategy struct {
	toleranceDays int
}

func (s *fuzzyReceiptDateStrategy) Kind() StrategyKind { return StrategyFuzzyReceiptDate }

func (s *fuzzyReceiptDateStrategy) Match(group *models.ExcelGroup, candidates []*models.MergedReservation) *strategyHit {
	if !group.HasReceiptDate() || s.toleranceDays < 1 {
		return nil
	}

	var best *strategyHit

	for _, res := range candidates {
		receiptDiff := models.DayDiff(group.ReceiptDate, res.ReceiptDate)
		if receiptDiff < 1 || receiptDiff > s.toleranceDays {
			continue
		}

		chosen, dist, ok := res.TourDates.ClosestTo(group.TourDate)
		if !ok {
			continue
		}

		hit := &strategyHit{
			reservation:  res,
			tourDate:     chosen,
			dateDistance: dist,
			forceWarning: true,
			notes: []string{fmt.Sprintf(
				"접수일 %d일 차이 (엑셀 %s / DB %s)",
				receiptDiff,
				group.ReceiptDate.Format("2006-01-02"),
				res.ReceiptDate.Format("2006-01-02"))},
		}
		if betterHit(hit, best) {
			best = hit
		}
	}

	return best
}

// tourDateToleranceStrategy: only for groups WITHOUT a receipt date, pair
// on tour-date proximity within the tolerance. An off-by-one day here is
// accepted silently: with no receipt identifier to corroborate a
// discrepancy, flagging routine data-entry drift would only create noise.
type tourDateToleranceStrategy struct {
	toleranceDays int
}

func (s *tourDateToleranceStrategy) Kind() StrategyKind { return StrategyTourDateTolerance }

func (s *tourDateToleranceStrategy) Match(group *models.ExcelGroup, candidates []*models.MergedReservation) *strategyHit {
	if group.HasReceiptDate() {
		return nil
	}

	var best *strategyHit

	for _, res := range candidates {
		chosen, dist, ok := res.TourDates.ClosestTo(group.TourDate)
		if !ok || dist > s.toleranceDays {
			continue
		}

		hit := &strategyHit{
			reservation:  res,
			tourDate:     chosen,
			dateDistance: dist,
		}
		if betterHit(hit, best) {
			best = hit
		}
	}

	return best
}
