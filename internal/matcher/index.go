package matcher

import (
	"time"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

// ReservationIndex provides indexed lookups over the virtually-merged
// reservations loaded into the engine. Name comparison is exact after
// normalization, so the name index is the primary candidate source for
// every cascade strategy.
type ReservationIndex struct {
	// NameIndex maps normalized customer names to reservation slices.
	NameIndex map[string][]*models.MergedReservation

	// TourDateIndex maps date strings (YYYY-MM-DD) to reservations that
	// include the date in their tour-date set.
	TourDateIndex map[string][]*models.MergedReservation

	// AllReservations holds all indexed reservations in load order.
	AllReservations []*models.MergedReservation
}

// NewReservationIndex creates an index from a slice of merged reservations.
func NewReservationIndex(reservations []*models.MergedReservation) *ReservationIndex {
	index := &ReservationIndex{
		NameIndex:       make(map[string][]*models.MergedReservation),
		TourDateIndex:   make(map[string][]*models.MergedReservation),
		AllReservations: reservations,
	}

	index.buildIndexes()
	return index
}

func (ri *ReservationIndex) buildIndexes() {
	for _, res := range ri.AllReservations {
		nameKey := res.NormalizedName()
		ri.NameIndex[nameKey] = append(ri.NameIndex[nameKey], res)

		for _, date := range res.TourDates.Dates() {
			dateKey := date.Format("2006-01-02")
			ri.TourDateIndex[dateKey] = append(ri.TourDateIndex[dateKey], res)
		}
	}
}

// GetByName returns reservations for the given normalized customer name.
func (ri *ReservationIndex) GetByName(normalized string) []*models.MergedReservation {
	return ri.NameIndex[normalized]
}

// GetByTourDate returns reservations whose tour-date set includes the date.
func (ri *ReservationIndex) GetByTourDate(date time.Time) []*models.MergedReservation {
	return ri.TourDateIndex[models.TruncateToDay(date).Format("2006-01-02")]
}

// GetCandidates returns the unconsumed same-name reservations for an excel
// group, in load order. The consumed set holds group keys of reservations
// already paired during the current reconciliation pass.
func (ri *ReservationIndex) GetCandidates(group *models.ExcelGroup, consumed map[string]bool) []*models.MergedReservation {
	named := ri.GetByName(group.NormalizedName())
	if len(named) == 0 {
		return nil
	}

	candidates := make([]*models.MergedReservation, 0, len(named))
	for _, res := range named {
		if !consumed[res.GroupKey()] {
			candidates = append(candidates, res)
		}
	}

	return candidates
}

// IndexStats provides statistics about the reservation index.
type IndexStats struct {
	TotalReservations int
	UniqueNames       int
	UniqueTourDates   int
}

// GetIndexStats returns statistics about the reservation index.
func (ri *ReservationIndex) GetIndexStats() IndexStats {
	return IndexStats{
		TotalReservations: len(ri.AllReservations),
		UniqueNames:       len(ri.NameIndex),
		UniqueTourDates:   len(ri.TourDateIndex),
	}
}
