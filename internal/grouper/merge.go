// Package grouper builds the two aggregate views the matching engine
// consumes: virtual-merge reservation groups from raw internal records,
// and excel groups from parsed settlement rows.
package grouper

import (
	"time"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

// BuildMergedReservations collapses raw reservation records into
// MergedReservation groups keyed by normalized customer name and exact
// receipt date. Group order follows the encounter order of each group's
// first record, so output is deterministic for identical input.
func BuildMergedReservations(records []models.ReservationRecord) []*models.MergedReservation {
	keys := make([]string, 0, len(records))
	buckets := make(map[string][]models.ReservationRecord, len(records))

	for _, rec := range records {
		key := models.NormalizeName(rec.CustomerName) + "|" + models.TruncateToDay(rec.ReceiptDate).Format("2006-01-02")
		if _, exists := buckets[key]; !exists {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], rec)
	}

	merged := make([]*models.MergedReservation, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, mergeRecords(buckets[key]))
	}

	return merged
}

// mergeRecords folds one group of records into a single aggregate.
// Identity fields (source, status, contact, note, pickup) come from the
// first record in encounter order.
func mergeRecords(records []models.ReservationRecord) *models.MergedReservation {
	first := records[0]

	ids := make([]string, 0, len(records))
	seenIDs := make(map[string]bool, len(records))
	options := make([]string, 0, len(records))
	seenOptions := make(map[string]bool, len(records))
	dates := make([]time.Time, 0, len(records))

	merged := &models.MergedReservation{
		CustomerName: first.CustomerName,
		ReceiptDate:  models.TruncateToDay(first.ReceiptDate),
		Source:       first.Source,
		Status:       first.Status,
		Contact:      first.Contact,
		Note:         first.Note,
		Pickup:       first.Pickup,
	}

	for _, rec := range records {
		if rec.ReservationID != "" && !seenIDs[rec.ReservationID] {
			seenIDs[rec.ReservationID] = true
			ids = append(ids, rec.ReservationID)
		}

		if rec.Option != "" && !seenOptions[rec.Option] {
			seenOptions[rec.Option] = true
			options = append(options, rec.Option)
		}

		dates = append(dates, rec.TourDate)

		merged.PaxCount += rec.PaxCount
		merged.AdultCount += rec.AdultCount
		merged.ChildCount += rec.ChildCount
		merged.Amount = merged.Amount.Add(rec.Amount)
	}

	merged.ReservationIDs = ids
	merged.Option = joinOptions(options)
	merged.TourDates = models.NewDateSet(dates...)
	merged.TourDate = merged.TourDates.Earliest()

	return merged
}

func joinOptions(options []string) string {
	switch len(options) {
	case 0:
		return ""
	case 1:
		return options[0]
	}

	joined := options[0]
	for _, opt := range options[1:] {
		joined += " + " + opt
	}
	return joined
}
