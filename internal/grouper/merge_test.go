package grouper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildMergedReservations_SameCustomerSameReceipt(t *testing.T) {
	records := []models.ReservationRecord{
		{
			ReservationID: "R001",
			CustomerName:  "Kim Minsu",
			TourDate:      date(2026, 1, 29),
			ReceiptDate:   date(2026, 1, 3),
			Option:        "거북이 스노클링",
			AdultCount:    2,
			PaxCount:      2,
			Amount:        decimal.NewFromInt(100),
			Source:        "myrealtrip",
		},
		{
			ReservationID: "R002",
			CustomerName:  "kim minsu",
			TourDate:      date(2026, 1, 30),
			ReceiptDate:   date(2026, 1, 3),
			Option:        "선셋 투어",
			AdultCount:    2,
			PaxCount:      2,
			Amount:        decimal.NewFromInt(120),
		},
	}

	merged := BuildMergedReservations(records)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 merged reservation, got %d", len(merged))
	}

	m := merged[0]
	if len(m.ReservationIDs) != 2 || m.ReservationIDs[0] != "R001" || m.ReservationIDs[1] != "R002" {
		t.Errorf("Expected IDs [R001 R002], got %v", m.ReservationIDs)
	}
	if m.Option != "거북이 스노클링 + 선셋 투어" {
		t.Errorf("Expected joined options, got %q", m.Option)
	}
	if m.PaxCount != 4 || m.AdultCount != 4 {
		t.Errorf("Expected pax 4 / adults 4, got %d / %d", m.PaxCount, m.AdultCount)
	}
	if !m.Amount.Equal(decimal.NewFromInt(220)) {
		t.Errorf("Expected amount 220, got %s", m.Amount)
	}
	if m.TourDates.Len() != 2 {
		t.Errorf("Expected 2 tour dates, got %s", m.TourDates)
	}
	if !m.TourDate.Equal(date(2026, 1, 29)) {
		t.Errorf("Expected representative tour date 2026-01-29, got %v", m.TourDate)
	}
	if m.Source != "myrealtrip" {
		t.Errorf("Expected identity fields from first record, got source %q", m.Source)
	}
}

func TestBuildMergedReservations_DifferentReceiptDates(t *testing.T) {
	records := []models.ReservationRecord{
		{ReservationID: "R001", CustomerName: "Kim Minsu", TourDate: date(2026, 1, 29), ReceiptDate: date(2026, 1, 3)},
		{ReservationID: "R002", CustomerName: "Kim Minsu", TourDate: date(2026, 1, 29), ReceiptDate: date(2026, 1, 4)},
	}

	merged := BuildMergedReservations(records)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 merged reservations for different receipt dates, got %d", len(merged))
	}
}

func TestBuildMergedReservations_DuplicateIDsAndOptions(t *testing.T) {
	records := []models.ReservationRecord{
		{ReservationID: "R001", CustomerName: "Lee", TourDate: date(2026, 2, 1), ReceiptDate: date(2026, 1, 10), Option: "선셋"},
		{ReservationID: "R001", CustomerName: "Lee", TourDate: date(2026, 2, 1), ReceiptDate: date(2026, 1, 10), Option: "선셋"},
	}

	merged := BuildMergedReservations(records)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 merged reservation, got %d", len(merged))
	}

	m := merged[0]
	if len(m.ReservationIDs) != 1 {
		t.Errorf("Expected deduplicated IDs, got %v", m.ReservationIDs)
	}
	if m.Option != "선셋" {
		t.Errorf("Expected deduplicated option, got %q", m.Option)
	}
	if m.TourDates.Len() != 1 {
		t.Errorf("Expected deduplicated tour dates, got %s", m.TourDates)
	}
}

func TestBuildMergedReservations_EncounterOrder(t *testing.T) {
	records := []models.ReservationRecord{
		{ReservationID: "R003", CustomerName: "Park", TourDate: date(2026, 2, 5), ReceiptDate: date(2026, 1, 20)},
		{ReservationID: "R001", CustomerName: "Kim", TourDate: date(2026, 2, 1), ReceiptDate: date(2026, 1, 10)},
		{ReservationID: "R002", CustomerName: "Park", TourDate: date(2026, 2, 6), ReceiptDate: date(2026, 1, 20)},
	}

	merged := BuildMergedReservations(records)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 merged reservations, got %d", len(merged))
	}
	if merged[0].CustomerName != "Park" || merged[1].CustomerName != "Kim" {
		t.Errorf("Expected encounter order [Park Kim], got [%s %s]",
			merged[0].CustomerName, merged[1].CustomerName)
	}
}
