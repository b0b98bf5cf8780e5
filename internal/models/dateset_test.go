package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewDateSet(t *testing.T) {
	ds := NewDateSet(
		date(2026, 1, 30),
		date(2026, 1, 29),
		time.Date(2026, 1, 30, 14, 0, 0, 0, time.UTC), // duplicate after truncation
		time.Time{}, // dropped
	)

	if ds.Len() != 2 {
		t.Fatalf("Expected 2 dates, got %d (%s)", ds.Len(), ds)
	}

	dates := ds.Dates()
	if !dates[0].Equal(date(2026, 1, 29)) || !dates[1].Equal(date(2026, 1, 30)) {
		t.Errorf("Expected ascending order, got %s", ds)
	}

	if !ds.Earliest().Equal(date(2026, 1, 29)) {
		t.Errorf("Earliest() = %v, expected 2026-01-29", ds.Earliest())
	}
}

func TestDateSet_Empty(t *testing.T) {
	var ds DateSet

	if !ds.IsEmpty() {
		t.Error("Expected zero-value set to be empty")
	}
	if !ds.Earliest().IsZero() {
		t.Error("Expected zero time from empty set")
	}
	if _, _, ok := ds.ClosestTo(date(2026, 1, 15)); ok {
		t.Error("Expected ClosestTo to report empty set")
	}
}

func TestDateSet_Contains(t *testing.T) {
	ds := NewDateSet(date(2026, 1, 29), date(2026, 1, 30))

	if !ds.Contains(time.Date(2026, 1, 29, 18, 30, 0, 0, time.UTC)) {
		t.Error("Expected membership to ignore time-of-day")
	}
	if ds.Contains(date(2026, 1, 31)) {
		t.Error("Expected non-member date to be absent")
	}
}

func TestDateSet_ClosestTo(t *testing.T) {
	ds := NewDateSet(date(2026, 1, 10), date(2026, 1, 20))

	chosen, dist, ok := ds.ClosestTo(date(2026, 1, 19))
	if !ok {
		t.Fatal("Expected a result from non-empty set")
	}
	if !chosen.Equal(date(2026, 1, 20)) || dist != 1 {
		t.Errorf("ClosestTo(1/19) = %v dist %d, expected 2026-01-20 dist 1", chosen, dist)
	}

	// Equidistant target: the tie goes to the earlier date
	chosen, dist, ok = ds.ClosestTo(date(2026, 1, 15))
	if !ok {
		t.Fatal("Expected a result from non-empty set")
	}
	if !chosen.Equal(date(2026, 1, 10)) || dist != 5 {
		t.Errorf("ClosestTo(1/15) = %v dist %d, expected earlier date 2026-01-10 dist 5", chosen, dist)
	}

	// Exact member
	chosen, dist, _ = ds.ClosestTo(date(2026, 1, 10))
	if !chosen.Equal(date(2026, 1, 10)) || dist != 0 {
		t.Errorf("ClosestTo(member) = %v dist %d, expected the member at dist 0", chosen, dist)
	}
}

func TestDateSet_JSON(t *testing.T) {
	ds := NewDateSet(date(2026, 1, 30), date(2026, 1, 29))

	data, err := json.Marshal(ds)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["2026-01-29","2026-01-30"]` {
		t.Errorf("Unexpected JSON: %s", data)
	}

	var decoded DateSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.String() != ds.String() {
		t.Errorf("Round trip mismatch: %s vs %s", decoded, ds)
	}
}
