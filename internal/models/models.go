// Package models defines the domain entities shared by the settlement
// reconciliation pipeline: normalized settlement rows exported by OTA
// platforms, internal reservation records and their virtual-merge
// aggregates, excel-side groups, and the product price catalog.
//
// All entities are immutable once constructed; the reconciliation engine
// never mutates its inputs.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRow represents one normalized line item from an OTA platform's
// settlement export. Rows are produced by the platform parsers and are
// immutable once parsed.
type SettlementRow struct {
	ReservationID string    `json:"reservation_id" csv:"reservation_id"`
	ProductName   string    `json:"product_name" csv:"product_name"`
	TourDate      time.Time `json:"tour_date" csv:"tour_date"`
	// ReceiptDate is the date the booking was placed. It is optional:
	// some platforms only encode it inside the reservation ID, and a
	// zero value means "unknown".
	ReceiptDate  time.Time       `json:"receipt_date,omitempty" csv:"receipt_date"`
	PaxCount     int             `json:"pax_count" csv:"pax_count"`
	AdultCount   int             `json:"adult_count" csv:"adult_count"`
	ChildCount   int             `json:"child_count" csv:"child_count"`
	Amount       decimal.Decimal `json:"amount" csv:"amount"`
	CustomerName string          `json:"customer_name" csv:"customer_name"`
	Option       string          `json:"option" csv:"option"`
	Status       string          `json:"status" csv:"status"`
	Platform     string          `json:"platform,omitempty" csv:"platform"`
}

// HasReceiptDate reports whether the row carries a usable receipt date.
func (r *SettlementRow) HasReceiptDate() bool {
	return !r.ReceiptDate.IsZero()
}

// Validate performs basic validation on the SettlementRow.
func (r *SettlementRow) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return fmt.Errorf("settlement row customer name cannot be empty")
	}

	if r.TourDate.IsZero() {
		return fmt.Errorf("settlement row tour date cannot be zero")
	}

	return nil
}

// String returns a string representation of the SettlementRow.
func (r *SettlementRow) String() string {
	return fmt.Sprintf("SettlementRow{ID: %s, Customer: %s, Tour: %s, Amount: %s}",
		r.ReservationID, r.CustomerName, r.TourDate.Format("2006-01-02"), r.Amount.String())
}

// ReservationRecord represents one raw internal reservation row as stored
// by the operator, before virtual merging.
type ReservationRecord struct {
	ReservationID string          `json:"reservation_id"`
	CustomerName  string          `json:"customer_name"`
	TourDate      time.Time       `json:"tour_date"`
	ReceiptDate   time.Time       `json:"receipt_date"`
	Option        string          `json:"option"`
	PaxCount      int             `json:"pax_count"`
	AdultCount    int             `json:"adult_count"`
	ChildCount    int             `json:"child_count"`
	Amount        decimal.Decimal `json:"amount"`
	Source        string          `json:"source"`
	Status        string          `json:"status"`
	Contact       string          `json:"contact"`
	Note          string          `json:"note"`
	Pickup        string          `json:"pickup"`
}

// Validate performs basic validation on the ReservationRecord.
func (r *ReservationRecord) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return fmt.Errorf("reservation customer name cannot be empty")
	}

	if r.ReceiptDate.IsZero() {
		return fmt.Errorf("reservation receipt date cannot be zero")
	}

	if r.TourDate.IsZero() {
		return fmt.Errorf("reservation tour date cannot be zero")
	}

	return nil
}

// MergedReservation is the virtual-merge aggregate of all internal
// reservation records for one customer at one receipt date. The group key
// (normalized name, receipt date) is unique across a merged set.
type MergedReservation struct {
	ReservationIDs []string  `json:"reservation_ids"`
	CustomerName   string    `json:"customer_name"`
	ReceiptDate    time.Time `json:"receipt_date"`

	// TourDate is the default representative tour date, the earliest
	// member of TourDates. The matching engine may report a different
	// member when a closer candidate date exists.
	TourDate  time.Time `json:"tour_date"`
	TourDates DateSet   `json:"tour_dates"`

	Option     string          `json:"option"`
	PaxCount   int             `json:"pax_count"`
	AdultCount int             `json:"adult_count"`
	ChildCount int             `json:"child_count"`
	Amount     decimal.Decimal `json:"amount"`
	Source     string          `json:"source"`
	Status     string          `json:"status"`
	Contact    string          `json:"contact"`
	Note       string          `json:"note"`
	Pickup     string          `json:"pickup"`
}

// NormalizedName returns the customer name in canonical comparison form.
func (m *MergedReservation) NormalizedName() string {
	return NormalizeName(m.CustomerName)
}

// GroupKey returns the unique virtual-merge key for the reservation.
func (m *MergedReservation) GroupKey() string {
	return m.NormalizedName() + "|" + m.ReceiptDate.Format("2006-01-02")
}

// WithTourDate returns a copy of the reservation whose representative tour
// date is replaced by the given date. The receiver is not modified.
func (m *MergedReservation) WithTourDate(date time.Time) *MergedReservation {
	clone := *m
	clone.TourDate = date
	return &clone
}

// String returns a string representation of the MergedReservation.
func (m *MergedReservation) String() string {
	return fmt.Sprintf("MergedReservation{Customer: %s, Receipt: %s, Tours: %s, Pax: %d}",
		m.CustomerName, m.ReceiptDate.Format("2006-01-02"), m.TourDates.String(), m.PaxCount)
}

// ExcelGroup aggregates one or more settlement rows for the same
// customer/date cluster on the excel side.
type ExcelGroup struct {
	Rows         []SettlementRow `json:"rows"`
	CustomerName string          `json:"customer_name"`

	// ReceiptDate is the minimum receipt date across the merged cluster.
	// Downstream matching always uses this earliest contact date; a
	// later one could shift the tolerance window past the DB record.
	ReceiptDate time.Time `json:"receipt_date,omitempty"`
	TourDate    time.Time `json:"tour_date"`

	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPax    int             `json:"total_pax"`
	AdultCount  int             `json:"adult_count"`
	ChildCount  int             `json:"child_count"`

	// Option keeps the first row's raw, unclassified option text so the
	// UI has a display fallback even when no DB match exists.
	Option      string `json:"option"`
	ProductName string `json:"product_name"`
	Status      string `json:"status"`
	Platform    string `json:"platform,omitempty"`

	IsPartialRefund    bool `json:"is_partial_refund"`
	IsFullCancellation bool `json:"is_full_cancellation"`
}

// NormalizedName returns the customer name in canonical comparison form.
func (g *ExcelGroup) NormalizedName() string {
	return NormalizeName(g.CustomerName)
}

// HasReceiptDate reports whether the group carries a usable receipt date.
func (g *ExcelGroup) HasReceiptDate() bool {
	return !g.ReceiptDate.IsZero()
}

// String returns a string representation of the ExcelGroup.
func (g *ExcelGroup) String() string {
	return fmt.Sprintf("ExcelGroup{Customer: %s, Tour: %s, Amount: %s, Pax: %d, Rows: %d}",
		g.CustomerName, g.TourDate.Format("2006-01-02"), g.TotalAmount.String(), g.TotalPax, len(g.Rows))
}

// ProductPrice is one admin-maintained catalog entry used for product
// classification and expected-amount calculation.
type ProductPrice struct {
	Name       string          `json:"name" csv:"name"`
	Keywords   string          `json:"keywords" csv:"keywords"`
	AdultPrice decimal.Decimal `json:"adult_price" csv:"adult_price"`
	ChildPrice decimal.Decimal `json:"child_price" csv:"child_price"`
	TierGroup  string          `json:"tier_group" csv:"tier_group"`
	IsActive   bool            `json:"is_active" csv:"is_active"`
}

// KeywordList returns the comma-split, trimmed, non-empty match keywords.
func (p *ProductPrice) KeywordList() []string {
	parts := strings.Split(p.Keywords, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// MatchesText reports whether the given raw text contains any of the
// product's keywords, case-insensitively.
func (p *ProductPrice) MatchesText(text string) bool {
	if text == "" {
		return false
	}

	lowered := strings.ToLower(text)
	for _, kw := range p.KeywordList() {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}

	return false
}

// Validate performs basic validation on the ProductPrice.
func (p *ProductPrice) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name cannot be empty")
	}

	if len(p.KeywordList()) == 0 {
		return fmt.Errorf("product '%s' has no match keywords", p.Name)
	}

	if p.AdultPrice.IsNegative() {
		return fmt.Errorf("product '%s' adult price cannot be negative", p.Name)
	}

	if p.ChildPrice.IsNegative() {
		return fmt.Errorf("product '%s' child price cannot be negative", p.Name)
	}

	return nil
}

// ExpectedAmount returns the catalog charge for the given head counts.
func (p *ProductPrice) ExpectedAmount(adults, children int) decimal.Decimal {
	adultTotal := p.AdultPrice.Mul(decimal.NewFromInt(int64(adults)))
	childTotal := p.ChildPrice.Mul(decimal.NewFromInt(int64(children)))
	return adultTotal.Add(childTotal)
}

var trailingParenPattern = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

// NormalizePickup strips a trailing parenthetical qualifier and surrounding
// whitespace from a pickup location ("Hotel (Lobby)" -> "Hotel"). The
// operation is idempotent and never fails; empty input yields empty output.
func NormalizePickup(text string) string {
	return strings.TrimSpace(trailingParenPattern.ReplaceAllString(text, ""))
}

// NormalizeName converts a customer name to canonical comparison form:
// trimmed, internal whitespace collapsed, case-folded. Name comparison in
// the matching engine is exact after this normalization; no edit-distance
// fuzziness is applied.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// TruncateToDay normalizes a time to date precision (midnight UTC).
func TruncateToDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayDiff returns the absolute difference between two dates in whole
// calendar days, ignoring time-of-day.
func DayDiff(a, b time.Time) int {
	diff := TruncateToDay(a).Sub(TruncateToDay(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// SameDay reports whether two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return TruncateToDay(a).Equal(TruncateToDay(b))
}

// ParseDecimalFromString parses a monetary value from a string, tolerating
// currency symbols and thousand separators.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "₩", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a date from a string using the
// formats commonly seen in platform exports and reservation dumps. The
// result is truncated to date precision.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		"2006.01.02",
		"2006/01/02",
		"20060102",
		"01/02/2006",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return TruncateToDay(t), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
