package parsers

import (
	"fmt"
	"regexp"
	"strings"

	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
)

// PlatformConfig describes how one OTA platform's settlement export maps
// onto normalized settlement rows.
type PlatformConfig struct {
	// Key is the registry key ("myrealtrip", "klook", ...).
	Key string `json:"key"`

	// Name is the human-readable platform name used in logs and reports.
	Name string `json:"name"`

	ReservationIDColumn string `json:"reservation_id_column"`
	ProductNameColumn   string `json:"product_name_column"`
	TourDateColumn      string `json:"tour_date_column"`
	ReceiptDateColumn   string `json:"receipt_date_column,omitempty"`
	PaxColumn           string `json:"pax_column,omitempty"`
	AdultColumn         string `json:"adult_column,omitempty"`
	ChildColumn         string `json:"child_column,omitempty"`
	AmountColumn        string `json:"amount_column"`
	CustomerNameColumn  string `json:"customer_name_column"`
	OptionColumn        string `json:"option_column,omitempty"`
	StatusColumn        string `json:"status_column,omitempty"`

	// DeriveReceiptFromID enables recovering a missing receipt date from
	// a YYYYMMDD token embedded in the reservation ID, a convention of
	// several platforms' export formats.
	DeriveReceiptFromID bool `json:"derive_receipt_from_id"`

	HasHeader bool `json:"has_header"`
	Delimiter rune `json:"-"`

	// ColumnAliases maps lowercased raw header names to canonical column
	// names above.
	ColumnAliases map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks the platform configuration.
func (pc *PlatformConfig) Validate() error {
	if strings.TrimSpace(pc.Key) == "" {
		return fmt.Errorf("platform key cannot be empty")
	}

	for _, pair := range []struct{ name, value string }{
		{"customer name column", pc.CustomerNameColumn},
		{"tour date column", pc.TourDateColumn},
		{"amount column", pc.AmountColumn},
	} {
		if strings.TrimSpace(pair.value) == "" {
			return fmt.Errorf("platform %s: %s cannot be empty", pc.Key, pair.name)
		}
	}

	return nil
}

// requiredColumns lists the canonical columns the export must carry.
func (pc *PlatformConfig) requiredColumns() []string {
	return []string{pc.CustomerNameColumn, pc.TourDateColumn, pc.AmountColumn}
}

// receiptDatePattern extracts the YYYYMMDD token platforms embed in
// reservation IDs.
var receiptDatePattern = regexp.MustCompile(`(20\d{6})`)

// DefaultPlatformRegistry returns the built-in platform configurations,
// keyed by platform key. The generic entry accepts the normalized column
// names directly and serves as the fallback for unknown exports.
func DefaultPlatformRegistry() map[string]*PlatformConfig {
	commonAliases := map[string]string{
		"예약번호":   "reservation_id",
		"상품명":    "product_name",
		"투어일":    "tour_date",
		"이용일":    "tour_date",
		"접수일":    "receipt_date",
		"구매일":    "receipt_date",
		"인원":     "pax_count",
		"성인":     "adult_count",
		"아동":     "child_count",
		"금액":     "amount",
		"정산금액":   "amount",
		"예약자":    "customer_name",
		"예약자명":   "customer_name",
		"옵션":     "option",
		"상태":     "status",
		"booking_id":     "reservation_id",
		"booking_ref":    "reservation_id",
		"activity_name":  "product_name",
		"activity_date":  "tour_date",
		"purchase_date":  "receipt_date",
		"participants":   "pax_count",
		"adults":         "adult_count",
		"children":       "child_count",
		"net_amount":     "amount",
		"payout":         "amount",
		"traveler_name":  "customer_name",
		"guest_name":     "customer_name",
		"package_option": "option",
	}

	base := PlatformConfig{
		ReservationIDColumn: "reservation_id",
		ProductNameColumn:   "product_name",
		TourDateColumn:      "tour_date",
		ReceiptDateColumn:   "receipt_date",
		PaxColumn:           "pax_count",
		AdultColumn:         "adult_count",
		ChildColumn:         "child_count",
		AmountColumn:        "amount",
		CustomerNameColumn:  "customer_name",
		OptionColumn:        "option",
		StatusColumn:        "status",
		HasHeader:           true,
		Delimiter:           ',',
		ColumnAliases:       commonAliases,
	}

	myrealtrip := base
	myrealtrip.Key = "myrealtrip"
	myrealtrip.Name = "마이리얼트립"
	myrealtrip.DeriveReceiptFromID = true

	klook := base
	klook.Key = "klook"
	klook.Name = "Klook"
	klook.DeriveReceiptFromID = true

	kkday := base
	kkday.Key = "kkday"
	kkday.Name = "KKday"

	generic := base
	generic.Key = "generic"
	generic.Name = "Generic CSV"

	return map[string]*PlatformConfig{
		myrealtrip.Key: &myrealtrip,
		klook.Key:      &klook,
		kkday.Key:      &kkday,
		generic.Key:    &generic,
	}
}

// ResolvePlatform looks up a platform configuration by key, falling back
// to the generic configuration for an empty key.
func ResolvePlatform(registry map[string]*PlatformConfig, key string) (*PlatformConfig, error) {
	if key == "" {
		key = "generic"
	}

	config, ok := registry[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeUnknownPlatform, "platform", key, nil)
	}

	return config, nil
}
