// Package config builds component configurations from CLI flag values.
package config

import (
	"github.com/flojun/oceanstar-admin-page-sub000/internal/grouper"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/matcher"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/parsers"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/reconciler"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/reporter"
)

// CreateMatchingConfig creates a matching configuration with the specified
// tolerances applied over the defaults.
func CreateMatchingConfig(receiptTolerance, tourTolerance int, warnDiffPercent float64, saturdayCarryOver bool) *matcher.MatchingConfig {
	config := matcher.DefaultMatchingConfig()

	config.ReceiptDateToleranceDays = receiptTolerance
	config.TourDateToleranceDays = tourTolerance
	config.WarnDiffPercent = warnDiffPercent
	config.SaturdayCarryOver = saturdayCarryOver

	return config
}

// CreateServiceConfig creates a settlement service configuration.
func CreateServiceConfig(matching *matcher.MatchingConfig) *reconciler.Config {
	config := reconciler.DefaultConfig()

	config.Matching = matching
	config.Grouping = grouper.DefaultGroupingConfig()
	config.Parse = parsers.DefaultParseConfig()
	config.IncludeResults = true

	return config
}

// CreateReportConfig creates a report configuration from CLI flag values.
func CreateReportConfig(format string, includeNormal bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	config.Format = reporter.OutputFormat(format)
	config.IncludeNormal = includeNormal

	return config
}
