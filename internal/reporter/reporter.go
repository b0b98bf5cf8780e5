// Package reporter renders settlement reconciliation results for human and
// machine consumption.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal review
//   - JSON: structured data for the admin page and other programs
//   - CSV: flat rows for spreadsheet follow-up
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/matcher"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeNormal includes rows that reconciled cleanly; by default only
	// rows needing attention are listed in console output.
	IncludeNormal bool `json:"include_normal"`

	// SortByStatus orders console rows error-first so the items needing
	// review come on top.
	SortByStatus bool `json:"sort_by_status"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:        FormatConsole,
		IncludeNormal: false,
		SortByStatus:  true,
		CSVDelimiter:  ',',
		CSVHeaders:    true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders settlement results in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator. A nil config uses
// defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the report for one settlement run to the writer.
func (rg *ReportGenerator) GenerateReport(result *reconciler.SettlementResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("settlement result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *reconciler.SettlementResult, writer io.Writer) error {
	fmt.Fprintf(writer, "SETTLEMENT RECONCILIATION REPORT\n")
	if result.Platform != "" {
		fmt.Fprintf(writer, "Platform: %s\n", result.Platform)
	}
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration: %v\n\n", result.Duration)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummary(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	rows := rg.selectRows(result.Results)
	if len(rows) > 0 {
		fmt.Fprintf(writer, "=== RESULTS ===\n")
		rg.printResults(rows, writer)
	}

	return nil
}

func (rg *ReportGenerator) printSummary(summary *matcher.SettlementSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Bookings:\n")
	fmt.Fprintf(writer, "  Total:      %d\n", summary.TotalResults)
	fmt.Fprintf(writer, "  Matched:    %d\n", summary.MatchedCount)
	fmt.Fprintf(writer, "  Excel only: %d\n", summary.ExcelOnly)
	fmt.Fprintf(writer, "  DB only:    %d\n", summary.DBOnly)
	fmt.Fprintf(writer, "Status:\n")
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelNormal, summary.NormalCount)
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelWarning, summary.WarningCount)
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelNeedsReview, summary.ErrorCount)
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelCancelled, summary.CancelledCount)
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelPartialRefund, summary.PartialRefundCount)
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelCarriedOver, summary.CarriedOverCount)
	fmt.Fprintf(writer, "  %s: %d\n", matcher.LabelOnsitePayment, summary.OnsitePaymentCount)
	fmt.Fprintf(writer, "Amounts:\n")
	fmt.Fprintf(writer, "  Expected: %s\n", summary.TotalExpected.StringFixed(2))
	fmt.Fprintf(writer, "  Actual:   %s\n", summary.TotalActual.StringFixed(2))
	fmt.Fprintf(writer, "  Diff:     %s\n", summary.TotalDiff.StringFixed(2))
}

func (rg *ReportGenerator) printResults(results []*matcher.MatchResult, writer io.Writer) {
	fmt.Fprintf(writer, "%-12s %-20s %-18s %-12s %12s %12s %12s  %s\n",
		"STATUS", "CUSTOMER", "PRODUCT", "TOUR DATE", "EXPECTED", "ACTUAL", "DIFF", "NOTES")

	for _, r := range results {
		tourDate := ""
		if r.ExcelGroup != nil && !r.ExcelGroup.TourDate.IsZero() {
			tourDate = r.ExcelGroup.TourDate.Format("2006-01-02")
		} else if r.Reservation != nil {
			tourDate = r.Reservation.TourDate.Format("2006-01-02")
		}

		fmt.Fprintf(writer, "%-12s %-20s %-18s %-12s %12s %12s %12s  %s\n",
			r.Label,
			truncate(r.CustomerName(), 20),
			truncate(r.ProductName, 18),
			tourDate,
			r.ExpectedAmount.StringFixed(2),
			r.ActualAmount.StringFixed(2),
			r.AmountDiff.StringFixed(2),
			joinNotes(r.Notes))
	}
}

// selectRows applies the configured filtering and ordering to the audit
// trail without mutating the original slice.
func (rg *ReportGenerator) selectRows(results []*matcher.MatchResult) []*matcher.MatchResult {
	rows := make([]*matcher.MatchResult, 0, len(results))
	for _, r := range results {
		if !rg.config.IncludeNormal && r.Status == matcher.StatusNormal {
			continue
		}
		rows = append(rows, r)
	}

	if rg.config.SortByStatus {
		sort.SliceStable(rows, func(i, j int) bool {
			return statusRank(rows[i].Status) < statusRank(rows[j].Status)
		})
	}

	return rows
}

func statusRank(status matcher.MatchStatus) int {
	switch status {
	case matcher.StatusError:
		return 0
	case matcher.StatusWarning:
		return 1
	case matcher.StatusPartialRefund:
		return 2
	case matcher.StatusCarriedOver:
		return 3
	case matcher.StatusCancelled:
		return 4
	default:
		return 5
	}
}

func (rg *ReportGenerator) generateJSONReport(result *reconciler.SettlementResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (rg *ReportGenerator) generateCSVReport(result *reconciler.SettlementResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"status",
			"label",
			"customer",
			"product",
			"tour_date",
			"receipt_date",
			"strategy",
			"expected",
			"actual",
			"diff",
			"notes",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, r := range result.Results {
		tourDate := ""
		receiptDate := ""
		if r.ExcelGroup != nil {
			if !r.ExcelGroup.TourDate.IsZero() {
				tourDate = r.ExcelGroup.TourDate.Format("2006-01-02")
			}
			if r.ExcelGroup.HasReceiptDate() {
				receiptDate = r.ExcelGroup.ReceiptDate.Format("2006-01-02")
			}
		} else if r.Reservation != nil {
			tourDate = r.Reservation.TourDate.Format("2006-01-02")
			receiptDate = r.Reservation.ReceiptDate.Format("2006-01-02")
		}

		record := []string{
			string(r.Status),
			r.Label,
			r.CustomerName(),
			r.ProductName,
			tourDate,
			receiptDate,
			r.Strategy.String(),
			r.ExpectedAmount.String(),
			r.ActualAmount.String(),
			r.AmountDiff.String(),
			joinNotes(r.Notes),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write result record: %w", err)
		}
	}

	return nil
}

func joinNotes(notes []string) string {
	return strings.Join(notes, "; ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
