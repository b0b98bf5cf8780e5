package parsers

import (
	"io"
	"strconv"
	"time"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
	"github.com/flojun/oceanstar-admin-page-sub000/pkg/logger"
)

// SettlementParser parses one platform's settlement export into
// normalized settlement rows.
type SettlementParser struct {
	*BaseParser
	platform *PlatformConfig
}

// NewSettlementParser creates a parser for the given platform
// configuration.
func NewSettlementParser(platform *PlatformConfig) (*SettlementParser, error) {
	if platform == nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeMissingConfig, "platform", nil, nil)
	}

	if err := platform.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "platform", platform.Key, err)
	}

	parseConfig := &ParseConfig{
		HasHeader:     platform.HasHeader,
		Delimiter:     platform.Delimiter,
		SkipEmptyRows: true,
	}

	return &SettlementParser{
		BaseParser: NewBaseParser(parseConfig),
		platform:   platform,
	}, nil
}

// ParseSettlementRows parses a settlement export file. Rows missing the
// customer name or tour date are skipped and counted; the matching engine
// only ever sees usable rows.
func (sp *SettlementParser) ParseSettlementRows(path string) ([]models.SettlementRow, *ParseStats, error) {
	file, reader, err := sp.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	positions, err := sp.ReadHeaders(reader, path, sp.platform.ColumnAliases, sp.platform.requiredColumns())
	if err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	var rows []models.SettlementRow
	line := 1

	log := sp.logger.WithFields(logger.Fields{
		"platform": sp.platform.Key,
		"file":     path,
	})

	for {
		record, err := sp.readRecord(reader)
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.AddError(pkgerrors.ParseError(pkgerrors.CodeInvalidFormat, path, line, "", "", err))
			continue
		}

		row, rowErr := sp.rowFromRecord(record, positions, path, line)
		if rowErr != nil {
			stats.AddError(rowErr)
			continue
		}

		if row.Validate() != nil {
			// Upstream responsibility: unusable rows never reach the
			// engine.
			stats.RecordsSkipped++
			continue
		}

		rows = append(rows, *row)
		stats.RecordsParsed++
	}

	log.WithFields(logger.Fields{
		"parsed":  stats.RecordsParsed,
		"skipped": stats.RecordsSkipped,
		"failed":  stats.RecordsFailed,
	}).Info("parsed settlement export")

	return rows, stats, nil
}

func (sp *SettlementParser) rowFromRecord(record []string, positions map[string]int, path string, line int) (*models.SettlementRow, error) {
	p := sp.platform

	row := &models.SettlementRow{
		ReservationID: fieldValue(record, positions, p.ReservationIDColumn),
		ProductName:   fieldValue(record, positions, p.ProductNameColumn),
		CustomerName:  fieldValue(record, positions, p.CustomerNameColumn),
		Option:        fieldValue(record, positions, p.OptionColumn),
		Status:        fieldValue(record, positions, p.StatusColumn),
		Platform:      p.Key,
	}

	tourDateRaw := fieldValue(record, positions, p.TourDateColumn)
	tourDate, err := models.ParseDateWithFormats(tourDateRaw)
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, p.TourDateColumn, tourDateRaw, err)
	}
	row.TourDate = tourDate

	if raw := fieldValue(record, positions, p.ReceiptDateColumn); raw != "" {
		receipt, err := models.ParseDateWithFormats(raw)
		if err != nil {
			return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, p.ReceiptDateColumn, raw, err)
		}
		row.ReceiptDate = receipt
	} else if p.DeriveReceiptFromID {
		if derived, ok := deriveReceiptDate(row.ReservationID); ok {
			row.ReceiptDate = derived
		}
	}

	amountRaw := fieldValue(record, positions, p.AmountColumn)
	amount, err := models.ParseDecimalFromString(amountRaw)
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidData, path, line, p.AmountColumn, amountRaw, err)
	}
	row.Amount = amount

	row.PaxCount = parseCount(fieldValue(record, positions, p.PaxColumn))
	row.AdultCount = parseCount(fieldValue(record, positions, p.AdultColumn))
	row.ChildCount = parseCount(fieldValue(record, positions, p.ChildColumn))

	if row.PaxCount == 0 {
		row.PaxCount = row.AdultCount + row.ChildCount
	}

	return row, nil
}

// deriveReceiptDate recovers a receipt date from the YYYYMMDD token some
// platforms embed in reservation IDs.
func deriveReceiptDate(reservationID string) (time.Time, bool) {
	match := receiptDatePattern.FindString(reservationID)
	if match == "" {
		return time.Time{}, false
	}

	t, err := time.Parse("20060102", match)
	if err != nil {
		return time.Time{}, false
	}

	return models.TruncateToDay(t), true
}

// parseCount parses a head count, treating blanks and garbage as zero.
func parseCount(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
