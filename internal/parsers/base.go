// Package parsers loads the three inputs of a reconciliation run from
// CSV-normalized files: platform settlement exports, raw internal
// reservation records, and the admin product price catalog.
//
// Settlement exports vary per OTA platform; a registry of platform
// configurations maps each platform key to its column layout and aliases.
// Parsing is strict about structure (missing columns are configuration
// errors) but tolerant about rows: rows missing a customer name or tour
// date are counted and skipped, never handed to the matching engine.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
	"github.com/flojun/oceanstar-admin-page-sub000/pkg/logger"
)

// ParseConfig holds low-level CSV reading options.
type ParseConfig struct {
	HasHeader     bool
	Delimiter     rune
	SkipEmptyRows bool
}

// DefaultParseConfig returns a configuration with sensible defaults.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:     true,
		Delimiter:     ',',
		SkipEmptyRows: true,
	}
}

// ParseStats accumulates per-file parsing statistics.
type ParseStats struct {
	RecordsParsed  int
	RecordsSkipped int
	RecordsFailed  int
	Errors         []error
}

// AddError records a row-level failure.
func (ps *ParseStats) AddError(err error) {
	ps.RecordsFailed++
	ps.Errors = append(ps.Errors, err)
}

// String returns a short summary of the statistics.
func (ps *ParseStats) String() string {
	return fmt.Sprintf("ParseStats{parsed: %d, skipped: %d, failed: %d}",
		ps.RecordsParsed, ps.RecordsSkipped, ps.RecordsFailed)
}

// BaseParser provides the CSV plumbing shared by the concrete parsers.
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a BaseParser with the given configuration.
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	return &BaseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("parsers"),
	}
}

// OpenFile opens a CSV file and returns a configured reader.
func (bp *BaseParser) OpenFile(path string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, pkgerrors.FileError(pkgerrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, pkgerrors.FileError(pkgerrors.CodeFilePermission, path, err)
		}
		return nil, nil, pkgerrors.Wrap(err, pkgerrors.CategoryFile, pkgerrors.CodeUnexpectedError,
			fmt.Sprintf("failed to open %s", path))
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// ReadHeaders reads the header row and resolves column positions for the
// required and optional columns, applying the alias table. Missing
// required columns are reported as parse errors.
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, path string, aliases map[string]string, required []string) (map[string]int, error) {
	if !bp.config.HasHeader {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "has_header", false, nil).
			WithSuggestion("headerless exports are not supported; add a header row")
	}

	headerRow, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidFormat, path, 1, "", "", err)
	}

	positions := make(map[string]int, len(headerRow))
	for i, raw := range headerRow {
		name := strings.ToLower(strings.TrimSpace(raw))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, taken := positions[name]; !taken {
			positions[name] = i
		}
	}

	for _, column := range required {
		if _, ok := positions[column]; !ok {
			return nil, pkgerrors.ParseError(pkgerrors.CodeMissingColumn, path, 1, column, "", nil)
		}
	}

	return positions, nil
}

// fieldValue returns the trimmed value of a column for one record, or an
// empty string when the column is absent or the record is short.
func fieldValue(record []string, positions map[string]int, column string) string {
	idx, ok := positions[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// isEmptyRecord reports whether every field of the record is blank.
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// readRecord reads one CSV record, translating EOF through unchanged.
func (bp *BaseParser) readRecord(reader *csv.Reader) ([]string, error) {
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		return record, nil
	}
}
