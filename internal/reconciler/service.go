// Package reconciler provides high-level orchestration for the settlement
// reconciliation workflow: parsing the OTA settlement export, the internal
// reservation dump and the product catalog, running the matching engine,
// and compiling the summary.
//
// Example usage:
//
//	service, err := reconciler.NewSettlementService(reconciler.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	request := &reconciler.SettlementRequest{
//		SettlementFile:  "settlement.csv",
//		ReservationFile: "reservations.csv",
//		CatalogFile:     "catalog.csv",
//		Platform:        "myrealtrip",
//	}
//	result, err := service.Process(ctx, request)
package reconciler

import (
	"context"
	"time"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/grouper"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/matcher"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/parsers"
	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
	"github.com/flojun/oceanstar-admin-page-sub000/pkg/logger"
)

// SettlementService orchestrates the complete settlement reconciliation
// process.
type SettlementService struct {
	config           *Config
	matchingConfig   *matcher.MatchingConfig
	groupingConfig   *grouper.GroupingConfig
	platformRegistry map[string]*parsers.PlatformConfig
	logger           logger.Logger
}

// Config holds configuration options for the settlement service.
type Config struct {
	Matching *matcher.MatchingConfig
	Grouping *grouper.GroupingConfig
	Parse    *parsers.ParseConfig

	// IncludeResults controls whether the per-row audit trail is kept on
	// the result, or only the summary.
	IncludeResults bool
}

// DefaultConfig returns the default settlement service configuration.
func DefaultConfig() *Config {
	return &Config{
		Matching:       matcher.DefaultMatchingConfig(),
		Grouping:       grouper.DefaultGroupingConfig(),
		Parse:          parsers.DefaultParseConfig(),
		IncludeResults: true,
	}
}

// SettlementRequest names the three input files of one reconciliation run.
type SettlementRequest struct {
	SettlementFile  string
	ReservationFile string
	CatalogFile     string

	// Platform selects the settlement export layout. Empty means the
	// generic layout.
	Platform string
}

// Validate validates the settlement request.
func (r *SettlementRequest) Validate() error {
	if r.SettlementFile == "" {
		return pkgerrors.ValidationError(pkgerrors.CodeMissingField, "settlement_file", nil, nil).
			WithSuggestion("Provide the OTA settlement export file path")
	}
	if r.ReservationFile == "" {
		return pkgerrors.ValidationError(pkgerrors.CodeMissingField, "reservation_file", nil, nil).
			WithSuggestion("Provide the internal reservation dump file path")
	}
	if r.CatalogFile == "" {
		return pkgerrors.ValidationError(pkgerrors.CodeMissingField, "catalog_file", nil, nil).
			WithSuggestion("Provide the product price catalog file path")
	}
	return nil
}

// SettlementResult contains the complete outcome of one reconciliation run.
type SettlementResult struct {
	Summary *matcher.SettlementSummary `json:"summary"`
	Results []*matcher.MatchResult     `json:"results,omitempty"`

	ParseStats map[string]*parsers.ParseStats `json:"parse_stats,omitempty"`

	ProcessedAt time.Time     `json:"processed_at"`
	Duration    time.Duration `json:"duration"`
	Platform    string        `json:"platform"`
}

// NewSettlementService creates a settlement service. A nil config uses
// defaults.
func NewSettlementService(config *Config) (*SettlementService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Matching == nil {
		config.Matching = matcher.DefaultMatchingConfig()
	}
	if config.Grouping == nil {
		config.Grouping = grouper.DefaultGroupingConfig()
	}
	if config.Parse == nil {
		config.Parse = parsers.DefaultParseConfig()
	}

	if err := config.Matching.Validate(); err != nil {
		return nil, err
	}

	return &SettlementService{
		config:           config,
		matchingConfig:   config.Matching,
		groupingConfig:   config.Grouping,
		platformRegistry: parsers.DefaultPlatformRegistry(),
		logger:           logger.GetGlobalLogger().WithComponent("settlement_service"),
	}, nil
}

// Process runs the full reconciliation for the given request.
func (s *SettlementService) Process(ctx context.Context, request *SettlementRequest) (*SettlementResult, error) {
	start := time.Now()

	if err := request.Validate(); err != nil {
		return nil, err
	}

	platform, err := parsers.ResolvePlatform(s.platformRegistry, request.Platform)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logger.Fields{
		"platform":    request.Platform,
		"settlement":  request.SettlementFile,
		"reservation": request.ReservationFile,
	}).Info("starting settlement reconciliation")

	stats := make(map[string]*parsers.ParseStats)

	rows, rowStats, err := s.parseSettlement(ctx, request.SettlementFile, platform)
	if err != nil {
		return nil, err
	}
	stats[request.SettlementFile] = rowStats

	records, recordStats, err := s.parseReservations(ctx, request.ReservationFile)
	if err != nil {
		return nil, err
	}
	stats[request.ReservationFile] = recordStats

	products, err := s.parseCatalog(ctx, request.CatalogFile)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := matcher.NewSettlementEngine(s.matchingConfig, products)
	engine.LoadExcelGroups(grouper.GroupSettlementRows(rows, s.groupingConfig))
	engine.LoadReservations(grouper.BuildMergedReservations(records))

	results, err := engine.Reconcile()
	if err != nil {
		return nil, pkgerrors.SettlementProcessingError("reconcile", err)
	}

	summary := matcher.Summarize(results)

	result := &SettlementResult{
		Summary:     &summary,
		ParseStats:  stats,
		ProcessedAt: start,
		Duration:    time.Since(start),
		Platform:    request.Platform,
	}
	if s.config.IncludeResults {
		result.Results = results
	}

	s.logger.WithFields(logger.Fields{
		"results":  len(results),
		"matched":  summary.MatchedCount,
		"duration": result.Duration.String(),
	}).Info("settlement reconciliation complete")

	return result, nil
}

func (s *SettlementService) parseSettlement(ctx context.Context, path string, platform *parsers.PlatformConfig) ([]models.SettlementRow, *parsers.ParseStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	parser, err := parsers.NewSettlementParser(platform)
	if err != nil {
		return nil, nil, err
	}

	return parser.ParseSettlementRows(path)
}

func (s *SettlementService) parseReservations(ctx context.Context, path string) ([]models.ReservationRecord, *parsers.ParseStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	parser := parsers.NewReservationParser(s.config.Parse)
	return parser.ParseReservations(path)
}

func (s *SettlementService) parseCatalog(ctx context.Context, path string) ([]models.ProductPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := parsers.NewCatalogParser(s.config.Parse)
	return parser.ParseCatalog(path)
}
