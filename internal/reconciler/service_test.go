package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/matcher"
	pkgerrors "github.com/flojun/oceanstar-admin-page-sub000/pkg/errors"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testRequest(t *testing.T) *SettlementRequest {
	t.Helper()

	dir := t.TempDir()

	settlement := writeFixture(t, dir, "settlement.csv",
		`reservation_id,customer_name,tour_date,receipt_date,amount,adult_count,child_count,option
MRT-1,Kim Minsu,2026-02-09,2026-01-03,100000,2,0,거북이 스노클링
MRT-2,Park Sora,2026-02-09,2026-01-05,120000,2,0,선셋 세일링
`)

	reservations := writeFixture(t, dir, "reservations.csv",
		`예약번호,예약자,투어일,접수일,옵션,성인,금액
R001,Kim Minsu,2026-02-09,2026-01-03,거북이 스노클링,2,100000
R002,Lee Jiwon,2026-02-09,2026-01-04,선셋 세일링,2,120000
`)

	catalog := writeFixture(t, dir, "catalog.csv",
		`상품명,키워드,성인가,아동가,구분
거북이 스노클링,"거북이,스노클링",50000,30000,1/2부
선셋 세일링,"선셋,세일링",60000,40000,3부
`)

	return &SettlementRequest{
		SettlementFile:  settlement,
		ReservationFile: reservations,
		CatalogFile:     catalog,
	}
}

func TestNewSettlementService(t *testing.T) {
	service, err := NewSettlementService(nil)
	require.NoError(t, err)
	assert.NotNil(t, service.matchingConfig)
	assert.NotNil(t, service.groupingConfig)
	assert.NotNil(t, service.platformRegistry)

	bad := DefaultConfig()
	bad.Matching.ReceiptDateToleranceDays = -1
	_, err = NewSettlementService(bad)
	assert.Error(t, err)
}

func TestSettlementRequestValidate(t *testing.T) {
	request := &SettlementRequest{}
	err := request.Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCategory(err, pkgerrors.CategoryValidation))

	request = testRequest(t)
	assert.NoError(t, request.Validate())
}

func TestProcess(t *testing.T) {
	service, err := NewSettlementService(nil)
	require.NoError(t, err)

	result, err := service.Process(context.Background(), testRequest(t))
	require.NoError(t, err)
	require.NotNil(t, result.Summary)

	// Kim matches exactly; Park's row has no reservation; Lee's
	// reservation has no settlement row.
	assert.Equal(t, 3, result.Summary.TotalResults)
	assert.Equal(t, 1, result.Summary.MatchedCount)
	assert.Equal(t, 1, result.Summary.ExcelOnly)
	assert.Equal(t, 1, result.Summary.DBOnly)

	assert.Len(t, result.Results, 3)
	assert.Len(t, result.ParseStats, 2)
	assert.False(t, result.ProcessedAt.IsZero())

	var matched *matcher.MatchResult
	for _, r := range result.Results {
		if r.IsMatched() {
			matched = r
		}
	}
	require.NotNil(t, matched)
	assert.Equal(t, matcher.StatusNormal, matched.Status)
	assert.Equal(t, matcher.StrategyExactTourDate, matched.Strategy)
}

func TestProcess_SummaryOnly(t *testing.T) {
	config := DefaultConfig()
	config.IncludeResults = false

	service, err := NewSettlementService(config)
	require.NoError(t, err)

	result, err := service.Process(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Nil(t, result.Results)
	assert.Equal(t, 3, result.Summary.TotalResults)
}

func TestProcess_UnknownPlatform(t *testing.T) {
	service, err := NewSettlementService(nil)
	require.NoError(t, err)

	request := testRequest(t)
	request.Platform = "expedia"

	_, err = service.Process(context.Background(), request)
	require.Error(t, err)
	code, ok := pkgerrors.GetCode(err)
	require.True(t, ok)
	assert.Equal(t, pkgerrors.CodeUnknownPlatform, code)
}

func TestProcess_MissingFile(t *testing.T) {
	service, err := NewSettlementService(nil)
	require.NoError(t, err)

	request := testRequest(t)
	request.SettlementFile = filepath.Join(t.TempDir(), "absent.csv")

	_, err = service.Process(context.Background(), request)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCategory(err, pkgerrors.CategoryFile))
}

func TestProcess_CancelledContext(t *testing.T) {
	service, err := NewSettlementService(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = service.Process(ctx, testRequest(t))
	assert.ErrorIs(t, err, context.Canceled)
}
