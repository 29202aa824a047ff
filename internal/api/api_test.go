package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuvelet/chassisbench/internal/domain"
	"github.com/kuvelet/chassisbench/internal/kpi"
	"github.com/kuvelet/chassisbench/internal/service"
)

type stubRepository struct {
	aggregates []domain.RegionalAggregate
	rows       []domain.BenchmarkRow
	gaps       []domain.GapRow

	lastFilter domain.BenchmarkFilter
}

func (s *stubRepository) GetAggregates(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.RegionalAggregate, error) {
	s.lastFilter = filter
	return s.aggregates, nil
}

func (s *stubRepository) GetBenchmark(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.BenchmarkRow, error) {
	s.lastFilter = filter
	return s.rows, nil
}

func (s *stubRepository) GetConflicts(ctx context.Context, limit, offset int) ([]domain.ConflictGroup, error) {
	return nil, nil
}

func (s *stubRepository) GetGaps(ctx context.Context, limit int) ([]domain.GapRow, error) {
	return s.gaps, nil
}

func (s *stubRepository) GetSKUFigures(ctx context.Context) ([]kpi.SKUFigure, error) {
	return nil, nil
}

func (s *stubRepository) GetSummaryCounts(ctx context.Context) (*domain.BenchmarkSummary, error) {
	return &domain.BenchmarkSummary{TotalSKUs: 3}, nil
}

func (s *stubRepository) GetRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	return nil, nil
}

func newTestRouter(repo *stubRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewBenchmarkService(repo, nil)
	return NewRouter(svc, nil)
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestGetSummaryEndpoint(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w, body := doRequest(t, router, "/api/v1/benchmark/summary")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["total_skus"])
	assert.Nil(t, body["coverage_ratio"], "undefined coverage serializes as null")
}

func TestGetAggregatesEndpoint(t *testing.T) {
	repo := &stubRepository{
		aggregates: []domain.RegionalAggregate{
			{SKU: "SUS-1", Subtotals: map[string]float64{"Europe": 250}, Total: 250, Rank: 1},
		},
	}
	router := newTestRouter(repo)

	w, body := doRequest(t, router, "/api/v1/benchmark/aggregates?sku=SUS-1,SUS-2&limit=10")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	assert.Equal(t, []string{"SUS-1", "SUS-2"}, repo.lastFilter.SKUs)
	assert.Equal(t, 10, repo.lastFilter.Limit)
}

func TestGetBenchmarkRowsEndpoint(t *testing.T) {
	repo := &stubRepository{
		rows: []domain.BenchmarkRow{
			{SKU: "SUS-1", Region: "Europe", Demand: 12000, Sales: 4200},
		},
	}
	router := newTestRouter(repo)

	w, body := doRequest(t, router, "/api/v1/benchmark/rows")
	assert.Equal(t, http.StatusOK, w.Code)

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	row := data[0].(map[string]any)
	assert.InDelta(t, 65.0, row["lost_opportunity_pct"].(float64), 1e-9)
}

func TestRepeatedQueryParams(t *testing.T) {
	repo := &stubRepository{}
	router := newTestRouter(repo)

	w, _ := doRequest(t, router, "/api/v1/benchmark/rows?region=Europe&region=Mexico")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Europe", "Mexico"}, repo.lastFilter.Regions)
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(&stubRepository{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/benchmark/nope", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
