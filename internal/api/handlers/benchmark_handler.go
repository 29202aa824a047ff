// internal/api/handlers/benchmark_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kuvelet/chassisbench/internal/domain"
	"github.com/kuvelet/chassisbench/internal/service"
)

type BenchmarkHandler struct {
	service *service.BenchmarkService
}

func NewBenchmarkHandler(service *service.BenchmarkService) *BenchmarkHandler {
	return &BenchmarkHandler{service: service}
}

func (h *BenchmarkHandler) parseFilter(c *gin.Context) domain.BenchmarkFilter {
	filter := domain.BenchmarkFilter{
		Limit: 100,
	}

	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	filter.SKUs = parseList(c, "sku")
	filter.Regions = parseList(c, "region")

	return filter
}

// parseList supports both repeated params (?sku=A&sku=B) and a single
// comma-separated value (?sku=A,B).
func parseList(c *gin.Context, name string) []string {
	raw := c.QueryArray(name)
	if len(raw) == 0 {
		if single := strings.TrimSpace(c.Query(name)); single != "" {
			raw = strings.Split(single, ",")
		}
	}

	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func (h *BenchmarkHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get benchmark summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *BenchmarkHandler) GetAggregates(c *gin.Context) {
	aggregates, err := h.service.GetAggregates(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get aggregates")
		return
	}

	out := make([]gin.H, 0, len(aggregates))
	for _, agg := range aggregates {
		out = append(out, gin.H{
			"sku":       agg.SKU,
			"subtotals": agg.Subtotals,
			"total":     agg.Total,
			"rank":      agg.Rank,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (h *BenchmarkHandler) GetBenchmark(c *gin.Context) {
	rows, err := h.service.GetBenchmark(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get benchmark rows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "count": len(rows)})
}

func (h *BenchmarkHandler) GetConflicts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	conflicts, err := h.service.GetConflicts(c.Request.Context(), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get conflicts")
		return
	}

	out := make([]gin.H, 0, len(conflicts))
	for _, group := range conflicts {
		candidates := make([]gin.H, 0, len(group.Candidates))
		for _, cand := range group.Candidates {
			candidates = append(candidates, gin.H{"brand": cand.Brand, "sku": cand.SKU})
		}
		out = append(out, gin.H{
			"canonical_key": group.Key,
			"candidates":    candidates,
			"chosen_brand":  group.Chosen.Brand,
			"chosen_sku":    group.Chosen.SKU,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (h *BenchmarkHandler) GetGaps(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	gaps, err := h.service.GetGaps(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get gap report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gaps, "count": len(gaps)})
}

func (h *BenchmarkHandler) GetRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.service.GetRuns(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get pipeline runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs, "count": len(runs)})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
