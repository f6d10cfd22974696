package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/risk/flagged"+query, nil)
	return ParseParams(c)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		expect Params
	}{
		{"defaults", "", Params{Limit: DefaultLimit, Offset: DefaultOffset}},
		{"explicit", "?limit=50&offset=100", Params{Limit: 50, Offset: 100}},
		{"limit capped", "?limit=5000", Params{Limit: MaxLimit, Offset: 0}},
		{"zero limit falls back", "?limit=0", Params{Limit: DefaultLimit, Offset: 0}},
		{"negative limit falls back", "?limit=-3", Params{Limit: DefaultLimit, Offset: 0}},
		{"negative offset falls back", "?offset=-20", Params{Limit: DefaultLimit, Offset: 0}},
		{"non numeric ignored", "?limit=ten&offset=abc", Params{Limit: DefaultLimit, Offset: 0}},
		{"other params untouched", "?min_level=high&limit=10", Params{Limit: 10, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, parseQuery(t, tt.query))
		})
	}
}

func TestBuildMeta(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		total      int64
		totalPages int
		page       int
		hasMore    bool
	}{
		{"first of several", 20, 0, 45, 3, 1, true},
		{"middle page", 20, 20, 45, 3, 2, true},
		{"last partial page", 20, 40, 45, 3, 3, false},
		{"exact fit", 10, 0, 10, 1, 1, false},
		{"no flagged orders", 20, 0, 0, 0, 1, false},
		{"offset past end", 20, 100, 45, 3, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := BuildMeta(tt.limit, tt.offset, tt.total)
			require.NotNil(t, meta)
			assert.Equal(t, tt.limit, meta.Limit)
			assert.Equal(t, tt.offset, meta.Offset)
			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.totalPages, meta.TotalPages)
			assert.Equal(t, tt.page, meta.Page)
			assert.Equal(t, tt.hasMore, meta.HasMore)
		})
	}
}

func TestGetCurrentPage_ZeroLimit(t *testing.T) {
	assert.Equal(t, 1, GetCurrentPage(40, 0))
}
