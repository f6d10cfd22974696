package screening

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/common"
	"github.com/richxcame/cod-risk/pkg/errorreporting"
	"github.com/richxcame/cod-risk/pkg/i18n"
	"github.com/richxcame/cod-risk/pkg/logger"
	"github.com/richxcame/cod-risk/pkg/middleware"
	"github.com/richxcame/cod-risk/pkg/pagination"
	"go.uber.org/zap"
)

const (
	dateLayout          = "2006-01-02"
	defaultStatsWindow  = 30 * 24 * time.Hour
	maxStatisticsWindow = 366 * 24 * time.Hour
)

// ServiceInterface is the behavior the HTTP handler needs from the service
type ServiceInterface interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*risk.FraudAnalysis, error)
	ScreenOrder(ctx context.Context, orderID string) (*Assessment, error)
	GetAssessment(ctx context.Context, orderID string) (*Assessment, error)
	ListOrderAssessments(ctx context.Context, orderID string, limit, offset int) ([]*Assessment, int64, error)
	ListFlagged(ctx context.Context, minLevel risk.RiskLevel, limit, offset int) ([]*Assessment, int64, error)
	ReviewAssessment(ctx context.Context, assessmentID, reviewerID string, decision ReviewDecision, notes string) (*Assessment, error)
	GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error)
}

var _ ServiceInterface = (*Service)(nil)

// Handler handles HTTP requests for order screening
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new screening handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// AnalysisResponse is a FraudAnalysis rendered in the caller's language
type AnalysisResponse struct {
	risk.FraudAnalysis
	LevelLabel string `json:"level_label"`
	Language   string `json:"language"`
}

// AssessmentResponse is an Assessment rendered in the caller's language
type AssessmentResponse struct {
	Assessment
	LevelLabel string `json:"level_label"`
	Language   string `json:"language"`
}

// Analyze scores an order supplied in the request body
// POST /api/v1/risk/analyze
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "failed to analyze order")
		return
	}

	lang := requestLang(c)
	common.SuccessResponse(c, AnalysisResponse{
		FraudAnalysis: risk.FraudAnalysis{
			Score:          analysis.Score,
			Level:          analysis.Level,
			Signals:        localizeSignals(analysis.Signals, lang),
			Recommendation: localizeRecommendation(analysis.Level, analysis.Recommendation, lang),
		},
		LevelLabel: levelLabel(analysis.Level, lang),
		Language:   lang,
	})
}

// ScreenOrder screens a stored order and stores the assessment
// POST /api/v1/risk/orders/:id/screen
func (h *Handler) ScreenOrder(c *gin.Context) {
	orderID, ok := parseID(c, "invalid order ID")
	if !ok {
		return
	}

	assessment, err := h.service.ScreenOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err, "failed to screen order")
		return
	}

	common.CreatedResponse(c, localizeAssessment(assessment, requestLang(c)))
}

// GetAssessment returns the latest assessment of an order
// GET /api/v1/risk/orders/:id/assessment
func (h *Handler) GetAssessment(c *gin.Context) {
	orderID, ok := parseID(c, "invalid order ID")
	if !ok {
		return
	}

	assessment, err := h.service.GetAssessment(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err, "failed to get assessment")
		return
	}

	common.SuccessResponse(c, localizeAssessment(assessment, requestLang(c)))
}

// ListOrderAssessments returns the assessment history of an order
// GET /api/v1/risk/orders/:id/assessments
func (h *Handler) ListOrderAssessments(c *gin.Context) {
	orderID, ok := parseID(c, "invalid order ID")
	if !ok {
		return
	}
	params := pagination.ParseParams(c)

	assessments, total, err := h.service.ListOrderAssessments(c.Request.Context(), orderID, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "failed to list assessments")
		return
	}

	common.SuccessResponseWithMeta(c, localizeAssessments(assessments, requestLang(c)), pagination.BuildMeta(params.Limit, params.Offset, total))
}

// ListFlagged returns unreviewed assessments at or above min_level
// GET /api/v1/risk/flagged
func (h *Handler) ListFlagged(c *gin.Context) {
	var query FlaggedQuery
	if !middleware.ValidateAndBindQuery(c, &query) {
		return
	}
	params := pagination.ParseParams(c)

	assessments, total, err := h.service.ListFlagged(c.Request.Context(), risk.RiskLevel(query.MinLevel), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "failed to list flagged assessments")
		return
	}

	common.SuccessResponseWithMeta(c, localizeAssessments(assessments, requestLang(c)), pagination.BuildMeta(params.Limit, params.Offset, total))
}

// ReviewAssessment records an operator decision on an assessment
// PUT /api/v1/risk/assessments/:id/review
func (h *Handler) ReviewAssessment(c *gin.Context) {
	reviewerID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, common.NewUnauthorizedError("unauthorized"), "unauthorized")
		return
	}

	assessmentID, ok := parseID(c, "invalid assessment ID")
	if !ok {
		return
	}

	var req ReviewRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	assessment, err := h.service.ReviewAssessment(c.Request.Context(), assessmentID, reviewerID, req.Decision, req.Notes)
	if err != nil {
		respondError(c, err, "failed to review assessment")
		return
	}

	common.SuccessResponse(c, localizeAssessment(assessment, requestLang(c)))
}

// GetStatistics returns assessment counts for a date range.
// end_date is inclusive; both default to the last 30 days.
// GET /api/v1/risk/statistics
func (h *Handler) GetStatistics(c *gin.Context) {
	var query StatisticsQuery
	if !middleware.ValidateAndBindQuery(c, &query) {
		return
	}

	now := time.Now().UTC()
	to := now
	from := now.Add(-defaultStatsWindow)

	// Formats were checked by the validator.
	if query.StartDate != "" {
		from, _ = time.Parse(dateLayout, query.StartDate)
	}
	if query.EndDate != "" {
		end, _ := time.Parse(dateLayout, query.EndDate)
		to = end.Add(24 * time.Hour)
	}
	if to.Sub(from) > maxStatisticsWindow {
		common.ErrorResponse(c, http.StatusBadRequest, "date range must not exceed one year")
		return
	}

	stats, err := h.service.GetStatistics(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "failed to get statistics")
		return
	}

	common.SuccessResponse(c, stats)
}

// RegisterRoutes registers the risk console routes. All routes require an admin token.
// Extra middleware such as rate limiting runs after authentication.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string, requestTimeout time.Duration, extra ...gin.HandlerFunc) {
	riskAPI := r.Group("/api/v1/risk")
	riskAPI.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireAdmin())
	riskAPI.Use(extra...)
	if requestTimeout > 0 {
		riskAPI.Use(timeout.New(
			timeout.WithTimeout(requestTimeout),
			timeout.WithResponse(func(c *gin.Context) {
				common.ErrorResponse(c, http.StatusGatewayTimeout, "request timed out")
			}),
		))
	}
	{
		riskAPI.POST("/analyze", h.Analyze)

		riskAPI.POST("/orders/:id/screen", h.ScreenOrder)
		riskAPI.GET("/orders/:id/assessment", h.GetAssessment)
		riskAPI.GET("/orders/:id/assessments", h.ListOrderAssessments)

		riskAPI.GET("/flagged", h.ListFlagged)
		riskAPI.PUT("/assessments/:id/review", h.ReviewAssessment)

		riskAPI.GET("/statistics", h.GetStatistics)
	}
}

func parseID(c *gin.Context, message string) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, message)
		return "", false
	}
	return id.String(), true
}

func respondError(c *gin.Context, err error, fallback string) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			logger.WithContext(c.Request.Context()).Error(fallback, zap.Error(err))
			errorreporting.Capture(c, err)
		}
		common.AppErrorResponse(c, appErr)
		return
	}

	logger.WithContext(c.Request.Context()).Error(fallback, zap.Error(err))
	errorreporting.Capture(c, err)
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}

func requestLang(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return i18n.NormalizeLang(lang)
	}
	return i18n.NormalizeLang(c.GetHeader("Accept-Language"))
}

func levelLabel(level risk.RiskLevel, lang string) string {
	return i18n.TranslateOr("risk.level."+string(level), lang, string(level))
}

func localizeRecommendation(level risk.RiskLevel, original, lang string) string {
	return i18n.TranslateOr("risk.recommendation."+string(level), lang, original)
}

// localizeSignals returns translated copies; the input is never modified because it may be cached.
func localizeSignals(signals []risk.FraudSignal, lang string) []risk.FraudSignal {
	out := make([]risk.FraudSignal, len(signals))
	for i, s := range signals {
		s.Label = i18n.TranslateOr("risk.signal."+s.ID, lang, s.Label)
		out[i] = s
	}
	return out
}

func localizeAssessment(a *Assessment, lang string) AssessmentResponse {
	localized := *a
	localized.Signals = localizeSignals(a.Signals, lang)
	localized.Recommendation = localizeRecommendation(a.Level, a.Recommendation, lang)
	return AssessmentResponse{
		Assessment: localized,
		LevelLabel: levelLabel(a.Level, lang),
		Language:   lang,
	}
}

func localizeAssessments(assessments []*Assessment, lang string) []AssessmentResponse {
	out := make([]AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, localizeAssessment(a, lang))
	}
	return out
}
