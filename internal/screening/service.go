package screening

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/common"
	"github.com/richxcame/cod-risk/pkg/config"
	"github.com/richxcame/cod-risk/pkg/database"
	"github.com/richxcame/cod-risk/pkg/eventbus"
	"github.com/richxcame/cod-risk/pkg/i18n"
	"github.com/richxcame/cod-risk/pkg/logger"
	"github.com/richxcame/cod-risk/pkg/resilience"
	"github.com/richxcame/cod-risk/pkg/security"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service screens orders with the scoring engine and manages stored assessments
type Service struct {
	repo      RepositoryInterface
	cache     CacheInterface
	publisher Publisher

	publishBreaker *resilience.CircuitBreaker
	readRetry      resilience.RetryConfig
	publishRetry   resilience.RetryConfig

	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

// NewService creates a screening service. cache and publisher may be nil.
func NewService(repo RepositoryInterface, cache CacheInterface, publisher Publisher, cfg config.RiskConfig) *Service {
	publishRetry := resilience.DefaultRetryConfig()
	publishRetry.Name = "event-publish"
	publishRetry.MaxAttempts = cfg.PublishRetries
	publishRetry.InitialBackoff = 50 * time.Millisecond
	publishRetry.MaxBackoff = time.Second

	readRetry := resilience.DefaultRetryConfig()
	readRetry.Name = "assessment-read"
	readRetry.InitialBackoff = 50 * time.Millisecond
	readRetry.MaxBackoff = 500 * time.Millisecond
	readRetry.RetryableChecker = database.IsPostgresRetryable

	breakerSettings := resilience.BuildSettings("event-publish", cfg.Breaker)

	return &Service{
		repo:           repo,
		cache:          cache,
		publisher:      publisher,
		publishBreaker: resilience.NewCircuitBreaker(breakerSettings, resilience.GracefulDegradation("nats")),
		readRetry:      readRetry,
		publishRetry:   publishRetry,
		tracer:         otel.Tracer("github.com/richxcame/cod-risk/internal/screening"),
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
	}
}

// Analyze scores caller-supplied data without loading or storing anything
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*risk.FraudAnalysis, error) {
	if req == nil || req.Order == nil {
		return nil, common.NewBadRequestError("order is required", nil)
	}

	analysis, err := s.score(ctx, req.Order, req.Profile, req.UserOrders)
	if err != nil {
		return nil, common.NewBadRequestError("order cannot be scored", err)
	}
	return analysis, nil
}

// ScreenOrder scores a stored order against a consistent snapshot of its history,
// stores the result and announces it
func (s *Service) ScreenOrder(ctx context.Context, orderID string) (*Assessment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, common.NewBadRequestError("order id is required", nil)
	}

	ctx, span := s.tracer.Start(ctx, "screening.ScreenOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	snapshot, err := s.loadSnapshot(ctx, orderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewNotFoundError("order not found", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load snapshot")
		return nil, common.NewInternalError("failed to load order", err)
	}

	analysis, err := s.score(ctx, snapshot.Order, snapshot.Profile, snapshot.UserOrders)
	if err != nil {
		return nil, common.NewBadRequestError("order cannot be scored", err)
	}

	assessment := &Assessment{
		ID:             s.newID(),
		OrderID:        snapshot.Order.ID,
		UserID:         snapshot.Order.UserID,
		Score:          analysis.Score,
		Level:          analysis.Level,
		Signals:        analysis.Signals,
		Recommendation: analysis.Recommendation,
		AssessedAt:     s.now().UTC(),
	}
	if err := s.repo.CreateAssessment(ctx, assessment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store assessment")
		return nil, common.NewInternalError("failed to store assessment", err)
	}

	recordAssessment(analysis)
	s.cacheAssessment(ctx, assessment)

	data := AssessedData{
		AssessmentID:  assessment.ID,
		OrderID:       assessment.OrderID,
		UserID:        assessment.UserID,
		Score:         assessment.Score,
		Level:         assessment.Level,
		SignalIDs:     signalIDs(assessment.Signals),
		AmountDisplay: i18n.FormatAmount(snapshot.Order.TotalAmount, defaultCurrency),
		AssessedAt:    assessment.AssessedAt,
	}
	s.publish(ctx, SubjectRiskAssessed, data)
	if assessment.Level == risk.RiskLevelHigh {
		s.publish(ctx, SubjectRiskFlagged, FlaggedData{AssessedData: data, Titles: flaggedTitles(assessment)})
	}

	logger.WithContext(ctx).Info("order screened",
		zap.String("order_id", assessment.OrderID),
		zap.String("assessment_id", assessment.ID),
		zap.Int("score", assessment.Score),
		zap.String("level", string(assessment.Level)),
		zap.Strings("signals", data.SignalIDs),
	)

	return assessment, nil
}

// GetAssessment returns the latest assessment of an order, from cache when possible
func (s *Service) GetAssessment(ctx context.Context, orderID string) (*Assessment, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, orderID)
		if err != nil {
			logger.WithContext(ctx).Warn("assessment cache read failed", zap.String("order_id", orderID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	assessment, err := s.repo.GetLatestAssessment(ctx, orderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewNotFoundError("order has not been screened", err)
		}
		return nil, common.NewInternalError("failed to get assessment", err)
	}

	s.cacheAssessment(ctx, assessment)
	return assessment, nil
}

// ListOrderAssessments returns every assessment of an order, newest first
func (s *Service) ListOrderAssessments(ctx context.Context, orderID string, limit, offset int) ([]*Assessment, int64, error) {
	assessments, total, err := s.repo.ListAssessmentsByOrder(ctx, orderID, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list assessments", err)
	}
	return assessments, total, nil
}

// ListFlagged returns unreviewed assessments at or above minLevel, riskiest first.
// An empty minLevel means medium.
func (s *Service) ListFlagged(ctx context.Context, minLevel risk.RiskLevel, limit, offset int) ([]*Assessment, int64, error) {
	if minLevel == "" {
		minLevel = risk.RiskLevelMedium
	}
	if !minLevel.Valid() {
		return nil, 0, common.NewBadRequestError("invalid risk level", nil)
	}

	assessments, total, err := s.repo.ListUnreviewed(ctx, levelsAtOrAbove(minLevel), limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list flagged assessments", err)
	}
	return assessments, total, nil
}

// ReviewAssessment records an operator's decision. Each assessment is reviewed once.
func (s *Service) ReviewAssessment(ctx context.Context, assessmentID, reviewerID string, decision ReviewDecision, notes string) (*Assessment, error) {
	if !decision.Valid() {
		return nil, common.NewBadRequestError("decision must be one of dispatch, verify, reject", nil)
	}

	assessment, err := s.repo.GetAssessmentByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewNotFoundError("assessment not found", err)
		}
		return nil, common.NewInternalError("failed to get assessment", err)
	}
	if assessment.Reviewed() {
		return nil, common.NewConflictError("assessment already reviewed")
	}

	reviewedAt := s.now().UTC()
	notes = security.SanitizeNotes(notes, maxReviewNotes)
	if err := s.repo.UpdateReview(ctx, assessmentID, decision, reviewerID, notes, reviewedAt); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyReviewed):
			return nil, common.NewConflictError("assessment already reviewed")
		case errors.Is(err, common.ErrNotFound):
			return nil, common.NewNotFoundError("assessment not found", err)
		default:
			return nil, common.NewInternalError("failed to record review", err)
		}
	}

	assessment.Decision = &decision
	assessment.ReviewedAt = &reviewedAt
	assessment.ReviewedBy = &reviewerID
	if notes != "" {
		assessment.ReviewNotes = &notes
	}

	recordReview(decision)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, assessment.OrderID); err != nil {
			logger.WithContext(ctx).Warn("assessment cache invalidation failed", zap.String("order_id", assessment.OrderID), zap.Error(err))
		}
	}
	s.publish(ctx, SubjectRiskReviewed, ReviewedData{
		AssessmentID: assessment.ID,
		OrderID:      assessment.OrderID,
		Decision:     decision,
		ReviewedBy:   reviewerID,
		ReviewedAt:   reviewedAt,
	})

	logger.WithContext(ctx).Info("assessment reviewed",
		zap.String("assessment_id", assessment.ID),
		zap.String("order_id", assessment.OrderID),
		zap.String("decision", string(decision)),
		zap.String("reviewer_id", reviewerID),
	)

	return assessment, nil
}

// GetStatistics summarizes assessments made in [from, to)
func (s *Service) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	if !to.After(from) {
		return nil, common.NewBadRequestError("end date must be after start date", nil)
	}

	stats, err := s.repo.GetStatistics(ctx, from, to)
	if err != nil {
		return nil, common.NewInternalError("failed to get statistics", err)
	}
	return stats, nil
}

func (s *Service) loadSnapshot(ctx context.Context, orderID string) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "screening.LoadSnapshot")
	defer span.End()

	result, err := resilience.Retry(ctx, s.readRetry, func(ctx context.Context) (interface{}, error) {
		return s.repo.LoadSnapshot(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}

	snapshot := result.(*Snapshot)
	span.SetAttributes(attribute.Int("orders.history", len(snapshot.UserOrders)))
	return snapshot, nil
}

func (s *Service) score(ctx context.Context, order *risk.Order, profile *risk.Profile, history []risk.Order) (*risk.FraudAnalysis, error) {
	_, span := s.tracer.Start(ctx, "risk.AnalyzeFraudRisk")
	defer span.End()

	analysis, err := risk.AnalyzeFraudRisk(order, profile, history)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("risk.score", analysis.Score),
		attribute.String("risk.level", string(analysis.Level)),
		attribute.Int("risk.signals", len(analysis.Signals)),
	)
	return analysis, nil
}

func (s *Service) cacheAssessment(ctx context.Context, assessment *Assessment) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, assessment); err != nil {
		logger.WithContext(ctx).Warn("assessment cache write failed",
			zap.String("order_id", assessment.OrderID),
			zap.Error(err),
		)
	}
}

// publish delivers an event with retries. Failures are logged, never returned.
func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	if s.publisher == nil {
		return
	}

	event, err := eventbus.NewEvent(subject, eventSource, data)
	if err != nil {
		logger.WithContext(ctx).Error("failed to build event", zap.String("subject", subject), zap.Error(err))
		return
	}

	_, err = resilience.RetryWithBreaker(ctx, s.publishRetry, s.publishBreaker, func(ctx context.Context) (interface{}, error) {
		return nil, s.publisher.Publish(ctx, subject, event)
	})
	if err != nil {
		logger.WithContext(ctx).Warn("failed to publish event",
			zap.String("subject", subject),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

func flaggedTitles(a *Assessment) map[string]string {
	titles := make(map[string]string, len(i18n.SupportedLanguages))
	for _, lang := range i18n.SupportedLanguages {
		level := i18n.TranslateOr("risk.level."+string(a.Level), lang, string(a.Level))
		titles[lang] = i18n.Translate("risk.flagged.title", lang, a.OrderID, level)
	}
	return titles
}

func signalIDs(signals []risk.FraudSignal) []string {
	ids := make([]string, 0, len(signals))
	for _, s := range signals {
		ids = append(ids, s.ID)
	}
	return ids
}
