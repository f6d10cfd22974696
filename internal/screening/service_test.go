package screening

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/common"
	"github.com/richxcame/cod-risk/pkg/config"
	"github.com/richxcame/cod-risk/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		CacheTTL: time.Minute,
		Breaker: config.BreakerConfig{
			IntervalSeconds:  60,
			TimeoutSeconds:   30,
			FailureThreshold: 5,
			SuccessThreshold: 1,
		},
		PublishRetries: 1,
	}
}

func newTestService(repo *MockRepository, cache *MockCache, pub *MockPublisher) *Service {
	var c CacheInterface
	if cache != nil {
		c = cache
	}
	var p Publisher
	if pub != nil {
		p = pub
	}
	s := NewService(repo, c, p, testRiskConfig())
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "a-1" }
	return s
}

func strPtr(s string) *string { return &s }

func appErrorCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected *common.AppError, got %T", err)
	return appErr.Code
}

func highRiskSnapshot() *Snapshot {
	return &Snapshot{
		Order: &risk.Order{
			ID:              "o-9",
			UserID:          "user-9",
			ShippingAddress: strPtr("Xkcd Qwrtp, 12345678, zzzxq, bbbbnm"),
			TotalAmount:     6500,
			CreatedAt:       fixedNow.Add(-time.Minute),
			Status:          "pending",
		},
	}
}

func lowRiskSnapshot() *Snapshot {
	order := risk.Order{
		ID:              "o-1",
		UserID:          "user-1",
		ShippingAddress: strPtr("Karim Uddin, 01712345678, House 5, Road 2, Dhaka"),
		TotalAmount:     1200,
		CreatedAt:       fixedNow.Add(-time.Minute),
		Status:          "pending",
	}
	return &Snapshot{
		Order:      &order,
		Profile:    &risk.Profile{FullName: strPtr("Karim Uddin")},
		UserOrders: []risk.Order{order},
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestService(new(MockRepository), nil, nil)

	analysis, err := s.Analyze(context.Background(), &AnalyzeRequest{Order: highRiskSnapshot().Order})
	require.NoError(t, err)
	assert.Equal(t, 65, analysis.Score)
	assert.Equal(t, risk.RiskLevelHigh, analysis.Level)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	s := newTestService(new(MockRepository), nil, nil)

	_, err := s.Analyze(context.Background(), &AnalyzeRequest{})
	assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))

	_, err = s.Analyze(context.Background(), &AnalyzeRequest{Order: &risk.Order{ID: "o-1"}})
	assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))
}

func TestScreenOrder_HighRiskIsFlagged(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	pub := new(MockPublisher)
	s := newTestService(repo, cache, pub)

	repo.On("LoadSnapshot", mock.Anything, "o-9").Return(highRiskSnapshot(), nil)
	repo.On("CreateAssessment", mock.Anything, mock.MatchedBy(func(a *Assessment) bool {
		return a.ID == "a-1" && a.OrderID == "o-9" && a.Score == 65
	})).Return(nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("*screening.Assessment")).Return(nil)
	pub.On("Publish", mock.Anything, SubjectRiskAssessed, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, SubjectRiskFlagged, mock.MatchedBy(func(e *eventbus.Event) bool {
		var data FlaggedData
		if err := json.Unmarshal(e.Data, &data); err != nil {
			return false
		}
		return data.OrderID == "o-9" && data.Titles["en"] == "Order o-9 flagged: High Risk"
	})).Return(nil)

	assessment, err := s.ScreenOrder(context.Background(), " o-9 ")
	require.NoError(t, err)

	assert.Equal(t, "a-1", assessment.ID)
	assert.Equal(t, "user-9", assessment.UserID)
	assert.Equal(t, risk.RiskLevelHigh, assessment.Level)
	assert.Equal(t, fixedNow, assessment.AssessedAt)
	assert.False(t, assessment.Reviewed())
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestScreenOrder_LowRiskIsNotFlagged(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	s := newTestService(repo, nil, pub)

	repo.On("LoadSnapshot", mock.Anything, "o-1").Return(lowRiskSnapshot(), nil)
	repo.On("CreateAssessment", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, SubjectRiskAssessed, mock.Anything).Return(nil)

	assessment, err := s.ScreenOrder(context.Background(), "o-1")
	require.NoError(t, err)

	assert.Equal(t, 0, assessment.Score)
	assert.Equal(t, risk.RiskLevelLow, assessment.Level)
	pub.AssertNotCalled(t, "Publish", mock.Anything, SubjectRiskFlagged, mock.Anything)
}

func TestScreenOrder_NotFound(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo, nil, nil)

	repo.On("LoadSnapshot", mock.Anything, "missing").Return(nil, common.ErrNotFound).Once()

	_, err := s.ScreenOrder(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, appErrorCode(t, err))
	repo.AssertNotCalled(t, "CreateAssessment", mock.Anything, mock.Anything)
}

func TestScreenOrder_BlankID(t *testing.T) {
	s := newTestService(new(MockRepository), nil, nil)

	_, err := s.ScreenOrder(context.Background(), "   ")
	assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))
}

func TestScreenOrder_RetriesTransientReadFailure(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo, nil, nil)

	repo.On("LoadSnapshot", mock.Anything, "o-1").Return(nil, errors.New("connection reset by peer")).Once()
	repo.On("LoadSnapshot", mock.Anything, "o-1").Return(lowRiskSnapshot(), nil).Once()
	repo.On("CreateAssessment", mock.Anything, mock.Anything).Return(nil)

	_, err := s.ScreenOrder(context.Background(), "o-1")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "LoadSnapshot", 2)
}

func TestScreenOrder_StoreFailure(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	s := newTestService(repo, nil, pub)

	repo.On("LoadSnapshot", mock.Anything, "o-1").Return(lowRiskSnapshot(), nil)
	repo.On("CreateAssessment", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := s.ScreenOrder(context.Background(), "o-1")
	assert.Equal(t, http.StatusInternalServerError, appErrorCode(t, err))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestScreenOrder_PublishAndCacheFailuresAreNotFatal(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	pub := new(MockPublisher)
	s := newTestService(repo, cache, pub)

	repo.On("LoadSnapshot", mock.Anything, "o-9").Return(highRiskSnapshot(), nil)
	repo.On("CreateAssessment", mock.Anything, mock.Anything).Return(nil)
	cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats down"))

	assessment, err := s.ScreenOrder(context.Background(), "o-9")
	require.NoError(t, err)
	assert.Equal(t, risk.RiskLevelHigh, assessment.Level)
}

func TestGetAssessment_CacheHit(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	s := newTestService(repo, cache, nil)

	cached := &Assessment{ID: "a-1", OrderID: "o-1", Level: risk.RiskLevelLow}
	cache.On("Get", mock.Anything, "o-1").Return(cached, nil)

	got, err := s.GetAssessment(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Same(t, cached, got)
	repo.AssertNotCalled(t, "GetLatestAssessment", mock.Anything, mock.Anything)
}

func TestGetAssessment_CacheMissFallsBackToRepository(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	s := newTestService(repo, cache, nil)

	stored := &Assessment{ID: "a-1", OrderID: "o-1", Level: risk.RiskLevelMedium}
	cache.On("Get", mock.Anything, "o-1").Return(nil, errors.New("redis down"))
	repo.On("GetLatestAssessment", mock.Anything, "o-1").Return(stored, nil)
	cache.On("Set", mock.Anything, stored).Return(nil)

	got, err := s.GetAssessment(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	cache.AssertExpectations(t)
}

func TestGetAssessment_NotScreened(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo, nil, nil)

	repo.On("GetLatestAssessment", mock.Anything, "o-1").Return(nil, common.ErrNotFound)

	_, err := s.GetAssessment(context.Background(), "o-1")
	assert.Equal(t, http.StatusNotFound, appErrorCode(t, err))
}

func TestListFlagged(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo, nil, nil)

	flagged := []*Assessment{{ID: "a-1", Level: risk.RiskLevelHigh}}
	repo.On("ListUnreviewed", mock.Anything, []risk.RiskLevel{risk.RiskLevelMedium, risk.RiskLevelHigh}, 20, 0).Return(flagged, 1, nil)
	repo.On("ListUnreviewed", mock.Anything, []risk.RiskLevel{risk.RiskLevelHigh}, 10, 5).Return(flagged, 1, nil)

	got, total, err := s.ListFlagged(context.Background(), "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, flagged, got)
	assert.Equal(t, int64(1), total)

	_, _, err = s.ListFlagged(context.Background(), risk.RiskLevelHigh, 10, 5)
	require.NoError(t, err)

	_, _, err = s.ListFlagged(context.Background(), "critical", 10, 0)
	assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))
	repo.AssertExpectations(t)
}

func TestReviewAssessment(t *testing.T) {
	repo := new(MockRepository)
	cache := new(MockCache)
	pub := new(MockPublisher)
	s := newTestService(repo, cache, pub)

	repo.On("GetAssessmentByID", mock.Anything, "a-1").Return(&Assessment{ID: "a-1", OrderID: "o-1", Level: risk.RiskLevelHigh}, nil)
	repo.On("UpdateReview", mock.Anything, "a-1", DecisionVerify, "admin-1", "called customer", fixedNow).Return(nil)
	cache.On("Invalidate", mock.Anything, "o-1").Return(nil)
	pub.On("Publish", mock.Anything, SubjectRiskReviewed, mock.Anything).Return(nil)

	got, err := s.ReviewAssessment(context.Background(), "a-1", "admin-1", DecisionVerify, "  called customer ")
	require.NoError(t, err)

	require.True(t, got.Reviewed())
	assert.Equal(t, DecisionVerify, *got.Decision)
	assert.Equal(t, "admin-1", *got.ReviewedBy)
	assert.Equal(t, "called customer", *got.ReviewNotes)
	assert.Equal(t, fixedNow, *got.ReviewedAt)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestReviewAssessment_Errors(t *testing.T) {
	decided := DecisionDispatch

	tests := []struct {
		name       string
		decision   ReviewDecision
		setup      func(repo *MockRepository)
		expectCode int
	}{
		{
			name:       "invalid decision",
			decision:   "approve",
			setup:      func(repo *MockRepository) {},
			expectCode: http.StatusBadRequest,
		},
		{
			name:     "unknown assessment",
			decision: DecisionReject,
			setup: func(repo *MockRepository) {
				repo.On("GetAssessmentByID", mock.Anything, "a-1").Return(nil, common.ErrNotFound)
			},
			expectCode: http.StatusNotFound,
		},
		{
			name:     "already reviewed",
			decision: DecisionReject,
			setup: func(repo *MockRepository) {
				repo.On("GetAssessmentByID", mock.Anything, "a-1").Return(&Assessment{ID: "a-1", Decision: &decided}, nil)
			},
			expectCode: http.StatusConflict,
		},
		{
			name:     "concurrent review wins",
			decision: DecisionReject,
			setup: func(repo *MockRepository) {
				repo.On("GetAssessmentByID", mock.Anything, "a-1").Return(&Assessment{ID: "a-1"}, nil)
				repo.On("UpdateReview", mock.Anything, "a-1", DecisionReject, "admin-1", "", fixedNow).Return(ErrAlreadyReviewed)
			},
			expectCode: http.StatusConflict,
		},
		{
			name:     "database failure",
			decision: DecisionReject,
			setup: func(repo *MockRepository) {
				repo.On("GetAssessmentByID", mock.Anything, "a-1").Return(&Assessment{ID: "a-1"}, nil)
				repo.On("UpdateReview", mock.Anything, "a-1", DecisionReject, "admin-1", "", fixedNow).Return(errors.New("boom"))
			},
			expectCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)
			s := newTestService(repo, nil, nil)

			_, err := s.ReviewAssessment(context.Background(), "a-1", "admin-1", tt.decision, "")
			assert.Equal(t, tt.expectCode, appErrorCode(t, err))
		})
	}
}

func TestGetStatistics(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo, nil, nil)

	from := fixedNow.Add(-24 * time.Hour)
	stats := &Statistics{TotalAssessments: 4, HighRisk: 1}
	repo.On("GetStatistics", mock.Anything, from, fixedNow).Return(stats, nil)

	got, err := s.GetStatistics(context.Background(), from, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	_, err = s.GetStatistics(context.Background(), fixedNow, from)
	assert.Equal(t, http.StatusBadRequest, appErrorCode(t, err))
}
