package screening

import (
	"context"
	"time"

	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/eventbus"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of RepositoryInterface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LoadSnapshot(ctx context.Context, orderID string) (*Snapshot, error) {
	args := m.Called(ctx, orderID)
	snapshot, _ := args.Get(0).(*Snapshot)
	return snapshot, args.Error(1)
}

func (m *MockRepository) CreateAssessment(ctx context.Context, assessment *Assessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockRepository) GetAssessmentByID(ctx context.Context, id string) (*Assessment, error) {
	args := m.Called(ctx, id)
	assessment, _ := args.Get(0).(*Assessment)
	return assessment, args.Error(1)
}

func (m *MockRepository) GetLatestAssessment(ctx context.Context, orderID string) (*Assessment, error) {
	args := m.Called(ctx, orderID)
	assessment, _ := args.Get(0).(*Assessment)
	return assessment, args.Error(1)
}

func (m *MockRepository) ListAssessmentsByOrder(ctx context.Context, orderID string, limit, offset int) ([]*Assessment, int64, error) {
	args := m.Called(ctx, orderID, limit, offset)
	assessments, _ := args.Get(0).([]*Assessment)
	return assessments, int64(args.Int(1)), args.Error(2)
}

func (m *MockRepository) ListUnreviewed(ctx context.Context, levels []risk.RiskLevel, limit, offset int) ([]*Assessment, int64, error) {
	args := m.Called(ctx, levels, limit, offset)
	assessments, _ := args.Get(0).([]*Assessment)
	return assessments, int64(args.Int(1)), args.Error(2)
}

func (m *MockRepository) UpdateReview(ctx context.Context, id string, decision ReviewDecision, reviewerID, notes string, reviewedAt time.Time) error {
	args := m.Called(ctx, id, decision, reviewerID, notes, reviewedAt)
	return args.Error(0)
}

func (m *MockRepository) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	args := m.Called(ctx, from, to)
	stats, _ := args.Get(0).(*Statistics)
	return stats, args.Error(1)
}

// MockCache is a mock implementation of CacheInterface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, orderID string) (*Assessment, error) {
	args := m.Called(ctx, orderID)
	assessment, _ := args.Get(0).(*Assessment)
	return assessment, args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, assessment *Assessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, event *eventbus.Event) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

// MockService is a mock implementation of ServiceInterface
type MockService struct {
	mock.Mock
}

func (m *MockService) Analyze(ctx context.Context, req *AnalyzeRequest) (*risk.FraudAnalysis, error) {
	args := m.Called(ctx, req)
	analysis, _ := args.Get(0).(*risk.FraudAnalysis)
	return analysis, args.Error(1)
}

func (m *MockService) ScreenOrder(ctx context.Context, orderID string) (*Assessment, error) {
	args := m.Called(ctx, orderID)
	assessment, _ := args.Get(0).(*Assessment)
	return assessment, args.Error(1)
}

func (m *MockService) GetAssessment(ctx context.Context, orderID string) (*Assessment, error) {
	args := m.Called(ctx, orderID)
	assessment, _ := args.Get(0).(*Assessment)
	return assessment, args.Error(1)
}

func (m *MockService) ListOrderAssessments(ctx context.Context, orderID string, limit, offset int) ([]*Assessment, int64, error) {
	args := m.Called(ctx, orderID, limit, offset)
	assessments, _ := args.Get(0).([]*Assessment)
	return assessments, int64(args.Int(1)), args.Error(2)
}

func (m *MockService) ListFlagged(ctx context.Context, minLevel risk.RiskLevel, limit, offset int) ([]*Assessment, int64, error) {
	args := m.Called(ctx, minLevel, limit, offset)
	assessments, _ := args.Get(0).([]*Assessment)
	return assessments, int64(args.Int(1)), args.Error(2)
}

func (m *MockService) ReviewAssessment(ctx context.Context, assessmentID, reviewerID string, decision ReviewDecision, notes string) (*Assessment, error) {
	args := m.Called(ctx, assessmentID, reviewerID, decision, notes)
	assessment, _ := args.Get(0).(*Assessment)
	return assessment, args.Error(1)
}

func (m *MockService) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	args := m.Called(ctx, from, to)
	stats, _ := args.Get(0).(*Statistics)
	return stats, args.Error(1)
}
