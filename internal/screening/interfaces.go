package screening

import (
	"context"
	"time"

	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/eventbus"
)

// RepositoryInterface is the storage the service depends on
type RepositoryInterface interface {
	LoadSnapshot(ctx context.Context, orderID string) (*Snapshot, error)
	CreateAssessment(ctx context.Context, assessment *Assessment) error
	GetAssessmentByID(ctx context.Context, id string) (*Assessment, error)
	GetLatestAssessment(ctx context.Context, orderID string) (*Assessment, error)
	ListAssessmentsByOrder(ctx context.Context, orderID string, limit, offset int) ([]*Assessment, int64, error)
	ListUnreviewed(ctx context.Context, levels []risk.RiskLevel, limit, offset int) ([]*Assessment, int64, error)
	UpdateReview(ctx context.Context, id string, decision ReviewDecision, reviewerID, notes string, reviewedAt time.Time) error
	GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error)
}

// CacheInterface holds the latest assessment per order. Get returns nil, nil on a miss.
type CacheInterface interface {
	Get(ctx context.Context, orderID string) (*Assessment, error)
	Set(ctx context.Context, assessment *Assessment) error
	Invalidate(ctx context.Context, orderID string) error
}

// Publisher sends events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, subject string, event *eventbus.Event) error
}

var (
	_ RepositoryInterface = (*Repository)(nil)
	_ CacheInterface      = (*Cache)(nil)
	_ Publisher           = (*eventbus.Bus)(nil)
)
