package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/richxcame/cod-risk/pkg/common"
)

// Repository handles order snapshots and risk assessment storage
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new screening repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const assessmentColumns = `
	id::text, order_id::text, user_id::text, score, level, signals, recommendation,
	decision, assessed_at, reviewed_at, reviewed_by, review_notes`

// LoadSnapshot reads the order, its owner's profile and the owner's full order
// history in a single repeatable-read, read-only transaction so all three agree.
func (r *Repository) LoadSnapshot(ctx context.Context, orderID string) (*Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := scanOrder(tx.QueryRow(ctx, `
		SELECT id::text, user_id::text, shipping_address, total_amount::float8, created_at, status, items
		FROM orders
		WHERE id = $1
	`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	var profile *risk.Profile
	var p risk.Profile
	err = tx.QueryRow(ctx, `SELECT full_name, phone FROM profiles WHERE user_id = $1`, order.UserID).
		Scan(&p.FullName, &p.Phone)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// guest checkout
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	default:
		profile = &p
	}

	rows, err := tx.Query(ctx, `
		SELECT id::text, user_id::text, shipping_address, total_amount::float8, created_at, status, items
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	defer rows.Close()

	history := make([]risk.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		history = append(history, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit snapshot transaction: %w", err)
	}

	return &Snapshot{Order: order, Profile: profile, UserOrders: history}, nil
}

func scanOrder(row pgx.Row) (*risk.Order, error) {
	var o risk.Order
	var items []byte
	if err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddress, &o.TotalAmount, &o.CreatedAt, &o.Status, &items); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		o.Items = json.RawMessage(items)
	}
	return &o, nil
}

// CreateAssessment stores a new assessment
func (r *Repository) CreateAssessment(ctx context.Context, a *Assessment) error {
	signalsJSON, err := json.Marshal(a.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO risk_assessments (
			id, order_id, user_id, score, level, signals, recommendation, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		a.ID,
		a.OrderID,
		a.UserID,
		a.Score,
		string(a.Level),
		signalsJSON,
		a.Recommendation,
		a.AssessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// GetAssessmentByID retrieves an assessment by its ID
func (r *Repository) GetAssessmentByID(ctx context.Context, id string) (*Assessment, error) {
	a, err := scanAssessment(r.db.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM risk_assessments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return a, err
}

// GetLatestAssessment retrieves the most recent assessment of an order
func (r *Repository) GetLatestAssessment(ctx context.Context, orderID string) (*Assessment, error) {
	a, err := scanAssessment(r.db.QueryRow(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
		WHERE order_id = $1
		ORDER BY assessed_at DESC
		LIMIT 1
	`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return a, err
}

// ListAssessmentsByOrder retrieves the assessment history of an order with total count
func (r *Repository) ListAssessmentsByOrder(ctx context.Context, orderID string, limit, offset int) ([]*Assessment, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM risk_assessments WHERE order_id = $1`, orderID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
		WHERE order_id = $1
		ORDER BY assessed_at DESC
		LIMIT $2 OFFSET $3
	`, orderID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}

	assessments, err := collectAssessments(rows)
	if err != nil {
		return nil, 0, err
	}
	return assessments, total, nil
}

// ListUnreviewed retrieves assessments without a decision whose level is in levels,
// riskiest first, with total count
func (r *Repository) ListUnreviewed(ctx context.Context, levels []risk.RiskLevel, limit, offset int) ([]*Assessment, int64, error) {
	levelNames := make([]string, 0, len(levels))
	for _, l := range levels {
		levelNames = append(levelNames, string(l))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM risk_assessments WHERE decision IS NULL AND level = ANY($1)
	`, levelNames).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count unreviewed assessments: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
		WHERE decision IS NULL AND level = ANY($1)
		ORDER BY score DESC, assessed_at DESC
		LIMIT $2 OFFSET $3
	`, levelNames, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list unreviewed assessments: %w", err)
	}

	assessments, err := collectAssessments(rows)
	if err != nil {
		return nil, 0, err
	}
	return assessments, total, nil
}

// UpdateReview records an operator decision once. A second decision returns ErrAlreadyReviewed.
func (r *Repository) UpdateReview(ctx context.Context, id string, decision ReviewDecision, reviewerID, notes string, reviewedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE risk_assessments
		SET decision = $2,
		    reviewed_by = $3,
		    review_notes = NULLIF($4, ''),
		    reviewed_at = $5
		WHERE id = $1 AND decision IS NULL
	`, id, string(decision), reviewerID, notes, reviewedAt)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM risk_assessments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check assessment: %w", err)
	}
	if !exists {
		return common.ErrNotFound
	}
	return ErrAlreadyReviewed
}

// GetStatistics counts assessments by level and decision for a period
func (r *Repository) GetStatistics(ctx context.Context, from, to time.Time) (*Statistics, error) {
	stats := &Statistics{
		Period: fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")),
		From:   from,
		To:     to,
	}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE level = 'low'),
			COUNT(*) FILTER (WHERE level = 'medium'),
			COUNT(*) FILTER (WHERE level = 'high'),
			COALESCE(AVG(score), 0)::float8,
			COUNT(*) FILTER (WHERE decision = 'dispatch'),
			COUNT(*) FILTER (WHERE decision = 'verify'),
			COUNT(*) FILTER (WHERE decision = 'reject'),
			COUNT(*) FILTER (WHERE decision IS NULL AND level <> 'low')
		FROM risk_assessments
		WHERE assessed_at >= $1 AND assessed_at < $2
	`, from, to).Scan(
		&stats.TotalAssessments,
		&stats.LowRisk,
		&stats.MediumRisk,
		&stats.HighRisk,
		&stats.AverageScore,
		&stats.Dispatched,
		&stats.Verified,
		&stats.Rejected,
		&stats.PendingReview,
	)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}

	return stats, nil
}

func collectAssessments(rows pgx.Rows) ([]*Assessment, error) {
	defer rows.Close()

	assessments := make([]*Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return assessments, nil
}

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var level string
	var signalsJSON []byte
	var decision *string

	err := row.Scan(
		&a.ID,
		&a.OrderID,
		&a.UserID,
		&a.Score,
		&level,
		&signalsJSON,
		&a.Recommendation,
		&decision,
		&a.AssessedAt,
		&a.ReviewedAt,
		&a.ReviewedBy,
		&a.ReviewNotes,
	)
	if err != nil {
		return nil, err
	}

	a.Level = risk.RiskLevel(level)
	a.Signals = make([]risk.FraudSignal, 0)
	if len(signalsJSON) > 0 {
		if err := json.Unmarshal(signalsJSON, &a.Signals); err != nil {
			return nil, fmt.Errorf("decode signals of assessment %s: %w", a.ID, err)
		}
	}
	if decision != nil {
		d := ReviewDecision(*decision)
		a.Decision = &d
	}
	return &a, nil
}
