package screening

import (
	"errors"
	"time"

	"github.com/richxcame/cod-risk/internal/risk"
)

// ErrAlreadyReviewed is returned by the repository when a decision was already recorded
var ErrAlreadyReviewed = errors.New("assessment already reviewed")

// Event subjects
const (
	SubjectOrderCreated = "orders.created"
	SubjectRiskAssessed = "risk.assessed"
	SubjectRiskFlagged  = "risk.flagged"
	SubjectRiskReviewed = "risk.reviewed"
	QueueGroupScreening = "risk-screening"
)

const (
	eventSource     = "risk-service"
	cacheKeyPrefix  = "risk:assessment:"
	defaultCurrency = "BDT"
	maxReviewNotes  = 1000
)

// ReviewDecision is the merchant's verdict on a screened order
type ReviewDecision string

const (
	DecisionDispatch ReviewDecision = "dispatch"
	DecisionVerify   ReviewDecision = "verify"
	DecisionReject   ReviewDecision = "reject"
)

// Valid reports whether d is a known decision
func (d ReviewDecision) Valid() bool {
	switch d {
	case DecisionDispatch, DecisionVerify, DecisionReject:
		return true
	}
	return false
}

// Assessment is a stored verdict of the scoring engine for one order
type Assessment struct {
	ID             string             `json:"id"`
	OrderID        string             `json:"order_id"`
	UserID         string             `json:"user_id"`
	Score          int                `json:"score"`
	Level          risk.RiskLevel     `json:"level"`
	Signals        []risk.FraudSignal `json:"signals"`
	Recommendation string             `json:"recommendation"`
	Decision       *ReviewDecision    `json:"decision,omitempty"`
	AssessedAt     time.Time          `json:"assessed_at"`
	ReviewedAt     *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy     *string            `json:"reviewed_by,omitempty"`
	ReviewNotes    *string            `json:"review_notes,omitempty"`
}

// Reviewed reports whether an operator has recorded a decision
func (a *Assessment) Reviewed() bool {
	return a.Decision != nil
}

// Snapshot is the engine input read in one consistent transaction
type Snapshot struct {
	Order      *risk.Order
	Profile    *risk.Profile
	UserOrders []risk.Order
}

// AnalyzeRequest carries caller-supplied data for ad-hoc scoring
type AnalyzeRequest struct {
	Order      *risk.Order   `json:"order" validate:"required"`
	Profile    *risk.Profile `json:"profile"`
	UserOrders []risk.Order  `json:"user_orders"`
}

// ReviewRequest records an operator decision
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,review_decision"`
	Notes    string         `json:"notes" validate:"max=1000"`
}

// FlaggedQuery is the query string of the flagged list
type FlaggedQuery struct {
	MinLevel string `form:"min_level" validate:"omitempty,risk_level"`
}

// StatisticsQuery is the query string of the statistics report. Dates are YYYY-MM-DD.
type StatisticsQuery struct {
	StartDate string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// Statistics summarizes assessments in a period
type Statistics struct {
	Period           string    `json:"period"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	TotalAssessments int64     `json:"total_assessments"`
	LowRisk          int64     `json:"low_risk"`
	MediumRisk       int64     `json:"medium_risk"`
	HighRisk         int64     `json:"high_risk"`
	AverageScore     float64   `json:"average_score"`
	Dispatched       int64     `json:"dispatched"`
	Verified         int64     `json:"verified"`
	Rejected         int64     `json:"rejected"`
	PendingReview    int64     `json:"pending_review"`
}

// OrderCreatedData is the payload of orders.created
type OrderCreatedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

// AssessedData is the payload of risk.assessed
type AssessedData struct {
	AssessmentID  string         `json:"assessment_id"`
	OrderID       string         `json:"order_id"`
	UserID        string         `json:"user_id"`
	Score         int            `json:"score"`
	Level         risk.RiskLevel `json:"level"`
	SignalIDs     []string       `json:"signal_ids"`
	AmountDisplay string         `json:"amount_display"`
	AssessedAt    time.Time      `json:"assessed_at"`
}

// FlaggedData is the payload of risk.flagged. Titles holds one headline per supported language.
type FlaggedData struct {
	AssessedData
	Titles map[string]string `json:"titles"`
}

// ReviewedData is the payload of risk.reviewed
type ReviewedData struct {
	AssessmentID string         `json:"assessment_id"`
	OrderID      string         `json:"order_id"`
	Decision     ReviewDecision `json:"decision"`
	ReviewedBy   string         `json:"reviewed_by"`
	ReviewedAt   time.Time      `json:"reviewed_at"`
}

// levelsAtOrAbove returns every level ranked at or above min
func levelsAtOrAbove(min risk.RiskLevel) []risk.RiskLevel {
	all := []risk.RiskLevel{risk.RiskLevelLow, risk.RiskLevelMedium, risk.RiskLevelHigh}
	out := make([]risk.RiskLevel, 0, len(all))
	for _, l := range all {
		if l.Rank() >= min.Rank() {
			out = append(out, l)
		}
	}
	return out
}
