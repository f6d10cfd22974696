package risk

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidOrder is returned when the order under analysis is structurally unusable.
var ErrInvalidOrder = errors.New("invalid order")

// Order statuses the engine cares about. Other statuses pass through untouched.
const (
	OrderStatusCancelled = "cancelled"
	OrderStatusRejected  = "rejected"
)

// RiskLevel is the coarse tier an operator acts on
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Valid reports whether the level is one of the known tiers
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// Rank orders levels from low (0) to high (2). Unknown levels rank -1.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelLow:
		return 0
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	}
	return -1
}

// SignalCategory groups fraud signals by the part of the order they inspect
type SignalCategory string

const (
	CategoryAddress SignalCategory = "address"
	CategoryPhone   SignalCategory = "phone"
	CategoryName    SignalCategory = "name"
	CategoryRepeat  SignalCategory = "repeat"
	CategoryCancel  SignalCategory = "cancel"
	CategoryAmount  SignalCategory = "amount"
)

// Valid reports whether the category is part of the closed set
func (c SignalCategory) Valid() bool {
	switch c {
	case CategoryAddress, CategoryPhone, CategoryName, CategoryRepeat, CategoryCancel, CategoryAmount:
		return true
	}
	return false
}

// Signal identifiers, stable across releases so dashboards can key on them.
const (
	SignalGibberishAddress    = "gibberish_address"
	SignalInvalidPhone        = "invalid_phone"
	SignalNameMismatch        = "name_mismatch"
	SignalRapidOrders         = "rapid_orders"
	SignalHighCancellation    = "high_cancellation"
	SignalShortAddressParts   = "short_address_parts"
	SignalHighValueFirstOrder = "high_value_first_order"
)

// Order is a read-only view of an order placed on the storefront
type Order struct {
	ID              string          `json:"id" binding:"required"`
	UserID          string          `json:"user_id"`
	ShippingAddress *string         `json:"shipping_address"`
	TotalAmount     float64         `json:"total_amount"`
	CreatedAt       time.Time       `json:"created_at" binding:"required"`
	Status          string          `json:"status"`
	Items           json.RawMessage `json:"items,omitempty"`
}

// Profile is the placing user's profile. A nil *Profile means a guest order.
type Profile struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// ParsedAddress is the best-effort split of a free-text shipping address
type ParsedAddress struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	AddressParts []string `json:"address_parts"`
}

// FraudSignal is one triggered heuristic and the points it contributes
type FraudSignal struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Points      int            `json:"points"`
	Category    SignalCategory `json:"category"`
}

// FraudAnalysis is the verdict for a single order
type FraudAnalysis struct {
	Score          int           `json:"score"`
	Level          RiskLevel     `json:"level"`
	Signals        []FraudSignal `json:"signals"`
	Recommendation string        `json:"recommendation"`
}

// GibberishResult is the outcome of IsGibberishText
type GibberishResult struct {
	IsGibberish bool   `json:"is_gibberish"`
	Reason      string `json:"reason,omitempty"`
}

// PhoneResult is the outcome of IsValidBDPhone
type PhoneResult struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
}

// NameMismatchResult is the outcome of CheckNameMismatch
type NameMismatchResult struct {
	IsMismatch bool   `json:"is_mismatch"`
	Reason     string `json:"reason,omitempty"`
}

// RapidOrderResult is the outcome of CheckRapidOrders
type RapidOrderResult struct {
	IsRapid bool   `json:"is_rapid"`
	Count   int    `json:"count"`
	Reason  string `json:"reason,omitempty"`
}

// CancellationResult is the outcome of CheckCancellationRate
type CancellationResult struct {
	IsHigh bool    `json:"is_high"`
	Rate   float64 `json:"rate"`
	Reason string  `json:"reason,omitempty"`
}

// ShortPartsResult is the outcome of CheckShortAddressParts
type ShortPartsResult struct {
	IsSuspicious bool     `json:"is_suspicious"`
	Parts        []string `json:"parts,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}
