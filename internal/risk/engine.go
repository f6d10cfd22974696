// Package risk scores cash-on-delivery orders for fraud before they reach the courier.
//
// Every detector is a pure function of its arguments. AnalyzeFraudRisk combines them
// with fixed point weights, so identical inputs always produce identical verdicts and
// the functions are safe to call from any number of goroutines.
package risk

import (
	"fmt"
	"strings"
)

// Points contributed by each signal
const (
	PointsGibberishAddress    = 30
	PointsInvalidPhone        = 25
	PointsNameMismatch        = 15
	PointsRapidOrders         = 20
	PointsHighCancellation    = 15
	PointsShortAddressParts   = 20
	PointsHighValueFirstOrder = 10
)

// Tier thresholds, inclusive
const (
	HighRiskThreshold   = 40
	MediumRiskThreshold = 20
)

var recommendations = map[RiskLevel]string{
	RiskLevelHigh:   "This order shows multiple fraud indicators. Consider rejecting or verifying with the customer before processing.",
	RiskLevelMedium: "This order has some suspicious signals. Review the details carefully before accepting.",
	RiskLevelLow:    "This order appears normal. No significant fraud indicators detected.",
}

// AnalyzeFraudRisk scores a single order against the user's profile and order history.
// userOrders may include the order itself; it is excluded by ID where it matters.
// The only error is ErrInvalidOrder for an order without an ID or creation time.
func AnalyzeFraudRisk(order *Order, profile *Profile, userOrders []Order) (*FraudAnalysis, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	signals := make([]FraudSignal, 0)
	parsed := ParseShippingAddress(order.ShippingAddress)

	// Gibberish name or address (30 points)
	text := strings.Join(append(append([]string{}, parsed.AddressParts...), parsed.Name), " ")
	if res := IsGibberishText(text); res.IsGibberish {
		signals = append(signals, FraudSignal{
			ID:          SignalGibberishAddress,
			Label:       "Gibberish Address",
			Description: res.Reason,
			Points:      PointsGibberishAddress,
			Category:    CategoryAddress,
		})
	}

	// Present but malformed phone (25 points)
	if parsed.Phone != "" {
		if res := IsValidBDPhone(parsed.Phone); !res.IsValid {
			signals = append(signals, FraudSignal{
				ID:          SignalInvalidPhone,
				Label:       "Invalid Phone Number",
				Description: res.Reason,
				Points:      PointsInvalidPhone,
				Category:    CategoryPhone,
			})
		}
	}

	// Shipping name vs profile name (15 points)
	if profile != nil {
		if res := CheckNameMismatch(parsed.Name, deref(profile.FullName)); res.IsMismatch {
			signals = append(signals, FraudSignal{
				ID:          SignalNameMismatch,
				Label:       "Name Mismatch",
				Description: res.Reason,
				Points:      PointsNameMismatch,
				Category:    CategoryName,
			})
		}
	}

	// Rapid repeat orders (20 points)
	if res := CheckRapidOrders(userOrders, order); res.IsRapid {
		signals = append(signals, FraudSignal{
			ID:          SignalRapidOrders,
			Label:       "Rapid Repeat Orders",
			Description: res.Reason,
			Points:      PointsRapidOrders,
			Category:    CategoryRepeat,
		})
	}

	// Cancellation history (15 points)
	if res := CheckCancellationRate(userOrders); res.IsHigh {
		signals = append(signals, FraudSignal{
			ID:          SignalHighCancellation,
			Label:       "High Cancellation Rate",
			Description: res.Reason,
			Points:      PointsHighCancellation,
			Category:    CategoryCancel,
		})
	}

	// Fragmented address (20 points)
	if res := CheckShortAddressParts(parsed.AddressParts); res.IsSuspicious {
		signals = append(signals, FraudSignal{
			ID:          SignalShortAddressParts,
			Label:       "Suspicious Address Format",
			Description: res.Reason,
			Points:      PointsShortAddressParts,
			Category:    CategoryAddress,
		})
	}

	// High-value first order (10 points)
	if len(userOrders) <= maxOrdersForFirstOrder && order.TotalAmount > highValueOrderAmount {
		signals = append(signals, FraudSignal{
			ID:          SignalHighValueFirstOrder,
			Label:       "High-Value First Order",
			Description: fmt.Sprintf("First order with a high amount of %.2f", order.TotalAmount),
			Points:      PointsHighValueFirstOrder,
			Category:    CategoryAmount,
		})
	}

	score := 0
	for _, s := range signals {
		score += s.Points
	}
	level := RiskLevelForScore(score)

	return &FraudAnalysis{
		Score:          score,
		Level:          level,
		Signals:        signals,
		Recommendation: RecommendationFor(level),
	}, nil
}

// RiskLevelForScore maps a score onto its tier. Scores are never clamped.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskLevelHigh
	case score >= MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// RecommendationFor returns the operator guidance for a tier
func RecommendationFor(level RiskLevel) string {
	if rec, ok := recommendations[level]; ok {
		return rec
	}
	return recommendations[RiskLevelLow]
}

func validateOrder(order *Order) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", ErrInvalidOrder)
	}
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	}
	if order.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrInvalidOrder)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
