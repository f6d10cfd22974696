package screening

import (
	"testing"

	"github.com/richxcame/cod-risk/internal/risk"
	"github.com/stretchr/testify/assert"
)

func TestReviewDecisionValid(t *testing.T) {
	for _, d := range []ReviewDecision{DecisionDispatch, DecisionVerify, DecisionReject} {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, ReviewDecision("approve").Valid())
	assert.False(t, ReviewDecision("").Valid())
}

func TestLevelsAtOrAbove(t *testing.T) {
	assert.Equal(t, []risk.RiskLevel{risk.RiskLevelLow, risk.RiskLevelMedium, risk.RiskLevelHigh}, levelsAtOrAbove(risk.RiskLevelLow))
	assert.Equal(t, []risk.RiskLevel{risk.RiskLevelMedium, risk.RiskLevelHigh}, levelsAtOrAbove(risk.RiskLevelMedium))
	assert.Equal(t, []risk.RiskLevel{risk.RiskLevelHigh}, levelsAtOrAbove(risk.RiskLevelHigh))
}

func TestLocalizeAssessmentDoesNotMutateSource(t *testing.T) {
	a := sampleAssessment()
	original := a.Signals[0].Label

	resp := localizeAssessment(a, "bn")
	assert.Equal(t, original, a.Signals[0].Label)
	assert.NotEqual(t, original, resp.Signals[0].Label)
	assert.Equal(t, "bn", resp.Language)
}
