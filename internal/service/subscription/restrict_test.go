package subscription

import (
	"testing"

	"helloaca-service/internal/domain/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildResult(risks, missing, recs int) *analysis.Result {
	a := &analysis.Analysis{Summary: "test summary"}
	for i := 0; i < recs; i++ {
		a.Recommendations = append(a.Recommendations, "rec")
	}
	r := &analysis.Result{Analysis: a}
	for i := 0; i < risks; i++ {
		r.RiskClauses = append(r.RiskClauses, analysis.RiskClause{ClauseText: "clause"})
	}
	for i := 0; i < missing; i++ {
		r.MissingClauses = append(r.MissingClauses, analysis.MissingClause{ClauseType: "indemnity"})
	}
	return r
}

func TestApplyTrialRestrictionsCaps(t *testing.T) {
	result := buildResult(7, 5, 4)

	view := ApplyTrialRestrictions(result, true)

	assert.True(t, view.Restricted)
	assert.Len(t, view.RiskClauses, 3)
	assert.Len(t, view.MissingClauses, 3)
	assert.Len(t, view.Analysis.Recommendations, 2)
	require.NotNil(t, view.Hidden)
	assert.Equal(t, 4, view.Hidden.RiskClauses)
	assert.Equal(t, 2, view.Hidden.MissingClauses)
	assert.Equal(t, 2, view.Hidden.Recommendations)
}

func TestApplyTrialRestrictionsDoesNotMutateInput(t *testing.T) {
	result := buildResult(7, 5, 4)

	_ = ApplyTrialRestrictions(result, true)

	assert.Len(t, result.RiskClauses, 7)
	assert.Len(t, result.MissingClauses, 5)
	assert.Len(t, result.Analysis.Recommendations, 4)
}

func TestApplyTrialRestrictionsIdempotent(t *testing.T) {
	result := buildResult(7, 5, 4)

	once := ApplyTrialRestrictions(result, true)
	twice := ApplyTrialRestrictions(&analysis.Result{
		Analysis:       once.Analysis,
		RiskClauses:    once.RiskClauses,
		MissingClauses: once.MissingClauses,
	}, true)

	assert.Equal(t, once.RiskClauses, twice.RiskClauses)
	assert.Equal(t, once.MissingClauses, twice.MissingClauses)
	assert.Equal(t, once.Analysis.Recommendations, twice.Analysis.Recommendations)
	assert.Equal(t, 0, twice.Hidden.RiskClauses)
}

func TestApplyTrialRestrictionsUnderCaps(t *testing.T) {
	result := buildResult(2, 1, 2)

	view := ApplyTrialRestrictions(result, true)

	assert.Len(t, view.RiskClauses, 2)
	assert.Len(t, view.MissingClauses, 1)
	assert.Len(t, view.Analysis.Recommendations, 2)
	assert.Equal(t, &analysis.HiddenCounts{}, view.Hidden)
}

func TestApplyTrialRestrictionsIdentityForPaid(t *testing.T) {
	result := buildResult(7, 5, 4)

	view := ApplyTrialRestrictions(result, false)

	assert.False(t, view.Restricted)
	assert.Nil(t, view.Hidden)
	assert.Len(t, view.RiskClauses, 7)
	assert.Len(t, view.MissingClauses, 5)
	assert.Len(t, view.Analysis.Recommendations, 4)
}
