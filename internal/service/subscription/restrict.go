// internal/service/subscription/restrict.go
package subscription

import "helloaca-service/internal/domain/analysis"

const (
	trialMaxRiskClauses     = 3
	trialMaxMissingClauses  = 3
	trialMaxRecommendations = 2
)

// ApplyTrialRestrictions truncates an analysis result for trial users:
// at most 3 risk clauses, 3 missing clauses and 2 recommendations, with
// counts of what was withheld. The input is never mutated and applying
// the transform twice yields the same view. Non-trial callers pass
// restricted=false and get the full result back.
func ApplyTrialRestrictions(result *analysis.Result, restricted bool) *analysis.View {
	view := &analysis.View{
		Analysis:       result.Analysis,
		RiskClauses:    result.RiskClauses,
		MissingClauses: result.MissingClauses,
		Restricted:     restricted,
	}
	if !restricted {
		return view
	}

	hidden := analysis.HiddenCounts{}

	if len(result.RiskClauses) > trialMaxRiskClauses {
		hidden.RiskClauses = len(result.RiskClauses) - trialMaxRiskClauses
		view.RiskClauses = append([]analysis.RiskClause(nil), result.RiskClauses[:trialMaxRiskClauses]...)
	}
	if len(result.MissingClauses) > trialMaxMissingClauses {
		hidden.MissingClauses = len(result.MissingClauses) - trialMaxMissingClauses
		view.MissingClauses = append([]analysis.MissingClause(nil), result.MissingClauses[:trialMaxMissingClauses]...)
	}
	if result.Analysis != nil && len(result.Analysis.Recommendations) > trialMaxRecommendations {
		hidden.Recommendations = len(result.Analysis.Recommendations) - trialMaxRecommendations

		truncated := *result.Analysis
		truncated.Recommendations = append([]string(nil), result.Analysis.Recommendations[:trialMaxRecommendations]...)
		view.Analysis = &truncated
	}

	view.Hidden = &hidden
	return view
}
