// internal/ai/parse.go
package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisReply is the typed shape of the model's JSON answer.
type AnalysisReply struct {
	OverallRiskScore int                  `json:"overall_risk_score"`
	Summary          string               `json:"summary"`
	KeyFindings      []string             `json:"key_findings"`
	RiskClauses      []RiskClauseReply    `json:"risk_clauses"`
	MissingClauses   []MissingClauseReply `json:"missing_clauses"`
	Recommendations  []string             `json:"recommendations"`
}

type RiskClauseReply struct {
	ClauseText     string `json:"clause_text"`
	RiskLevel      string `json:"risk_level"`
	RiskCategory   string `json:"risk_category"`
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
	Location       string `json:"location"`
}

type MissingClauseReply struct {
	ClauseType    string `json:"clause_type"`
	Importance    string `json:"importance"`
	Description   string `json:"description"`
	SuggestedText string `json:"suggested_text"`
	LegalImpact   string `json:"legal_impact"`
}

var validLevels = map[string]bool{"low": true, "medium": true, "high": true, "critical": true}

// ParseAnalysisReply parses the model's textual reply into a typed
// result, failing fast with ErrMalformedReply instead of trusting the
// decoded structure. Models sometimes wrap JSON in a markdown fence;
// that is stripped before decoding.
func ParseAnalysisReply(raw string) (*AnalysisReply, error) {
	cleaned := stripFence(raw)

	var reply AnalysisReply
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	if reply.OverallRiskScore < 0 || reply.OverallRiskScore > 100 {
		return nil, fmt.Errorf("%w: risk score %d out of range", ErrMalformedReply, reply.OverallRiskScore)
	}
	if reply.Summary == "" {
		return nil, fmt.Errorf("%w: empty summary", ErrMalformedReply)
	}
	for _, rc := range reply.RiskClauses {
		if !validLevels[rc.RiskLevel] {
			return nil, fmt.Errorf("%w: unknown risk level %q", ErrMalformedReply, rc.RiskLevel)
		}
	}
	for _, mc := range reply.MissingClauses {
		if !validLevels[mc.Importance] {
			return nil, fmt.Errorf("%w: unknown importance %q", ErrMalformedReply, mc.Importance)
		}
	}

	return &reply, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
