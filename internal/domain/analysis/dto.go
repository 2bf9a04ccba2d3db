// internal/domain/analysis/dto.go
package analysis

import "github.com/google/uuid"

type AnalyzeRequest struct {
	ContractID uuid.UUID `json:"contract_id" binding:"required"`
}

// Result is the full analysis view returned to clients: the analysis row
// joined with its clause rows. Trial users receive a truncated view (see
// View and the restriction transform).
type Result struct {
	Analysis       *Analysis       `json:"analysis"`
	RiskClauses    []RiskClause    `json:"risk_clauses"`
	MissingClauses []MissingClause `json:"missing_clauses"`
}

// View is the response payload for an analysis, possibly restricted for
// trial users. Hidden counts tell the client how much was withheld.
type View struct {
	Analysis       *Analysis       `json:"analysis"`
	RiskClauses    []RiskClause    `json:"risk_clauses"`
	MissingClauses []MissingClause `json:"missing_clauses"`
	Restricted     bool            `json:"restricted"`
	Hidden         *HiddenCounts   `json:"hidden,omitempty"`
}

type HiddenCounts struct {
	RiskClauses     int `json:"risk_clauses"`
	MissingClauses  int `json:"missing_clauses"`
	Recommendations int `json:"recommendations"`
}

type AnalyzeResponse struct {
	Message  string `json:"message"`
	Analysis *View  `json:"analysis"`
	Usage    Usage  `json:"usage"`
}

type Usage struct {
	RemainingTrials int `json:"remaining_trials"`
}
