// internal/service/analysis/service.go
package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"helloaca-service/internal/ai"
	"helloaca-service/internal/domain/analysis"
	"helloaca-service/internal/domain/contract"
	"helloaca-service/internal/domain/subscription"
	"helloaca-service/internal/pkg/cache"
	xerrors "helloaca-service/internal/pkg/errors"
	subsvc "helloaca-service/internal/service/subscription"
	"helloaca-service/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContractStore is the slice of the contract repository the pipeline
// needs: reads plus the conditional status claim.
type ContractStore interface {
	FindByID(ctx context.Context, userID, id uuid.UUID) (*contract.Contract, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to contract.Status) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status contract.Status) error
}

// Store is the analysis persistence surface.
type Store interface {
	CreateWithClauses(ctx context.Context, a *analysis.Analysis, risks []analysis.RiskClause, missing []analysis.MissingClause) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*analysis.Analysis, error)
	FindByContract(ctx context.Context, userID, contractID uuid.UUID) (*analysis.Analysis, error)
	ListRiskClauses(ctx context.Context, analysisID uuid.UUID) ([]analysis.RiskClause, error)
	ListMissingClauses(ctx context.Context, analysisID uuid.UUID) ([]analysis.MissingClause, error)
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// Gate is the usage-gate surface the analyze path needs.
type Gate interface {
	Evaluate(ctx context.Context, userID uuid.UUID, action subscription.Action) (*subscription.Decision, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*subscription.SubscriptionResponse, error)
}

// Notifier pushes analysis lifecycle events to connected clients.
// Satisfied by the websocket hub.
type Notifier interface {
	NotifyAnalysis(userID, contractID uuid.UUID, eventType, status string)
}

type Service struct {
	contracts ContractStore
	analyses  Store
	gate      Gate
	model     ai.Analyzer
	notifier  Notifier
	cache     *cache.Cache
	logger    *zap.Logger
}

func NewService(contracts ContractStore, analyses Store, gate Gate, model ai.Analyzer, notifier Notifier, c *cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		contracts: contracts,
		analyses:  analyses,
		gate:      gate,
		model:     model,
		notifier:  notifier,
		cache:     c,
		logger:    logger,
	}
}

// Analyze runs the full pipeline for one contract: claim, model call,
// persist, complete. The claim is a conditional status transition; the
// loser of a concurrent race gets a conflict instead of a second model
// call. Once the model call starts the result is written even if the
// client disconnects, so the work is done on a detached context.
func (s *Service) Analyze(ctx context.Context, userID, contractID uuid.UUID) (*analysis.Result, *subscription.Decision, error) {
	c, err := s.contracts.FindByID(ctx, userID, contractID)
	if err != nil {
		return nil, nil, err
	}

	switch c.Status {
	case contract.StatusAnalyzing:
		return nil, nil, analysisInProgress()
	case contract.StatusCompleted:
		return nil, nil, xerrors.NewAPIError(409, "ANALYSIS_EXISTS", "contract has already been analyzed").
			WithCause(xerrors.ErrConflict)
	}

	// Claim the contract before consulting the gate, so the loser of a
	// concurrent race never spends a trial unit. A failed contract may
	// be retried, so the claim starts from whatever status we just
	// observed.
	claimed, err := s.contracts.TransitionStatus(ctx, contractID, c.Status, contract.StatusAnalyzing)
	if err != nil {
		return nil, nil, err
	}
	if !claimed {
		return nil, nil, analysisInProgress()
	}

	decision, err := s.gate.Evaluate(ctx, userID, subscription.ActionAnalysis)
	if err != nil {
		s.release(ctx, contractID, c.Status)
		return nil, nil, err
	}
	if !decision.Allowed {
		s.release(ctx, contractID, c.Status)
		return nil, nil, subsvc.DecisionError(decision)
	}

	s.notify(userID, contractID, ws.EventAnalysisStarted, string(contract.StatusAnalyzing))

	// The pipeline outlives the request: a disconnecting client must
	// not abandon a claimed contract mid-run.
	runCtx := context.WithoutCancel(ctx)

	result, err := s.run(runCtx, userID, c)
	if err != nil {
		s.fail(runCtx, userID, contractID, err)
		return nil, nil, err
	}

	s.notify(userID, contractID, ws.EventAnalysisCompleted, string(contract.StatusCompleted))
	if s.cache != nil {
		s.cache.Set(runCtx, cache.AnalysisKey(contractID.String()), result, cache.AnalysisTTL)
	}
	return result, decision, nil
}

func (s *Service) run(ctx context.Context, userID uuid.UUID, c *contract.Contract) (*analysis.Result, error) {
	started := time.Now()

	reply, err := s.model.AnalyzeContract(ctx, contractText(c), string(c.ContractType))
	if err != nil {
		if errors.Is(err, ai.ErrMalformedReply) {
			return nil, xerrors.NewAPIError(500, "ANALYSIS_FAILED", "analysis service returned an unusable result").
				WithCause(err)
		}
		return nil, xerrors.NewAPIError(500, "ANALYSIS_FAILED", "analysis service unavailable").
			WithCause(err)
	}

	a := &analysis.Analysis{
		ContractID:       c.ID,
		UserID:           userID,
		Status:           analysis.StatusCompleted,
		OverallRiskScore: reply.OverallRiskScore,
		Summary:          reply.Summary,
		KeyFindings:      reply.KeyFindings,
		Recommendations:  reply.Recommendations,
		ModelUsed:        sql.NullString{String: s.model.Model(), Valid: true},
		DurationMS:       time.Since(started).Milliseconds(),
	}

	risks := make([]analysis.RiskClause, 0, len(reply.RiskClauses))
	for _, rc := range reply.RiskClauses {
		risks = append(risks, analysis.RiskClause{
			ClauseText:     rc.ClauseText,
			RiskLevel:      analysis.RiskLevel(rc.RiskLevel),
			RiskCategory:   rc.RiskCategory,
			Explanation:    rc.Explanation,
			Recommendation: rc.Recommendation,
			Location:       rc.Location,
		})
	}
	missing := make([]analysis.MissingClause, 0, len(reply.MissingClauses))
	for _, mc := range reply.MissingClauses {
		missing = append(missing, analysis.MissingClause{
			ClauseType:    mc.ClauseType,
			Importance:    analysis.RiskLevel(mc.Importance),
			Description:   mc.Description,
			SuggestedText: mc.SuggestedText,
			LegalImpact:   mc.LegalImpact,
		})
	}

	if err := s.analyses.CreateWithClauses(ctx, a, risks, missing); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, analysisInProgress()
		}
		return nil, err
	}

	if err := s.contracts.UpdateStatus(ctx, c.ID, contract.StatusCompleted); err != nil {
		s.logger.Error("analysis stored but contract status update failed",
			zap.String("contract_id", c.ID.String()), zap.Error(err))
	}

	return &analysis.Result{Analysis: a, RiskClauses: risks, MissingClauses: missing}, nil
}

// fail marks the contract failed. No analysis row exists for a failed
// run, so a retry starts clean.
// release returns a claimed contract to its prior status when the run
// never started.
func (s *Service) release(ctx context.Context, contractID uuid.UUID, to contract.Status) {
	if _, err := s.contracts.TransitionStatus(context.WithoutCancel(ctx), contractID, contract.StatusAnalyzing, to); err != nil {
		s.logger.Error("failed to release claimed contract",
			zap.String("contract_id", contractID.String()), zap.Error(err))
	}
}

func (s *Service) fail(ctx context.Context, userID, contractID uuid.UUID, cause error) {
	s.logger.Error("contract analysis failed",
		zap.String("contract_id", contractID.String()),
		zap.Error(cause))

	if err := s.contracts.UpdateStatus(ctx, contractID, contract.StatusFailed); err != nil {
		s.logger.Error("failed to mark contract failed",
			zap.String("contract_id", contractID.String()), zap.Error(err))
	}
	s.notify(userID, contractID, ws.EventAnalysisFailed, string(contract.StatusFailed))
}

// GetView returns an analysis with its clauses, restricted for trial
// users.
func (s *Service) GetView(ctx context.Context, userID, analysisID uuid.UUID) (*analysis.View, error) {
	a, err := s.analyses.FindByID(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, userID, a)
}

// GetViewByContract returns the analysis attached to a contract.
func (s *Service) GetViewByContract(ctx context.Context, userID, contractID uuid.UUID) (*analysis.View, error) {
	a, err := s.analyses.FindByContract(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, userID, a)
}

func (s *Service) buildView(ctx context.Context, userID uuid.UUID, a *analysis.Analysis) (*analysis.View, error) {
	risks, err := s.analyses.ListRiskClauses(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	missing, err := s.analyses.ListMissingClauses(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	result := &analysis.Result{Analysis: a, RiskClauses: risks, MissingClauses: missing}
	return s.RestrictForUser(ctx, userID, result)
}

// RestrictForUser applies the trial view transform when the user is on
// the trial plan. Subscription lookup failure degrades to the
// restricted view rather than exposing the full result.
func (s *Service) RestrictForUser(ctx context.Context, userID uuid.UUID, result *analysis.Result) (*analysis.View, error) {
	restricted := true
	sub, err := s.gate.GetForUser(ctx, userID)
	if err == nil {
		restricted = sub.IsTrialUser
	} else {
		s.logger.Warn("subscription lookup failed, serving restricted view",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
	return subsvc.ApplyTrialRestrictions(result, restricted), nil
}

func (s *Service) notify(userID, contractID uuid.UUID, eventType, status string) {
	if s.notifier != nil {
		s.notifier.NotifyAnalysis(userID, contractID, eventType, status)
	}
}

func analysisInProgress() error {
	return xerrors.NewAPIError(409, "ANALYSIS_IN_PROGRESS", "an analysis for this contract is already running").
		WithCause(xerrors.ErrConflict)
}

// contractText assembles the prompt input from what upload captured.
// Binary documents carry no extracted text, so their prompt falls back
// to the metadata the user supplied.
func contractText(c *contract.Contract) string {
	if c.ContentPreview.Valid && c.ContentPreview.String != "" {
		return c.ContentPreview.String
	}
	text := fmt.Sprintf("Title: %s\nType: %s\nFile: %s", c.Title, c.ContractType, c.FileName)
	if c.Description.Valid {
		text += "\nDescription: " + c.Description.String
	}
	return text
}
