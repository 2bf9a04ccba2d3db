package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"helloaca-service/internal/ai"
	"helloaca-service/internal/domain/analysis"
	"helloaca-service/internal/domain/contract"
	"helloaca-service/internal/domain/subscription"
	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeContracts struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*contract.Contract
}

func newFakeContracts(cs ...*contract.Contract) *fakeContracts {
	f := &fakeContracts{contracts: make(map[uuid.UUID]*contract.Contract)}
	for _, c := range cs {
		f.contracts[c.ID] = c
	}
	return f
}

func (f *fakeContracts) FindByID(ctx context.Context, userID, id uuid.UUID) (*contract.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (f *fakeContracts) TransitionStatus(ctx context.Context, id uuid.UUID, from, to contract.Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (f *fakeContracts) UpdateStatus(ctx context.Context, id uuid.UUID, status contract.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeContracts) status(id uuid.UUID) contract.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contracts[id].Status
}

type fakeAnalyses struct {
	mu         sync.Mutex
	byContract map[uuid.UUID]*analysis.Analysis
	risks      map[uuid.UUID][]analysis.RiskClause
	missing    map[uuid.UUID][]analysis.MissingClause
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{
		byContract: make(map[uuid.UUID]*analysis.Analysis),
		risks:      make(map[uuid.UUID][]analysis.RiskClause),
		missing:    make(map[uuid.UUID][]analysis.MissingClause),
	}
}

func (f *fakeAnalyses) CreateWithClauses(ctx context.Context, a *analysis.Analysis, risks []analysis.RiskClause, missing []analysis.MissingClause) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byContract[a.ContractID]; exists {
		return xerrors.ErrConflict
	}
	a.ID = uuid.New()
	f.byContract[a.ContractID] = a
	f.risks[a.ID] = risks
	f.missing[a.ID] = missing
	return nil
}

func (f *fakeAnalyses) FindByID(ctx context.Context, userID, id uuid.UUID) (*analysis.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byContract {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeAnalyses) FindByContract(ctx context.Context, userID, contractID uuid.UUID) (*analysis.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byContract[contractID]
	if !ok || a.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return a, nil
}

func (f *fakeAnalyses) ListRiskClauses(ctx context.Context, analysisID uuid.UUID) ([]analysis.RiskClause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.risks[analysisID], nil
}

func (f *fakeAnalyses) ListMissingClauses(ctx context.Context, analysisID uuid.UUID) ([]analysis.MissingClause, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.missing[analysisID], nil
}

func (f *fakeAnalyses) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return len(f.byContract), nil
}

type fakeGate struct {
	decision *subscription.Decision
	trial    bool

	mu    sync.Mutex
	evals int
}

func (f *fakeGate) Evaluate(ctx context.Context, userID uuid.UUID, action subscription.Action) (*subscription.Decision, error) {
	f.mu.Lock()
	f.evals++
	f.mu.Unlock()
	if f.decision != nil {
		return f.decision, nil
	}
	return &subscription.Decision{Allowed: true, RemainingTrials: 2}, nil
}

func (f *fakeGate) evalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evals
}

func (f *fakeGate) GetForUser(ctx context.Context, userID uuid.UUID) (*subscription.SubscriptionResponse, error) {
	return &subscription.SubscriptionResponse{IsTrialUser: f.trial}, nil
}

type fakeModel struct {
	reply *ai.AnalysisReply
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeModel) AnalyzeContract(ctx context.Context, contractText, contractType string) (*ai.AnalysisReply, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.reply, f.err
}

func (f *fakeModel) AnswerQuestion(ctx context.Context, contractTitle, contractPreview, question string) (string, error) {
	return "", nil
}

func (f *fakeModel) Model() string { return "test-model" }

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func goodReply() *ai.AnalysisReply {
	return &ai.AnalysisReply{
		OverallRiskScore: 62,
		Summary:          "several clauses need attention",
		KeyFindings:      []string{"broad indemnity", "auto-renewal"},
		Recommendations:  []string{"cap liability", "add termination notice"},
		RiskClauses: []ai.RiskClauseReply{
			{ClauseText: "indemnify for all claims", RiskLevel: "high", RiskCategory: "liability", Explanation: "unbounded", Recommendation: "add cap", Location: "section 7"},
			{ClauseText: "renews automatically", RiskLevel: "medium", RiskCategory: "termination", Explanation: "silent renewal", Recommendation: "add notice", Location: "section 12"},
		},
		MissingClauses: []ai.MissingClauseReply{
			{ClauseType: "limitation of liability", Importance: "critical", Description: "no cap", SuggestedText: "liability capped at fees", LegalImpact: "unbounded exposure"},
		},
	}
}

func uploadedContract(userID uuid.UUID) *contract.Contract {
	return &contract.Contract{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        "Service Agreement",
		ContractType: contract.TypeService,
		FileName:     "agreement.txt",
		Status:       contract.StatusUploaded,
	}
}

func newTestService(contracts *fakeContracts, analyses *fakeAnalyses, gate *fakeGate, model *fakeModel) *Service {
	return NewService(contracts, analyses, gate, model, nil, nil, zap.NewNop())
}

func TestAnalyzeHappyPath(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	contracts := newFakeContracts(c)
	analyses := newFakeAnalyses()
	svc := newTestService(contracts, analyses, &fakeGate{trial: true}, &fakeModel{reply: goodReply()})

	result, decision, err := svc.Analyze(context.Background(), userID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, decision.Allowed)

	assert.Equal(t, contract.StatusCompleted, contracts.status(c.ID))
	assert.Equal(t, 62, result.Analysis.OverallRiskScore)
	assert.Len(t, result.RiskClauses, 2)
	assert.Len(t, result.MissingClauses, 1)
	assert.Equal(t, "test-model", result.Analysis.ModelUsed.String)
}

func TestAnalyzeModelFailureMarksContractFailed(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	contracts := newFakeContracts(c)
	analyses := newFakeAnalyses()
	svc := newTestService(contracts, analyses, &fakeGate{}, &fakeModel{err: errors.New("upstream 503")})

	_, _, err := svc.Analyze(context.Background(), userID, c.ID)
	require.Error(t, err)

	apiErr, ok := xerrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "ANALYSIS_FAILED", apiErr.Code)

	assert.Equal(t, contract.StatusFailed, contracts.status(c.ID))
	assert.Empty(t, analyses.byContract, "a failed run must leave no analysis row")
}

func TestAnalyzeFailedContractCanRetry(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	c.Status = contract.StatusFailed
	contracts := newFakeContracts(c)
	svc := newTestService(contracts, newFakeAnalyses(), &fakeGate{}, &fakeModel{reply: goodReply()})

	_, _, err := svc.Analyze(context.Background(), userID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusCompleted, contracts.status(c.ID))
}

func TestAnalyzeConcurrentSecondGetsConflict(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	contracts := newFakeContracts(c)
	analyses := newFakeAnalyses()
	model := &fakeModel{reply: goodReply(), delay: 50 * time.Millisecond}
	gate := &fakeGate{}
	svc := newTestService(contracts, analyses, gate, model)

	const workers = 4
	start := make(chan struct{})
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := svc.Analyze(context.Background(), userID, c.ID)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	succeeded, conflicted := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		apiErr, ok := xerrors.AsAPIError(err)
		require.True(t, ok, "unexpected error: %v", err)
		assert.Equal(t, 409, apiErr.Status)
		conflicted++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicted)
	assert.Equal(t, 1, model.callCount(), "only the claim winner may call the model")
	assert.Equal(t, 1, gate.evalCount(), "race losers must not spend quota")
	assert.Len(t, analyses.byContract, 1)
}

func TestAnalyzeCompletedContractConflicts(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	c.Status = contract.StatusCompleted
	svc := newTestService(newFakeContracts(c), newFakeAnalyses(), &fakeGate{}, &fakeModel{reply: goodReply()})

	_, _, err := svc.Analyze(context.Background(), userID, c.ID)
	require.Error(t, err)
	apiErr, ok := xerrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "ANALYSIS_EXISTS", apiErr.Code)
}

func TestAnalyzeDeniedByGate(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	contracts := newFakeContracts(c)
	gate := &fakeGate{decision: &subscription.Decision{Allowed: false, Reason: "trial limit of 3 analyses reached, please upgrade your plan"}}
	model := &fakeModel{reply: goodReply()}
	svc := newTestService(contracts, newFakeAnalyses(), gate, model)

	_, _, err := svc.Analyze(context.Background(), userID, c.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerrors.ErrQuotaExceeded))
	assert.Equal(t, 0, model.callCount())
	assert.Equal(t, contract.StatusUploaded, contracts.status(c.ID), "a denied request must release the claim")
}

func TestAnalyzeOtherUsersContractNotFound(t *testing.T) {
	owner := uuid.New()
	c := uploadedContract(owner)
	svc := newTestService(newFakeContracts(c), newFakeAnalyses(), &fakeGate{}, &fakeModel{reply: goodReply()})

	_, _, err := svc.Analyze(context.Background(), uuid.New(), c.ID)
	assert.True(t, errors.Is(err, xerrors.ErrNotFound))
}

func TestGetViewRestrictsTrialUsers(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	contracts := newFakeContracts(c)
	analyses := newFakeAnalyses()

	reply := goodReply()
	for i := 0; i < 5; i++ {
		reply.RiskClauses = append(reply.RiskClauses, ai.RiskClauseReply{
			ClauseText: "extra", RiskLevel: "low", RiskCategory: "misc",
		})
	}
	svc := newTestService(contracts, analyses, &fakeGate{trial: true}, &fakeModel{reply: reply})

	result, _, err := svc.Analyze(context.Background(), userID, c.ID)
	require.NoError(t, err)

	view, err := svc.GetView(context.Background(), userID, result.Analysis.ID)
	require.NoError(t, err)
	assert.True(t, view.Restricted)
	assert.Len(t, view.RiskClauses, 3)
	require.NotNil(t, view.Hidden)
	assert.Equal(t, 4, view.Hidden.RiskClauses)
}

func TestGetViewFullForPaidUsers(t *testing.T) {
	userID := uuid.New()
	c := uploadedContract(userID)
	svc := newTestService(newFakeContracts(c), newFakeAnalyses(), &fakeGate{trial: false}, &fakeModel{reply: goodReply()})

	result, _, err := svc.Analyze(context.Background(), userID, c.ID)
	require.NoError(t, err)

	view, err := svc.GetViewByContract(context.Background(), userID, c.ID)
	require.NoError(t, err)
	assert.False(t, view.Restricted)
	assert.Nil(t, view.Hidden)
	assert.Len(t, view.RiskClauses, len(result.RiskClauses))
}
