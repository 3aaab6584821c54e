package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/virshi-ai/visibility-api/internal/automation"
	"github.com/virshi-ai/visibility-api/internal/billing"
	"github.com/virshi-ai/visibility-api/internal/models"
)

type stubProjects struct {
	project *models.Project
	err     error
}

func (s *stubProjects) Get(_ context.Context, _ uint64) (*models.Project, error) {
	return s.project, s.err
}

type stubKeywords struct {
	byID   map[uint64]*models.Keyword
	active []models.Keyword
}

func (s *stubKeywords) Get(_ context.Context, id uint64) (*models.Keyword, error) {
	kw, ok := s.byID[id]
	if !ok {
		return nil, errors.New("keyword not found")
	}
	return kw, nil
}

func (s *stubKeywords) ListActive(_ context.Context, _ uint64) ([]models.Keyword, error) {
	return s.active, nil
}

type stubUsage struct {
	count         int
	countErr      error
	keywordCounts map[uint64]int
	appended      []models.ScanResult
	appendErr     error
}

func (s *stubUsage) Count(_ context.Context, _ uint64, _ *time.Time) (int, error) {
	return s.count, s.countErr
}

func (s *stubUsage) CountKeyword(_ context.Context, _ uint64, keywordID uint64) (int, error) {
	return s.keywordCounts[keywordID], nil
}

func (s *stubUsage) Append(_ context.Context, rec *models.ScanResult) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, *rec)
	return nil
}

type stubGateway struct {
	analysis json.RawMessage
	err      error
	calls    int
	lastReq  automation.AnalysisRequest
}

func (s *stubGateway) GeneratePrompts(_ context.Context, _ automation.PromptRequest) ([]string, error) {
	return []string{"prompt one"}, nil
}

func (s *stubGateway) RunAnalysis(_ context.Context, req automation.AnalysisRequest) (json.RawMessage, error) {
	s.calls++
	s.lastReq = req
	return s.analysis, s.err
}

func (s *stubGateway) Recommendations(_ context.Context, _ uint64, _ json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{"recommendations":[]}`), nil
}

func (s *stubGateway) Chat(_ context.Context, _ string, _ map[string]any) (automation.ChatReply, error) {
	return automation.ChatReply{Text: "hello"}, nil
}

func testProject(status string) *models.Project {
	return &models.Project{
		ID:        42,
		UserID:    7,
		BrandName: "Acme",
		Domain:    "acme.test",
		Status:    status,
	}
}

func testKeywordSet(ids ...uint64) *stubKeywords {
	byID := make(map[uint64]*models.Keyword, len(ids))
	var active []models.Keyword
	for _, id := range ids {
		kw := models.Keyword{ID: id, ProjectID: 42, Text: fmt.Sprintf("keyword-%d", id), IsActive: true}
		byID[id] = &kw
		active = append(active, kw)
	}
	return &stubKeywords{byID: byID, active: active}
}

func TestRunAnalysis_FailsClosedOnUsageError(t *testing.T) {
	usage := &stubUsage{countErr: errors.New("connection reset")}
	gateway := &stubGateway{}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1), usage, gateway)

	_, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1})
	if !errors.Is(errRun, ErrUsageLookup) {
		t.Fatalf("expected ErrUsageLookup, got %v", errRun)
	}
	if gateway.calls != 0 {
		t.Fatalf("gateway must not be called when usage is unknown")
	}
	if len(usage.appended) != 0 {
		t.Fatalf("no usage rows may be written on refusal")
	}
}

func TestRunAnalysis_QuotaExceeded(t *testing.T) {
	usage := &stubUsage{count: 100}
	gateway := &stubGateway{}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1), usage, gateway)

	_, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1})
	if !errors.Is(errRun, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", errRun)
	}

	var quotaErr *QuotaError
	if !errors.As(errRun, &quotaErr) {
		t.Fatalf("expected *QuotaError, got %T", errRun)
	}
	if quotaErr.Decision.Used != 100 || quotaErr.Decision.Limit != 100 || !quotaErr.Decision.LimitReached {
		t.Fatalf("unexpected decision: %+v", quotaErr.Decision)
	}
	if gateway.calls != 0 {
		t.Fatalf("gateway must not be called when quota is exceeded")
	}
}

func TestRunAnalysis_RequestExceedsRemaining(t *testing.T) {
	// 98 used of 100: two remaining, three requested.
	usage := &stubUsage{count: 98}
	gateway := &stubGateway{}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1, 2, 3), usage, gateway)

	_, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1, 2, 3})
	if !errors.Is(errRun, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", errRun)
	}
	var quotaErr *QuotaError
	if !errors.As(errRun, &quotaErr) {
		t.Fatalf("expected *QuotaError, got %T", errRun)
	}
	if quotaErr.Decision.Remaining != 2 || quotaErr.Decision.LimitReached {
		t.Fatalf("unexpected decision: %+v", quotaErr.Decision)
	}
}

func TestRunAnalysis_AppendsOneRowPerKeyword(t *testing.T) {
	usage := &stubUsage{count: 10}
	gateway := &stubGateway{analysis: json.RawMessage(`{"results":[
		{"keyword_id":1,"model":"gpt-4","response":"Acme is great","sentiment":"POSITIVE","sources":["https://acme.test"]},
		{"keyword_id":2,"model":"gpt-4","response":"meh"}
	]}`)}
	svc := NewService(&stubProjects{project: testProject(billing.PlanProfessional)}, testKeywordSet(1, 2), usage, gateway)

	outcome, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1, 2})
	if errRun != nil {
		t.Fatalf("run analysis: %v", errRun)
	}
	if len(outcome.Scanned) != 2 {
		t.Fatalf("expected 2 scanned keywords, got %v", outcome.Scanned)
	}
	if len(usage.appended) != 2 {
		t.Fatalf("expected 2 usage rows, got %d", len(usage.appended))
	}

	first := usage.appended[0]
	if first.KeywordID != 1 || first.Model != "gpt-4" || first.Sentiment != models.SentimentPositive {
		t.Fatalf("unexpected first row: %+v", first)
	}
	second := usage.appended[1]
	if second.Sentiment != models.SentimentNeutral {
		t.Fatalf("missing sentiment must default to neutral, got %q", second.Sentiment)
	}
	if gateway.lastReq.BrandName != "Acme" || gateway.lastReq.ProjectID != 42 {
		t.Fatalf("unexpected gateway request: %+v", gateway.lastReq)
	}
}

func TestRunAnalysis_GatewayFailureWritesNoUsage(t *testing.T) {
	usage := &stubUsage{count: 10}
	gateway := &stubGateway{err: &automation.CallError{
		Kind:     automation.KindServer,
		Endpoint: automation.EndpointRunAnalysis,
		Status:   500,
		Attempts: 4,
	}}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1), usage, gateway)

	_, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1})
	var callErr *automation.CallError
	if !errors.As(errRun, &callErr) {
		t.Fatalf("expected *automation.CallError, got %v", errRun)
	}
	if len(usage.appended) != 0 {
		t.Fatalf("usage rows must not be written when the gateway call fails")
	}
}

func TestRunAnalysis_TrialKeywordScannedOnce(t *testing.T) {
	usage := &stubUsage{count: 1, keywordCounts: map[uint64]int{1: 1}}
	gateway := &stubGateway{analysis: json.RawMessage(`{}`)}
	svc := NewService(&stubProjects{project: testProject(billing.PlanTrial)}, testKeywordSet(1, 2), usage, gateway)

	_, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1})
	if !errors.Is(errRun, ErrTrialKeywordScanned) {
		t.Fatalf("expected ErrTrialKeywordScanned, got %v", errRun)
	}
	var trialErr *TrialKeywordError
	if !errors.As(errRun, &trialErr) || trialErr.KeywordID != 1 {
		t.Fatalf("expected keyword 1 in trial error, got %v", errRun)
	}
	if gateway.calls != 0 {
		t.Fatalf("gateway must not be called for a repeated trial keyword")
	}

	// A fresh keyword still passes.
	if _, errFresh := svc.RunAnalysis(context.Background(), 42, []uint64{2}); errFresh != nil {
		t.Fatalf("fresh trial keyword: %v", errFresh)
	}
}

func TestRunAnalysis_PaidPlanAllowsRepeatedKeyword(t *testing.T) {
	usage := &stubUsage{count: 5, keywordCounts: map[uint64]int{1: 3}}
	gateway := &stubGateway{analysis: json.RawMessage(`{}`)}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1), usage, gateway)

	if _, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{1}); errRun != nil {
		t.Fatalf("paid plan rescan: %v", errRun)
	}
}

func TestRunAnalysis_DefaultsToActiveKeywords(t *testing.T) {
	usage := &stubUsage{count: 0}
	gateway := &stubGateway{analysis: json.RawMessage(`{}`)}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1, 2, 3), usage, gateway)

	outcome, errRun := svc.RunAnalysis(context.Background(), 42, nil)
	if errRun != nil {
		t.Fatalf("run analysis: %v", errRun)
	}
	if len(outcome.Scanned) != 3 {
		t.Fatalf("expected all active keywords scanned, got %v", outcome.Scanned)
	}
}

func TestRunAnalysis_NoKeywords(t *testing.T) {
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, &stubKeywords{}, &stubUsage{}, &stubGateway{})

	_, errRun := svc.RunAnalysis(context.Background(), 42, nil)
	if !errors.Is(errRun, ErrNoKeywords) {
		t.Fatalf("expected ErrNoKeywords, got %v", errRun)
	}
}

func TestRunAnalysis_ForeignKeywordRejected(t *testing.T) {
	keywords := &stubKeywords{byID: map[uint64]*models.Keyword{
		9: {ID: 9, ProjectID: 1000, Text: "someone else's"},
	}}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, keywords, &stubUsage{}, &stubGateway{})

	_, errRun := svc.RunAnalysis(context.Background(), 42, []uint64{9})
	if errRun == nil {
		t.Fatalf("expected rejection of a keyword from another project")
	}
}

func TestQuotaStatus_ReflectsUsage(t *testing.T) {
	usage := &stubUsage{count: 99}
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1), usage, &stubGateway{})

	decision, errStatus := svc.QuotaStatus(context.Background(), 42)
	if errStatus != nil {
		t.Fatalf("quota status: %v", errStatus)
	}
	if !decision.Allowed || decision.Remaining != 1 {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	usage.count = 100
	decision, errStatus = svc.QuotaStatus(context.Background(), 42)
	if errStatus != nil {
		t.Fatalf("quota status: %v", errStatus)
	}
	if decision.Allowed || !decision.LimitReached {
		t.Fatalf("expected exhausted decision: %+v", decision)
	}
}

func TestChat_BlankQueryIsEmptyReply(t *testing.T) {
	svc := NewService(&stubProjects{project: testProject(billing.PlanStarter)}, testKeywordSet(1), &stubUsage{}, &stubGateway{})

	reply, errChat := svc.Chat(context.Background(), 0, "   ", nil)
	if errChat != nil {
		t.Fatalf("chat: %v", errChat)
	}
	if !reply.Empty {
		t.Fatalf("expected empty reply marker for blank query")
	}
}
