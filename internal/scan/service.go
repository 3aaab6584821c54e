package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/virshi-ai/visibility-api/internal/automation"
	"github.com/virshi-ai/visibility-api/internal/billing"
	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/datatypes"
)

// ErrUsageLookup wraps a failed usage count. A quota decision is never
// made on an unknown count: the scan is refused instead.
var ErrUsageLookup = errors.New("scan: usage count unavailable")

// ErrQuotaExceeded is the sentinel behind QuotaError.
var ErrQuotaExceeded = errors.New("scan: plan quota exceeded")

// ErrTrialKeywordScanned is the sentinel behind TrialKeywordError.
var ErrTrialKeywordScanned = errors.New("scan: keyword already scanned on trial")

// ErrNoKeywords is returned when a scan resolves to zero keywords.
var ErrNoKeywords = errors.New("scan: no keywords to scan")

// QuotaError is returned when a scan would exceed the plan limit. The
// embedded decision carries used/limit/remaining for the response body.
type QuotaError struct {
	Decision billing.Decision
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("scan: plan %s quota exceeded: used %d of %d, requested more than %d remaining",
		e.Decision.Plan, e.Decision.Used, e.Decision.Limit, e.Decision.Remaining)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// TrialKeywordError is returned when a trial project retries a keyword
// it has already scanned.
type TrialKeywordError struct {
	KeywordID uint64
	Text      string
}

func (e *TrialKeywordError) Error() string {
	return fmt.Sprintf("scan: keyword %d (%q) already scanned on trial", e.KeywordID, e.Text)
}

func (e *TrialKeywordError) Unwrap() error { return ErrTrialKeywordScanned }

// ProjectSource loads projects for scan admission.
type ProjectSource interface {
	Get(ctx context.Context, projectID uint64) (*models.Project, error)
}

// KeywordSource resolves the keywords a scan covers.
type KeywordSource interface {
	Get(ctx context.Context, keywordID uint64) (*models.Keyword, error)
	ListActive(ctx context.Context, projectID uint64) ([]models.Keyword, error)
}

// UsageLog is the append-only record quota usage is counted from.
type UsageLog interface {
	Append(ctx context.Context, rec *models.ScanResult) error
	Count(ctx context.Context, projectID uint64, since *time.Time) (int, error)
	CountKeyword(ctx context.Context, projectID, keywordID uint64) (int, error)
}

// Automation is the outbound gateway surface the service drives.
type Automation interface {
	GeneratePrompts(ctx context.Context, req automation.PromptRequest) ([]string, error)
	RunAnalysis(ctx context.Context, req automation.AnalysisRequest) (json.RawMessage, error)
	Recommendations(ctx context.Context, projectID uint64, analysis json.RawMessage) (json.RawMessage, error)
	Chat(ctx context.Context, query string, chatContext map[string]any) (automation.ChatReply, error)
}

// Service enforces plan quotas around the automation gateway and keeps
// the usage log.
type Service struct {
	projects ProjectSource
	keywords KeywordSource
	usage    UsageLog
	gateway  Automation
}

// NewService constructs a scan Service.
func NewService(projects ProjectSource, keywords KeywordSource, usage UsageLog, gateway Automation) *Service {
	return &Service{projects: projects, keywords: keywords, usage: usage, gateway: gateway}
}

// AnalysisOutcome is the result of one admitted and completed scan run.
type AnalysisOutcome struct {
	Analysis json.RawMessage  `json:"analysis"`
	Scanned  []uint64         `json:"scanned_keyword_ids"`
	Decision billing.Decision `json:"quota"`
}

// QuotaStatus reports whether one more scan would be admitted for the
// project right now, with the current usage numbers.
func (s *Service) QuotaStatus(ctx context.Context, projectID uint64) (billing.Decision, error) {
	project, errProject := s.projects.Get(ctx, projectID)
	if errProject != nil {
		return billing.Decision{}, errProject
	}
	used, errUsed := s.windowUsage(ctx, project)
	if errUsed != nil {
		return billing.Decision{}, errUsed
	}
	return billing.Evaluate(project.Status, used, 1)
}

// RunAnalysis admits a scan against the project's plan quota, forwards
// it to the automation service, and records one usage row per keyword.
// The usage rows are what future quota checks count, so they are only
// written after the gateway call succeeds.
func (s *Service) RunAnalysis(ctx context.Context, projectID uint64, keywordIDs []uint64) (*AnalysisOutcome, error) {
	project, errProject := s.projects.Get(ctx, projectID)
	if errProject != nil {
		return nil, errProject
	}

	keywords, errKeywords := s.resolveKeywords(ctx, project, keywordIDs)
	if errKeywords != nil {
		return nil, errKeywords
	}
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	used, errUsed := s.windowUsage(ctx, project)
	if errUsed != nil {
		return nil, errUsed
	}

	decision, errEvaluate := billing.Evaluate(project.Status, used, len(keywords))
	if errEvaluate != nil {
		return nil, errEvaluate
	}
	if !decision.Allowed {
		return nil, &QuotaError{Decision: decision}
	}

	if decision.Plan == billing.PlanTrial {
		if errTrial := s.checkTrialKeywords(ctx, project.ID, keywords); errTrial != nil {
			return nil, errTrial
		}
	}

	req := automation.AnalysisRequest{
		ProjectID:       project.ID,
		KeywordIDs:      keywordIDList(keywords),
		BrandName:       project.BrandName,
		Domain:          project.Domain,
		OfficialSources: decodeStringList(project.OfficialSources),
		Competitors:     decodeStringList(project.Competitors),
	}
	analysis, errCall := s.gateway.RunAnalysis(ctx, req)
	if errCall != nil {
		return nil, errCall
	}

	scanned := s.recordResults(ctx, project.ID, keywords, analysis)

	return &AnalysisOutcome{
		Analysis: analysis,
		Scanned:  scanned,
		Decision: decision,
	}, nil
}

// GeneratePrompts forwards prompt generation for a project's brand
// profile. Prompt generation is not billable and bypasses the quota.
func (s *Service) GeneratePrompts(ctx context.Context, projectID uint64) ([]string, error) {
	project, errProject := s.projects.Get(ctx, projectID)
	if errProject != nil {
		return nil, errProject
	}
	return s.gateway.GeneratePrompts(ctx, automation.PromptRequest{
		Brand:    project.BrandName,
		Domain:   project.Domain,
		Industry: project.Industry,
		Products: project.Products,
	})
}

// Recommendations forwards prior analysis data for recommendations.
// Not billable.
func (s *Service) Recommendations(ctx context.Context, projectID uint64, analysis json.RawMessage) (json.RawMessage, error) {
	if _, errProject := s.projects.Get(ctx, projectID); errProject != nil {
		return nil, errProject
	}
	return s.gateway.Recommendations(ctx, projectID, analysis)
}

// Chat forwards an assistant question with project context. Not
// billable.
func (s *Service) Chat(ctx context.Context, projectID uint64, query string, chatContext map[string]any) (automation.ChatReply, error) {
	if strings.TrimSpace(query) == "" {
		return automation.ChatReply{Empty: true}, nil
	}
	if chatContext == nil {
		chatContext = map[string]any{}
	}
	if projectID != 0 {
		if project, errProject := s.projects.Get(ctx, projectID); errProject == nil {
			chatContext["project_id"] = project.ID
			chatContext["brand_name"] = project.BrandName
		}
	}
	return s.gateway.Chat(ctx, query, chatContext)
}

// windowUsage counts usage over the plan's window. Count failures are
// wrapped in ErrUsageLookup so callers refuse the scan.
func (s *Service) windowUsage(ctx context.Context, project *models.Project) (int, error) {
	window := billing.UsageWindow(project.Status)
	var since *time.Time
	if start, ok := billing.WindowStart(window, time.Now()); ok {
		since = &start
	}
	used, errCount := s.usage.Count(ctx, project.ID, since)
	if errCount != nil {
		return 0, fmt.Errorf("%w: %v", ErrUsageLookup, errCount)
	}
	return used, nil
}

// resolveKeywords expands an explicit ID list, or falls back to every
// active keyword of the project when none were given.
func (s *Service) resolveKeywords(ctx context.Context, project *models.Project, keywordIDs []uint64) ([]models.Keyword, error) {
	if len(keywordIDs) == 0 {
		return s.keywords.ListActive(ctx, project.ID)
	}
	keywords := make([]models.Keyword, 0, len(keywordIDs))
	for _, id := range keywordIDs {
		keyword, errGet := s.keywords.Get(ctx, id)
		if errGet != nil {
			return nil, errGet
		}
		if keyword.ProjectID != project.ID {
			return nil, fmt.Errorf("scan: keyword %d does not belong to project %d", id, project.ID)
		}
		keywords = append(keywords, *keyword)
	}
	return keywords, nil
}

// checkTrialKeywords enforces the one-scan-per-keyword trial rule.
func (s *Service) checkTrialKeywords(ctx context.Context, projectID uint64, keywords []models.Keyword) error {
	for _, keyword := range keywords {
		count, errCount := s.usage.CountKeyword(ctx, projectID, keyword.ID)
		if errCount != nil {
			return fmt.Errorf("%w: %v", ErrUsageLookup, errCount)
		}
		if count > 0 {
			return &TrialKeywordError{KeywordID: keyword.ID, Text: keyword.Text}
		}
	}
	return nil
}

// keywordResult is the per-keyword shape the automation service may
// include in its analysis response. All fields are optional.
type keywordResult struct {
	KeywordID uint64          `json:"keyword_id"`
	Model     string          `json:"model"`
	Response  string          `json:"response"`
	Sentiment string          `json:"sentiment"`
	Sources   json.RawMessage `json:"sources"`
}

// recordResults appends one usage row per scanned keyword. Per-keyword
// detail is taken from the response when its shape is recognized;
// otherwise bare rows are written so the quota count still advances.
// Append failures are logged and skipped: the scan already ran and
// must not be reported as failed.
func (s *Service) recordResults(ctx context.Context, projectID uint64, keywords []models.Keyword, analysis json.RawMessage) []uint64 {
	byKeyword := make(map[uint64]keywordResult)
	var envelope struct {
		Results []keywordResult `json:"results"`
	}
	if errDecode := json.Unmarshal(analysis, &envelope); errDecode == nil {
		for _, r := range envelope.Results {
			if r.KeywordID != 0 {
				byKeyword[r.KeywordID] = r
			}
		}
	}

	now := time.Now().UTC()
	scanned := make([]uint64, 0, len(keywords))
	for _, keyword := range keywords {
		rec := models.ScanResult{
			ProjectID: projectID,
			KeywordID: keyword.ID,
			CreatedAt: now,
		}
		if r, ok := byKeyword[keyword.ID]; ok {
			rec.Model = r.Model
			rec.Response = r.Response
			rec.Sentiment = normalizeSentiment(r.Sentiment)
			if len(r.Sources) > 0 {
				rec.Sources = datatypes.JSON(r.Sources)
			}
		}
		if errAppend := s.usage.Append(ctx, &rec); errAppend != nil {
			log.WithError(errAppend).WithField("keyword_id", keyword.ID).Error("record scan result")
			continue
		}
		scanned = append(scanned, keyword.ID)
	}
	return scanned
}

// normalizeSentiment maps free-form sentiment labels onto the stored
// vocabulary, defaulting to neutral.
func normalizeSentiment(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// decodeStringList reads a JSON column holding a string array. Other
// shapes decode to nil.
func decodeStringList(col datatypes.JSON) []string {
	if len(col) == 0 {
		return nil
	}
	var list []string
	if errDecode := json.Unmarshal([]byte(col), &list); errDecode != nil {
		return nil
	}
	return list
}

// keywordIDList projects keyword rows onto their IDs.
func keywordIDList(keywords []models.Keyword) []uint64 {
	ids := make([]uint64, 0, len(keywords))
	for _, keyword := range keywords {
		ids = append(ids, keyword.ID)
	}
	return ids
}
