package automation

import (
	"context"
	"encoding/json"
)

// PromptRequest carries the brand profile used to generate keyword
// prompt candidates.
type PromptRequest struct {
	Brand    string `json:"brand"`
	Domain   string `json:"domain"`
	Industry string `json:"industry"`
	Products string `json:"products"`
}

// GeneratePrompts asks the automation service for prompt candidates and
// normalizes the response into a string list.
func (c *Client) GeneratePrompts(ctx context.Context, req PromptRequest) ([]string, error) {
	raw, errCall := c.Call(ctx, EndpointGeneratePrompts, req, c.timeoutLong)
	if errCall != nil {
		return nil, errCall
	}
	return PromptList(raw)
}

// AnalysisRequest carries everything the automation service needs to
// scan a set of keywords for one project.
type AnalysisRequest struct {
	ProjectID       uint64   `json:"project_id"`
	KeywordIDs      []uint64 `json:"keyword_ids"`
	BrandName       string   `json:"brand_name"`
	Domain          string   `json:"domain"`
	OfficialSources []string `json:"official_sources"`
	Competitors     []string `json:"competitors"`
}

// RunAnalysis executes a visibility analysis. The response body is
// opaque to the gateway and passed through to the caller.
func (c *Client) RunAnalysis(ctx context.Context, req AnalysisRequest) (json.RawMessage, error) {
	return c.Call(ctx, EndpointRunAnalysis, req, c.timeoutLong)
}

// Recommendations fetches AI recommendations for prior analysis data.
// The response body is opaque and passed through unchanged.
func (c *Client) Recommendations(ctx context.Context, projectID uint64, analysis json.RawMessage) (json.RawMessage, error) {
	payload := map[string]any{
		"project_id":    projectID,
		"analysis_data": analysis,
	}
	return c.Call(ctx, EndpointRecommendations, payload, c.timeoutShort)
}

// Chat forwards a user question with its context and normalizes the
// reply text.
func (c *Client) Chat(ctx context.Context, query string, chatContext map[string]any) (ChatReply, error) {
	payload := map[string]any{"query": query}
	for k, v := range chatContext {
		if k != "query" {
			payload[k] = v
		}
	}
	raw, errCall := c.Call(ctx, EndpointChat, payload, c.timeoutLong)
	if errCall != nil {
		return ChatReply{}, errCall
	}
	return ChatText(raw), nil
}
