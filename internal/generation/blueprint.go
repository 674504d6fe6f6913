package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/morphic/api/internal/cache"
	"github.com/morphic/api/internal/llm"
	"github.com/morphic/api/internal/metrics"
	"github.com/morphic/api/internal/models"
	"go.uber.org/zap"
)

const blueprintSystemPrompt = `You are the Morphic blueprint agent. Produce a concise JSON plan with keys: summary, components (array), dataFlows (array), risks (array), aiFeatures (array), complexityScore (0-1 float). Keep output under 220 tokens.`

const blueprintMaxTokens = 300

// ChatCaller is the slice of the model client the agents need
type ChatCaller interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// BlueprintAgent drafts a structured plan, reading and writing through
// the plan cache by fingerprint.
type BlueprintAgent struct {
	client ChatCaller
	cache  *cache.PlanCache
	logger *zap.Logger
}

// NewBlueprintAgent creates a blueprint agent
func NewBlueprintAgent(client ChatCaller, planCache *cache.PlanCache, logger *zap.Logger) *BlueprintAgent {
	return &BlueprintAgent{client: client, cache: planCache, logger: logger}
}

// Obtain returns the plan for a request, from cache when possible.
// The second return reports whether the plan was a cache hit.
func (a *BlueprintAgent) Obtain(ctx context.Context, req models.GenerationRequest, fp string) (*models.BlueprintPlan, bool, error) {
	if plan, ok := a.cache.Read(ctx, fp); ok {
		metrics.CacheLookups.WithLabelValues("blueprint", "hit").Inc()
		return plan, true, nil
	}
	metrics.CacheLookups.WithLabelValues("blueprint", "miss").Inc()

	tone := req.Tone
	if tone == "" {
		tone = "balanced"
	}
	blueprintContext := req.Context
	if blueprintContext == "" {
		blueprintContext = "standard app studio"
	}

	resp, err := a.client.Chat(ctx, llm.ChatRequest{
		Model:     req.ModelID,
		MaxTokens: blueprintMaxTokens,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: blueprintSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Idea:%s\nTone:%s\nContext:%s", req.Idea, tone, blueprintContext)},
		},
	})
	if err != nil {
		return nil, false, err
	}

	plan, err := parseBlueprint(resp.Choices[0].Message.Content, fp)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			a.logger.Error("blueprint response unparsable",
				zap.String("fingerprint", fp),
				zap.String("raw", parseErr.Raw),
			)
		}
		return nil, false, err
	}

	a.cache.Write(ctx, plan)
	return plan, false, nil
}

// parseBlueprint decodes the model's JSON. Missing optional fields get
// defaults; only unparsable JSON fails.
func parseBlueprint(content, fp string) (*models.BlueprintPlan, error) {
	var raw struct {
		Summary         *string  `json:"summary"`
		Components      []string `json:"components"`
		DataFlows       []string `json:"dataFlows"`
		Risks           []string `json:"risks"`
		AIFeatures      []string `json:"aiFeatures"`
		ComplexityScore *float64 `json:"complexityScore"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &ParseError{Raw: content, Err: err}
	}

	summary := "Generated blueprint"
	if raw.Summary != nil && *raw.Summary != "" {
		summary = *raw.Summary
	}
	complexity := 0.5
	if raw.ComplexityScore != nil {
		complexity = clamp01(*raw.ComplexityScore)
	}

	return &models.BlueprintPlan{
		ID:              uuid.New(),
		Fingerprint:     fp,
		Summary:         summary,
		Components:      orEmpty(raw.Components),
		DataFlows:       orEmpty(raw.DataFlows),
		Risks:           orEmpty(raw.Risks),
		AIFeatures:      orEmpty(raw.AIFeatures),
		ComplexityScore: complexity,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
