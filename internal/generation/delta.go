package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/morphic/api/internal/llm"
	"github.com/morphic/api/internal/models"
	"go.uber.org/zap"
)

const deltaSystemPrompt = `You are Morphic's code delta agent. Output ONLY valid React component code that:
- Uses React 18 functional components and hooks.
- Assumes CDN globals for React, Tailwind, Framer Motion, Lucide, Recharts, Axios, Marked.
- Calls window.getMorphicKey() before AI-dependent operations.
- Avoids import/export statements and emits a single default export via exports.default.
- Includes accessibility best practices and balanced JSX.`

const (
	deltaMaxTokens   = 1200
	deltaTemperature = 0.2
)

// DeltaAgent asks the model for component source conditioned on the
// plan and the selected template. Output is pre-repair: RepairAttempts
// is always zero here.
type DeltaAgent struct {
	client ChatCaller
	logger *zap.Logger
}

// NewDeltaAgent creates a delta agent
func NewDeltaAgent(client ChatCaller, logger *zap.Logger) *DeltaAgent {
	return &DeltaAgent{client: client, logger: logger}
}

// Generate requests raw component code for the request
func (a *DeltaAgent) Generate(ctx context.Context, req models.GenerationRequest, plan *models.BlueprintPlan, template models.TemplateSelection) (*models.CodeArtifact, error) {
	resp, err := a.client.Chat(ctx, llm.ChatRequest{
		Model:       req.ModelID,
		MaxTokens:   deltaMaxTokens,
		Temperature: deltaTemperature,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: deltaSystemPrompt},
			{Role: "user", Content: composeDeltaPrompt(req, plan, template)},
		},
	})
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(resp.Choices[0].Message.Content)
	if code == "" {
		return nil, &llm.UpstreamError{Reason: "empty response"}
	}

	a.logger.Info("delta generated",
		zap.String("model", req.ModelID),
		zap.Int("token_usage", resp.TotalTokens()),
		zap.Int("code_len", len(code)),
	)

	return &models.CodeArtifact{
		Code:           code,
		TokenUsage:     resp.TotalTokens(),
		RepairAttempts: 0,
	}, nil
}

func composeDeltaPrompt(req models.GenerationRequest, plan *models.BlueprintPlan, template models.TemplateSelection) string {
	tone := req.Tone
	if tone == "" {
		tone = "balanced"
	}
	return strings.Join([]string{
		fmt.Sprintf("Idea: %s", req.Idea),
		fmt.Sprintf("Tone: %s", tone),
		fmt.Sprintf("Blueprint Summary: %s", plan.Summary),
		fmt.Sprintf("Components: %s", strings.Join(plan.Components, ", ")),
		fmt.Sprintf("Data Flows: %s", strings.Join(plan.DataFlows, " -> ")),
		fmt.Sprintf("AI Features: %s", strings.Join(plan.AIFeatures, ", ")),
		fmt.Sprintf("Template: %s (%s)", template.TemplateID, template.Rationale),
		"Guardrails: 1) call window.getMorphicKey before AI-dependent operations; 2) avoid direct DOM mutations; 3) include loading/error states; 4) keep bundle under 120 KB.",
	}, "\n")
}
