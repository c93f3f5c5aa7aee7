// Package gemini implements the generative backend using Google's Gemini
// API. It satisfies the dispatch.Generator contract; retries and rate
// limiting live in the dispatch layer, not here.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/aethery0y/vryzen/internal/config"
	"github.com/aethery0y/vryzen/internal/conversation"
	"github.com/aethery0y/vryzen/internal/dispatch"
)

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
}

// NewClient creates a new Gemini backend client with the provided
// configuration. It initializes the connection to the Gemini API and the
// base generation parameters shared by all calls.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (dispatch.Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature:     &cfg.Temperature,
		TopP:            &cfg.TopP,
		TopK:            &cfg.TopK,
		MaxOutputTokens: cfg.MaxOutputTokens,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = DefaultSystemInstruction
	}
	baseCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
	}, nil
}

// Generate performs one generation call. In conversational mode the
// bounded context history is sent ahead of the message; in stateless
// mode only the message is sent, with the fallback directive appended to
// the system instruction.
func (c *sdkClient) Generate(ctx context.Context, req dispatch.GenerateRequest) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "history_len", len(req.History), "stateless", req.Stateless)

	var contents []*genai.Content
	if !req.Stateless {
		for _, turn := range req.History {
			role := genai.Role(genai.RoleUser)
			if turn.Role == conversation.RoleModel {
				role = genai.RoleModel
			}
			contents = append(contents, genai.NewContentFromText(turn.Text, role))
		}
	}
	contents = append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))

	copyCfg := *c.contentConfig
	if req.Stateless {
		var existing string
		if copyCfg.SystemInstruction != nil && len(copyCfg.SystemInstruction.Parts) > 0 {
			existing = copyCfg.SystemInstruction.Parts[0].Text
		}
		copyCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: existing + StatelessDirective}},
		}
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, &copyCfg)
	if err != nil {
		return "", c.classifyError(ctx, err)
	}

	return c.extractTextFromResponse(ctx, resp)
}

// classifyError maps provider errors onto the dispatch taxonomy so the
// retry controller and caller-facing messaging can distinguish quota
// exhaustion from other backend failures.
func (c *sdkClient) classifyError(ctx context.Context, err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		c.log.WarnContext(ctx, "Gemini API call rate limited", "code", apiErr.Code, "error", err)
		return fmt.Errorf("%w: %v", dispatch.ErrRateLimited, err)
	}

	c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
	return fmt.Errorf("gemini API call failed: %w", err)
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("generation blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("generation returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generation returned empty text")
	}

	return text, nil
}
