package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/cache"
	"second-order-engine/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository implements AIRepository using the Google Gemini API.
// Responses are cached by request content so repeated evaluations within the
// freshness window do not trigger new calls.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
	responseCache  *cache.TTL
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		genAiClient:    genAiClient,
		requestLimiter: requestLimiter,
		responseCache:  cache.NewTTL(cfg.Engine.CacheTTL),
	}, nil
}

// ClassifyEvent identifies the primary market-moving event in a news batch.
func (r *geminiAIRepository) ClassifyEvent(ctx context.Context, news []entity.NewsItem) (*dto.EventClassificationResult, error) {
	if len(news) == 0 {
		return nil, fmt.Errorf("no news items to classify")
	}

	prompt := BuildClassifyEventPrompt(news)
	raw, err := r.generate(ctx, "classify", prompt)
	if err != nil {
		return nil, err
	}

	var result dto.EventClassificationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classification result: %w", err)
	}
	return &result, nil
}

// MapSecondOrderEffects enumerates predicted second-order effects of an event.
func (r *geminiAIRepository) MapSecondOrderEffects(ctx context.Context, event *entity.PrimaryEvent) (*dto.CausalMapResult, error) {
	prompt := BuildCausalMapPrompt(event)
	raw, err := r.generate(ctx, "causal", prompt)
	if err != nil {
		return nil, err
	}

	var result dto.CausalMapResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal causal map result: %w", err)
	}
	return &result, nil
}

func (r *geminiAIRepository) generate(ctx context.Context, kind, prompt string) (string, error) {
	cacheKey := cache.Key(kind, []byte(prompt))
	if cached, ok := r.responseCache.Get(cacheKey); ok {
		r.logger.DebugContext(ctx, "Gemini response served from cache", logger.StringField("kind", kind))
		return cached.(string), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Engine.CollaboratorTimeout)
	defer cancel()

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}

	raw := resp.Candidates[0].Content.Parts[0].Text
	raw = strings.Trim(raw, "`json\n`")

	r.responseCache.Set(cacheKey, raw)
	return raw, nil
}
