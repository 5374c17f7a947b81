package provider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/poke-finder/internal/llm"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/storage"
)

// EntryProvider asks LLM clients, in configured order, to write a Pokédex
// entry. Calls are rate limited and every attempt is recorded for cost
// monitoring.
type EntryProvider struct {
	clients     []llm.Client // first is primary, rest are fallbacks
	limiter     *rate.Limiter
	llmCallRepo storage.LLMCallRepository
	logger      *zap.Logger
}

// NewEntryProvider creates a provider with an ordered list of LLM clients.
func NewEntryProvider(
	clients []llm.Client,
	ratePerMinute int,
	llmCallRepo storage.LLMCallRepository,
	logger *zap.Logger,
) *EntryProvider {
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	rps := rate.Every(time.Minute / time.Duration(ratePerMinute))

	return &EntryProvider{
		clients:     clients,
		limiter:     rate.NewLimiter(rps, 1),
		llmCallRepo: llmCallRepo,
		logger:      logger,
	}
}

func (p *EntryProvider) Name() string { return "llm" }

// Configured reports whether any LLM client is available.
func (p *EntryProvider) Configured() bool { return len(p.clients) > 0 }

// WriteEntry returns the first entry any client manages to write.
func (p *EntryProvider) WriteEntry(ctx context.Context, detail *model.EntityDetail) (*EntryResult, error) {
	if len(p.clients) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	var lastErr error
	for i, client := range p.clients {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		start := time.Now()
		result, err := client.WriteEntry(ctx, detail)
		p.recordCall(ctx, client, detail.Name, err, time.Since(start).Milliseconds())

		if err == nil {
			return &EntryResult{
				EntryResult: *result,
				Provider:    client.ProviderName(),
				Model:       client.ModelName(),
			}, nil
		}

		lastErr = err

		if i < len(p.clients)-1 {
			p.logger.Warn("LLM provider failed, trying next",
				zap.String("name", detail.Name),
				zap.String("provider", client.ProviderName()),
				zap.Error(err),
			)
		}
	}

	return nil, fmt.Errorf("all LLM providers failed for %s: %w", detail.Name, lastErr)
}

func (p *EntryProvider) recordCall(ctx context.Context, client llm.Client, name string, callErr error, durationMs int64) {
	call := &model.LLMCall{
		Name:       name,
		Provider:   client.ProviderName(),
		Model:      client.ModelName(),
		Success:    callErr == nil,
		DurationMs: &durationMs,
	}
	if err := p.llmCallRepo.Create(ctx, call); err != nil {
		p.logger.Error("recording LLM call", zap.Error(err))
	}
}
