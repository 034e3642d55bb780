package intent

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	llmx "github.com/tanpawarit/chative-food-order/agent/llm"
	promptx "github.com/tanpawarit/chative-food-order/agent/prompt"
	openrouterx "github.com/tanpawarit/chative-food-order/pkg/openrouter"
)

const (
	BackendRules  = "rules"
	BackendEino   = "eino"
	BackendOpenAI = "openai"
)

// Chain asks the rule grammar first and consults Model only for queries the rules
// could not read at all.
type Chain struct {
	Rules contractx.Extractor
	Model contractx.Extractor
}

func (c *Chain) Extract(ctx context.Context, req contractx.ExtractRequest) (contractx.Intent, error) {
	in, err := c.Rules.Extract(ctx, req)
	if err != nil {
		return contractx.Intent{}, err
	}
	if c.Model == nil || in.Kind != contractx.IntentUnresolved || in.Reason != contractx.ReasonNoMatch {
		return in, nil
	}
	return c.Model.Extract(ctx, req)
}

// New builds the extractor for backend. An empty backend picks eino when a model is
// configured and the rule grammar otherwise.
func New(ctx context.Context, backend string, cfg llmx.Config) (contractx.Extractor, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = BackendRules
		if cfg.Enabled() {
			backend = BackendEino
		}
	}

	rules := NewRules()
	if backend == BackendRules {
		return rules, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	modelCfg := cfg.OpenRouterForIntent()

	switch backend {
	case BackendEino:
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create intent model: %v", contractx.ErrModelInvoke, err)
		}
		graph, err := NewGraph(ctx, chatModel, prompts.Intent)
		if err != nil {
			return nil, err
		}
		return &Chain{Rules: rules, Model: graph}, nil

	case BackendOpenAI:
		maxTokens := 0
		if modelCfg.MaxCompletionToken != nil {
			maxTokens = *modelCfg.MaxCompletionToken
		}
		completions, err := NewCompletions(openrouterx.NewClient(modelCfg), modelCfg.Model, prompts.Intent, modelCfg.Temperature, maxTokens)
		if err != nil {
			return nil, err
		}
		return &Chain{Rules: rules, Model: completions}, nil
	}
	return nil, fmt.Errorf("%w: unknown extractor backend %q", contractx.ErrValidation, backend)
}
