package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// Completions extracts intents with one JSON-mode chat completion through the OpenAI SDK.
type Completions struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int64
}

func NewCompletions(client *openai.Client, model, systemPrompt string, temperature float32, maxTokens int) (*Completions, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return &Completions{
		client:       client,
		model:        strings.TrimSpace(model),
		systemPrompt: systemPrompt,
		temperature:  float64(temperature),
		maxTokens:    int64(maxTokens),
	}, nil
}

func (c *Completions) Extract(ctx context.Context, req contractx.ExtractRequest) (contractx.Intent, error) {
	input, err := marshalRequest(req)
	if err != nil {
		return contractx.Intent{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(input),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.Intent{}, fmt.Errorf("%w: chat completion returned no choices", contractx.ErrSchemaViolation)
	}

	out, err := decodeModelIntent(resp.Choices[0].Message.Content)
	if err != nil {
		return contractx.Intent{}, err
	}
	return ground(out, req)
}
