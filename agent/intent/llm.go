package intent

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// Graph extracts intents with a prompt -> chat model -> JSON parser eino graph.
type Graph struct {
	runner compose.Runnable[map[string]any, modelIntent]
}

func NewGraph(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Graph, error) {
	runner, err := compileStructuredLLMGraph[modelIntent](ctx, chatModel, systemPrompt, "intent.extract_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile intent graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Graph{runner: runner}, nil
}

func (g *Graph) Extract(ctx context.Context, req contractx.ExtractRequest) (contractx.Intent, error) {
	input, err := marshalRequest(req)
	if err != nil {
		return contractx.Intent{}, err
	}

	out, err := g.runner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		return contractx.Intent{}, fmt.Errorf("%w: intent graph invoke: %v", contractx.ErrModelInvoke, err)
	}
	return ground(out, req)
}

func compileStructuredLLMGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add structured edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add structured edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add structured edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add structured edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}
