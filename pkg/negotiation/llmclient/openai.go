package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// OpenAI implements protocol.LLMClient against the Chat Completions API.
type OpenAI struct {
	client sdk.Client
	model  string
}

func NewOpenAI(apiKey, model string, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai client: apiKey must not be empty")
	}
	if model == "" {
		model = "gpt-4o"
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{client: sdk.NewClient(reqOpts...), model: model}, nil
}

func (o *OpenAI) Chat(ctx context.Context, messages []protocol.Message, systemPrompt string, tools []protocol.ToolDefinition) (*protocol.LLMResponse, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(o.model),
		Messages: convertOpenAIMessages(systemPrompt, messages),
	}
	if len(tools) > 0 {
		params.Tools = convertOpenAITools(tools)
	}

	comp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, protocol.NewLLMError("openai chat completions failed", err)
	}
	if len(comp.Choices) == 0 {
		return nil, protocol.NewLLMError("openai returned no choices", nil)
	}

	choice := comp.Choices[0]
	resp := &protocol.LLMResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		switch v := tc.AsAny().(type) {
		case sdk.ChatCompletionMessageFunctionToolCall:
			var args map[string]any
			if err := json.Unmarshal([]byte(v.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			resp.ToolCalls = append(resp.ToolCalls, protocol.ToolCall{Name: v.Function.Name, Arguments: args})
		}
	}
	return resp, nil
}

func convertOpenAIMessages(systemPrompt string, messages []protocol.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, sdk.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			out = append(out, sdk.AssistantMessage(m.Content))
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

func convertOpenAITools(tools []protocol.ToolDefinition) []sdk.ChatCompletionToolUnionParam {
	out := make([]sdk.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        t.Name,
			Description: sdk.String(t.Description),
			Parameters:  sdk.FunctionParameters(t.InputSchema),
		}))
	}
	return out
}
