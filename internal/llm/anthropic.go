package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/fleveque/poke-finder/internal/model"
)

// AnthropicClient implements Client using Claude with a custom submit tool
// for structured output.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Claude-powered entry writer.
func NewAnthropicClient(apiKey string, model string) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{
		client: &client,
		model:  model,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string    { return a.model }

func (a *AnthropicClient) WriteEntry(ctx context.Context, detail *model.EntityDetail) (*EntryResult, error) {
	submitTool := anthropic.ToolParam{
		Name:        submitToolName,
		Description: param.NewOpt(submitToolDescription),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: entryProperties,
		},
	}
	tools := []anthropic.ToolUnionParam{{OfTool: &submitTool}}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(detail))),
	}

	// Claude usually submits on the first turn; nudge it at most twice more.
	for i := 0; i < 3; i++ {
		message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 512,
			Messages:  messages,
			Tools:     tools,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic API call: %w", err)
		}

		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if !ok || toolUse.Name != submitToolName {
				continue
			}

			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("marshaling tool input: %w", err)
			}

			var result EntryResult
			if err := json.Unmarshal(inputBytes, &result); err != nil {
				return nil, fmt.Errorf("parsing tool input: %w", err)
			}
			if err := validate(&result, detail.Name); err != nil {
				return nil, err
			}
			return &result, nil
		}

		messages = append(messages, message.ToParam())
		messages = append(messages, anthropic.NewUserMessage(
			anthropic.NewTextBlock("Please submit the entry with the "+submitToolName+" tool."),
		))
	}

	return nil, fmt.Errorf("exceeded max turns writing entry for %s", detail.Name)
}
