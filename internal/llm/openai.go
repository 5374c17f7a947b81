package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fleveque/poke-finder/internal/model"
)

// OpenAIClient implements Client using OpenAI function calling.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI-powered entry writer.
func NewOpenAIClient(apiKey string, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string    { return o.model }

func (o *OpenAIClient) WriteEntry(ctx context.Context, detail *model.EntityDetail) (*EntryResult, error) {
	tools := []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        submitToolName,
				Description: submitToolDescription,
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": entryProperties,
					"required":   []string{"category", "text"},
				},
			},
		},
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are the voice of a Pokédex. Answer only through the " + submitToolName + " function.",
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: buildPrompt(detail),
		},
	}

	for i := 0; i < 3; i++ {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    o.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return nil, fmt.Errorf("openai API call: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai returned no choices")
		}

		choice := resp.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			messages = append(messages, choice.Message, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: "Please submit the entry with the " + submitToolName + " function.",
			})
			continue
		}

		messages = append(messages, choice.Message)
		for _, toolCall := range choice.Message.ToolCalls {
			if toolCall.Function.Name != submitToolName {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    "Unknown function. Call " + submitToolName + ".",
					ToolCallID: toolCall.ID,
				})
				continue
			}

			var result EntryResult
			if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &result); err != nil {
				return nil, fmt.Errorf("parsing tool arguments: %w", err)
			}
			if err := validate(&result, detail.Name); err != nil {
				return nil, err
			}
			return &result, nil
		}
	}

	return nil, fmt.Errorf("exceeded max turns writing entry for %s", detail.Name)
}
