package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/xiv-ai/knowledge/completion"
)

type openAIClient struct {
	options completion.Options
	client  *openai.Client
}

func (c *openAIClient) Chat(ctx context.Context, messages []completion.Message, maxTokens int) (*completion.Response, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.options.Model,
		Messages:    chatMessages,
		MaxTokens:   maxTokens,
		Temperature: c.options.Temperature,
	}

	rsp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return &completion.Response{
		Content: rsp.Choices[0].Message.Content,
		Tokens:  rsp.Usage.TotalTokens,
	}, nil
}

func NewClient(opts ...completion.Option) completion.Client {
	options := completion.NewOptions(opts...)

	c := &openAIClient{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	c.client = client

	return c
}
