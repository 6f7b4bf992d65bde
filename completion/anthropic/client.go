package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/xiv-ai/knowledge/completion"
)

type anthropicClient struct {
	options completion.Options
	client  *anthropic.Client
}

func (c *anthropicClient) Chat(ctx context.Context, messages []completion.Message, maxTokens int) (*completion.Response, error) {
	var system string
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case completion.RoleSystem:
			system = m.Content
		case completion.RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.options.Model),
		MaxTokens: int64(maxTokens),
		Messages:  params,
	}

	if len(system) > 0 {
		req.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	rsp, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return nil, errors.New("no response from Anthropic")
	}

	return &completion.Response{
		Content: result,
		Tokens:  int(rsp.Usage.InputTokens + rsp.Usage.OutputTokens),
	}, nil
}

func NewClient(opts ...completion.Option) completion.Client {
	options := completion.NewOptions(opts...)

	c := &anthropicClient{
		options: options,
	}

	client := anthropic.NewClient(
		anthropicopt.WithAPIKey(options.ApiKey),
	)

	c.client = &client

	return c
}
