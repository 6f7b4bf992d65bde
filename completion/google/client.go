package google

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/xiv-ai/knowledge/completion"
	genaiopt "google.golang.org/api/option"
)

type googleClient struct {
	options completion.Options
	client  *genai.Client
}

func (c *googleClient) Chat(ctx context.Context, messages []completion.Message, maxTokens int) (*completion.Response, error) {
	model := c.client.GenerativeModel(c.options.Model)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SetTemperature(c.options.Temperature)

	var parts []genai.Part
	for _, m := range messages {
		if m.Role == completion.RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}

	rsp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Google")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	var tokens int
	if rsp.UsageMetadata != nil {
		tokens = int(rsp.UsageMetadata.TotalTokenCount)
	}

	return &completion.Response{
		Content: b.String(),
		Tokens:  tokens,
	}, nil
}

func NewClient(opts ...completion.Option) completion.Client {
	options := completion.NewOptions(opts...)

	c := &googleClient{
		options: options,
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	c.client = client

	return c
}
