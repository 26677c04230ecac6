package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const titleInstruction = "Generate a very short, concise title (max 5 words) for a chat that starts with this message: '%s'. Return ONLY the title, no quotes or extra text."

// ChatMessage is one {role, content} pair of the prompt context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Fragment is one produced item of a completion stream. Provider or
// transport failures are surfaced as a final fragment whose Text is a
// diagnostic ("Error: ...") and whose Err is non-nil, so callers can
// distinguish them from model output and decide what to persist.
type Fragment struct {
	Text string
	Err  error
}

// Client wraps the external chat-completion provider. The provider speaks
// the OpenAI wire format, streaming included.
type Client struct {
	api        *openai.Client
	titleModel string
}

func NewClient(apiKey, baseURL, titleModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		titleModel: titleModel,
	}
}

// StreamCompletion issues one streaming completion request and returns a
// finite, non-restartable sequence of text fragments in provider order.
// The channel is closed on the provider's end-of-stream sentinel. On any
// failure a single diagnostic fragment is emitted and the sequence ends.
func (c *Client) StreamCompletion(ctx context.Context, messages []ChatMessage, model string) <-chan Fragment {
	out := make(chan Fragment)

	go func() {
		defer close(out)

		req := openai.ChatCompletionRequest{
			Model:    model,
			Messages: toOpenAIMessages(messages),
			Stream:   true,
		}

		stream, err := c.api.CreateChatCompletionStream(ctx, req)
		if err != nil {
			logrus.WithError(err).WithField("model", model).Error("Completion stream request failed")
			out <- Fragment{Text: fmt.Sprintf("Error: %v", err), Err: err}
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				logrus.WithError(err).WithField("model", model).Error("Completion stream read failed")
				out <- Fragment{Text: fmt.Sprintf("Error: %v", err), Err: err}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				out <- Fragment{Text: delta}
			}
		}
	}()

	return out
}

// GenerateTitle makes a one-shot, non-streaming completion summarizing the
// first user message into a short chat title.
func (c *Client) GenerateTitle(ctx context.Context, content string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.titleModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(titleInstruction, content),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("title completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("title completion returned no choices")
	}

	title := strings.Trim(resp.Choices[0].Message.Content, "\"'\n\r\t .")
	if title == "" {
		return "", fmt.Errorf("title completion returned an empty title")
	}
	return title, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
