package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client wraps the OpenAI SDK and composes what a reminder call says.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
	log    *slog.Logger
}

// ErrEmptyInput is returned when there is nothing to compose from.
var ErrEmptyInput = errors.New("openai: empty input")

// New returns a client. Without an API key the client composes locally.
func New(apiKey string, log *slog.Logger) *Client {
	c := &Client{log: log.With("adapter", "openai")}
	if apiKey == "" {
		return c
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c.client = &client
	c.model = openai.ChatModelGPT4oMini
	return c
}

// ComposeSpokenText turns a reminder title into one short sentence suitable
// for reading aloud. Without an API key, or when the model fails, the
// title itself is returned.
func (c *Client) ComposeSpokenText(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyInput
	}
	if c.client == nil {
		return title, nil
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You write one short, friendly sentence that a voice assistant reads aloud to remind someone of a task. No quotes, no emojis."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(fmt.Sprintf("Reminder: %s", title)),
					},
				},
			},
		},
		Temperature:         openai.Float(0.3),
		MaxCompletionTokens: openai.Int(60),
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		c.log.WarnContext(ctx, "compose spoken text failed, using title", slog.String("error", err.Error()))
		return title, nil
	}
	if len(resp.Choices) == 0 {
		return title, nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return title, nil
	}
	return text, nil
}
