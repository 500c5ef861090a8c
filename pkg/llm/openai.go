// Package llm wraps OpenAI-compatible chat completion endpoints.
package llm

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/utils"
)

var _ interfaces.ChatModel = (*OpenAIChat)(nil)

// OpenAIChat sends single-turn prompts to a chat completion endpoint
type OpenAIChat struct {
	client      openai.Client
	model       string
	temperature float64
	apiKey      string
	baseURL     string
	maxRetries  int
	retryDelay  time.Duration
}

// Option configures an OpenAIChat
type Option func(*OpenAIChat)

// WithModel sets the chat model
func WithModel(model string) Option {
	return func(c *OpenAIChat) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(c *OpenAIChat) {
		c.temperature = t
	}
}

// WithAPIKey sets the API key
func WithAPIKey(apiKey string) Option {
	return func(c *OpenAIChat) {
		c.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible server
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIChat) {
		c.baseURL = baseURL
	}
}

// WithRetry sets how often and how patiently failed requests are retried
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *OpenAIChat) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// NewOpenAIChat creates a chat client. The default model is gpt-4o-mini at temperature 0.
func NewOpenAIChat(opts ...Option) *OpenAIChat {
	c := &OpenAIChat{
		model:      constants.DefaultChatModel,
		maxRetries: constants.DefaultMaxRetries,
		retryDelay: constants.DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	var clientOpts []option.RequestOption
	if c.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(c.apiKey))
	}
	if c.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(c.baseURL))
	}
	clientOpts = append(clientOpts, option.WithMaxRetries(0))

	c.client = openai.NewClient(clientOpts...)
	return c
}

// Model returns the chat model name
func (c *OpenAIChat) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the reply text
func (c *OpenAIChat) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", utils.NewValidationError("prompt cannot be empty", nil)
	}

	return c.send(ctx, openai.ChatCompletionUserMessageParamContentUnion{
		OfString: openai.String(prompt),
	})
}

// CompleteWithImage sends an instruction together with an image and returns
// the reply text
func (c *OpenAIChat) CompleteWithImage(ctx context.Context, instruction string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", utils.NewValidationError("image cannot be empty", nil)
	}

	dataURL := "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: instruction}},
		{OfImageURL: &openai.ChatCompletionContentPartImageParam{
			ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL, Detail: "high"},
		}},
	}
	return c.send(ctx, openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts})
}

func (c *OpenAIChat) send(ctx context.Context, content openai.ChatCompletionUserMessageParamContentUnion) (string, error) {
	request := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{OfUser: &openai.ChatCompletionUserMessageParam{Content: content}},
		},
		Temperature: openai.Float(c.temperature),
	}

	var completion *openai.ChatCompletion
	retrier := utils.NewBackoffRetrier(c.maxRetries, c.retryDelay)
	err := retrier.Do(ctx, func() error {
		rsp, err := c.client.Chat.Completions.New(ctx, request)
		if err != nil {
			return WrapAPIError("chat completion request failed", err)
		}
		completion = rsp
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", utils.NewUpstreamError("chat completion returned no choices", nil)
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
