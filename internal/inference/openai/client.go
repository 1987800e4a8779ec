package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/nova-ar/arbackend/internal/inference"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Client talks to any OpenAI-compatible chat completions API.
type Client struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient: client,
		model:      model,
		logger:     logger,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

// Message content is a plain string, or a list of ContentPart when an image is attached.
type Message struct {
	Role    Role `json:"role"`
	Content any  `json:"content"`
}

type ContentPart struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *ImageURL   `json:"image_url,omitempty"`
}

type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImageURL ContentType = "image_url"
)

type ImageURL struct {
	URL string `json:"url"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (client *Client) getRequestBody(req inference.Request) ChatCompletionRequest {
	message := Message{Role: RoleUser, Content: req.Prompt}
	if req.Image != nil {
		dataURL := "data:" + req.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
		message.Content = []ContentPart{
			{Type: ContentTypeImageURL, ImageURL: &ImageURL{URL: dataURL}},
			{Type: ContentTypeText, Text: req.Prompt},
		}
	}
	return ChatCompletionRequest{
		Model:    client.model,
		Messages: []Message{message},
	}
}

// Generate implements the inference.Client interface
func (client *Client) Generate(ctx context.Context, req inference.Request) (string, error) {
	requestBody := client.getRequestBody(req)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", nil
	}
	client.logger.Debug("openai response",
		zap.String("model", responseBody.Model),
		zap.Int("totalTokens", responseBody.Usage.TotalTokens),
		zap.String("finishReason", responseBody.Choices[0].FinishReason),
	)
	return strings.TrimSpace(responseBody.Choices[0].Message.Content), nil
}
