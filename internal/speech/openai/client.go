// Package openai synthesizes speech through an OpenAI-compatible /audio/speech endpoint, such as a Kokoro server.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "http://localhost:8102/v1"
	DefaultModel   = "kokoro"
	DefaultVoice   = "af_nova"
)

type Client struct {
	httpClient *resty.Client
	model      string
	voice      string
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

func NewClient(baseURL, apiKey, model, voice string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if voice == "" {
		voice = DefaultVoice
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{
		httpClient: client,
		model:      model,
		voice:      voice,
	}
}

// Synthesize returns MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(speechRequest{
			Model:          c.model,
			Input:          text,
			Voice:          c.voice,
			ResponseFormat: "mp3",
		}).
		Post("/audio/speech")
	if err != nil {
		return nil, fmt.Errorf("client.R.Post > %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("speech response error %d: %s", res.StatusCode(), res.String())
	}
	return res.Body(), nil
}
