package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for vision/language model calls
type Client interface {
	// Generate returns the trimmed model text, which may be empty.
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a text prompt with an optional image
type Request struct {
	Prompt string
	Image  *Image
}

type Image struct {
	Data     []byte
	MIMEType string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)
