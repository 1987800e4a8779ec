// Package google synthesizes speech with Google Cloud Text-to-Speech.
package google

import (
	"context"
	"fmt"
	"os"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/nova-ar/arbackend/internal/config"
)

type synthesizeFunc func(ctx context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error)

// Client implements speech.Synthesizer. It holds one SDK client for the process lifetime.
type Client struct {
	synthesize   synthesizeFunc
	close        func() error
	languageCode string
	voice        string
	speakingRate float64
}

// NewClient authenticates with Application Default Credentials.
// cfg.CredentialsFile is exported as GOOGLE_APPLICATION_CREDENTIALS unless the environment already sets it.
func NewClient(ctx context.Context, cfg config.GoogleSpeechConfig) (*Client, error) {
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" && cfg.CredentialsFile != "" {
		if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("os.Setenv() > %w", err)
		}
	}

	ttsClient, err := gctts.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("texttospeech.NewClient() > %w", err)
	}
	return newClient(
		func(ctx context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
			return ttsClient.SynthesizeSpeech(ctx, req)
		},
		ttsClient.Close,
		cfg,
	), nil
}

func newClient(synthesize synthesizeFunc, closeFn func() error, cfg config.GoogleSpeechConfig) *Client {
	return &Client{
		synthesize:   synthesize,
		close:        closeFn,
		languageCode: cfg.LanguageCode,
		voice:        cfg.Voice,
		speakingRate: cfg.SpeakingRate,
	}
}

func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Synthesize returns MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	req := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: c.languageCode,
			Name:         c.voice,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_MP3,
			SpeakingRate:  c.speakingRate,
		},
	}

	resp, err := c.synthesize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("SynthesizeSpeech() > %w", err)
	}
	return resp.GetAudioContent(), nil
}
