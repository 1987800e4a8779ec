// Package speech turns answer text into spoken audio.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

//go:generate mockgen -source=speech.go -destination=../mocks/speech/mock_synthesizer.go -package=mock_speech

// Synthesizer converts text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

const (
	BackendGoogle = "google"
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

var ErrDisabled = errors.New("speech synthesis is disabled")

// Disabled is the Synthesizer used when no backend is configured.
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string) ([]byte, error) {
	return nil, ErrDisabled
}

// Adapter runs a Synthesizer on its own goroutine and blocks until it finishes.
type Adapter struct {
	synthesizer Synthesizer
	logger      *zap.Logger
	timeout     time.Duration
}

func NewAdapter(synthesizer Synthesizer, logger *zap.Logger) *Adapter {
	if synthesizer == nil {
		synthesizer = Disabled{}
	}
	return &Adapter{
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// WithTimeout bounds every backend call. Zero or less leaves calls bounded by the caller's context only.
func (a *Adapter) WithTimeout(d time.Duration) *Adapter {
	a.timeout = d
	return a
}

type result struct {
	audio []byte
	err   error
}

// Synthesize returns the audio for text, or the backend's error.
func (a *Adapter) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("nothing to synthesize")
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("synthesizer panicked: %v", r)}
			}
		}()
		audio, err := a.synthesizer.Synthesize(ctx, text)
		done <- result{audio: audio, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && len(r.audio) == 0 {
			return nil, errors.New("synthesizer returned no audio")
		}
		return r.audio, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SynthesizeBase64 never fails: any error is logged and reported as "", meaning no audio.
func (a *Adapter) SynthesizeBase64(ctx context.Context, text string) string {
	started := time.Now()
	audio, err := a.Synthesize(ctx, text)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			a.logger.Warn("speech synthesis failed", zap.Int("textLength", len(text)), zap.Error(err))
		}
		return ""
	}
	a.logger.Debug("speech synthesized",
		zap.Int("bytes", len(audio)),
		zap.Duration("took", time.Since(started)),
	)
	return base64.StdEncoding.EncodeToString(audio)
}
