// Package answer resolves student questions about recognized objects, serving cached answers when it can.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nova-ar/arbackend/internal/inference"
	"github.com/nova-ar/arbackend/internal/knowledge"
	"github.com/nova-ar/arbackend/internal/object"
	"github.com/nova-ar/arbackend/internal/prompt"
)

var (
	// ErrInvalidRequest marks input the caller can correct.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream marks a failed model call. It is never retried.
	ErrUpstream = errors.New("model call failed")
)

// NoAnswer replaces an empty reply to a question about a photo.
const NoAnswer = "Sorry, I don't know how to answer that."

type Request struct {
	ObjectName     string
	QuestionKey    string
	CustomQuestion string
}

type Result struct {
	Answer string
	// AudioBase64 is empty when no audio could be produced.
	AudioBase64 string
	Cached      bool
}

type IdentifyResult struct {
	// ObjectName is empty or "unknown" when nothing was recognized.
	ObjectName  string
	AudioBase64 string
}

// Speaker produces base64 audio, or "" when synthesis is unavailable.
type Speaker interface {
	SynthesizeBase64(ctx context.Context, text string) string
}

type Service struct {
	repository object.Repository
	model      inference.Client
	knowledge  *knowledge.Base
	speaker    Speaker
	logger     *zap.Logger
}

func NewService(
	repository object.Repository,
	model inference.Client,
	kb *knowledge.Base,
	speaker Speaker,
	logger *zap.Logger,
) *Service {
	if kb == nil {
		kb = knowledge.Empty()
	}
	return &Service{
		repository: repository,
		model:      model,
		knowledge:  kb,
		speaker:    speaker,
		logger:     logger,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Resolve answers one question about an object. Fixed categories are served from the answer store when
// the cell is filled, otherwise the model is asked once and the answer is stored. Custom questions always
// go to the model and are never stored.
func (s *Service) Resolve(ctx context.Context, req Request) (Result, error) {
	name := object.NormalizeName(req.ObjectName)
	if name == "" {
		return Result{}, invalid("object_name is required")
	}
	if strings.TrimSpace(req.QuestionKey) == "" {
		return Result{}, invalid("question_key is required")
	}
	category, ok := object.ParseCategory(req.QuestionKey)
	if !ok {
		return Result{}, invalid("unknown question_key %q", req.QuestionKey)
	}
	question := strings.TrimSpace(req.CustomQuestion)
	if category == object.CategoryCustom && question == "" {
		return Result{}, invalid("custom_question is required for question_key %q", object.CategoryCustom)
	}

	log := s.logger.With(zap.String("object", name), zap.Stringer("category", category))

	if category.Cacheable() {
		record, err := s.repository.Get(ctx, name)
		if err != nil {
			log.Warn("answer cache unavailable, asking the model", zap.Error(err))
		} else if cached, ok := record.Answer(category); ok {
			log.Debug("answer cache hit")
			return Result{
				Answer:      cached,
				AudioBase64: s.speaker.SynthesizeBase64(ctx, cached),
				Cached:      true,
			}, nil
		}
	}

	var entry *knowledge.Entry
	if e, ok := s.knowledge.Lookup(name); ok {
		entry = &e
	}
	p, err := prompt.Build(category, name, question, entry)
	if err != nil {
		return Result{}, fmt.Errorf("%w: prompt.Build > %w", ErrInvalidRequest, err)
	}

	text, err := s.model.Generate(ctx, inference.Request{Prompt: p})
	if err != nil {
		return Result{}, fmt.Errorf("%w: model.Generate > %w", ErrUpstream, err)
	}
	if text == "" {
		return Result{}, fmt.Errorf("%w: empty answer for %q", ErrUpstream, name)
	}

	result := Result{
		Answer:      text,
		AudioBase64: s.speaker.SynthesizeBase64(ctx, text),
	}

	if category.Cacheable() {
		s.persist(ctx, log, name, category, text)
	}
	return result, nil
}

// persist is best-effort: failures are logged and the answer is still returned.
func (s *Service) persist(ctx context.Context, log *zap.Logger, name string, category object.Category, text string) {
	if err := s.repository.Upsert(ctx, name); err != nil {
		log.Warn("failed to create object record", zap.Error(err))
		return
	}
	updated, err := s.repository.SetField(ctx, name, category, text)
	if err != nil {
		log.Warn("failed to cache answer", zap.Error(err))
		return
	}
	if !updated {
		log.Warn("no object record to cache the answer in")
	}
}

// Identify names the object on the AR marker. A recognized object is greeted aloud and recorded in the
// answer store; recording is best-effort.
func (s *Service) Identify(ctx context.Context, image inference.Image) (IdentifyResult, error) {
	if len(image.Data) == 0 {
		return IdentifyResult{}, invalid("image is required")
	}

	text, err := s.model.Generate(ctx, inference.Request{
		Prompt: prompt.IdentifyObject(),
		Image:  &image,
	})
	if err != nil {
		return IdentifyResult{}, fmt.Errorf("%w: model.Generate > %w", ErrUpstream, err)
	}

	name := object.NormalizeLabel(text)
	result := IdentifyResult{ObjectName: name}
	if name == "" || name == prompt.UnknownObject {
		return result, nil
	}

	result.AudioBase64 = s.speaker.SynthesizeBase64(ctx, "I see a "+name)
	if err := s.repository.Upsert(ctx, name); err != nil {
		s.logger.Warn("failed to record identified object", zap.String("object", name), zap.Error(err))
	}
	return result, nil
}

// AskAboutImage answers a free question about a photo. Nothing is cached.
func (s *Service) AskAboutImage(ctx context.Context, image inference.Image, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if len(image.Data) == 0 || question == "" {
		return Result{}, invalid("image and question_text are required")
	}

	text, err := s.model.Generate(ctx, inference.Request{
		Prompt: prompt.AskAboutImage(question),
		Image:  &image,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: model.Generate > %w", ErrUpstream, err)
	}
	if text == "" {
		text = NoAnswer
	}
	return Result{
		Answer:      text,
		AudioBase64: s.speaker.SynthesizeBase64(ctx, text),
	}, nil
}
