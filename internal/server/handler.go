package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/h2non/filetype"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nova-ar/arbackend/internal/answer"
	"github.com/nova-ar/arbackend/internal/inference"
)

// Answerer is implemented by *answer.Service.
type Answerer interface {
	Resolve(ctx context.Context, req answer.Request) (answer.Result, error)
	Identify(ctx context.Context, image inference.Image) (answer.IdentifyResult, error)
	AskAboutImage(ctx context.Context, image inference.Image, question string) (answer.Result, error)
}

// Synthesizer is implemented by *speech.Adapter.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	answers     Answerer
	synthesizer Synthesizer
	store       Pinger
	logger      *zap.Logger
}

func NewHandler(answers Answerer, synthesizer Synthesizer, store Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		answers:     answers,
		synthesizer: synthesizer,
		store:       store,
		logger:      logger,
	}
}

type textToSpeechRequest struct {
	Text string `json:"text"`
}

type identifyRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type identifyResponse struct {
	Status      string `json:"status"`
	ObjectName  string `json:"object_name"`
	AudioBase64 string `json:"audio_base64"`
}

type askRequest struct {
	ObjectName     string `json:"object_name"`
	QuestionKey    string `json:"question_key"`
	CustomQuestion string `json:"custom_question"`
}

type answerResponse struct {
	Status      string `json:"status"`
	Jawaban     string `json:"jawaban"`
	AudioBase64 string `json:"audio_base64"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func fail(code int, message string) error {
	return echo.NewHTTPError(code, message)
}

// serviceError maps the answer service's error kinds to HTTP statuses. Upstream details are logged, not returned.
func (h *Handler) serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, answer.ErrInvalidRequest):
		return fail(http.StatusBadRequest, strings.TrimPrefix(err.Error(), answer.ErrInvalidRequest.Error()+": "))
	case errors.Is(err, answer.ErrUpstream):
		h.logger.Error("model call failed", zap.String("path", c.Path()), zap.Error(err))
		return fail(http.StatusInternalServerError, "Layanan AI sedang tidak tersedia, coba lagi nanti")
	default:
		return err
	}
}

func (h *Handler) Index(c echo.Context) error {
	return c.String(http.StatusOK, "AR learning backend is running")
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		return fail(http.StatusServiceUnavailable, "database tidak tersedia")
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// TextToSpeech streams MP3 audio for arbitrary text.
func (h *Handler) TextToSpeech(c echo.Context) error {
	var req textToSpeechRequest
	if err := c.Bind(&req); err != nil {
		return fail(http.StatusBadRequest, "JSON tidak valid")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return fail(http.StatusBadRequest, "Teks kosong")
	}

	audio, err := h.synthesizer.Synthesize(c.Request().Context(), text)
	if err != nil {
		h.logger.Error("text to speech failed", zap.Error(err))
		return fail(http.StatusInternalServerError, "Gagal membuat suara")
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// IdentifyObject accepts a multipart "file" or a JSON body with image_base64.
func (h *Handler) IdentifyObject(c echo.Context) error {
	var data []byte
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		d, err := readFormFile(c, "file")
		if err != nil {
			return err
		}
		data = d
	} else {
		var req identifyRequest
		if err := c.Bind(&req); err != nil || req.ImageBase64 == "" {
			return fail(http.StatusBadRequest, "Kirim file gambar atau JSON image_base64")
		}
		d, err := decodeBase64Image(req.ImageBase64)
		if err != nil {
			return fail(http.StatusBadRequest, "image_base64 tidak valid")
		}
		data = d
	}

	image, err := detectImage(data)
	if err != nil {
		return err
	}
	result, err := h.answers.Identify(c.Request().Context(), image)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, identifyResponse{
		Status:      statusSuccess,
		ObjectName:  result.ObjectName,
		AudioBase64: result.AudioBase64,
	})
}

func (h *Handler) AskAI(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return fail(http.StatusBadRequest, "Data tidak lengkap")
	}
	if strings.TrimSpace(req.ObjectName) == "" || strings.TrimSpace(req.QuestionKey) == "" {
		return fail(http.StatusBadRequest, "Data tidak lengkap")
	}

	result, err := h.answers.Resolve(c.Request().Context(), answer.Request{
		ObjectName:     req.ObjectName,
		QuestionKey:    req.QuestionKey,
		CustomQuestion: req.CustomQuestion,
	})
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, answerResponse{
		Status:      statusSuccess,
		Jawaban:     result.Answer,
		AudioBase64: result.AudioBase64,
	})
}

// AskAboutImage accepts a multipart "image_file" with a "question_text" form field.
func (h *Handler) AskAboutImage(c echo.Context) error {
	data, err := readFormFile(c, "image_file")
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusBadRequest {
			return fail(http.StatusBadRequest, "Kirim file gambar dan teks pertanyaan")
		}
		return err
	}
	question := strings.TrimSpace(c.FormValue("question_text"))
	if question == "" {
		return fail(http.StatusBadRequest, "Kirim file gambar dan teks pertanyaan")
	}
	image, err := detectImage(data)
	if err != nil {
		return err
	}

	result, err := h.answers.AskAboutImage(c.Request().Context(), image, question)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, answerResponse{
		Status:      statusSuccess,
		Jawaban:     result.Answer,
		AudioBase64: result.AudioBase64,
	})
}

func readFormFile(c echo.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return nil, fail(http.StatusRequestEntityTooLarge, "Berkas terlalu besar")
		}
		return nil, fail(http.StatusBadRequest, fmt.Sprintf("Kirim file gambar di field %q", field))
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("header.Open() > %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll(%s) > %w", field, err)
	}
	return data, nil
}

// decodeBase64Image accepts raw base64 or a data URL.
func decodeBase64Image(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return data, nil
}

func detectImage(data []byte) (inference.Image, error) {
	if len(data) == 0 {
		return inference.Image{}, fail(http.StatusBadRequest, "Berkas gambar kosong")
	}
	if !filetype.IsImage(data) {
		return inference.Image{}, fail(http.StatusBadRequest, "Berkas bukan gambar")
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return inference.Image{}, fail(http.StatusBadRequest, "Berkas bukan gambar")
	}
	return inference.Image{Data: data, MIMEType: kind.MIME.Value}, nil
}
