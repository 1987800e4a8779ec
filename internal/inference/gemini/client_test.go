package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-ar/arbackend/internal/inference"
)

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name              string
		request           inference.Request
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		want    string
		wantErr string
	}{
		{
			name:    "text prompt",
			request: inference.Request{Prompt: "Spell the word 'book'."},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1beta/models/gemini-2.5-flash-lite:generateContent", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

				var body generateRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Len(t, body.Contents, 1)
				assert.Equal(t, "user", body.Contents[0].Role)
				require.Len(t, body.Contents[0].Parts, 1)
				assert.Equal(t, "Spell the word 'book'.", body.Contents[0].Parts[0].Text)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"candidates":[{"content":{"parts":[{"text":"B. O. O. K.\n"}],"role":"model"},"finishReason":"STOP"}]
				}`))
			},
			want: "B. O. O. K.",
		},
		{
			name: "image is sent before the prompt",
			request: inference.Request{
				Prompt: "What is this?",
				Image:  &inference.Image{Data: []byte("fake-png"), MIMEType: "image/png"},
			},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var body generateRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Len(t, body.Contents, 1)
				parts := body.Contents[0].Parts
				require.Len(t, parts, 2)
				require.NotNil(t, parts[0].InlineData)
				assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
				assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("fake-png")), parts[0].InlineData.Data)
				assert.Equal(t, "What is this?", parts[1].Text)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"candidates":[{"content":{"parts":[{"text":"lamp"}],"role":"model"}}]
				}`))
			},
			want: "lamp",
		},
		{
			name:    "multiple parts are joined",
			request: inference.Request{Prompt: "What is a book?"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"candidates":[{"content":{"parts":[{"text":"A book has pages, "},{"text":"with words."}],"role":"model"}}]
				}`))
			},
			want: "A book has pages, with words.",
		},
		{
			name:    "no candidates gives empty text",
			request: inference.Request{Prompt: "What is this?"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"candidates":[]}`))
			},
			want: "",
		},
		{
			name:    "api error",
			request: inference.Request{Prompt: "What is this?"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
			},
			wantErr: "status=429",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client, err := NewClient(context.Background(), "test-key", "", server.URL, 0)
			require.NoError(t, err)
			assert.Equal(t, DefaultModel, client.GetModel())

			got, err := client.Generate(context.Background(), tt.request)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
