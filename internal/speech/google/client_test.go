package google

import (
	"context"
	"errors"
	"testing"

	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-ar/arbackend/internal/config"
)

func TestClient_Synthesize(t *testing.T) {
	cfg := config.GoogleSpeechConfig{
		LanguageCode: "en-US",
		Voice:        "en-US-Neural2-F",
		SpeakingRate: 0.9,
	}

	tests := []struct {
		name       string
		synthesize synthesizeFunc
		want       []byte
		wantErr    bool
	}{
		{
			name: "builds an mp3 request",
			synthesize: func(_ context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
				assert.Equal(t, "I see a book", req.GetInput().GetText())
				assert.Equal(t, "en-US", req.GetVoice().GetLanguageCode())
				assert.Equal(t, "en-US-Neural2-F", req.GetVoice().GetName())
				assert.Equal(t, ttspb.AudioEncoding_MP3, req.GetAudioConfig().GetAudioEncoding())
				assert.InDelta(t, 0.9, req.GetAudioConfig().GetSpeakingRate(), 1e-9)
				return &ttspb.SynthesizeSpeechResponse{AudioContent: []byte("mp3")}, nil
			},
			want: []byte("mp3"),
		},
		{
			name: "api error",
			synthesize: func(context.Context, *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
				return nil, errors.New("permission denied")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closed := false
			client := newClient(tt.synthesize, func() error {
				closed = true
				return nil
			}, cfg)

			got, err := client.Synthesize(context.Background(), "I see a book")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			require.NoError(t, client.Close())
			assert.True(t, closed)
		})
	}
}
