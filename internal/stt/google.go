package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/rs/zerolog"
)

// GoogleClient implements Transcriber using the Google Cloud Speech-to-Text
// synchronous Recognize call, configured for telephony G.711 μ-law audio.
type GoogleClient struct {
	client     *speech.Client
	language   string
	sampleRate int32
	phrases    []string
	logger     zerolog.Logger
}

// NewGoogleClient creates a Speech-to-Text client. Credentials come from the
// environment (GOOGLE_APPLICATION_CREDENTIALS), as the client library expects.
// phrases biases recognition toward domain vocabulary such as menu items.
func NewGoogleClient(ctx context.Context, cfg *config.Config, phrases []string, logger zerolog.Logger) (*GoogleClient, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleClient{
		client:     client,
		language:   cfg.SpeechLanguage,
		sampleRate: int32(cfg.SpeechSampleRate),
		phrases:    phrases,
		logger:     logger.With().Str("component", "stt").Logger(),
	}, nil
}

// Transcribe runs one buffered turn through Recognize and joins the
// alternatives into a single best-effort transcript.
func (g *GoogleClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_MULAW,
			SampleRateHertz: g.sampleRate,
			LanguageCode:    g.language,
			MaxAlternatives: 1,
			Model:           "phone_call",
			SpeechContexts: []*speechpb.SpeechContext{{
				Phrases: g.phrases,
				Boost:   50.0,
			}},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("recognize failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			if alt.Transcript == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(alt.Transcript)
		}
	}

	text := sb.String()
	g.logger.Debug().Int("audio_bytes", len(audio)).Int("text_len", len(text)).Msg("Turn transcribed")
	return text, nil
}

// Close releases the underlying gRPC connection
func (g *GoogleClient) Close() error {
	return g.client.Close()
}
