package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITTSConfig holds configuration for the OpenAI TTS backend.
type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "tts-1"
	Voice   string // default: "alloy"
}

// OpenAITTS synthesizes speech using OpenAI's speech endpoint. OpenAI voices
// are not addressed by language code, so the voice in each request is
// replaced by the configured OpenAI voice.
type OpenAITTS struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAITTS creates an OpenAITTS with sensible defaults applied.
func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAITTS{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.SpeechModel(cfg.Model),
		voice:  openai.SpeechVoice(cfg.Voice),
	}
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

// Synthesize converts text to audio in the requested encoding.
func (o *OpenAITTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	format, contentType := openAIFormat(req.Audio.Encoding)

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          req.Text,
		Voice:          o.voice,
		ResponseFormat: format,
		Speed:          req.Audio.SpeakingRate,
	})
	if err != nil {
		if badRequest(err) {
			return nil, &InvalidInputError{Provider: o.Name(), Text: req.Text, Err: err}
		}
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: contentType,
	}, nil
}

func openAIFormat(e AudioEncoding) (openai.SpeechResponseFormat, string) {
	switch e {
	case EncodingLinear16:
		return openai.SpeechResponseFormatWav, "audio/wav"
	case EncodingOggOpus:
		return openai.SpeechResponseFormatOpus, "audio/ogg"
	default:
		return openai.SpeechResponseFormatMp3, "audio/mpeg"
	}
}

func badRequest(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusBadRequest
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusBadRequest
	}
	return false
}
