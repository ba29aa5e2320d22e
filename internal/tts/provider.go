package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/pdf2speech/internal/config"
)

type AudioEncoding string

const (
	EncodingMP3      AudioEncoding = "MP3"
	EncodingLinear16 AudioEncoding = "LINEAR16"
	EncodingOggOpus  AudioEncoding = "OGG_OPUS"
)

// ContentType is the MIME type of audio produced with this encoding.
func (e AudioEncoding) ContentType() string {
	switch e {
	case EncodingLinear16:
		return "audio/wav"
	case EncodingOggOpus:
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}

// Voice selects who reads the text.
type Voice struct {
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
}

type AudioConfig struct {
	Encoding     AudioEncoding `json:"encoding"`
	SpeakingRate float64       `json:"speaking_rate"`
}

// SynthesisRequest holds the parameters for text-to-speech generation.
type SynthesisRequest struct {
	Text  string      `json:"text"`
	Voice Voice       `json:"voice"`
	Audio AudioConfig `json:"audio"`
}

// SynthesisResult holds the generated audio and its content type.
type SynthesisResult struct {
	Audio       []byte
	ContentType string
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
	Name() string
}

// Settings is the voice and audio configuration shared by every request of a run.
type Settings struct {
	Voice Voice
	Audio AudioConfig
}

func SettingsFromConfig(cfg config.TTSConfig) Settings {
	return Settings{
		Voice: Voice{LanguageCode: cfg.LanguageCode, Name: cfg.VoiceName},
		Audio: AudioConfig{Encoding: AudioEncoding(strings.ToUpper(cfg.AudioEncoding)), SpeakingRate: cfg.SpeakingRate},
	}
}

// Request builds the synthesis request for text with these settings.
func (s Settings) Request(text string) SynthesisRequest {
	return SynthesisRequest{Text: text, Voice: s.Voice, Audio: s.Audio}
}

// New builds the provider named by cfg.Backend.
func New(ctx context.Context, cfg config.TTSConfig) (Provider, error) {
	switch cfg.Backend {
	case "", "google":
		return NewGoogleTTS(ctx, GoogleTTSConfig{
			CredentialsFile: cfg.GoogleCredentialsFile,
			APIKey:          cfg.GoogleAPIKey,
			Endpoint:        cfg.GoogleEndpoint,
			Debug:           cfg.Debug,
		})
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai tts requires OPENAI_API_KEY")
		}
		return NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Voice:   cfg.OpenAIVoice,
		}), nil
	case "local":
		return NewLocalTTS(LocalTTSConfig{
			PiperBinPath: cfg.LocalBinPath,
			ModelPath:    cfg.LocalModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
}
