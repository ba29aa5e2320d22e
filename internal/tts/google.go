package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
	htransport "google.golang.org/api/transport/http"
)

// GoogleTTSConfig holds configuration for the Google Cloud Text-to-Speech backend.
type GoogleTTSConfig struct {
	CredentialsFile string // service account JSON; empty uses application default credentials
	APIKey          string // used instead of credentials when set
	Endpoint        string // default: the public endpoint
	Debug           bool
}

// GoogleTTS synthesizes speech with Google Cloud Text-to-Speech.
type GoogleTTS struct {
	svc *texttospeech.Service
}

// NewGoogleTTS authenticates and builds the Text-to-Speech client.
func NewGoogleTTS(ctx context.Context, cfg GoogleTTSConfig) (*GoogleTTS, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.APIKey != "" && cfg.Debug:
		// A supplied HTTP client bypasses WithAPIKey, so the key goes into
		// the client before the logging transport wraps it.
		client, _, err := htransport.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("create keyed http client: %w", err)
		}
		client.Transport = &loggingTransport{base: client.Transport}
		opts = append(opts, option.WithHTTPClient(client))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		client, err := credentialsClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	}

	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create texttospeech service: %w", err)
	}
	return NewGoogleTTSWithService(svc), nil
}

// NewGoogleTTSWithService wraps an already configured service.
func NewGoogleTTSWithService(svc *texttospeech.Service) *GoogleTTS {
	return &GoogleTTS{svc: svc}
}

func credentialsClient(ctx context.Context, cfg GoogleTTSConfig) (*http.Client, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if cfg.CredentialsFile != "" {
		b, rerr := os.ReadFile(cfg.CredentialsFile)
		if rerr != nil {
			return nil, fmt.Errorf("read google credentials: %w", rerr)
		}
		creds, err = google.CredentialsFromJSON(ctx, b, texttospeech.CloudPlatformScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, texttospeech.CloudPlatformScope)
	}
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}

	client := oauth2.NewClient(ctx, creds.TokenSource)
	if cfg.Debug {
		client.Transport = &loggingTransport{base: client.Transport}
	}
	return client, nil
}

func (g *GoogleTTS) Name() string { return "google-tts" }

// Synthesize sends one text:synthesize request. Empty text is sent as is and
// left for the service to judge. A 400 response is returned as an
// *InvalidInputError.
func (g *GoogleTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	encoding := req.Audio.Encoding
	if encoding == "" {
		encoding = EncodingMP3
	}

	call := g.svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{
			Text:            req.Text,
			ForceSendFields: []string{"Text"},
		},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: req.Voice.LanguageCode,
			Name:         req.Voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: string(encoding),
			SpeakingRate:  req.Audio.SpeakingRate,
		},
	})

	resp, err := call.Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return nil, &InvalidInputError{Provider: g.Name(), Text: req.Text, Err: err}
		}
		return nil, fmt.Errorf("tts request: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: encoding.ContentType(),
	}, nil
}
