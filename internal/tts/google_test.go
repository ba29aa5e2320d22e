package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

func newTestGoogleTTS(t *testing.T, handler http.HandlerFunc) *GoogleTTS {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := texttospeech.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewGoogleTTSWithService(svc)
}

var testSettings = Settings{
	Voice: Voice{LanguageCode: "en-US", Name: "en-US-Wavenet-A"},
	Audio: AudioConfig{Encoding: EncodingMP3, SpeakingRate: 1},
}

func TestGoogleSynthesize(t *testing.T) {
	var body map[string]any
	g := newTestGoogleTTS(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/text:synthesize") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString([]byte("ID3-fake-mp3")),
		})
	})

	res, err := g.Synthesize(context.Background(), testSettings.Request("Hello there"))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(res.Audio) != "ID3-fake-mp3" {
		t.Errorf("audio = %q", res.Audio)
	}
	if res.ContentType != "audio/mpeg" {
		t.Errorf("content type = %q", res.ContentType)
	}

	input := body["input"].(map[string]any)
	if input["text"] != "Hello there" {
		t.Errorf("input.text = %v", input["text"])
	}
	voice := body["voice"].(map[string]any)
	if voice["languageCode"] != "en-US" || voice["name"] != "en-US-Wavenet-A" {
		t.Errorf("voice = %v", voice)
	}
	audio := body["audioConfig"].(map[string]any)
	if audio["audioEncoding"] != "MP3" || audio["speakingRate"] != float64(1) {
		t.Errorf("audioConfig = %v", audio)
	}
}

func TestGoogleSynthesizeSendsEmptyText(t *testing.T) {
	called := false
	var body map[string]map[string]any
	g := newTestGoogleTTS(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"audioContent": ""})
	})

	if _, err := g.Synthesize(context.Background(), testSettings.Request("")); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !called {
		t.Fatal("no request was issued for empty text")
	}
	text, ok := body["input"]["text"]
	if !ok || text != "" {
		t.Errorf("input = %v, want an explicit empty text field", body["input"])
	}
}

func TestGoogleSynthesizeInvalidInput(t *testing.T) {
	g := newTestGoogleTTS(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Either input.text or input.ssml needs to be set.","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := g.Synthesize(context.Background(), testSettings.Request("bad\x00text"))

	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("error %v is not an InvalidInputError", err)
	}
	if invalid.Text != "bad\x00text" || invalid.Length() != 8 {
		t.Errorf("Text = %q, Length = %d", invalid.Text, invalid.Length())
	}
}

func TestGoogleSynthesizeOtherErrors(t *testing.T) {
	g := newTestGoogleTTS(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"permission denied"}}`))
	})

	_, err := g.Synthesize(context.Background(), testSettings.Request("hi"))
	if err == nil {
		t.Fatal("expected error")
	}
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		t.Error("a 403 must not be reported as invalid input")
	}
}

func TestGoogleSynthesizeLinear16(t *testing.T) {
	var body map[string]map[string]any
	g := newTestGoogleTTS(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"audioContent": base64.StdEncoding.EncodeToString([]byte("RIFF"))})
	})

	s := testSettings
	s.Audio.Encoding = EncodingLinear16
	res, err := g.Synthesize(context.Background(), s.Request("wave"))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.ContentType != "audio/wav" {
		t.Errorf("content type = %q", res.ContentType)
	}
	if body["audioConfig"]["audioEncoding"] != "LINEAR16" {
		t.Errorf("audioConfig = %v", body["audioConfig"])
	}
}

func TestNewGoogleTTSSendsAPIKey(t *testing.T) {
	for _, debug := range []bool{false, true} {
		t.Run(fmt.Sprintf("debug=%t", debug), func(t *testing.T) {
			var gotKey string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = r.URL.Query().Get("key")
				if gotKey == "" {
					gotKey = r.Header.Get("X-Goog-Api-Key")
				}
				json.NewEncoder(w).Encode(map[string]string{"audioContent": ""})
			}))
			defer srv.Close()

			g, err := NewGoogleTTS(context.Background(), GoogleTTSConfig{
				APIKey:   "secret-key",
				Endpoint: srv.URL + "/",
				Debug:    debug,
			})
			if err != nil {
				t.Fatalf("NewGoogleTTS: %v", err)
			}
			if _, err := g.Synthesize(context.Background(), testSettings.Request("hi")); err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if gotKey != "secret-key" {
				t.Errorf("api key sent = %q", gotKey)
			}
		})
	}
}
