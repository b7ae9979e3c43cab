// Package voice converts speech to text and text to speech.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ElevenLabs defaults.
const (
	DefaultElevenLabsURL = "https://api.elevenlabs.io"
	DefaultVoiceID       = "21m00Tcm4TlvDq8ikWAM"
	ElevenLabsModel      = "eleven_monolingual_v1"
)

// Errors returned for unusable input or configuration.
var (
	ErrNoAPIKey  = errors.New("voice api key not configured")
	ErrEmptyText = errors.New("no text provided")
	ErrNoAudio   = errors.New("no audio provided")
)

// Transcriber turns recorded audio into text with Whisper.
type Transcriber struct {
	apiKey string
	client *openai.Client
}

// NewTranscriber creates a Whisper client. baseURL overrides the API root
// (including the /v1 suffix) when not empty.
func NewTranscriber(apiKey, baseURL string, httpClient *http.Client) *Transcriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Transcriber{apiKey: apiKey, client: openai.NewClientWithConfig(cfg)}
}

// Transcribe sends the audio once and returns the recognised text.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("transcribe: %w", ErrNoAPIKey)
	}
	if audio == nil {
		return "", ErrNoAudio
	}
	if filename == "" {
		filename = "audio.webm"
	}
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return resp.Text, nil
}

// Synthesizer renders text as speech with ElevenLabs.
type Synthesizer struct {
	APIKey  string
	VoiceID string
	BaseURL string
	Client  *http.Client
}

// NewSynthesizer creates a Synthesizer. An empty voiceID selects DefaultVoiceID.
func NewSynthesizer(apiKey, voiceID string, client *http.Client) *Synthesizer {
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Synthesizer{APIKey: apiKey, VoiceID: voiceID, BaseURL: DefaultElevenLabsURL, Client: client}
}

// Synthesize returns the encoded audio bytes for text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("synthesize: %w", ErrNoAPIKey)
	}

	body, err := json.Marshal(map[string]string{"text": text, "model_id": ElevenLabsModel})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	u := s.BaseURL + "/v1/text-to-speech/" + url.PathEscape(s.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", s.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs API error: status %d, body: %.200s", resp.StatusCode, audio)
	}
	return audio, nil
}
