package voice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "voice.webm", hdr.Filename)
		assert.Equal(t, "fake-audio", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"how is apple doing"}`))
	}))
	defer srv.Close()

	tr := NewTranscriber("sk-test", srv.URL+"/v1", srv.Client())
	text, err := tr.Transcribe(context.Background(), "voice.webm", strings.NewReader("fake-audio"))
	require.NoError(t, err)
	assert.Equal(t, "how is apple doing", text)
}

func TestTranscribe_NoKey(t *testing.T) {
	_, err := NewTranscriber("", "", nil).Transcribe(context.Background(), "a.webm", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "el-key", r.Header.Get("xi-api-key"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Good morning", body["text"])
		assert.Equal(t, ElevenLabsModel, body["model_id"])
		_, _ = w.Write([]byte{0x49, 0x44, 0x33})
	}))
	defer srv.Close()

	s := NewSynthesizer("el-key", "voice-1", srv.Client())
	s.BaseURL = srv.URL
	audio, err := s.Synthesize(context.Background(), "Good morning")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x49, 0x44, 0x33}, audio)
}

func TestSynthesize_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSynthesizer("el-key", "", srv.Client())
	s.BaseURL = srv.URL
	assert.Equal(t, DefaultVoiceID, s.VoiceID)

	_, err := s.Synthesize(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = s.Synthesize(context.Background(), "hi")
	assert.ErrorContains(t, err, "status 401")

	_, err = NewSynthesizer("", "", nil).Synthesize(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
