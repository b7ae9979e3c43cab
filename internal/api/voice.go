package api

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"FinanceDesk/internal/voice"
)

// MaxAudioBytes bounds an uploaded recording.
const MaxAudioBytes = 25 << 20

type synthesizeRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *handler) transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		h.badRequest(w, r, "No audio file provided")
		return
	}
	defer file.Close()

	text, err := h.transcriber.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"text": text})
}

func (h *handler) synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	audio, err := h.synthesizer.Synthesize(r.Context(), text)
	switch {
	case errors.Is(err, voice.ErrEmptyText):
		h.badRequest(w, r, "No text provided")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"audio": hex.EncodeToString(audio)})
}
