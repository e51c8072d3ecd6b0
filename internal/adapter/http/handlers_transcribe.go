package http

import (
	"encoding/base64"
	"net/http"
)

type transcribeRequest struct {
	PlanID         string `json:"plan_id"`
	AudioWavBase64 string `json:"audio_wav_base64"`
}

// HandleTranscribe handles POST /api/transcribe. The audio travels base64-encoded
// inside the JSON body; decoding failures are the client's problem (400),
// provider failures map to 502 and provider timeouts to 408.
func (h *Handlers) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[transcribeRequest](w, r, h.transcribeLimit())
	if !ok {
		return
	}
	if req.PlanID == "" {
		writeError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioWavBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 audio")
		return
	}

	res, err := h.Transcribe.Transcribe(r.Context(), req.PlanID, audio)
	if err != nil {
		writeDomainError(w, err, "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
