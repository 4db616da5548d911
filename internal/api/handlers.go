package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"oddsledger/internal/auth"
	"oddsledger/internal/engine"
	"oddsledger/internal/forecast"
	"oddsledger/internal/history"
	"oddsledger/internal/multiplier"
	"oddsledger/internal/ocr"
)

// UploadField is the multipart field holding the captured image.
const UploadField = "image"

var errBadRequest = errors.New("bad request")

// Handler serves the rounds API for the authenticated owner.
type Handler struct {
	engine     *engine.Engine
	recognizer ocr.Recognizer
	metrics    *Metrics
	maxUpload  int64
}

// NewHandler wires the rounds endpoints to e. Uploaded images go through rec.
func NewHandler(e *engine.Engine, rec ocr.Recognizer, m *Metrics, maxUpload int64) *Handler {
	return &Handler{engine: e, recognizer: rec, metrics: m, maxUpload: maxUpload}
}

type manualRequest struct {
	Value  *string  `json:"value"`
	Values []string `json:"values"`
}

// HistoryEntry is one observation as returned by GET /api/rounds/history.
type HistoryEntry struct {
	Value      multiplier.Value `json:"value"`
	RecordedAt time.Time        `json:"recordedAt"`
	Source     history.Source   `json:"source"`
}

// POST /api/rounds/upload - replace the history with values recognized from
// an image (multipart) or from a text/plain body.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	owner := ownerOf(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	text, err := h.recognizedText(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeFailure(w, r, err)
		return
	}

	values, err := h.engine.IngestReplace(r.Context(), owner, text)
	h.metrics.observeIngest(ingestReplace, len(values), err)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valuesResponse{Success: true, Values: multiplier.Strings(values)})
}

func (h *Handler) recognizedText(r *http.Request) (string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: send a multipart %q field or a text/plain body", errBadRequest, UploadField)
	}

	switch mediaType {
	case "text/plain":
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "multipart/form-data":
		file, _, err := r.FormFile(UploadField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return "", err
			}
			return "", fmt.Errorf("%w: multipart field %q is required", errBadRequest, UploadField)
		}
		defer file.Close()
		text, err := h.recognizer.Recognize(r.Context(), file)
		if err != nil {
			return "", fmt.Errorf("recognize upload: %w", err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: unsupported content type %q", errBadRequest, mediaType)
	}
}

// POST /api/rounds/manual - append {"value": "..."} or {"values": [...]}.
func (h *Handler) HandleManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	var tokens []string
	switch {
	case req.Values != nil:
		tokens = req.Values
	case req.Value != nil:
		tokens = []string{*req.Value}
	default:
		writeError(w, http.StatusUnprocessableEntity, `send a "value" string or a "values" array of strings`)
		return
	}

	values, err := h.engine.IngestAppend(r.Context(), ownerOf(r), tokens)
	h.metrics.observeIngest(ingestAppend, len(values), err)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valuesResponse{Success: true, Values: multiplier.Strings(values)})
}

// GET /api/rounds/history - the owner's values, oldest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	obs, err := h.engine.History(r.Context(), ownerOf(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	entries := make([]HistoryEntry, len(obs))
	for i, o := range obs {
		entries[i] = HistoryEntry{Value: o.Value, RecordedAt: o.RecordedAt, Source: o.Source}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/rounds/statistics
func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.Statistics(r.Context(), ownerOf(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/rounds/prediction?mode=forecast|moving-window
func (h *Handler) HandlePrediction(w http.ResponseWriter, r *http.Request) {
	mode, err := forecast.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	p, err := h.engine.Prediction(r.Context(), ownerOf(r), mode)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/rounds/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Backtest(r.Context(), ownerOf(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "endpoint not found")
}

func ownerOf(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}
