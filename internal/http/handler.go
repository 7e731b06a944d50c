package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/josinaldojr/workersai-rag/internal/rag"
)

const (
	requestTimeout = 15 * time.Second
	// Ingest makes one embed + one upsert per paragraph, so it gets a lot
	// more room than a single-call endpoint.
	ingestTimeout = 2 * time.Minute
)

// Inference covers the passthrough endpoints that do not go through the
// RAG service.
type Inference interface {
	Transcribe(ctx context.Context, audio io.Reader) (json.RawMessage, error)
	Sentiment(ctx context.Context, text string) (json.RawMessage, error)
}

type Handler struct {
	ragService *rag.Service
	inference  Inference
	audio      *http.Client
}

func NewHandler(ragService *rag.Service, inference Inference) *Handler {
	return &Handler{
		ragService: ragService,
		inference:  inference,
		audio:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Bootstrap idempotently creates the configured collection.
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.ragService.Bootstrap(ctx); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]bool{"success": true})
}

// Ingest takes a raw text body, chunks it on blank lines and stores every
// chunk under a fresh aid.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fmt.Errorf("failed to read body: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	aid, err := h.ragService.Ingest(ctx, string(body))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, rag.IngestResponse{AID: aid})
}

// Ask answers a question grounded on the notes stored under the given aid.
// The generation model's response goes back verbatim.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req rag.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid json body: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.ragService.Ask(ctx, req.Text, req.AID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeRaw(w, res)
}

// AddNote stores a single text as one point, not tied to any aid.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid json body: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, err := h.ragService.AddNote(ctx, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]string{"id": id})
}

// Whisper fetches the audio at the given URL and forwards it to the speech
// recognition model.
func (h *Handler) Whisper(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid json body: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	audioReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		writeError(w, fmt.Errorf("invalid audio url: %w", err))
		return
	}

	audio, err := h.audio.Do(audioReq)
	if err != nil {
		writeError(w, fmt.Errorf("failed to fetch audio: %w", err))
		return
	}
	defer audio.Body.Close()

	if audio.StatusCode != http.StatusOK {
		writeError(w, fmt.Errorf("failed to fetch audio: %d %s", audio.StatusCode, audio.Status))
		return
	}

	res, err := h.inference.Transcribe(ctx, audio.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeRaw(w, res)
}

// Sentiment classifies text sentiment. The model only understands English,
// so anything reliably detected as another language is rejected before the
// provider call.
func (h *Handler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid json body: %w", err))
		return
	}

	info := whatlanggo.Detect(req.Text)
	if info.IsReliable() && info.Lang != whatlanggo.Eng {
		writeError(w, fmt.Errorf("sentiment model supports English only, detected %s", whatlanggo.LangToString(info.Lang)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.inference.Sentiment(ctx, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeRaw(w, res)
}

// -------- response helpers --------

type failureResponse struct {
	Success  bool     `json:"success"`
	Messages []string `json:"messages"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// writeError maps every error kind to the same failure shape. Provider
// outages, bad input and unknown sessions all look alike to clients.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(failureResponse{
		Success:  false,
		Messages: []string{err.Error()},
	})
}
