package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/collection", h.Bootstrap).Methods(http.MethodPost)
	r.HandleFunc("/ingest", h.Ingest).Methods(http.MethodPost)
	r.HandleFunc("/ask", h.Ask).Methods(http.MethodPost)
	r.HandleFunc("/points", h.AddNote).Methods(http.MethodPost)
	r.HandleFunc("/whisper", h.Whisper).Methods(http.MethodPost)
	r.HandleFunc("/sentiment", h.Sentiment).Methods(http.MethodPost)

	return r
}
