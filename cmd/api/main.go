package main

import (
	"log"
	"net/http"

	"github.com/josinaldojr/workersai-rag/internal/ai"
	"github.com/josinaldojr/workersai-rag/internal/config"
	apphttp "github.com/josinaldojr/workersai-rag/internal/http"
	"github.com/josinaldojr/workersai-rag/internal/rag"
	"github.com/josinaldojr/workersai-rag/internal/vector"
)

func main() {
	cfg := config.Load()

	aiClient, err := ai.NewClient(cfg.AccountID, cfg.APIToken)
	if err != nil {
		log.Fatalf("failed to init Workers AI client: %v", err)
	}

	store, err := vector.NewClient(cfg.QdrantAddr, cfg.QdrantAPIKey)
	if err != nil {
		log.Fatalf("failed to connect to qdrant: %v", err)
	}
	defer store.Close()

	ragService := rag.NewService(store, aiClient, aiClient, cfg.Collection, rag.Workers(cfg.IngestWorkers))

	h := apphttp.NewHandler(ragService, aiClient)
	router := apphttp.NewRouter(h)

	handler := corsMiddleware(router)

	addr := ":" + cfg.Port
	log.Printf("API listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
