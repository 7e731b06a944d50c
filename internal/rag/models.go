package rag

// Payload é o que fica gravado junto com o vetor no store.
// O aid agrupa todos os chunks de um mesmo documento ingerido.
type Payload struct {
	Text string `json:"text"`
	AID  string `json:"aid,omitempty"`
}

// Point
// Unidade persistida no vector store: id + vetor + payload.
// O id é gerado uma única vez na criação e nunca reaproveitado.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// SearchFilter restricts a similarity search to points whose payload aid
// matches exactly. A nil filter searches the whole collection.
type SearchFilter struct {
	AID string
}

// AskRequest
// Payload da API /ask: pergunta + aid retornado pelo /ingest.
type AskRequest struct {
	Text string `json:"text"`
	AID  string `json:"aid"`
}

// IngestResponse carries the session id assigned to the ingested document.
type IngestResponse struct {
	AID string `json:"aid"`
}
