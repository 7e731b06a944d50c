package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/josinaldojr/workersai-rag/internal/rag"
)

type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	return []float32{float32(len(text))}, nil
}

type stubStore struct {
	points []rag.Point
}

func (s *stubStore) EnsureCollection(_ context.Context, _ string) error { return nil }

func (s *stubStore) Upsert(_ context.Context, _ string, points []rag.Point) error {
	s.points = append(s.points, points...)
	return nil
}

func (s *stubStore) Search(_ context.Context, _ string, _ []float32, filter *rag.SearchFilter) ([]rag.Point, error) {
	var out []rag.Point
	for _, p := range s.points {
		if filter != nil && p.Payload.AID != filter.AID {
			continue
		}
		out = append(out, p)
		if len(out) == 2 {
			break
		}
	}
	return out, nil
}

type stubGenerator struct {
	resp json.RawMessage
}

func (s *stubGenerator) Generate(_ context.Context, _ []string, _ string) (json.RawMessage, error) {
	return s.resp, nil
}

type stubInference struct {
	sentimentCalled bool
}

func (s *stubInference) Transcribe(_ context.Context, _ io.Reader) (json.RawMessage, error) {
	return json.RawMessage(`{"result":{"text":"transcribed"},"success":true}`), nil
}

func (s *stubInference) Sentiment(_ context.Context, _ string) (json.RawMessage, error) {
	s.sentimentCalled = true
	return json.RawMessage(`{"result":[{"label":"POSITIVE","score":0.9}],"success":true}`), nil
}

type testEnv struct {
	router    http.Handler
	embedder  *stubEmbedder
	store     *stubStore
	inference *stubInference
}

func newTestEnv(genResp string) *testEnv {
	emb := &stubEmbedder{}
	store := &stubStore{}
	inf := &stubInference{}
	svc := rag.NewService(store, emb, &stubGenerator{resp: json.RawMessage(genResp)}, "notes-test")
	h := NewHandler(svc, inf)
	return &testEnv{router: NewRouter(h), embedder: emb, store: store, inference: inf}
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) failureResponse {
	t.Helper()
	var f failureResponse
	if err := json.NewDecoder(rec.Body).Decode(&f); err != nil {
		t.Fatalf("failed to decode failure body: %v", err)
	}
	return f
}

func TestHealth(t *testing.T) {
	env := newTestEnv(`{}`)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestIngestReturnsAid(t *testing.T) {
	env := newTestEnv(`{}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("Paragraph one.\r\n\r\nParagraph two."))
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp rag.IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AID == "" {
		t.Fatal("expected an aid in the response")
	}
	if len(env.store.points) != 2 {
		t.Fatalf("expected 2 stored points, got %d", len(env.store.points))
	}
}

func TestAskWithoutAidFails(t *testing.T) {
	env := newTestEnv(`{}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"text":"a question"}`))
	env.router.ServeHTTP(rec, req)

	f := decodeFailure(t, rec)
	if f.Success {
		t.Fatal("expected a failure response")
	}
	if len(f.Messages) != 1 || f.Messages[0] != rag.ErrInvalidSessionID.Error() {
		t.Fatalf("unexpected messages %v", f.Messages)
	}

	if env.embedder.calls != 0 {
		t.Fatalf("expected no embedding calls, got %d", env.embedder.calls)
	}
}

func TestAskReturnsGenerationVerbatim(t *testing.T) {
	raw := `{"result":{"response":"grounded answer"},"success":true}`
	env := newTestEnv(raw)
	env.store.points = []rag.Point{
		{ID: "p1", Payload: rag.Payload{Text: "a note", AID: "s1"}},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"text":"q","aid":"s1"}`))
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != raw {
		t.Fatalf("expected generation response verbatim, got %s", rec.Body.String())
	}
}

func TestAskUnknownAid(t *testing.T) {
	env := newTestEnv(`{}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"text":"q","aid":"missing"}`))
	env.router.ServeHTTP(rec, req)

	f := decodeFailure(t, rec)
	if f.Success || len(f.Messages) != 1 || f.Messages[0] != rag.ErrSessionNotFound.Error() {
		t.Fatalf("unexpected failure body: %+v", f)
	}
}

func TestSentimentRejectsNonEnglish(t *testing.T) {
	env := newTestEnv(`{}`)

	body := `{"text":"Это совершенно точно не английский текст, а длинное русское предложение."}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sentiment", strings.NewReader(body))
	env.router.ServeHTTP(rec, req)

	f := decodeFailure(t, rec)
	if f.Success {
		t.Fatal("expected a failure response")
	}
	if env.inference.sentimentCalled {
		t.Fatal("provider must not be called for non-English text")
	}
}

func TestSentimentForwardsEnglish(t *testing.T) {
	env := newTestEnv(`{}`)

	body := `{"text":"This product is absolutely wonderful and I love using it every day."}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sentiment", strings.NewReader(body))
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if !env.inference.sentimentCalled {
		t.Fatal("expected the sentiment model to be called")
	}
}
