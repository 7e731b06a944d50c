package vector

import (
	"testing"

	"github.com/josinaldojr/workersai-rag/internal/rag"
)

func TestToPointStruct(t *testing.T) {
	p := rag.Point{
		ID:      "11111111-2222-3333-4444-555555555555",
		Vector:  []float32{0.1, 0.2},
		Payload: rag.Payload{Text: "a chunk", AID: "session-1"},
	}

	ps := toPointStruct(p)

	if got := ps.GetId().GetUuid(); got != p.ID {
		t.Fatalf("expected uuid id %q, got %q", p.ID, got)
	}
	if got := ps.GetVectors().GetVector().GetData(); len(got) != 2 || got[0] != 0.1 {
		t.Fatalf("unexpected vector %v", got)
	}
	if got := ps.GetPayload()["text"].GetStringValue(); got != "a chunk" {
		t.Fatalf("unexpected text payload %q", got)
	}
	if got := ps.GetPayload()["aid"].GetStringValue(); got != "session-1" {
		t.Fatalf("unexpected aid payload %q", got)
	}
}

func TestToPointStructWithoutAid(t *testing.T) {
	ps := toPointStruct(rag.Point{ID: "id", Payload: rag.Payload{Text: "loose"}})

	if _, ok := ps.GetPayload()["aid"]; ok {
		t.Fatal("aid key must be absent for standalone points")
	}
}

func TestAidFilterMatchesExactKeyword(t *testing.T) {
	f := aidFilter("session-9")

	if len(f.GetMust()) != 1 {
		t.Fatalf("expected a single must condition, got %d", len(f.GetMust()))
	}

	field := f.GetMust()[0].GetField()
	if field.GetKey() != "aid" {
		t.Fatalf("expected filter on aid, got %q", field.GetKey())
	}
	if got := field.GetMatch().GetKeyword(); got != "session-9" {
		t.Fatalf("expected keyword match, got %q", got)
	}
}
