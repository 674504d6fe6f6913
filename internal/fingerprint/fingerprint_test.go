package fingerprint

import (
	"testing"

	"github.com/morphic/api/internal/models"
)

func TestComputeDeterministic(t *testing.T) {
	req := models.GenerationRequest{Idea: "Retail analytics assistant", ModelID: "llama-3.1-70b-versatile", Tone: "balanced"}

	first := Compute(req)
	second := Compute(req)

	if first != second {
		t.Fatalf("same request produced different keys: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
}

func TestComputeFieldSensitivity(t *testing.T) {
	base := models.GenerationRequest{Idea: "idea", ModelID: "model", Tone: "tone"}
	variants := []models.GenerationRequest{
		{Idea: "idea2", ModelID: "model", Tone: "tone"},
		{Idea: "idea", ModelID: "model2", Tone: "tone"},
		{Idea: "idea", ModelID: "model", Tone: "tone2"},
	}

	baseKey := Compute(base)
	for _, v := range variants {
		if Compute(v) == baseKey {
			t.Errorf("variant %+v collided with base", v)
		}
	}
}

func TestComputeIgnoresContext(t *testing.T) {
	a := models.GenerationRequest{Idea: "idea", ModelID: "model", Context: "one"}
	b := models.GenerationRequest{Idea: "idea", ModelID: "model", Context: "two"}

	if Compute(a) != Compute(b) {
		t.Error("context must not affect the fingerprint")
	}
}

func TestComputeFieldBoundaries(t *testing.T) {
	// Concatenation without separators would make these collide.
	a := models.GenerationRequest{Idea: "ab", ModelID: "c"}
	b := models.GenerationRequest{Idea: "a", ModelID: "bc"}

	if Compute(a) == Compute(b) {
		t.Error("field boundaries are not preserved")
	}
}
