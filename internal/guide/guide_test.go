package guide

import (
	"strings"
	"testing"

	"github.com/csheth/readowl/internal/books"
)

func TestBuildPersonalisesSteps(t *testing.T) {
	t.Parallel()

	steps := Build(Metadata{Query: " cosy mysteries ", Category: books.CategoryFiction, Tone: books.ToneSuspenseful})
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	if !strings.Contains(steps[0].Description, `"cosy mysteries"`) {
		t.Fatalf("first step missing query: %s", steps[0].Description)
	}
	if !strings.Contains(steps[3].Description, "match Fiction and a suspenseful mood") {
		t.Fatalf("filter step missing filters: %s", steps[3].Description)
	}
}

func TestBuildWithoutFilters(t *testing.T) {
	t.Parallel()

	steps := Build(Metadata{Category: books.CategoryAll, Tone: books.ToneAll})
	if !strings.Contains(steps[0].Description, "whatever you are in the mood for") {
		t.Fatalf("unexpected first step: %s", steps[0].Description)
	}
	if !strings.Contains(steps[3].Description, "match any category and any mood") {
		t.Fatalf("unexpected filter step: %s", steps[3].Description)
	}
}

func TestPipelineReturnsCopy(t *testing.T) {
	t.Parallel()

	p := Pipeline()
	if len(p) != 10 {
		t.Fatalf("expected 10 pipeline stages, got %d", len(p))
	}
	p[0].Title = "changed"
	if Pipeline()[0].Title != "Data Ingestion" {
		t.Fatal("Pipeline leaked internal slice")
	}
}
