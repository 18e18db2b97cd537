package job

import (
	"testing"

	"github.com/tupiana/lexipipe/pkg/errors"
)

func TestNewJobStartsPending(t *testing.T) {
	j := New([]string{string(CandidateDialectal)}, 50)
	if j.Status != StatusPending {
		t.Fatalf("status = %s", j.Status)
	}
	if j.ID == "" {
		t.Fatal("missing id")
	}
	if j.ChunkIndex != 0 {
		t.Fatalf("fresh job must start at chunk 0, got %d", j.ChunkIndex)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	j := New(nil, 10)

	steps := []Status{StatusProcessing, StatusPaused, StatusProcessing, StatusCompleted}
	for _, next := range steps {
		if err := j.Transition(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if !j.Status.Terminal() {
		t.Fatal("completed must be terminal")
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	j := New(nil, 10)
	err := j.Transition(StatusCompleted) // pending → completed skips processing
	if !errors.IsCode(err, errors.ErrCodeJobInvalidTransition) {
		t.Fatalf("expected JOB_002, got %v", err)
	}
}

func TestTransitionFromTerminalRejected(t *testing.T) {
	j := New(nil, 10)
	_ = j.Transition(StatusProcessing)
	_ = j.Transition(StatusCompleted)

	err := j.Transition(StatusProcessing)
	if !errors.IsCode(err, errors.ErrCodeJobAlreadyTerminal) {
		t.Fatalf("expected JOB_003, got %v", err)
	}
}

func TestCancellableFromAnyNonTerminal(t *testing.T) {
	for _, start := range []Status{StatusPending, StatusProcessing, StatusPaused} {
		j := New(nil, 10)
		j.Status = start
		if err := j.Transition(StatusCancelled); err != nil {
			t.Fatalf("cancel from %s: %v", start, err)
		}
	}
}

func TestAdvanceChunkNeverRegresses(t *testing.T) {
	j := New(nil, 10)
	if err := j.AdvanceChunk(1, 10, 7); err != nil {
		t.Fatal(err)
	}
	if err := j.AdvanceChunk(2, 10, 9); err != nil {
		t.Fatal(err)
	}
	if j.ItemsProcessed != 20 || j.ItemsClassified != 16 {
		t.Fatalf("counters = %d/%d", j.ItemsProcessed, j.ItemsClassified)
	}

	err := j.AdvanceChunk(2, 10, 5) // same index again
	if !errors.IsCode(err, errors.ErrCodeJobChunkRegression) {
		t.Fatalf("expected JOB_004, got %v", err)
	}
	err = j.AdvanceChunk(1, 10, 5) // backwards
	if !errors.IsCode(err, errors.ErrCodeJobChunkRegression) {
		t.Fatalf("expected JOB_004, got %v", err)
	}
	if j.ChunkIndex != 2 {
		t.Fatalf("rejected advance mutated index to %d", j.ChunkIndex)
	}
}

func TestFailRecordsReason(t *testing.T) {
	j := New(nil, 10)
	_ = j.Transition(StatusProcessing)
	if err := j.Fail("chunk persistence failed"); err != nil {
		t.Fatal(err)
	}
	if j.Status != StatusFailed || j.FailureReason == "" {
		t.Fatalf("job = %+v", j)
	}
}

func TestCandidatePriorityRanks(t *testing.T) {
	want := []CandidateSource{
		CandidateDialectal,
		CandidateGutenbergNoun,
		CandidateGutenbergVerb,
		CandidateGutenbergAdj,
		CandidateGeneral,
	}
	prev := 0
	for _, s := range want {
		if s.Rank() <= prev {
			t.Fatalf("rank order broken at %s", s)
		}
		prev = s.Rank()
	}
	if CandidateSource("wiki").Valid() {
		t.Fatal("unknown source must be invalid")
	}
}

func TestCandidateValidate(t *testing.T) {
	ok := Candidate{Word: "chimarrão", Source: CandidateDialectal}
	if err := ok.Validate(); err != nil {
		t.Fatal(err)
	}
	bad := Candidate{Word: "", Source: CandidateDialectal}
	if err := bad.Validate(); err == nil {
		t.Fatal("empty word must be rejected")
	}
}
