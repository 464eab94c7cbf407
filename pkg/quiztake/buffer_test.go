package quiztake

import (
	"testing"

	"github.com/google/uuid"
)

func sampleQuestions(n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{ID: uuid.New(), Text: "q", Type: "short-answer", Points: 1, OrderNum: i + 1}
	}
	return questions
}

func TestBufferSerializeIsComplete(t *testing.T) {
	questions := sampleQuestions(5)
	b := NewAnswerBuffer(questions)

	// Answer a subset, out of order.
	b.Set(questions[3].ID, "d")
	b.Set(questions[0].ID, "a")

	got := b.Serialize()
	if len(got) != 5 {
		t.Fatalf("serialized %d entries, want 5", len(got))
	}
	for i, entry := range got {
		if entry.QuestionID != questions[i].ID {
			t.Fatalf("entry %d out of quiz order", i)
		}
	}
	if got[0].Answer != "a" || got[3].Answer != "d" {
		t.Fatalf("answered entries wrong: %+v", got)
	}
	for _, i := range []int{1, 2, 4} {
		if got[i].Answer != "" {
			t.Fatalf("entry %d = %q, want empty default", i, got[i].Answer)
		}
	}
}

func TestBufferUnansweredCount(t *testing.T) {
	questions := sampleQuestions(4)
	b := NewAnswerBuffer(questions)

	if got := b.UnansweredCount(); got != 4 {
		t.Fatalf("fresh buffer unanswered = %d, want 4", got)
	}

	b.Set(questions[0].ID, "x")
	b.Set(questions[1].ID, "   ") // whitespace counts as unanswered
	b.Set(questions[2].ID, "")

	if got := b.UnansweredCount(); got != 3 {
		t.Fatalf("unanswered = %d, want 3", got)
	}
}

func TestBufferOverwriteAndUnknownID(t *testing.T) {
	questions := sampleQuestions(2)
	b := NewAnswerBuffer(questions)

	b.Set(questions[0].ID, "first")
	b.Set(questions[0].ID, "second")
	if got := b.Get(questions[0].ID); got != "second" {
		t.Fatalf("overwrite: got %q", got)
	}

	// A stale input event for a foreign question must not grow the buffer.
	b.Set(uuid.New(), "ghost")
	if got := len(b.Serialize()); got != 2 {
		t.Fatalf("serialized %d entries after foreign set, want 2", got)
	}
}
