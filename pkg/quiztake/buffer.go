package quiztake

import (
	"strings"

	"github.com/google/uuid"
)

// AnswerBuffer holds the student's current answers during an active attempt.
// It is owned by exactly one Session, lives only in memory, and is discarded
// on navigation away before submission.
type AnswerBuffer struct {
	order   []uuid.UUID
	answers map[uuid.UUID]string
}

// NewAnswerBuffer creates a buffer covering the given question list. The
// question order fixes the serialization order.
func NewAnswerBuffer(questions []Question) *AnswerBuffer {
	order := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		order[i] = q.ID
	}
	return &AnswerBuffer{
		order:   order,
		answers: make(map[uuid.UUID]string, len(questions)),
	}
}

// Set overwrites the answer for a question. Unknown question IDs are ignored
// so a stale input event cannot grow the buffer past the question list.
func (b *AnswerBuffer) Set(questionID uuid.UUID, value string) {
	for _, id := range b.order {
		if id == questionID {
			b.answers[questionID] = value
			return
		}
	}
}

// Get returns the current answer for a question, empty if unanswered.
func (b *AnswerBuffer) Get(questionID uuid.UUID) string {
	return b.answers[questionID]
}

// UnansweredCount counts questions whose entry is absent or whose trimmed
// value is empty, relative to the full question list.
func (b *AnswerBuffer) UnansweredCount() int {
	n := 0
	for _, id := range b.order {
		if strings.TrimSpace(b.answers[id]) == "" {
			n++
		}
	}
	return n
}

// Serialize produces the full ordered answer list: one entry per question in
// quiz order, unanswered questions defaulting to an empty string.
func (b *AnswerBuffer) Serialize() []AnswerPayload {
	out := make([]AnswerPayload, len(b.order))
	for i, id := range b.order {
		out[i] = AnswerPayload{QuestionID: id, Answer: b.answers[id]}
	}
	return out
}
