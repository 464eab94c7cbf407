package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeShortAnswer    QuestionType = "short-answer"
)

// HasOptions reports whether the type carries an options list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question represents a single quiz question.
// Options is the raw JSONB column value; choice types store a string array,
// short-answer questions store null.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	QuizID        uuid.UUID       `json:"quizId"`
	Text          string          `json:"text"`
	Type          QuestionType    `json:"type"`
	Points        int             `json:"points"`
	OrderNum      int             `json:"orderNum"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correctAnswer,omitempty"`
}

// OptionValues decodes the options column into a string slice.
// Malformed or absent data degrades to nil rather than erroring, so a broken
// row never takes down a read path.
func (q *Question) OptionValues() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err == nil {
		return opts
	}
	// Legacy rows double-encoded the list as a JSON string.
	var encoded string
	if err := json.Unmarshal(q.Options, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &opts); err == nil {
			return opts
		}
	}
	return nil
}

// AddQuestionRequest is the payload for one question in a bulk replace.
type AddQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=2000"`
	Type          string   `json:"type" binding:"required,oneof=multiple-choice true-false short-answer"`
	Points        int      `json:"points" binding:"required,min=1,max=1000"`
	Options       []string `json:"options" binding:"omitempty,max=10"`
	CorrectAnswer string   `json:"correctAnswer" binding:"required,max=2000"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing a quiz's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
