package model

import "github.com/google/uuid"

// Answer is one graded answer of a completed attempt. Answers are created in
// bulk at submission time and never mutated afterward.
type Answer struct {
	ID           uuid.UUID `json:"id"`
	AttemptID    uuid.UUID `json:"attemptId"`
	QuestionID   uuid.UUID `json:"questionId"`
	Answer       string    `json:"answer"`
	IsCorrect    bool      `json:"isCorrect"`
	PointsEarned int       `json:"pointsEarned"`
}
