package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt represents one student's pass at a quiz, from open to submission.
// Score stays nil until grading; the database enforces at most one
// non-completed attempt per (quiz, student).
type Attempt struct {
	ID                  uuid.UUID  `json:"id"`
	QuizID              uuid.UUID  `json:"quizId"`
	StudentID           int        `json:"studentId"`
	StartedAt           time.Time  `json:"startedAt"`
	SubmittedAt         *time.Time `json:"submittedAt,omitempty"`
	Score               *int       `json:"score"`
	TotalPossiblePoints int        `json:"totalPossiblePoints"`
	// TimeTaken is in seconds, set at submission.
	TimeTaken   *int `json:"timeTaken,omitempty"`
	IsCompleted bool `json:"isCompleted"`
}

// OpenAttemptRequest is the payload for opening an attempt.
type OpenAttemptRequest struct {
	QuizID uuid.UUID `json:"quizId" binding:"required"`
}

// SubmitAttemptRequest carries the full answer set of a submission.
// Every question of the quiz appears once; unanswered ones arrive as "".
type SubmitAttemptRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"required,dive"`
}

// AnswerSubmission is one {questionId, answer} pair of a submission.
type AnswerSubmission struct {
	QuestionID uuid.UUID `json:"questionId" binding:"required"`
	Answer     string    `json:"answer"`
}

// SubmitResult is the grading outcome returned to the student.
type SubmitResult struct {
	Score               int `json:"score"`
	TotalPossiblePoints int `json:"totalPossiblePoints"`
}
