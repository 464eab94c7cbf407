package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuizStatus is the lifecycle state of a quiz, derived from the publication
// flag and the start/end window. It is never stored.
type QuizStatus string

const (
	QuizStatusDraft    QuizStatus = "Draft"
	QuizStatusUpcoming QuizStatus = "Upcoming"
	QuizStatusActive   QuizStatus = "Active"
	QuizStatusClosed   QuizStatus = "Closed"
)

// Quiz represents a quiz entity.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	ClassID     int        `json:"classId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	// TimeLimit is in minutes. Nil means untimed.
	TimeLimit   *int       `json:"timeLimit"`
	TotalPoints int        `json:"totalPoints"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	IsPublished bool       `json:"isPublished"`
	Status      QuizStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StatusAt derives the lifecycle status at the given instant.
// Draft wins over everything; within the published states the window decides.
func (q *Quiz) StatusAt(now time.Time) QuizStatus {
	if !q.IsPublished {
		return QuizStatusDraft
	}
	if q.StartTime != nil && now.Before(*q.StartTime) {
		return QuizStatusUpcoming
	}
	if q.EndTime != nil && now.After(*q.EndTime) {
		return QuizStatusClosed
	}
	return QuizStatusActive
}

// FillStatus sets the derived Status field relative to now.
func (q *Quiz) FillStatus(now time.Time) {
	q.Status = q.StatusAt(now)
}

// CreateQuizRequest is the payload for creating a new quiz (always a draft).
type CreateQuizRequest struct {
	ClassID     int        `json:"classId" binding:"required,min=1"`
	Title       string     `json:"title" binding:"required,min=3,max=255"`
	Description string     `json:"description" binding:"max=2000"`
	TimeLimit   *int       `json:"timeLimit" binding:"omitempty,min=1,max=480"`
	StartTime   *time.Time `json:"startTime" binding:"omitempty"`
	EndTime     *time.Time `json:"endTime" binding:"omitempty,gtfield=StartTime"`
}

// UpdateQuizRequest is the payload for updating an existing draft quiz.
type UpdateQuizRequest struct {
	Title       string     `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	TimeLimit   *int       `json:"timeLimit" binding:"omitempty,min=1,max=480"`
	StartTime   *time.Time `json:"startTime" binding:"omitempty"`
	EndTime     *time.Time `json:"endTime" binding:"omitempty,gtfield=StartTime"`
}

// QuizPayload is the Redis-cached paper sent to students (no correct answers).
type QuizPayload struct {
	QuizID    uuid.UUID            `json:"quizId"`
	Title     string               `json:"title"`
	TimeLimit *int                 `json:"timeLimit"`
	Questions []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question without the correct answer.
type QuestionForStudent struct {
	ID       uuid.UUID       `json:"id"`
	Text     string          `json:"text"`
	Type     QuestionType    `json:"type"`
	Points   int             `json:"points"`
	Options  json.RawMessage `json:"options,omitempty"`
	OrderNum int             `json:"orderNum"`
}

// LobbyQuiz is a quiz as shown in the student class view, overlaid with the
// student's own attempt state.
type LobbyQuiz struct {
	Quiz
	AttemptID   *uuid.UUID `json:"attemptId,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
	Score       *int       `json:"score,omitempty"`
}
