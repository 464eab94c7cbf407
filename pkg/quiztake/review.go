package quiztake

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoAttempts is returned when a review is requested for a quiz the
// student has never completed.
var ErrNoAttempts = errors.New("no completed attempts for this quiz")

// OptionReview is one choice option with its two independent marks. An
// option can be chosen and correct, correct but not chosen, or chosen and
// wrong; chosen options stay highlighted even when wrong, and the correct
// option is always revealed.
type OptionReview struct {
	Value   string
	Chosen  bool
	Correct bool
}

// QuestionReview is one question zipped with the attempt's answer for it.
type QuestionReview struct {
	Question     Question
	Submitted    string
	IsCorrect    bool
	PointsEarned int
	Options      []OptionReview
}

// Review is the read-only reconstruction of a completed attempt.
type Review struct {
	Quiz      *Quiz
	Attempt   *Attempt
	Questions []QuestionReview
}

// LoadReview fetches and assembles the review for a specific attempt.
func LoadReview(ctx context.Context, client *Client, quizID, attemptID uuid.UUID) (*Review, error) {
	quiz, err := client.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	questions, err := client.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	attempts, err := client.ListAttempts(ctx, quizID, true)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	attempt := pickAttempt(attempts, attemptID)
	if attempt == nil {
		return nil, ErrNoAttempts
	}

	answers, err := client.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	return buildReview(quiz, attempt, questions, answers), nil
}

// LoadLatestReview assembles the review for the student's most recently
// submitted attempt at the quiz.
func LoadLatestReview(ctx context.Context, client *Client, quizID uuid.UUID) (*Review, error) {
	return LoadReview(ctx, client, quizID, uuid.Nil)
}

// pickAttempt selects the requested attempt, or with a nil ID the attempt
// with the latest submit timestamp.
func pickAttempt(attempts []Attempt, attemptID uuid.UUID) *Attempt {
	var picked *Attempt
	for i := range attempts {
		a := &attempts[i]
		if !a.IsCompleted {
			continue
		}
		if attemptID != uuid.Nil {
			if a.ID == attemptID {
				return a
			}
			continue
		}
		if picked == nil {
			picked = a
			continue
		}
		if a.SubmittedAt != nil &&
			(picked.SubmittedAt == nil || a.SubmittedAt.After(*picked.SubmittedAt)) {
			picked = a
		}
	}
	return picked
}

// buildReview zips questions and answers by question ID. Correctness is
// exact string equality between the submitted and correct answers, matching
// the grading contract: no case folding, no whitespace trimming.
func buildReview(quiz *Quiz, attempt *Attempt, questions []Question, answers []AnswerRecord) *Review {
	byQuestion := make(map[uuid.UUID]*AnswerRecord, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	items := make([]QuestionReview, len(questions))
	for i, q := range questions {
		item := QuestionReview{Question: q}

		if rec, ok := byQuestion[q.ID]; ok {
			item.Submitted = rec.Answer
			item.PointsEarned = rec.PointsEarned
		}

		if q.CorrectAnswer != "" {
			item.IsCorrect = item.Submitted == q.CorrectAnswer
		} else if rec, ok := byQuestion[q.ID]; ok {
			// Correct answer withheld by the server; trust its grading.
			item.IsCorrect = rec.IsCorrect
		}

		for _, opt := range q.Options {
			item.Options = append(item.Options, OptionReview{
				Value:   opt,
				Chosen:  opt == item.Submitted,
				Correct: q.CorrectAnswer != "" && opt == q.CorrectAnswer,
			})
		}

		items[i] = item
	}

	return &Review{Quiz: quiz, Attempt: attempt, Questions: items}
}
