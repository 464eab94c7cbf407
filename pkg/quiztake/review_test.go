package quiztake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestReviewExactEqualityGrading(t *testing.T) {
	f := newFakeAPI(t)

	attemptID := uuid.New()
	submitted := time.Now()
	score := 5
	f.attempts = []Attempt{{
		ID: attemptID, QuizID: f.quiz.ID, IsCompleted: true,
		SubmittedAt: &submitted, Score: &score, TotalPossiblePoints: 10,
	}}
	f.answers[attemptID] = []AnswerRecord{
		{QuestionID: f.questions[0].ID, Answer: "True", IsCorrect: true, PointsEarned: 5},
		// Same digits but with whitespace: graded wrong, and review must
		// agree without normalizing.
		{QuestionID: f.questions[1].ID, Answer: " 5", IsCorrect: false, PointsEarned: 0},
	}

	review, err := LoadReview(context.Background(), f.client(), f.quiz.ID, attemptID)
	if err != nil {
		t.Fatalf("LoadReview: %v", err)
	}

	if len(review.Questions) != 2 {
		t.Fatalf("got %d question reviews, want 2", len(review.Questions))
	}
	if !review.Questions[0].IsCorrect {
		t.Fatal("exact match graded incorrect")
	}
	if review.Questions[1].IsCorrect {
		t.Fatalf("%q vs %q graded correct; no normalization may be applied",
			review.Questions[1].Submitted, f.questions[1].CorrectAnswer)
	}
}

func TestReviewOptionMarks(t *testing.T) {
	f := newFakeAPI(t)
	f.questions = []Question{{
		ID: uuid.New(), Text: "Pick one", Type: "multiple-choice", Points: 5, OrderNum: 1,
		Options: OptionList{"A", "B", "C"}, CorrectAnswer: "B",
	}}

	attemptID := uuid.New()
	submitted := time.Now()
	f.attempts = []Attempt{{ID: attemptID, QuizID: f.quiz.ID, IsCompleted: true, SubmittedAt: &submitted}}
	f.answers[attemptID] = []AnswerRecord{
		{QuestionID: f.questions[0].ID, Answer: "C", IsCorrect: false},
	}

	review, err := LoadReview(context.Background(), f.client(), f.quiz.ID, attemptID)
	if err != nil {
		t.Fatalf("LoadReview: %v", err)
	}

	opts := review.Questions[0].Options
	if len(opts) != 3 {
		t.Fatalf("got %d options, want 3", len(opts))
	}
	// A: neither chosen nor correct. B: correct but not chosen. C: chosen
	// but wrong, still highlighted even though it is not the answer.
	want := []OptionReview{
		{Value: "A", Chosen: false, Correct: false},
		{Value: "B", Chosen: false, Correct: true},
		{Value: "C", Chosen: true, Correct: false},
	}
	for i, w := range want {
		if opts[i] != w {
			t.Fatalf("option %d = %+v, want %+v", i, opts[i], w)
		}
	}
}

func TestReviewChosenAndCorrect(t *testing.T) {
	f := newFakeAPI(t)

	attemptID := uuid.New()
	submitted := time.Now()
	f.attempts = []Attempt{{ID: attemptID, QuizID: f.quiz.ID, IsCompleted: true, SubmittedAt: &submitted}}
	f.answers[attemptID] = []AnswerRecord{
		{QuestionID: f.questions[0].ID, Answer: "True", IsCorrect: true, PointsEarned: 5},
	}

	review, err := LoadReview(context.Background(), f.client(), f.quiz.ID, attemptID)
	if err != nil {
		t.Fatalf("LoadReview: %v", err)
	}

	var trueOpt *OptionReview
	for i := range review.Questions[0].Options {
		if review.Questions[0].Options[i].Value == "True" {
			trueOpt = &review.Questions[0].Options[i]
		}
	}
	if trueOpt == nil {
		t.Fatal("True option missing")
	}
	if !trueOpt.Chosen || !trueOpt.Correct {
		t.Fatalf("True option = %+v, want chosen and correct", *trueOpt)
	}
}

func TestReviewPicksLatestSubmitted(t *testing.T) {
	f := newFakeAPI(t)

	early := time.Now().Add(-2 * time.Hour)
	late := time.Now().Add(-time.Hour)
	first := Attempt{ID: uuid.New(), QuizID: f.quiz.ID, IsCompleted: true, SubmittedAt: &early}
	second := Attempt{ID: uuid.New(), QuizID: f.quiz.ID, IsCompleted: true, SubmittedAt: &late}
	inProgress := Attempt{ID: uuid.New(), QuizID: f.quiz.ID, IsCompleted: false}
	f.attempts = []Attempt{first, inProgress, second}
	f.answers[second.ID] = []AnswerRecord{
		{QuestionID: f.questions[0].ID, Answer: "True", IsCorrect: true},
	}

	review, err := LoadLatestReview(context.Background(), f.client(), f.quiz.ID)
	if err != nil {
		t.Fatalf("LoadLatestReview: %v", err)
	}
	if review.Attempt.ID != second.ID {
		t.Fatalf("picked attempt %s, want the latest-submitted %s", review.Attempt.ID, second.ID)
	}
}

func TestReviewMissingAttemptIsError(t *testing.T) {
	f := newFakeAPI(t)
	// Only an in-progress attempt exists.
	f.attempts = []Attempt{{ID: uuid.New(), QuizID: f.quiz.ID, IsCompleted: false}}

	_, err := LoadLatestReview(context.Background(), f.client(), f.quiz.ID)
	if !errors.Is(err, ErrNoAttempts) {
		t.Fatalf("err = %v, want ErrNoAttempts", err)
	}
}
