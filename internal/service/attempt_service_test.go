package service

import (
	"testing"
	"time"

	"github.com/classquiz/classquiz-backend/internal/model"
)

func TestAttemptDeadline(t *testing.T) {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	limit30 := 30
	endSoon := started.Add(10 * time.Minute)
	endLate := started.Add(2 * time.Hour)

	cases := []struct {
		name string
		quiz model.Quiz
		want *time.Time
	}{
		{"untimed open-ended", model.Quiz{}, nil},
		{
			"time limit only",
			model.Quiz{TimeLimit: &limit30},
			timePtr(started.Add(30 * time.Minute)),
		},
		{
			"end time only",
			model.Quiz{EndTime: &endSoon},
			&endSoon,
		},
		{
			"end time wins when earlier",
			model.Quiz{TimeLimit: &limit30, EndTime: &endSoon},
			&endSoon,
		},
		{
			"time limit wins when earlier",
			model.Quiz{TimeLimit: &limit30, EndTime: &endLate},
			timePtr(started.Add(30 * time.Minute)),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := attemptDeadline(&c.quiz, started)
			switch {
			case c.want == nil && got != nil:
				t.Fatalf("deadline = %v, want nil", got)
			case c.want != nil && got == nil:
				t.Fatalf("deadline = nil, want %v", c.want)
			case c.want != nil && !got.Equal(*c.want):
				t.Fatalf("deadline = %v, want %v", got, c.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
