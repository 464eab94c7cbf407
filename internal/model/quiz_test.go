package model

import (
	"testing"
	"time"
)

func TestQuizStatusAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name      string
		published bool
		start     *time.Time
		end       *time.Time
		want      QuizStatus
	}{
		{"unpublished is draft", false, nil, nil, QuizStatusDraft},
		{"unpublished ignores window", false, &past, &future, QuizStatusDraft},
		{"published no window", true, nil, nil, QuizStatusActive},
		{"before start", true, &future, nil, QuizStatusUpcoming},
		{"inside window", true, &past, &future, QuizStatusActive},
		{"after end", true, nil, &past, QuizStatusClosed},
		{"start passed end passed", true, &past, &past, QuizStatusClosed},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := Quiz{IsPublished: c.published, StartTime: c.start, EndTime: c.end}
			if got := q.StatusAt(now); got != c.want {
				t.Fatalf("StatusAt = %s, want %s", got, c.want)
			}
		})
	}
}

func TestQuizStatusAtBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Exactly at start: the quiz is open.
	q := Quiz{IsPublished: true, StartTime: &now}
	if got := q.StatusAt(now); got != QuizStatusActive {
		t.Fatalf("at start: %s, want %s", got, QuizStatusActive)
	}

	// Exactly at end: still open; only strictly-after closes.
	q = Quiz{IsPublished: true, EndTime: &now}
	if got := q.StatusAt(now); got != QuizStatusActive {
		t.Fatalf("at end: %s, want %s", got, QuizStatusActive)
	}
}
