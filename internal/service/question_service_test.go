package service

import (
	"testing"

	"github.com/classquiz/classquiz-backend/internal/model"
)

func TestValidateQuestion(t *testing.T) {
	cases := []struct {
		name    string
		q       model.AddQuestionRequest
		wantErr bool
	}{
		{
			"valid multiple choice",
			model.AddQuestionRequest{Type: "multiple-choice", Options: []string{"A", "B"}, CorrectAnswer: "A", Points: 1, Text: "q"},
			false,
		},
		{
			"multiple choice with one option",
			model.AddQuestionRequest{Type: "multiple-choice", Options: []string{"A"}, CorrectAnswer: "A", Points: 1, Text: "q"},
			true,
		},
		{
			"multiple choice with blank option",
			model.AddQuestionRequest{Type: "multiple-choice", Options: []string{"A", "  "}, CorrectAnswer: "A", Points: 1, Text: "q"},
			true,
		},
		{
			"multiple choice with duplicate options",
			model.AddQuestionRequest{Type: "multiple-choice", Options: []string{"A", "A"}, CorrectAnswer: "A", Points: 1, Text: "q"},
			true,
		},
		{
			"correct answer not among options",
			model.AddQuestionRequest{Type: "multiple-choice", Options: []string{"A", "B"}, CorrectAnswer: "C", Points: 1, Text: "q"},
			true,
		},
		{
			"valid true-false",
			model.AddQuestionRequest{Type: "true-false", CorrectAnswer: "False", Points: 1, Text: "q"},
			false,
		},
		{
			"true-false with lowercase answer",
			model.AddQuestionRequest{Type: "true-false", CorrectAnswer: "false", Points: 1, Text: "q"},
			true,
		},
		{
			"valid short answer",
			model.AddQuestionRequest{Type: "short-answer", CorrectAnswer: "42", Points: 1, Text: "q"},
			false,
		},
		{
			"short answer with blank key",
			model.AddQuestionRequest{Type: "short-answer", CorrectAnswer: "   ", Points: 1, Text: "q"},
			true,
		},
		{
			"unknown type",
			model.AddQuestionRequest{Type: "essay", CorrectAnswer: "x", Points: 1, Text: "q"},
			true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateQuestion(0, &c.q)
			if (err != nil) != c.wantErr {
				t.Fatalf("validateQuestion = %v, wantErr %t", err, c.wantErr)
			}
		})
	}
}

func TestQuestionValidationErrorReportsIndex(t *testing.T) {
	q := model.AddQuestionRequest{Type: "multiple-choice", Options: []string{"A"}, CorrectAnswer: "A"}
	err := validateQuestion(2, &q)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "question 3: multiple-choice questions need at least 2 options" {
		t.Fatalf("unexpected message: %q", got)
	}
}
