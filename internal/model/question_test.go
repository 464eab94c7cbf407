package model

import (
	"encoding/json"
	"testing"
)

func TestQuestionOptionValues(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"array", `["A","B","C"]`, 3},
		{"double-encoded", `"[\"A\",\"B\"]"`, 2},
		{"malformed", `"oops"`, 0},
		{"empty", ``, 0},
		{"null", `null`, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := Question{Options: json.RawMessage(c.raw)}
			if got := len(q.OptionValues()); got != c.want {
				t.Fatalf("OptionValues len = %d, want %d", got, c.want)
			}
		})
	}
}

func TestQuestionTypeHasOptions(t *testing.T) {
	if !QuestionTypeMultipleChoice.HasOptions() || !QuestionTypeTrueFalse.HasOptions() {
		t.Fatal("choice types must carry options")
	}
	if QuestionTypeShortAnswer.HasOptions() {
		t.Fatal("short-answer must not carry options")
	}
}
