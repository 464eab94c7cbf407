package quiztake

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestClassifyErrorByCode(t *testing.T) {
	cases := []struct {
		code string
		want ErrorKind
	}{
		{"NOT_ENROLLED", KindNotEnrolled},
		{"QUIZ_NOT_STARTED", KindNotStarted},
		{"QUIZ_CLOSED", KindQuizClosed},
		{"ACTIVE_ATTEMPT", KindActiveAttempt},
		{"ATTEMPT_ALREADY_SUBMITTED", KindAlreadySubmitted},
		{"NOT_FOUND", KindNotFound},
		{"QUIZ_NOT_PUBLISHED", KindNotFound},
		{"TOKEN_EXPIRED", KindUnauthorized},
	}
	for _, c := range cases {
		if got := classifyError(http.StatusConflict, c.code, ""); got != c.want {
			t.Errorf("classifyError(%s) = %s, want %s", c.code, got, c.want)
		}
	}
}

func TestClassifyErrorBySubstringFallback(t *testing.T) {
	// Older servers send only prose; the known substrings must still map.
	cases := []struct {
		message string
		want    ErrorKind
	}{
		{"You are not enrolled in this class", KindNotEnrolled},
		{"Quiz has not started yet", KindNotStarted},
		{"An active attempt already exists", KindActiveAttempt},
		{"something exploded", KindServer},
	}
	for _, c := range cases {
		if got := classifyError(http.StatusConflict, "", c.message); got != c.want {
			t.Errorf("classifyError(%q) = %s, want %s", c.message, got, c.want)
		}
	}

	if got := classifyError(http.StatusNotFound, "", "gone"); got != KindNotFound {
		t.Errorf("404 fallback = %s, want %s", got, KindNotFound)
	}
	if got := classifyError(http.StatusForbidden, "", "no"); got != KindUnauthorized {
		t.Errorf("403 fallback = %s, want %s", got, KindUnauthorized)
	}
}

func TestOptionListDefensiveParsing(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"native array", `["A","B"]`, []string{"A", "B"}},
		{"json-encoded string", `"[\"A\",\"B\"]"`, []string{"A", "B"}},
		{"malformed", `"not json at all"`, nil},
		{"number", `42`, nil},
		{"null", `null`, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var opts OptionList
			if err := json.Unmarshal([]byte(c.raw), &opts); err != nil {
				t.Fatalf("unmarshal errored instead of degrading: %v", err)
			}
			if len(opts) != len(c.want) {
				t.Fatalf("got %v, want %v", opts, c.want)
			}
			for i := range c.want {
				if opts[i] != c.want[i] {
					t.Fatalf("got %v, want %v", opts, c.want)
				}
			}
		})
	}
}
