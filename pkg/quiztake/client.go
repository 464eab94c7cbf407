// Package quiztake implements the student-side quiz attempt lifecycle: a
// REST client for the quiz API, an in-memory answer buffer, a countdown
// timer with one-shot auto-submit, the attempt session state machine tying
// them together, and a read-only review of past attempts.
package quiztake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrorKind classifies API failures into a closed set the session logic can
// switch on.
type ErrorKind string

const (
	KindNotEnrolled      ErrorKind = "not_enrolled"
	KindNotStarted       ErrorKind = "not_started"
	KindQuizClosed       ErrorKind = "quiz_closed"
	KindActiveAttempt    ErrorKind = "active_attempt"
	KindAlreadySubmitted ErrorKind = "already_submitted"
	KindNotFound         ErrorKind = "not_found"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindServer           ErrorKind = "server"
	KindNetwork          ErrorKind = "network"
)

// APIError is a failed API call with its classified kind. Code is the
// structured error code from the response body when the server sent one.
type APIError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// KindOf extracts the ErrorKind from an error chain, returning KindServer
// for anything that is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServer
}

// classifyError maps a structured error code to an ErrorKind, falling back
// to message substrings for servers that predate structured codes.
func classifyError(status int, code, message string) ErrorKind {
	switch code {
	case "NOT_ENROLLED":
		return KindNotEnrolled
	case "QUIZ_NOT_STARTED":
		return KindNotStarted
	case "QUIZ_CLOSED":
		return KindQuizClosed
	case "ACTIVE_ATTEMPT":
		return KindActiveAttempt
	case "ATTEMPT_ALREADY_SUBMITTED":
		return KindAlreadySubmitted
	case "NOT_FOUND", "QUIZ_NOT_PUBLISHED":
		return KindNotFound
	case "TOKEN_REQUIRED", "TOKEN_INVALID", "TOKEN_EXPIRED":
		return KindUnauthorized
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not enrolled"):
		return KindNotEnrolled
	case strings.Contains(lower, "not started"):
		return KindNotStarted
	case strings.Contains(lower, "active attempt"):
		return KindActiveAttempt
	}

	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	}
	return KindServer
}

// ─── Wire types ─────────────────────────────────────────────────────

// Quiz is quiz metadata as served by the API.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TimeLimit   *int       `json:"timeLimit"`
	TotalPoints int        `json:"totalPoints"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	IsPublished bool       `json:"isPublished"`
	Status      string     `json:"status"`
}

// OptionList decodes a question's options defensively: servers have sent a
// native JSON array, a JSON-encoded string containing an array, and the
// occasional malformed value. Anything unreadable degrades to empty.
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*o = values
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &values); err == nil {
			*o = values
			return nil
		}
	}

	*o = nil
	return nil
}

// Question is one quiz question as served to a student. CorrectAnswer is
// empty until the server reveals it (after completion or quiz close).
type Question struct {
	ID            uuid.UUID  `json:"id"`
	Text          string     `json:"text"`
	Type          string     `json:"type"`
	Points        int        `json:"points"`
	OrderNum      int        `json:"orderNum"`
	Options       OptionList `json:"options"`
	CorrectAnswer string     `json:"correctAnswer"`
}

// Attempt is one pass at a quiz.
type Attempt struct {
	ID                  uuid.UUID  `json:"id"`
	QuizID              uuid.UUID  `json:"quizId"`
	StartedAt           time.Time  `json:"startedAt"`
	SubmittedAt         *time.Time `json:"submittedAt"`
	Score               *int       `json:"score"`
	TotalPossiblePoints int        `json:"totalPossiblePoints"`
	TimeTaken           *int       `json:"timeTaken"`
	IsCompleted         bool       `json:"isCompleted"`
}

// AnswerRecord is one graded answer of a completed attempt.
type AnswerRecord struct {
	QuestionID   uuid.UUID `json:"questionId"`
	Answer       string    `json:"answer"`
	IsCorrect    bool      `json:"isCorrect"`
	PointsEarned int       `json:"pointsEarned"`
}

// AnswerPayload is one {questionId, answer} pair of a submission.
type AnswerPayload struct {
	QuestionID uuid.UUID `json:"questionId"`
	Answer     string    `json:"answer"`
}

// SubmitResult is the grading outcome of a submission.
type SubmitResult struct {
	Score               int `json:"score"`
	TotalPossiblePoints int `json:"totalPossiblePoints"`
}

// ─── Client ─────────────────────────────────────────────────────────

// Client is an authenticated HTTP client for the quiz API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client for the given API base URL (e.g.
// "https://quiz.example.com") and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the standard API response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{
			Kind:    KindServer,
			Message: fmt.Sprintf("invalid response (status %d)", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	if resp.StatusCode >= 400 || env.Error != nil {
		apiErr := &APIError{Kind: KindServer, Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		apiErr.Kind = classifyError(resp.StatusCode, apiErr.Code, apiErr.Message)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Kind: KindServer, Message: "invalid response payload", Status: resp.StatusCode}
		}
	}
	return nil
}

// GetQuiz fetches quiz metadata.
func (c *Client) GetQuiz(ctx context.Context, quizID uuid.UUID) (*Quiz, error) {
	var data struct {
		Quiz Quiz `json:"quiz"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+quizID.String(), nil, &data); err != nil {
		return nil, err
	}
	return &data.Quiz, nil
}

// GetQuestions fetches the quiz's ordered question list.
func (c *Client) GetQuestions(ctx context.Context, quizID uuid.UUID) ([]Question, error) {
	var data struct {
		Questions []Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+quizID.String()+"/questions", nil, &data); err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// OpenAttempt asks the server to start a new attempt. The server is the sole
// authority on enrollment, timing windows, and the one-active-attempt rule.
func (c *Client) OpenAttempt(ctx context.Context, quizID uuid.UUID) (*Attempt, error) {
	var data struct {
		Attempt Attempt `json:"attempt"`
	}
	body := map[string]string{"quizId": quizID.String()}
	if err := c.do(ctx, http.MethodPost, "/api/attempts", body, &data); err != nil {
		return nil, err
	}
	return &data.Attempt, nil
}

// SubmitAttempt submits the full answer set of an attempt for grading.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID uuid.UUID, answers []AnswerPayload) (*SubmitResult, error) {
	var data struct {
		Result SubmitResult `json:"result"`
	}
	body := map[string]interface{}{"answers": answers}
	if err := c.do(ctx, http.MethodPost, "/api/attempts/"+attemptID.String()+"/submit", body, &data); err != nil {
		return nil, err
	}
	return &data.Result, nil
}

// ListAttempts fetches the student's own attempts at a quiz, most recently
// submitted first.
func (c *Client) ListAttempts(ctx context.Context, quizID uuid.UUID, completedOnly bool) ([]Attempt, error) {
	q := url.Values{}
	q.Set("quizId", quizID.String())
	if completedOnly {
		q.Set("isCompleted", "true")
	}

	var data struct {
		Attempts []Attempt `json:"attempts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/attempts?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}
	return data.Attempts, nil
}

// ListAnswers fetches the graded answers of a completed attempt.
func (c *Client) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]AnswerRecord, error) {
	var data struct {
		Answers []AnswerRecord `json:"answers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/answers?attemptId="+attemptID.String(), nil, &data); err != nil {
		return nil, err
	}
	return data.Answers, nil
}
