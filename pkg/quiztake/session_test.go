package quiztake

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeAPI is a configurable in-memory quiz API speaking the response
// envelope the real backend uses.
type fakeAPI struct {
	mu        sync.Mutex
	quiz      Quiz
	questions []Question
	attempts  []Attempt
	answers   map[uuid.UUID][]AnswerRecord

	submitCalls int64
	openCalls   int64
	openError   *apiErrorBody
	submitError *apiErrorBody
	lastSubmit  []AnswerPayload

	server *httptest.Server
}

type apiErrorBody struct {
	Status  int
	Code    string
	Message string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	quizID := uuid.New()
	f := &fakeAPI{
		quiz: Quiz{
			ID:          quizID,
			Title:       "Fractions",
			TotalPoints: 10,
			IsPublished: true,
			Status:      "Active",
		},
		answers: make(map[uuid.UUID][]AnswerRecord),
	}
	f.questions = []Question{
		{ID: uuid.New(), Text: "1/2 + 1/4 = 3/4", Type: "true-false", Points: 5, OrderNum: 1, Options: OptionList{"True", "False"}, CorrectAnswer: "True"},
		{ID: uuid.New(), Text: "What is 1/2 of 10?", Type: "short-answer", Points: 5, OrderNum: 2, CorrectAnswer: "5"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", f.handle)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client() *Client {
	return NewClient(f.server.URL, "test-token")
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func writeEnvelopeError(w http.ResponseWriter, e *apiErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  nil,
		"error": map[string]string{"code": e.Code, "message": e.Message},
	})
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/api/quizzes/"+f.quiz.ID.String():
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"quiz": f.quiz})

	case r.Method == http.MethodGet && path == "/api/quizzes/"+f.quiz.ID.String()+"/questions":
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"questions": f.questions})

	case r.Method == http.MethodPost && path == "/api/attempts":
		atomic.AddInt64(&f.openCalls, 1)
		if f.openError != nil {
			writeEnvelopeError(w, f.openError)
			return
		}
		attempt := Attempt{
			ID:                  uuid.New(),
			QuizID:              f.quiz.ID,
			StartedAt:           time.Now(),
			TotalPossiblePoints: f.quiz.TotalPoints,
		}
		f.attempts = append(f.attempts, attempt)
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"attempt": attempt})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/submit"):
		atomic.AddInt64(&f.submitCalls, 1)
		if f.submitError != nil {
			writeEnvelopeError(w, f.submitError)
			return
		}
		var body struct {
			Answers []AnswerPayload `json:"answers"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.lastSubmit = body.Answers

		result := f.grade(body.Answers)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"result": result})

	case r.Method == http.MethodGet && path == "/api/attempts":
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"attempts": f.attempts})

	case r.Method == http.MethodGet && path == "/api/answers":
		attemptID, _ := uuid.Parse(r.URL.Query().Get("attemptId"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"answers": f.answers[attemptID]})

	default:
		writeEnvelopeError(w, &apiErrorBody{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "Resource not found."})
	}
}

func (f *fakeAPI) grade(answers []AnswerPayload) SubmitResult {
	correct := make(map[uuid.UUID]Question, len(f.questions))
	for _, q := range f.questions {
		correct[q.ID] = q
	}
	score := 0
	for _, a := range answers {
		if q, ok := correct[a.QuestionID]; ok && a.Answer == q.CorrectAnswer {
			score += q.Points
		}
	}
	return SubmitResult{Score: score, TotalPossiblePoints: f.quiz.TotalPoints}
}

func startSession(t *testing.T, f *fakeAPI, opts ...SessionOption) *Session {
	t.Helper()
	opts = append([]SessionOption{WithManualTimer(), WithNavigateDelay(0)}, opts...)
	s := NewSession(f.client(), f.quiz.ID, opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	f := newFakeAPI(t)
	s := startSession(t, f)

	if got := s.State(); got != StateReady {
		t.Fatalf("state = %s, want %s", got, StateReady)
	}
	if s.AttemptID() == uuid.Nil {
		t.Fatal("expected a server-issued attempt ID")
	}

	s.SetAnswer(f.questions[0].ID, "True")
	s.SetAnswer(f.questions[1].ID, "5")

	if err := s.Submit(context.Background(), nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := s.State(); got != StateSubmitted {
		t.Fatalf("state = %s, want %s", got, StateSubmitted)
	}
	if r := s.Result(); r == nil || r.Score != 10 {
		t.Fatalf("result = %+v, want score 10", r)
	}
}

func TestSessionIdempotentSubmission(t *testing.T) {
	f := newFakeAPI(t)
	s := startSession(t, f)

	// Hammer submit from many goroutines at once; exactly one network call
	// may go out.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit(context.Background(), nil)
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&f.submitCalls); n != 1 {
		t.Fatalf("submit calls = %d, want 1", n)
	}
}

func TestSessionTimerAutoSubmit(t *testing.T) {
	f := newFakeAPI(t)
	limit := 1
	f.quiz.TimeLimit = &limit

	s := startSession(t, f)

	if got := s.Remaining(); got != 60 {
		t.Fatalf("remaining = %d, want 60", got)
	}

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		s.Tick(ctx)
	}

	if got := s.State(); got != StateSubmitted {
		t.Fatalf("state after 60 ticks = %s, want %s", got, StateSubmitted)
	}
	if n := atomic.LoadInt64(&f.submitCalls); n != 1 {
		t.Fatalf("submit calls = %d, want 1", n)
	}
	for _, a := range f.lastSubmit {
		if a.Answer != "" {
			t.Fatalf("auto-submitted answer %q for %s, want empty", a.Answer, a.QuestionID)
		}
	}

	// Extra ticks after submission must be inert.
	s.Tick(ctx)
	s.Tick(ctx)
	if n := atomic.LoadInt64(&f.submitCalls); n != 1 {
		t.Fatalf("submit calls after extra ticks = %d, want 1", n)
	}
}

func TestSessionTimerMonotonic(t *testing.T) {
	f := newFakeAPI(t)
	limit := 1
	f.quiz.TimeLimit = &limit

	s := startSession(t, f)
	ctx := context.Background()

	prev := s.Remaining()
	for i := 0; i < 30; i++ {
		s.Tick(ctx)
		cur := s.Remaining()
		if cur != prev-1 {
			t.Fatalf("tick %d: remaining went %d -> %d, want strict -1", i, prev, cur)
		}
		prev = cur
	}

	// Submitting freezes the countdown even if ticks keep arriving.
	if err := s.Submit(ctx, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	frozen := s.Remaining()
	s.Tick(ctx)
	s.Tick(ctx)
	if got := s.Remaining(); got != frozen {
		t.Fatalf("remaining changed after submit: %d -> %d", frozen, got)
	}
	if frozen < 0 {
		t.Fatalf("remaining went negative: %d", frozen)
	}
}

func TestSessionClosedQuizIsViewOnly(t *testing.T) {
	f := newFakeAPI(t)
	past := time.Now().Add(-time.Hour)
	f.quiz.EndTime = &past
	f.quiz.Status = "Closed"

	s := startSession(t, f)

	if got := s.State(); got != StateReady {
		t.Fatalf("state = %s, want %s (closed-but-viewable)", got, StateReady)
	}
	if !s.ViewOnly() {
		t.Fatal("expected view-only mode")
	}
	if n := atomic.LoadInt64(&f.openCalls); n != 0 {
		t.Fatalf("attempt-open calls = %d, want 0 for a closed quiz", n)
	}

	// Submission and answering are no-ops.
	s.SetAnswer(f.questions[0].ID, "True")
	if err := s.Submit(context.Background(), nil); err != nil {
		t.Fatalf("Submit on closed quiz errored: %v", err)
	}
	if n := atomic.LoadInt64(&f.submitCalls); n != 0 {
		t.Fatalf("submit calls = %d, want 0", n)
	}
	if got := s.Answer(f.questions[0].ID); got != "" {
		t.Fatalf("answer buffered on view-only session: %q", got)
	}
}

func TestSessionNotStartedGuard(t *testing.T) {
	f := newFakeAPI(t)
	future := time.Now().Add(time.Hour)
	f.quiz.StartTime = &future
	f.quiz.Status = "Upcoming"

	s := NewSession(f.client(), f.quiz.ID, WithManualTimer())
	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("expected error for an upcoming quiz")
	}
	if got := s.State(); got != StateError {
		t.Fatalf("state = %s, want %s", got, StateError)
	}
	// The guard fires before the attempt-creation call.
	if n := atomic.LoadInt64(&f.openCalls); n != 0 {
		t.Fatalf("attempt-open calls = %d, want 0", n)
	}
}

func TestSessionActiveAttemptSurfaced(t *testing.T) {
	f := newFakeAPI(t)
	f.openError = &apiErrorBody{
		Status:  http.StatusConflict,
		Code:    "ACTIVE_ATTEMPT",
		Message: "An active attempt already exists for this quiz.",
	}

	s := NewSession(f.client(), f.quiz.ID, WithManualTimer())
	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := KindOf(err); kind != KindActiveAttempt {
		t.Fatalf("kind = %s, want %s", kind, KindActiveAttempt)
	}
	if got := s.State(); got != StateError {
		t.Fatalf("state = %s, want %s", got, StateError)
	}
}

func TestSessionSubmitFailureIsRecoverable(t *testing.T) {
	f := newFakeAPI(t)

	var toasts []string
	s := startSession(t, f, WithToast(func(msg string) { toasts = append(toasts, msg) }))

	s.SetAnswer(f.questions[0].ID, "True")

	f.mu.Lock()
	f.submitError = &apiErrorBody{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "Something went wrong."}
	f.mu.Unlock()

	if err := s.Submit(context.Background(), nil); err == nil {
		t.Fatal("expected submit failure")
	}
	if got := s.State(); got != StateReady {
		t.Fatalf("state after failure = %s, want %s", got, StateReady)
	}
	if len(toasts) == 0 || !strings.Contains(toasts[0], "failed") {
		t.Fatalf("expected a failure toast, got %v", toasts)
	}
	// Buffered answers survive the failure.
	if got := s.Answer(f.questions[0].ID); got != "True" {
		t.Fatalf("buffer lost after failure: %q", got)
	}

	// Retry succeeds once the server recovers.
	f.mu.Lock()
	f.submitError = nil
	f.mu.Unlock()

	if err := s.Submit(context.Background(), nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := s.State(); got != StateSubmitted {
		t.Fatalf("state after retry = %s, want %s", got, StateSubmitted)
	}
	if n := atomic.LoadInt64(&f.submitCalls); n != 2 {
		t.Fatalf("submit calls = %d, want 2", n)
	}
}

func TestSessionConfirmBlocksSubmission(t *testing.T) {
	f := newFakeAPI(t)
	s := startSession(t, f)

	declined := 0
	decline := func(unanswered int) bool {
		declined = unanswered
		return false
	}
	if err := s.Submit(context.Background(), decline); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if declined != len(f.questions) {
		t.Fatalf("confirm saw %d unanswered, want %d", declined, len(f.questions))
	}
	if n := atomic.LoadInt64(&f.submitCalls); n != 0 {
		t.Fatalf("submit calls = %d, want 0 after declined confirmation", n)
	}
	if got := s.State(); got != StateReady {
		t.Fatalf("state = %s, want %s", got, StateReady)
	}
}

func TestSessionToastBeforeNavigate(t *testing.T) {
	f := newFakeAPI(t)

	var events []string
	var mu sync.Mutex
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	s := startSession(t, f,
		WithToast(func(string) { record("toast") }),
		WithNavigate(func(uuid.UUID) { record("navigate") }),
	)
	s.SetAnswer(f.questions[0].ID, "True")

	if err := s.Submit(context.Background(), nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "toast" || events[1] != "navigate" {
		t.Fatalf("events = %v, want [toast navigate]", events)
	}
}

func TestSessionAnswersFrozenAfterSubmit(t *testing.T) {
	f := newFakeAPI(t)
	s := startSession(t, f)

	s.SetAnswer(f.questions[0].ID, "True")
	if err := s.Submit(context.Background(), nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s.SetAnswer(f.questions[0].ID, "False")
	if got := s.Answer(f.questions[0].ID); got != "True" {
		t.Fatalf("buffer mutated after submission: %q", got)
	}
}
