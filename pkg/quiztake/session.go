package quiztake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the attempt session lifecycle state.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateError      State = "error"
)

// Session drives one student's pass at a quiz: it loads the quiz and its
// questions, opens a server-side attempt, owns the answer buffer and the
// countdown timer, and performs the one-shot submission.
type Session struct {
	client *Client
	quizID uuid.UUID

	mu       sync.Mutex
	state    State
	viewOnly bool
	inFlight bool
	err      error

	quiz      *Quiz
	questions []Question
	attempt   *Attempt
	buffer    *AnswerBuffer
	timer     *Timer
	result    *SubmitResult

	now           func() time.Time
	autoTick      bool
	toast         func(message string)
	navigate      func(attemptID uuid.UUID)
	navigateDelay time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithToast sets the callback for user-facing notifications.
func WithToast(fn func(message string)) SessionOption {
	return func(s *Session) { s.toast = fn }
}

// WithNavigate sets the callback invoked after a successful submission,
// carrying the attempt ID for the review view.
func WithNavigate(fn func(attemptID uuid.UUID)) SessionOption {
	return func(s *Session) { s.navigate = fn }
}

// WithNavigateDelay overrides the pause between the submission toast and
// navigation.
func WithNavigateDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.navigateDelay = d }
}

// WithManualTimer disables the real-time countdown loop; the caller drives
// the timer through Tick.
func WithManualTimer() SessionOption {
	return func(s *Session) { s.autoTick = false }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a Session in the Loading state. Call Start to
// initialize it.
func NewSession(client *Client, quizID uuid.UUID, opts ...SessionOption) *Session {
	s := &Session{
		client:        client,
		quizID:        quizID,
		state:         StateLoading,
		now:           time.Now,
		autoTick:      true,
		toast:         func(string) {},
		navigate:      func(uuid.UUID) {},
		navigateDelay: 1500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the session: quiz metadata, then the question list, then
// the server-side attempt, in that order. Any failure is fatal and moves the
// session to Error; there is no partial initialization. A quiz whose end
// time has passed enters Ready in a closed-but-viewable mode with submission
// disabled.
func (s *Session) Start(ctx context.Context) error {
	quiz, err := s.client.GetQuiz(ctx, s.quizID)
	if err != nil {
		return s.fail(fmt.Errorf("load quiz: %w", err))
	}
	if quiz.Status == "Draft" || !quiz.IsPublished {
		return s.fail(errors.New("quiz is not available"))
	}

	questions, err := s.client.GetQuestions(ctx, s.quizID)
	if err != nil {
		return s.fail(fmt.Errorf("load questions: %w", err))
	}
	if len(questions) == 0 {
		return s.fail(errors.New("quiz has no questions"))
	}
	for _, q := range questions {
		if q.ID == uuid.Nil || strings.TrimSpace(q.Text) == "" {
			return s.fail(errors.New("quiz contains an invalid question"))
		}
	}

	now := s.now()

	// Closed quizzes stay viewable so students can review late, but no
	// attempt is opened and submission is disabled.
	if quiz.EndTime != nil && now.After(*quiz.EndTime) {
		s.mu.Lock()
		s.quiz = quiz
		s.questions = questions
		s.buffer = NewAnswerBuffer(questions)
		s.timer = NewTimer(nil)
		s.viewOnly = true
		s.state = StateReady
		s.mu.Unlock()
		return nil
	}

	if quiz.StartTime != nil && now.Before(*quiz.StartTime) {
		return s.fail(&APIError{
			Kind:    KindNotStarted,
			Message: fmt.Sprintf("Quiz has not started yet. It opens at %s.", quiz.StartTime.Format(time.RFC1123)),
		})
	}

	attempt, err := s.client.OpenAttempt(ctx, s.quizID)
	if err != nil {
		return s.fail(fmt.Errorf("open attempt: %w", err))
	}

	s.mu.Lock()
	s.quiz = quiz
	s.questions = questions
	s.attempt = attempt
	s.buffer = NewAnswerBuffer(questions)
	s.timer = NewTimer(quiz.TimeLimit)
	s.timer.Arm()
	s.state = StateReady
	s.mu.Unlock()

	if s.autoTick {
		s.timer.Run(func() { s.autoSubmit() })
	}
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.state = StateError
	s.err = err
	s.mu.Unlock()
	return err
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the fatal error, if the session is in the Error state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ViewOnly reports whether the session is in the closed-but-viewable mode.
func (s *Session) ViewOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewOnly
}

// Quiz returns the loaded quiz metadata, nil before initialization.
func (s *Session) Quiz() *Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Questions returns the loaded question list.
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// AttemptID returns the server-issued attempt ID, uuid.Nil before one exists.
func (s *Session) AttemptID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil {
		return uuid.Nil
	}
	return s.attempt.ID
}

// Result returns the grading outcome after a successful submission.
func (s *Session) Result() *SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Remaining returns the countdown's remaining seconds, -1 when untimed.
func (s *Session) Remaining() int {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer == nil {
		return -1
	}
	return timer.Remaining()
}

// UnansweredCount returns how many questions currently have no answer.
func (s *Session) UnansweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return len(s.questions)
	}
	return s.buffer.UnansweredCount()
}

// SetAnswer records an answer in the buffer. Writes are accepted only while
// the session is Ready and not view-only; once Submitting begins the buffer
// is frozen, so input events racing the in-flight submit cannot change what
// was serialized.
func (s *Session) SetAnswer(questionID uuid.UUID, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.viewOnly || s.inFlight {
		return
	}
	s.buffer.Set(questionID, value)
}

// Answer returns the buffered answer for a question.
func (s *Session) Answer(questionID uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return ""
	}
	return s.buffer.Get(questionID)
}

// Tick advances the countdown by one second. On the tick that reaches zero
// the session auto-submits exactly once, with no confirmation and every
// unanswered question sent as an empty string. For real-time sessions this
// is driven internally; tests and custom schedulers call it directly.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	timer := s.timer
	state := s.state
	s.mu.Unlock()

	if timer == nil || state != StateReady {
		return
	}
	if timer.Tick() {
		s.submit(ctx, true, nil)
	}
}

// autoSubmit is the expiry callback for the real-time countdown loop.
func (s *Session) autoSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.submit(ctx, true, nil)
}

// Submit performs a manual submission. When unanswered questions remain,
// confirm is consulted first (a nil confirm accepts); auto-submission skips
// confirmation entirely. In the closed-but-viewable mode Submit is a no-op.
func (s *Session) Submit(ctx context.Context, confirm func(unanswered int) bool) error {
	return s.submit(ctx, false, confirm)
}

func (s *Session) submit(ctx context.Context, auto bool, confirm func(unanswered int) bool) error {
	s.mu.Lock()
	if s.viewOnly || s.state != StateReady || s.inFlight {
		s.mu.Unlock()
		return nil
	}

	unanswered := s.buffer.UnansweredCount()
	if !auto && unanswered > 0 && confirm != nil {
		// Confirmation happens outside the lock so the dialog cannot
		// deadlock the session; the in-flight guard below re-checks state.
		s.mu.Unlock()
		if !confirm(unanswered) {
			return nil
		}
		s.mu.Lock()
		if s.viewOnly || s.state != StateReady || s.inFlight {
			s.mu.Unlock()
			return nil
		}
	}

	s.inFlight = true
	s.state = StateSubmitting
	s.timer.Stop()
	payload := s.buffer.Serialize()
	attemptID := s.attempt.ID
	s.mu.Unlock()

	result, err := s.client.SubmitAttempt(ctx, attemptID, payload)
	if err != nil {
		// Recoverable: back to Ready with the guard released so the
		// student can retry without losing buffered answers.
		s.mu.Lock()
		s.inFlight = false
		s.state = StateReady
		s.timer.Arm()
		s.mu.Unlock()

		if s.autoTick {
			s.timer.Run(func() { s.autoSubmit() })
		}
		s.toast("Submission failed: " + err.Error())
		return err
	}

	s.mu.Lock()
	s.state = StateSubmitted
	s.result = result
	s.mu.Unlock()

	s.toast(fmt.Sprintf("Submitted! Score: %d/%d", result.Score, result.TotalPossiblePoints))

	// Toast first, then navigate after a short pause so it is visible.
	if s.navigateDelay > 0 {
		time.AfterFunc(s.navigateDelay, func() { s.navigate(attemptID) })
	} else {
		s.navigate(attemptID)
	}
	return nil
}
