package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/classquiz/classquiz-backend/internal/config"
	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors for the attempt lifecycle.
var (
	ErrQuizNotPublished        = errors.New("quiz is not published")
	ErrNotEnrolled             = errors.New("not enrolled in this class")
	ErrQuizClosed              = errors.New("quiz has ended")
	ErrActiveAttempt           = errors.New("an active attempt already exists for this quiz")
	ErrNotAttemptOwner         = errors.New("not the owner of this attempt")
	ErrAttemptAlreadySubmitted = errors.New("attempt has already been submitted")
)

// QuizNotStartedError is returned when a student opens an attempt before the
// quiz's start time. It carries the start time so the handler can tell the
// student when to come back.
type QuizNotStartedError struct {
	StartTime time.Time
}

func (e *QuizNotStartedError) Error() string {
	return fmt.Sprintf("quiz has not started yet, starts at %s", e.StartTime.Format(time.RFC3339))
}

// AttemptService owns the attempt lifecycle: opening, grading submissions,
// and the timed-attempt deadline cache.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	quizRepo    *repository.QuizRepository
	classRepo   *repository.ClassRepository
	quizService *QuizService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	quizRepo *repository.QuizRepository,
	classRepo *repository.ClassRepository,
	quizService *QuizService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		quizRepo:    quizRepo,
		classRepo:   classRepo,
		quizService: quizService,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Open starts a new attempt for a student. The guards run in a fixed order
// so the student always gets the most specific error: publication, then
// enrollment, then the time window, then the one-active-attempt rule.
func (s *AttemptService) Open(ctx context.Context, studentID int, quizID uuid.UUID) (*model.Attempt, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotPublished
	}

	enrolled, err := s.classRepo.IsEnrolled(ctx, quiz.ClassID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	now := time.Now()
	if quiz.StartTime != nil && now.Before(*quiz.StartTime) {
		return nil, &QuizNotStartedError{StartTime: *quiz.StartTime}
	}
	if quiz.EndTime != nil && now.After(*quiz.EndTime) {
		return nil, ErrQuizClosed
	}

	attempt := &model.Attempt{
		QuizID:              quizID,
		StudentID:           studentID,
		TotalPossiblePoints: quiz.TotalPoints,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrActiveAttempt
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	if deadline := attemptDeadline(quiz, attempt.StartedAt); deadline != nil {
		s.cacheDeadline(ctx, attempt.ID, *deadline)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("quiz_id", quizID.String()).
		Int("student_id", studentID).
		Msg("Attempt opened")
	return attempt, nil
}

// attemptDeadline computes the instant an attempt must be handed in: the
// earlier of the per-attempt time limit and the quiz end time. Nil means the
// attempt is unlimited.
func attemptDeadline(quiz *model.Quiz, startedAt time.Time) *time.Time {
	var deadline *time.Time
	if quiz.TimeLimit != nil {
		d := startedAt.Add(time.Duration(*quiz.TimeLimit) * time.Minute)
		deadline = &d
	}
	if quiz.EndTime != nil && (deadline == nil || quiz.EndTime.Before(*deadline)) {
		deadline = quiz.EndTime
	}
	return deadline
}

func (s *AttemptService) cacheDeadline(ctx context.Context, attemptID uuid.UUID, deadline time.Time) {
	ttl := time.Until(deadline) + 10*time.Minute
	err := s.rdb.Set(ctx,
		config.CacheKey.AttemptDeadlineKey(attemptID.String()),
		strconv.FormatInt(deadline.Unix(), 10), ttl).Err()
	if err != nil {
		// The timer stream falls back to PostgreSQL on a miss.
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to cache deadline")
	}
}

// Submit grades a full answer set and closes the attempt. Every question of
// the quiz is graded exactly once: answers for unknown questions are ignored
// and unanswered questions score zero. Grading is exact string equality.
func (s *AttemptService) Submit(ctx context.Context, studentID int, attemptID uuid.UUID, req *model.SubmitAttemptRequest) (*model.SubmitResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	if attempt.IsCompleted {
		return nil, ErrAttemptAlreadySubmitted
	}

	key, err := s.quizService.GetGradingKey(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load grading key: %w", err)
	}

	submitted := make(map[string]string, len(req.Answers))
	for _, a := range req.Answers {
		submitted[a.QuestionID.String()] = a.Answer
	}

	score := 0
	answers := make([]model.Answer, 0, len(key.Correct))
	for qid, correct := range key.Correct {
		questionID, err := uuid.Parse(qid)
		if err != nil {
			return nil, fmt.Errorf("invalid question id in grading key: %w", err)
		}

		given := submitted[qid]
		isCorrect := given == correct
		earned := 0
		if isCorrect {
			earned = key.Points[qid]
			score += earned
		}

		answers = append(answers, model.Answer{
			AttemptID:    attemptID,
			QuestionID:   questionID,
			Answer:       given,
			IsCorrect:    isCorrect,
			PointsEarned: earned,
		})
	}

	timeTaken := int(time.Since(attempt.StartedAt).Seconds())
	if err := s.attemptRepo.CompleteWithAnswers(ctx, attemptID, score, timeTaken, answers); err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	s.rdb.Del(ctx, config.CacheKey.AttemptDeadlineKey(attemptID.String()))

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("score", score).
		Int("total", attempt.TotalPossiblePoints).
		Msg("Attempt submitted")

	return &model.SubmitResult{
		Score:               score,
		TotalPossiblePoints: attempt.TotalPossiblePoints,
	}, nil
}

// ListForStudent retrieves a student's own attempts at one quiz.
func (s *AttemptService) ListForStudent(ctx context.Context, studentID int, quizID uuid.UUID, completedOnly bool) ([]model.Attempt, error) {
	return s.attemptRepo.ListByStudentAndQuiz(ctx, studentID, quizID, completedOnly)
}

// AnswersFor retrieves the graded answers of an attempt, visible to the
// attempt's student and to the teacher who owns the quiz.
func (s *AttemptService) AnswersFor(ctx context.Context, attemptID uuid.UUID, userID int, role model.Role) ([]model.Answer, *model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}

	switch role {
	case model.RoleStudent:
		if attempt.StudentID != userID {
			return nil, nil, ErrNotAttemptOwner
		}
	case model.RoleTeacher:
		quiz, err := s.quizRepo.GetByID(ctx, attempt.QuizID)
		if err != nil {
			return nil, nil, fmt.Errorf("get quiz: %w", err)
		}
		class, err := s.classRepo.GetByID(ctx, quiz.ClassID)
		if err != nil {
			return nil, nil, fmt.Errorf("get class: %w", err)
		}
		if class.TeacherID != userID {
			return nil, nil, ErrNotQuizOwner
		}
	default:
		return nil, nil, ErrNotAttemptOwner
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	return answers, attempt, nil
}

// Results retrieves paginated attempt results for the owning teacher.
func (s *AttemptService) Results(ctx context.Context, quizID uuid.UUID, teacherID, page, perPage int) ([]repository.AttemptResult, int, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, 0, err
	}
	class, err := s.classRepo.GetByID(ctx, quiz.ClassID)
	if err != nil {
		return nil, 0, fmt.Errorf("get class: %w", err)
	}
	if class.TeacherID != teacherID {
		return nil, 0, ErrNotQuizOwner
	}
	return s.attemptRepo.ListResultsByQuiz(ctx, quizID, page, perPage)
}

// Lobby overlays a class's quizzes with the student's own latest attempt.
func (s *AttemptService) Lobby(ctx context.Context, studentID, classID int, quizzes []model.Quiz) ([]model.LobbyQuiz, error) {
	latest, err := s.attemptRepo.LatestByStudent(ctx, studentID, classID)
	if err != nil {
		return nil, fmt.Errorf("load latest attempts: %w", err)
	}

	lobby := make([]model.LobbyQuiz, len(quizzes))
	for i, q := range quizzes {
		entry := model.LobbyQuiz{Quiz: q}
		if a, ok := latest[q.ID]; ok {
			entry.AttemptID = &a.ID
			entry.IsCompleted = &a.IsCompleted
			entry.Score = a.Score
		}
		lobby[i] = entry
	}
	return lobby, nil
}

// Deadline resolves an attempt's submission deadline for the timer stream.
// Redis is the fast path; a miss falls back to PostgreSQL and re-caches.
// A nil deadline means the attempt is unlimited. The bool reports whether
// the attempt is already completed.
func (s *AttemptService) Deadline(ctx context.Context, attemptID uuid.UUID, studentID int) (*time.Time, bool, error) {
	cached, err := s.rdb.Get(ctx, config.CacheKey.AttemptDeadlineKey(attemptID.String())).Result()
	if err == nil {
		unix, perr := strconv.ParseInt(cached, 10, 64)
		if perr == nil {
			d := time.Unix(unix, 0)
			return &d, false, nil
		}
		// Corrupt value, fall through to the database.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis deadline lookup failed, using database")
	}

	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, false, err
	}
	if attempt.StudentID != studentID {
		return nil, false, ErrNotAttemptOwner
	}
	if attempt.IsCompleted {
		return nil, true, nil
	}

	quiz, err := s.quizRepo.GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, false, fmt.Errorf("get quiz: %w", err)
	}

	deadline := attemptDeadline(quiz, attempt.StartedAt)
	if deadline != nil {
		s.cacheDeadline(ctx, attemptID, *deadline)
	}
	return deadline, false, nil
}
