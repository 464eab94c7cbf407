package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/classquiz/classquiz-backend/internal/config"
	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrNotQuizOwner = errors.New("not the owner of this quiz")
	ErrNoQuestions  = errors.New("quiz has no questions, cannot publish")
	ErrQuizNotDraft = errors.New("quiz is not in draft status")
)

// QuizService handles quiz business logic and the Redis publish cache.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	classRepo    *repository.ClassRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	classRepo *repository.ClassRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		classRepo:    classRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetByID retrieves a quiz with its derived status filled in.
func (s *QuizService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	quiz.FillStatus(time.Now())
	return quiz, nil
}

// requireOwner verifies the teacher owns the class the quiz belongs to.
func (s *QuizService) requireOwner(ctx context.Context, quiz *model.Quiz, teacherID int) error {
	class, err := s.classRepo.GetByID(ctx, quiz.ClassID)
	if err != nil {
		return fmt.Errorf("get class: %w", err)
	}
	if class.TeacherID != teacherID {
		return ErrNotQuizOwner
	}
	return nil
}

// IsOwner reports whether the teacher owns the quiz.
func (s *QuizService) IsOwner(ctx context.Context, quiz *model.Quiz, teacherID int) bool {
	return s.requireOwner(ctx, quiz, teacherID) == nil
}

// Create inserts a new draft quiz into one of the teacher's classes.
func (s *QuizService) Create(ctx context.Context, teacherID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	class, err := s.classRepo.GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class.TeacherID != teacherID {
		return nil, ErrNotQuizOwner
	}

	quiz := &model.Quiz{
		ClassID:     req.ClassID,
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	quiz.FillStatus(time.Now())
	return quiz, nil
}

// Update modifies a draft quiz, restricted to its owner.
func (s *QuizService) Update(ctx context.Context, quizID uuid.UUID, teacherID int, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, quiz, teacherID); err != nil {
		return nil, err
	}
	if quiz.IsPublished {
		return nil, ErrQuizNotDraft
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = req.TimeLimit
	}
	if req.StartTime != nil {
		quiz.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		quiz.EndTime = req.EndTime
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	quiz.FillStatus(time.Now())
	return quiz, nil
}

// Delete removes a draft quiz, restricted to its owner.
func (s *QuizService) Delete(ctx context.Context, quizID uuid.UUID, teacherID int) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, quiz, teacherID); err != nil {
		return err
	}
	if quiz.IsPublished {
		return ErrQuizNotDraft
	}
	return s.quizRepo.Delete(ctx, quizID)
}

// Publish flips a quiz live and caches its payload + grading key in Redis.
func (s *QuizService) Publish(ctx context.Context, quizID uuid.UUID, teacherID int) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, quiz, teacherID); err != nil {
		return nil, err
	}
	if quiz.IsPublished {
		return nil, ErrQuizNotDraft
	}

	if err := s.WarmQuizCache(ctx, quiz); err != nil {
		return nil, err
	}

	if err := s.quizRepo.SetPublished(ctx, quizID, true); err != nil {
		return nil, fmt.Errorf("set published: %w", err)
	}
	quiz.IsPublished = true
	quiz.FillStatus(time.Now())

	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz published")
	return quiz, nil
}

// WarmQuizCache loads a quiz's student payload and grading key from
// PostgreSQL into Redis. Used by Publish and PrewarmAllCaches.
func (s *QuizService) WarmQuizCache(ctx context.Context, quiz *model.Quiz) error {
	questions, err := s.questionRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	// Build student-facing payload (without correct answers).
	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Points:   q.Points,
			Options:  q.Options,
			OrderNum: q.OrderNum,
		}
	}

	payload := model.QuizPayload{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		TimeLimit: quiz.TimeLimit,
		Questions: studentQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Grading key hashes: correct answer and point value per question.
	answerKey := make(map[string]interface{}, len(questions))
	pointsKey := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		answerKey[q.ID.String()] = q.CorrectAnswer
		pointsKey[q.ID.String()] = q.Points
	}

	qid := quiz.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.QuizPayloadKey(qid), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.QuizAnswerKey(qid))
	pipe.HSet(ctx, config.CacheKey.QuizAnswerKey(qid), answerKey)
	pipe.Del(ctx, config.CacheKey.QuizPointsKey(qid))
	pipe.HSet(ctx, config.CacheKey.QuizPointsKey(qid), pointsKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("quiz_id", qid).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published quizzes into Redis on startup, so the
// first submission never races a lazy cache fill.
func (s *QuizService) PrewarmAllCaches(ctx context.Context) error {
	quizzes, err := s.quizRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published quizzes: %w", err)
	}

	if len(quizzes) == 0 {
		s.log.Info().Msg("No published quizzes to prewarm")
		return nil
	}

	warmed := 0
	for i := range quizzes {
		if err := s.WarmQuizCache(ctx, &quizzes[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("quiz_id", quizzes[i].ID.String()).
				Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(quizzes)).
		Msg("Prewarming complete")
	return nil
}

// GradingKey is the in-RAM key used to grade a submission.
type GradingKey struct {
	// Correct maps question ID to the exact-match correct answer.
	Correct map[string]string
	// Points maps question ID to the question's point value.
	Points map[string]int
}

// GetGradingKey retrieves a quiz's grading key from Redis, falling back to
// PostgreSQL (and re-warming the cache) on a miss.
func (s *QuizService) GetGradingKey(ctx context.Context, quizID uuid.UUID) (*GradingKey, error) {
	qid := quizID.String()

	correct, err := s.rdb.HGetAll(ctx, config.CacheKey.QuizAnswerKey(qid)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	rawPoints, err := s.rdb.HGetAll(ctx, config.CacheKey.QuizPointsKey(qid)).Result()
	if err != nil {
		return nil, fmt.Errorf("get points key: %w", err)
	}

	if len(correct) > 0 && len(rawPoints) == len(correct) {
		points := make(map[string]int, len(rawPoints))
		for id, v := range rawPoints {
			p, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid points format in cache: %w", err)
			}
			points[id] = p
		}
		return &GradingKey{Correct: correct, Points: points}, nil
	}

	// Cache miss (evicted, or quiz published before this cache existed).
	// Fall back to PostgreSQL and self-heal the cache.
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("grading key not cached, db fallback: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	key := &GradingKey{
		Correct: make(map[string]string, len(questions)),
		Points:  make(map[string]int, len(questions)),
	}
	for _, q := range questions {
		key.Correct[q.ID.String()] = q.CorrectAnswer
		key.Points[q.ID.String()] = q.Points
	}

	if quiz, err := s.quizRepo.GetByID(ctx, quizID); err == nil {
		_ = s.WarmQuizCache(ctx, quiz)
	}

	return key, nil
}

// GetQuizPayload retrieves the cached student paper from Redis.
func (s *QuizService) GetQuizPayload(ctx context.Context, quizID uuid.UUID) (*model.QuizPayload, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("quiz not published or payload not cached")
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.QuizPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}

// ListForClass retrieves a class's quizzes for one of the two roles: teachers
// see everything, students see published quizzes overlaid with their own
// latest attempt.
func (s *QuizService) ListForClass(ctx context.Context, classID int, publishedOnly bool) ([]model.Quiz, error) {
	quizzes, err := s.quizRepo.ListByClass(ctx, classID, publishedOnly)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range quizzes {
		quizzes[i].FillStatus(now)
	}
	return quizzes, nil
}
