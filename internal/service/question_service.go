package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/repository"
	"github.com/google/uuid"
)

// QuestionValidationError reports which question of a bulk replace is
// malformed and why.
type QuestionValidationError struct {
	Index  int
	Reason string
}

func (e *QuestionValidationError) Error() string {
	return fmt.Sprintf("question %d: %s", e.Index+1, e.Reason)
}

// QuestionService handles question authoring and the answer-reveal policy.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	quizRepo     *repository.QuizRepository
	classRepo    *repository.ClassRepository
	attemptRepo  *repository.AttemptRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	quizRepo *repository.QuizRepository,
	classRepo *repository.ClassRepository,
	attemptRepo *repository.AttemptRepository,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		quizRepo:     quizRepo,
		classRepo:    classRepo,
		attemptRepo:  attemptRepo,
	}
}

// trueFalseOptions is the canonical option pair stored for true/false
// questions regardless of what the author sent.
var trueFalseOptions = []string{"True", "False"}

// validateQuestion checks one authored question beyond what request binding
// covers: option counts, option emptiness, and correct-answer membership.
func validateQuestion(idx int, q *model.AddQuestionRequest) error {
	switch model.QuestionType(q.Type) {
	case model.QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return &QuestionValidationError{idx, "multiple-choice questions need at least 2 options"}
		}
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return &QuestionValidationError{idx, "options must not be empty"}
			}
			if seen[opt] {
				return &QuestionValidationError{idx, "options must be unique"}
			}
			seen[opt] = true
		}
		if !seen[q.CorrectAnswer] {
			return &QuestionValidationError{idx, "correct answer must be one of the options"}
		}
	case model.QuestionTypeTrueFalse:
		if q.CorrectAnswer != "True" && q.CorrectAnswer != "False" {
			return &QuestionValidationError{idx, `correct answer must be "True" or "False"`}
		}
	case model.QuestionTypeShortAnswer:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return &QuestionValidationError{idx, "correct answer must not be blank"}
		}
	default:
		return &QuestionValidationError{idx, "unknown question type"}
	}
	return nil
}

// ReplaceQuestions swaps out a draft quiz's full question set. Order follows
// the request order; total points are recomputed inside the same transaction.
func (s *QuestionService) ReplaceQuestions(ctx context.Context, quizID uuid.UUID, teacherID int, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	class, err := s.classRepo.GetByID(ctx, quiz.ClassID)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class.TeacherID != teacherID {
		return nil, ErrNotQuizOwner
	}
	if quiz.IsPublished {
		return nil, ErrQuizNotDraft
	}

	questions := make([]model.Question, len(req.Questions))
	for i := range req.Questions {
		rq := &req.Questions[i]
		if err := validateQuestion(i, rq); err != nil {
			return nil, err
		}

		q := model.Question{
			QuizID:        quizID,
			Text:          rq.Text,
			Type:          model.QuestionType(rq.Type),
			Points:        rq.Points,
			OrderNum:      i + 1,
			CorrectAnswer: rq.CorrectAnswer,
		}
		if q.Type.HasOptions() {
			opts := rq.Options
			if q.Type == model.QuestionTypeTrueFalse {
				opts = trueFalseOptions
			}
			raw, err := json.Marshal(opts)
			if err != nil {
				return nil, fmt.Errorf("marshal options: %w", err)
			}
			q.Options = raw
		}
		questions[i] = q
	}

	if err := s.questionRepo.ReplaceAll(ctx, quizID, questions); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	return questions, nil
}

// ListForViewer retrieves a quiz's questions with the answer-reveal policy
// applied: the owning teacher always sees correct answers; a student sees
// them only once the quiz has closed or they hold a completed attempt.
func (s *QuestionService) ListForViewer(ctx context.Context, quiz *model.Quiz, userID int, role model.Role) ([]model.Question, error) {
	questions, err := s.questionRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	reveal, err := s.canReveal(ctx, quiz, userID, role)
	if err != nil {
		return nil, err
	}
	if !reveal {
		for i := range questions {
			questions[i].CorrectAnswer = ""
		}
	}
	return questions, nil
}

func (s *QuestionService) canReveal(ctx context.Context, quiz *model.Quiz, userID int, role model.Role) (bool, error) {
	if role == model.RoleTeacher {
		class, err := s.classRepo.GetByID(ctx, quiz.ClassID)
		if err != nil {
			return false, fmt.Errorf("get class: %w", err)
		}
		return class.TeacherID == userID, nil
	}

	if quiz.StatusAt(time.Now()) == model.QuizStatusClosed {
		return true, nil
	}

	attempts, err := s.attemptRepo.ListByStudentAndQuiz(ctx, userID, quiz.ID, true)
	if err != nil {
		return false, fmt.Errorf("list attempts: %w", err)
	}
	return len(attempts) > 0, nil
}
