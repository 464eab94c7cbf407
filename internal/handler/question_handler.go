package handler

import (
	"errors"
	"net/http"

	"github.com/classquiz/classquiz-backend/internal/middleware"
	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/response"
	"github.com/classquiz/classquiz-backend/internal/service"
	"github.com/classquiz/classquiz-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuestionHandler handles question authoring and the question list view.
type QuestionHandler struct {
	questionService *service.QuestionService
	quizService     *service.QuizService
	classService    *service.ClassService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(
	questionService *service.QuestionService,
	quizService *service.QuizService,
	classService *service.ClassService,
) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		quizService:     quizService,
		classService:    classService,
	}
}

// ReplaceQuestions godoc
// PUT /api/quizzes/:quiz_id/questions
// Replaces the full question set of a draft quiz.
func (h *QuestionHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.ReplaceQuestions(c.Request.Context(), quizID, claims.UserID, &req)
	if err != nil {
		var vErr *service.QuestionValidationError
		if errors.As(err, &vErr) {
			response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrInvalidQuestionShape, vErr.Error())
			return
		}
		failQuiz(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListQuestions godoc
// GET /api/quizzes/:quiz_id/questions
// Returns the quiz's questions. Correct answers are included only for the
// owning teacher, or for a student once the quiz closed or they completed
// an attempt.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), quizID)
	if err != nil {
		failQuiz(c, err)
		return
	}

	if claims.Role == model.RoleTeacher {
		if !h.quizService.IsOwner(c.Request.Context(), quiz, claims.UserID) {
			response.Fail(c, http.StatusForbidden, response.ErrNotQuizOwner)
			return
		}
	} else {
		if !quiz.IsPublished {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		enrolled, err := h.classService.IsEnrolled(c.Request.Context(), quiz.ClassID, claims.UserID)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if !enrolled {
			response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
			return
		}
	}

	questions, err := h.questionService.ListForViewer(c.Request.Context(), quiz, claims.UserID, claims.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}
