package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/classquiz/classquiz-backend/internal/middleware"
	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/response"
	"github.com/classquiz/classquiz-backend/internal/service"
	"github.com/classquiz/classquiz-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AttemptHandler handles the attempt lifecycle endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	quizService    *service.QuizService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, quizService *service.QuizService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		quizService:    quizService,
	}
}

// OpenAttempt godoc
// POST /api/attempts
// Opens a new attempt for the authenticated student and returns the attempt
// together with the quiz paper (questions without correct answers).
func (h *AttemptHandler) OpenAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.OpenAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Open(c.Request.Context(), claims.UserID, req.QuizID)
	if err != nil {
		var notStarted *service.QuizNotStartedError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrQuizNotPublished):
			response.Fail(c, http.StatusNotFound, response.ErrQuizNotPublished)
		case errors.Is(err, service.ErrNotEnrolled):
			response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		case errors.As(err, &notStarted):
			response.FailWithMessage(c, http.StatusConflict, response.ErrQuizNotStarted,
				"Quiz has not started yet. It opens at "+notStarted.StartTime.Format(time.RFC3339)+".")
		case errors.Is(err, service.ErrQuizClosed):
			response.Fail(c, http.StatusConflict, response.ErrQuizClosed)
		case errors.Is(err, service.ErrActiveAttempt):
			response.Fail(c, http.StatusConflict, response.ErrActiveAttempt)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	paper, err := h.quizService.GetQuizPayload(c.Request.Context(), req.QuizID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt": attempt,
		"quiz":    paper,
	})
}

// SubmitAttempt godoc
// POST /api/attempts/:attempt_id/submit
// Grades a full answer set and closes the attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), claims.UserID, attemptID, &req)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotAttemptOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case errors.Is(err, service.ErrAttemptAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAttemptSubmitted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListAttempts godoc
// GET /api/attempts?quizId=&isCompleted=
// Returns the student's own attempts at a quiz, most recent first.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)

	quizID, err := uuid.Parse(c.Query("quizId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	completedOnly := false
	if raw := c.Query("isCompleted"); raw != "" {
		completedOnly, err = strconv.ParseBool(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
	}

	attempts, err := h.attemptService.ListForStudent(c.Request.Context(), claims.UserID, quizID, completedOnly)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// ListAnswers godoc
// GET /api/answers?attemptId=
// Returns the graded answers of an attempt, visible to the attempt's student
// and the teacher owning the quiz.
func (h *AttemptHandler) ListAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attemptID, err := uuid.Parse(c.Query("attemptId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, attempt, err := h.attemptService.AnswersFor(c.Request.Context(), attemptID, claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotAttemptOwner), errors.Is(err, service.ErrNotQuizOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"attempt": attempt,
		"answers": answers,
	})
}
