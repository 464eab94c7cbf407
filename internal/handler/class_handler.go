package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/classquiz/classquiz-backend/internal/middleware"
	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/response"
	"github.com/classquiz/classquiz-backend/internal/service"
	"github.com/classquiz/classquiz-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassHandler handles class management and enrollment endpoints.
type ClassHandler struct {
	classService   *service.ClassService
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(
	classService *service.ClassService,
	quizService *service.QuizService,
	attemptService *service.AttemptService,
) *ClassHandler {
	return &ClassHandler{
		classService:   classService,
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// CreateClass godoc
// POST /api/classes
// Creates a class owned by the authenticated teacher.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Create(c.Request.Context(), claims.UserID, req.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// ListClasses godoc
// GET /api/classes
// Teachers see the classes they own, students the ones they joined.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var (
		classes []model.Class
		err     error
	)
	if claims.Role == model.RoleTeacher {
		classes, err = h.classService.ListForTeacher(c.Request.Context(), claims.UserID)
	} else {
		classes, err = h.classService.ListForStudent(c.Request.Context(), claims.UserID)
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// RenameClass godoc
// PUT /api/classes/:class_id
func (h *ClassHandler) RenameClass(c *gin.Context) {
	claims := middleware.GetClaims(c)

	classID, err := strconv.Atoi(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Rename(c.Request.Context(), classID, claims.UserID, req.Name)
	if err != nil {
		h.failClass(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// DeleteClass godoc
// DELETE /api/classes/:class_id
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	claims := middleware.GetClaims(c)

	classID, err := strconv.Atoi(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.classService.Delete(c.Request.Context(), classID, claims.UserID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
			return
		}
		h.failClass(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// JoinClass godoc
// POST /api/classes/join
// Enrolls the authenticated student using a join code.
func (h *ClassHandler) JoinClass(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.JoinClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Join(c.Request.Context(), claims.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidJoinCode):
			response.Fail(c, http.StatusNotFound, response.ErrInvalidJoinCode)
		case errors.Is(err, service.ErrAlreadyEnrolled):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyEnrolled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// ClassQuizzes godoc
// GET /api/classes/:class_id/quizzes
// Teachers see every quiz including drafts; students see published quizzes
// overlaid with their own latest attempt.
func (h *ClassHandler) ClassQuizzes(c *gin.Context) {
	claims := middleware.GetClaims(c)

	classID, err := strconv.Atoi(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), classID)
	if err != nil {
		h.failClass(c, err)
		return
	}

	if claims.Role == model.RoleTeacher {
		if class.TeacherID != claims.UserID {
			response.Fail(c, http.StatusForbidden, response.ErrNotClassTeacher)
			return
		}
		quizzes, err := h.quizService.ListForClass(c.Request.Context(), classID, false)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
		return
	}

	enrolled, err := h.classService.IsEnrolled(c.Request.Context(), classID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !enrolled {
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		return
	}

	quizzes, err := h.quizService.ListForClass(c.Request.Context(), classID, true)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	lobby, err := h.attemptService.Lobby(c.Request.Context(), claims.UserID, classID, quizzes)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": lobby})
}

func (h *ClassHandler) failClass(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotClassTeacher):
		response.Fail(c, http.StatusForbidden, response.ErrNotClassTeacher)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
