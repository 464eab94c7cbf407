package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/classquiz/classquiz-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// Domain errors.
var (
	ErrNotClassTeacher = errors.New("not the teacher of this class")
	ErrInvalidJoinCode = errors.New("invalid class join code")
	ErrAlreadyEnrolled = errors.New("already enrolled in this class")
)

// joinCodeAlphabet avoids easily confused characters (0/O, 1/I).
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const joinCodeLength = 6

// ClassService handles class and enrollment business logic.
type ClassService struct {
	classRepo *repository.ClassRepository
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo *repository.ClassRepository) *ClassService {
	return &ClassService{classRepo: classRepo}
}

// Create makes a new class for the teacher with a fresh join code.
func (s *ClassService) Create(ctx context.Context, teacherID int, name string) (*model.Class, error) {
	code, err := generateJoinCode()
	if err != nil {
		return nil, fmt.Errorf("generate join code: %w", err)
	}

	class := &model.Class{
		TeacherID: teacherID,
		Name:      name,
		JoinCode:  code,
	}
	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	return class, nil
}

// GetByID retrieves a class.
func (s *ClassService) GetByID(ctx context.Context, id int) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, id)
}

// ListForTeacher retrieves the classes a teacher owns.
func (s *ClassService) ListForTeacher(ctx context.Context, teacherID int) ([]model.Class, error) {
	return s.classRepo.ListByTeacher(ctx, teacherID)
}

// ListForStudent retrieves the classes a student is enrolled in.
func (s *ClassService) ListForStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	return s.classRepo.ListByStudent(ctx, studentID)
}

// Rename changes a class name, restricted to its teacher.
func (s *ClassService) Rename(ctx context.Context, classID, teacherID int, name string) (*model.Class, error) {
	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != teacherID {
		return nil, ErrNotClassTeacher
	}
	class.Name = name
	if err := s.classRepo.Update(ctx, class); err != nil {
		return nil, fmt.Errorf("update class: %w", err)
	}
	return class, nil
}

// Delete removes a class, restricted to its teacher.
func (s *ClassService) Delete(ctx context.Context, classID, teacherID int) error {
	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		return err
	}
	if class.TeacherID != teacherID {
		return ErrNotClassTeacher
	}
	return s.classRepo.Delete(ctx, classID)
}

// Join enrolls a student into the class matching the join code.
func (s *ClassService) Join(ctx context.Context, studentID int, code string) (*model.Class, error) {
	class, err := s.classRepo.GetByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidJoinCode
		}
		return nil, fmt.Errorf("lookup join code: %w", err)
	}

	enrolled, err := s.classRepo.IsEnrolled(ctx, class.ID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	if err := s.classRepo.Enroll(ctx, class.ID, studentID); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	return class, nil
}

// IsEnrolled reports whether a student belongs to a class.
func (s *ClassService) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	return s.classRepo.IsEnrolled(ctx, classID, studentID)
}

func generateJoinCode() (string, error) {
	code := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
