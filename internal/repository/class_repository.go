package repository

import (
	"context"

	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassRepository handles class and enrollment data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, cl *model.Class) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO classes (teacher_id, name, join_code)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		cl.TeacherID, cl.Name, cl.JoinCode,
	).Scan(&cl.ID, &cl.CreatedAt)
}

// GetByID retrieves a class by primary key.
func (r *ClassRepository) GetByID(ctx context.Context, id int) (*model.Class, error) {
	cl := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, name, join_code, created_at
		 FROM classes WHERE id = $1`, id,
	).Scan(&cl.ID, &cl.TeacherID, &cl.Name, &cl.JoinCode, &cl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// GetByJoinCode retrieves a class by its join code.
func (r *ClassRepository) GetByJoinCode(ctx context.Context, code string) (*model.Class, error) {
	cl := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, name, join_code, created_at
		 FROM classes WHERE join_code = $1`, code,
	).Scan(&cl.ID, &cl.TeacherID, &cl.Name, &cl.JoinCode, &cl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// ListByTeacher retrieves all classes owned by a teacher.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID int) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, teacher_id, name, join_code, created_at
		 FROM classes WHERE teacher_id = $1
		 ORDER BY created_at DESC`, teacherID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		var cl model.Class
		if err := rows.Scan(&cl.ID, &cl.TeacherID, &cl.Name, &cl.JoinCode, &cl.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, cl)
	}
	return classes, rows.Err()
}

// ListByStudent retrieves all classes a student is enrolled in.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.teacher_id, c.name, c.join_code, c.created_at
		 FROM classes c
		 JOIN enrollments e ON e.class_id = c.id
		 WHERE e.student_id = $1
		 ORDER BY e.enrolled_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		var cl model.Class
		if err := rows.Scan(&cl.ID, &cl.TeacherID, &cl.Name, &cl.JoinCode, &cl.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, cl)
	}
	return classes, rows.Err()
}

// Update renames a class.
func (r *ClassRepository) Update(ctx context.Context, cl *model.Class) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE classes SET name = $1 WHERE id = $2`,
		cl.Name, cl.ID)
	return err
}

// Delete removes a class. Fails on FK violation if quizzes still reference it.
func (r *ClassRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	return err
}

// Enroll adds a student to a class. The insert is idempotent; the caller
// checks IsEnrolled first to produce a friendly duplicate error.
func (r *ClassRepository) Enroll(ctx context.Context, classID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO enrollments (class_id, student_id)
		 VALUES ($1, $2)
		 ON CONFLICT (class_id, student_id) DO NOTHING`,
		classID, studentID)
	return err
}

// IsEnrolled reports whether a student belongs to a class.
func (r *ClassRepository) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE class_id = $1 AND student_id = $2
		 )`, classID, studentID,
	).Scan(&enrolled)
	return enrolled, err
}
