package repository

import (
	"context"
	"time"

	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptResult combines a student's identity with their attempt, for the
// quiz owner's results view.
type AttemptResult struct {
	AttemptID   uuid.UUID  `json:"attemptId"`
	StudentID   int        `json:"studentId"`
	StudentName string     `json:"studentName"`
	Score       *int       `json:"score"`
	TimeTaken   *int       `json:"timeTaken"`
	IsCompleted bool       `json:"isCompleted"`
	StartedAt   time.Time  `json:"startedAt"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

// OverdueAttempt is an in-progress attempt whose submission window has passed.
type OverdueAttempt struct {
	AttemptID   uuid.UUID
	QuizID      uuid.UUID
	TotalPoints int
	// Budget is the attempt's full time allowance in seconds.
	Budget int
}

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, quiz_id, student_id, started_at, submitted_at,
	score, total_possible_points, time_taken, is_completed`

func scanAttempt(row interface{ Scan(dest ...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.SubmittedAt,
		&a.Score, &a.TotalPossiblePoints, &a.TimeTaken, &a.IsCompleted)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// Create opens a new attempt. The partial unique index on
// (quiz_id, student_id) WHERE NOT is_completed makes the insert fail with a
// no-row conflict when an active attempt already exists; the caller maps that
// to a duplicate-attempt domain error.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, student_id, total_possible_points)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (quiz_id, student_id) WHERE NOT is_completed DO NOTHING
		 RETURNING id, started_at`,
		a.QuizID, a.StudentID, a.TotalPossiblePoints,
	).Scan(&a.ID, &a.StartedAt)
}

// CompleteWithAnswers persists the graded answer set and closes the attempt
// in one transaction, so a crash cannot leave answers attached to an attempt
// still marked in progress. The answer rows go in via COPY.
func (r *AttemptRepository) CompleteWithAnswers(ctx context.Context, id uuid.UUID, score, timeTaken int, answers []model.Answer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if len(answers) > 0 {
		rows := make([][]interface{}, 0, len(answers))
		for _, a := range answers {
			rows = append(rows, []interface{}{
				a.AttemptID, a.QuestionID, a.Answer, a.IsCorrect, a.PointsEarned,
			})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"answers"},
			[]string{"attempt_id", "question_id", "answer", "is_correct", "points_earned"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE attempts
		 SET is_completed = TRUE, score = $1, time_taken = $2, submitted_at = NOW()
		 WHERE id = $3`,
		score, timeTaken, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByStudentAndQuiz retrieves a student's attempts at one quiz, most
// recently submitted first. completedOnly filters to graded attempts.
func (r *AttemptRepository) ListByStudentAndQuiz(ctx context.Context, studentID int, quizID uuid.UUID, completedOnly bool) ([]model.Attempt, error) {
	query := `SELECT ` + attemptColumns + `
		 FROM attempts WHERE student_id = $1 AND quiz_id = $2`
	if completedOnly {
		query += ` AND is_completed`
	}
	query += ` ORDER BY submitted_at DESC NULLS LAST, started_at DESC`

	rows, err := r.pool.Query(ctx, query, studentID, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// LatestByStudent returns each quiz's most recent attempt for a student
// within a class, keyed by quiz ID. Used for the lobby overlay.
func (r *AttemptRepository) LatestByStudent(ctx context.Context, studentID, classID int) (map[uuid.UUID]*model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (a.quiz_id) `+prefixedAttemptColumns("a")+`
		 FROM attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.student_id = $1 AND q.class_id = $2
		 ORDER BY a.quiz_id, a.started_at DESC`, studentID, classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]*model.Attempt)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		latest[a.QuizID] = a
	}
	return latest, rows.Err()
}

// ListResultsByQuiz retrieves paginated attempt results for the quiz owner.
func (r *AttemptRepository) ListResultsByQuiz(ctx context.Context, quizID uuid.UUID, page, perPage int) ([]AttemptResult, int, error) {
	offset := (page - 1) * perPage

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id = $1`, quizID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.student_id, u.name, a.score, a.time_taken,
		        a.is_completed, a.started_at, a.submitted_at
		 FROM attempts a
		 JOIN users u ON u.id = a.student_id
		 WHERE a.quiz_id = $1
		 ORDER BY a.score DESC NULLS LAST, u.name ASC
		 LIMIT $2 OFFSET $3`, quizID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var res AttemptResult
		if err := rows.Scan(&res.AttemptID, &res.StudentID, &res.StudentName,
			&res.Score, &res.TimeTaken, &res.IsCompleted, &res.StartedAt, &res.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// ListOverdue finds in-progress attempts whose time budget has elapsed:
// either the quiz time limit has run out or the quiz end time has passed.
func (r *AttemptRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]OverdueAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.quiz_id, a.total_possible_points,
		        COALESCE(q.time_limit * 60, EXTRACT(EPOCH FROM ($1 - a.started_at))::int)
		 FROM attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE NOT a.is_completed
		   AND (
		     (q.time_limit IS NOT NULL AND a.started_at + (q.time_limit * INTERVAL '1 minute') <= $1)
		     OR (q.end_time IS NOT NULL AND q.end_time <= $1)
		   )
		 LIMIT $2`, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []OverdueAttempt
	for rows.Next() {
		var o OverdueAttempt
		if err := rows.Scan(&o.AttemptID, &o.QuizID, &o.TotalPoints, &o.Budget); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}

// BulkComplete closes a batch of overdue attempts in one UNNEST update.
func (r *AttemptRepository) BulkComplete(ctx context.Context, ids []uuid.UUID, scores, timesTaken []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts AS a
		 SET is_completed = TRUE,
		     score = t.score,
		     time_taken = t.time_taken,
		     submitted_at = NOW()
		 FROM (
			SELECT u.id, u.score, u.time_taken
			FROM UNNEST($1::uuid[], $2::int[], $3::int[]) AS u (id, score, time_taken)
		 ) AS t
		 WHERE a.id = t.id AND NOT a.is_completed`,
		ids, scores, timesTaken)
	return err
}

func prefixedAttemptColumns(alias string) string {
	return alias + `.id, ` + alias + `.quiz_id, ` + alias + `.student_id, ` +
		alias + `.started_at, ` + alias + `.submitted_at, ` + alias + `.score, ` +
		alias + `.total_possible_points, ` + alias + `.time_taken, ` + alias + `.is_completed`
}
