package repository

import (
	"context"
	"fmt"

	"github.com/classquiz/classquiz-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz retrieves all questions for a quiz, ordered by order_num.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, question_type, points, order_num, options, correct_answer
		 FROM questions WHERE quiz_id = $1
		 ORDER BY order_num`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Type, &q.Points, &q.OrderNum, &q.Options, &q.CorrectAnswer); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceAll atomically replaces a quiz's question set and keeps the
// denormalized total_points column in sync, inside one transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("delete old questions: %w", err)
	}

	total := 0
	for i := range questions {
		q := &questions[i]
		total += q.Points
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (quiz_id, question_text, question_type, points, order_num, options, correct_answer)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			quizID, q.Text, q.Type, q.Points, q.OrderNum, q.Options, q.CorrectAnswer,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE quizzes SET total_points = $1, updated_at = NOW() WHERE id = $2`,
		total, quizID); err != nil {
		return fmt.Errorf("update total points: %w", err)
	}

	return tx.Commit(ctx)
}
