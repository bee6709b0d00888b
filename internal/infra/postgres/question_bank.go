package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-room-service/internal/domain"
)

// QuestionBank serves quizzes from per-topic question pools stored as
// JSONB in Postgres.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.Quiz, error) {
	req = req.Normalize()
	topic := strings.ToLower(strings.TrimSpace(req.Topic))

	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE topic=$1`, topic).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load question bank: %w", err)
	}

	var bank domain.Quiz
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal question bank: %w", err)
	}

	n := req.NumQuestions
	if n > len(bank.Questions) {
		n = len(bank.Questions)
	}
	return domain.Quiz{
		Title:     bank.Title,
		Questions: append([]domain.Question(nil), bank.Questions[:n]...),
	}, nil
}
