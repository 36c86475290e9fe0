// Package exam manages the exam records that bulk uploads populate with
// questions.
package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrExamNotFound = errors.New("exam not found")
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Exam struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	MCQPoolCount    int       `json:"mcq_pool_count"`
	TheoryPoolCount int       `json:"theory_pool_count"`
	HasMCQ          bool      `json:"has_mcq"`
	HasTheory       bool      `json:"has_theory"`
	HasInstructions bool      `json:"has_instructions"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateExamInput struct {
	Title       string
	Description string
}

type UpdateExamInput struct {
	ID          int64
	Title       string
	Description string
}

func (s *Service) CreateExam(ctx context.Context, in CreateExamInput) (*Exam, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO exams (title, description, mcq_pool_count, theory_pool_count,
			has_mcq, has_theory, has_instructions, is_active, created_at, updated_at)
		VALUES ($1, $2, 0, 0, FALSE, FALSE, FALSE, TRUE, $3, $3)
		RETURNING id, title, description, mcq_pool_count, theory_pool_count,
			has_mcq, has_theory, has_instructions, is_active, created_at, updated_at`,
		title, nullableString(in.Description), now,
	)
	return scanExam(row)
}

func (s *Service) GetExam(ctx context.Context, examID int64) (*Exam, error) {
	if examID <= 0 {
		return nil, fmt.Errorf("%w: exam id must be positive", ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, mcq_pool_count, theory_pool_count,
			has_mcq, has_theory, has_instructions, is_active, created_at, updated_at
		FROM exams
		WHERE id = $1 AND is_active = TRUE`,
		examID,
	)
	return scanExam(row)
}

func (s *Service) ListExams(ctx context.Context, limit, offset int) ([]Exam, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, mcq_pool_count, theory_pool_count,
			has_mcq, has_theory, has_instructions, is_active, created_at, updated_at
		FROM exams
		WHERE is_active = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var items []Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return items, nil
}

func (s *Service) UpdateExam(ctx context.Context, in UpdateExamInput) (*Exam, error) {
	title := strings.TrimSpace(in.Title)
	if in.ID <= 0 || title == "" {
		return nil, fmt.Errorf("%w: id and title are required", ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE exams
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1 AND is_active = TRUE
		RETURNING id, title, description, mcq_pool_count, theory_pool_count,
			has_mcq, has_theory, has_instructions, is_active, created_at, updated_at`,
		in.ID, title, nullableString(in.Description), time.Now().UTC(),
	)
	return scanExam(row)
}

// DeleteExam soft-deactivates an exam together with its questions and
// instructions.
func (s *Service) DeleteExam(ctx context.Context, examID int64) error {
	if examID <= 0 {
		return fmt.Errorf("%w: exam id must be positive", ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active = TRUE`,
		examID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("deactivate exam: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExamNotFound
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET is_active = FALSE, updated_at = $2 WHERE exam_id = $1`,
		examID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("deactivate questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE exam_instructions SET is_active = FALSE WHERE exam_id = $1`,
		examID,
	)
	if err != nil {
		return fmt.Errorf("deactivate instructions: %w", err)
	}
	return nil
}

func scanExam(row interface{ Scan(dest ...any) error }) (*Exam, error) {
	var e Exam
	var description sql.NullString
	err := row.Scan(&e.ID, &e.Title, &description, &e.MCQPoolCount, &e.TheoryPoolCount,
		&e.HasMCQ, &e.HasTheory, &e.HasInstructions, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan exam: %w", err)
	}
	if description.Valid {
		e.Description = &description.String
	}
	return &e, nil
}

func nullableString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
