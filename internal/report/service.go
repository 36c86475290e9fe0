package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrExamNotFound = errors.New("exam not found")

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// ExamSummary aggregates the stored content of one exam pool.
type ExamSummary struct {
	ExamID           int64  `json:"exam_id"`
	Title            string `json:"title"`
	MCQCount         int    `json:"mcq_count"`
	TheoryCount      int    `json:"theory_count"`
	InstructionCount int    `json:"instruction_count"`
	TotalMCQMarks    int    `json:"total_mcq_marks"`
	TotalTheoryMarks int    `json:"total_theory_marks"`
	WithImages       int    `json:"with_images"`
}

func (s *Service) SummaryByExam(ctx context.Context, examID int64) (*ExamSummary, error) {
	out := ExamSummary{ExamID: examID}

	err := s.db.QueryRowContext(ctx,
		`SELECT title FROM exams WHERE id = $1 AND is_active = TRUE`, examID,
	).Scan(&out.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load exam: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE question_type = 'mcq'),
			COUNT(*) FILTER (WHERE question_type = 'theory'),
			COALESCE(SUM(marks) FILTER (WHERE question_type = 'mcq'), 0),
			COALESCE(SUM(marks) FILTER (WHERE question_type = 'theory'), 0),
			COUNT(*) FILTER (WHERE has_rich_content)
		FROM questions
		WHERE exam_id = $1 AND is_active = TRUE`, examID,
	).Scan(&out.MCQCount, &out.TheoryCount, &out.TotalMCQMarks, &out.TotalTheoryMarks, &out.WithImages)
	if err != nil {
		return nil, fmt.Errorf("aggregate questions: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exam_instructions WHERE exam_id = $1 AND is_active = TRUE`, examID,
	).Scan(&out.InstructionCount)
	if err != nil {
		return nil, fmt.Errorf("count instructions: %w", err)
	}

	return &out, nil
}
