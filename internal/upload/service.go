// Package upload drives the bulk question upload flow: document decode,
// parsing, validation, preview, and confirmed persistence into an exam's
// question pool.
package upload

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"qbank/internal/docparse"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoFile        = errors.New("no file provided")
	ErrFileTooLarge  = errors.New("file exceeds the 50 MB limit")
	ErrExamNotFound  = errors.New("exam not found")
	ErrNothingToSave = errors.New("no valid questions to save")
)

// MaxFileSize bounds uploaded documents.
const MaxFileSize = 50 << 20

// mcqMarkPool is divided evenly across the MCQ questions of one saved
// batch.
const mcqMarkPool = 30

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type ProcessInput struct {
	ExamID         int64
	Filename       string
	Data           []byte
	QuestionType   string
	ValidationMode string
	Strategy       docparse.Strategy
}

// Statistics summarizes one parsed batch.
type Statistics struct {
	TotalParsed         int `json:"total_parsed"`
	MCQParsed           int `json:"mcq_parsed"`
	TheoryParsed        int `json:"theory_parsed"`
	MCQValid            int `json:"mcq_valid"`
	MCQInvalid          int `json:"mcq_invalid"`
	TheoryValid         int `json:"theory_valid"`
	TheoryInvalid       int `json:"theory_invalid"`
	InstructionsParsed  int `json:"instructions_parsed"`
	InstructionsValid   int `json:"instructions_valid"`
	InstructionsInvalid int `json:"instructions_invalid"`
}

// Preview is the bounded slice of a batch shown before confirmation.
type Preview struct {
	MCQ                 []docparse.QuestionDraft    `json:"mcq"`
	Theory              []docparse.QuestionDraft    `json:"theory"`
	Instructions        []docparse.InstructionBlock `json:"instructions"`
	HasMoreMCQ          bool                        `json:"has_more_mcq"`
	HasMoreTheory       bool                        `json:"has_more_theory"`
	HasMoreInstructions bool                        `json:"has_more_instructions"`
}

// Report is the full upload response. Valid questions and instructions
// ride along so the stateless confirmation call can echo them back.
type Report struct {
	ExamID            int64                       `json:"exam_id"`
	Filename          string                      `json:"filename"`
	Statistics        Statistics                  `json:"statistics"`
	Preview           Preview                     `json:"preview"`
	ValidMCQ          []docparse.QuestionDraft    `json:"valid_mcq"`
	ValidTheory       []docparse.QuestionDraft    `json:"valid_theory"`
	ValidInstructions []docparse.InstructionBlock `json:"valid_instructions"`
	Errors            []docparse.ItemErrors       `json:"errors,omitempty"`
	Warnings          []string                    `json:"warnings,omitempty"`
}

// ProcessUpload runs decode, parse, and validation for one document and
// returns statistics plus a bounded preview. Nothing is persisted.
func (s *Service) ProcessUpload(ctx context.Context, in ProcessInput) (*Report, error) {
	if len(in.Data) == 0 || strings.TrimSpace(in.Filename) == "" {
		return nil, ErrNoFile
	}
	if len(in.Data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if !docparse.IsSupported(in.Filename) {
		return nil, fmt.Errorf("%w: %s", docparse.ErrUnsupportedFormat, in.Filename)
	}
	switch in.QuestionType {
	case docparse.TypeMCQ, docparse.TypeTheory, docparse.TypeAuto:
	case "":
		in.QuestionType = docparse.TypeAuto
	default:
		return nil, fmt.Errorf("%w: question_type %q", ErrInvalidInput, in.QuestionType)
	}
	switch in.ValidationMode {
	case docparse.ModeStrict, docparse.ModeLenient:
	case "":
		in.ValidationMode = docparse.ModeStrict
	default:
		return nil, fmt.Errorf("%w: validation_mode %q", ErrInvalidInput, in.ValidationMode)
	}
	if _, err := s.examTitle(ctx, in.ExamID); err != nil {
		return nil, err
	}

	parsed, err := docparse.Parse(in.Filename, in.Data, in.QuestionType, in.Strategy)
	if err != nil {
		return nil, err
	}

	insOut := docparse.ValidateInstructions(parsed.Instructions)
	mcqOut := docparse.ValidateBatch(parsed.MCQ, docparse.TypeMCQ, in.ValidationMode)
	theoryOut := docparse.ValidateBatch(parsed.Theory, docparse.TypeTheory, in.ValidationMode)

	report := &Report{
		ExamID:   in.ExamID,
		Filename: in.Filename,
		Statistics: Statistics{
			TotalParsed:         len(parsed.MCQ) + len(parsed.Theory),
			MCQParsed:           len(parsed.MCQ),
			TheoryParsed:        len(parsed.Theory),
			MCQValid:            len(mcqOut.Valid),
			MCQInvalid:          len(mcqOut.Invalid),
			TheoryValid:         len(theoryOut.Valid),
			TheoryInvalid:       len(theoryOut.Invalid),
			InstructionsParsed:  len(parsed.Instructions),
			InstructionsValid:   len(insOut.Valid),
			InstructionsInvalid: len(insOut.Invalid),
		},
		Preview: Preview{
			MCQ:                 head(mcqOut.Valid, 3),
			Theory:              head(theoryOut.Valid, 3),
			Instructions:        head(insOut.Valid, 5),
			HasMoreMCQ:          len(mcqOut.Valid) > 3,
			HasMoreTheory:       len(theoryOut.Valid) > 3,
			HasMoreInstructions: len(insOut.Valid) > 5,
		},
		ValidMCQ:          mcqOut.Valid,
		ValidTheory:       theoryOut.Valid,
		ValidInstructions: insOut.Valid,
		Warnings:          mcqOut.Notes,
	}
	report.Warnings = append(report.Warnings, theoryOut.Notes...)
	report.Errors = append(report.Errors, mcqOut.Invalid...)
	report.Errors = append(report.Errors, theoryOut.Invalid...)
	report.Errors = append(report.Errors, insOut.Invalid...)
	return report, nil
}

type SaveInput struct {
	ExamID       int64
	MCQ          []docparse.QuestionDraft
	Theory       []docparse.QuestionDraft
	Instructions []docparse.InstructionBlock
}

// SaveReport itemizes what the confirmation step persisted.
type SaveReport struct {
	ExamID            int64    `json:"exam_id"`
	MCQSaved          int      `json:"mcq_saved"`
	TheorySaved       int      `json:"theory_saved"`
	InstructionsSaved int      `json:"instructions_saved"`
	MCQPoolCount      int      `json:"mcq_pool_count"`
	TheoryPoolCount   int      `json:"theory_pool_count"`
	Errors            []string `json:"errors,omitempty"`
}

// SaveQuestions persists a confirmed batch. Instructions go first, then
// MCQ with batch-equalized marks, then theory. A failed insert is
// recorded and the batch continues; pool counters are recomputed from
// live counts afterward so repeated uploads stay consistent.
func (s *Service) SaveQuestions(ctx context.Context, in SaveInput) (*SaveReport, error) {
	if len(in.MCQ)+len(in.Theory)+len(in.Instructions) == 0 {
		return nil, ErrNothingToSave
	}
	if _, err := s.examTitle(ctx, in.ExamID); err != nil {
		return nil, err
	}

	report := &SaveReport{ExamID: in.ExamID}

	for i, ins := range in.Instructions {
		if err := s.insertInstruction(ctx, in.ExamID, ins); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("instruction %d (%s): %v", i+1, ins.Title, err))
			continue
		}
		report.InstructionsSaved++
	}

	mcqStart, err := s.countQuestions(ctx, in.ExamID, docparse.TypeMCQ)
	if err != nil {
		return nil, err
	}
	theoryStart, err := s.countQuestions(ctx, in.ExamID, docparse.TypeTheory)
	if err != nil {
		return nil, err
	}

	marks := EqualizedMarks(len(in.MCQ))
	num := mcqStart
	for i, q := range in.MCQ {
		q.QuestionType = docparse.TypeMCQ
		q.Marks = marks
		q.QuestionNumber = num + 1
		if err := s.insertQuestion(ctx, in.ExamID, q); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("mcq %d: %v", i+1, err))
			continue
		}
		num++
		report.MCQSaved++
	}

	num = theoryStart
	for i, q := range in.Theory {
		q.QuestionType = docparse.TypeTheory
		q.QuestionNumber = num + 1
		if err := s.insertQuestion(ctx, in.ExamID, q); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("theory %d: %v", i+1, err))
			continue
		}
		num++
		report.TheorySaved++
	}

	counts, err := s.recomputePoolCounts(ctx, in.ExamID)
	if err != nil {
		return nil, err
	}
	report.MCQPoolCount = counts.mcq
	report.TheoryPoolCount = counts.theory
	return report, nil
}

// EqualizedMarks divides the fixed MCQ mark pool evenly over one batch,
// never below one mark per question. Questions saved by earlier batches
// keep the marks they were given.
func EqualizedMarks(count int) int {
	if count <= 0 {
		return 0
	}
	marks := mcqMarkPool / count
	if marks < 1 {
		return 1
	}
	return marks
}

func (s *Service) examTitle(ctx context.Context, examID int64) (string, error) {
	if examID <= 0 {
		return "", fmt.Errorf("%w: exam id must be positive", ErrInvalidInput)
	}
	var title string
	err := s.db.QueryRowContext(ctx,
		`SELECT title FROM exams WHERE id = $1 AND is_active = TRUE`, examID,
	).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrExamNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load exam: %w", err)
	}
	return title, nil
}

func (s *Service) countQuestions(ctx context.Context, examID int64, questionType string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = $1 AND question_type = $2 AND is_active = TRUE`,
		examID, questionType,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s questions: %w", questionType, err)
	}
	return n, nil
}

func (s *Service) insertInstruction(ctx context.Context, examID int64, ins docparse.InstructionBlock) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exam_instructions
			(exam_id, instruction_id, instruction_type, title, instruction_text,
			 full_text, applies_to, start_question, end_question, component,
			 identifier, ord, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, $13)`,
		examID, ins.ID, ins.Type, ins.Title, ins.InstructionText,
		ins.FullText, ins.AppliesTo, nullIfZero(ins.StartQuestion), nullIfZero(ins.EndQuestion),
		nullIfEmpty(ins.Component), nullIfEmpty(ins.Identifier), ins.Order, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert instruction: %w", err)
	}
	return nil
}

func (s *Service) insertQuestion(ctx context.Context, examID int64, q docparse.QuestionDraft) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	subs, err := json.Marshal(q.SubQuestions)
	if err != nil {
		return fmt.Errorf("encode sub questions: %w", err)
	}
	images, err := json.Marshal(q.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	optionImages, err := json.Marshal(q.OptionImages)
	if err != nil {
		return fmt.Errorf("encode option images: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions
			(exam_id, question_number, question_type, question_text, options,
			 correct_option, sub_questions, marks, instruction_id, question_image,
			 option_images, images, content_type, has_rich_content, is_active,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE, $15, $15)`,
		examID, q.QuestionNumber, q.QuestionType, q.QuestionText, options,
		q.CorrectOption, subs, q.Marks, nullIfEmpty(q.InstructionID), nullIfEmpty(q.QuestionImage),
		optionImages, images, q.ContentType, q.HasRichContent, now,
	)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

type poolCounts struct {
	mcq    int
	theory int
}

// recomputePoolCounts reads live active-question counts and writes them
// back to the exam record, instead of incrementing, so partially failed
// saves cannot drift the counters.
func (s *Service) recomputePoolCounts(ctx context.Context, examID int64) (poolCounts, error) {
	var counts poolCounts
	var err error
	if counts.mcq, err = s.countQuestions(ctx, examID, docparse.TypeMCQ); err != nil {
		return counts, err
	}
	if counts.theory, err = s.countQuestions(ctx, examID, docparse.TypeTheory); err != nil {
		return counts, err
	}
	var instructions int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exam_instructions WHERE exam_id = $1 AND is_active = TRUE`,
		examID,
	).Scan(&instructions)
	if err != nil {
		return counts, fmt.Errorf("count instructions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE exams
		SET mcq_pool_count = $2,
		    theory_pool_count = $3,
		    has_mcq = $4,
		    has_theory = $5,
		    has_instructions = $6,
		    updated_at = $7
		WHERE id = $1`,
		examID, counts.mcq, counts.theory,
		counts.mcq > 0, counts.theory > 0, instructions > 0, time.Now().UTC(),
	)
	if err != nil {
		return counts, fmt.Errorf("update pool counts: %w", err)
	}
	return counts, nil
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func nullIfZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
