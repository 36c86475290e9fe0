// Package docparse extracts exam questions and instructions from uploaded
// documents. Format adapters decode each supported container into a flat
// stream of blocks; the parsers in this package turn that stream into
// question drafts ready for validation and persistence.
package docparse

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("document contains no readable content")
	ErrDecode            = errors.New("document decode failed")
)

// Question types.
const (
	TypeMCQ    = "mcq"
	TypeTheory = "theory"
	TypeAuto   = "auto"
)

// Instruction types.
const (
	InstructionGeneral          = "general"
	InstructionSection          = "section"
	InstructionComponent        = "component"
	InstructionRange            = "range"
	InstructionSubjectComponent = "subject_component"
)

// Instruction applicability.
const (
	AppliesFollowing = "following_questions"
	AppliesRange     = "question_range"
	AppliesAll       = "all_questions"
)

// Content types for questions carrying images.
const (
	ContentText  = "text"
	ContentImage = "image"
	ContentMixed = "mixed"
)

// Block is one adapter-normalized unit of document content in original
// order. Adapters produce blocks; parsers never mutate them.
type Block struct {
	Text   string
	HTML   string
	Images []string
	Pos    int
}

// SubQuestion is one part of a theory question.
type SubQuestion struct {
	SubNumber string `json:"sub_number"`
	SubText   string `json:"sub_text"`
	SubMarks  int    `json:"sub_marks"`
}

// QuestionDraft is an extracted, not-yet-validated question. MCQ drafts
// populate Options and CorrectOption; theory drafts populate SubQuestions.
type QuestionDraft struct {
	QuestionType   string        `json:"question_type"`
	QuestionNumber int           `json:"question_number"`
	QuestionText   string        `json:"question_text"`
	Options        []string      `json:"options,omitempty"`
	CorrectOption  int           `json:"correct_option"`
	SubQuestions   []SubQuestion `json:"sub_questions,omitempty"`
	Marks          int           `json:"marks"`
	InstructionID  string        `json:"instruction_id,omitempty"`
	QuestionImage  string        `json:"question_image,omitempty"`
	OptionImages   []string      `json:"option_images,omitempty"`
	Images         []string      `json:"images,omitempty"`
	ContentType    string        `json:"content_type,omitempty"`
	HasRichContent bool          `json:"has_rich_content,omitempty"`
}

// InstructionBlock is a parsed instruction governing one or more questions.
type InstructionBlock struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Title           string `json:"title"`
	InstructionText string `json:"instruction_text"`
	FullText        string `json:"full_text"`
	AppliesTo       string `json:"applies_to"`
	StartQuestion   int    `json:"start_question,omitempty"`
	EndQuestion     int    `json:"end_question,omitempty"`
	Component       string `json:"component,omitempty"`
	Identifier      string `json:"identifier,omitempty"`
	Order           int    `json:"order"`
}

// Result is the combined output of a parse run over one document.
type Result struct {
	MCQ          []QuestionDraft
	Theory       []QuestionDraft
	Instructions []InstructionBlock
}

// NewInstructionID returns a fresh unique instruction identifier.
func NewInstructionID() string {
	return uuid.NewString()
}
