package docparse

import (
	"fmt"
	"strings"
)

// Validation modes.
const (
	ModeStrict  = "strict"
	ModeLenient = "lenient"
)

// ItemErrors pairs a batch index with the problems found on that item.
type ItemErrors struct {
	Index  int      `json:"index"`
	Errors []string `json:"errors"`
}

// BatchOutcome partitions one draft category into valid and invalid
// items. Repair never mutates the input draft; accepted repairs appear in
// Valid as new values.
type BatchOutcome struct {
	Valid   []QuestionDraft `json:"valid"`
	Invalid []ItemErrors    `json:"invalid"`
	Notes   []string        `json:"notes,omitempty"`
}

// InstructionOutcome is the instruction counterpart of BatchOutcome.
type InstructionOutcome struct {
	Valid   []InstructionBlock `json:"valid"`
	Invalid []ItemErrors       `json:"invalid"`
}

// ValidateMCQ checks one MCQ draft for structural completeness.
func ValidateMCQ(d QuestionDraft) []string {
	var errs []string
	if strings.TrimSpace(d.QuestionText) == "" && d.QuestionImage == "" {
		errs = append(errs, "question text is empty")
	}
	if len(d.Options) < 2 {
		errs = append(errs, fmt.Sprintf("needs at least 2 options, has %d", len(d.Options)))
	}
	if d.CorrectOption < 0 || d.CorrectOption >= len(d.Options) {
		errs = append(errs, "correct option index out of range")
	}
	if d.Marks <= 0 {
		errs = append(errs, "marks must be positive")
	}
	return errs
}

// ValidateTheory checks one theory draft.
func ValidateTheory(d QuestionDraft) []string {
	var errs []string
	if len(d.SubQuestions) == 0 {
		errs = append(errs, "needs at least 1 sub-question")
	}
	total := 0
	for i, sq := range d.SubQuestions {
		if strings.TrimSpace(sq.SubText) == "" {
			errs = append(errs, fmt.Sprintf("sub-question %d text is empty", i+1))
		}
		if sq.SubMarks <= 0 {
			errs = append(errs, fmt.Sprintf("sub-question %d marks must be positive", i+1))
		}
		total += sq.SubMarks
	}
	if len(d.SubQuestions) > 0 && total <= 0 {
		errs = append(errs, "total marks must be positive")
	}
	return errs
}

// ValidateInstruction checks one instruction block.
func ValidateInstruction(ins InstructionBlock) []string {
	var errs []string
	if ins.ID == "" {
		errs = append(errs, "instruction id is required")
	}
	if strings.TrimSpace(ins.Title) == "" {
		errs = append(errs, "title is required")
	}
	switch ins.Type {
	case InstructionGeneral, InstructionSection, InstructionComponent,
		InstructionRange, InstructionSubjectComponent:
	default:
		errs = append(errs, fmt.Sprintf("unknown instruction type %q", ins.Type))
	}
	switch ins.AppliesTo {
	case AppliesFollowing, AppliesRange, AppliesAll:
	default:
		errs = append(errs, fmt.Sprintf("unknown applies_to %q", ins.AppliesTo))
	}
	if ins.Type == InstructionRange && ins.StartQuestion > ins.EndQuestion {
		errs = append(errs, "range start exceeds range end")
	}
	return errs
}

// ValidateBatch runs per-type validation over a category of drafts. In
// lenient mode, invalid drafts go through repair and re-validation; a
// repaired draft that now passes joins Valid with a note, otherwise it
// stays in Invalid with the original errors.
func ValidateBatch(drafts []QuestionDraft, questionType, mode string) BatchOutcome {
	var out BatchOutcome
	validate := ValidateMCQ
	if questionType == TypeTheory {
		validate = ValidateTheory
	}
	for i, d := range drafts {
		errs := validate(d)
		if len(errs) == 0 {
			out.Valid = append(out.Valid, d)
			continue
		}
		if mode == ModeLenient {
			fixed := RepairDraft(d, questionType)
			if len(validate(fixed)) == 0 {
				out.Valid = append(out.Valid, fixed)
				out.Notes = append(out.Notes,
					fmt.Sprintf("question %d fixed automatically: %s", i+1, strings.Join(errs, "; ")))
				continue
			}
		}
		out.Invalid = append(out.Invalid, ItemErrors{Index: i, Errors: errs})
	}
	return out
}

// ValidateInstructions partitions instruction blocks.
func ValidateInstructions(blocks []InstructionBlock) InstructionOutcome {
	var out InstructionOutcome
	for i, ins := range blocks {
		if errs := ValidateInstruction(ins); len(errs) > 0 {
			out.Invalid = append(out.Invalid, ItemErrors{Index: i, Errors: errs})
			continue
		}
		out.Valid = append(out.Valid, ins)
	}
	return out
}

// RepairDraft returns a repaired copy of an invalid draft. MCQ repairs
// default the correct option, pad to two options, and floor marks at 1.
// Theory repairs synthesize a sub-question from the main text and
// recompute marks from the sub-question sum.
func RepairDraft(d QuestionDraft, questionType string) QuestionDraft {
	fixed := d
	fixed.Options = append([]string(nil), d.Options...)
	fixed.SubQuestions = append([]SubQuestion(nil), d.SubQuestions...)

	if questionType == TypeTheory {
		if len(fixed.SubQuestions) == 0 && strings.TrimSpace(fixed.QuestionText) != "" {
			marks := fixed.Marks
			if marks <= 0 {
				marks = 1
			}
			fixed.SubQuestions = []SubQuestion{{SubNumber: "a", SubText: fixed.QuestionText, SubMarks: marks}}
			fixed.QuestionText = ""
		}
		total := 0
		for i := range fixed.SubQuestions {
			if fixed.SubQuestions[i].SubMarks <= 0 {
				fixed.SubQuestions[i].SubMarks = 1
			}
			total += fixed.SubQuestions[i].SubMarks
		}
		fixed.Marks = total
		return fixed
	}

	for len(fixed.Options) < 2 {
		fixed.Options = append(fixed.Options, fmt.Sprintf("Option %c", 'A'+len(fixed.Options)))
	}
	if fixed.CorrectOption < 0 || fixed.CorrectOption >= len(fixed.Options) {
		fixed.CorrectOption = 0
	}
	if fixed.Marks <= 0 {
		fixed.Marks = 1
	}
	return fixed
}
