package docparse

import "testing"

func TestValidateMCQ(t *testing.T) {
	good := QuestionDraft{
		QuestionType:  TypeMCQ,
		QuestionText:  "Capital of France?",
		Options:       []string{"London", "Paris"},
		CorrectOption: 1,
		Marks:         2,
	}
	if errs := ValidateMCQ(good); len(errs) != 0 {
		t.Errorf("valid draft rejected: %v", errs)
	}

	cases := []struct {
		name  string
		mut   func(*QuestionDraft)
		wantN int
	}{
		{"empty text", func(d *QuestionDraft) { d.QuestionText = "" }, 1},
		{"one option", func(d *QuestionDraft) { d.Options = d.Options[:1] }, 2},
		{"correct out of range", func(d *QuestionDraft) { d.CorrectOption = 5 }, 1},
		{"zero marks", func(d *QuestionDraft) { d.Marks = 0 }, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := good
			d.Options = append([]string(nil), good.Options...)
			c.mut(&d)
			if errs := ValidateMCQ(d); len(errs) != c.wantN {
				t.Errorf("got %d errors %v, want %d", len(errs), errs, c.wantN)
			}
		})
	}
}

func TestValidateTheory(t *testing.T) {
	good := QuestionDraft{
		QuestionType: TypeTheory,
		SubQuestions: []SubQuestion{{SubNumber: "a", SubText: "Explain osmosis", SubMarks: 5}},
		Marks:        5,
	}
	if errs := ValidateTheory(good); len(errs) != 0 {
		t.Errorf("valid draft rejected: %v", errs)
	}
	if errs := ValidateTheory(QuestionDraft{QuestionType: TypeTheory}); len(errs) == 0 {
		t.Error("draft with no sub-questions accepted")
	}
	bad := good
	bad.SubQuestions = []SubQuestion{{SubNumber: "a", SubText: "", SubMarks: 0}}
	if errs := ValidateTheory(bad); len(errs) != 3 {
		t.Errorf("got %v, want empty-text, sub-marks and total-marks errors", errs)
	}
}

func TestValidateInstruction(t *testing.T) {
	good := InstructionBlock{
		ID:        NewInstructionID(),
		Type:      InstructionRange,
		Title:     "Questions 1-5",
		AppliesTo: AppliesRange,
		StartQuestion: 1,
		EndQuestion:   5,
	}
	if errs := ValidateInstruction(good); len(errs) != 0 {
		t.Errorf("valid instruction rejected: %v", errs)
	}
	bad := good
	bad.StartQuestion, bad.EndQuestion = 5, 1
	if errs := ValidateInstruction(bad); len(errs) == 0 {
		t.Error("inverted range accepted")
	}
	if errs := ValidateInstruction(InstructionBlock{Type: "weird", AppliesTo: "nowhere"}); len(errs) != 4 {
		t.Errorf("got %v, want id, title, type, applies_to errors", errs)
	}
}

func TestLenientRepairPadsMCQ(t *testing.T) {
	draft := QuestionDraft{
		QuestionType:  TypeMCQ,
		QuestionText:  "Capital of France?",
		Options:       []string{"Paris"},
		CorrectOption: -1,
		Marks:         0,
	}

	strict := ValidateBatch([]QuestionDraft{draft}, TypeMCQ, ModeStrict)
	if len(strict.Valid) != 0 || len(strict.Invalid) != 1 {
		t.Fatalf("strict mode: valid=%d invalid=%d", len(strict.Valid), len(strict.Invalid))
	}

	lenient := ValidateBatch([]QuestionDraft{draft}, TypeMCQ, ModeLenient)
	if len(lenient.Valid) != 1 {
		t.Fatalf("lenient mode: valid=%d invalid=%d", len(lenient.Valid), len(lenient.Invalid))
	}
	fixed := lenient.Valid[0]
	if len(fixed.Options) != 2 {
		t.Errorf("options not padded: %v", fixed.Options)
	}
	if fixed.CorrectOption != 0 {
		t.Errorf("correct = %d, want 0", fixed.CorrectOption)
	}
	if fixed.Marks != 1 {
		t.Errorf("marks = %d, want 1", fixed.Marks)
	}
	if len(lenient.Notes) == 0 {
		t.Error("repair note missing")
	}
	// Repair works on a copy, never the caller's draft.
	if len(draft.Options) != 1 || draft.Marks != 0 {
		t.Errorf("input draft mutated: %+v", draft)
	}
}

func TestLenientRepairTheory(t *testing.T) {
	draft := QuestionDraft{
		QuestionType: TypeTheory,
		QuestionText: "Discuss the causes of World War I",
		Marks:        8,
	}
	out := ValidateBatch([]QuestionDraft{draft}, TypeTheory, ModeLenient)
	if len(out.Valid) != 1 {
		t.Fatalf("valid=%d invalid=%d", len(out.Valid), len(out.Invalid))
	}
	fixed := out.Valid[0]
	if len(fixed.SubQuestions) != 1 || fixed.SubQuestions[0].SubMarks != 8 {
		t.Errorf("sub-questions = %+v", fixed.SubQuestions)
	}
	if fixed.Marks != 8 {
		t.Errorf("marks = %d, want recomputed 8", fixed.Marks)
	}
}

func TestLenientRepairKeepsUnfixable(t *testing.T) {
	// No text and no sub-questions leaves nothing to synthesize from.
	out := ValidateBatch([]QuestionDraft{{QuestionType: TypeTheory}}, TypeTheory, ModeLenient)
	if len(out.Invalid) != 1 {
		t.Fatalf("valid=%d invalid=%d", len(out.Valid), len(out.Invalid))
	}
}
