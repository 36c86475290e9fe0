package docparse

import (
	"strings"
	"testing"
)

func textBlocks(lines ...string) []Block {
	var blocks []Block
	for _, l := range lines {
		blocks = append(blocks, Block{Text: l, Pos: len(blocks)})
	}
	return blocks
}

func TestLineParserTwoQuestionFixture(t *testing.T) {
	fixture := "1. Capital of France? [2 marks]\na) London\nb) Paris*\n\n2) 2+2 1m\na. Three\nb. Four (correct)"
	res, err := NewLineParser(TypeMCQ).Parse(textBlocks(strings.Split(fixture, "\n")...))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MCQ) != 2 {
		t.Fatalf("got %d MCQ drafts, want 2", len(res.MCQ))
	}

	q1 := res.MCQ[0]
	if q1.Marks != 2 || q1.CorrectOption != 1 {
		t.Errorf("q1 marks=%d correct=%d, want 2 and 1", q1.Marks, q1.CorrectOption)
	}
	if q1.QuestionText != "Capital of France?" {
		t.Errorf("q1 text = %q", q1.QuestionText)
	}
	if len(q1.Options) != 2 || q1.Options[1] != "Paris" {
		t.Errorf("q1 options = %v", q1.Options)
	}

	q2 := res.MCQ[1]
	if q2.Marks != 1 || q2.CorrectOption != 1 {
		t.Errorf("q2 marks=%d correct=%d, want 1 and 1", q2.Marks, q2.CorrectOption)
	}
	if q2.QuestionText != "2+2" {
		t.Errorf("q2 text = %q", q2.QuestionText)
	}
	if len(q2.Options) != 2 || q2.Options[0] != "Three" || q2.Options[1] != "Four" {
		t.Errorf("q2 options = %v", q2.Options)
	}
}

func TestLineParserKeepsQuestionCitingRange(t *testing.T) {
	res, err := NewLineParser(TypeMCQ).Parse(textBlocks(
		"1. The table for questions 2-3 shows rainfall. What is the mean? [2 marks]",
		"a) 10",
		"b) 20",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Instructions) != 0 {
		t.Fatalf("got %d instructions, want 0: %+v", len(res.Instructions), res.Instructions)
	}
	if len(res.MCQ) != 1 {
		t.Fatalf("got %d MCQ drafts, want 1", len(res.MCQ))
	}
	if len(res.MCQ[0].Options) != 2 {
		t.Errorf("options = %v", res.MCQ[0].Options)
	}
}

func TestLineParserKeepsSectionProseContinuation(t *testing.T) {
	res, err := NewLineParser(TypeMCQ).Parse(textBlocks(
		"1. What does the constitution provide? [2 marks]",
		"Section 42 of the constitution covers citizenship rights",
		"a) voting",
		"b) residency",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Instructions) != 0 {
		t.Fatalf("got %d instructions, want 0: %+v", len(res.Instructions), res.Instructions)
	}
	if len(res.MCQ) != 1 {
		t.Fatalf("got %d MCQ drafts, want 1", len(res.MCQ))
	}
	q := res.MCQ[0]
	if !strings.Contains(q.QuestionText, "Section 42") {
		t.Errorf("continuation line lost from question text: %q", q.QuestionText)
	}
	if len(q.Options) != 2 {
		t.Errorf("options = %v", q.Options)
	}
}

func TestLineParserDropsSingleOptionMCQ(t *testing.T) {
	res, err := NewLineParser(TypeMCQ).Parse(textBlocks(
		"1. Broken question [2 marks]",
		"a) Only option",
		"2. Whole question with options here?",
		"a) Yes",
		"b) No",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MCQ) != 1 {
		t.Fatalf("got %d MCQ drafts, want 1", len(res.MCQ))
	}
	if res.MCQ[0].QuestionNumber != 1 {
		t.Errorf("surviving question renumbered to %d, want 1", res.MCQ[0].QuestionNumber)
	}
	if !strings.Contains(res.MCQ[0].QuestionText, "Whole question") {
		t.Errorf("wrong question survived: %q", res.MCQ[0].QuestionText)
	}
}

func TestLineParserTheoryDefaultSubQuestion(t *testing.T) {
	res, err := NewLineParser(TypeTheory).Parse(textBlocks(
		"1. Explain the water cycle [10 marks]",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Theory) != 1 {
		t.Fatalf("got %d theory drafts, want 1", len(res.Theory))
	}
	q := res.Theory[0]
	if len(q.SubQuestions) != 1 {
		t.Fatalf("got %d sub-questions, want 1", len(q.SubQuestions))
	}
	sq := q.SubQuestions[0]
	if sq.SubNumber != "a" || sq.SubMarks != 10 {
		t.Errorf("sub-question = %+v", sq)
	}
	if !strings.Contains(sq.SubText, "water cycle") {
		t.Errorf("sub text = %q", sq.SubText)
	}
	if q.QuestionText != "" {
		t.Errorf("question text should move into the sub-question, got %q", q.QuestionText)
	}
	if q.Marks != 10 {
		t.Errorf("marks = %d, want 10", q.Marks)
	}
}

func TestLineParserTheorySubQuestions(t *testing.T) {
	res, err := NewLineParser(TypeTheory).Parse(textBlocks(
		"1. Answer all parts [12 marks]",
		"a) Define osmosis (4 marks)",
		"b) Explain diffusion (8 marks)",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Theory) != 1 {
		t.Fatalf("got %d theory drafts, want 1", len(res.Theory))
	}
	q := res.Theory[0]
	if len(q.SubQuestions) != 2 {
		t.Fatalf("got %d sub-questions, want 2", len(q.SubQuestions))
	}
	if q.SubQuestions[0].SubNumber != "a" || q.SubQuestions[0].SubMarks != 4 {
		t.Errorf("first sub = %+v", q.SubQuestions[0])
	}
	if q.Marks != 12 {
		t.Errorf("marks = %d, want sum of sub-marks 12", q.Marks)
	}
}

func TestLineParserContinuationBlocks(t *testing.T) {
	res, err := NewLineParser(TypeMCQ).Parse(textBlocks(
		"1. Read the excerpt below",
		"and answer accordingly, considering every clause of it carefully",
		"a) First",
		"continued option text",
		"b) Second",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MCQ) != 1 {
		t.Fatalf("got %d MCQ drafts, want 1", len(res.MCQ))
	}
	q := res.MCQ[0]
	if !strings.Contains(q.QuestionText, "answer accordingly") {
		t.Errorf("continuation not appended to body: %q", q.QuestionText)
	}
	if !strings.Contains(q.Options[0], "continued option text") {
		t.Errorf("continuation not appended to option: %q", q.Options[0])
	}
}

func TestLineParserInstructionScoping(t *testing.T) {
	res, err := NewLineParser(TypeMCQ).Parse(textBlocks(
		"Instructions for Questions 1-5: choose the best answer.",
		"1. First? ",
		"a) x",
		"b) y",
		"COMPONENT 2: grammar drills",
		"3. Third?",
		"a) x",
		"b) y",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Instructions) != 2 {
		t.Fatalf("got %d instructions, want 2", len(res.Instructions))
	}
	rangeID := res.Instructions[0].ID
	componentID := res.Instructions[1].ID
	if res.Instructions[0].Type != InstructionRange {
		t.Fatalf("first instruction type = %q", res.Instructions[0].Type)
	}
	if len(res.MCQ) != 2 {
		t.Fatalf("got %d MCQ drafts, want 2", len(res.MCQ))
	}
	if res.MCQ[0].InstructionID != rangeID {
		t.Errorf("q1 instruction = %q, want range id", res.MCQ[0].InstructionID)
	}
	// The component instruction is more specific; the range pass must not
	// override it even though question 2 sits inside 1-5.
	if res.MCQ[1].InstructionID != componentID {
		t.Errorf("q2 instruction = %q, want component id", res.MCQ[1].InstructionID)
	}
}

func TestLineParserAutoTyping(t *testing.T) {
	res, err := NewLineParser(TypeAuto).Parse(textBlocks(
		"1. Choose the correct option from the list below now",
		"a) First",
		"b) Second",
		"2. Explain in detail how photosynthesis works in plants",
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MCQ) != 1 {
		t.Errorf("got %d MCQ drafts, want 1", len(res.MCQ))
	}
	if len(res.Theory) != 1 {
		t.Errorf("got %d theory drafts, want 1", len(res.Theory))
	}
}
