package docparse

import (
	"strings"
)

// lineUnit names the part of the open question that continuation blocks
// append to.
type lineUnit int

const (
	unitNone lineUnit = iota
	unitBody
	unitOption
	unitSub
)

// lineState is the parser state threaded over the block stream: either
// idle (draft nil) or one open question with the unit currently being
// accumulated.
type lineState struct {
	draft        *QuestionDraft
	unit         lineUnit
	expectedNext int
}

// LineParser walks the block stream once, classifying each block as a
// question start, option, sub-question, instruction, or continuation of
// the unit before it.
type LineParser struct {
	questionType string
}

// NewLineParser returns a parser that types questions per questionType,
// one of mcq, theory, or auto.
func NewLineParser(questionType string) *LineParser {
	if questionType == "" {
		questionType = TypeAuto
	}
	return &LineParser{questionType: questionType}
}

// Parse folds the block stream into drafts and instructions.
func (p *LineParser) Parse(blocks []Block) (*Result, error) {
	res := &Result{}
	st := lineState{expectedNext: 1}
	var active *InstructionBlock

	for i := range blocks {
		b := &blocks[i]
		text := strings.TrimSpace(b.Text)
		if text == "" && len(b.Images) == 0 {
			continue
		}

		if ins, ok := MatchInstruction(text); ok {
			p.closeQuestion(&st, res, active)
			ins.ID = NewInstructionID()
			ins.Order = len(res.Instructions)
			res.Instructions = append(res.Instructions, ins)
			active = &res.Instructions[len(res.Instructions)-1]
			continue
		}
		if st.draft == nil && IsStandaloneInstruction(text) {
			ins := InstructionBlock{
				ID:              NewInstructionID(),
				Type:            InstructionGeneral,
				Title:           "Instructions",
				InstructionText: text,
				FullText:        text,
				AppliesTo:       AppliesFollowing,
				Order:           len(res.Instructions),
			}
			res.Instructions = append(res.Instructions, ins)
			active = &res.Instructions[len(res.Instructions)-1]
			continue
		}
		if IsQuestionStart(text) || p.isSequentialStart(&st, text) {
			p.closeQuestion(&st, res, active)
			p.openQuestion(&st, b, text)
			continue
		}
		if st.draft != nil && st.draft.QuestionType == TypeMCQ && IsOptionStart(text) {
			p.appendOption(&st, b, text)
			continue
		}
		if st.draft != nil && st.draft.QuestionType == TypeTheory && IsSubQuestionStart(text) {
			p.appendSubQuestion(&st, text)
			continue
		}
		if st.draft != nil {
			p.appendContinuation(&st, b, text)
			continue
		}
		// Loose text before the first question with no instruction match
		// carries no structure worth keeping.
	}
	p.closeQuestion(&st, res, active)

	applyRangeInstructions(res)
	return res, nil
}

// isSequentialStart rescues a numbered question start that the short
// option exclusion swallowed. With no question open there is nothing the
// block could be an option of, so any question-pattern match counts.
// While a question is open the digit must be the next expected question
// number and the block must read like a question, carrying a marks
// annotation or ending in a question mark.
func (p *LineParser) isSequentialStart(st *lineState, text string) bool {
	matched := false
	for _, qp := range questionStartPatterns {
		if qp.MatchString(text) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if st.draft == nil {
		return true
	}
	if n := QuestionNumber(text); n != st.expectedNext {
		return false
	}
	return hasMarksAnnotation(text) || strings.HasSuffix(text, "?")
}

func (p *LineParser) openQuestion(st *lineState, b *Block, text string) {
	qt := p.questionType
	if qt == TypeAuto {
		qt = inferQuestionType(text)
	}
	d := &QuestionDraft{
		QuestionType:  qt,
		QuestionText:  CleanQuestionText(text),
		CorrectOption: -1,
		Marks:         ExtractMarks(text),
	}
	attachImages(d, b)
	st.draft = d
	st.unit = unitBody
	if n := QuestionNumber(text); n > 0 {
		st.expectedNext = n + 1
	} else {
		st.expectedNext++
	}
}

func (p *LineParser) appendOption(st *lineState, b *Block, text string) {
	correct := HasCorrectMarker(OptionBody(text), b.HTML)
	clean := CleanOptionText(text)
	st.draft.Options = append(st.draft.Options, clean)
	if correct && st.draft.CorrectOption < 0 {
		st.draft.CorrectOption = len(st.draft.Options) - 1
	}
	attachImages(st.draft, b)
	st.unit = unitOption
}

func (p *LineParser) appendSubQuestion(st *lineState, text string) {
	number, body := SubQuestionParts(text)
	marks := ExtractMarks(text)
	st.draft.SubQuestions = append(st.draft.SubQuestions, SubQuestion{
		SubNumber: number,
		SubText:   RemoveMarks(body),
		SubMarks:  marks,
	})
	st.unit = unitSub
}

func (p *LineParser) appendContinuation(st *lineState, b *Block, text string) {
	d := st.draft
	switch st.unit {
	case unitOption:
		last := len(d.Options) - 1
		d.Options[last] = joinText(d.Options[last], text)
	case unitSub:
		last := len(d.SubQuestions) - 1
		d.SubQuestions[last].SubText = joinText(d.SubQuestions[last].SubText, text)
	default:
		d.QuestionText = joinText(d.QuestionText, text)
	}
	attachImages(d, b)
}

// closeQuestion finalizes the open draft. MCQ drafts with fewer than two
// options are dropped rather than emitted invalid. Theory drafts with no
// sub-questions get one synthesized from the question body.
func (p *LineParser) closeQuestion(st *lineState, res *Result, active *InstructionBlock) {
	d := st.draft
	st.draft = nil
	st.unit = unitNone
	if d == nil {
		return
	}
	if active != nil && active.Type != InstructionRange {
		d.InstructionID = active.ID
	}
	finalizeImages(d)
	switch d.QuestionType {
	case TypeMCQ:
		if len(d.Options) < 2 {
			return
		}
		if d.CorrectOption < 0 || d.CorrectOption >= len(d.Options) {
			d.CorrectOption = 0
		}
		d.QuestionNumber = len(res.MCQ) + 1
		res.MCQ = append(res.MCQ, *d)
	case TypeTheory:
		d.CorrectOption = 0
		if len(d.SubQuestions) == 0 {
			d.SubQuestions = []SubQuestion{{
				SubNumber: "a",
				SubText:   d.QuestionText,
				SubMarks:  d.Marks,
			}}
			d.QuestionText = ""
		}
		total := 0
		for _, sq := range d.SubQuestions {
			total += sq.SubMarks
		}
		d.Marks = total
		d.QuestionNumber = len(res.Theory) + 1
		res.Theory = append(res.Theory, *d)
	}
}

// inferQuestionType scores indicator vocabulary when the caller asked for
// auto typing. Ties resolve to theory.
func inferQuestionType(text string) string {
	lower := strings.ToLower(text)
	mcq, theory := 0, 0
	for _, w := range []string{"select", "choose", "option", "pick", "which of the following"} {
		if strings.Contains(lower, w) {
			mcq++
		}
	}
	for _, w := range []string{"explain", "describe", "discuss", "analyze", "analyse", "elaborate", "write"} {
		if strings.Contains(lower, w) {
			theory++
		}
	}
	if strings.Contains(lower, "____") || strings.Contains(lower, "fill in") {
		mcq++
	}
	if mcq > theory {
		return TypeMCQ
	}
	return TypeTheory
}

// applyRangeInstructions assigns range-typed instruction ids to questions
// whose number falls inside the range and that carry no id yet. Inline
// attachment already handled the narrower instruction types, so a range
// never overrides a more specific assignment.
func applyRangeInstructions(res *Result) {
	for i := range res.Instructions {
		ins := &res.Instructions[i]
		if ins.Type != InstructionRange {
			continue
		}
		assignRange(res.MCQ, ins)
		assignRange(res.Theory, ins)
	}
}

func assignRange(qs []QuestionDraft, ins *InstructionBlock) {
	for i := range qs {
		q := &qs[i]
		if q.InstructionID != "" {
			continue
		}
		if q.QuestionNumber >= ins.StartQuestion && q.QuestionNumber <= ins.EndQuestion {
			q.InstructionID = ins.ID
		}
	}
}

func attachImages(d *QuestionDraft, b *Block) {
	if len(b.Images) == 0 {
		return
	}
	d.Images = append(d.Images, b.Images...)
	if d.QuestionImage == "" {
		d.QuestionImage = b.Images[0]
	}
}

// finalizeImages settles the content flags and reassigns captured images
// to options when the counts line up, a layout where each image sits next
// to one choice.
func finalizeImages(d *QuestionDraft) {
	n := len(d.Images)
	if n == 0 {
		d.ContentType = ContentText
		return
	}
	if d.QuestionType == TypeMCQ && n == len(d.Options) && n >= 2 && n <= 4 {
		d.OptionImages = append([]string(nil), d.Images...)
		d.QuestionImage = ""
	}
	d.HasRichContent = true
	if strings.TrimSpace(d.QuestionText) == "" && len(d.Options) == 0 {
		d.ContentType = ContentImage
	} else {
		d.ContentType = ContentMixed
	}
}

func joinText(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
