package docparse

import (
	"fmt"
	"regexp"
	"strings"
)

// SnapshotParser treats question and option markers purely as cut points,
// capturing everything between two markers as opaque content and
// deferring cleanup to finalization. It keeps run-level formatting and
// anchored images that line classification would flatten away, so it is
// the preferred strategy for word-processing documents.
type SnapshotParser struct {
	questionType string
}

func NewSnapshotParser(questionType string) *SnapshotParser {
	if questionType == "" {
		questionType = TypeAuto
	}
	return &SnapshotParser{questionType: questionType}
}

var (
	snapQuestionMarkers = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(\d+)\s*[\.\)\:]\s*(.*)$`),
		regexp.MustCompile(`(?i)^\s*Q\.?\s*(\d+)\s*[\.\)\:]?\s*(.*)$`),
		regexp.MustCompile(`(?i)^\s*Question\s*\.?\s*(\d+)\s*[\.\)\:]?\s*(.*)$`),
	}
	snapOptionMarker = regexp.MustCompile(`^\s*([A-Ha-h])\s*[\.\)]\s+(.*)$|^\s*([A-Ha-h])\s*[\.\)]$`)
)

// snapUnit accumulates content blocks between two markers.
type snapUnit struct {
	texts   []string
	images  []string
	correct bool
}

func (u *snapUnit) add(text string, images []string) {
	if strings.TrimSpace(text) != "" {
		u.texts = append(u.texts, strings.TrimSpace(text))
	}
	u.images = append(u.images, images...)
}

// snapQuestion is one in-progress capture.
type snapQuestion struct {
	number  int
	rawText string
	body    snapUnit
	options []snapUnit
}

// Parse scans the block stream, cutting at markers and capturing
// everything in between.
func (p *SnapshotParser) Parse(blocks []Block) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot parse: %v", r)
		}
	}()

	res = &Result{}
	var cur *snapQuestion
	var active *InstructionBlock

	for i := range blocks {
		b := &blocks[i]
		text := strings.TrimSpace(b.Text)
		content := b.HTML
		if content == "" {
			content = text
		}
		if text == "" && len(b.Images) == 0 {
			continue
		}

		if ins, ok := MatchInstruction(text); ok {
			p.finalize(cur, res, active)
			cur = nil
			ins.ID = NewInstructionID()
			ins.Order = len(res.Instructions)
			res.Instructions = append(res.Instructions, ins)
			active = &res.Instructions[len(res.Instructions)-1]
			continue
		}

		// Snapshot options are letter-marked only, so a digit marker is
		// always a question cut here.
		if num, rest, ok := matchSnapQuestion(text); ok {
			p.finalize(cur, res, active)
			cur = &snapQuestion{number: num, rawText: text}
			cur.body.add(rest, b.Images)
			continue
		}
		if cur != nil {
			if _, rest, ok := matchSnapOption(text); ok {
				u := snapUnit{correct: HasCorrectMarker(rest, b.HTML)}
				u.add(rest, b.Images)
				cur.options = append(cur.options, u)
				continue
			}
			if len(cur.options) > 0 {
				cur.options[len(cur.options)-1].add(content, b.Images)
			} else {
				cur.body.add(content, b.Images)
			}
		}
	}
	p.finalize(cur, res, active)

	applyRangeInstructions(res)
	return res, nil
}

func matchSnapQuestion(text string) (num int, rest string, ok bool) {
	for _, p := range snapQuestionMarkers {
		if m := p.FindStringSubmatch(text); m != nil {
			return atoiSafe(m[1]), strings.TrimSpace(m[2]), true
		}
	}
	return 0, "", false
}

func matchSnapOption(text string) (letter, rest string, ok bool) {
	m := snapOptionMarker.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	if m[1] != "" {
		return strings.ToUpper(m[1]), strings.TrimSpace(m[2]), true
	}
	return strings.ToUpper(m[3]), "", true
}

// finalize turns a completed capture into a draft, applying math
// normalization and option dedup.
func (p *SnapshotParser) finalize(q *snapQuestion, res *Result, active *InstructionBlock) {
	if q == nil {
		return
	}
	d := &QuestionDraft{
		QuestionType:  TypeMCQ,
		CorrectOption: -1,
		Marks:         ExtractMarks(q.rawText),
	}
	body := NormalizeMath(strings.Join(q.body.texts, "<br>"))
	if !hasMarksAnnotation(q.rawText) {
		d.Marks = ExtractMarks(body)
	}
	d.QuestionText = RemoveMarks(body)
	d.Images = append(d.Images, q.body.images...)
	if len(q.body.images) > 0 {
		d.QuestionImage = q.body.images[0]
	}

	for i, u := range q.options {
		text := NormalizeMath(strings.Join(u.texts, "<br>"))
		d.Options = append(d.Options, text)
		if u.correct && d.CorrectOption < 0 {
			d.CorrectOption = i
		}
		if len(u.images) > 0 {
			d.Images = append(d.Images, u.images...)
			d.HasRichContent = true
		}
	}
	dedupeOptions(d)
	if active != nil && active.Type != InstructionRange {
		d.InstructionID = active.ID
	}
	finalizeImages(d)

	if len(d.Options) >= 2 {
		if d.CorrectOption < 0 || d.CorrectOption >= len(d.Options) {
			d.CorrectOption = 0
		}
		d.QuestionNumber = len(res.MCQ) + 1
		res.MCQ = append(res.MCQ, *d)
		return
	}
	if p.questionType == TypeMCQ {
		// A marker capture that never saw two options is noise for an
		// MCQ-only upload.
		return
	}
	d.QuestionType = TypeTheory
	d.CorrectOption = 0
	d.Options = nil
	d.SubQuestions = []SubQuestion{{SubNumber: "a", SubText: d.QuestionText, SubMarks: d.Marks}}
	d.QuestionText = ""
	d.QuestionNumber = len(res.Theory) + 1
	res.Theory = append(res.Theory, *d)
}

var (
	degreePattern      = regexp.MustCompile(`(\d)\s*\^\s*[oO]\b`)
	caretPattern       = regexp.MustCompile(`(\w)\^(\w+)`)
	stackedDashPattern = regexp.MustCompile(`(\d+)\s*<br>\s*[-_]+\s*<br>\s*(\d+)`)
	stackedPattern     = regexp.MustCompile(`^(\d+)<br>(\d+)$`)
)

// NormalizeMath rewrites plain-text math notation into inline markup:
// caret exponents become superscripts, a trailing ^o after a digit
// becomes the degree sign, and two stacked numerals collapse into a
// fraction rendering.
func NormalizeMath(s string) string {
	s = degreePattern.ReplaceAllString(s, "$1°")
	s = caretPattern.ReplaceAllString(s, "$1<sup>$2</sup>")
	s = stackedDashPattern.ReplaceAllString(s, "<sup>$1</sup>/<sub>$2</sub>")
	s = stackedPattern.ReplaceAllString(s, "<sup>$1</sup>/<sub>$2</sub>")
	return s
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20",
}

// canonicalOption reduces an option to its comparison key: markup and
// correct markers stripped, case folded, and small number words mapped to
// digits so "Four" and "4" collide.
func canonicalOption(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = RemoveCorrectMarkers(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = spacePattern.ReplaceAllString(s, " ")
	if d, ok := numberWords[s]; ok {
		return d
	}
	return s
}

// dedupeOptions removes empty and repeated options, keeping the first
// occurrence of each canonical key and remapping the correct index
// through the surviving positions. Marker capture occasionally turns
// marker remnants into phantom options; this pass disposes of them.
func dedupeOptions(d *QuestionDraft) {
	if len(d.Options) == 0 {
		return
	}
	seen := map[string]int{}
	remap := map[int]int{}
	var kept []string
	for i, opt := range d.Options {
		clean := RemoveCorrectMarkers(opt)
		key := canonicalOption(opt)
		if key == "" {
			continue
		}
		if at, dup := seen[key]; dup {
			remap[i] = at
			continue
		}
		seen[key] = len(kept)
		remap[i] = len(kept)
		kept = append(kept, clean)
	}
	if d.CorrectOption >= 0 {
		if ni, ok := remap[d.CorrectOption]; ok {
			d.CorrectOption = ni
		} else {
			d.CorrectOption = 0
		}
	}
	d.Options = kept
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
