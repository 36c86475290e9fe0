package docparse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Pattern families are evaluated in declaration order; the first match wins.

var questionStartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\d+\s*[\.\)\,\:\-]\s*`),
	regexp.MustCompile(`(?i)^\s*Q\.?\s*\d+\s*[\.\)\,\:\-]?\s*`),
	regexp.MustCompile(`(?i)^\s*Question\s*\.?\s*\d+\s*[\.\)\,\:\-]?\s*`),
	regexp.MustCompile(`^\s*\(\s*\d+\s*\)\s*`),
	regexp.MustCompile(`(?i)^\s*No\.?\s*\d+\s*[\.\)\,\:\-]?\s*`),
	regexp.MustCompile(`^\s*[IVX]+\s*[\.\)\,\:\-]\s*`),
}

// lenientQuestionPattern catches unnumbered prose that still reads like a
// question start: a leading number and a capitalized word, three words
// minimum.
var lenientQuestionPattern = regexp.MustCompile(`^\s*\d+\s+[A-Z]`)

var digitOptionStart = regexp.MustCompile(`^\s*[1-4]\s*[\.\)\,\:\-]\s*`)

var optionStartPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*[a-hA-H]\s*[\.\)\,\:\-]\s*`),
	regexp.MustCompile(`^\s*\(\s*[a-hA-H]\s*\)\s*`),
	digitOptionStart,
	regexp.MustCompile(`^\s*(i{1,3}|iv|v|vi{1,3}|ix|x)\s*[\.\)]\s*`),
	regexp.MustCompile(`^\s*[-•*]\s+`),
}

var subQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*[a-z]\s*[\.\)]\s*`),
	regexp.MustCompile(`^\s*\(\s*[a-z]\s*\)\s*`),
	regexp.MustCompile(`^\s*(i{1,3}|iv|v|vi{1,3})\s*[\.\)]\s*`),
}

var optionVocabPattern = regexp.MustCompile(`(?i)\b(option|choice|answer|correct|true|false)\b`)

var (
	instructionHeaderPattern = regexp.MustCompile(`(?i)^\s*instructions?\s*[:\-]`)
	// Section identifiers are single letters; "Section 42 of the act"
	// inside a question body is prose, not a header.
	sectionPattern   = regexp.MustCompile(`(?i)^\s*section\s+([A-Z])\b\s*[:\-.]?\s*(.*)$`)
	partPattern      = regexp.MustCompile(`(?i)^\s*part\s+([A-Z0-9]+)\s*[:\-.]?\s*(.*)$`)
	componentPattern = regexp.MustCompile(`(?i)^\s*component\s+(\d+)\s*[:\-.]?\s*(.*)$`)
	// Anchored with a mandatory "for" so a question that merely cites a
	// range ("the table for questions 2-3") never reads as a header.
	rangePattern         = regexp.MustCompile(`(?i)^\s*(?:instructions?\s+)?for\s+questions?\s+(\d+)\s*[-–]\s*(\d+)\s*[:\-.]?`)
	allCapsHeaderPattern = regexp.MustCompile(`^\s*[A-Z][A-Z\s]{2,}:\s*`)
)

var subjectComponentPattern = regexp.MustCompile(
	`(?i)^\s*(synonyms?|antonyms?|grammar|comprehension|vocabulary|lexis|structure|` +
		`reading\s+section|writing\s+section|listening\s+section|speaking\s+section)\b\s*[:\-.]?\s*(.*)$`)

var instructionVocabPattern = regexp.MustCompile(
	`(?i)\b(choose|select|identify|complete|fill|match|indicate|underline|circle|` +
		`read\s+the\s+passage|from\s+the\s+options|answer\s+the\s+following|` +
		`answer\s+all|attempt\s+any)\b`)

// Mark annotation attempts, highest confidence first.
var marksPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[\[\(]\s*(\d+)\s*(?:marks?|points?|pts?)\s*[\]\)]`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:marks?|points?|pts?)\b`),
	regexp.MustCompile(`(?i)[-–]\s*(\d+)\s*(?:marks?|points?|pts?)`),
	regexp.MustCompile(`(?i)\b(\d+)\s*m\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*p\b`),
	regexp.MustCompile(`(?i)(?:marks?|points?|total)\s*[:=]\s*(\d+)`),
}

var marksStripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[\[\(]\s*\d+\s*(?:marks?|points?|pts?)\s*[\]\)]`),
	regexp.MustCompile(`(?i)[-–]?\s*\d+\s*(?:marks?|points?|pts?)\b`),
	regexp.MustCompile(`(?i)\b\d+\s*[mp]\b\s*$`),
	regexp.MustCompile(`(?i)(?:marks?|points?|total)\s*[:=]\s*\d+`),
}

var correctTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\*✓√]\s*$`),
	regexp.MustCompile(`(?i)[\(\[]\s*(correct|answer|right|true|ans)\s*[\)\]]`),
	regexp.MustCompile(`(?i)\b(correct|answer|right|true|ans)\s*$`),
}

var emphasisPattern = regexp.MustCompile(`(?i)<\s*(strong|b|em|i)\b`)

// IsQuestionStart reports whether text opens a new question. Short blocks
// that read like lettered or numbered options are excluded so an MCQ
// option is never promoted to a question.
func IsQuestionStart(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if looksLikeOption(t) {
		return false
	}
	for _, p := range questionStartPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	if lenientQuestionPattern.MatchString(t) && wordCount(t) >= 3 {
		return true
	}
	return false
}

// QuestionNumber returns the leading question number of text, or 0 when
// the text does not open with a numbered marker.
func QuestionNumber(text string) int {
	t := strings.TrimSpace(text)
	m := leadingNumber.FindStringSubmatch(t)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

var (
	letterOptionMarker = regexp.MustCompile(`^\s*[a-dA-D][\.\)\,\:\-\s]`)
	digitOptionMarker  = regexp.MustCompile(`^\s*[1-4][\.\)\,\:\-\s]`)
	leadingNumber      = regexp.MustCompile(`(?i)^(?:q\.?\s*|question\s*\.?\s*|no\.?\s*|\()?\s*(\d+)`)
)

// looksLikeOption is the exclusion check applied before question
// detection: a short block opening with a single option letter or digit
// followed by content, or carrying option vocabulary, is an option no
// matter what else matches. A bare marker with nothing after it stays a
// question start.
func looksLikeOption(text string) bool {
	if wordCount(text) > 5 {
		return false
	}
	for _, p := range []*regexp.Regexp{letterOptionMarker, digitOptionMarker} {
		if loc := p.FindStringIndex(text); loc != nil && loc[0] == 0 {
			if strings.TrimSpace(text[loc[1]:]) != "" {
				return true
			}
		}
	}
	return optionVocabPattern.MatchString(text)
}

// IsOptionStart reports whether text opens an MCQ option. A bare marker
// with nothing after it is not an option; numbered lists with empty
// bodies are question markers, not choices. Digit markers only count as
// options on short blocks, since a long numbered sentence is a question.
func IsOptionStart(text string) bool {
	t := strings.TrimSpace(text)
	for _, p := range optionStartPatterns {
		if loc := p.FindStringIndex(t); loc != nil && loc[0] == 0 {
			if strings.TrimSpace(t[loc[1]:]) == "" {
				continue
			}
			if p == digitOptionStart && wordCount(t) > 5 {
				continue
			}
			return true
		}
	}
	return false
}

// OptionBody returns the option text with its leading marker removed.
func OptionBody(text string) string {
	t := strings.TrimSpace(text)
	for _, p := range optionStartPatterns {
		if loc := p.FindStringIndex(t); loc != nil && loc[0] == 0 {
			return strings.TrimSpace(t[loc[1]:])
		}
	}
	return t
}

// IsSubQuestionStart reports whether text opens a theory sub-question.
func IsSubQuestionStart(text string) bool {
	t := strings.TrimSpace(text)
	for _, p := range subQuestionPatterns {
		if loc := p.FindStringIndex(t); loc != nil && loc[0] == 0 {
			if strings.TrimSpace(t[loc[1]:]) != "" {
				return true
			}
		}
	}
	return false
}

// SubQuestionParts splits a sub-question block into its marker label and
// body text.
func SubQuestionParts(text string) (number, body string) {
	t := strings.TrimSpace(text)
	for _, p := range subQuestionPatterns {
		if loc := p.FindStringIndex(t); loc != nil && loc[0] == 0 {
			marker := strings.TrimSpace(t[:loc[1]])
			marker = strings.Trim(marker, ".)(")
			return strings.TrimSpace(marker), strings.TrimSpace(t[loc[1]:])
		}
	}
	return "", t
}

// MatchInstruction recognizes formal instruction headers. The returned
// block has no ID or Order; the caller assigns both.
func MatchInstruction(text string) (InstructionBlock, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return InstructionBlock{}, false
	}

	if m := rangePattern.FindStringSubmatch(t); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > 0 && end >= start {
			return InstructionBlock{
				Type:            InstructionRange,
				Title:           t,
				InstructionText: t,
				FullText:        t,
				AppliesTo:       AppliesRange,
				StartQuestion:   start,
				EndQuestion:     end,
			}, true
		}
	}
	if instructionHeaderPattern.MatchString(t) {
		body := strings.TrimSpace(instructionHeaderPattern.ReplaceAllString(t, ""))
		return InstructionBlock{
			Type:            InstructionGeneral,
			Title:           "Instructions",
			InstructionText: body,
			FullText:        t,
			AppliesTo:       AppliesFollowing,
		}, true
	}
	if m := sectionPattern.FindStringSubmatch(t); m != nil {
		return InstructionBlock{
			Type:            InstructionSection,
			Title:           "Section " + strings.ToUpper(m[1]),
			InstructionText: strings.TrimSpace(m[2]),
			FullText:        t,
			AppliesTo:       AppliesFollowing,
			Identifier:      strings.ToUpper(m[1]),
		}, true
	}
	if m := partPattern.FindStringSubmatch(t); m != nil {
		return InstructionBlock{
			Type:            InstructionSection,
			Title:           "Part " + strings.ToUpper(m[1]),
			InstructionText: strings.TrimSpace(m[2]),
			FullText:        t,
			AppliesTo:       AppliesFollowing,
			Identifier:      strings.ToUpper(m[1]),
		}, true
	}
	if m := componentPattern.FindStringSubmatch(t); m != nil {
		return InstructionBlock{
			Type:            InstructionComponent,
			Title:           "Component " + m[1],
			InstructionText: strings.TrimSpace(m[2]),
			FullText:        t,
			AppliesTo:       AppliesFollowing,
			Component:       m[1],
		}, true
	}
	if m := subjectComponentPattern.FindStringSubmatch(t); m != nil {
		name := strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))
		return InstructionBlock{
			Type:            InstructionSubjectComponent,
			Title:           name,
			InstructionText: strings.TrimSpace(m[2]),
			FullText:        t,
			AppliesTo:       AppliesFollowing,
			Component:       name,
		}, true
	}
	if allCapsHeaderPattern.MatchString(t) && !IsQuestionStart(t) {
		parts := strings.SplitN(t, ":", 2)
		body := ""
		if len(parts) == 2 {
			body = strings.TrimSpace(parts[1])
		}
		return InstructionBlock{
			Type:            InstructionGeneral,
			Title:           strings.TrimSpace(parts[0]),
			InstructionText: body,
			FullText:        t,
			AppliesTo:       AppliesFollowing,
		}, true
	}
	return InstructionBlock{}, false
}

// IsStandaloneInstruction recognizes instructional prose that lacks a
// formal header. The line parser only consults it while no question is
// open.
func IsStandaloneInstruction(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || wordCount(t) <= 3 {
		return false
	}
	if IsQuestionStart(t) || IsOptionStart(t) {
		return false
	}
	if !instructionVocabPattern.MatchString(t) {
		return false
	}
	return strings.HasSuffix(t, ".") || strings.HasSuffix(t, ":") ||
		strings.Contains(strings.ToLower(t), "following")
}

// ExtractMarks pulls a mark value out of block text. Annotated forms are
// tried in order and accepted in [1,100]; failing those, a standalone
// integer token in [1,20] is taken; the default is 1.
func ExtractMarks(text string) int {
	for _, p := range marksPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 100 {
				return n
			}
		}
	}
	for _, f := range strings.Fields(text) {
		if n, err := strconv.Atoi(f); err == nil && n >= 1 && n <= 20 {
			return n
		}
	}
	return 1
}

// hasMarksAnnotation reports whether an explicit mark annotation is
// present, without the standalone-integer fallback ExtractMarks applies.
func hasMarksAnnotation(text string) bool {
	for _, p := range marksPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 100 {
				return true
			}
		}
	}
	return false
}

// HasCorrectMarker reports whether raw option content flags the correct
// answer. It must run before marker stripping; the stripped text no
// longer carries the tokens being tested. Emphasis markup or a mostly
// upper-case option also counts as a flag.
func HasCorrectMarker(text, html string) bool {
	t := strings.TrimSpace(text)
	for _, p := range correctTokenPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	if html != "" && emphasisPattern.MatchString(html) {
		return true
	}
	words := strings.Fields(t)
	if len(words) == 0 {
		return false
	}
	caps := 0
	for _, w := range words {
		if len(w) > 1 && w == strings.ToUpper(w) && strings.ContainsFunc(w, unicode.IsLetter) {
			caps++
		}
	}
	return caps*2 > len(words)
}

// RemoveCorrectMarkers strips correct-answer tokens from option text.
func RemoveCorrectMarkers(text string) string {
	t := text
	for _, p := range correctTokenPatterns {
		t = p.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(t)
}

// RemoveMarks strips mark annotations from question text.
func RemoveMarks(text string) string {
	t := text
	for _, p := range marksStripPatterns {
		t = p.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(t)
}

// CleanQuestionText strips the leading question marker and any mark
// annotation from a question-start block.
func CleanQuestionText(text string) string {
	t := strings.TrimSpace(text)
	for _, p := range questionStartPatterns {
		if loc := p.FindStringIndex(t); loc != nil && loc[0] == 0 {
			t = t[loc[1]:]
			break
		}
	}
	return RemoveMarks(strings.TrimSpace(t))
}

// CleanOptionText strips the option marker and correct-answer tokens.
func CleanOptionText(text string) string {
	return RemoveCorrectMarkers(OptionBody(text))
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
