package qa

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMaxAnswerChars = 2600
	TruncationMarker      = "\n\n(…đã rút gọn)"

	maxSentenceSteps = 8
	maxFormulaChars  = 160

	defaultTitle = "Thông tin"
	emptyAnswer  = "(Chưa có nội dung trả lời.)"

	headingTitle    = "Tiêu đề: "
	headingSteps    = "Các bước:"
	headingBody     = "Nội dung:"
	headingFormulas = "Công thức/Ký hiệu:"
	headingExamples = "Ví dụ minh hoạ:"
)

var (
	stepLinePattern   = regexp.MustCompile(`(?i)^(?:b\d+\)|b\d+\.|\d+\)|\d+\.|-\s|•\s|\*\s)`)
	stepMarkerPattern = regexp.MustCompile(`(?i)^(?:b\d+\)|b\d+\.|\d+\)|\d+\.|-\s*|•\s*|\*\s*)`)
	formulaPattern    = regexp.MustCompile(`[=<>±×÷∑√π]`)
	examplePattern    = regexp.MustCompile(`(?i)^\s*(?:ví dụ|vd\s*:|vd\s)`)
)

// Sections is the structure recovered from a free-text answer.
type Sections struct {
	Steps    []string
	Body     []string
	Formulas []string
	Examples []string
}

// Structure classifies the lines of raw. Step classification is checked
// first: a line carrying a step marker is never also a formula or example
// line. Formula and example classification are independent of each other.
func Structure(raw string) Sections {
	raw = cleanRaw(raw)
	if raw == "" {
		return Sections{}
	}

	var (
		sec       Sections
		stepLines []string
	)
	for _, line := range splitLines(raw) {
		if stepLinePattern.MatchString(line) {
			stepLines = append(stepLines, line)
			continue
		}
		classified := false
		if formulaPattern.MatchString(line) && utf8.RuneCountInString(line) <= maxFormulaChars {
			sec.Formulas = append(sec.Formulas, line)
			classified = true
		}
		if examplePattern.MatchString(line) {
			sec.Examples = append(sec.Examples, line)
			classified = true
		}
		if !classified {
			sec.Body = append(sec.Body, line)
		}
	}

	if len(stepLines) >= 2 {
		sec.Steps = stripMarkers(stepLines)
	} else if sentences := stripMarkers(splitSentences(raw)); len(sentences) >= 2 {
		if len(sentences) > maxSentenceSteps {
			sentences = sentences[:maxSentenceSteps]
		}
		sec.Steps = sentences
	}
	if len(sec.Steps) < 2 {
		sec.Steps = nil
	}
	return sec
}

// FormatAnswer renders a matched answer as Title, Steps, Body, Formulas and
// Examples, omitting empty sections other than Title, and bounds the result
// to maxChars characters.
func FormatAnswer(question, group, raw string, maxChars int) string {
	title := strings.TrimSpace(group)
	if title == "" {
		title = strings.TrimSpace(question)
	}
	if title == "" {
		title = defaultTitle
	}

	raw = cleanRaw(raw)
	if raw == "" {
		return headingTitle + title + "\n\n" + headingBody + "\n" + emptyAnswer
	}

	sec := Structure(raw)

	var b strings.Builder
	b.WriteString(headingTitle + title + "\n\n")

	if len(sec.Steps) > 0 {
		b.WriteString(headingSteps + "\n")
		for i, s := range sec.Steps {
			b.WriteString(strconv.Itoa(i+1) + ") " + s + "\n")
		}
		b.WriteString("\n")
	}

	switch {
	case len(sec.Body) > 0:
		b.WriteString(headingBody + "\n" + strings.Join(sec.Body, "\n") + "\n\n")
	case len(sec.Steps) == 0:
		b.WriteString(headingBody + "\n" + raw + "\n\n")
	}

	if len(sec.Formulas) > 0 {
		b.WriteString(headingFormulas + "\n" + bulleted(sec.Formulas) + "\n\n")
	}
	if len(sec.Examples) > 0 {
		b.WriteString(headingExamples + "\n" + bulleted(sec.Examples) + "\n")
	}

	return Truncate(strings.TrimSpace(b.String()), maxChars, TruncationMarker)
}

// Truncate bounds s to maxChars characters including marker. Strings that
// already fit are returned unchanged. A budget too small to hold the marker
// plus one character is cut without it.
func Truncate(s string, maxChars int, marker string) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxAnswerChars
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	keep := maxChars - utf8.RuneCountInString(marker)
	if keep < 1 {
		return string(runes[:maxChars])
	}
	return strings.TrimRightFunc(string(runes[:keep]), unicode.IsSpace) + marker
}

func cleanRaw(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\x00", ""))
}

func splitLines(raw string) []string {
	parts := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// splitSentences breaks text after terminal punctuation followed by
// whitespace. The punctuation stays with its sentence.
func splitSentences(raw string) []string {
	text := strings.Join(strings.Fields(raw), " ")
	runes := []rune(text)

	var (
		out   []string
		start int
	)
	for i, r := range runes {
		if !isTerminal(r) {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。':
		return true
	}
	return false
}

func stripMarkers(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := strings.TrimSpace(stepMarkerPattern.ReplaceAllString(l, "")); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func bulleted(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "- " + l
	}
	return strings.Join(out, "\n")
}
