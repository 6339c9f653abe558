package parse

import (
	"regexp"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

var blankRunRe = regexp.MustCompile(`_{3,}`)

// Infer classifies a question from its stem and (when known) its options.
// It runs twice per question: once when the draft starts with options still
// unknown, and again at finalize; the later result wins. Precedence is fixed,
// first match wins.
func Infer(stem string, options []quiz.Option) quiz.QuestionType {
	s := strings.ToLower(stem)
	switch {
	case strings.Contains(s, "true") && strings.Contains(s, "false"):
		return quiz.TypeTrueFalse
	case strings.Contains(s, "matching") || strings.HasPrefix(strings.TrimSpace(s), "match"):
		return quiz.TypeMatching
	case strings.Contains(s, "ordering") || strings.Contains(s, "order") || strings.Contains(s, "sequence"):
		return quiz.TypeOrdering
	case blankRunRe.MatchString(stem):
		return quiz.TypeFIBText
	}
	if isTrueFalseLetters(options) {
		return quiz.TypeTrueFalse
	}
	if len(options) >= 2 {
		return quiz.TypeMCQSingle
	}
	return quiz.TypeShortWord
}

// isTrueFalseLetters reports whether the option letter set is exactly {T, F}.
func isTrueFalseLetters(options []quiz.Option) bool {
	if len(options) != 2 {
		return false
	}
	var t, f bool
	for _, o := range options {
		switch strings.ToUpper(o.Letter) {
		case "T":
			t = true
		case "F":
			f = true
		default:
			return false
		}
	}
	return t && f
}
