package parse

import (
	"fmt"
	"log/slog"

	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

// Combine joins drafts with their decoded answers into the export IR,
// preserving original document order. A draft with no answer record is kept
// with a nil Answer and a warning; the backends grade it by their defaulting
// policy.
func Combine(drafts []quiz.QuestionDraft, records map[int]*quiz.AnswerRecord, log *slog.Logger) ([]quiz.QuestionAnswer, []string) {
	if log == nil {
		log = slog.Default()
	}
	out := make([]quiz.QuestionAnswer, 0, len(drafts))
	var warnings []string
	for _, d := range drafts {
		if d.Number <= 0 {
			// unreachable given the structural parser's finalize discipline
			log.Warn("dropping draft without a number", "stem", snippet(d.Stem))
			continue
		}
		qa := quiz.QuestionAnswer{Draft: d}
		if rec, ok := records[d.Number]; ok {
			qa.Answer = rec
		} else {
			msg := fmt.Sprintf("question %d has no usable answer-key entry", d.Number)
			warnings = append(warnings, msg)
			log.Warn(msg)
		}
		out = append(out, qa)
	}
	return out, warnings
}
