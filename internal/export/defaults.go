package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

// Shared availability-over-correctness policy: backends call these so an
// incomplete question still yields a structurally valid, gradable item.

// EnsureOptions pads the option list to at least two entries, synthesizing
// letters and placeholder text where missing. Used for choice-shaped items.
func EnsureOptions(opts []quiz.Option) []quiz.Option {
	out := make([]quiz.Option, len(opts))
	copy(out, opts)
	for i := range out {
		if strings.TrimSpace(out[i].Letter) == "" {
			out[i].Letter = string(rune('A' + i))
		}
		if strings.TrimSpace(out[i].Text) == "" {
			out[i].Text = "Option " + out[i].Letter
		}
	}
	for len(out) < 2 {
		letter := string(rune('A' + len(out)))
		out = append(out, quiz.Option{Letter: letter, Text: "Option " + letter})
	}
	return out
}

// EnsureStem substitutes placeholder text for an empty stem.
func EnsureStem(qa quiz.QuestionAnswer) string {
	if s := strings.TrimSpace(qa.Draft.Stem); s != "" {
		return s
	}
	return fmt.Sprintf("Question %d", qa.Draft.Number)
}

// CorrectLetters resolves the correct option letters for a choice item,
// defaulting to the first option when the answer record is missing or empty.
func CorrectLetters(qa quiz.QuestionAnswer, opts []quiz.Option) []string {
	if a := qa.Answer; a != nil {
		switch a.Kind {
		case quiz.TypeMCQSingle, quiz.TypeTrueFalse:
			if a.Letter != "" {
				return []string{strings.ToUpper(a.Letter)}
			}
		case quiz.TypeMCQMulti:
			if len(a.Letters) > 0 {
				out := make([]string, len(a.Letters))
				for i, l := range a.Letters {
					out[i] = strings.ToUpper(l)
				}
				sort.Strings(out)
				return out
			}
		}
	}
	if len(opts) > 0 {
		return []string{strings.ToUpper(opts[0].Letter)}
	}
	return []string{"A"}
}

// OrderingSequence resolves the graded token order for an ordering item.
// Key tokens that name an option letter are canonicalized to the letter's
// uppercase spelling so they match the emitted choice identifiers; a missing
// or empty answer falls back to document order.
func OrderingSequence(qa quiz.QuestionAnswer, opts []quiz.Option) []string {
	var seq []string
	if qa.Answer != nil {
		seq = qa.Answer.Sequence
	}
	if len(seq) == 0 {
		out := make([]string, len(opts))
		for i, o := range opts {
			out[i] = strings.ToUpper(o.Letter)
		}
		return out
	}
	out := make([]string, len(seq))
	for i, tok := range seq {
		out[i] = tok
		for _, o := range opts {
			if strings.EqualFold(tok, o.Letter) {
				out[i] = strings.ToUpper(o.Letter)
				break
			}
		}
	}
	return out
}

// AcceptedTexts resolves accepted free-text answers, empty when ungraded.
func AcceptedTexts(qa quiz.QuestionAnswer) []string {
	if qa.Answer != nil && len(qa.Answer.Texts) > 0 {
		return qa.Answer.Texts
	}
	return nil
}
