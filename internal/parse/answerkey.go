package parse

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

var (
	keyPrefixRe = regexp.MustCompile(`(?i)^\s*(answer|key)\s*:\s*`)
	keyLineRe   = regexp.MustCompile(`^(\d+)\s*[.)\:\-]\s*(\S.*)$`)
	letterRe    = regexp.MustCompile(`\b([A-Za-z])\b`)
	pairRe      = regexp.MustCompile(`^(.+?)\s*[=\-]\s*(.+)$`)
)

// KeyResult is one answer-key parse: a decoded record per question number
// plus the non-fatal rejections seen along the way.
type KeyResult struct {
	Records  map[int]*quiz.AnswerRecord
	Warnings []string
}

// ParseKey decodes the answer-key tail. The type map produced by the
// structural pass selects the decoder per question number; the key itself
// never changes a question's type. Rejected lines are skipped, never fatal,
// and the last line for a number wins.
func ParseKey(tail []blocks.Block, types map[int]quiz.QuestionType, log *slog.Logger) *KeyResult {
	if log == nil {
		log = slog.Default()
	}
	res := &KeyResult{Records: map[int]*quiz.AnswerRecord{}}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.Warnings = append(res.Warnings, msg)
		log.Warn(msg)
	}

	for _, b := range tail {
		line := keyPrefixRe.ReplaceAllString(b.Text, "")
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		m := keyLineRe.FindStringSubmatch(line)
		if m == nil {
			warn("answer line %q: no question number with separator", snippet(line))
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			warn("answer line %q: %v", snippet(line), err)
			continue
		}
		qt, ok := types[num]
		if !ok {
			warn("answer line for unknown question %d skipped", num)
			continue
		}
		rec, err := decodePayload(qt, m[2])
		if err != nil {
			warn("answer for question %d: %v", num, err)
			continue
		}
		if _, dup := res.Records[num]; dup {
			warn("duplicate answer line for question %d, keeping the later one", num)
		}
		res.Records[num] = rec
	}
	return res
}

// decodePayload turns the raw payload after the number token into the
// AnswerRecord variant for the question's type.
func decodePayload(qt quiz.QuestionType, payload string) (*quiz.AnswerRecord, error) {
	payload = strings.TrimSpace(payload)
	switch qt {
	case quiz.TypeMCQSingle, quiz.TypeTrueFalse:
		if qt == quiz.TypeTrueFalse {
			if l, ok := trueFalseWord(payload); ok {
				return &quiz.AnswerRecord{Kind: qt, Letter: l}, nil
			}
		}
		m := letterRe.FindStringSubmatch(payload)
		if m == nil {
			return nil, fmt.Errorf("no option letter in %q", payload)
		}
		return &quiz.AnswerRecord{Kind: qt, Letter: strings.ToUpper(m[1])}, nil

	case quiz.TypeMCQMulti:
		seen := map[string]bool{}
		var letters []string
		for _, m := range letterRe.FindAllStringSubmatch(payload, -1) {
			l := strings.ToUpper(m[1])
			if !seen[l] {
				seen[l] = true
				letters = append(letters, l)
			}
		}
		if len(letters) == 0 {
			return nil, fmt.Errorf("no option letters in %q", payload)
		}
		sort.Strings(letters)
		return &quiz.AnswerRecord{Kind: qt, Letters: letters}, nil

	case quiz.TypeFIBText, quiz.TypeShortWord, quiz.TypeEssay:
		texts := splitList(payload)
		if len(texts) == 0 {
			return nil, fmt.Errorf("no accepted answers in %q", payload)
		}
		return &quiz.AnswerRecord{Kind: qt, Texts: texts}, nil

	case quiz.TypeFIBNumeric:
		v, ok := parseFloatLoose(payload)
		if !ok {
			return nil, fmt.Errorf("%q is not numeric", payload)
		}
		return &quiz.AnswerRecord{Kind: qt, Number: v}, nil

	case quiz.TypeMatching:
		var pairs []quiz.MatchPair
		for _, tok := range splitList(payload) {
			pm := pairRe.FindStringSubmatch(tok)
			if pm == nil {
				// malformed pairs are dropped individually
				continue
			}
			pairs = append(pairs, quiz.MatchPair{
				Premise:  strings.TrimSpace(pm[1]),
				Response: strings.TrimSpace(pm[2]),
			})
		}
		if len(pairs) == 0 {
			return nil, fmt.Errorf("no premise=response pairs in %q", payload)
		}
		return &quiz.AnswerRecord{Kind: qt, Pairs: pairs}, nil

	case quiz.TypeOrdering:
		var seq []string
		if strings.ContainsAny(payload, ",;") {
			seq = splitList(payload)
		} else {
			seq = strings.Fields(payload)
		}
		if len(seq) == 0 {
			return nil, fmt.Errorf("empty sequence in %q", payload)
		}
		return &quiz.AnswerRecord{Kind: qt, Sequence: seq}, nil
	}
	return nil, fmt.Errorf("no decoder for type %s", qt)
}

// trueFalseWord maps a spelled-out leading "true"/"false" to its letter.
func trueFalseWord(payload string) (string, bool) {
	fields := strings.Fields(strings.ToLower(payload))
	if len(fields) == 0 {
		return "", false
	}
	switch strings.TrimRight(fields[0], ".,;") {
	case "true":
		return "T", true
	case "false":
		return "F", true
	}
	return "", false
}

// splitList splits on comma/semicolon, trims, and drops empties.
func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseFloatLoose accepts a bare float or one with trailing junk after a
// space ("42 units").
func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
