// Package parse recovers typed questions from the loosely structured block
// stream: structural parsing, type inference, answer-key decoding, and the
// final combine into the export IR.
package parse

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

// ErrNoQuestions is returned when the whole document yields no finalized
// question, which makes the run unconvertible.
var ErrNoQuestions = errors.New("doc2lms: no questions found in document")

var (
	answerKeyRe = regexp.MustCompile(`(?i)^\s*(answer\s*key|answers|key)\s*:?\s*$`)
	questionRe  = regexp.MustCompile(`^\s*(\d+)[.)\-]\s+(.*)$`)
	optionRe    = regexp.MustCompile(`^\s*\(?([A-Za-z])[.)\:\-]\s+(\S.*)$`)
)

// StructureResult is everything the structural pass produces: the finalized
// drafts in document order, the image registry, the final type map, the index
// of the answer-key boundary block (-1 when absent), and the blocks after it.
type StructureResult struct {
	Drafts   []quiz.QuestionDraft
	Images   *quiz.ImageRegistry
	Types    map[int]quiz.QuestionType
	Boundary int
	Tail     []blocks.Block
	Warnings []string
}

// blockRule is one entry of the ordered recognizer table. Rules are tried in
// order per block; the first rule whose when/match admits the block handles
// it.
type blockRule struct {
	name  string
	when  func(p *structParser) bool
	match func(text string) []string
	apply func(p *structParser, m []string)
}

func always(*structParser) bool     { return true }
func hasDraft(p *structParser) bool { return p.cur != nil }
func matchAll(text string) []string { return []string{text} }

func reMatch(re *regexp.Regexp) func(string) []string {
	return func(text string) []string { return re.FindStringSubmatch(text) }
}

// blockRules is the recognizer table: answer-key boundary, question marker,
// option marker, stem continuation, unanchored preamble. Order is the
// tie-break.
var blockRules = []blockRule{
	{
		name:  "answer-key",
		when:  always,
		match: reMatch(answerKeyRe),
		apply: func(p *structParser, _ []string) { p.boundary = p.idx; p.done = true },
	},
	{
		name:  "question",
		when:  always,
		match: reMatch(questionRe),
		apply: func(p *structParser, m []string) {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				p.warnf("question marker %q: %v", m[1], err)
				return
			}
			p.startDraft(num, m[2])
		},
	},
	{
		name:  "option",
		when:  hasDraft,
		match: reMatch(optionRe),
		apply: func(p *structParser, m []string) {
			p.cur.Options = append(p.cur.Options, quiz.Option{
				Letter: strings.ToUpper(m[1]),
				Text:   strings.TrimSpace(m[2]),
			})
		},
	},
	{
		name:  "continuation",
		when:  hasDraft,
		match: matchAll,
		apply: func(p *structParser, m []string) { p.continueStem(m[0]) },
	},
	{
		name:  "preamble",
		when:  always,
		match: matchAll,
		apply: func(p *structParser, m []string) {
			p.log.Debug("dropping unanchored block", "text", snippet(m[0]))
		},
	},
}

type structParser struct {
	log      *slog.Logger
	images   *quiz.ImageRegistry
	drafts   []quiz.QuestionDraft
	types    map[int]quiz.QuestionType
	seen     map[int]bool
	cur      *quiz.QuestionDraft
	idx      int
	boundary int
	done     bool
	warnings []string
}

// Structure runs the recognizer table over the block stream. It fails only
// when no question is ever finalized.
func Structure(stream []blocks.Block, log *slog.Logger) (*StructureResult, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &structParser{
		log:      log,
		images:   quiz.NewImageRegistry(),
		types:    map[int]quiz.QuestionType{},
		seen:     map[int]bool{},
		boundary: -1,
	}

	for i, b := range stream {
		p.idx = i
		text := p.spliceImages(b)
		for _, r := range blockRules {
			if !r.when(p) {
				continue
			}
			m := r.match(text)
			if m == nil {
				continue
			}
			r.apply(p, m)
			break
		}
		if p.done {
			p.finalize()
			if i+1 < len(stream) {
				return p.result(stream[i+1:])
			}
			break
		}
	}
	p.finalize()
	return p.result(nil)
}

func (p *structParser) result(tail []blocks.Block) (*StructureResult, error) {
	if len(p.drafts) == 0 {
		return nil, ErrNoQuestions
	}
	return &StructureResult{
		Drafts:   p.drafts,
		Images:   p.images,
		Types:    p.types,
		Boundary: p.boundary,
		Tail:     tail,
		Warnings: p.warnings,
	}, nil
}

// spliceImages registers every inline image of the block and splices its
// placeholder token into the text at the image's original offset, preserving
// surrounding text order.
func (p *structParser) spliceImages(b blocks.Block) string {
	if len(b.Images) == 0 {
		return b.Text
	}
	text := b.Text
	// back to front so earlier offsets stay valid
	for i := len(b.Images) - 1; i >= 0; i-- {
		img := b.Images[i]
		tok := p.images.Register(img.Bytes, img.Width, img.Height, img.MIMEType)
		off := img.Offset
		if off < 0 || off > len(text) {
			off = len(text)
		}
		text = text[:off] + " " + tok + " " + text[off:]
	}
	return strings.TrimSpace(text)
}

func (p *structParser) startDraft(num int, stem string) {
	p.finalize()
	if p.seen[num] {
		p.warnf("duplicate question number %d, keeping later occurrence", num)
	}
	stem = strings.TrimSpace(stem)
	d := &quiz.QuestionDraft{Number: num, Stem: stem}
	// first inference pass, stem only; finalize runs the second
	d.Type = Infer(stem, nil)
	p.cur = d
}

func (p *structParser) continueStem(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	stem := p.cur.Stem
	if stem == "" || hasTrailingSpace(stem) || opensWithClosingPunct(text) {
		p.cur.Stem = stem + text
		return
	}
	p.cur.Stem = stem + " " + text
}

// finalize pushes the current draft, re-running inference now that its
// options are fully known. The draft is immutable from here on.
func (p *structParser) finalize() {
	if p.cur == nil {
		return
	}
	d := *p.cur
	p.cur = nil
	d.Type = Infer(d.Stem, d.Options)
	d.HasImages = strings.Contains(d.Stem, "[[image:")
	if !d.HasImages {
		for _, o := range d.Options {
			if strings.Contains(o.Text, "[[image:") {
				d.HasImages = true
				break
			}
		}
	}
	if p.seen[d.Number] {
		// replace the earlier draft with the same number
		for i := range p.drafts {
			if p.drafts[i].Number == d.Number {
				p.drafts[i] = d
				break
			}
		}
	} else {
		p.seen[d.Number] = true
		p.drafts = append(p.drafts, d)
	}
	p.types[d.Number] = d.Type
}

func (p *structParser) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.warnings = append(p.warnings, msg)
	p.log.Warn(msg)
}

func hasTrailingSpace(s string) bool {
	return s != "" && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t')
}

func opensWithClosingPunct(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '.', ',', ';', ':', ')', ']', '}', '?', '!':
		return true
	}
	return false
}

func snippet(s string) string {
	if len(s) > 60 {
		return s[:60] + "…"
	}
	return s
}
