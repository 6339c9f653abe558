package parse

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/OPS-PIvers/Doc2LMS/internal/blocks"
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

func lines(ss ...string) []blocks.Block { return blocks.FromLines(ss) }

func TestStructureBasicQuiz(t *testing.T) {
	st, err := Structure(lines(
		"1. What is 2+2?",
		"A. 3",
		"B. 4",
		"Answer Key",
		"1. B",
	), nil)
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if len(st.Drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(st.Drafts))
	}
	d := st.Drafts[0]
	if d.Number != 1 || d.Stem != "What is 2+2?" {
		t.Errorf("draft = %+v", d)
	}
	if len(d.Options) != 2 || d.Options[0].Letter != "A" || d.Options[1].Letter != "B" {
		t.Errorf("options = %+v", d.Options)
	}
	if d.Type != quiz.TypeMCQSingle {
		t.Errorf("type = %s, want %s", d.Type, quiz.TypeMCQSingle)
	}
	if st.Boundary != 3 {
		t.Errorf("boundary = %d, want 3", st.Boundary)
	}
	if len(st.Tail) != 1 || st.Tail[0].Text != "1. B" {
		t.Errorf("tail = %+v", st.Tail)
	}
}

func TestStructureDraftCountMatchesMarkers(t *testing.T) {
	st, err := Structure(lines(
		"Course intro preamble, dropped.",
		"1. First question?",
		"continuation of the first stem",
		"2) Second question?",
		"(A) yes",
		"(B) no",
		"3- Third question ___ fill it.",
		"Answers:",
		"1. something",
	), nil)
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if len(st.Drafts) != 3 {
		t.Fatalf("drafts = %d, want 3 (one per leading-integer marker)", len(st.Drafts))
	}
	if st.Drafts[0].Stem != "First question? continuation of the first stem" {
		t.Errorf("stem continuation: %q", st.Drafts[0].Stem)
	}
	if st.Drafts[2].Type != quiz.TypeFIBText {
		t.Errorf("blank-run type = %s", st.Drafts[2].Type)
	}
}

func TestStructureIsDeterministic(t *testing.T) {
	in := []string{
		"1. Pick one.",
		"A. first",
		"B. second",
		"C. third",
		"2. The sky is ___ today.",
		"Answer Key",
	}
	a, err := Structure(lines(in...), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Structure(lines(in...), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Drafts, b.Drafts) {
		t.Errorf("re-run drafts differ:\n%+v\n%+v", a.Drafts, b.Drafts)
	}
	if !reflect.DeepEqual(a.Types, b.Types) {
		t.Errorf("re-run types differ")
	}
}

func TestStructureNoQuestionsIsFatal(t *testing.T) {
	_, err := Structure(lines(
		"Just some prose with no markers.",
		"More prose.",
	), nil)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestStructureOptionLettersBeyondFour(t *testing.T) {
	st, err := Structure(lines(
		"1. Pick a letter.",
		"A. a", "B. b", "C. c", "D. d", "E. e", "F. f", "G. g",
	), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(st.Drafts[0].Options); got != 7 {
		t.Errorf("options = %d, want 7", got)
	}
}

func TestStructureZeroOptionsIsValid(t *testing.T) {
	st, err := Structure(lines("1. Explain photosynthesis."), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Drafts[0].Options) != 0 {
		t.Errorf("options = %+v, want none", st.Drafts[0].Options)
	}
	if st.Drafts[0].Type != quiz.TypeShortWord {
		t.Errorf("type = %s, want %s", st.Drafts[0].Type, quiz.TypeShortWord)
	}
	if st.Boundary != -1 {
		t.Errorf("boundary = %d, want -1", st.Boundary)
	}
}

func TestStructureContinuationPunctuation(t *testing.T) {
	st, err := Structure(lines(
		"1. What is the capital of France",
		"?",
	), nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.Drafts[0].Stem != "What is the capital of France?" {
		t.Errorf("stem = %q", st.Drafts[0].Stem)
	}
}

func TestStructureSplicesImagePlaceholders(t *testing.T) {
	stream := []blocks.Block{
		{Text: "1. Identify the shape:", Images: []blocks.Image{
			{Bytes: []byte{1, 2, 3}, Width: 100, Height: 80, MIMEType: "image/png", Offset: 22},
		}},
		{Text: "A. circle"},
		{Text: "B. square"},
	}
	st, err := Structure(stream, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.Images.Len() != 1 {
		t.Fatalf("registry has %d images, want 1", st.Images.Len())
	}
	d := st.Drafts[0]
	if !d.HasImages {
		t.Error("HasImages = false")
	}
	im := st.Images.All()[0]
	if want := quiz.Placeholder(im.ID); !strings.Contains(d.Stem, want) {
		t.Errorf("stem %q missing placeholder %q", d.Stem, want)
	}
}
