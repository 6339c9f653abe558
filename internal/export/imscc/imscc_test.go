package imscc

import (
	"strings"
	"testing"

	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

func mcq(number int, letter string) quiz.QuestionAnswer {
	return quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{
			Number: number,
			Stem:   "What is 2+2?",
			Type:   quiz.TypeMCQSingle,
			Options: []quiz.Option{
				{Letter: "A", Text: "3"},
				{Letter: "B", Text: "4"},
			},
		},
		Answer: &quiz.AnswerRecord{Kind: quiz.TypeMCQSingle, Letter: letter},
	}
}

func generate(t *testing.T, b *Backend, items ...quiz.QuestionAnswer) string {
	t.Helper()
	res, err := b.Generate(items, quiz.NewImageRegistry(), "Test Quiz")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items = %d", len(res.Items))
	}
	return string(res.Items[0].Data)
}

func TestSingleChoiceConditionBindsCorrectLetter(t *testing.T) {
	doc := generate(t, &Backend{}, mcq(1, "B"))
	if !strings.Contains(doc, `<varequal respident="response1">B</varequal>`) {
		t.Errorf("no true-scoring branch for B:\n%s", doc)
	}
	if strings.Contains(doc, `<varequal respident="response1">A</varequal>`) {
		t.Errorf("scoring branch also binds A:\n%s", doc)
	}
	if !strings.Contains(doc, `<item ident="item1">`) {
		t.Errorf("missing item identifier")
	}
}

func TestMissingAnswerDefaultsToFirstOption(t *testing.T) {
	qa := mcq(1, "")
	qa.Answer = nil
	doc := generate(t, &Backend{}, qa)
	if !strings.Contains(doc, `<varequal respident="response1">A</varequal>`) {
		t.Errorf("ungraded item should default to the first option:\n%s", doc)
	}
}

func TestPadsToTwoOptions(t *testing.T) {
	qa := quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{Number: 3, Stem: "", Type: quiz.TypeMCQSingle},
	}
	doc := generate(t, &Backend{}, qa)
	if !strings.Contains(doc, `<response_label ident="A">`) ||
		!strings.Contains(doc, `<response_label ident="B">`) {
		t.Errorf("options not padded:\n%s", doc)
	}
	if !strings.Contains(doc, "Question 3") {
		t.Errorf("empty stem not synthesized:\n%s", doc)
	}
}

func TestMultiSelectConditionNegatesWrongLetters(t *testing.T) {
	qa := quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{
			Number: 1, Stem: "Pick all primes.", Type: quiz.TypeMCQMulti,
			Options: []quiz.Option{
				{Letter: "A", Text: "2"}, {Letter: "B", Text: "4"}, {Letter: "C", Text: "5"},
			},
		},
		Answer: &quiz.AnswerRecord{Kind: quiz.TypeMCQMulti, Letters: []string{"A", "C"}},
	}
	doc := generate(t, &Backend{}, qa)
	for _, want := range []string{
		`<varequal respident="response1">A</varequal>`,
		`<varequal respident="response1">C</varequal>`,
		`<not><varequal respident="response1">B</varequal></not>`,
		"<and>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %s:\n%s", want, doc)
		}
	}
}

func TestOrderingConditionIsExactSequence(t *testing.T) {
	qa := quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{
			Number: 1, Stem: "Order the steps.", Type: quiz.TypeOrdering,
			Options: []quiz.Option{
				{Letter: "A", Text: "Mix"}, {Letter: "B", Text: "Bake"}, {Letter: "C", Text: "Cool"},
			},
		},
		Answer: &quiz.AnswerRecord{Kind: quiz.TypeOrdering, Sequence: []string{"b", "a", "C"}},
	}
	doc := generate(t, &Backend{}, qa)
	b := strings.Index(doc, `index="1">B`)
	a := strings.Index(doc, `index="2">A`)
	c := strings.Index(doc, `index="3">C`)
	if b < 0 || a < 0 || c < 0 || !(b < a && a < c) {
		t.Errorf("sequence conditions wrong:\n%s", doc)
	}
	if !strings.Contains(doc, `rcardinality="Ordered"`) {
		t.Errorf("response not ordered")
	}
}

func TestFreeTextMembershipIsCaseInsensitive(t *testing.T) {
	qa := quiz.QuestionAnswer{
		Draft: quiz.QuestionDraft{Number: 2, Stem: "The sky is ___ .", Type: quiz.TypeFIBText},
		Answer: &quiz.AnswerRecord{
			Kind: quiz.TypeFIBText, Texts: []string{"blue", "Blue"},
		},
	}
	doc := generate(t, &Backend{}, qa)
	if !strings.Contains(doc, `case="No">blue<`) || !strings.Contains(doc, `case="No">Blue<`) {
		t.Errorf("accepted literals missing:\n%s", doc)
	}
	if !strings.Contains(doc, "<or>") {
		t.Errorf("membership should be a disjunction:\n%s", doc)
	}
}

func TestImageHrefBaseFollowsProfile(t *testing.T) {
	reg := quiz.NewImageRegistry()
	tok := reg.Register([]byte("png"), 10, 10, "image/png")
	qa := mcq(1, "B")
	qa.Draft.Stem = "Look: " + tok

	cc, err := (&Backend{ccProfile: true}).Generate([]quiz.QuestionAnswer{qa}, reg, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cc.Items[0].Data), "$IMS-CC-FILEBASE$../resources/") {
		t.Errorf("imscc profile href base missing")
	}

	plain, err := (&Backend{}).Generate([]quiz.QuestionAnswer{qa}, reg, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(plain.Items[0].Data), `src="resources/`) {
		t.Errorf("plain qti12 href base missing")
	}
	if len(plain.Resources) != 1 {
		t.Errorf("resources = %d", len(plain.Resources))
	}
}

func TestManifestListsAssessmentAndImages(t *testing.T) {
	reg := quiz.NewImageRegistry()
	reg.Register([]byte("png"), 10, 10, "image/png")
	res, err := (&Backend{ccProfile: true}).Generate([]quiz.QuestionAnswer{mcq(1, "B")}, reg, "t")
	if err != nil {
		t.Fatal(err)
	}
	mf := string(res.Manifest.Data)
	if !strings.Contains(mf, `href="assessment.xml"`) {
		t.Errorf("manifest missing assessment:\n%s", mf)
	}
	if !strings.Contains(mf, `type="webcontent"`) {
		t.Errorf("manifest missing image resource:\n%s", mf)
	}
}
